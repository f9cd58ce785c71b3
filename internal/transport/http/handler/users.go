package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-lending/internal/domain"
	"library-lending/internal/service"
	"library-lending/internal/transport/http/ez"
	mdw "library-lending/internal/transport/http/middleware"
	resp "library-lending/internal/transport/http/response"
)

// Users is the staff-side account administration mounted on the admin server.
type Users struct{ d Deps }

func NewUsers(d Deps) *Users { return &Users{d: d} }

type userQuery struct {
	pageQuery
	Q string `form:"q" binding:"max=191"`
}

type userIn struct {
	Name     string `json:"name" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email,max=191"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"omitempty,role"`
}

type userPatchIn struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=64"`
	Email    *string `json:"email" binding:"omitempty,email,max=191"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
	Role     *string `json:"role" binding:"omitempty,role"`
}

func (h *Users) MountAdmin(g *gin.RouterGroup) {
	e := ez.New(g, h.d.Log).Group("/users",
		mdw.AuthJWT(h.d.JWT, domain.RoleLibrarian, domain.RoleAdmin),
		perMinuteUser(h.d.Limits.AdminActionPerMin))

	ez.RegisterAction(e, ez.Action[userQuery, resp.Page[domain.User]]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *userQuery) (resp.Page[domain.User], error) {
			if err := domain.Authorize(ez.Principal(c), domain.ActionListUsers, domain.Target{}); err != nil {
				return resp.Page[domain.User]{}, err
			}
			page, offset, limit := in.bounds()
			users, total, err := h.d.Svc.Accounts.ListUsers(c.Request.Context(), in.Q, offset, limit)
			if err != nil {
				return resp.Page[domain.User]{}, err
			}
			return resp.NewPage(users, total, page, limit), nil
		},
	})
	ez.RegisterAction(e, ez.Action[userIn, *domain.User]{
		Method: http.MethodPost, Path: "", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *userIn) (*domain.User, error) {
			if err := domain.Authorize(ez.Principal(c), domain.ActionManageUsers, domain.Target{}); err != nil {
				return nil, err
			}
			return h.d.Svc.Accounts.CreateUser(c.Request.Context(), service.UserInput{
				Name: in.Name, Email: in.Email, Password: in.Password, Role: domain.Role(in.Role),
			})
		},
	})
	ez.RegisterAction(e, ez.Action[userPatchIn, *domain.User]{
		Method: http.MethodPut, Path: "/:id", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *userPatchIn) (*domain.User, error) {
			if err := domain.Authorize(ez.Principal(c), domain.ActionManageUsers, domain.Target{}); err != nil {
				return nil, err
			}
			p := service.UserPatch{Name: in.Name, Email: in.Email, Password: in.Password}
			if in.Role != nil {
				r := domain.Role(*in.Role)
				p.Role = &r
			}
			return h.d.Svc.Accounts.UpdateUser(c.Request.Context(), c.Param("id"), p)
		},
	})
	ez.RegisterAction(e, ez.Action[idURI, service.Removed]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindURI, Auth: true,
		Handler: func(c *gin.Context, in *idURI) (service.Removed, error) {
			ctx := c.Request.Context()
			role, err := h.d.Svc.Deletion.UserRole(ctx, in.ID)
			if err != nil {
				return nil, err
			}
			t := domain.Target{UserID: in.ID, Role: role}
			if err := domain.Authorize(ez.Principal(c), domain.ActionDeleteUser, t); err != nil {
				return nil, err
			}
			return h.d.Svc.Deletion.DeleteUser(ctx, in.ID)
		},
	})
}
