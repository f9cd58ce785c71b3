package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-lending/internal/domain"
	"library-lending/internal/service"
	"library-lending/internal/transport/http/ez"
	mdw "library-lending/internal/transport/http/middleware"
)

// Auth serves registration and sessions.
type Auth struct{ d Deps }

func NewAuth(d Deps) *Auth { return &Auth{d: d} }

func (*Auth) Priority() int { return 10 }

type registerIn struct {
	Name     string `json:"name" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email,max=191"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type loginIn struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshIn struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *Auth) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g, h.d.Log).Group("/auth")
	limit := perMinuteIP(h.d.Limits.AuthPerMin)

	ez.RegisterAction(e, ez.Action[registerIn, *service.Session]{
		Method: http.MethodPost, Path: "/register", Binder: ez.BindJSON, Use: []gin.HandlerFunc{limit},
		Handler: func(c *gin.Context, in *registerIn) (*service.Session, error) {
			return h.d.Svc.Accounts.Register(c.Request.Context(), in.Name, in.Email, in.Password)
		},
	})
	ez.RegisterAction(e, ez.Action[loginIn, *service.Session]{
		Method: http.MethodPost, Path: "/login", Binder: ez.BindJSON, Use: []gin.HandlerFunc{limit},
		Handler: func(c *gin.Context, in *loginIn) (*service.Session, error) {
			return h.d.Svc.Accounts.Login(c.Request.Context(), in.Email, in.Password)
		},
	})
	ez.RegisterAction(e, ez.Action[refreshIn, *service.Session]{
		Method: http.MethodPost, Path: "/refresh", Binder: ez.BindJSON, Use: []gin.HandlerFunc{limit},
		Handler: func(c *gin.Context, in *refreshIn) (*service.Session, error) {
			return h.d.Svc.Accounts.Refresh(c.Request.Context(), in.RefreshToken)
		},
	})

	authed := e.Group("", mdw.AuthJWT(h.d.JWT))
	ez.RegisterAction(authed, ez.Action[struct{}, ok]{
		Method: http.MethodPost, Path: "/logout", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (ok, error) {
			return ok{OK: true}, h.d.Svc.Accounts.Logout(c.Request.Context(), ez.Principal(c).ID)
		},
	})
	ez.RegisterAction(authed, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet, Path: "/me", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.d.Svc.Accounts.Profile(c.Request.Context(), ez.Principal(c).ID)
		},
	})
}
