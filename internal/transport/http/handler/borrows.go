package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"library-lending/internal/domain"
	"library-lending/internal/service"
	"library-lending/internal/transport/http/ez"
	mdw "library-lending/internal/transport/http/middleware"
	resp "library-lending/internal/transport/http/response"
)

// Borrows serves circulation for the signed-in user plus staff views.
type Borrows struct{ d Deps }

func NewBorrows(d Deps) *Borrows { return &Borrows{d: d} }

type borrowIn struct {
	BookID string `json:"bookId" binding:"required,max=64"`
}

type allBorrowsQuery struct {
	pageQuery
	Active bool `form:"active"`
}

func (h *Borrows) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g, h.d.Log).Group("/borrows", mdw.AuthJWT(h.d.JWT))

	ez.RegisterAction(e, ez.Action[borrowIn, *domain.BorrowRecord]{
		Method: http.MethodPost, Path: "", Binder: ez.BindJSON, Auth: true,
		Use: []gin.HandlerFunc{perHour(h.d.Limits.BorrowPerHour)},
		Handler: func(c *gin.Context, in *borrowIn) (rec *domain.BorrowRecord, err error) {
			uid := ez.Principal(c).ID
			err = service.Retry(c.Request.Context(), h.d.RetryAttempts, func(ctx context.Context) error {
				rec, err = h.d.Svc.Borrows.CreateBorrow(ctx, uid, in.BookID)
				return err
			})
			return rec, err
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, []domain.BorrowRecord]{
		Method: http.MethodGet, Path: "/my", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.BorrowRecord, error) {
			recs, err := h.d.Svc.Borrows.ListMine(c.Request.Context(), ez.Principal(c).ID)
			if recs == nil {
				recs = []domain.BorrowRecord{}
			}
			return recs, err
		},
	})
	ez.RegisterAction(e, ez.Action[allBorrowsQuery, resp.Page[domain.BorrowRecord]]{
		Method: http.MethodGet, Path: "/all", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *allBorrowsQuery) (resp.Page[domain.BorrowRecord], error) {
			if err := domain.Authorize(ez.Principal(c), domain.ActionViewAllBorrows, domain.Target{}); err != nil {
				return resp.Page[domain.BorrowRecord]{}, err
			}
			page, offset, limit := in.bounds()
			recs, total, err := h.d.Svc.Borrows.ListAll(c.Request.Context(), in.Active, offset, limit)
			if err != nil {
				return resp.Page[domain.BorrowRecord]{}, err
			}
			return resp.NewPage(recs, total, page, limit), nil
		},
	})
	ez.RegisterAction(e, ez.Action[idURI, *domain.BorrowRecord]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindURI, Auth: true,
		Handler: func(c *gin.Context, in *idURI) (*domain.BorrowRecord, error) {
			rec, err := h.d.Svc.Borrows.Get(c.Request.Context(), in.ID)
			if err != nil {
				return nil, err
			}
			if err := domain.Authorize(ez.Principal(c), domain.ActionViewBorrow, domain.Target{OwnerID: rec.UserID}); err != nil {
				return nil, err
			}
			return rec, nil
		},
	})
	ez.RegisterAction(e, ez.Action[idURI, *domain.BorrowRecord]{
		Method: http.MethodPost, Path: "/:id/return", Binder: ez.BindURI, Auth: true,
		Handler: func(c *gin.Context, in *idURI) (rec *domain.BorrowRecord, err error) {
			uid := ez.Principal(c).ID
			err = service.Retry(c.Request.Context(), h.d.RetryAttempts, func(ctx context.Context) error {
				rec, err = h.d.Svc.Borrows.ReturnBorrow(ctx, in.ID, uid)
				return err
			})
			return rec, err
		},
	})
	ez.RegisterAction(e, ez.Action[idURI, ok]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindURI, Auth: true,
		Handler: func(c *gin.Context, in *idURI) (ok, error) {
			if err := domain.Authorize(ez.Principal(c), domain.ActionDeleteBorrowRecord, domain.Target{}); err != nil {
				return ok{}, err
			}
			if err := h.d.Svc.Borrows.DeleteBorrowRecord(c.Request.Context(), in.ID); err != nil {
				return ok{}, err
			}
			return ok{OK: true}, nil
		},
	})
	ez.RegisterAction(e, ez.Action[idURI, []domain.Fine]{
		Method: http.MethodGet, Path: "/:id/fines", Binder: ez.BindURI, Auth: true,
		Handler: func(c *gin.Context, in *idURI) ([]domain.Fine, error) {
			rec, err := h.d.Svc.Borrows.Get(c.Request.Context(), in.ID)
			if err != nil {
				return nil, err
			}
			if err := domain.Authorize(ez.Principal(c), domain.ActionViewFines, domain.Target{OwnerID: rec.UserID}); err != nil {
				return nil, err
			}
			fines, err := h.d.Svc.Fines.ListByBorrow(c.Request.Context(), in.ID)
			if fines == nil {
				fines = []domain.Fine{}
			}
			return fines, err
		},
	})
}
