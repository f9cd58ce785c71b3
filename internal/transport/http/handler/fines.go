package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"library-lending/internal/domain"
	"library-lending/internal/transport/http/ez"
	mdw "library-lending/internal/transport/http/middleware"
)

// Fines lets staff assign and settle fines. Owners read them through /borrows/:id/fines.
type Fines struct{ d Deps }

func NewFines(d Deps) *Fines { return &Fines{d: d} }

type fineIn struct {
	BorrowRecordID string           `json:"borrowRecordId" binding:"required,max=64"`
	Amount         *decimal.Decimal `json:"amount" binding:"required"`
	Reason         *string          `json:"reason" binding:"omitempty,max=255"`
}

type finePatchIn struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason *string          `json:"reason" binding:"omitempty,max=255"`
	Paid   *bool            `json:"paid"`
}

func (h *Fines) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g, h.d.Log).Group("/fines", mdw.AuthJWT(h.d.JWT))

	ez.RegisterAction(e, ez.Action[fineIn, *domain.Fine]{
		Method: http.MethodPost, Path: "", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *fineIn) (*domain.Fine, error) {
			if err := domain.Authorize(ez.Principal(c), domain.ActionManageFines, domain.Target{}); err != nil {
				return nil, err
			}
			return h.d.Svc.Fines.CreateFine(c.Request.Context(), in.BorrowRecordID, *in.Amount, in.Reason)
		},
	})
	ez.RegisterAction(e, ez.Action[idURI, *domain.Fine]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindURI, Auth: true,
		Handler: func(c *gin.Context, in *idURI) (*domain.Fine, error) {
			f, err := h.d.Svc.Fines.Get(c.Request.Context(), in.ID)
			if err != nil {
				return nil, err
			}
			rec, err := h.d.Svc.Borrows.Get(c.Request.Context(), f.BorrowRecordID)
			if err != nil {
				return nil, err
			}
			if err := domain.Authorize(ez.Principal(c), domain.ActionViewFines, domain.Target{OwnerID: rec.UserID}); err != nil {
				return nil, err
			}
			return f, nil
		},
	})
	ez.RegisterAction(e, ez.Action[finePatchIn, *domain.Fine]{
		Method: http.MethodPut, Path: "/:id", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *finePatchIn) (*domain.Fine, error) {
			if err := domain.Authorize(ez.Principal(c), domain.ActionManageFines, domain.Target{}); err != nil {
				return nil, err
			}
			patch := domain.FinePatch{Amount: in.Amount, Reason: in.Reason, Paid: in.Paid}
			if patch.Empty() {
				return nil, ez.BadRequest("nothing to update")
			}
			return h.d.Svc.Fines.UpdateFine(c.Request.Context(), c.Param("id"), patch)
		},
	})
	ez.RegisterAction(e, ez.Action[idURI, ok]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindURI, Auth: true,
		Handler: func(c *gin.Context, in *idURI) (ok, error) {
			if err := domain.Authorize(ez.Principal(c), domain.ActionDeleteFine, domain.Target{}); err != nil {
				return ok{}, err
			}
			if err := h.d.Svc.Fines.DeleteFine(c.Request.Context(), in.ID); err != nil {
				return ok{}, err
			}
			return ok{OK: true}, nil
		},
	})
}
