package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-lending/internal/domain"
	"library-lending/internal/transport/http/ez"
	mdw "library-lending/internal/transport/http/middleware"
)

type Wishlist struct{ d Deps }

func NewWishlist(d Deps) *Wishlist { return &Wishlist{d: d} }

type wishIn struct {
	BookID string  `json:"bookId" binding:"required,max=64"`
	Notes  *string `json:"notes" binding:"omitempty,max=500"`
}

type bookURI struct {
	BookID string `uri:"bookId" binding:"required,max=64"`
}

type inWishlist struct {
	InWishlist bool `json:"inWishlist"`
}

func (h *Wishlist) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g, h.d.Log).Group("/wishlist", mdw.AuthJWT(h.d.JWT))

	ez.RegisterAction(e, ez.Action[struct{}, []domain.WishlistEntry]{
		Method: http.MethodGet, Path: "", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.WishlistEntry, error) {
			list, err := h.d.Svc.Wishlist.List(c.Request.Context(), ez.Principal(c).ID)
			if list == nil {
				list = []domain.WishlistEntry{}
			}
			return list, err
		},
	})
	ez.RegisterAction(e, ez.Action[wishIn, *domain.WishlistEntry]{
		Method: http.MethodPost, Path: "", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *wishIn) (*domain.WishlistEntry, error) {
			return h.d.Svc.Wishlist.Add(c.Request.Context(), ez.Principal(c).ID, in.BookID, in.Notes)
		},
	})
	ez.RegisterAction(e, ez.Action[bookURI, ok]{
		Method: http.MethodDelete, Path: "/:bookId", Binder: ez.BindURI, Auth: true,
		Handler: func(c *gin.Context, in *bookURI) (ok, error) {
			if err := h.d.Svc.Wishlist.Remove(c.Request.Context(), ez.Principal(c).ID, in.BookID); err != nil {
				return ok{}, err
			}
			return ok{OK: true}, nil
		},
	})
	ez.RegisterAction(e, ez.Action[bookURI, inWishlist]{
		Method: http.MethodGet, Path: "/:bookId/check", Binder: ez.BindURI, Auth: true,
		Handler: func(c *gin.Context, in *bookURI) (inWishlist, error) {
			yes, err := h.d.Svc.Wishlist.Check(c.Request.Context(), ez.Principal(c).ID, in.BookID)
			return inWishlist{InWishlist: yes}, err
		},
	})
}
