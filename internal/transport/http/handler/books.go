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

// Books serves the catalog. Reads are public; writes need the manage-books permission.
type Books struct{ d Deps }

func NewBooks(d Deps) *Books { return &Books{d: d} }

type bookQuery struct {
	pageQuery
	Search    string `form:"search" binding:"max=200"`
	Author    string `form:"author" binding:"max=100"`
	Publisher string `form:"publisher" binding:"max=100"`
	Available *bool  `form:"available"`
}

type bookIn struct {
	Title           string  `json:"title" binding:"required,max=200"`
	Author          string  `json:"author" binding:"required,max=100"`
	ISBN            *string `json:"isbn" binding:"omitempty,isbn"`
	Publisher       string  `json:"publisher" binding:"max=100"`
	PublishedYear   *int    `json:"publishedYear" binding:"omitempty,min=0,max=9999"`
	ImageURL        string  `json:"imageUrl" binding:"omitempty,url,max=512"`
	AvailableCopies *int    `json:"availableCopies" binding:"omitempty,min=0"`
}

type bookPatchIn struct {
	Title           *string `json:"title" binding:"omitempty,min=1,max=200"`
	Author          *string `json:"author" binding:"omitempty,min=1,max=100"`
	ISBN            *string `json:"isbn" binding:"omitempty,isbn"`
	Publisher       *string `json:"publisher" binding:"omitempty,max=100"`
	PublishedYear   *int    `json:"publishedYear" binding:"omitempty,min=0,max=9999"`
	ImageURL        *string `json:"imageUrl" binding:"omitempty,url,max=512"`
	AvailableCopies *int    `json:"availableCopies" binding:"omitempty,min=0"`
}

func (h *Books) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g, h.d.Log).Group("/books")

	ez.RegisterAction(e, ez.Action[bookQuery, resp.Page[domain.Book]]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *bookQuery) (resp.Page[domain.Book], error) {
			page, offset, limit := in.bounds()
			books, total, err := h.d.Svc.Catalog.ListBooks(c.Request.Context(), domain.BookFilter{
				Search: in.Search, Author: in.Author, Publisher: in.Publisher, Available: in.Available,
				Offset: offset, Limit: limit,
			})
			if err != nil {
				return resp.Page[domain.Book]{}, err
			}
			return resp.NewPage(books, total, page, limit), nil
		},
	})
	ez.RegisterAction(e, ez.Action[idURI, *domain.Book]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindURI,
		Handler: func(c *gin.Context, in *idURI) (*domain.Book, error) {
			return h.d.Svc.Catalog.GetBook(c.Request.Context(), in.ID)
		},
	})

	staff := e.Group("", mdw.AuthJWT(h.d.JWT))
	ez.RegisterAction(staff, ez.Action[bookIn, *domain.Book]{
		Method: http.MethodPost, Path: "", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *bookIn) (*domain.Book, error) {
			p := ez.Principal(c)
			if err := domain.Authorize(p, domain.ActionManageBooks, domain.Target{}); err != nil {
				return nil, err
			}
			return h.d.Svc.Catalog.CreateBook(c.Request.Context(), p, service.BookInput{
				Title: in.Title, Author: in.Author, ISBN: in.ISBN, Publisher: in.Publisher,
				PublishedYear: in.PublishedYear, ImageURL: in.ImageURL, Copies: in.AvailableCopies,
			})
		},
	})
	ez.RegisterAction(staff, ez.Action[bookPatchIn, *domain.Book]{
		Method: http.MethodPut, Path: "/:id", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *bookPatchIn) (*domain.Book, error) {
			p := ez.Principal(c)
			if err := domain.Authorize(p, domain.ActionManageBooks, domain.Target{}); err != nil {
				return nil, err
			}
			return h.d.Svc.Catalog.UpdateBook(c.Request.Context(), p, c.Param("id"), service.BookPatch{
				Title: in.Title, Author: in.Author, ISBN: in.ISBN, Publisher: in.Publisher,
				PublishedYear: in.PublishedYear, ImageURL: in.ImageURL, Copies: in.AvailableCopies,
			})
		},
	})
	ez.RegisterAction(staff, ez.Action[idURI, service.Removed]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindURI, Auth: true,
		Handler: func(c *gin.Context, in *idURI) (service.Removed, error) {
			if err := domain.Authorize(ez.Principal(c), domain.ActionManageBooks, domain.Target{}); err != nil {
				return nil, err
			}
			return h.d.Svc.Deletion.DeleteBook(c.Request.Context(), in.ID)
		},
	})
}
