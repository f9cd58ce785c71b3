// Package ez registers gin handlers as typed actions: bind the input, run the
// handler, map its error onto the response envelope.
package ez

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"library-lending/internal/domain"
	resp "library-lending/internal/transport/http/response"
)

// Context keys set by the auth middleware.
const (
	KeyUserID = "userId"
	KeyRole   = "role"
	KeyClaims = "claims"
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l}
}

// Group returns an EZ on a sub group sharing the logger.
func (e EZ) Group(path string, h ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, h...), log: e.log}
}

type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindURI   Binder = "uri"
	BindNone  Binder = "none"
)

// AErr carries an explicit business code.
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }

// Action describes one endpoint. I is the bound input, O the data payload.
type Action[I any, O any] struct {
	Method string
	Path   string
	Binder Binder
	// Auth requires a user id in the context, Roles narrows it further.
	Auth    bool
	Roles   []domain.Role
	Use     []gin.HandlerFunc // route-level middleware, e.g. limiters
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		if a.Auth || len(a.Roles) > 0 {
			if c.GetString(KeyUserID) == "" {
				c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
				return
			}
			if len(a.Roles) > 0 && !hasRole(domain.Role(c.GetString(KeyRole)), a.Roles) {
				c.JSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
				return
			}
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindURI:
			bindErr = c.ShouldBindUri(&in)
		}
		if bindErr != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, bindMessage(bindErr)))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			e.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	handlers := append(append([]gin.HandlerFunc(nil), a.Use...), h)
	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, handlers...)
	case http.MethodPut:
		e.g.PUT(a.Path, handlers...)
	case http.MethodPatch:
		e.g.PATCH(a.Path, handlers...)
	case http.MethodDelete:
		e.g.DELETE(a.Path, handlers...)
	default:
		e.g.POST(a.Path, handlers...)
	}
}

func hasRole(r domain.Role, allowed []domain.Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// Principal is the authenticated caller.
func Principal(c *gin.Context) domain.Principal {
	return domain.Principal{ID: c.GetString(KeyUserID), Role: domain.Role(c.GetString(KeyRole))}
}

func (e EZ) writeError(c *gin.Context, err error) {
	code, msg, data := Classify(err)
	if code == resp.CodeServerError {
		e.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(http.StatusOK, resp.ErrorData(code, msg, data))
}

// Classify maps an error onto a business code and the message shown to clients.
// Unknown errors are hidden behind the default 500 message.
func Classify(err error) (code int, msg string, data any) {
	var (
		ae *AErr
		ce *domain.ConflictError
		ve *domain.ValidationError
	)
	switch {
	case errors.As(err, &ae):
		return ae.Code, ae.Error(), nil
	case errors.As(err, &ve):
		return resp.CodeBadRequest, ve.Error(), nil
	case errors.As(err, &ce):
		if ce.ActiveBorrows > 0 {
			return resp.CodeConflict, ce.Error(), gin.H{"activeBorrows": ce.ActiveBorrows}
		}
		return resp.CodeConflict, ce.Error(), nil
	case errors.Is(err, domain.ErrNotFound):
		return resp.CodeNotFound, err.Error(), nil
	case errors.Is(err, domain.ErrUnavailable):
		return resp.CodeUnavailable, err.Error(), nil
	case errors.Is(err, domain.ErrForbidden):
		return resp.CodeForbidden, err.Error(), nil
	case errors.Is(err, domain.ErrUnauthorized):
		return resp.CodeUnauthorized, err.Error(), nil
	case errors.Is(err, context.DeadlineExceeded):
		return resp.CodeTimeout, "", nil
	}
	return resp.CodeServerError, "", nil
}

func bindMessage(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err.Error()
	}
	parts := make([]string, 0, len(ves))
	for _, fe := range ves {
		p := fe.Field() + " failed " + fe.Tag()
		if fe.Param() != "" {
			p += "=" + fe.Param()
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "; ")
}
