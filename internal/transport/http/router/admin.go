package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewAdminEngine serves account administration under /admin/v1. It is meant to
// listen on an internal address only.
func NewAdminEngine(l *zap.Logger, o EngineOptions, reg *Registry) *gin.Engine {
	r := newEngine(l, o)
	reg.MountAllAdmin(r.Group("/admin/v1"))
	return r
}
