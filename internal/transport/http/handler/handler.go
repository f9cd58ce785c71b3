// Package handler exposes the lending services over gin. Each module mounts its own
// routes; authorization runs through domain.Authorize before a service call.
package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"library-lending/internal/core/auth"
	"library-lending/internal/core/config"
	"library-lending/internal/service"
	"library-lending/internal/transport/http/ez"
	mdw "library-lending/internal/transport/http/middleware"
)

type Deps struct {
	Svc           *service.Services
	JWT           *auth.JWTer
	Log           *zap.Logger
	Limits        config.Limits
	RetryAttempts int
}

const (
	defaultLimit = 10
	maxLimit     = 100
)

// pageQuery is 1-based. Zero values fall back to the defaults.
type pageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (q pageQuery) bounds() (page, offset, limit int) {
	page, limit = q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, (page - 1) * limit, limit
}

type idURI struct {
	ID string `uri:"id" binding:"required,max=64"`
}

type ok struct {
	OK bool `json:"ok"`
}

func byUser(c *gin.Context) string {
	if uid := c.GetString(ez.KeyUserID); uid != "" {
		return "u:" + uid
	}
	return "ip:" + c.ClientIP()
}

// perHour and perMinute build route limiters; n <= 0 disables them.
func perHour(n int) gin.HandlerFunc {
	if n <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return mdw.RateLimitBy(byUser, mdw.Every(n, time.Hour), n)
}

func perMinuteIP(n int) gin.HandlerFunc {
	if n <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return mdw.RateLimitPerIP(mdw.Every(n, time.Minute), n)
}

func perMinuteUser(n int) gin.HandlerFunc {
	if n <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return mdw.RateLimitBy(byUser, mdw.Every(n, time.Minute), n)
}
