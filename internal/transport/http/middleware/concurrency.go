package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "library-lending/internal/transport/http/response"
)

// ConcurrencyLimit caps in-flight requests so the database pool is not overrun.
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeServerBusy, "server busy"))
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
