package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"library-lending/internal/core/auth"
	"library-lending/internal/domain"
	"library-lending/internal/transport/http/ez"
	resp "library-lending/internal/transport/http/response"
)

// AuthJWT requires a valid access token. With roles given, the token's role must be one of them.
func AuthJWT(j *auth.JWTer, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if len(roles) > 0 && !allowed(domain.Role(claims.Role), roles) {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set(ez.KeyClaims, claims)
		c.Set(ez.KeyUserID, claims.UID)
		c.Set(ez.KeyRole, claims.Role)
		c.Next()
	}
}

func allowed(r domain.Role, roles []domain.Role) bool {
	for _, x := range roles {
		if r == x {
			return true
		}
	}
	return false
}
