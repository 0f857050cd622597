package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by Middleware for downstream handlers.
const (
	ContextUserName = "user_name"
	ContextUserRole = "user_role"
)

// Middleware authenticates requests when a validator is configured.
// With a nil validator it is a no-op: handlers then read the actor from
// the request body. With a validator, a valid bearer token is mandatory
// and its identity overrides whatever the body claims.
func Middleware(validator *TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validator == nil {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "missing bearer token",
			})
			return
		}

		claims, err := validator.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "invalid token",
				"detail":  err.Error(),
			})
			return
		}

		c.Set(ContextUserName, claims.Name)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}
