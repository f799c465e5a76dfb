package middleware

import (
	"net/http"
	"strings"

	"bustix/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

// Actor decodes the caller's identity from the bearer token issued by the
// auth collaborator. The identity is trusted as input; no roles or accounts
// are re-derived here.
func Actor(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":   false,
				"errorKind": "Unauthorized",
				"message":   "missing bearer token",
			})
			return
		}

		claims := jwt.MapClaims{}
		if _, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{"HS256"})); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":   false,
				"errorKind": "Unauthorized",
				"message":   "invalid token",
			})
			return
		}

		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)
		c.Set(actorKey, services.Actor{Email: email, Role: role})
		c.Next()
	}
}

// GetActor returns the decoded actor for the request.
func GetActor(c *gin.Context) services.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(services.Actor); ok {
			return a
		}
	}
	return services.Actor{}
}

// RequireRole rejects callers whose role is not in the allowed set.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		if !allowed[GetActor(c).Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success":   false,
				"errorKind": "Forbidden",
				"message":   "insufficient role",
			})
			return
		}
		c.Next()
	}
}
