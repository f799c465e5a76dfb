package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondOK wraps successful payloads in the standard envelope.
func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"errorKind": "ValidationError",
			"message":   "empty body",
		})
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"errorKind": "ValidationError",
			"message":   "invalid payload",
		})
		return false
	}
	return true
}
