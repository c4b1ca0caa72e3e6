package app

import (
	"net/http"

	"school_resource_hub/models"

	"github.com/gin-gonic/gin"
)

// Identity headers set by the auth proxy in front of this service. The
// service trusts them; verifying them is the proxy's job.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

func UserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetHeader(HeaderUserID)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		role := models.Role(c.GetHeader(HeaderUserRole))
		if role != models.RoleAdmin {
			role = models.RoleDocente
		}
		c.Set("userID", uid)
		c.Set("role", role)
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("role")
		if !ok || v.(models.Role) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// Role reads the caller's role out of the request context.
func Role(c *gin.Context) models.Role {
	if v, ok := c.Get("role"); ok {
		return v.(models.Role)
	}
	return models.RoleDocente
}

// UserID reads the caller's id out of the request context.
func UserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		return v.(string)
	}
	return ""
}
