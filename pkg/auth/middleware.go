package auth

import (
	"net/http"
	"strings"

	"greatreads/pkg/models"
	"greatreads/pkg/roles"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const contextUserKey = "currentUser"

// RequireUser resolves the current user from a bearer token in the
// Authorization header or the access_token cookie. Missing or invalid
// credentials abort with 401; a resolved but inactive user aborts with 400.
func RequireUser(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
			return
		}
		user := ResolveToken(db, token, secret)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Inactive user"})
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// RequirePermission guards a route behind a role permission. Must run after
// RequireUser.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if !roles.HasPermission(user, permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Permission denied: " + permission + " required",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user resolved by RequireUser, or nil.
func CurrentUser(c *gin.Context) *models.User {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

func tokenFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	cookie, err := c.Cookie("access_token")
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(cookie, "Bearer ")
}
