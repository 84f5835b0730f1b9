package middleware

import (
	"net/http"
	"strings"

	"campus-events-api/models"
	"campus-events-api/services"
	"campus-events-api/utils"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
	ContextUser     = "user"
)

// AuthMiddleware requires a valid bearer token and loads its user.
func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		token, found := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !found || token == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		user, err := auth.VerifyToken(c.Request.Context(), token)
		if err != nil {
			utils.SendAppError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserRole, user.Role)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// RequireRoles must run after AuthMiddleware.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			utils.AbortWithError(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		for _, role := range roles {
			if caller.Role == role {
				c.Next()
				return
			}
		}
		utils.AbortWithError(c, http.StatusForbidden, "Insufficient permissions")
	}
}

// CallerFrom returns the authenticated caller stored by AuthMiddleware.
func CallerFrom(c *gin.Context) (services.Caller, bool) {
	id := c.GetString(ContextUserID)
	if id == "" {
		return services.Caller{}, false
	}
	role, _ := c.Get(ContextUserRole)
	r, _ := role.(models.Role)
	return services.Caller{ID: id, Role: r}, true
}

// CurrentUser returns the user loaded by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	value, ok := c.Get(ContextUser)
	if !ok {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}
