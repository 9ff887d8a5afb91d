package authentication

import (
	"medibook/apperrors"
	"medibook/configuration"
	"medibook/models"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	CtxUserID = "userID"
	CtxEmail  = "email"
	CtxRole   = "role"
	CtxToken  = "token"
)

const bearerPrefix = "Bearer "

// AuthMiddleware resolves the bearer token into an identity and, when roles
// are given, restricts the route to those roles. The credential is passed
// explicitly on each request; no header state is shared between requests.
func AuthMiddleware(roles ...models.Role) gin.HandlerFunc {
	return authHandler(true, roles)
}

// AuthAllowRevoked resolves the bearer token without consulting the
// revocation denylist. Logout runs behind it, so repeating a logout with an
// already revoked token stays a no-op instead of a 401.
func AuthAllowRevoked() gin.HandlerFunc {
	return authHandler(false, nil)
}

func authHandler(rejectRevoked bool, roles []models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apperrors.Respond(c, apperrors.Auth("MISSING_TOKEN", "authorization header is missing"))
			return
		}
		if !strings.HasPrefix(header, bearerPrefix) {
			apperrors.Respond(c, apperrors.Auth("INVALID_TOKEN", "authorization header must use the Bearer scheme"))
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))

		claims, err := ParseToken(tokenString)
		if err != nil {
			apperrors.Respond(c, apperrors.Auth("INVALID_TOKEN", "session is invalid or expired"))
			return
		}

		if rejectRevoked {
			revoked, err := configuration.IsTokenRevoked(tokenString)
			if err != nil {
				apperrors.Respond(c, apperrors.Internal("failed to check token revocation", err))
				return
			}
			if revoked {
				apperrors.Respond(c, apperrors.Auth("INVALID_TOKEN", "session is invalid or expired"))
				return
			}
		}

		if len(roles) > 0 && !roleAllowed(claims.Role, roles) {
			apperrors.Respond(c, apperrors.Auth("FORBIDDEN_ROLE", "this action is not permitted for your role"))
			return
		}

		c.Set(CtxUserID, claims.ID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxToken, tokenString)
		c.Next()
	}
}

func roleAllowed(role models.Role, allowed []models.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// CurrentUser returns the authenticated identity id and role from the
// request context.
func CurrentUser(c *gin.Context) (uint, models.Role) {
	id, _ := c.Get(CtxUserID)
	role, _ := c.Get(CtxRole)
	userID, _ := id.(uint)
	userRole, _ := role.(models.Role)
	return userID, userRole
}

// TokenTTL returns how long the request's token remains valid, used to size
// the revocation entry on logout.
func TokenTTL(c *gin.Context) time.Duration {
	tokenString, _ := c.Get(CtxToken)
	token, _ := tokenString.(string)
	claims, err := ParseToken(token)
	if err != nil || claims.ExpiresAt == nil {
		return 0
	}
	return time.Until(claims.ExpiresAt.Time)
}
