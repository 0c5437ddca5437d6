package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-ratings-api/internal/models"
	"github.com/noah-isme/teacher-ratings-api/internal/service"
	appErrors "github.com/noah-isme/teacher-ratings-api/pkg/errors"
	"github.com/noah-isme/teacher-ratings-api/pkg/response"
)

// ContextAdminKey is the gin context key storing the validated admin claims.
const ContextAdminKey = "currentAdmin"

// RequireAdmin accepts a token from "Authorization: Bearer <token>" or, when
// no header is sent, from the cookie named cookieName.
func RequireAdmin(auth service.Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := adminToken(c, cookieName)
		if !ok {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, appErrors.ErrUnauthorized.Message))
			return
		}

		claims, err := auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(ContextAdminKey, claims)
		c.Next()
	}
}

// CurrentAdmin returns the claims attached by RequireAdmin.
func CurrentAdmin(c *gin.Context) (*models.AdminClaims, bool) {
	v, ok := c.Get(ContextAdminKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*models.AdminClaims)
	return claims, ok
}

func adminToken(c *gin.Context, cookieName string) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", false
		}
		token := strings.TrimSpace(parts[1])
		return token, token != ""
	}
	if cookieName == "" {
		return "", false
	}
	cookie, err := c.Request.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
