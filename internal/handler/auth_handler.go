package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-ratings-api/internal/models"
	"github.com/noah-isme/teacher-ratings-api/internal/service"
	appErrors "github.com/noah-isme/teacher-ratings-api/pkg/errors"
	"github.com/noah-isme/teacher-ratings-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service    *service.AuthService
	cookieName string
	secure     bool
}

// NewAuthHandler creates a new handler. An empty cookieName disables the token cookie.
func NewAuthHandler(svc *service.AuthService, cookieName string, secure bool) *AuthHandler {
	return &AuthHandler{service: svc, cookieName: cookieName, secure: secure}
}

// Login godoc
// @Summary Authenticate administrator
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} models.LoginResponse
// @Failure 401 {object} response.ErrorBody
// @Router /admin/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidCredentials.Code, appErrors.ErrInvalidCredentials.Status, appErrors.ErrInvalidCredentials.Message))
		return
	}
	req.IP = c.ClientIP()

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.cookieName != "" {
		cookie := &http.Cookie{
			Name:     h.cookieName,
			Value:    res.Token,
			Path:     "/",
			Secure:   h.secure,
			SameSite: http.SameSiteStrictMode,
		}
		if res.ExpiresAt != nil {
			cookie.Expires = *res.ExpiresAt
			cookie.MaxAge = int(time.Until(*res.ExpiresAt).Seconds())
		}
		http.SetCookie(c.Writer, cookie)
	}
	response.OK(c, res)
}

// Logout godoc
// @Summary Clear the admin token cookie
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Message
// @Router /admin/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if h.cookieName != "" {
		http.SetCookie(c.Writer, &http.Cookie{Name: h.cookieName, Value: "", Path: "/", MaxAge: -1})
	}
	response.OK(c, response.Message{Message: "Logged out"})
}
