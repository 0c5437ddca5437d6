package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-ratings-api/internal/middleware"
	appErrors "github.com/noah-isme/teacher-ratings-api/pkg/errors"
)

// bindJSON decodes the body, mapping oversize bodies to 413 and anything else to 400.
func bindJSON(c *gin.Context, dest interface{}, message string) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		if middleware.IsBodyTooLarge(err) {
			return appErrors.Wrap(err, appErrors.ErrPayloadTooLarge.Code, appErrors.ErrPayloadTooLarge.Status, appErrors.ErrPayloadTooLarge.Message)
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}
