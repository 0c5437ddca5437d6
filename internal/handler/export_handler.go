package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-ratings-api/internal/service"
	"github.com/noah-isme/teacher-ratings-api/pkg/response"
)

// ExportHandler streams roster downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Teachers godoc
// @Summary Download the teacher roster
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Security AdminToken
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorBody
// @Router /admin/teachers/export [get]
func (h *ExportHandler) Teachers(c *gin.Context) {
	file, err := h.exports.Export(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
