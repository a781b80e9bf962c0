package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fitcoach/fitcoach-api/internal/service"
	appErrors "github.com/fitcoach/fitcoach-api/pkg/errors"
	"github.com/fitcoach/fitcoach-api/pkg/response"
)

// ExportHandler exposes progress export downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// WeightHistory godoc
// @Summary Export weigh-in history
// @Tags Exports
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf (default csv)"
// @Success 200
// @Router /exports/weight-history [get]
func (h *ExportHandler) WeightHistory(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	file, err := h.exports.WeightHistory(c.Request.Context(), claims.UserID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, file)
}

// CheckInHistory godoc
// @Summary Export check-in history
// @Tags Exports
// @Produce octet-stream
// @Security BearerAuth
// @Success 200
// @Router /exports/check-ins [get]
func (h *ExportHandler) CheckInHistory(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	file, err := h.exports.CheckInHistory(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, file)
}

// ClassRoster godoc
// @Summary Export class roster
// @Tags Exports
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200
// @Router /classes/{id}/roster/export [get]
func (h *ExportHandler) ClassRoster(c *gin.Context) {
	file, err := h.exports.ClassRoster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, file)
}

func writeExport(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(200, file.ContentType, file.Content)
}
