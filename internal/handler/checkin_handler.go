package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fitcoach/fitcoach-api/internal/models"
	"github.com/fitcoach/fitcoach-api/internal/service"
	appErrors "github.com/fitcoach/fitcoach-api/pkg/errors"
	"github.com/fitcoach/fitcoach-api/pkg/response"
)

// CheckInHandler exposes workout check-in endpoints.
type CheckInHandler struct {
	checkIns  *service.CheckInService
	dashboard *service.DashboardService
}

// NewCheckInHandler constructs CheckInHandler.
func NewCheckInHandler(checkIns *service.CheckInService, dashboard *service.DashboardService) *CheckInHandler {
	return &CheckInHandler{checkIns: checkIns, dashboard: dashboard}
}

// List godoc
// @Summary Check-in history
// @Tags CheckIns
// @Produce json
// @Security BearerAuth
// @Param classId query string false "Filter by class"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /check-ins [get]
func (h *CheckInHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.CheckInFilter{UserID: claims.UserID, ClassID: c.Query("classId")}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	checkIns, pagination, err := h.checkIns.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, checkIns, pagination)
}

// Create godoc
// @Summary Record a workout check-in
// @Tags CheckIns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CheckInRequest true "Check-in payload"
// @Success 201 {object} response.Envelope
// @Router /check-ins [post]
func (h *CheckInHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	checkIn, err := h.checkIns.CheckIn(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.dashboard != nil {
		h.dashboard.Invalidate(c.Request.Context(), claims.UserID)
	}
	response.Created(c, checkIn)
}
