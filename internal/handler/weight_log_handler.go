package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fitcoach/fitcoach-api/internal/models"
	"github.com/fitcoach/fitcoach-api/internal/service"
	appErrors "github.com/fitcoach/fitcoach-api/pkg/errors"
	"github.com/fitcoach/fitcoach-api/pkg/response"
)

// WeightLogHandler exposes weigh-in endpoints.
type WeightLogHandler struct {
	weights   *service.WeightLogService
	dashboard *service.DashboardService
}

// NewWeightLogHandler constructs WeightLogHandler.
func NewWeightLogHandler(weights *service.WeightLogService, dashboard *service.DashboardService) *WeightLogHandler {
	return &WeightLogHandler{weights: weights, dashboard: dashboard}
}

// List godoc
// @Summary Weigh-in history
// @Tags Weight
// @Produce json
// @Security BearerAuth
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /weight-logs [get]
func (h *WeightLogHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.WeightLogFilter{UserID: claims.UserID}
	if from := c.Query("from"); from != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must use YYYY-MM-DD format"))
			return
		}
		filter.DateFrom = &parsed
	}
	if to := c.Query("to"); to != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must use YYYY-MM-DD format"))
			return
		}
		filter.DateTo = &parsed
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	logs, pagination, err := h.weights.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}

// Quota godoc
// @Summary Weekly weigh-in quota
// @Tags Weight
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /weight-logs/quota [get]
func (h *WeightLogHandler) Quota(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	quota, err := h.weights.Quota(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quota, nil)
}

// Create godoc
// @Summary Record a weigh-in
// @Tags Weight
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.LogWeightRequest true "Weigh-in payload"
// @Success 201 {object} response.Envelope
// @Router /weight-logs [post]
func (h *WeightLogHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.LogWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	log, err := h.weights.Log(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.dashboard != nil {
		h.dashboard.Invalidate(c.Request.Context(), claims.UserID)
	}
	response.Created(c, log)
}
