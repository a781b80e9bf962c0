package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fitcoach/fitcoach-api/internal/models"
	"github.com/fitcoach/fitcoach-api/internal/service"
	appErrors "github.com/fitcoach/fitcoach-api/pkg/errors"
	"github.com/fitcoach/fitcoach-api/pkg/response"
)

// maxPhotoBytes caps uploaded meal photos at 10 MiB.
const maxPhotoBytes = 10 << 20

// MealHandler exposes meal logging and photo endpoints.
type MealHandler struct {
	meals *service.MealService
}

// NewMealHandler constructs MealHandler.
func NewMealHandler(meals *service.MealService) *MealHandler {
	return &MealHandler{meals: meals}
}

// List godoc
// @Summary Meal history
// @Tags Meals
// @Produce json
// @Security BearerAuth
// @Param mealType query string false "Filter by meal type"
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /meals [get]
func (h *MealHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.MealFilter{
		UserID:   claims.UserID,
		MealType: models.MealType(strings.ToUpper(c.Query("mealType"))),
	}
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

	meals, pagination, err := h.meals.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meals, pagination)
}

// Get godoc
// @Summary Get meal by ID
// @Tags Meals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Meal ID"
// @Success 200 {object} response.Envelope
// @Router /meals/{id} [get]
func (h *MealHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	meal, err := h.meals.Get(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meal, nil)
}

// Create godoc
// @Summary Log a meal with an optional photo
// @Tags Meals
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param meal_type formData string true "Meal type"
// @Param description formData string false "Description"
// @Param eaten_at formData string false "Eaten at (RFC3339)"
// @Param photo formData file false "Meal photo"
// @Success 201 {object} response.Envelope
// @Router /meals [post]
func (h *MealHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes)

	var req service.LogMealRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.MealType = models.MealType(strings.ToUpper(string(req.MealType)))

	photo, err := c.FormFile("photo")
	if err != nil && err != http.ErrMissingFile {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid photo upload"))
		return
	}

	meal, err := h.meals.Log(c.Request.Context(), claims.UserID, req, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, meal)
}

// Photo godoc
// @Summary Stream a meal photo via signed token
// @Tags Meals
// @Produce octet-stream
// @Param token path string true "Signed photo token"
// @Success 200
// @Router /meals/photos/{token} [get]
func (h *MealHandler) Photo(c *gin.Context) {
	_, file, err := h.meals.Photo(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, -1, "image/jpeg", file, nil)
}
