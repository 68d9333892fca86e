package handlers

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"yumspot-api/config"
	"yumspot-api/middleware"
	"yumspot-api/models"
	"yumspot-api/payment"
	"yumspot-api/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Services holds the collaborators of handlers that reach outside the database.
// A nil Gateway or Images disables the endpoints that need them.
type Services struct {
	Gateway payment.Gateway
	Webhook *payment.WebhookHandler
	Images  storage.ImageStore
	Logger  *slog.Logger
}

// Page sizes per listing
const (
	restaurantPageSize = 5
	foodPageSize       = 5
	reviewPageSize     = 10
)

// RegisterValidators installs the custom binding tags used by request structs.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return models.UserRole(fl.Field().String()).Valid()
		})
	}
}

// paramID parses a positive numeric path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// queryUint parses an optional numeric query parameter.
func queryUint(c *gin.Context, name string) (uint, bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, errors.New(name + " must be a non-negative integer")
	}
	return uint(v), true, nil
}

// queryInt64 parses an optional integer query parameter.
func queryInt64(c *gin.Context, name string) (*int64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.New(name + " must be an integer")
	}
	return &v, nil
}

// dbError answers 404 for missing records and 500 for anything else.
func dbError(c *gin.Context, err error, notFound string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func serverError(c *gin.Context, err error, msg string) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// paginate loads one page of q into dest and returns the page metadata.
// preload is applied to the page query only, never to the count.
func paginate(c *gin.Context, q *gorm.DB, size int, dest any, preload ...func(*gorm.DB) *gorm.DB) (gin.H, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, err
	}
	pageQ := q.Session(&gorm.Session{})
	for _, p := range preload {
		pageQ = p(pageQ)
	}
	if err := pageQ.Limit(size).Offset((page - 1) * size).Find(dest).Error; err != nil {
		return nil, err
	}
	totalPages := int(math.Ceil(float64(count) / float64(size)))
	return gin.H{
		"total":       count,
		"page":        page,
		"page_size":   size,
		"total_pages": totalPages,
		"has_next":    page < totalPages,
		"has_prev":    page > 1,
	}, nil
}

// canManageRestaurant reports whether the caller is an admin or the restaurant's owner.
func canManageRestaurant(c *gin.Context, r *models.Restaurant) bool {
	return middleware.GetRole(c) == models.RoleAdmin || r.UserID == middleware.GetUserID(c)
}

// findActiveRestaurant loads an active restaurant or answers 404.
func findActiveRestaurant(c *gin.Context, id uint) (*models.Restaurant, bool) {
	var restaurant models.Restaurant
	if err := config.DB.Where("active = ?", true).First(&restaurant, id).Error; err != nil {
		dbError(c, err, "Restaurant not found")
		return nil, false
	}
	return &restaurant, true
}
