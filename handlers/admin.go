package handlers

import (
	"net/http"
	"strconv"
	"time"

	"yumspot-api/catalog"
	"yumspot-api/config"
	"yumspot-api/models"
	"yumspot-api/stats"

	"github.com/gin-gonic/gin"
)

// AdminDashboard returns headline counters, the cumulative growth chart and
// the category revenue table.
func AdminDashboard(c *gin.Context) {
	days := stats.DefaultDays
	if raw, ok := c.GetQuery("days"); ok && raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > stats.MaxDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": stats.ErrInvalidDays.Error()})
			return
		}
		days = v
	}
	var q stats.Query
	if err := queryPeriod(c, &q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	series, err := stats.CumulativeSeries(ctx, config.DB, days, time.Now())
	if err != nil {
		serverError(c, err, "Failed to build dashboard")
		return
	}
	totals, err := stats.CountTotals(ctx, config.DB)
	if err != nil {
		serverError(c, err, "Failed to build dashboard")
		return
	}
	categories, err := stats.Aggregate(ctx, config.DB, q, stats.ByCategory)
	if err != nil {
		serverError(c, err, "Failed to build dashboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totals":         totals,
		"series":         series,
		"category_stats": categories,
		"revenue_chart":  stats.RevenueChart(categories),
	})
}

// ── Users ───────────────────────────────────────────────────────────────────

type AdminCreateUserRequest struct {
	Username  string          `json:"username" binding:"required,max=150"`
	Email     string          `json:"email" binding:"required,email"`
	Password  string          `json:"password" binding:"required,min=6"`
	Role      models.UserRole `json:"role" binding:"required,role"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
}

// AdminGetAllUsers lists users, optionally filtered by role
func AdminGetAllUsers(c *gin.Context) {
	q := config.DB.Order("id")
	if role := c.Query("role"); role != "" {
		if !models.UserRole(role).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role: " + role})
			return
		}
		q = q.Where("role = ?", role)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		serverError(c, err, "Failed to load users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

// AdminCreateUser creates an account of any role; it is active immediately
func AdminCreateUser(c *gin.Context) {
	var req AdminCreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := createUser(c, RegisterRequest(req))
	if !ok {
		return
	}
	if !user.IsActive {
		if err := config.DB.Model(user).Update("is_active", true).Error; err != nil {
			serverError(c, err, "Failed to activate user")
			return
		}
		user.IsActive = true
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created", "user": user})
}

func setUserActive(c *gin.Context, active bool, msg string) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var user models.User
	if err := config.DB.First(&user, id).Error; err != nil {
		dbError(c, err, "User not found")
		return
	}
	if err := config.DB.Model(&user).Update("is_active", active).Error; err != nil {
		serverError(c, err, "Failed to update user")
		return
	}
	user.IsActive = active
	c.JSON(http.StatusOK, gin.H{"message": msg, "user": user})
}

// ApproveUser activates a pending account
func ApproveUser(c *gin.Context) { setUserActive(c, true, "User approved") }

// DeactivateUser blocks an account from logging in
func DeactivateUser(c *gin.Context) { setUserActive(c, false, "User deactivated") }

// RestaurantsPerOwner counts restaurants of every restaurant owner
func RestaurantsPerOwner(c *gin.Context) {
	owners, err := catalog.CountRestaurantsPerOwner(config.DB)
	if err != nil {
		serverError(c, err, "Failed to count restaurants")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(owners), "owners": owners})
}

// ── Catalog ─────────────────────────────────────────────────────────────────

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=255"`
	Icon string `json:"icon"`
}

// CreateCategory adds a food category
func CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category := models.Category{Base: models.Base{Active: true}, Name: req.Name, Icon: req.Icon}
	if err := config.DB.Create(&category).Error; err != nil {
		serverError(c, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Category created", "category": category})
}

// UploadCategoryIcon replaces a category's icon
func (s *Services) UploadCategoryIcon(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var category models.Category
	if err := config.DB.First(&category, id).Error; err != nil {
		dbError(c, err, "Category not found")
		return
	}
	url, ok := s.receiveImage(c, "categories")
	if !ok {
		return
	}
	if err := config.DB.Model(&category).Update("icon", url).Error; err != nil {
		serverError(c, err, "Failed to save icon")
		return
	}
	c.JSON(http.StatusOK, gin.H{"icon": url})
}

// AdminGetAllOrders returns every order with optional restaurant filter
func AdminGetAllOrders(c *gin.Context) {
	q := config.DB.Preload("Details.Food").Preload("Payment").Preload("Delivery").Order("created_at desc")
	restaurantID, ok, err := queryUint(c, "restaurant_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ok {
		q = q.Where("restaurant_id = ?", restaurantID)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		serverError(c, err, "Failed to load orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}
