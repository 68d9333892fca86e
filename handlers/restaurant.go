package handlers

import (
	"errors"
	"net/http"
	"time"

	"yumspot-api/catalog"
	"yumspot-api/config"
	"yumspot-api/middleware"
	"yumspot-api/models"
	"yumspot-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ── Restaurant Management ────────────────────────────────────────────────────

type CreateRestaurantRequest struct {
	Name        string   `json:"name" binding:"required,max=255"`
	Description string   `json:"description"`
	Location    string   `json:"location" binding:"required,max=255"`
	PricePerKm  *float64 `json:"price_per_km" binding:"omitempty,gte=0"`
}

// CreateRestaurant lets an approved restaurant owner open a restaurant
func CreateRestaurant(c *gin.Context) {
	var owner models.User
	if err := config.DB.First(&owner, middleware.GetUserID(c)).Error; err != nil {
		dbError(c, err, "User not found")
		return
	}
	if owner.Role != models.RoleRestaurant || !owner.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only approved restaurant owners can create restaurants"})
		return
	}

	var req CreateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	restaurant := models.Restaurant{
		Base:        models.Base{Active: true},
		UserID:      owner.ID,
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
	}
	if req.PricePerKm != nil {
		restaurant.PricePerKm = *req.PricePerKm
	}
	if err := config.DB.Create(&restaurant).Error; err != nil {
		serverError(c, err, "Failed to create restaurant")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Restaurant created", "restaurant": restaurant})
}

// GetMyRestaurants lists the restaurants owned by the caller
func GetMyRestaurants(c *gin.Context) {
	var restaurants []models.Restaurant
	if err := config.DB.Where("user_id = ?", middleware.GetUserID(c)).Order("id").Find(&restaurants).Error; err != nil {
		serverError(c, err, "Failed to load restaurants")
		return
	}
	views, err := catalog.RestaurantViews(config.DB, restaurants)
	if err != nil {
		serverError(c, err, "Failed to load restaurants")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(views), "restaurants": views})
}

// managedRestaurant loads restaurant :id and checks the caller may manage it.
func managedRestaurant(c *gin.Context) (*models.Restaurant, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var restaurant models.Restaurant
	if err := config.DB.First(&restaurant, id).Error; err != nil {
		dbError(c, err, "Restaurant not found")
		return nil, false
	}
	if !canManageRestaurant(c, &restaurant) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't own this restaurant"})
		return nil, false
	}
	return &restaurant, true
}

type UpdateRestaurantRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string  `json:"description"`
	Location    *string  `json:"location" binding:"omitempty,min=1,max=255"`
	PricePerKm  *float64 `json:"price_per_km" binding:"omitempty,gte=0"`
	Active      *bool    `json:"active"`
}

// UpdateRestaurant updates restaurant details
func UpdateRestaurant(c *gin.Context) {
	restaurant, ok := managedRestaurant(c)
	if !ok {
		return
	}
	var req UpdateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := map[string]interface{}{}
	if req.Name != nil {
		update["name"] = *req.Name
	}
	if req.Description != nil {
		update["description"] = *req.Description
	}
	if req.Location != nil {
		update["location"] = *req.Location
	}
	if req.PricePerKm != nil {
		update["price_per_km"] = *req.PricePerKm
	}
	if req.Active != nil {
		update["active"] = *req.Active
	}
	if len(update) > 0 {
		if err := config.DB.Model(restaurant).Updates(update).Error; err != nil {
			serverError(c, err, "Failed to update restaurant")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": restaurant})
}

// UploadRestaurantImage replaces a restaurant's cover image
func (s *Services) UploadRestaurantImage(c *gin.Context) {
	restaurant, ok := managedRestaurant(c)
	if !ok {
		return
	}
	url, ok := s.receiveImage(c, "restaurants")
	if !ok {
		return
	}
	if err := config.DB.Model(restaurant).Update("image", url).Error; err != nil {
		serverError(c, err, "Failed to save image")
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": url})
}

// ── Food Management ─────────────────────────────────────────────────────────

type AddFoodRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Price       int64   `json:"price" binding:"gte=0"`
	Discount    float64 `json:"discount" binding:"gte=0,lte=100"`
	CategoryID  uint    `json:"category_id"`
	Description string  `json:"description"`
}

// AddFood adds a food to one of the caller's restaurants
func AddFood(c *gin.Context) {
	restaurant, ok := managedRestaurant(c)
	if !ok {
		return
	}
	var req AddFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	food, err := catalog.CreateFood(config.DB, restaurant.ID, catalog.NewFood{
		Name:        req.Name,
		Price:       req.Price,
		Discount:    req.Discount,
		CategoryID:  req.CategoryID,
		Description: req.Description,
	})
	switch {
	case errors.Is(err, catalog.ErrCategoryRequired), errors.Is(err, catalog.ErrInvalidDiscount),
		errors.Is(err, catalog.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, catalog.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		serverError(c, err, "Failed to add food")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Food added", "food": food})
}

// managedFood loads food :id and checks the caller owns its restaurant.
func managedFood(c *gin.Context) (*models.Food, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var food models.Food
	if err := config.DB.Preload("Menu.Restaurant").First(&food, id).Error; err != nil {
		dbError(c, err, "Food not found")
		return nil, false
	}
	if !canManageRestaurant(c, &food.Menu.Restaurant) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't own this food"})
		return nil, false
	}
	return &food, true
}

type UpdateFoodRequest struct {
	Name        *string  `json:"name" binding:"omitempty,max=255"`
	Price       *int64   `json:"price" binding:"omitempty,gte=0"`
	Discount    *float64 `json:"discount" binding:"omitempty,gte=0,lte=100"`
	CategoryID  *uint    `json:"category_id"`
	Description *string  `json:"description"`
	Active      *bool    `json:"active"`
}

// UpdateFood edits a food; a new category moves it to that category's menu
func UpdateFood(c *gin.Context) {
	food, ok := managedFood(c)
	if !ok {
		return
	}
	var req UpdateFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := map[string]interface{}{}
	if req.Name != nil {
		update["name"] = *req.Name
	}
	if req.Price != nil {
		update["price"] = *req.Price
	}
	if req.Discount != nil {
		update["discount"] = *req.Discount
	}
	if req.Description != nil {
		update["description"] = *req.Description
	}
	if req.Active != nil {
		update["active"] = *req.Active
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if req.CategoryID != nil && *req.CategoryID != food.CategoryID {
			var category models.Category
			if err := tx.First(&category, *req.CategoryID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return catalog.ErrCategoryNotFound
				}
				return err
			}
			menu, err := catalog.EnsureMenu(tx, food.Menu.RestaurantID, category.ID)
			if err != nil {
				return err
			}
			update["category_id"] = category.ID
			update["menu_id"] = menu.ID
		}
		if len(update) == 0 {
			return nil
		}
		return tx.Model(food).Updates(update).Error
	})
	if errors.Is(err, catalog.ErrCategoryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		serverError(c, err, "Failed to update food")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Food updated", "food": food})
}

// DeleteFood hides a food from the catalog
func DeleteFood(c *gin.Context) {
	food, ok := managedFood(c)
	if !ok {
		return
	}
	if err := config.DB.Model(food).Update("active", false).Error; err != nil {
		serverError(c, err, "Failed to delete food")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Food deleted"})
}

// UploadFoodImage replaces a food's image
func (s *Services) UploadFoodImage(c *gin.Context) {
	food, ok := managedFood(c)
	if !ok {
		return
	}
	url, ok := s.receiveImage(c, "foods")
	if !ok {
		return
	}
	if err := config.DB.Model(food).Update("image", url).Error; err != nil {
		serverError(c, err, "Failed to save image")
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": url})
}

// ── Orders & Deliveries ─────────────────────────────────────────────────────

// GetRestaurantOrders returns the orders placed at the caller's restaurants
func GetRestaurantOrders(c *gin.Context) {
	ids, err := ownedRestaurantIDs(middleware.GetUserID(c))
	if err != nil {
		serverError(c, err, "Failed to load orders")
		return
	}
	var orders []models.Order
	if len(ids) > 0 {
		err = config.DB.Preload("Details.Food").Preload("Payment").Preload("Delivery").
			Where("restaurant_id IN ?", ids).
			Order("created_at desc").
			Find(&orders).Error
		if err != nil {
			serverError(c, err, "Failed to load orders")
			return
		}
	}

	paid := 0
	for _, o := range orders {
		if o.Payment != nil {
			paid++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":      len(orders),
		"paid_count": paid,
		"orders":     orders,
	})
}

type UpdateDeliveryRequest struct {
	Status       models.DeliveryStatus `json:"status" binding:"required"`
	DeliveryDate *time.Time            `json:"delivery_date"`
}

// UpdateDelivery moves an order's delivery through its lifecycle
func UpdateDelivery(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var order models.Order
	if err := config.DB.Preload("Restaurant").Preload("Delivery").First(&order, id).Error; err != nil {
		dbError(c, err, "Order not found")
		return
	}
	if !canManageRestaurant(c, &order.Restaurant) {
		c.JSON(http.StatusForbidden, gin.H{"error": "This order does not belong to your restaurant"})
		return
	}

	var req UpdateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := statemachine.ActorRestaurant
	if middleware.GetRole(c) == models.RoleAdmin {
		actor = statemachine.ActorAdmin
	}
	current := models.DeliveryPending
	if order.Delivery != nil {
		current = order.Delivery.Status
	}
	if err := statemachine.CanTransition(current, req.Status, actor); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             "Invalid state transition",
			"current_status":    current,
			"requested":         req.Status,
			"reason":            err.Error(),
			"valid_next_states": statemachine.ValidTransitionsFrom(current),
		})
		return
	}

	delivery := order.Delivery
	if delivery == nil {
		delivery = &models.Delivery{Base: models.Base{Active: true}, OrderID: order.ID}
	}
	delivery.Status = req.Status
	if req.DeliveryDate != nil {
		delivery.DeliveryDate = req.DeliveryDate.UTC()
	} else if req.Status == models.DeliveryDelivered {
		delivery.DeliveryDate = time.Now().UTC()
	}
	if err := config.DB.Save(delivery).Error; err != nil {
		serverError(c, err, "Failed to update delivery")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Delivery status updated",
		"order_id":        order.ID,
		"previous_status": current,
		"current_status":  delivery.Status,
		"delivery":        delivery,
	})
}

// GetDeliveryLifecycle documents the delivery state machine
func GetDeliveryLifecycle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"transitions":     statemachine.GetAllTransitions(),
		"terminal_states": []models.DeliveryStatus{models.DeliveryDelivered, models.DeliveryCancelled},
	})
}

func ownedRestaurantIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := config.DB.Model(&models.Restaurant{}).Where("user_id = ?", userID).Pluck("id", &ids).Error
	return ids, err
}
