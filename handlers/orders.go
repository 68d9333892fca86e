package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"yumspot-api/config"
	"yumspot-api/middleware"
	"yumspot-api/models"
	"yumspot-api/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OrderItemRequest struct {
	FoodID   uint `json:"food_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

type PlaceOrderRequest struct {
	RestaurantID uint               `json:"restaurant_id" binding:"required"`
	Items        []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type PayOrderRequest struct {
	Status string `json:"status" binding:"omitempty,max=50"`
}

var errFoodUnavailable = errors.New("food unavailable")

// PlaceOrder creates an order with its line items
func PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := findActiveRestaurant(c, req.RestaurantID); !ok {
		return
	}

	var order models.Order
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		order = models.Order{
			Base:         models.Base{Active: true},
			UserID:       middleware.GetUserID(c),
			RestaurantID: req.RestaurantID,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, item := range req.Items {
			var food models.Food
			err := tx.Joins("JOIN menus ON menus.id = foods.menu_id").
				Where("foods.id = ? AND foods.active = ? AND menus.restaurant_id = ?", item.FoodID, true, req.RestaurantID).
				First(&food).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: food %d is not on this restaurant's menu", errFoodUnavailable, item.FoodID)
			}
			if err != nil {
				return err
			}
			detail := models.OrderDetails{
				Base:     models.Base{Active: true},
				OrderID:  order.ID,
				FoodID:   food.ID,
				Quantity: item.Quantity,
			}
			if err := tx.Create(&detail).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errFoodUnavailable) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		serverError(c, err, "Failed to place order")
		return
	}

	if err := config.DB.Preload("Details.Food").First(&order, order.ID).Error; err != nil {
		serverError(c, err, "Failed to load order")
		return
	}
	total, err := payment.OrderTotal(config.DB, order.ID)
	if err != nil {
		serverError(c, err, "Failed to price order")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
		"total":   total,
	})
}

// GetMyOrders returns the caller's orders, newest first
func GetMyOrders(c *gin.Context) {
	var orders []models.Order
	err := config.DB.Preload("Details.Food").Preload("Payment").Preload("Delivery").
		Where("user_id = ?", middleware.GetUserID(c)).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		serverError(c, err, "Failed to load orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// canViewOrder allows the customer, the restaurant's owner and admins.
func canViewOrder(c *gin.Context, o *models.Order) bool {
	return o.UserID == middleware.GetUserID(c) || canManageRestaurant(c, &o.Restaurant)
}

// GetOrderDetail returns one order with its lines, payment and delivery
func GetOrderDetail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var order models.Order
	err := config.DB.Preload("Restaurant").Preload("Details.Food").Preload("Payment").Preload("Delivery").
		First(&order, id).Error
	if err != nil {
		dbError(c, err, "Order not found")
		return
	}
	if !canViewOrder(c, &order) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}
	total, err := payment.OrderTotal(config.DB, order.ID)
	if err != nil {
		serverError(c, err, "Failed to price order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "total": total, "paid": order.Payment != nil})
}

// PayOrder records the payment of one of the caller's orders
func PayOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req PayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == "" {
		req.Status = "success"
	}

	var order models.Order
	if err := config.DB.Preload("Restaurant").First(&order, id).Error; err != nil {
		dbError(c, err, "Order not found")
		return
	}
	if order.UserID != middleware.GetUserID(c) && middleware.GetRole(c) != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only pay your own orders"})
		return
	}

	p, err := payment.RecordPayment(config.DB, order.ID, req.Status)
	switch {
	case errors.Is(err, payment.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": "Order is already paid"})
		return
	case err != nil:
		dbError(c, err, "Order not found")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Payment recorded", "payment": p})
}

// ListPayments returns payments visible to the caller
func ListPayments(c *gin.Context) {
	q := config.DB.Model(&models.Payment{}).Order("payments.created_at desc")
	switch middleware.GetRole(c) {
	case models.RoleAdmin:
	case models.RoleRestaurant:
		ids, err := ownedRestaurantIDs(middleware.GetUserID(c))
		if err != nil {
			serverError(c, err, "Failed to load payments")
			return
		}
		q = q.Joins("JOIN orders ON orders.id = payments.order_id").
			Where("orders.restaurant_id IN ?", append(ids, 0))
	default:
		q = q.Joins("JOIN orders ON orders.id = payments.order_id").
			Where("orders.user_id = ?", middleware.GetUserID(c))
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("payments.status = ?", status)
	}

	var payments []models.Payment
	if err := q.Find(&payments).Error; err != nil {
		serverError(c, err, "Failed to load payments")
		return
	}
	var sum float64
	for _, p := range payments {
		sum += p.Amount
	}
	c.JSON(http.StatusOK, gin.H{"count": len(payments), "total_amount": sum, "payments": payments})
}
