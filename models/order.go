package models

import (
	"time"

	"gorm.io/datatypes"
)

type Order struct {
	Base
	UserID       uint           `json:"user_id" gorm:"not null;index"`
	User         User           `json:"-" gorm:"foreignKey:UserID"`
	RestaurantID uint           `json:"restaurant_id" gorm:"not null;index"`
	Restaurant   Restaurant     `json:"-" gorm:"foreignKey:RestaurantID"`
	Details      []OrderDetails `json:"details,omitempty" gorm:"foreignKey:OrderID"`
	Payment      *Payment       `json:"payment,omitempty" gorm:"foreignKey:OrderID"`
	Delivery     *Delivery      `json:"delivery,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderDetails is one line item of an order.
type OrderDetails struct {
	Base
	OrderID  uint `json:"order_id" gorm:"not null;index"`
	FoodID   uint `json:"food_id" gorm:"not null;index"`
	Food     Food `json:"food,omitempty" gorm:"foreignKey:FoodID"`
	Quantity int  `json:"quantity" gorm:"not null"`
}

func (OrderDetails) TableName() string { return "order_details" }

// Payment is the financial outcome of an order. Its existence marks the order as paid.
type Payment struct {
	Base
	OrderID uint    `json:"order_id" gorm:"not null;uniqueIndex"`
	Amount  float64 `json:"amount" gorm:"type:decimal(10,2);not null"`
	Status  string  `json:"status" gorm:"size:50;not null"`
}

// DeliveryStatus represents the states of a delivery
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryShipping  DeliveryStatus = "SHIPPING"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryCancelled DeliveryStatus = "CANCELLED"
)

type Delivery struct {
	Base
	OrderID      uint           `json:"order_id" gorm:"not null;uniqueIndex"`
	Status       DeliveryStatus `json:"status" gorm:"size:50;not null"`
	DeliveryDate time.Time      `json:"delivery_date"`
}

// WebhookEvent records provider events already handled.
type WebhookEvent struct {
	ID        string         `json:"id" gorm:"primaryKey;size:255"`
	Type      string         `json:"type" gorm:"size:100"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}
