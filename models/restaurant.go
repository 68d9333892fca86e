package models

import "math"

type Restaurant struct {
	Base
	Name        string   `json:"name" gorm:"not null;size:255"`
	Description string   `json:"description"`
	Location    string   `json:"location" gorm:"size:255"`
	UserID      uint     `json:"user_id" gorm:"not null;index"`
	User        User     `json:"-" gorm:"foreignKey:UserID"`
	Image       string   `json:"image"`
	PricePerKm  float64  `json:"price_per_km" gorm:"type:decimal(10,2);default:5000"`
	Menus       []Menu   `json:"-" gorm:"foreignKey:RestaurantID"`
	Reviews     []Review `json:"-" gorm:"foreignKey:RestaurantID"`
}

type Category struct {
	Base
	Name string `json:"name" gorm:"not null;size:255"`
	Icon string `json:"icon"`
}

// Menu groups a restaurant's foods under one category.
type Menu struct {
	Base
	RestaurantID uint       `json:"restaurant_id" gorm:"not null;uniqueIndex:idx_menu_restaurant_category"`
	Restaurant   Restaurant `json:"-" gorm:"foreignKey:RestaurantID"`
	CategoryID   uint       `json:"category_id" gorm:"not null;uniqueIndex:idx_menu_restaurant_category"`
	Category     Category   `json:"-" gorm:"foreignKey:CategoryID"`
	Foods        []Food     `json:"-" gorm:"foreignKey:MenuID"`
}

type Food struct {
	Base
	Name        string   `json:"name" gorm:"not null;size:255"`
	Price       int64    `json:"price" gorm:"not null"`
	Discount    float64  `json:"discount" gorm:"type:decimal(5,2);not null"`
	MenuID      uint     `json:"menu_id" gorm:"not null;index"`
	Menu        Menu     `json:"-" gorm:"foreignKey:MenuID"`
	CategoryID  uint     `json:"category_id" gorm:"not null;index"`
	Category    Category `json:"-" gorm:"foreignKey:CategoryID"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
	Reviews     []Review `json:"-" gorm:"foreignKey:FoodID"`
}

// EffectivePrice is the price after the percentage discount, rounded to the whole unit.
func (f Food) EffectivePrice() int64 {
	return int64(math.Round(float64(f.Price) * (1 - f.Discount/100)))
}
