// Package catalog answers restaurant and food browsing queries and shapes
// catalog records for API responses.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"yumspot-api/models"

	"github.com/dustin/go-humanize"
	"gorm.io/gorm"
)

var (
	ErrCategoryRequired = errors.New("category is required")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidDiscount  = errors.New("discount must be between 0 and 100")
	ErrInvalidPrice     = errors.New("price must not be negative")
)

// FoodFilter narrows food listings. Zero values mean "no filter".
type FoodFilter struct {
	Keyword        string
	CategoryID     uint
	RestaurantID   uint
	MinPrice       *int64
	MaxPrice       *int64
	DiscountedOnly bool
}

// LoadFoods builds the query for active foods matching f.
// Price bounds apply to the undiscounted price.
func LoadFoods(db *gorm.DB, f FoodFilter) *gorm.DB {
	q := db.Model(&models.Food{}).Where("foods.active = ?", true)

	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		q = q.Where("LOWER(foods.name) LIKE ?", "%"+strings.ToLower(kw)+"%")
	}
	if f.CategoryID != 0 {
		q = q.Where("foods.category_id = ?", f.CategoryID)
	}
	if f.RestaurantID != 0 {
		q = q.Joins("JOIN menus ON menus.id = foods.menu_id").
			Where("menus.restaurant_id = ?", f.RestaurantID)
	}
	if f.MinPrice != nil {
		q = q.Where("foods.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("foods.price <= ?", *f.MaxPrice)
	}
	if f.DiscountedOnly {
		q = q.Where("foods.discount > ?", 0)
	}
	return q.Order("foods.id")
}

// LoadRestaurants builds the query for active restaurants whose name contains kw.
func LoadRestaurants(db *gorm.DB, kw string) *gorm.DB {
	q := db.Model(&models.Restaurant{}).Where("active = ?", true)
	if kw = strings.TrimSpace(kw); kw != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(kw)+"%")
	}
	return q.Order("id")
}

// OwnerCount is the number of restaurants a restaurant-role user owns.
type OwnerCount struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Count    int64  `json:"count" gorm:"column:restaurant_count"`
}

// CountRestaurantsPerOwner lists every restaurant-role user with the number of
// restaurants they own, most first.
func CountRestaurantsPerOwner(db *gorm.DB) ([]OwnerCount, error) {
	var out []OwnerCount
	err := db.Model(&models.User{}).
		Select("users.id AS id, users.username AS username, COUNT(restaurants.id) AS restaurant_count").
		Joins("LEFT JOIN restaurants ON restaurants.user_id = users.id").
		Where("users.role = ?", models.RoleRestaurant).
		Group("users.id, users.username").
		Order("restaurant_count DESC, users.id").
		Scan(&out).Error
	return out, err
}

// EnsureMenu returns the menu of restaurantID for categoryID, creating it when missing.
func EnsureMenu(tx *gorm.DB, restaurantID, categoryID uint) (*models.Menu, error) {
	menu := models.Menu{RestaurantID: restaurantID, CategoryID: categoryID}
	err := tx.Where("restaurant_id = ? AND category_id = ?", restaurantID, categoryID).
		Attrs(models.Menu{Base: models.Base{Active: true}}).
		FirstOrCreate(&menu).Error
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

// NewFood is the input for adding a food to a restaurant.
type NewFood struct {
	Name        string
	Price       int64
	Discount    float64
	CategoryID  uint
	Description string
}

// CreateFood adds a food under the restaurant's menu for the food's category.
func CreateFood(db *gorm.DB, restaurantID uint, in NewFood) (*models.Food, error) {
	if in.CategoryID == 0 {
		return nil, ErrCategoryRequired
	}
	if in.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if in.Discount < 0 || in.Discount > 100 {
		return nil, ErrInvalidDiscount
	}

	var food models.Food
	err := db.Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, in.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
		menu, err := EnsureMenu(tx, restaurantID, category.ID)
		if err != nil {
			return fmt.Errorf("ensure menu: %w", err)
		}
		food = models.Food{
			Base:        models.Base{Active: true},
			Name:        in.Name,
			Price:       in.Price,
			Discount:    in.Discount,
			MenuID:      menu.ID,
			CategoryID:  category.ID,
			Description: in.Description,
		}
		return tx.Create(&food).Error
	})
	if err != nil {
		return nil, err
	}
	return &food, nil
}

// FormatPrice renders a whole-unit price with '.' as the thousands separator.
func FormatPrice(v int64) string {
	return strings.ReplaceAll(humanize.Comma(v), ",", ".")
}

// FormatReviewCount renders counts of a thousand or more as "1.2k".
func FormatReviewCount(n int64) string {
	if n >= 1000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}

// FormatRating renders an average rating with one decimal.
func FormatRating(avg float64) string {
	return fmt.Sprintf("%.1f", avg)
}
