package handlers

import (
	"net/http"

	"yumspot-api/catalog"
	"yumspot-api/config"
	"yumspot-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListRestaurants returns active restaurants, optionally searched by name
func ListRestaurants(c *gin.Context) {
	var restaurants []models.Restaurant
	meta, err := paginate(c, catalog.LoadRestaurants(config.DB, c.Query("kw")), restaurantPageSize, &restaurants)
	if err != nil {
		serverError(c, err, "Failed to load restaurants")
		return
	}
	views, err := catalog.RestaurantViews(config.DB, restaurants)
	if err != nil {
		serverError(c, err, "Failed to load restaurants")
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": views, "pagination": meta})
}

// GetRestaurant returns a single restaurant
func GetRestaurant(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	restaurant, ok := findActiveRestaurant(c, id)
	if !ok {
		return
	}
	views, err := catalog.RestaurantViews(config.DB, []models.Restaurant{*restaurant})
	if err != nil {
		serverError(c, err, "Failed to load restaurant")
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": views[0]})
}

// foodFilter reads the shared food listing query parameters.
func foodFilter(c *gin.Context) (catalog.FoodFilter, bool) {
	f := catalog.FoodFilter{Keyword: c.Query("kw")}
	var err error
	if f.CategoryID, _, err = queryUint(c, "category_id"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return f, false
	}
	if f.MinPrice, err = queryInt64(c, "min_price"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return f, false
	}
	if f.MaxPrice, err = queryInt64(c, "max_price"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return f, false
	}
	return f, true
}

func respondFoods(c *gin.Context, f catalog.FoodFilter) {
	var foods []models.Food
	meta, err := paginate(c, catalog.LoadFoods(config.DB, f), foodPageSize, &foods, catalog.PreloadFood)
	if err != nil {
		serverError(c, err, "Failed to load foods")
		return
	}
	views, err := catalog.FoodViews(config.DB, foods)
	if err != nil {
		serverError(c, err, "Failed to load foods")
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": views, "pagination": meta})
}

// ListFoods searches active foods by keyword, category and price range
func ListFoods(c *gin.Context) {
	f, ok := foodFilter(c)
	if !ok {
		return
	}
	respondFoods(c, f)
}

// ListDiscountedFoods returns foods currently on discount
func ListDiscountedFoods(c *gin.Context) {
	f, ok := foodFilter(c)
	if !ok {
		return
	}
	f.DiscountedOnly = true
	respondFoods(c, f)
}

// GetRestaurantFoods lists the foods a restaurant sells
func GetRestaurantFoods(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, ok := findActiveRestaurant(c, id); !ok {
		return
	}
	f, ok := foodFilter(c)
	if !ok {
		return
	}
	f.RestaurantID = id
	respondFoods(c, f)
}

// GetFood returns a single active food
func GetFood(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var food models.Food
	if err := catalog.PreloadFood(config.DB).Where("active = ?", true).First(&food, id).Error; err != nil {
		dbError(c, err, "Food not found")
		return
	}
	views, err := catalog.FoodViews(config.DB, []models.Food{food})
	if err != nil {
		serverError(c, err, "Failed to load food")
		return
	}
	c.JSON(http.StatusOK, gin.H{"food": views[0]})
}

// ListCategories returns every active category
func ListCategories(c *gin.Context) {
	var categories []models.Category
	if err := config.DB.Where("active = ?", true).Order("name").Find(&categories).Error; err != nil {
		serverError(c, err, "Failed to load categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(categories), "categories": categories})
}

// GetCategoryFoods lists the active foods of one category
func GetCategoryFoods(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var category models.Category
	if err := config.DB.First(&category, id).Error; err != nil {
		dbError(c, err, "Category not found")
		return
	}
	f, ok := foodFilter(c)
	if !ok {
		return
	}
	f.CategoryID = id
	respondFoods(c, f)
}

func respondReviews(c *gin.Context, column string, id uint) {
	var reviews []models.Review
	q := config.DB.Model(&models.Review{}).
		Where(column+" = ? AND active = ?", id, true).
		Order("created_at desc")
	meta, err := paginate(c, q, reviewPageSize, &reviews, func(q *gorm.DB) *gorm.DB { return q.Preload("User") })
	if err != nil {
		serverError(c, err, "Failed to load reviews")
		return
	}
	results := make([]gin.H, len(reviews))
	for i, r := range reviews {
		results[i] = gin.H{
			"id":         r.ID,
			"rating":     r.Rating,
			"comment":    r.Comment,
			"image":      r.Image,
			"user":       gin.H{"id": r.User.ID, "username": r.User.Username},
			"created_at": r.CreatedAt,
			"updated_at": r.UpdatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "pagination": meta})
}

// GetRestaurantReviews lists reviews written about a restaurant
func GetRestaurantReviews(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	respondReviews(c, "restaurant_id", id)
}

// GetFoodReviews lists reviews written about a food
func GetFoodReviews(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	respondReviews(c, "food_id", id)
}
