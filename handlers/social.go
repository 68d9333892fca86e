package handlers

import (
	"errors"
	"net/http"

	"yumspot-api/catalog"
	"yumspot-api/config"
	"yumspot-api/middleware"
	"yumspot-api/models"
	"yumspot-api/social"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Comment string `json:"comment"`
}

type toggleFunc func(db *gorm.DB, userID, targetID uint) (bool, error)

// toggleRestaurant flips the caller's relation with an active restaurant.
func toggleRestaurant(toggle toggleFunc, noun string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if _, ok := findActiveRestaurant(c, id); !ok {
			return
		}
		active, err := toggle(config.DB, middleware.GetUserID(c), id)
		if err != nil {
			serverError(c, err, "Failed to update "+noun)
			return
		}
		c.JSON(http.StatusOK, gin.H{"restaurant_id": id, "active": active})
	}
}

// LikeRestaurant toggles the caller's like on a restaurant
var LikeRestaurant = toggleRestaurant(social.ToggleLike, "like")

// FollowRestaurant toggles the caller's follow on a restaurant
var FollowRestaurant = toggleRestaurant(social.ToggleFollow, "follow")

// LikeReview toggles the caller's like on a review
func LikeReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var review models.Review
	if err := config.DB.Where("active = ?", true).First(&review, id).Error; err != nil {
		dbError(c, err, "Review not found")
		return
	}
	active, err := social.ToggleReviewLike(config.DB, middleware.GetUserID(c), id)
	if err != nil {
		serverError(c, err, "Failed to update like")
		return
	}
	c.JSON(http.StatusOK, gin.H{"review_id": id, "active": active})
}

func addReview(c *gin.Context, in social.NewReview) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.UserID = middleware.GetUserID(c)
	in.Rating = req.Rating
	in.Comment = req.Comment

	review, err := social.AddReview(config.DB, in)
	if err != nil {
		if errors.Is(err, social.ErrCommentRequired) || errors.Is(err, social.ErrInvalidRating) ||
			errors.Is(err, social.ErrReviewTarget) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		serverError(c, err, "Failed to add review")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Review added", "review": review})
}

// AddRestaurantReview reviews an active restaurant
func AddRestaurantReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, ok := findActiveRestaurant(c, id); !ok {
		return
	}
	addReview(c, social.NewReview{RestaurantID: &id})
}

// AddFoodReview reviews an active food
func AddFoodReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var food models.Food
	if err := config.DB.Where("active = ?", true).First(&food, id).Error; err != nil {
		dbError(c, err, "Food not found")
		return
	}
	addReview(c, social.NewReview{FoodID: &id})
}

// DeleteReview hides one of the caller's reviews
func DeleteReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var review models.Review
	if err := config.DB.Where("active = ?", true).First(&review, id).Error; err != nil {
		dbError(c, err, "Review not found")
		return
	}
	if review.UserID != middleware.GetUserID(c) && middleware.GetRole(c) != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "This review does not belong to you"})
		return
	}
	if err := config.DB.Model(&review).Update("active", false).Error; err != nil {
		serverError(c, err, "Failed to delete review")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}

// GetMyFollows lists the restaurants the caller follows
func GetMyFollows(c *gin.Context) {
	restaurants, err := social.FollowedRestaurants(config.DB, middleware.GetUserID(c))
	if err != nil {
		serverError(c, err, "Failed to load follows")
		return
	}
	views, err := catalog.RestaurantViews(config.DB, restaurants)
	if err != nil {
		serverError(c, err, "Failed to load follows")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(views), "restaurants": views})
}
