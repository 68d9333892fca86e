// Package social manages the user↔restaurant relations: likes, follows,
// reviews and likes on reviews.
package social

import (
	"errors"
	"strings"

	"yumspot-api/models"

	"gorm.io/gorm"
)

var (
	ErrCommentRequired = errors.New("comment is required")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrReviewTarget    = errors.New("a review targets exactly one of restaurant or food")
)

const DefaultRating = 5

// toggle creates the row active on first use and flips its active flag afterwards.
// base must point into row.
func toggle(db *gorm.DB, row any, base *models.Base, where string, args ...any) (bool, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where(where, args...).Limit(1).Find(row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			base.Active = true
			return tx.Create(row).Error
		}
		base.Active = !base.Active
		return tx.Model(row).Update("active", base.Active).Error
	})
	if err != nil {
		return false, err
	}
	return base.Active, nil
}

// ToggleLike flips userID's like on restaurantID and reports whether it is now active.
func ToggleLike(db *gorm.DB, userID, restaurantID uint) (bool, error) {
	like := models.UserLikeRestaurant{UserID: userID, RestaurantID: restaurantID}
	return toggle(db, &like, &like.Base, "user_id = ? AND restaurant_id = ?", userID, restaurantID)
}

// ToggleFollow flips userID's follow on restaurantID.
func ToggleFollow(db *gorm.DB, userID, restaurantID uint) (bool, error) {
	follow := models.Follow{UserID: userID, RestaurantID: restaurantID}
	return toggle(db, &follow, &follow.Base, "user_id = ? AND restaurant_id = ?", userID, restaurantID)
}

// ToggleReviewLike flips userID's like on reviewID.
func ToggleReviewLike(db *gorm.DB, userID, reviewID uint) (bool, error) {
	like := models.UserLikeComment{UserID: userID, ReviewID: reviewID}
	return toggle(db, &like, &like.Base, "user_id = ? AND review_id = ?", userID, reviewID)
}

type NewReview struct {
	UserID       uint
	RestaurantID *uint
	FoodID       *uint
	Rating       int
	Comment      string
}

// AddReview validates and stores a review. A zero rating means DefaultRating.
func AddReview(db *gorm.DB, in NewReview) (*models.Review, error) {
	if (in.RestaurantID == nil) == (in.FoodID == nil) {
		return nil, ErrReviewTarget
	}
	comment := strings.TrimSpace(in.Comment)
	if comment == "" {
		return nil, ErrCommentRequired
	}
	rating := in.Rating
	if rating == 0 {
		rating = DefaultRating
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	review := models.Review{
		Base:         models.Base{Active: true},
		UserID:       in.UserID,
		RestaurantID: in.RestaurantID,
		FoodID:       in.FoodID,
		Rating:       rating,
		Comment:      comment,
	}
	if err := db.Create(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// FollowedRestaurants lists the active restaurants userID currently follows.
func FollowedRestaurants(db *gorm.DB, userID uint) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	err := db.Joins("JOIN follows ON follows.restaurant_id = restaurants.id").
		Where("follows.user_id = ? AND follows.active = ? AND restaurants.active = ?", userID, true, true).
		Order("restaurants.id").
		Find(&restaurants).Error
	return restaurants, err
}
