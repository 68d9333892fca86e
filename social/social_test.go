package social

import (
	"testing"

	"yumspot-api/config"
	"yumspot-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) (*gorm.DB, models.User, models.Restaurant) {
	t.Helper()
	db, err := config.Open(":memory:")
	require.NoError(t, err)

	user := models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&user).Error)
	restaurant := models.Restaurant{Base: models.Base{Active: true}, Name: "Pho 24", UserID: user.ID}
	require.NoError(t, db.Create(&restaurant).Error)
	return db, user, restaurant
}

func TestToggleLike(t *testing.T) {
	db, user, restaurant := setupDB(t)

	for _, want := range []bool{true, false, true} {
		active, err := ToggleLike(db, user.ID, restaurant.ID)
		require.NoError(t, err)
		assert.Equal(t, want, active)
	}

	var likes []models.UserLikeRestaurant
	require.NoError(t, db.Find(&likes).Error)
	require.Len(t, likes, 1)
	assert.True(t, likes[0].Active)
}

func TestToggleFollowAndFollowedRestaurants(t *testing.T) {
	db, user, restaurant := setupDB(t)

	active, err := ToggleFollow(db, user.ID, restaurant.ID)
	require.NoError(t, err)
	assert.True(t, active)

	followed, err := FollowedRestaurants(db, user.ID)
	require.NoError(t, err)
	require.Len(t, followed, 1)
	assert.Equal(t, restaurant.ID, followed[0].ID)

	active, err = ToggleFollow(db, user.ID, restaurant.ID)
	require.NoError(t, err)
	assert.False(t, active)

	followed, err = FollowedRestaurants(db, user.ID)
	require.NoError(t, err)
	assert.Empty(t, followed)
}

func TestTogglesAreIndependentPerUser(t *testing.T) {
	db, user, restaurant := setupDB(t)
	bob := models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&bob).Error)

	_, err := ToggleLike(db, user.ID, restaurant.ID)
	require.NoError(t, err)
	active, err := ToggleLike(db, bob.ID, restaurant.ID)
	require.NoError(t, err)
	assert.True(t, active)

	var count int64
	db.Model(&models.UserLikeRestaurant{}).Where("active = ?", true).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestAddReview(t *testing.T) {
	db, user, restaurant := setupDB(t)

	review, err := AddReview(db, NewReview{UserID: user.ID, RestaurantID: &restaurant.ID, Comment: "  great broth "})
	require.NoError(t, err)
	assert.Equal(t, DefaultRating, review.Rating)
	assert.Equal(t, "great broth", review.Comment)
	assert.True(t, review.Active)

	_, err = AddReview(db, NewReview{UserID: user.ID, RestaurantID: &restaurant.ID, Comment: "   "})
	assert.ErrorIs(t, err, ErrCommentRequired)

	_, err = AddReview(db, NewReview{UserID: user.ID, RestaurantID: &restaurant.ID, Comment: "meh", Rating: 6})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = AddReview(db, NewReview{UserID: user.ID, Comment: "nowhere"})
	assert.ErrorIs(t, err, ErrReviewTarget)

	foodID := uint(1)
	_, err = AddReview(db, NewReview{UserID: user.ID, RestaurantID: &restaurant.ID, FoodID: &foodID, Comment: "both"})
	assert.ErrorIs(t, err, ErrReviewTarget)
}

func TestToggleReviewLike(t *testing.T) {
	db, user, restaurant := setupDB(t)
	review, err := AddReview(db, NewReview{UserID: user.ID, RestaurantID: &restaurant.ID, Comment: "nice", Rating: 4})
	require.NoError(t, err)

	active, err := ToggleReviewLike(db, user.ID, review.ID)
	require.NoError(t, err)
	assert.True(t, active)
	active, err = ToggleReviewLike(db, user.ID, review.ID)
	require.NoError(t, err)
	assert.False(t, active)
}
