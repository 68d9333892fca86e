package models

// Follow and UserLikeRestaurant are toggled through Active instead of being deleted.
type Follow struct {
	Base
	UserID       uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_follow_user_restaurant"`
	RestaurantID uint       `json:"restaurant_id" gorm:"not null;uniqueIndex:idx_follow_user_restaurant"`
	Restaurant   Restaurant `json:"-" gorm:"foreignKey:RestaurantID"`
}

type UserLikeRestaurant struct {
	Base
	UserID       uint `json:"user_id" gorm:"not null;uniqueIndex:idx_like_user_restaurant"`
	RestaurantID uint `json:"restaurant_id" gorm:"not null;uniqueIndex:idx_like_user_restaurant"`
}

// Review targets either a restaurant or a food, never both.
type Review struct {
	Base
	UserID       uint   `json:"user_id" gorm:"not null;index"`
	User         User   `json:"-" gorm:"foreignKey:UserID"`
	RestaurantID *uint  `json:"restaurant_id" gorm:"index"`
	FoodID       *uint  `json:"food_id" gorm:"index"`
	Rating       int    `json:"rating" gorm:"not null"`
	Comment      string `json:"comment" gorm:"not null"`
	Image        string `json:"image"`
}

type UserLikeComment struct {
	Base
	UserID   uint `json:"user_id" gorm:"not null;uniqueIndex:idx_like_user_review"`
	ReviewID uint `json:"review_id" gorm:"not null;uniqueIndex:idx_like_user_review"`
}
