package catalog

import (
	"yumspot-api/models"

	"gorm.io/gorm"
)

type RestaurantView struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Rating      string  `json:"rating"`
	Reviews     string  `json:"reviews"`
	Image       *string `json:"image"`
	PricePerKm  float64 `json:"price_per_km"`
	Description string  `json:"description"`
}

type FoodView struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Rating      string         `json:"rating"`
	Reviews     string         `json:"reviews"`
	OldPrice    string         `json:"old_price"`
	NewPrice    string         `json:"new_price"`
	Discount    float64        `json:"discount"`
	Image       *string        `json:"image"`
	Restaurant  RestaurantView `json:"restaurant"`
	Category    *string        `json:"category"`
	Description string         `json:"description"`
}

type reviewStat struct {
	TargetID uint
	Average  float64
	Total    int64
}

// reviewStats averages active review ratings per target, where column is
// "restaurant_id" or "food_id".
func reviewStats(db *gorm.DB, column string, ids []uint) (map[uint]reviewStat, error) {
	out := make(map[uint]reviewStat, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []reviewStat
	err := db.Model(&models.Review{}).
		Select(column+" AS target_id, AVG(rating) AS average, COUNT(*) AS total").
		Where(column+" IN ? AND active = ?", ids, true).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.TargetID] = r
	}
	return out, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func restaurantView(r models.Restaurant, st reviewStat) RestaurantView {
	return RestaurantView{
		ID:          r.ID,
		Name:        r.Name,
		Location:    r.Location,
		Rating:      FormatRating(st.Average),
		Reviews:     FormatReviewCount(st.Total),
		Image:       optional(r.Image),
		PricePerKm:  r.PricePerKm,
		Description: r.Description,
	}
}

// RestaurantViews shapes restaurants with their rating and review count.
func RestaurantViews(db *gorm.DB, restaurants []models.Restaurant) ([]RestaurantView, error) {
	ids := make([]uint, len(restaurants))
	for i, r := range restaurants {
		ids[i] = r.ID
	}
	stats, err := reviewStats(db, "restaurant_id", ids)
	if err != nil {
		return nil, err
	}
	out := make([]RestaurantView, len(restaurants))
	for i, r := range restaurants {
		out[i] = restaurantView(r, stats[r.ID])
	}
	return out, nil
}

// FoodViews shapes foods for listing. Foods must have Menu.Restaurant and
// Category preloaded; see PreloadFood.
func FoodViews(db *gorm.DB, foods []models.Food) ([]FoodView, error) {
	foodIDs := make([]uint, len(foods))
	restaurantIDs := make([]uint, 0, len(foods))
	for i, f := range foods {
		foodIDs[i] = f.ID
		restaurantIDs = append(restaurantIDs, f.Menu.RestaurantID)
	}
	foodStats, err := reviewStats(db, "food_id", foodIDs)
	if err != nil {
		return nil, err
	}
	restaurantStats, err := reviewStats(db, "restaurant_id", restaurantIDs)
	if err != nil {
		return nil, err
	}

	out := make([]FoodView, len(foods))
	for i, f := range foods {
		st := foodStats[f.ID]
		out[i] = FoodView{
			ID:          f.ID,
			Name:        f.Name,
			Rating:      FormatRating(st.Average),
			Reviews:     FormatReviewCount(st.Total),
			OldPrice:    FormatPrice(f.Price),
			NewPrice:    FormatPrice(f.EffectivePrice()),
			Discount:    f.Discount,
			Image:       optional(f.Image),
			Restaurant:  restaurantView(f.Menu.Restaurant, restaurantStats[f.Menu.RestaurantID]),
			Category:    optional(f.Category.Name),
			Description: f.Description,
		}
	}
	return out, nil
}

// PreloadFood loads the associations FoodViews reads.
func PreloadFood(q *gorm.DB) *gorm.DB {
	return q.Preload("Menu.Restaurant").Preload("Category")
}
