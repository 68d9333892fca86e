package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"yumspot-api/config"
	"yumspot-api/middleware"
	"yumspot-api/models"
	"yumspot-api/stats"

	"github.com/gin-gonic/gin"
)

var (
	errForeignRestaurant = errors.New("restaurant does not belong to you")
	errNoRestaurants     = errors.New("no restaurants")
	errOwnedLookup       = errors.New("load owned restaurants")
)

// queryPeriod reads year, quarter and month. Zero means unset in stats.Query,
// so an explicit 0 is rejected here.
func queryPeriod(c *gin.Context, q *stats.Query) error {
	for _, p := range []struct {
		name string
		dst  *int
		err  error
	}{
		{"year", &q.Year, stats.ErrInvalidYear},
		{"quarter", &q.Quarter, stats.ErrInvalidQuarter},
		{"month", &q.Month, stats.ErrInvalidMonth},
	} {
		raw, ok := c.GetQuery(p.name)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New(p.name + " must be an integer")
		}
		if v == 0 {
			return p.err
		}
		*p.dst = v
	}
	return q.Validate()
}

// parseStatsQuery builds the aggregation query for the caller. Restaurant
// owners only ever see their own restaurants.
func parseStatsQuery(c *gin.Context) (stats.Query, error) {
	var q stats.Query
	if err := queryPeriod(c, &q); err != nil {
		return q, err
	}
	q.PaymentStatus = c.Query("payment_status")

	restaurantID, hasRestaurant, err := queryUint(c, "restaurant_id")
	if err != nil {
		return q, err
	}
	if hasRestaurant {
		q.RestaurantIDs = []uint{restaurantID}
	}

	if middleware.GetRole(c) != models.RoleAdmin {
		owned, err := ownedRestaurantIDs(middleware.GetUserID(c))
		if err != nil {
			return q, fmt.Errorf("%w: %v", errOwnedLookup, err)
		}
		if hasRestaurant && !slices.Contains(owned, restaurantID) {
			return q, errForeignRestaurant
		}
		if len(owned) == 0 {
			return q, errNoRestaurants
		}
		if !hasRestaurant {
			q.RestaurantIDs = owned
		}
	}
	return q, nil
}

func statsHandler(dim stats.Dimension) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := parseStatsQuery(c)
		rows := []stats.Row{}
		switch {
		case errors.Is(err, errNoRestaurants):
			// an owner without restaurants has nothing to aggregate
		case errors.Is(err, errOwnedLookup):
			serverError(c, err, "Failed to compute statistics")
			return
		case errors.Is(err, errForeignRestaurant):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		case err != nil:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		default:
			rows, err = stats.Aggregate(c.Request.Context(), config.DB, q, dim)
			if err != nil {
				serverError(c, err, "Failed to compute statistics")
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"dimension":   dim,
			"granularity": q.Granularity(),
			"count":       len(rows),
			"results":     rows,
		})
	}
}

// StatsCategory aggregates revenue per food category
var StatsCategory = statsHandler(stats.ByCategory)

// StatsFood aggregates revenue per food
var StatsFood = statsHandler(stats.ByFood)

// StatsRestaurant aggregates revenue per restaurant
var StatsRestaurant = statsHandler(stats.ByRestaurant)
