// Package stats aggregates paid order lines into revenue and quantity totals
// and builds the admin dashboard series.
package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
)

var (
	ErrInvalidQuarter   = errors.New("quarter must be between 1 and 4")
	ErrInvalidMonth     = errors.New("month must be between 1 and 12")
	ErrInvalidYear      = errors.New("year must be between 1 and 9999")
	ErrQuarterAndMonth  = errors.New("quarter and month cannot be combined")
	ErrInvalidDimension = errors.New("dimension must be one of category, food, restaurant")
)

// Dimension is the business axis revenue is grouped by.
type Dimension string

const (
	ByCategory   Dimension = "category"
	ByFood       Dimension = "food"
	ByRestaurant Dimension = "restaurant"
)

func (d Dimension) Valid() bool {
	switch d {
	case ByCategory, ByFood, ByRestaurant:
		return true
	}
	return false
}

// Granularity is the width of a time bucket.
type Granularity string

const (
	Yearly    Granularity = "year"
	Quarterly Granularity = "quarter"
	Monthly   Granularity = "month"
)

// Query selects the paid order lines to aggregate. Zero fields are unset:
// no restaurant restriction, every year, no quarter, no month.
type Query struct {
	RestaurantIDs []uint
	Year          int
	Quarter       int
	Month         int
	// PaymentStatus, when set, only counts orders whose payment has this status.
	PaymentStatus string
}

func (q Query) Validate() error {
	if q.Year < 0 || q.Year > 9999 {
		return ErrInvalidYear
	}
	if q.Quarter != 0 && q.Month != 0 {
		return ErrQuarterAndMonth
	}
	if q.Quarter < 0 || q.Quarter > 4 {
		return ErrInvalidQuarter
	}
	if q.Month < 0 || q.Month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (q Query) Granularity() Granularity {
	switch {
	case q.Quarter != 0:
		return Quarterly
	case q.Month != 0:
		return Monthly
	default:
		return Yearly
	}
}

// window returns the [from, to) range of created_at the query covers when
// Year is set. Without a year the quarter or month repeats every year and is
// matched on the calendar month instead.
func (q Query) window() (from, to time.Time) {
	switch {
	case q.Quarter != 0:
		from = time.Date(q.Year, time.Month((q.Quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 3, 0)
	case q.Month != 0:
		from = time.Date(q.Year, time.Month(q.Month), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0)
	default:
		from = time.Date(q.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0)
	}
}

// months returns the inclusive calendar month range of a quarter or month query.
func (q Query) months() (first, last int, ok bool) {
	switch {
	case q.Quarter != 0:
		first = (q.Quarter-1)*3 + 1
		return first, first + 2, true
	case q.Month != 0:
		return q.Month, q.Month, true
	}
	return 0, 0, false
}

// period returns the start of the bucket orders placed in year fall into.
// A quarter or month query pins the month, so the year alone picks the bucket.
func (q Query) period(year int) time.Time {
	switch q.Granularity() {
	case Quarterly:
		return time.Date(year, time.Month((q.Quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	case Monthly:
		return time.Date(year, time.Month(q.Month), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
}

// PeriodLabel renders a bucket start for display: "2024", "2024-Q1" or "2024-03".
func PeriodLabel(g Granularity, period time.Time) string {
	switch g {
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", period.Year(), (int(period.Month())-1)/3+1)
	case Monthly:
		return period.Format("2006-01")
	default:
		return period.Format("2006")
	}
}

// Row is one (time bucket, dimension value) total.
type Row struct {
	Period        time.Time `json:"period"`
	PeriodLabel   string    `json:"period_label"`
	ID            uint      `json:"id"`
	Label         string    `json:"label"`
	TotalRevenue  int64     `json:"total_revenue"`
	TotalQuantity int64     `json:"total_quantity"`
}

// total is one scanned GROUP BY row.
type total struct {
	Year          int
	ID            uint
	Label         string
	TotalRevenue  int64
	TotalQuantity int64
}

// Aggregate totals revenue (quantity × current food price) and quantity of
// paid order lines, grouped by time bucket and dim. Rows are ordered by period,
// then revenue descending, then label.
func Aggregate(ctx context.Context, db *gorm.DB, q Query, dim Dimension) ([]Row, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if !dim.Valid() {
		return nil, ErrInvalidDimension
	}

	var totals []total
	if err := paidLines(ctx, db, q, dim).Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("aggregate paid orders: %w", err)
	}

	granularity := q.Granularity()
	rows := make([]Row, 0, len(totals))
	for _, t := range totals {
		period := q.period(t.Year)
		rows = append(rows, Row{
			Period:        period,
			PeriodLabel:   PeriodLabel(granularity, period),
			ID:            t.ID,
			Label:         t.Label,
			TotalRevenue:  t.TotalRevenue,
			TotalQuantity: t.TotalQuantity,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.Period.Equal(b.Period) {
			return a.Period.Before(b.Period)
		}
		if a.TotalRevenue != b.TotalRevenue {
			return a.TotalRevenue > b.TotalRevenue
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.ID < b.ID
	})
	return rows, nil
}

const orderYear = "CAST(strftime('%Y', orders.created_at) AS INTEGER)"

// paidLines builds the GROUP BY over order lines of paid orders inside the
// query window, keyed by order year and the dim value.
func paidLines(ctx context.Context, db *gorm.DB, q Query, dim Dimension) *gorm.DB {
	var key, label string
	tx := db.WithContext(ctx).Table("order_details").
		Joins("JOIN orders ON orders.id = order_details.order_id").
		Joins("JOIN foods ON foods.id = order_details.food_id")
	switch dim {
	case ByFood:
		key, label = "foods.id", "foods.name"
	case ByRestaurant:
		key, label = "restaurants.id", "restaurants.name"
		tx = tx.Joins("JOIN restaurants ON restaurants.id = orders.restaurant_id")
	default:
		key, label = "categories.id", "categories.name"
		tx = tx.Joins("JOIN categories ON categories.id = foods.category_id")
	}

	if q.PaymentStatus != "" {
		tx = tx.Where("EXISTS (SELECT 1 FROM payments WHERE payments.order_id = orders.id AND payments.status = ?)", q.PaymentStatus)
	} else {
		tx = tx.Where("EXISTS (SELECT 1 FROM payments WHERE payments.order_id = orders.id)")
	}
	if len(q.RestaurantIDs) > 0 {
		tx = tx.Where("orders.restaurant_id IN ?", q.RestaurantIDs)
	}
	if q.Year != 0 {
		from, to := q.window()
		tx = tx.Where("orders.created_at >= ? AND orders.created_at < ?", from, to)
	} else if first, last, ok := q.months(); ok {
		tx = tx.Where("CAST(strftime('%m', orders.created_at) AS INTEGER) BETWEEN ? AND ?", first, last)
	}

	return tx.Select(orderYear+" AS year, "+key+" AS id, "+label+" AS label, "+
		"SUM(order_details.quantity * foods.price) AS total_revenue, "+
		"SUM(order_details.quantity) AS total_quantity").
		Group(orderYear + ", " + key + ", " + label)
}
