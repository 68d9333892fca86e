package stats

import (
	"context"
	"errors"
	"sort"
	"time"

	"yumspot-api/models"

	"gorm.io/gorm"
)

const (
	DefaultDays = 7
	MaxDays     = 90
)

var ErrInvalidDays = errors.New("days must be between 1 and 90")

// Series holds cumulative counts for consecutive days, oldest first.
type Series struct {
	Labels           []string `json:"labels"`
	UserCounts       []int64  `json:"user_counts"`
	RestaurantCounts []int64  `json:"restaurant_counts"`
}

// CumulativeSeries counts, for each of the trailing days ending at now, all
// users who joined and all restaurants created on or before that day.
func CumulativeSeries(ctx context.Context, db *gorm.DB, days int, now time.Time) (*Series, error) {
	if days < 1 || days > MaxDays {
		return nil, ErrInvalidDays
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	s := &Series{
		Labels:           make([]string, 0, days),
		UserCounts:       make([]int64, 0, days),
		RestaurantCounts: make([]int64, 0, days),
	}
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		end := day.AddDate(0, 0, 1)

		var users, restaurants int64
		if err := db.WithContext(ctx).Model(&models.User{}).
			Where("created_at < ?", end).Count(&users).Error; err != nil {
			return nil, err
		}
		if err := db.WithContext(ctx).Model(&models.Restaurant{}).
			Where("created_at < ?", end).Count(&restaurants).Error; err != nil {
			return nil, err
		}
		s.Labels = append(s.Labels, day.Format("2006-01-02"))
		s.UserCounts = append(s.UserCounts, users)
		s.RestaurantCounts = append(s.RestaurantCounts, restaurants)
	}
	return s, nil
}

// Totals are the headline counters of the dashboard.
type Totals struct {
	UserCount       int64 `json:"user_count"`
	RestaurantCount int64 `json:"restaurant_count"`
}

func CountTotals(ctx context.Context, db *gorm.DB) (Totals, error) {
	var t Totals
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&t.UserCount).Error; err != nil {
		return t, err
	}
	err := db.WithContext(ctx).Model(&models.Restaurant{}).Count(&t.RestaurantCount).Error
	return t, err
}

// Dataset is one line of a chart: a value per chart label.
type Dataset struct {
	ID    uint    `json:"id"`
	Label string  `json:"label"`
	Data  []int64 `json:"data"`
}

// Chart is aggregated revenue pivoted for plotting: one dataset per dimension
// value, one column per period.
type Chart struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// RevenueChart pivots aggregated rows into a chart. Periods missing for a
// dataset are zero. Datasets are ordered by total revenue, largest first.
func RevenueChart(rows []Row) Chart {
	type periodKey struct {
		at    time.Time
		label string
	}
	var periods []periodKey
	periodIndex := map[time.Time]int{}
	for _, r := range rows {
		if _, ok := periodIndex[r.Period]; !ok {
			periodIndex[r.Period] = -1
			periods = append(periods, periodKey{at: r.Period, label: r.PeriodLabel})
		}
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].at.Before(periods[j].at) })

	chart := Chart{Labels: make([]string, len(periods)), Datasets: []Dataset{}}
	for i, p := range periods {
		periodIndex[p.at] = i
		chart.Labels[i] = p.label
	}

	byID := map[uint]int{}
	totals := map[uint]int64{}
	for _, r := range rows {
		idx, ok := byID[r.ID]
		if !ok {
			idx = len(chart.Datasets)
			byID[r.ID] = idx
			chart.Datasets = append(chart.Datasets, Dataset{
				ID:    r.ID,
				Label: r.Label,
				Data:  make([]int64, len(periods)),
			})
		}
		chart.Datasets[idx].Data[periodIndex[r.Period]] += r.TotalRevenue
		totals[r.ID] += r.TotalRevenue
	}
	sort.SliceStable(chart.Datasets, func(i, j int) bool {
		return totals[chart.Datasets[i].ID] > totals[chart.Datasets[j].ID]
	})
	return chart
}
