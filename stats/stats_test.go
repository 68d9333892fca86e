package stats

import (
	"context"
	"testing"
	"time"

	"yumspot-api/config"
	"yumspot-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	owner      models.User
	customer   models.User
	restaurant models.Restaurant
	drinks     models.Category
	mains      models.Category
	coffee     models.Food
	noodles    models.Food
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := config.Open(":memory:")
	require.NoError(t, err)

	f := &fixture{db: db}
	f.owner = models.User{Username: "owner", Email: "owner@example.com", PasswordHash: "x", Role: models.RoleRestaurant}
	f.customer = models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&f.owner).Error)
	require.NoError(t, db.Create(&f.customer).Error)

	f.restaurant = f.addRestaurant(t, "Pho 24")
	f.drinks = models.Category{Base: models.Base{Active: true}, Name: "Drinks"}
	f.mains = models.Category{Base: models.Base{Active: true}, Name: "Mains"}
	require.NoError(t, db.Create(&f.drinks).Error)
	require.NoError(t, db.Create(&f.mains).Error)

	f.coffee = f.addFood(t, f.restaurant, f.drinks, "Coffee", 50000)
	f.noodles = f.addFood(t, f.restaurant, f.mains, "Noodles", 80000)
	return f
}

func (f *fixture) addRestaurant(t *testing.T, name string) models.Restaurant {
	t.Helper()
	r := models.Restaurant{Base: models.Base{Active: true}, Name: name, UserID: f.owner.ID}
	require.NoError(t, f.db.Create(&r).Error)
	return r
}

func (f *fixture) addFood(t *testing.T, r models.Restaurant, c models.Category, name string, price int64) models.Food {
	t.Helper()
	menu := models.Menu{Base: models.Base{Active: true}, RestaurantID: r.ID, CategoryID: c.ID}
	require.NoError(t, f.db.Where(models.Menu{RestaurantID: r.ID, CategoryID: c.ID}).FirstOrCreate(&menu).Error)
	food := models.Food{Base: models.Base{Active: true}, Name: name, Price: price, MenuID: menu.ID, CategoryID: c.ID}
	require.NoError(t, f.db.Create(&food).Error)
	return food
}

type line struct {
	food models.Food
	qty  int
}

// order places an order at the given time; status "" leaves it unpaid.
func (f *fixture) order(t *testing.T, r models.Restaurant, at time.Time, status string, lines ...line) models.Order {
	t.Helper()
	o := models.Order{Base: models.Base{Active: true, CreatedAt: at}, UserID: f.customer.ID, RestaurantID: r.ID}
	require.NoError(t, f.db.Create(&o).Error)
	for _, l := range lines {
		d := models.OrderDetails{Base: models.Base{Active: true}, OrderID: o.ID, FoodID: l.food.ID, Quantity: l.qty}
		require.NoError(t, f.db.Create(&d).Error)
	}
	if status != "" {
		p := models.Payment{Base: models.Base{Active: true}, OrderID: o.ID, Amount: 1, Status: status}
		require.NoError(t, f.db.Create(&p).Error)
	}
	return o
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		err  error
	}{
		{"empty", Query{}, nil},
		{"year and quarter", Query{Year: 2024, Quarter: 4}, nil},
		{"month", Query{Month: 12}, nil},
		{"quarter too large", Query{Quarter: 5}, ErrInvalidQuarter},
		{"negative quarter", Query{Quarter: -1}, ErrInvalidQuarter},
		{"month too large", Query{Month: 13}, ErrInvalidMonth},
		{"quarter with month", Query{Quarter: 1, Month: 2}, ErrQuarterAndMonth},
		{"year out of range", Query{Year: 10000}, ErrInvalidYear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.q.Validate(), tt.err)
		})
	}
}

func TestAggregateRejectsInvalidQueryBeforeLoading(t *testing.T) {
	f := newFixture(t)
	_, err := Aggregate(context.Background(), f.db, Query{Quarter: 5}, ByFood)
	assert.ErrorIs(t, err, ErrInvalidQuarter)

	_, err = Aggregate(context.Background(), f.db, Query{}, Dimension("city"))
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestAggregateMonthlyFood(t *testing.T) {
	f := newFixture(t)
	f.order(t, f.restaurant, date(2024, time.March, 10), "success", line{f.coffee, 3})
	f.order(t, f.restaurant, date(2024, time.April, 2), "success", line{f.coffee, 1})

	rows, err := Aggregate(context.Background(), f.db, Query{Year: 2024, Month: 3}, ByFood)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, f.coffee.ID, rows[0].ID)
	assert.Equal(t, "Coffee", rows[0].Label)
	assert.Equal(t, "2024-03", rows[0].PeriodLabel)
	assert.Equal(t, int64(150000), rows[0].TotalRevenue)
	assert.Equal(t, int64(3), rows[0].TotalQuantity)
}

func TestAggregateExcludesUnpaidOrders(t *testing.T) {
	f := newFixture(t)
	f.order(t, f.restaurant, date(2024, time.March, 10), "success", line{f.coffee, 1})
	f.order(t, f.restaurant, date(2024, time.March, 11), "", line{f.coffee, 10})

	rows, err := Aggregate(context.Background(), f.db, Query{Year: 2024}, ByFood)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(50000), rows[0].TotalRevenue)
	assert.Equal(t, int64(1), rows[0].TotalQuantity)
}

func TestAggregatePaymentStatusFilter(t *testing.T) {
	f := newFixture(t)
	f.order(t, f.restaurant, date(2024, time.March, 10), "success", line{f.coffee, 1})
	f.order(t, f.restaurant, date(2024, time.March, 11), "failed", line{f.coffee, 2})

	all, err := Aggregate(context.Background(), f.db, Query{}, ByFood)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(3), all[0].TotalQuantity)

	ok, err := Aggregate(context.Background(), f.db, Query{PaymentStatus: "success"}, ByFood)
	require.NoError(t, err)
	require.Len(t, ok, 1)
	assert.Equal(t, int64(1), ok[0].TotalQuantity)
}

func TestAggregateQuarterBuckets(t *testing.T) {
	f := newFixture(t)
	f.order(t, f.restaurant, date(2024, time.January, 5), "success", line{f.noodles, 1})
	f.order(t, f.restaurant, date(2024, time.March, 30), "success", line{f.noodles, 2})
	f.order(t, f.restaurant, date(2024, time.April, 1), "success", line{f.noodles, 5})

	rows, err := Aggregate(context.Background(), f.db, Query{Year: 2024, Quarter: 1}, ByCategory)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-Q1", rows[0].PeriodLabel)
	assert.Equal(t, "Mains", rows[0].Label)
	assert.Equal(t, int64(3*80000), rows[0].TotalRevenue)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), rows[0].Period.UTC())
}

func TestAggregateYearlyAcrossYears(t *testing.T) {
	f := newFixture(t)
	f.order(t, f.restaurant, date(2023, time.December, 31), "success", line{f.coffee, 1})
	f.order(t, f.restaurant, date(2024, time.January, 1), "success", line{f.coffee, 2})

	rows, err := Aggregate(context.Background(), f.db, Query{}, ByRestaurant)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2023", rows[0].PeriodLabel)
	assert.Equal(t, "2024", rows[1].PeriodLabel)
	assert.Equal(t, "Pho 24", rows[1].Label)
	assert.Equal(t, int64(100000), rows[1].TotalRevenue)
}

func TestAggregateOrdering(t *testing.T) {
	f := newFixture(t)
	other := f.addRestaurant(t, "Bun Cha")
	tea := f.addFood(t, other, f.drinks, "Tea", 10000)

	f.order(t, f.restaurant, date(2024, time.May, 1), "success", line{f.coffee, 1}, line{f.noodles, 1})
	f.order(t, other, date(2024, time.May, 2), "success", line{tea, 5})

	rows, err := Aggregate(context.Background(), f.db, Query{Year: 2024, Month: 5}, ByFood)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Noodles", "Coffee", "Tea"}, []string{rows[0].Label, rows[1].Label, rows[2].Label})
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].TotalRevenue, rows[i].TotalRevenue)
	}
}

func TestAggregateRestaurantFilter(t *testing.T) {
	f := newFixture(t)
	other := f.addRestaurant(t, "Bun Cha")
	tea := f.addFood(t, other, f.drinks, "Tea", 10000)
	f.order(t, f.restaurant, date(2024, time.May, 1), "success", line{f.coffee, 1})
	f.order(t, other, date(2024, time.May, 2), "success", line{tea, 5})

	rows, err := Aggregate(context.Background(), f.db, Query{RestaurantIDs: []uint{other.ID}}, ByCategory)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Drinks", rows[0].Label)
	assert.Equal(t, int64(50000), rows[0].TotalRevenue)
}

func TestAggregateUsesCurrentFoodPrice(t *testing.T) {
	f := newFixture(t)
	f.order(t, f.restaurant, date(2024, time.May, 1), "success", line{f.coffee, 2})
	require.NoError(t, f.db.Model(&f.coffee).Update("price", 60000).Error)

	rows, err := Aggregate(context.Background(), f.db, Query{}, ByFood)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(120000), rows[0].TotalRevenue)
}

func TestPeriodLabel(t *testing.T) {
	at := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024", PeriodLabel(Yearly, at))
	assert.Equal(t, "2024-Q3", PeriodLabel(Quarterly, at))
	assert.Equal(t, "2024-07", PeriodLabel(Monthly, at))
}

func TestCumulativeSeries(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2024, time.June, 10, 15, 0, 0, 0, time.UTC)
	for i, day := range []int{4, 6, 8} {
		u := models.User{
			Username:     "user" + string(rune('a'+i)),
			Email:        "user" + string(rune('a'+i)) + "@example.com",
			PasswordHash: "x",
			Role:         models.RoleCustomer,
			CreatedAt:    time.Date(2024, time.June, day, 9, 0, 0, 0, time.UTC),
		}
		require.NoError(t, f.db.Create(&u).Error)
	}
	// fixture users were created "now" in real time and fall after the window
	require.NoError(t, f.db.Model(&models.User{}).Where("username IN ?", []string{"owner", "alice"}).
		Update("created_at", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)).Error)
	require.NoError(t, f.db.Model(&models.Restaurant{}).Where("id = ?", f.restaurant.ID).
		Update("created_at", time.Date(2024, time.June, 7, 0, 0, 0, 0, time.UTC)).Error)

	s, err := CumulativeSeries(context.Background(), f.db, 7, now)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2024-06-04", "2024-06-05", "2024-06-06", "2024-06-07", "2024-06-08", "2024-06-09", "2024-06-10",
	}, s.Labels)
	assert.Equal(t, []int64{1, 1, 2, 2, 3, 3, 3}, s.UserCounts)
	assert.Equal(t, []int64{0, 0, 0, 1, 1, 1, 1}, s.RestaurantCounts)
	for i := 1; i < len(s.UserCounts); i++ {
		assert.GreaterOrEqual(t, s.UserCounts[i], s.UserCounts[i-1])
	}
}

func TestCumulativeSeriesRejectsDays(t *testing.T) {
	f := newFixture(t)
	_, err := CumulativeSeries(context.Background(), f.db, 0, time.Now())
	assert.ErrorIs(t, err, ErrInvalidDays)
	_, err = CumulativeSeries(context.Background(), f.db, MaxDays+1, time.Now())
	assert.ErrorIs(t, err, ErrInvalidDays)
}

func TestCountTotals(t *testing.T) {
	f := newFixture(t)
	totals, err := CountTotals(context.Background(), f.db)
	require.NoError(t, err)
	assert.Equal(t, Totals{UserCount: 2, RestaurantCount: 1}, totals)
}

func TestRevenueChart(t *testing.T) {
	jan := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	rows := []Row{
		{Period: jan, PeriodLabel: "2024-01", ID: 1, Label: "Drinks", TotalRevenue: 100},
		{Period: jan, PeriodLabel: "2024-01", ID: 2, Label: "Mains", TotalRevenue: 50},
		{Period: feb, PeriodLabel: "2024-02", ID: 2, Label: "Mains", TotalRevenue: 300},
	}

	chart := RevenueChart(rows)
	assert.Equal(t, []string{"2024-01", "2024-02"}, chart.Labels)
	require.Len(t, chart.Datasets, 2)
	assert.Equal(t, Dataset{ID: 2, Label: "Mains", Data: []int64{50, 300}}, chart.Datasets[0])
	assert.Equal(t, Dataset{ID: 1, Label: "Drinks", Data: []int64{100, 0}}, chart.Datasets[1])

	empty := RevenueChart(nil)
	assert.Empty(t, empty.Labels)
	assert.Empty(t, empty.Datasets)
}

func TestAggregateQuarterWithoutYearSpansYears(t *testing.T) {
	f := newFixture(t)
	f.order(t, f.restaurant, date(2023, time.February, 1), "success", line{f.coffee, 1})
	f.order(t, f.restaurant, date(2024, time.March, 31), "success", line{f.coffee, 2}, line{f.noodles, 1})
	f.order(t, f.restaurant, date(2024, time.April, 1), "success", line{f.coffee, 9})
	f.order(t, f.restaurant, date(2025, time.December, 1), "success", line{f.coffee, 9})

	rows, err := Aggregate(context.Background(), f.db, Query{Quarter: 1}, ByFood)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2023-Q1", "2024-Q1", "2024-Q1"},
		[]string{rows[0].PeriodLabel, rows[1].PeriodLabel, rows[2].PeriodLabel})
	assert.Equal(t, int64(50000), rows[0].TotalRevenue)
	assert.Equal(t, "Coffee", rows[1].Label)
	assert.Equal(t, int64(100000), rows[1].TotalRevenue)
	assert.Equal(t, int64(2), rows[1].TotalQuantity)
	assert.Equal(t, "Noodles", rows[2].Label)

	rows, err = Aggregate(context.Background(), f.db, Query{Month: 12}, ByRestaurant)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-12", rows[0].PeriodLabel)
	assert.Equal(t, int64(9), rows[0].TotalQuantity)
}
