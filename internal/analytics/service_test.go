package analytics

import (
	"context"
	"testing"
	"time"

	"canteen-connect/internal/domain"
	"canteen-connect/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves canned rows keyed by the period start it is queried with.
type fakeSource struct {
	totals     map[time.Time][]float64
	quantities []repository.ItemQuantity
	totalsErr  error
}

func (f *fakeSource) PaidOrderTotals(_ context.Context, _ string, from, _ time.Time) ([]float64, error) {
	if f.totalsErr != nil {
		return nil, f.totalsErr
	}
	return f.totals[from], nil
}

func (f *fakeSource) ItemQuantities(_ context.Context, _ string, _, _ time.Time) ([]repository.ItemQuantity, error) {
	return f.quantities, nil
}

// fixed reference clock: 2025-03-15 14:30 local time
var testNow = time.Date(2025, time.March, 15, 14, 30, 0, 0, time.Local)

func pinnedClock() time.Time { return testNow }

func startOfToday() time.Time {
	return time.Date(2025, time.March, 15, 0, 0, 0, 0, time.Local)
}

func TestSummary_Today(t *testing.T) {
	src := &fakeSource{
		totals: map[time.Time][]float64{
			startOfToday():                   {100, 150, 50},
			startOfToday().AddDate(0, 0, -1): {200},
		},
		quantities: []repository.ItemQuantity{
			{Name: "Masala Dosa", Quantity: 4},
			{Name: "Filter Coffee", Quantity: 6},
		},
	}
	svc := NewServiceAt(src, pinnedClock)

	summary, err := svc.Summary(context.Background(), "canteen-1", domain.WindowToday)
	require.NoError(t, err)

	assert.Equal(t, domain.WindowToday, summary.Window)
	assert.Equal(t, startOfToday(), summary.From)
	assert.Equal(t, testNow, summary.To)
	assert.Equal(t, 300.0, summary.TotalRevenue)
	assert.Equal(t, 3, summary.TotalOrders)
	assert.Equal(t, 100.0, summary.AverageOrderValue)
	assert.Equal(t, "50.0%", summary.RevenueChange)
	assert.Equal(t, "200.0%", summary.OrdersChange)
	assert.Equal(t, []domain.PopularItem{
		{Name: "Filter Coffee", Count: 6},
		{Name: "Masala Dosa", Count: 4},
	}, summary.PopularItems)
}

func TestSummary_WeekWindowBounds(t *testing.T) {
	weekStart := testNow.AddDate(0, 0, -7)
	src := &fakeSource{
		totals: map[time.Time][]float64{
			weekStart: {120},
		},
	}
	svc := NewServiceAt(src, pinnedClock)

	summary, err := svc.Summary(context.Background(), "canteen-1", domain.WindowWeek)
	require.NoError(t, err)

	assert.Equal(t, weekStart, summary.From)
	assert.Equal(t, testNow, summary.To)
	assert.Equal(t, 120.0, summary.TotalRevenue)
}

func TestSummary_InvalidWindow(t *testing.T) {
	svc := NewServiceAt(&fakeSource{}, pinnedClock)

	_, err := svc.Summary(context.Background(), "canteen-1", domain.AnalyticsWindow("fortnight"))

	assert.Error(t, err)
}

func TestSummary_NoOrdersAtAll(t *testing.T) {
	svc := NewServiceAt(&fakeSource{}, pinnedClock)

	summary, err := svc.Summary(context.Background(), "canteen-1", domain.WindowMonth)
	require.NoError(t, err)

	assert.Equal(t, 0.0, summary.TotalRevenue)
	assert.Equal(t, 0, summary.TotalOrders)
	assert.Equal(t, 0.0, summary.AverageOrderValue, "average must not divide by zero")
	assert.Equal(t, "0%", summary.RevenueChange)
	assert.Equal(t, "0%", summary.OrdersChange)
	assert.Empty(t, summary.PopularItems)
}

func TestSummary_PriorPeriodEmpty(t *testing.T) {
	src := &fakeSource{
		totals: map[time.Time][]float64{
			startOfToday(): {500},
		},
	}
	svc := NewServiceAt(src, pinnedClock)

	summary, err := svc.Summary(context.Background(), "canteen-1", domain.WindowToday)
	require.NoError(t, err)

	assert.Equal(t, "100%", summary.RevenueChange)
	assert.Equal(t, "100%", summary.OrdersChange)
}

func TestSummary_RevenueDrop(t *testing.T) {
	src := &fakeSource{
		totals: map[time.Time][]float64{
			startOfToday():                   {150},
			startOfToday().AddDate(0, 0, -1): {300},
		},
	}
	svc := NewServiceAt(src, pinnedClock)

	summary, err := svc.Summary(context.Background(), "canteen-1", domain.WindowToday)
	require.NoError(t, err)

	assert.Equal(t, "-50.0%", summary.RevenueChange)
}

func TestSummary_SourceError(t *testing.T) {
	src := &fakeSource{totalsErr: assert.AnError}
	svc := NewServiceAt(src, pinnedClock)

	_, err := svc.Summary(context.Background(), "canteen-1", domain.WindowToday)

	assert.ErrorIs(t, err, assert.AnError)
}

func TestTopItems_RanksAndTruncates(t *testing.T) {
	rows := []repository.ItemQuantity{
		{Name: "Idli", Quantity: 3},
		{Name: "Vada", Quantity: 9},
		{Name: "Dosa", Quantity: 5},
		{Name: "Tea", Quantity: 1},
		{Name: "Coffee", Quantity: 7},
		{Name: "Juice", Quantity: 2},
		{Name: "Dosa", Quantity: 4}, // merged with the earlier Dosa rows
	}

	items := topItems(rows, 5)

	require.Len(t, items, 5)
	assert.Equal(t, domain.PopularItem{Name: "Vada", Count: 9}, items[0], "tie broken by first appearance")
	assert.Equal(t, domain.PopularItem{Name: "Dosa", Count: 9}, items[1])
	assert.Equal(t, domain.PopularItem{Name: "Coffee", Count: 7}, items[2])
	assert.Equal(t, domain.PopularItem{Name: "Idli", Count: 3}, items[3])
	assert.Equal(t, domain.PopularItem{Name: "Juice", Count: 2}, items[4])
}

func TestTopItems_TiesKeepFirstSeenOrder(t *testing.T) {
	rows := []repository.ItemQuantity{
		{Name: "Samosa", Quantity: 4},
		{Name: "Kachori", Quantity: 4},
		{Name: "Pakora", Quantity: 4},
	}

	items := topItems(rows, 5)

	assert.Equal(t, []domain.PopularItem{
		{Name: "Samosa", Count: 4},
		{Name: "Kachori", Count: 4},
		{Name: "Pakora", Count: 4},
	}, items)
}
