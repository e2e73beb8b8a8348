package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"canteen-connect/internal/domain"
	"canteen-connect/internal/repository"
)

// Source is the slice of the order repository the projection reads. Rows come
// back already filtered by canteen, payment status and time range.
type Source interface {
	PaidOrderTotals(ctx context.Context, canteenID string, from, to time.Time) ([]float64, error)
	ItemQuantities(ctx context.Context, canteenID string, from, to time.Time) ([]repository.ItemQuantity, error)
}

const topItemsLimit = 5

// Service aggregates paid orders into the admin dashboard view: revenue,
// order count, average order value and the top ordered items for a rolling
// window, each compared against the immediately preceding window.
type Service struct {
	source Source
	now    func() time.Time
}

func NewService(source Source) *Service {
	return &Service{source: source, now: time.Now}
}

// NewServiceAt pins the clock; used by tests.
func NewServiceAt(source Source, now func() time.Time) *Service {
	return &Service{source: source, now: now}
}

func (s *Service) Summary(ctx context.Context, canteenID string, window domain.AnalyticsWindow) (*domain.AnalyticsSummary, error) {
	if !window.IsValid() {
		return nil, fmt.Errorf("unknown analytics window %q", window)
	}

	from, to, prevFrom := windowBounds(s.now(), window)

	current, err := s.source.PaidOrderTotals(ctx, canteenID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load current period orders: %w", err)
	}
	previous, err := s.source.PaidOrderTotals(ctx, canteenID, prevFrom, from)
	if err != nil {
		return nil, fmt.Errorf("load previous period orders: %w", err)
	}

	quantities, err := s.source.ItemQuantities(ctx, canteenID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load item quantities: %w", err)
	}

	revenue := sum(current)
	prevRevenue := sum(previous)

	summary := &domain.AnalyticsSummary{
		Window:        window,
		From:          from,
		To:            to,
		TotalRevenue:  revenue,
		TotalOrders:   len(current),
		RevenueChange: percentChange(prevRevenue, revenue),
		OrdersChange:  percentChange(float64(len(previous)), float64(len(current))),
		PopularItems:  topItems(quantities, topItemsLimit),
	}
	if summary.TotalOrders > 0 {
		summary.AverageOrderValue = revenue / float64(summary.TotalOrders)
	}

	return summary, nil
}

// windowBounds returns [from, to) for the window and the start of the
// equal-length preceding comparison window.
func windowBounds(now time.Time, window domain.AnalyticsWindow) (from, to, prevFrom time.Time) {
	to = now
	switch window {
	case domain.WindowToday:
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		prevFrom = from.AddDate(0, 0, -1)
	case domain.WindowWeek:
		from = now.AddDate(0, 0, -7)
		prevFrom = from.AddDate(0, 0, -7)
	case domain.WindowMonth:
		from = now.AddDate(0, 0, -30)
		prevFrom = from.AddDate(0, 0, -30)
	}
	return from, to, prevFrom
}

// percentChange renders period-over-period change: "0%" when both periods are
// zero, "100%" when only the prior period is zero, otherwise the standard
// relative change with one decimal.
func percentChange(previous, current float64) string {
	if previous > 0 {
		return fmt.Sprintf("%.1f%%", (current-previous)/previous*100)
	}
	if current > 0 {
		return "100%"
	}
	return "0%"
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// topItems ranks items by summed quantity. The sort is stable so ties keep
// first-encountered order.
func topItems(rows []repository.ItemQuantity, limit int) []domain.PopularItem {
	counts := make(map[string]int)
	var order []string
	for _, row := range rows {
		if _, seen := counts[row.Name]; !seen {
			order = append(order, row.Name)
		}
		counts[row.Name] += row.Quantity
	}

	items := make([]domain.PopularItem, 0, len(order))
	for _, name := range order {
		items = append(items, domain.PopularItem{Name: name, Count: counts[name]})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Count > items[j].Count
	})

	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
