package domain

import "time"

type AnalyticsWindow string

const (
	WindowToday AnalyticsWindow = "today"
	WindowWeek  AnalyticsWindow = "week"
	WindowMonth AnalyticsWindow = "month"
)

func (w AnalyticsWindow) IsValid() bool {
	return w == WindowToday || w == WindowWeek || w == WindowMonth
}

type PopularItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// AnalyticsSummary is the read-only projection of paid orders for one canteen
// over a window, compared against the immediately preceding window of equal
// length.
type AnalyticsSummary struct {
	Window            AnalyticsWindow `json:"window"`
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	TotalRevenue      float64         `json:"total_revenue"`
	TotalOrders       int             `json:"total_orders"`
	AverageOrderValue float64         `json:"average_order_value"`
	RevenueChange     string          `json:"revenue_change"`
	OrdersChange      string          `json:"orders_change"`
	PopularItems      []PopularItem   `json:"popular_items"`
}
