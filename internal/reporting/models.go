package reporting

import (
	"time"

	"github.com/shopspring/decimal"
)

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ShopSummary aggregates one shop's activity over a range.
// Member and trainer counts are current totals, not range-bound.
type ShopSummary struct {
	ShopID   string `json:"shopId"`
	Members  int    `json:"members"`
	Trainers int    `json:"trainers"`

	Payments     int             `json:"payments"`
	Revenue      decimal.Decimal `json:"revenue"`
	SessionsSold int             `json:"sessionsSold"`

	Scheduled int `json:"scheduled"`
	Attended  int `json:"attended"`
}

// Summary is the response for a summary request. Total sums every shop in Shops.
type Summary struct {
	Range TimeRange     `json:"range"`
	Shops []ShopSummary `json:"shops"`
	Total ShopSummary   `json:"total"`
}

// Headcount is a per-shop count of members and trainers.
type Headcount struct {
	ShopID   string
	Members  int
	Trainers int
}

// PaymentTotal is a per-shop payment aggregate.
type PaymentTotal struct {
	ShopID       string
	Count        int
	Amount       decimal.Decimal
	SessionCount int
}

// ScheduleTotal is a per-shop slot count by status.
type ScheduleTotal struct {
	ShopID    string
	Scheduled int
	Attended  int
}
