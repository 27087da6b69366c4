package models

import "time"

// DailySummary is the aggregated end-of-day row exported by the scheduler.
type DailySummary struct {
	Date          time.Time `json:"date"`
	SalesTotal    float64   `json:"sales_total"`
	CashCollected float64   `json:"cash_collected"`
	CreditIssued  float64   `json:"credit_issued"`
	ExpensesTotal float64   `json:"expenses_total"`
	OrderCount    int       `json:"order_count"`
	OverdueCount  int       `json:"overdue_count"`
	LowStockCount int       `json:"low_stock_count"`
	CreatedAt     time.Time `json:"created_at"`
}
