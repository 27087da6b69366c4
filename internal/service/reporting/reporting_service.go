package reporting

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sambafall/comptoir/internal/domain/models"
	"github.com/sambafall/comptoir/internal/store"
)

// LowStockThreshold is the stock quantity below which a product counts as
// low stock on the dashboard.
const LowStockThreshold = 50

// topSellerLimit caps the top-sellers report.
const topSellerLimit = 5

// Service derives dashboard and report figures from the cached snapshot.
// Every aggregation is a full scan over the in-memory collections and never
// mutates or persists anything. Collections stay at operational scale (a
// single business's catalog, clients and orders), so O(n) rescans per call
// are acceptable; if that assumption breaks, switch to incrementally
// maintained counters.
type Service struct {
	cache  *store.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a reporting service over the cache.
func NewService(cache *store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cache: cache, logger: logger, now: time.Now}
}

// Period is a half-open date range [From, To).
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether ts falls inside the period.
func (p Period) Contains(ts time.Time) bool {
	return !ts.Before(p.From) && ts.Before(p.To)
}

// DashboardStats is the headline figures block for the dashboard.
type DashboardStats struct {
	PeriodSales       float64 `json:"periodSales"`
	TotalRevenue      float64 `json:"totalRevenue"`
	OutstandingCredit float64 `json:"outstandingCredit"`
	OverdueOrders     int     `json:"overdueOrders"`
	LowStockProducts  int     `json:"lowStockProducts"`
}

// Dashboard computes the dashboard stats. A nil period means "today".
func (s *Service) Dashboard(period *Period) DashboardStats {
	snap := s.cache.Snapshot()
	now := s.now()

	window := todayPeriod(now)
	if period != nil {
		window = *period
	}

	var stats DashboardStats
	for _, o := range snap.Orders {
		stats.TotalRevenue += o.Total
		if window.Contains(o.Date) {
			stats.PeriodSales += o.Total
		}
		if o.IsOverdue(now) {
			stats.OverdueOrders++
		}
	}
	for _, c := range snap.Customers {
		stats.OutstandingCredit += c.OutstandingBalance
	}
	for _, p := range snap.Products {
		if p.StockQuantity < LowStockThreshold {
			stats.LowStockProducts++
		}
	}

	stats.PeriodSales = round2(stats.PeriodSales)
	stats.TotalRevenue = round2(stats.TotalRevenue)
	stats.OutstandingCredit = round2(stats.OutstandingCredit)
	return stats
}

// TopSeller is one row of the top-sellers report.
type TopSeller struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// TopSellers aggregates order line items by product and returns the top five
// by revenue. Ties keep first-encountered order, so the ranking is stable
// across identical snapshots. Products never ordered do not appear.
func (s *Service) TopSellers() []TopSeller {
	snap := s.cache.Snapshot()

	index := make(map[string]int)
	sellers := make([]TopSeller, 0)

	for _, o := range snap.Orders {
		for _, item := range o.Items {
			i, seen := index[item.ProductID]
			if !seen {
				i = len(sellers)
				index[item.ProductID] = i
				sellers = append(sellers, TopSeller{ProductID: item.ProductID, Name: item.Name})
			}
			sellers[i].Quantity += item.Quantity
			sellers[i].Revenue += float64(item.Quantity) * item.UnitPrice
		}
	}

	sort.SliceStable(sellers, func(i, j int) bool {
		return sellers[i].Revenue > sellers[j].Revenue
	})

	for i := range sellers {
		sellers[i].Revenue = round2(sellers[i].Revenue)
	}

	if len(sellers) > topSellerLimit {
		sellers = sellers[:topSellerLimit]
	}
	return sellers
}

// InventoryValuation sums costPrice x stockQuantity across the catalog.
func (s *Service) InventoryValuation() float64 {
	var total float64
	for _, p := range s.cache.Products() {
		total += p.CostPrice * float64(p.StockQuantity)
	}
	return round2(total)
}

// CategoryTotals sums line-item quantities per product category for orders
// within the period. Items whose product left the catalog are skipped: the
// order keeps its point-in-time copy, but the category lives on the product.
func (s *Service) CategoryTotals(period Period) map[models.ProductCategory]int {
	snap := s.cache.Snapshot()

	categories := make(map[string]models.ProductCategory, len(snap.Products))
	for _, p := range snap.Products {
		categories[p.ID] = p.Category
	}

	totals := make(map[models.ProductCategory]int)
	for _, o := range snap.Orders {
		if !period.Contains(o.Date) {
			continue
		}
		for _, item := range o.Items {
			category, ok := categories[item.ProductID]
			if !ok {
				continue
			}
			totals[category] += item.Quantity
		}
	}
	return totals
}

// DailySummary aggregates one calendar day for the scheduled export.
func (s *Service) DailySummary(day time.Time) models.DailySummary {
	snap := s.cache.Snapshot()
	window := todayPeriod(day)

	summary := models.DailySummary{Date: window.From, CreatedAt: s.now()}

	for _, o := range snap.Orders {
		if !window.Contains(o.Date) {
			continue
		}
		summary.OrderCount++
		summary.SalesTotal += o.Total
		summary.CashCollected += o.AmountPaid
		if o.PaymentType == models.PaymentCredit {
			summary.CreditIssued += o.Outstanding()
		}
	}
	for _, p := range snap.Payments {
		if window.Contains(p.Date) {
			summary.CashCollected += p.Amount
		}
	}
	for _, e := range snap.Expenses {
		if window.Contains(e.Date) {
			summary.ExpensesTotal += e.Amount
		}
	}

	now := s.now()
	for _, o := range snap.Orders {
		if o.IsOverdue(now) {
			summary.OverdueCount++
		}
	}
	for _, p := range snap.Products {
		if p.StockQuantity < LowStockThreshold {
			summary.LowStockCount++
		}
	}

	summary.SalesTotal = round2(summary.SalesTotal)
	summary.CashCollected = round2(summary.CashCollected)
	summary.CreditIssued = round2(summary.CreditIssued)
	summary.ExpensesTotal = round2(summary.ExpensesTotal)
	return summary
}

// LowStock lists products under the threshold, for the alert job.
func (s *Service) LowStock() []models.Product {
	var low []models.Product
	for _, p := range s.cache.Products() {
		if p.StockQuantity < LowStockThreshold {
			low = append(low, p)
		}
	}
	return low
}

func todayPeriod(now time.Time) Period {
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Period{From: from, To: from.AddDate(0, 0, 1)}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
