package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sambafall/comptoir/internal/domain/models"
	"github.com/sambafall/comptoir/internal/store"
)

var reportNow = time.Date(2025, 6, 12, 15, 0, 0, 0, time.UTC)

func newTestService(snap models.Snapshot) *Service {
	svc := NewService(store.New(snap), nil)
	svc.now = func() time.Time { return reportNow }
	return svc
}

func day(offset int) time.Time {
	return time.Date(2025, 6, 12+offset, 11, 0, 0, 0, time.UTC)
}

func TestLowStockIsStrictlyBelowThreshold(t *testing.T) {
	svc := newTestService(models.Snapshot{
		Products: []models.Product{
			{ID: "p0", Name: "empty", StockQuantity: 0},
			{ID: "p49", Name: "under", StockQuantity: 49},
			{ID: "p50", Name: "boundary", StockQuantity: 50},
			{ID: "p51", Name: "over", StockQuantity: 51},
		},
	})

	low := svc.LowStock()
	require.Len(t, low, 2)
	require.Equal(t, "p0", low[0].ID)
	require.Equal(t, "p49", low[1].ID)

	require.Equal(t, 2, svc.Dashboard(nil).LowStockProducts)
}

func TestTopSellersRankByRevenueNotQuantity(t *testing.T) {
	svc := newTestService(models.Snapshot{
		Products: []models.Product{
			{ID: "p1", Name: "Bottle"},
			{ID: "p2", Name: "Spray"},
			{ID: "p3", Name: "Never ordered"},
		},
		Orders: []models.Order{
			{ID: "o1", Date: day(0), Items: []models.OrderItem{
				{ProductID: "p1", Name: "Bottle", Quantity: 30, UnitPrice: 10}, // 300
				{ProductID: "p2", Name: "Spray", Quantity: 5, UnitPrice: 100},  // 500
			}},
			{ID: "o2", Date: day(-1), Items: []models.OrderItem{
				{ProductID: "p1", Name: "Bottle", Quantity: 10, UnitPrice: 10}, // +100
			}},
		},
	})

	sellers := svc.TopSellers()
	require.Len(t, sellers, 2, "products never ordered must not appear")
	require.Equal(t, "p2", sellers[0].ProductID)
	require.Equal(t, 500.0, sellers[0].Revenue)
	require.Equal(t, "p1", sellers[1].ProductID)
	require.Equal(t, 400.0, sellers[1].Revenue)
	require.Equal(t, 40, sellers[1].Quantity)
}

func TestTopSellersCapAtFive(t *testing.T) {
	var orders []models.Order
	for i := 0; i < 7; i++ {
		orders = append(orders, models.Order{
			ID:   models.NewID(),
			Date: day(0),
			Items: []models.OrderItem{
				{ProductID: string(rune('a' + i)), Quantity: 1, UnitPrice: float64(10 * (i + 1))},
			},
		})
	}
	svc := newTestService(models.Snapshot{Orders: orders})

	sellers := svc.TopSellers()
	require.Len(t, sellers, 5)
	require.Equal(t, 70.0, sellers[0].Revenue)
	require.Equal(t, 30.0, sellers[4].Revenue)
}

func TestDashboardDefaultsToToday(t *testing.T) {
	svc := newTestService(models.Snapshot{
		Orders: []models.Order{
			{ID: "o1", Date: day(0), Total: 210},
			{ID: "o2", Date: day(-1), Total: 100},
			{ID: "o3", Date: day(-5), Total: 50,
				PaymentType: models.PaymentCredit,
				Status:      models.StatusDelivered,
				DueDate:     reportNow.AddDate(0, 0, -2)},
		},
		Customers: []models.Customer{
			{ID: "c1", OutstandingBalance: 120},
			{ID: "c2", OutstandingBalance: 30.5},
		},
	})

	stats := svc.Dashboard(nil)
	require.Equal(t, 210.0, stats.PeriodSales)
	require.Equal(t, 360.0, stats.TotalRevenue)
	require.Equal(t, 150.5, stats.OutstandingCredit)
	require.Equal(t, 1, stats.OverdueOrders)
}

func TestDashboardHonorsExplicitPeriod(t *testing.T) {
	svc := newTestService(models.Snapshot{
		Orders: []models.Order{
			{ID: "o1", Date: day(0), Total: 210},
			{ID: "o2", Date: day(-1), Total: 100},
			{ID: "o3", Date: day(-10), Total: 50},
		},
	})

	window := Period{From: day(-2), To: day(1)}
	stats := svc.Dashboard(&window)
	require.Equal(t, 310.0, stats.PeriodSales)
	require.Equal(t, 360.0, stats.TotalRevenue)
}

func TestPeriodIsHalfOpen(t *testing.T) {
	p := Period{From: day(0), To: day(1)}
	require.True(t, p.Contains(day(0)))
	require.False(t, p.Contains(day(1)))
	require.False(t, p.Contains(day(-1)))
}

func TestCategoryTotalsSkipDeletedProducts(t *testing.T) {
	svc := newTestService(models.Snapshot{
		Products: []models.Product{
			{ID: "p1", Category: models.CategoryBottle},
			{ID: "p2", Category: models.CategorySpray},
		},
		Orders: []models.Order{
			{ID: "o1", Date: day(0), Items: []models.OrderItem{
				{ProductID: "p1", Quantity: 4},
				{ProductID: "p2", Quantity: 2},
				{ProductID: "gone", Quantity: 9},
			}},
			{ID: "o2", Date: day(-10), Items: []models.OrderItem{
				{ProductID: "p1", Quantity: 100},
			}},
		},
	})

	totals := svc.CategoryTotals(Period{From: day(-1), To: day(1)})
	require.Equal(t, map[models.ProductCategory]int{
		models.CategoryBottle: 4,
		models.CategorySpray:  2,
	}, totals)
}

func TestInventoryValuation(t *testing.T) {
	svc := newTestService(models.Snapshot{
		Products: []models.Product{
			{ID: "p1", CostPrice: 2.5, StockQuantity: 100}, // 250
			{ID: "p2", CostPrice: 10, StockQuantity: 3},    // 30
			{ID: "p3", CostPrice: 99, StockQuantity: 0},
		},
	})
	require.Equal(t, 280.0, svc.InventoryValuation())
}

func TestDailySummaryAggregatesOneDay(t *testing.T) {
	svc := newTestService(models.Snapshot{
		Products: []models.Product{{ID: "p1", StockQuantity: 10}},
		Orders: []models.Order{
			{ID: "o1", Date: day(0), Total: 210, AmountPaid: 210, PaymentType: models.PaymentCash},
			{ID: "o2", Date: day(0), Total: 100, AmountPaid: 40, PaymentType: models.PaymentCredit},
			{ID: "o3", Date: day(-1), Total: 999},
		},
		Payments: []models.Payment{
			{ID: "pay1", Date: day(0), Amount: 25},
			{ID: "pay2", Date: day(-3), Amount: 500},
		},
		Expenses: []models.Expense{
			{ID: "e1", Date: day(0), Amount: 80, Category: models.ExpenseTransport},
			{ID: "e2", Date: day(2), Amount: 40, Category: models.ExpenseRent},
		},
	})

	summary := svc.DailySummary(reportNow)
	require.Equal(t, 2, summary.OrderCount)
	require.Equal(t, 310.0, summary.SalesTotal)
	require.Equal(t, 275.0, summary.CashCollected)
	require.Equal(t, 60.0, summary.CreditIssued)
	require.Equal(t, 80.0, summary.ExpensesTotal)
	require.Equal(t, 1, summary.LowStockCount)
	require.Equal(t, reportNow, summary.CreatedAt)
}
