package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sambafall/comptoir/internal/domain/models"
	"github.com/sambafall/comptoir/internal/store"
)

type createCall struct {
	collection models.Collection
	doc        any
}

type updateCall struct {
	collection models.Collection
	id         string
	fields     map[string]any
}

type fakeWriter struct {
	mu         sync.Mutex
	creates    []createCall
	updates    []updateCall
	failCreate map[models.Collection]error
	failUpdate map[string]error // keyed by "collection/id"
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		failCreate: make(map[models.Collection]error),
		failUpdate: make(map[string]error),
	}
}

func (w *fakeWriter) Create(_ context.Context, collection models.Collection, doc any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.failCreate[collection]; err != nil {
		return err
	}
	w.creates = append(w.creates, createCall{collection, doc})
	return nil
}

func (w *fakeWriter) Update(_ context.Context, collection models.Collection, id string, fields map[string]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.failUpdate[string(collection)+"/"+id]; err != nil {
		return err
	}
	w.updates = append(w.updates, updateCall{collection, id, fields})
	return nil
}

func (w *fakeWriter) Upsert(_ context.Context, collection models.Collection, id string, doc any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.creates = append(w.creates, createCall{collection, doc})
	return nil
}

func (w *fakeWriter) updateFor(collection models.Collection, id string) (updateCall, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, u := range w.updates {
		if u.collection == collection && u.id == id {
			return u, true
		}
	}
	return updateCall{}, false
}

var testNow = time.Date(2025, 6, 12, 10, 30, 0, 0, time.UTC)

func newTestCoordinator(snap models.Snapshot) (*Coordinator, *fakeWriter, *store.Store) {
	writer := newFakeWriter()
	cache := store.New(snap)
	coord := NewCoordinator(writer, cache, nil)
	coord.now = func() time.Time { return testNow }

	seq := 0
	coord.newID = func() string {
		seq++
		return fmt.Sprintf("id%04d", seq)
	}
	return coord, writer, cache
}

func baseSnapshot() models.Snapshot {
	return models.Snapshot{
		Products: []models.Product{
			{ID: "p1", Name: "Bottle 500ml", Category: models.CategoryBottle, SellingPrice: 100, CostPrice: 60, StockQuantity: 10},
			{ID: "p2", Name: "Spray 100ml", Category: models.CategorySpray, SellingPrice: 50, CostPrice: 20, StockQuantity: 200},
		},
		Customers: []models.Customer{
			{ID: "c1", Name: "Boutique Kaloum", CreditLimit: 1000, CreditDays: 15, OutstandingBalance: 0},
		},
	}
}

func TestOrderTotalsUseGlobalTaxRate(t *testing.T) {
	coord, writer, _ := newTestCoordinator(baseSnapshot())

	order, err := coord.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:  "c1",
		Items:       []CartItem{{ProductID: "p1", Quantity: 2}},
		PaymentType: models.PaymentCash,
		AmountPaid:  210,
	})
	require.NoError(t, err)

	require.Equal(t, 200.0, order.Subtotal)
	require.Equal(t, 10.0, order.Tax)
	require.Equal(t, 210.0, order.Total)
	require.Equal(t, models.StatusPending, order.Status)
	require.Equal(t, "Bottle 500ml", order.Items[0].Name)

	require.Len(t, writer.creates, 1)
	require.Equal(t, models.CollectionOrders, writer.creates[0].collection)
}

func TestValidationRunsBeforeAnyRemoteWrite(t *testing.T) {
	coord, writer, _ := newTestCoordinator(baseSnapshot())
	ctx := context.Background()

	_, err := coord.CreateOrder(ctx, CreateOrderInput{CustomerID: "c1"})
	require.ErrorIs(t, err, ErrEmptyCart)

	_, err = coord.CreateOrder(ctx, CreateOrderInput{Items: []CartItem{{ProductID: "p1", Quantity: 1}}})
	require.ErrorIs(t, err, ErrNoCustomer)

	_, err = coord.CreateOrder(ctx, CreateOrderInput{
		CustomerID: "c1",
		Items:      []CartItem{{ProductID: "ghost", Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrUnknownProduct)

	_, err = coord.CreateOrder(ctx, CreateOrderInput{
		CustomerID: "c1",
		Items:      []CartItem{{ProductID: "p1", Quantity: 0}},
	})
	require.ErrorIs(t, err, ErrInvalidAmount)

	require.Empty(t, writer.creates)
	require.Empty(t, writer.updates)
}

func TestCreditGateProjectedBalance(t *testing.T) {
	coord, _, _ := newTestCoordinator(baseSnapshot())
	customer := models.Customer{ID: "c1", CreditLimit: 1000, OutstandingBalance: 900}

	// Projected 950 is within the limit.
	require.NoError(t, coord.checkCreditGate(customer, 50, testNow))

	// Projected 1050 exceeds it.
	err := coord.checkCreditGate(customer, 150, testNow)
	var gateErr *CreditGateError
	require.ErrorAs(t, err, &gateErr)
	require.Equal(t, 1050.0, gateErr.Projected)
	require.Equal(t, 1000.0, gateErr.CreditLimit)
}

func TestCreditGateBlocksOnOverdueOrder(t *testing.T) {
	snap := baseSnapshot()
	snap.Orders = []models.Order{{
		ID:          "o1",
		CustomerID:  "c1",
		Total:       100,
		PaymentType: models.PaymentCredit,
		Status:      models.StatusDelivered,
		DueDate:     testNow.AddDate(0, 0, -3),
	}}
	coord, writer, _ := newTestCoordinator(snap)

	_, err := coord.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:  "c1",
		Items:       []CartItem{{ProductID: "p2", Quantity: 1}},
		PaymentType: models.PaymentCredit,
	})

	var gateErr *CreditGateError
	require.ErrorAs(t, err, &gateErr)
	require.Equal(t, 1, gateErr.OverdueOrders)
	require.Empty(t, writer.creates, "blocked order must not reach the remote store")
}

func TestOverrideBypassesCreditGate(t *testing.T) {
	snap := baseSnapshot()
	snap.Customers[0].OutstandingBalance = 990
	coord, writer, _ := newTestCoordinator(snap)

	_, err := coord.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:  "c1",
		Items:       []CartItem{{ProductID: "p1", Quantity: 2}},
		PaymentType: models.PaymentCredit,
		Override:    true,
	})
	require.NoError(t, err)
	require.Len(t, writer.creates, 1)
}

func TestCreditOrderWritesStockAndBalance(t *testing.T) {
	coord, writer, _ := newTestCoordinator(baseSnapshot())

	order, err := coord.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:  "c1",
		Items:       []CartItem{{ProductID: "p1", Quantity: 3}},
		PaymentType: models.PaymentCredit,
	})
	require.NoError(t, err)
	require.Equal(t, 315.0, order.Total)
	require.Equal(t, testNow.AddDate(0, 0, 15), order.DueDate)

	stock, ok := writer.updateFor(models.CollectionProducts, "p1")
	require.True(t, ok)
	require.Equal(t, 7, stock.fields["stock_quantity"])

	balance, ok := writer.updateFor(models.CollectionCustomers, "c1")
	require.True(t, ok)
	require.Equal(t, 315.0, balance.fields["outstanding_balance"])
}

func TestCreditOrderBalanceReflectsAmountPaid(t *testing.T) {
	coord, writer, cache := newTestCoordinator(baseSnapshot())

	// Subtotal 200, tax 10, total 210, 90 paid up front: the customer's
	// balance grows by exactly 120.
	_, err := coord.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:  "c1",
		Items:       []CartItem{{ProductID: "p1", Quantity: 2}},
		PaymentType: models.PaymentCredit,
		AmountPaid:  90,
	})
	require.NoError(t, err)

	balance, ok := writer.updateFor(models.CollectionCustomers, "c1")
	require.True(t, ok)
	require.Equal(t, 120.0, balance.fields["outstanding_balance"])

	// The write echoes back through the reconciler before the cache moves.
	cached, _ := cache.Customer("c1")
	require.Equal(t, 0.0, cached.OutstandingBalance)
	cache.ReplaceCustomers([]models.Customer{{ID: "c1", CreditLimit: 1000, OutstandingBalance: 120}})
	cached, _ = cache.Customer("c1")
	require.Equal(t, 120.0, cached.OutstandingBalance)
}

func TestOrderWriteFailureIsTotal(t *testing.T) {
	coord, writer, _ := newTestCoordinator(baseSnapshot())
	writer.failCreate[models.CollectionOrders] = errors.New("write rejected")

	_, err := coord.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:  "c1",
		Items:       []CartItem{{ProductID: "p1", Quantity: 1}},
		PaymentType: models.PaymentCash,
	})
	require.Error(t, err)

	var partial *PartialFailureError
	require.False(t, errors.As(err, &partial), "full failure must not look partial")
	require.Empty(t, writer.updates)
}

func TestPartialFailureSurfacesFailedStepsAndRetries(t *testing.T) {
	coord, writer, cache := newTestCoordinator(baseSnapshot())
	writer.failUpdate["products/p1"] = errors.New("stock write rejected")

	order, err := coord.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:  "c1",
		Items:       []CartItem{{ProductID: "p1", Quantity: 3}},
		PaymentType: models.PaymentCredit,
	})

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	require.Equal(t, order.ID, partial.EntityID)
	require.Equal(t, []Step{{Kind: StepStock, ProductID: "p1", Quantity: 3}}, partial.Steps)

	// Later steps still ran despite the stock failure.
	_, ok := writer.updateFor(models.CollectionCustomers, "c1")
	require.True(t, ok)

	// The order reconciles back into the cache, the operator retries.
	cache.ReplaceOrders([]models.Order{order})
	delete(writer.failUpdate, "products/p1")

	require.NoError(t, coord.RetrySteps(context.Background(), order.ID, partial.Steps))
	stock, ok := writer.updateFor(models.CollectionProducts, "p1")
	require.True(t, ok)
	require.Equal(t, 7, stock.fields["stock_quantity"])
}

func TestRetryStepsNeedsReconciledOrder(t *testing.T) {
	coord, _, _ := newTestCoordinator(baseSnapshot())
	err := coord.RetrySteps(context.Background(), "missing", []Step{{Kind: StepBalance}})
	require.ErrorIs(t, err, ErrUnknownOrder)
}

func TestCollectPaymentValidatesAmount(t *testing.T) {
	coord, writer, _ := newTestCoordinator(baseSnapshot())

	_, err := coord.CollectPayment(context.Background(), CollectPaymentInput{CustomerID: "c1", Amount: 0})
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = coord.CollectPayment(context.Background(), CollectPaymentInput{CustomerID: "c1", Amount: -5})
	require.ErrorIs(t, err, ErrInvalidAmount)
	require.Empty(t, writer.updates)
}

func TestCollectPaymentReducesBalanceAndAppendsLedger(t *testing.T) {
	snap := baseSnapshot()
	snap.Customers[0].OutstandingBalance = 500
	coord, writer, _ := newTestCoordinator(snap)

	payment, err := coord.CollectPayment(context.Background(), CollectPaymentInput{
		CustomerID: "c1",
		Amount:     200,
		Method:     "cash",
	})
	require.NoError(t, err)
	require.Equal(t, 200.0, payment.Amount)

	balance, ok := writer.updateFor(models.CollectionCustomers, "c1")
	require.True(t, ok)
	require.Equal(t, 300.0, balance.fields["outstanding_balance"])

	require.Len(t, writer.creates, 1)
	require.Equal(t, models.CollectionPayments, writer.creates[0].collection)
}

func TestCollectPaymentClampsBalanceAtZero(t *testing.T) {
	snap := baseSnapshot()
	snap.Customers[0].OutstandingBalance = 50
	coord, writer, _ := newTestCoordinator(snap)

	_, err := coord.CollectPayment(context.Background(), CollectPaymentInput{CustomerID: "c1", Amount: 200})
	require.NoError(t, err)

	balance, _ := writer.updateFor(models.CollectionCustomers, "c1")
	require.Equal(t, 0.0, balance.fields["outstanding_balance"])
}

func TestCollectPaymentLedgerFailureIsPartial(t *testing.T) {
	snap := baseSnapshot()
	snap.Customers[0].OutstandingBalance = 500
	coord, writer, _ := newTestCoordinator(snap)
	writer.failCreate[models.CollectionPayments] = errors.New("ledger write rejected")

	_, err := coord.CollectPayment(context.Background(), CollectPaymentInput{CustomerID: "c1", Amount: 100})

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	require.Equal(t, []Step{{Kind: StepLedger}}, partial.Steps)
}

func TestAddProductAssignsShortID(t *testing.T) {
	coord, writer, _ := newTestCoordinator(baseSnapshot())

	product, err := coord.AddProduct(context.Background(), models.Product{
		Name:         "Cap 28mm",
		Category:     models.CategoryCap,
		SellingPrice: 10,
		CostPrice:    4,
	})
	require.NoError(t, err)
	require.NotEmpty(t, product.ID)
	require.Len(t, writer.creates, 1)

	_, err = coord.AddProduct(context.Background(), models.Product{Name: "Bad", Category: "Crate"})
	require.Error(t, err)
}

func TestAddExpenseValidatesCategory(t *testing.T) {
	coord, _, _ := newTestCoordinator(baseSnapshot())

	_, err := coord.AddExpense(context.Background(), models.Expense{Category: "Fuel", Amount: 10})
	require.Error(t, err)

	expense, err := coord.AddExpense(context.Background(), models.Expense{
		Category:   models.ExpenseOther,
		OtherLabel: "Generator repair",
		Amount:     75.5,
	})
	require.NoError(t, err)
	require.Equal(t, testNow, expense.Date)
}

func TestUpdateOrderStatusValidates(t *testing.T) {
	snap := baseSnapshot()
	snap.Orders = []models.Order{{ID: "o1", CustomerID: "c1"}}
	coord, writer, _ := newTestCoordinator(snap)

	require.Error(t, coord.UpdateOrderStatus(context.Background(), "o1", "Shipped"))
	require.ErrorIs(t, coord.UpdateOrderStatus(context.Background(), "ghost", models.StatusPaid), ErrUnknownOrder)

	require.NoError(t, coord.UpdateOrderStatus(context.Background(), "o1", models.StatusDelivered))
	u, ok := writer.updateFor(models.CollectionOrders, "o1")
	require.True(t, ok)
	require.Equal(t, models.StatusDelivered, u.fields["status"])
}
