package orders

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sambafall/comptoir/internal/domain/models"
	"github.com/sambafall/comptoir/internal/remote"
	"github.com/sambafall/comptoir/internal/store"
)

// TaxRate is the single global rate applied to order subtotals. It is not
// per-line or per-customer.
const TaxRate = 0.05

// defaultCreditDays applies when a customer has no credit term configured.
const defaultCreditDays = 30

// CartItem is one requested line before the product name and price are
// snapshotted onto the order.
type CartItem struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// CreateOrderInput carries a confirmed cart.
type CreateOrderInput struct {
	CustomerID  string             `json:"customerId"`
	Items       []CartItem         `json:"items"`
	PaymentType models.PaymentType `json:"paymentType"`
	AmountPaid  float64            `json:"amountPaid"`
	// Override is the authorized bypass of the credit-limit/overdue gate.
	Override bool `json:"override"`
}

// CollectPaymentInput carries a credit settlement.
type CollectPaymentInput struct {
	CustomerID string  `json:"customerId"`
	Amount     float64 `json:"amount"`
	Method     string  `json:"method"`
	Notes      string  `json:"notes"`
}

// Coordinator executes multi-entity business operations as fixed, ordered
// sequences of independent remote writes. The remote store offers no
// multi-document transaction, so a sequence can fail partway; the order
// document is then already placed and the caller receives a
// PartialFailureError listing the follow-up steps left to retry. The
// coordinator never mutates the cache: every write flows back through the
// change stream, which keeps the cache a replica of confirmed remote state.
//
// Before computing any stock or balance delta the coordinator re-reads the
// current cached value, so a reconciler emission landing between two awaited
// steps is never clobbered by a stale carry-over.
type Coordinator struct {
	writer remote.Writer
	cache  *store.Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewCoordinator wires a write coordinator over the remote writer and cache.
func NewCoordinator(writer remote.Writer, cache *store.Store, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		writer: writer,
		cache:  cache,
		logger: logger,
		now:    time.Now,
		newID:  models.NewID,
	}
}

// CreateOrder validates the cart, applies the credit gate, then issues the
// write sequence: (1) order document, (2) per-line stock decrement,
// (3) customer balance adjustment for credit orders.
func (c *Coordinator) CreateOrder(ctx context.Context, input CreateOrderInput) (models.Order, error) {
	if len(input.Items) == 0 {
		return models.Order{}, ErrEmptyCart
	}
	if input.CustomerID == "" {
		return models.Order{}, ErrNoCustomer
	}
	customer, ok := c.cache.Customer(input.CustomerID)
	if !ok {
		return models.Order{}, fmt.Errorf("%w: %s", ErrUnknownCustomer, input.CustomerID)
	}
	if input.AmountPaid < 0 {
		return models.Order{}, ErrInvalidAmount
	}

	now := c.now()

	var (
		items    []models.OrderItem
		subtotal float64
	)
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return models.Order{}, fmt.Errorf("%w: quantity for %s", ErrInvalidAmount, line.ProductID)
		}
		product, ok := c.cache.Product(line.ProductID)
		if !ok {
			return models.Order{}, fmt.Errorf("%w: %s", ErrUnknownProduct, line.ProductID)
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.SellingPrice,
		})
		subtotal += float64(line.Quantity) * product.SellingPrice
	}

	subtotal = round2(subtotal)
	tax := round2(subtotal * TaxRate)
	total := round2(subtotal + tax)

	// The gate runs at confirmation time against the current cache: balances
	// may have moved since the cart was assembled.
	if input.PaymentType == models.PaymentCredit && !input.Override {
		if gateErr := c.checkCreditGate(customer, total, now); gateErr != nil {
			return models.Order{}, gateErr
		}
	}

	order := models.Order{
		ID:          c.newID(),
		CustomerID:  customer.ID,
		Date:        now,
		Items:       items,
		Subtotal:    subtotal,
		Tax:         tax,
		Total:       total,
		PaymentType: input.PaymentType,
		Status:      models.StatusPending,
		AmountPaid:  round2(input.AmountPaid),
	}
	if input.PaymentType == models.PaymentCredit {
		days := customer.CreditDays
		if days <= 0 {
			days = defaultCreditDays
		}
		order.DueDate = now.AddDate(0, 0, days)
	}

	// Step 1: the order document. Failing here is a total failure.
	if err := c.writer.Create(ctx, models.CollectionOrders, order); err != nil {
		return models.Order{}, fmt.Errorf("place order: %w", err)
	}

	// Steps 2..n: follow-up writes. Failures no longer undo the order.
	var steps []Step
	for _, item := range order.Items {
		steps = append(steps, Step{Kind: StepStock, ProductID: item.ProductID, Quantity: item.Quantity})
	}
	if order.PaymentType == models.PaymentCredit {
		steps = append(steps, Step{Kind: StepBalance})
	}

	if failed, cause := c.applySteps(ctx, order, steps); len(failed) > 0 {
		return order, &PartialFailureError{Op: "order", EntityID: order.ID, Steps: failed, Cause: cause}
	}

	c.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("customer_id", order.CustomerID),
		zap.Float64("total", order.Total),
		zap.String("payment_type", string(order.PaymentType)))
	return order, nil
}

// RetrySteps re-issues the follow-up writes of a partially failed order. The
// order must have reconciled back into the cache.
func (c *Coordinator) RetrySteps(ctx context.Context, orderID string, steps []Step) error {
	order, ok := c.cache.Order(orderID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}

	if failed, cause := c.applySteps(ctx, order, steps); len(failed) > 0 {
		return &PartialFailureError{Op: "order", EntityID: order.ID, Steps: failed, Cause: cause}
	}
	return nil
}

// applySteps issues follow-up writes sequentially, re-reading the cached
// value immediately before each delta. It attempts every step even after a
// failure so one bad write does not block the rest, and returns whatever
// failed together with the first cause.
func (c *Coordinator) applySteps(ctx context.Context, order models.Order, steps []Step) ([]Step, error) {
	var (
		failed []Step
		cause  error
	)

	record := func(step Step, err error) {
		c.logger.Warn("order follow-up write failed",
			zap.String("order_id", order.ID),
			zap.String("step", string(step.Kind)),
			zap.String("product_id", step.ProductID),
			zap.Error(err))
		failed = append(failed, step)
		if cause == nil {
			cause = err
		}
	}

	for _, step := range steps {
		switch step.Kind {
		case StepStock:
			product, ok := c.cache.Product(step.ProductID)
			if !ok {
				record(step, fmt.Errorf("%w: %s", ErrUnknownProduct, step.ProductID))
				continue
			}
			newStock := product.StockQuantity - step.Quantity
			if newStock < 0 {
				// Best-effort floor; the remote state is authoritative either way.
				c.logger.Warn("stock driven below zero, clamping",
					zap.String("product_id", product.ID), zap.Int("computed", newStock))
				newStock = 0
			}
			err := c.writer.Update(ctx, models.CollectionProducts, product.ID,
				map[string]any{"stock_quantity": newStock})
			if err != nil {
				record(step, err)
			}
		case StepBalance:
			customer, ok := c.cache.Customer(order.CustomerID)
			if !ok {
				record(step, fmt.Errorf("%w: %s", ErrUnknownCustomer, order.CustomerID))
				continue
			}
			newBalance := round2(customer.OutstandingBalance + order.Outstanding())
			err := c.writer.Update(ctx, models.CollectionCustomers, customer.ID,
				map[string]any{"outstanding_balance": newBalance})
			if err != nil {
				record(step, err)
			}
		default:
			record(step, fmt.Errorf("unknown step kind %q", step.Kind))
		}
	}

	return failed, cause
}

// checkCreditGate is the pure pre-write gate over cached data: block when the
// projected balance exceeds the credit limit or any order of the customer is
// already past due and unpaid.
func (c *Coordinator) checkCreditGate(customer models.Customer, orderTotal float64, now time.Time) error {
	overdue := 0
	for _, o := range c.cache.Orders() {
		if o.CustomerID == customer.ID && o.IsOverdue(now) {
			overdue++
		}
	}

	projected := round2(customer.OutstandingBalance + orderTotal)
	if overdue > 0 || projected > customer.CreditLimit {
		return &CreditGateError{
			Projected:     projected,
			CreditLimit:   customer.CreditLimit,
			OverdueOrders: overdue,
		}
	}
	return nil
}

// CollectPayment validates the amount, writes the reduced customer balance,
// then appends a payment record to the ledger. No inventory interaction.
func (c *Coordinator) CollectPayment(ctx context.Context, input CollectPaymentInput) (models.Payment, error) {
	if input.Amount <= 0 {
		return models.Payment{}, ErrInvalidAmount
	}
	if input.CustomerID == "" {
		return models.Payment{}, ErrNoCustomer
	}
	customer, ok := c.cache.Customer(input.CustomerID)
	if !ok {
		return models.Payment{}, fmt.Errorf("%w: %s", ErrUnknownCustomer, input.CustomerID)
	}

	newBalance := round2(customer.OutstandingBalance - input.Amount)
	if newBalance < 0 {
		newBalance = 0
	}
	if err := c.writer.Update(ctx, models.CollectionCustomers, customer.ID,
		map[string]any{"outstanding_balance": newBalance}); err != nil {
		return models.Payment{}, fmt.Errorf("reduce balance: %w", err)
	}

	payment := models.Payment{
		ID:         c.newID(),
		CustomerID: customer.ID,
		Amount:     round2(input.Amount),
		Date:       c.now(),
		Method:     input.Method,
		Notes:      input.Notes,
	}
	if err := c.writer.Create(ctx, models.CollectionPayments, payment); err != nil {
		return payment, &PartialFailureError{
			Op:       "payment",
			EntityID: payment.ID,
			Steps:    []Step{{Kind: StepLedger}},
			Cause:    err,
		}
	}

	c.logger.Info("payment collected",
		zap.String("customer_id", customer.ID), zap.Float64("amount", payment.Amount))
	return payment, nil
}

// AddProduct creates a catalog entry with a client-generated id.
func (c *Coordinator) AddProduct(ctx context.Context, product models.Product) (models.Product, error) {
	if product.Name == "" {
		return models.Product{}, fmt.Errorf("%w: product name required", ErrInvalidAmount)
	}
	if product.SellingPrice < 0 || product.CostPrice < 0 || product.StockQuantity < 0 {
		return models.Product{}, ErrInvalidAmount
	}
	switch product.Category {
	case models.CategoryBottle, models.CategorySpray, models.CategoryCap:
	default:
		return models.Product{}, fmt.Errorf("invalid product category %q", product.Category)
	}

	product.ID = c.newID()
	if err := c.writer.Create(ctx, models.CollectionProducts, product); err != nil {
		return models.Product{}, fmt.Errorf("add product: %w", err)
	}
	return product, nil
}

// UpdateProduct overwrites the editable fields of an existing product.
func (c *Coordinator) UpdateProduct(ctx context.Context, product models.Product) error {
	if _, ok := c.cache.Product(product.ID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, product.ID)
	}
	return c.writer.Update(ctx, models.CollectionProducts, product.ID, map[string]any{
		"name":           product.Name,
		"category":       product.Category,
		"size":           product.Size,
		"cost_price":     product.CostPrice,
		"selling_price":  product.SellingPrice,
		"stock_quantity": product.StockQuantity,
		"location":       product.Location,
	})
}

// AddCustomer creates a customer with a zero opening balance.
func (c *Coordinator) AddCustomer(ctx context.Context, customer models.Customer) (models.Customer, error) {
	if customer.Name == "" {
		return models.Customer{}, fmt.Errorf("%w: customer name required", ErrInvalidAmount)
	}
	if customer.CreditLimit < 0 || customer.CreditDays < 0 {
		return models.Customer{}, ErrInvalidAmount
	}

	customer.ID = c.newID()
	customer.OutstandingBalance = 0
	if err := c.writer.Create(ctx, models.CollectionCustomers, customer); err != nil {
		return models.Customer{}, fmt.Errorf("add customer: %w", err)
	}
	return customer, nil
}

// AddExpense records an operating expense.
func (c *Coordinator) AddExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	if expense.Amount <= 0 {
		return models.Expense{}, ErrInvalidAmount
	}
	switch expense.Category {
	case models.ExpenseTransport, models.ExpenseRent, models.ExpenseSalaries,
		models.ExpenseUtilities, models.ExpenseSupplies:
	case models.ExpenseOther:
		// free-text label rides along in OtherLabel
	default:
		return models.Expense{}, fmt.Errorf("invalid expense category %q", expense.Category)
	}

	expense.ID = c.newID()
	expense.Amount = round2(expense.Amount)
	if expense.Date.IsZero() {
		expense.Date = c.now()
	}
	if err := c.writer.Create(ctx, models.CollectionExpenses, expense); err != nil {
		return models.Expense{}, fmt.Errorf("add expense: %w", err)
	}
	return expense, nil
}

// UpdateSettings replaces the settings singleton.
func (c *Coordinator) UpdateSettings(ctx context.Context, settings models.Settings) error {
	settings.ID = models.SettingsID
	if err := c.writer.Upsert(ctx, models.CollectionSettings, models.SettingsID, settings); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

// UpdateOrderStatus moves an order through its lifecycle.
func (c *Coordinator) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	switch status {
	case models.StatusPending, models.StatusDelivered, models.StatusPaid, models.StatusOverdue:
	default:
		return fmt.Errorf("invalid order status %q", status)
	}
	if _, ok := c.cache.Order(orderID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}
	return c.writer.Update(ctx, models.CollectionOrders, orderID, map[string]any{"status": status})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
