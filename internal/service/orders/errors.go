package orders

import (
	"errors"
	"fmt"
)

// Validation errors are raised before any remote write is attempted.
var (
	// ErrEmptyCart indicates an order with no line items.
	ErrEmptyCart = errors.New("order has no line items")
	// ErrNoCustomer indicates no customer was selected.
	ErrNoCustomer = errors.New("no customer selected")
	// ErrInvalidAmount indicates a non-positive amount or quantity.
	ErrInvalidAmount = errors.New("amount must be a positive number")
	// ErrUnknownProduct indicates a line item referencing a product that is
	// not in the cache.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrUnknownCustomer indicates a customer id that is not in the cache.
	ErrUnknownCustomer = errors.New("unknown customer")
	// ErrUnknownOrder indicates an order id that is not in the cache.
	ErrUnknownOrder = errors.New("unknown order")
)

// CreditGateError blocks a credit order that fails the pre-write gate. It is
// re-evaluated against the current cache at confirmation time; an explicit
// override from an authorized caller bypasses it.
type CreditGateError struct {
	Projected     float64
	CreditLimit   float64
	OverdueOrders int
}

func (e *CreditGateError) Error() string {
	if e.OverdueOrders > 0 {
		return fmt.Sprintf("credit blocked: customer has %d overdue order(s)", e.OverdueOrders)
	}
	return fmt.Sprintf("credit blocked: projected balance %.2f exceeds limit %.2f", e.Projected, e.CreditLimit)
}

// StepKind identifies one follow-up write in a multi-step sequence.
type StepKind string

const (
	StepStock   StepKind = "stock"
	StepBalance StepKind = "balance"
	StepLedger  StepKind = "ledger"
)

// Step describes a follow-up write that can be retried independently.
type Step struct {
	Kind      StepKind `json:"kind"`
	ProductID string   `json:"productId,omitempty"`
	Quantity  int      `json:"quantity,omitempty"`
}

// PartialFailureError reports a multi-step write whose primary document was
// recorded remotely but whose follow-up writes failed, leaving stock or
// balances inconsistent. It is deliberately distinct from a total failure:
// the caller sees exactly which steps remain and can retry them.
type PartialFailureError struct {
	Op       string
	EntityID string
	Steps    []Step
	Cause    error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s %s: recorded but %d follow-up write(s) failed: %v", e.Op, e.EntityID, len(e.Steps), e.Cause)
}

func (e *PartialFailureError) Unwrap() error { return e.Cause }
