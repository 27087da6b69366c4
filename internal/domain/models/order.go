package models

import "time"

// PaymentType distinguishes settled sales from deferred-credit sales.
type PaymentType string

const (
	PaymentCash   PaymentType = "Cash"
	PaymentCredit PaymentType = "Credit"
)

// OrderStatus tracks an order through delivery and settlement.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusDelivered OrderStatus = "Delivered"
	StatusPaid      OrderStatus = "Paid"
	StatusOverdue   OrderStatus = "Overdue"
)

// OrderItem is a point-in-time copy of the ordered product. Name and price
// are snapshotted at order creation and never recomputed from the catalog.
type OrderItem struct {
	ProductID string  `bson:"product_id" json:"productId"`
	Name      string  `bson:"name" json:"name"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	UnitPrice float64 `bson:"unit_price" json:"unitPrice"`
}

// Order is a point-of-sale transaction.
type Order struct {
	ID          string      `bson:"_id" json:"id"`
	CustomerID  string      `bson:"customer_id" json:"customerId"`
	Date        time.Time   `bson:"date" json:"date"`
	Items       []OrderItem `bson:"items" json:"items"`
	Subtotal    float64     `bson:"subtotal" json:"subtotal"`
	Tax         float64     `bson:"tax" json:"tax"`
	Total       float64     `bson:"total" json:"total"`
	PaymentType PaymentType `bson:"payment_type" json:"paymentType"`
	Status      OrderStatus `bson:"status" json:"status"`
	DueDate     time.Time   `bson:"due_date" json:"dueDate"`
	AmountPaid  float64     `bson:"amount_paid" json:"amountPaid"`
}

// Outstanding returns what remains unsettled on the order.
func (o Order) Outstanding() float64 {
	return o.Total - o.AmountPaid
}

// IsOverdue reports whether the order is past due and still unsettled.
func (o Order) IsOverdue(now time.Time) bool {
	return o.Status != StatusPaid && !o.DueDate.IsZero() && o.DueDate.Before(now)
}
