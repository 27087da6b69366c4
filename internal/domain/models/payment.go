package models

import "time"

// Payment is a ledger entry recording money collected against a customer's
// outstanding balance.
type Payment struct {
	ID         string    `bson:"_id" json:"id"`
	CustomerID string    `bson:"customer_id" json:"customerId"`
	Amount     float64   `bson:"amount" json:"amount"`
	Date       time.Time `bson:"date" json:"date"`
	Method     string    `bson:"method,omitempty" json:"method,omitempty"`
	Notes      string    `bson:"notes,omitempty" json:"notes,omitempty"`
}
