package models

// Customer is a trade client with an optional credit line.
type Customer struct {
	ID           string  `bson:"_id" json:"id"`
	Name         string  `bson:"name" json:"name"`
	BusinessName string  `bson:"business_name" json:"businessName"`
	Phone        string  `bson:"phone" json:"phone"`
	CreditLimit  float64 `bson:"credit_limit" json:"creditLimit"`
	CreditDays   int     `bson:"credit_days" json:"creditDays"`
	// OutstandingBalance is what ledger math implies the customer still owes.
	// It is adjusted only through remote-confirmed writes.
	OutstandingBalance float64 `bson:"outstanding_balance" json:"outstandingBalance"`
}
