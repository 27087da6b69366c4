package models

import "time"

// ExpenseCategory is a closed set of operating-cost buckets. CategoryOther
// carries a free-text label in Expense.OtherLabel.
type ExpenseCategory string

const (
	ExpenseTransport ExpenseCategory = "Transport"
	ExpenseRent      ExpenseCategory = "Rent"
	ExpenseSalaries  ExpenseCategory = "Salaries"
	ExpenseUtilities ExpenseCategory = "Utilities"
	ExpenseSupplies  ExpenseCategory = "Supplies"
	ExpenseOther     ExpenseCategory = "Other"
)

// Expense captures an operating expense entry.
type Expense struct {
	ID         string          `bson:"_id" json:"id"`
	Category   ExpenseCategory `bson:"category" json:"category"`
	OtherLabel string          `bson:"other_label,omitempty" json:"otherLabel,omitempty"`
	Amount     float64         `bson:"amount" json:"amount"`
	Date       time.Time       `bson:"date" json:"date"`
	Notes      string          `bson:"notes,omitempty" json:"notes,omitempty"`
}
