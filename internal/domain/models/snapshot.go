package models

// Collection names the remote collections mirrored into the local cache.
type Collection string

const (
	CollectionSettings  Collection = "settings"
	CollectionProducts  Collection = "products"
	CollectionCustomers Collection = "customers"
	CollectionOrders    Collection = "orders"
	CollectionExpenses  Collection = "expenses"
	CollectionPayments  Collection = "payments"
)

// Collections lists every mirrored collection in subscription order.
func Collections() []Collection {
	return []Collection{
		CollectionSettings,
		CollectionProducts,
		CollectionCustomers,
		CollectionOrders,
		CollectionExpenses,
		CollectionPayments,
	}
}

// Snapshot is a full point-in-time replica of every mirrored collection.
// It is what the local store persists and what the cache serves from.
type Snapshot struct {
	Settings  Settings   `json:"settings"`
	Products  []Product  `json:"products"`
	Customers []Customer `json:"customers"`
	Orders    []Order    `json:"orders"`
	Expenses  []Expense  `json:"expenses"`
	Payments  []Payment  `json:"payments"`
}
