package models

// ProductCategory enumerates the packaging lines the business distributes.
type ProductCategory string

const (
	CategoryBottle ProductCategory = "Bottle"
	CategorySpray  ProductCategory = "Spray"
	CategoryCap    ProductCategory = "Cap"
)

// Product is a catalog entry mirrored from the remote products collection.
type Product struct {
	ID            string          `bson:"_id" json:"id"`
	Name          string          `bson:"name" json:"name"`
	Category      ProductCategory `bson:"category" json:"category"`
	Size          string          `bson:"size" json:"size"`
	CostPrice     float64         `bson:"cost_price" json:"costPrice"`
	SellingPrice  float64         `bson:"selling_price" json:"sellingPrice"`
	StockQuantity int             `bson:"stock_quantity" json:"stockQuantity"`
	Location      string          `bson:"location,omitempty" json:"location,omitempty"`
}
