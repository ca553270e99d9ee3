package domain

import "time"

// Product is a storefront product. It becomes the parent inventory item in
// QuickBooks; its variations hang underneath it.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"type:text;not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string {
	return "products"
}

// ProductVariation is a sellable SKU of a product. Price is a decimal
// string and is rendered into qbXML verbatim.
type ProductVariation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index:idx_variations_product" json:"product_id"`
	SKU       string    `gorm:"column:sku;type:text;not null" json:"sku"`
	Title     string    `gorm:"type:text" json:"title"`
	Price     string    `gorm:"type:text" json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for ProductVariation.
func (ProductVariation) TableName() string {
	return "product_variations"
}
