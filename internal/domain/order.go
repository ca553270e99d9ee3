package domain

import "time"

// OrderState represents the storefront order lifecycle state. Only
// completed orders are eligible for export.
type OrderState string

const (
	OrderStateDraft     OrderState = "draft"
	OrderStateCompleted OrderState = "completed"
	OrderStateCanceled  OrderState = "canceled"
)

// AdjustmentType classifies an order adjustment line.
type AdjustmentType string

const (
	AdjustmentTypeTax       AdjustmentType = "tax"
	AdjustmentTypeShipping  AdjustmentType = "shipping"
	AdjustmentTypePromotion AdjustmentType = "promotion"
)

// Order is a storefront order. Monetary fields are decimal strings and are
// rendered into qbXML verbatim.
type Order struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	State             OrderState        `gorm:"type:text;index:idx_orders_state" json:"state"`
	BillingProfileID  uint              `gorm:"not null" json:"billing_profile_id"`
	ShippingProfileID *uint             `json:"shipping_profile_id,omitempty"`
	PaymentGateway    string            `gorm:"type:text" json:"payment_gateway"`
	ShipMethod        string            `gorm:"type:text" json:"ship_method"`
	CompletedAt       time.Time         `json:"completed_at"`
	Items             []OrderItem       `gorm:"foreignKey:OrderID" json:"items"`
	Adjustments       []OrderAdjustment `gorm:"foreignKey:OrderID" json:"adjustments"`
	BillingProfile    *CustomerProfile  `gorm:"foreignKey:BillingProfileID" json:"billing_profile,omitempty"`
	ShippingProfile   *CustomerProfile  `gorm:"foreignKey:ShippingProfileID" json:"shipping_profile,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a purchased line on an order. VariationID may be nil for
// ad-hoc lines that never map to an inventory item.
type OrderItem struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderID     uint   `gorm:"not null;index:idx_order_items_order" json:"order_id"`
	VariationID *uint  `json:"variation_id,omitempty"`
	Title       string `gorm:"type:text" json:"title"`
	Quantity    string `gorm:"type:text" json:"quantity"`
	UnitPrice   string `gorm:"type:text" json:"unit_price"`
}

// TableName returns the database table name for OrderItem.
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderAdjustment is a tax, shipping, or promotion line on an order.
type OrderAdjustment struct {
	ID      uint           `gorm:"primaryKey" json:"id"`
	OrderID uint           `gorm:"not null;index:idx_order_adjustments_order" json:"order_id"`
	Type    AdjustmentType `gorm:"type:text" json:"type"`
	Label   string         `gorm:"type:text" json:"label"`
	Amount  string         `gorm:"type:text" json:"amount"`
}

// TableName returns the database table name for OrderAdjustment.
func (OrderAdjustment) TableName() string {
	return "order_adjustments"
}
