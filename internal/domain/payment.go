package domain

import "time"

// PaymentState represents the storefront payment lifecycle state.
type PaymentState string

const (
	PaymentStatePending   PaymentState = "pending"
	PaymentStateCompleted PaymentState = "completed"
	PaymentStateRefunded  PaymentState = "refunded"
)

// Payment is a captured payment against an order. RemoteID is the gateway
// transaction reference; Amount is a decimal string rendered verbatim.
type Payment struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	OrderID      uint         `gorm:"not null;index:idx_payments_order" json:"order_id"`
	State        PaymentState `gorm:"type:text;index:idx_payments_state" json:"state"`
	RemoteID     string       `gorm:"type:text" json:"remote_id"`
	Amount       string       `gorm:"type:text" json:"amount"`
	GatewayLabel string       `gorm:"type:text" json:"gateway_label"`
	CompletedAt  time.Time    `json:"completed_at"`
	Order        *Order       `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName returns the database table name for Payment.
func (Payment) TableName() string {
	return "payments"
}
