package domain

import "time"

// EntityKind identifies which storefront entity a migration exports.
// The kind decides which QuickBooks identifier element a reply is scanned
// for: list entities carry ListID, transactions carry TxnID.
type EntityKind string

const (
	EntityKindCustomer         EntityKind = "customer"
	EntityKindProduct          EntityKind = "product"
	EntityKindProductVariation EntityKind = "product_variation"
	EntityKindOrder            EntityKind = "order"
	EntityKindPayment          EntityKind = "payment"
)

// ExportRowID is the primary key of the single in-flight row record.
const ExportRowID = 1

// ExportRow is the work unit currently out with QuickBooks. It is written
// by sendRequestXML and read back by receiveResponseXML, so the identifier
// assigned before the remote call survives the round trip.
type ExportRow struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	MigrationID   string     `gorm:"type:text;not null" json:"migration_id"`
	Kind          EntityKind `gorm:"type:text;not null" json:"kind"`
	SourceKey     string     `gorm:"type:text;not null" json:"source_key"`
	DestinationID string     `gorm:"type:text" json:"destination_id"`
	Requeued      bool       `gorm:"default:false" json:"requeued"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName returns the database table name for ExportRow.
func (ExportRow) TableName() string {
	return "qb_export_rows"
}
