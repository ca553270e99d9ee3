package domain

import "time"

// MappingStatus represents the outcome recorded for an exported row.
// Values include MappingStatusImported, MappingStatusNeedsUpdate, and
// MappingStatusFailed.
type MappingStatus string

const (
	MappingStatusImported    MappingStatus = "imported"
	MappingStatusNeedsUpdate MappingStatus = "needs_update"
	MappingStatusFailed      MappingStatus = "failed"
)

// Mapping links a source record to the identifier QuickBooks knows it by.
// One row per (migration, source key); re-exports overwrite in place so the
// bookkeeping stays idempotent.
type Mapping struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	MigrationID   string        `gorm:"type:text;not null;index:idx_mappings_source,unique" json:"migration_id"`
	SourceKey     string        `gorm:"type:text;not null;index:idx_mappings_source,unique" json:"source_key"`
	DestinationID string        `gorm:"type:text" json:"destination_id"`
	Status        MappingStatus `gorm:"type:text;index:idx_mappings_status" json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// TableName returns the database table name for Mapping.
func (Mapping) TableName() string {
	return "qb_mappings"
}

// MappingMessage is a diagnostic message QuickBooks returned for a row.
// Messages accumulate; they are never required for the export to progress.
type MappingMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	MigrationID string    `gorm:"type:text;not null;index:idx_mapping_messages_source" json:"migration_id"`
	SourceKey   string    `gorm:"type:text;not null;index:idx_mapping_messages_source" json:"source_key"`
	Message     string    `gorm:"type:text" json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for MappingMessage.
func (MappingMessage) TableName() string {
	return "qb_mapping_messages"
}
