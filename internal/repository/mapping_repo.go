package repository

import (
	"context"
	"errors"

	"github.com/timmy/qbexport/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MappingRepository handles source-to-QuickBooks identifier bookkeeping.
type MappingRepository struct {
	db *gorm.DB
}

// NewMappingRepository creates a new MappingRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *MappingRepository: repository instance bound to db.
func NewMappingRepository(db *gorm.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

// Save creates or overwrites the mapping for (migrationID, sourceKey).
// Re-exports land on the same row, keeping the bookkeeping idempotent.
func (r *MappingRepository) Save(ctx context.Context, migrationID, sourceKey, destinationID string, status domain.MappingStatus) error {
	m := domain.Mapping{
		MigrationID:   migrationID,
		SourceKey:     sourceKey,
		DestinationID: destinationID,
		Status:        status,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "migration_id"}, {Name: "source_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"destination_id", "status", "updated_at"}),
	}).Create(&m).Error
}

// Lookup retrieves the mapping for a single source row.
// Returns (nil, nil) when the row has not been exported yet.
func (r *MappingRepository) Lookup(ctx context.Context, migrationID, sourceKey string) (*domain.Mapping, error) {
	var m domain.Mapping
	err := r.db.WithContext(ctx).
		First(&m, "migration_id = ? AND source_key = ?", migrationID, sourceKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ProcessedCount counts every mapping row for a migration, whatever its
// status. A failed row still counts as processed for progress purposes.
func (r *MappingRepository) ProcessedCount(ctx context.Context, migrationID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&domain.Mapping{}).
		Where("migration_id = ?", migrationID).
		Count(&n).Error
	return n, err
}

// UpdateCount counts mapping rows queued for re-export.
func (r *MappingRepository) UpdateCount(ctx context.Context, migrationID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&domain.Mapping{}).
		Where("migration_id = ? AND status = ?", migrationID, domain.MappingStatusNeedsUpdate).
		Count(&n).Error
	return n, err
}

// MappedKeys returns every source key a migration has a mapping for.
func (r *MappingRepository) MappedKeys(ctx context.Context, migrationID string) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&domain.Mapping{}).
		Where("migration_id = ?", migrationID).
		Order("id").
		Pluck("source_key", &keys).Error
	return keys, err
}

// FirstNeedsUpdate returns the oldest mapping queued for re-export, or
// (nil, nil) when none is queued.
func (r *MappingRepository) FirstNeedsUpdate(ctx context.Context, migrationID string) (*domain.Mapping, error) {
	var m domain.Mapping
	err := r.db.WithContext(ctx).
		Where("migration_id = ? AND status = ?", migrationID, domain.MappingStatusNeedsUpdate).
		Order("id").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RequeueFailed flips failed mappings back to needs_update so the next
// Web Connector run retries them. Returns the number of rows flipped.
func (r *MappingRepository) RequeueFailed(ctx context.Context, migrationID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Mapping{}).
		Where("migration_id = ? AND status = ?", migrationID, domain.MappingStatusFailed).
		Update("status", domain.MappingStatusNeedsUpdate)
	return res.RowsAffected, res.Error
}

// SaveMessage records a diagnostic message QuickBooks returned for a row.
func (r *MappingRepository) SaveMessage(ctx context.Context, migrationID, sourceKey, message string) error {
	m := domain.MappingMessage{
		MigrationID: migrationID,
		SourceKey:   sourceKey,
		Message:     message,
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

// ListMessages returns recorded diagnostic messages, newest first.
func (r *MappingRepository) ListMessages(ctx context.Context, limit, offset int) ([]domain.MappingMessage, error) {
	var msgs []domain.MappingMessage
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	return msgs, err
}
