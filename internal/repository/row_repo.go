package repository

import (
	"context"
	"errors"

	"github.com/timmy/qbexport/internal/domain"
	"gorm.io/gorm"
)

// RowRepository persists the single in-flight export row.
type RowRepository struct {
	db *gorm.DB
}

// NewRowRepository creates a new RowRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *RowRepository: repository instance bound to db.
func NewRowRepository(db *gorm.DB) *RowRepository {
	return &RowRepository{db: db}
}

// Current retrieves the row awaiting a QuickBooks reply.
// Returns (nil, nil) when nothing is in flight.
func (r *RowRepository) Current(ctx context.Context) (*domain.ExportRow, error) {
	var row domain.ExportRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", domain.ExportRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Put overwrites the in-flight row.
func (r *RowRepository) Put(ctx context.Context, row *domain.ExportRow) error {
	row.ID = domain.ExportRowID
	return r.db.WithContext(ctx).Save(row).Error
}

// Clear removes the in-flight row.
func (r *RowRepository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("id = ?", domain.ExportRowID).
		Delete(&domain.ExportRow{}).Error
}
