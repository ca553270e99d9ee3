package soap

import (
	"context"

	"github.com/google/uuid"
	"github.com/timmy/qbexport/internal/domain"
	"github.com/timmy/qbexport/internal/exporter"
	"github.com/timmy/qbexport/internal/repository"
)

// WorkQueue decides which row a migration exports next.
type WorkQueue interface {
	SourceCount(ctx context.Context, m *exporter.Migration) (int64, error)
	NextRow(ctx context.Context, m *exporter.Migration) (*domain.ExportRow, error)
}

// Queue selects work from the storefront tables, consulting the mapping
// bookkeeping to skip rows already exported. Unmapped rows go first; once
// every row is mapped, rows flagged needs_update are re-sent.
type Queue struct {
	commerce *repository.CommerceRepository
	mappings *repository.MappingRepository
}

// NewQueue creates a Queue over the given repositories.
func NewQueue(commerce *repository.CommerceRepository, mappings *repository.MappingRepository) *Queue {
	return &Queue{commerce: commerce, mappings: mappings}
}

// SourceCount returns the migration's total number of exportable rows.
func (q *Queue) SourceCount(ctx context.Context, m *exporter.Migration) (int64, error) {
	return q.commerce.Count(ctx, m.Kind)
}

// NextRow returns the migration's next work unit, or (nil, nil) when the
// migration has nothing left to send. A fresh row gets a locally generated
// destination identifier before the request ever leaves the server, so the
// mapping can be written even if QuickBooks never names the record.
func (q *Queue) NextRow(ctx context.Context, m *exporter.Migration) (*domain.ExportRow, error) {
	mapped, err := q.mappings.MappedKeys(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	key, err := q.commerce.FirstUnmappedKey(ctx, m.Kind, mapped)
	if err != nil {
		return nil, err
	}
	if key != "" {
		return &domain.ExportRow{
			MigrationID:   m.ID,
			Kind:          m.Kind,
			SourceKey:     key,
			DestinationID: uuid.New().String(),
		}, nil
	}

	pending, err := q.mappings.FirstNeedsUpdate(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, nil
	}
	return &domain.ExportRow{
		MigrationID:   m.ID,
		Kind:          m.Kind,
		SourceKey:     pending.SourceKey,
		DestinationID: pending.DestinationID,
		Requeued:      true,
	}, nil
}
