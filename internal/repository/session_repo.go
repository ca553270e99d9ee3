package repository

import (
	"context"
	"errors"

	"github.com/timmy/qbexport/internal/domain"
	"gorm.io/gorm"
)

// SessionRepository persists the single Web Connector session record.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new SessionRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *SessionRepository: repository instance bound to db.
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get retrieves the session record.
// Returns (nil, nil) when no session has been started.
func (r *SessionRepository) Get(ctx context.Context) (*domain.Session, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).First(&s, "id = ?", domain.SessionRecordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Start overwrites the session record with a fresh token for the given
// user. Any session already in progress is discarded.
func (r *SessionRepository) Start(ctx context.Context, userID uint, token, stage string) error {
	s := domain.Session{
		ID:     domain.SessionRecordID,
		UserID: userID,
		Token:  token,
		Stage:  stage,
	}
	return r.db.WithContext(ctx).Save(&s).Error
}

// UpdateStage records the protocol call that just passed validation.
func (r *SessionRepository) UpdateStage(ctx context.Context, stage string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ?", domain.SessionRecordID).
		Update("stage", stage).Error
}

// ClearStage blanks the stage, forcing the client back to authenticate.
func (r *SessionRepository) ClearStage(ctx context.Context) error {
	return r.UpdateStage(ctx, "")
}

// Delete removes the session record entirely.
func (r *SessionRepository) Delete(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("id = ?", domain.SessionRecordID).
		Delete(&domain.Session{}).Error
}
