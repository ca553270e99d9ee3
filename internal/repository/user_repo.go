package repository

import (
	"context"
	"errors"

	"github.com/timmy/qbexport/internal/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserRepository handles export account lookups and credential checks.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *UserRepository: repository instance bound to db.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user with the password hashed via bcrypt.
func (r *UserRepository) Create(ctx context.Context, username, password string, allowExport bool) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := domain.User{
		Username:     username,
		PasswordHash: string(hash),
		AllowExport:  allowExport,
	}
	if err := r.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername retrieves a user by username.
// Returns (nil, nil) when no such user exists.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate checks a username/password pair against the stored bcrypt
// hash. Returns the user ID on success and 0 when the credentials do not
// match any account.
func (r *UserRepository) Authenticate(ctx context.Context, username, password string) (uint, error) {
	u, err := r.GetByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if u == nil {
		return 0, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return 0, nil
	}
	return u.ID, nil
}

// HasExportAccess reports whether the user may drive the export loop.
func (r *UserRepository) HasExportAccess(ctx context.Context, userID uint) (bool, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.AllowExport, nil
}
