package domain

import "time"

// User is an account allowed to talk to the SOAP endpoint. PasswordHash is
// a bcrypt hash; AllowExport gates every non-public protocol call.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:text;not null;uniqueIndex:idx_users_username" json:"username"`
	PasswordHash string    `gorm:"type:text;not null" json:"-"`
	AllowExport  bool      `gorm:"default:false" json:"allow_export"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "qb_users"
}
