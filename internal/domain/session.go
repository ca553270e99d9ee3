package domain

import "time"

// SessionRecordID is the primary key of the single protocol session row.
// The Web Connector runs one update at a time, so the adapter keeps exactly
// one session record and overwrites it on each authenticate.
const SessionRecordID = 1

// Session is the persisted Web Connector session. Stage holds the name of
// the last protocol call that passed validation; an empty stage forces the
// client back to authenticate.
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Token     string    `gorm:"type:text;not null" json:"token"`
	Stage     string    `gorm:"type:text" json:"stage"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string {
	return "qb_sessions"
}
