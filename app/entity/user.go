package entity

import "time"

type User struct {
	ID           uint64
	Email        string
	Username     string
	PasswordHash string
	IsActive     bool
	IsConfirmed  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthCode is a one-time numeric login code. At most one live code exists
// per user, enforced by a unique constraint on user_id.
type AuthCode struct {
	ID        uint64
	UserID    uint64
	Code      int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ConfirmCode is a one-time opaque code proving email ownership for
// account activation.
type ConfirmCode struct {
	ID        uint64
	UserID    uint64
	Code      string
	CreatedAt time.Time
}
