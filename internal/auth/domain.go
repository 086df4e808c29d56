package auth

import "time"

// User represents an authenticated admin account.
type User struct {
	ID           int64
	Email        string
	Name         string
	Role         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenCookieName is the cookie the bearer token travels in. The same value
// is accepted via the Authorization header.
const TokenCookieName = "auth-token"
