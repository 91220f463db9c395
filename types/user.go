package types

import "time"

// User represents an account in the system.
// It contains identity, verification state, and audit metadata.
type User struct {
	// ID is the unique identifier of the user, assigned by the store.
	ID int `json:"id" db:"id"`

	// Email is the user's unique email address, fixed at registration.
	Email string `json:"email" db:"email"`

	// Nickname is the unique handle chosen by the user.
	Nickname string `json:"nickname" db:"nickname"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Verified reports whether the user has proven ownership of Email.
	// It starts false and never reverts once set.
	Verified bool `json:"verified" db:"verified"`

	// PendingCode is the outstanding verification code. It is present
	// exactly while the user is unverified and a code has been issued,
	// and is cleared when verification succeeds. Never exposed.
	PendingCode string `json:"-" db:"pending_code"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserSummary is the public projection of a User returned by search.
// Email is replaced with a placeholder for unverified users.
type UserSummary struct {
	ID       int    `json:"user_id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}
