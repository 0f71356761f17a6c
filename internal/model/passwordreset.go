package model

import "time"

// PasswordResetGrant is a one-time, time-limited permission to change a
// password without the old one. A grant is redeemable only while Used is
// false and ExpiresAt is in the future.
type PasswordResetGrant struct {
	ID        int64
	Email     string
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
