package core

import "time"

// UserID is the opaque identifier the Identity Store assigns to a user.
type UserID string

// OTPRecord is the pending one-time code for a phone number. Only the
// salted hash of the code is ever stored; the plaintext exists solely on
// the dispatch path. At most one record is live per canonical phone at a
// time, a new issuance overwrites the prior one.
type OTPRecord struct {
	Phone        string    // canonical phone number, the store key
	CodeHash     []byte    // SHA-256(phone:code:salt)
	ExpiresAt    time.Time // hard validity bound, checked on every verify
	AttemptsLeft int       // failed verifies remaining before eviction
	IssuedAt     time.Time
}

// Session represents an authenticated user session carried by a token pair.
type Session struct {
	ID            string    // unique session identifier
	UserID        UserID    // subject resolved by the Identity Store
	Phone         string    // canonical phone the session was minted for
	IssuedAt      time.Time // when the session was created
	AccessExpiry  time.Time // when the access capability expires
	RefreshExpiry time.Time // when the refresh capability expires
	RefreshID     string    // JTI of the refresh token, revocation key
}
