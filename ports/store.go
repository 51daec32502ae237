package ports

import (
	"context"
	"time"

	"github.com/layer-3/simorgh/core"
)

// OTPStore holds pending one-time codes keyed by canonical phone number.
// Implementations must make ConsumeCode and FailAttempt atomic with respect
// to concurrent calls for the same phone; the verify-then-consume race is
// closed here, not in the caller.
type OTPStore interface {
	// PutCode stores a record, overwriting any prior record for the phone.
	PutCode(ctx context.Context, rec core.OTPRecord) error

	// GetCode returns the pending record, or core.ErrCodeNotFound.
	GetCode(ctx context.Context, phone string) (*core.OTPRecord, error)

	// ConsumeCode deletes the record iff its stored hash equals codeHash.
	// Returns false when the record is gone or the hash changed, meaning a
	// concurrent consume or reissue won.
	ConsumeCode(ctx context.Context, phone string, codeHash []byte) (bool, error)

	// FailAttempt decrements the attempt budget and returns the remainder.
	// The record is evicted when the budget reaches zero. Returns
	// core.ErrCodeNotFound if there is no record.
	FailAttempt(ctx context.Context, phone string) (int, error)

	// DeleteCode removes the record unconditionally.
	DeleteCode(ctx context.Context, phone string) error
}

// RevocationStore is the shared denylist of refresh-token JTIs. Entries are
// kept only until the token's own expiry, after which the signer rejects the
// token on expiry grounds alone.
type RevocationStore interface {
	// InvalidateToken marks a token ID revoked for ttl. Idempotent.
	InvalidateToken(ctx context.Context, tokenID string, ttl time.Duration) error

	// InvalidateTokenOnce marks a token ID revoked and reports whether this
	// call was the first to do so. Used for refresh rotation, where exactly
	// one of several concurrent presenters of the same token may win.
	InvalidateTokenOnce(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)

	// IsTokenInvalidated checks membership.
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}
