package store

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/simorgh/core"
)

func testRecord(phone string, ttl time.Duration) core.OTPRecord {
	sum := sha256.Sum256([]byte("482913"))
	now := time.Now()
	return core.OTPRecord{
		Phone:        phone,
		CodeHash:     sum[:],
		ExpiresAt:    now.Add(ttl),
		AttemptsLeft: 3,
		IssuedAt:     now,
	}
}

func TestMemoryOTPStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryOTPStore()
	rec := testRecord("+994501234567", 5*time.Minute)

	require.NoError(t, s.PutCode(ctx, rec))

	got, err := s.GetCode(ctx, "+994501234567")
	require.NoError(t, err)
	assert.Equal(t, rec.CodeHash, got.CodeHash)
	assert.Equal(t, 3, got.AttemptsLeft)

	_, err = s.GetCode(ctx, "+994551234567")
	assert.ErrorIs(t, err, core.ErrCodeNotFound)
}

func TestMemoryOTPStorePutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryOTPStore()

	first := testRecord("+994501234567", 5*time.Minute)
	require.NoError(t, s.PutCode(ctx, first))

	second := testRecord("+994501234567", 5*time.Minute)
	newSum := sha256.Sum256([]byte("918273"))
	second.CodeHash = newSum[:]
	require.NoError(t, s.PutCode(ctx, second))

	// The old hash no longer consumes anything.
	consumed, err := s.ConsumeCode(ctx, "+994501234567", first.CodeHash)
	require.NoError(t, err)
	assert.False(t, consumed)

	consumed, err = s.ConsumeCode(ctx, "+994501234567", second.CodeHash)
	require.NoError(t, err)
	assert.True(t, consumed)
}

func TestMemoryOTPStoreConsumeIsFinal(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryOTPStore()
	rec := testRecord("+994501234567", 5*time.Minute)
	require.NoError(t, s.PutCode(ctx, rec))

	consumed, err := s.ConsumeCode(ctx, rec.Phone, rec.CodeHash)
	require.NoError(t, err)
	require.True(t, consumed)

	consumed, err = s.ConsumeCode(ctx, rec.Phone, rec.CodeHash)
	require.NoError(t, err)
	assert.False(t, consumed)

	_, err = s.GetCode(ctx, rec.Phone)
	assert.ErrorIs(t, err, core.ErrCodeNotFound)
}

func TestMemoryOTPStoreFailAttempt(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryOTPStore()
	rec := testRecord("+994501234567", 5*time.Minute)
	require.NoError(t, s.PutCode(ctx, rec))

	remaining, err := s.FailAttempt(ctx, rec.Phone)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	remaining, err = s.FailAttempt(ctx, rec.Phone)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	remaining, err = s.FailAttempt(ctx, rec.Phone)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	// At zero the record is evicted.
	_, err = s.FailAttempt(ctx, rec.Phone)
	assert.ErrorIs(t, err, core.ErrCodeNotFound)
	_, err = s.GetCode(ctx, rec.Phone)
	assert.ErrorIs(t, err, core.ErrCodeNotFound)
}

func TestMemoryOTPStoreLazyEviction(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryOTPStore()

	rec := testRecord("+994501234567", 5*time.Minute)
	// Past its TTL and past the grace window.
	rec.ExpiresAt = time.Now().Add(-2 * recordGrace)
	require.NoError(t, s.PutCode(ctx, rec))

	_, err := s.GetCode(ctx, rec.Phone)
	assert.ErrorIs(t, err, core.ErrCodeNotFound)
}

func TestMemoryRevocationStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRevocationStore()

	revoked, err := s.IsTokenInvalidated(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.InvalidateToken(ctx, "jti-1", time.Minute))

	revoked, err = s.IsTokenInvalidated(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Revoking twice is a no-op, not an error.
	require.NoError(t, s.InvalidateToken(ctx, "jti-1", time.Minute))
}

func TestMemoryRevocationStoreOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRevocationStore()

	first, err := s.InvalidateTokenOnce(ctx, "jti-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = s.InvalidateTokenOnce(ctx, "jti-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, first)
}

func TestMemoryRevocationStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRevocationStore()

	require.NoError(t, s.InvalidateToken(ctx, "jti-1", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	// The token it blocked is itself expired by now, so the entry is moot.
	revoked, err := s.IsTokenInvalidated(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	first, err := s.InvalidateTokenOnce(ctx, "jti-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)
}
