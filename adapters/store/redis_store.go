package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/layer-3/simorgh/core"
	"github.com/layer-3/simorgh/ports"
)

const (
	// recordGrace keeps an OTP key alive slightly past its logical expiry so
	// a late submission observes "expired" instead of "not found".
	recordGrace = time.Minute

	// defaultOpTimeout bounds every store round-trip; exceeding it surfaces
	// core.ErrStoreUnavailable rather than hanging the request.
	defaultOpTimeout = 2 * time.Second
)

// consumeScript deletes the record iff the stored hash matches. The compare
// and the delete run in one script so two racing submissions of the same
// valid code resolve to exactly one winner.
var consumeScript = redis.NewScript(`
local h = redis.call("HGET", KEYS[1], "hash")
if h == ARGV[1] then
  redis.call("DEL", KEYS[1])
  return 1
end
return 0
`)

// failScript burns one attempt and evicts the record when the budget hits
// zero. Returns -1 when there is no record.
var failScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
local left = redis.call("HINCRBY", KEYS[1], "attempts", -1)
if left <= 0 then
  redis.call("DEL", KEYS[1])
  return 0
end
return left
`)

// RedisOTPStore keeps pending codes in Redis hashes with a TTL.
type RedisOTPStore struct {
	client    *redis.Client
	prefix    string
	opTimeout time.Duration
}

// NewRedisOTPStore creates a Redis-backed OTP store.
func NewRedisOTPStore(client *redis.Client) ports.OTPStore {
	return &RedisOTPStore{
		client:    client,
		prefix:    "simorgh:otp:",
		opTimeout: defaultOpTimeout,
	}
}

func (s *RedisOTPStore) key(phone string) string {
	return s.prefix + phone
}

// PutCode stores a record, overwriting any prior one for the phone. The
// delete, write, and expire run in a transaction so a reader never sees a
// half-written record.
func (s *RedisOTPStore) PutCode(ctx context.Context, rec core.OTPRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	key := s.key(rec.Phone)
	ttl := time.Until(rec.ExpiresAt) + recordGrace

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"hash", hex.EncodeToString(rec.CodeHash),
		"expires_at", rec.ExpiresAt.UnixMilli(),
		"attempts", rec.AttemptsLeft,
		"issued_at", rec.IssuedAt.UnixMilli(),
	)
	pipe.PExpire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: put code: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// GetCode returns the pending record for the phone, or core.ErrCodeNotFound.
func (s *RedisOTPStore) GetCode(ctx context.Context, phone string) (*core.OTPRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	fields, err := s.client.HGetAll(ctx, s.key(phone)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: get code: %v", core.ErrStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, core.ErrCodeNotFound
	}

	hash, err := hex.DecodeString(fields["hash"])
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt record for %s", core.ErrStoreUnavailable, core.MaskPhone(phone))
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt record for %s", core.ErrStoreUnavailable, core.MaskPhone(phone))
	}
	issuedAt, _ := strconv.ParseInt(fields["issued_at"], 10, 64)
	attempts, _ := strconv.Atoi(fields["attempts"])

	return &core.OTPRecord{
		Phone:        phone,
		CodeHash:     hash,
		ExpiresAt:    time.UnixMilli(expiresAt),
		AttemptsLeft: attempts,
		IssuedAt:     time.UnixMilli(issuedAt),
	}, nil
}

// ConsumeCode atomically deletes the record iff the stored hash matches.
func (s *RedisOTPStore) ConsumeCode(ctx context.Context, phone string, codeHash []byte) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	res, err := consumeScript.Run(ctx, s.client, []string{s.key(phone)}, hex.EncodeToString(codeHash)).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: consume code: %v", core.ErrStoreUnavailable, err)
	}
	return res == 1, nil
}

// FailAttempt burns one attempt, evicting the record at zero.
func (s *RedisOTPStore) FailAttempt(ctx context.Context, phone string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	res, err := failScript.Run(ctx, s.client, []string{s.key(phone)}).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: fail attempt: %v", core.ErrStoreUnavailable, err)
	}
	if res < 0 {
		return 0, core.ErrCodeNotFound
	}
	return int(res), nil
}

// DeleteCode removes the record unconditionally.
func (s *RedisOTPStore) DeleteCode(ctx context.Context, phone string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, s.key(phone)).Err(); err != nil {
		return fmt.Errorf("%w: delete code: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// RedisRevocationStore keeps revoked refresh-token JTIs in Redis, each entry
// expiring with the token it blocks.
type RedisRevocationStore struct {
	client    *redis.Client
	prefix    string
	opTimeout time.Duration
}

// NewRedisRevocationStore creates a Redis-backed revocation store.
func NewRedisRevocationStore(client *redis.Client) ports.RevocationStore {
	return &RedisRevocationStore{
		client:    client,
		prefix:    "simorgh:revoked:",
		opTimeout: defaultOpTimeout,
	}
}

// InvalidateToken marks a token ID revoked. Revoking twice is a no-op.
func (s *RedisRevocationStore) InvalidateToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.client.Set(ctx, s.prefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: invalidate token: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// InvalidateTokenOnce revokes via SET NX, reporting whether this call won.
func (s *RedisRevocationStore) InvalidateTokenOnce(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	first, err := s.client.SetNX(ctx, s.prefix+tokenID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: invalidate token: %v", core.ErrStoreUnavailable, err)
	}
	return first, nil
}

// IsTokenInvalidated checks whether a token ID is on the denylist.
func (s *RedisRevocationStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	n, err := s.client.Exists(ctx, s.prefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("%w: check token: %v", core.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}
