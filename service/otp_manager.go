package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/layer-3/simorgh/core"
	"github.com/layer-3/simorgh/ports"
)

// OTPConfig tunes code issuance. Zero values fall back to defaults.
type OTPConfig struct {
	CodeLength  int           // digits per code, default 6
	CodeTTL     time.Duration // validity window, default 5m
	MaxAttempts int           // failed verifies before eviction, default 3
}

func (c OTPConfig) withDefaults() OTPConfig {
	if c.CodeLength <= 0 {
		c.CodeLength = 6
	}
	if c.CodeTTL <= 0 {
		c.CodeTTL = 5 * time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	return c
}

// OTPManager issues, rate-limits, and verifies one-time codes. Phones are
// assumed canonical; AuthService canonicalizes before delegating here.
type OTPManager struct {
	store      ports.OTPStore
	limiter    ports.RateLimiter
	dispatcher ports.MessageDispatcher
	salt       string
	cfg        OTPConfig

	now func() time.Time
}

// NewOTPManager creates an OTP manager. salt is mixed into every stored code
// hash so a leaked store dump cannot be brute-forced offline per phone.
func NewOTPManager(
	store ports.OTPStore,
	limiter ports.RateLimiter,
	dispatcher ports.MessageDispatcher,
	salt string,
	cfg OTPConfig,
) *OTPManager {
	return &OTPManager{
		store:      store,
		limiter:    limiter,
		dispatcher: dispatcher,
		salt:       salt,
		cfg:        cfg.withDefaults(),
		now:        time.Now,
	}
}

// Issue generates a fresh code for the phone, stores its hash, and hands the
// plaintext to the dispatcher. A prior unconsumed code for the same phone is
// overwritten, which invalidates it. A dispatch failure is surfaced but the
// stored record is kept; the user may request a fresh code if delivery
// failed.
func (m *OTPManager) Issue(ctx context.Context, phone string) error {
	allowed, retryAfter, err := m.limiter.Allow(ctx, phone)
	if err != nil {
		return err
	}
	if !allowed {
		return &core.RateLimitedError{RetryAfter: retryAfter}
	}

	code, err := generateCode(m.cfg.CodeLength)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	now := m.now()
	rec := core.OTPRecord{
		Phone:        phone,
		CodeHash:     hashCode(phone, code, m.salt),
		ExpiresAt:    now.Add(m.cfg.CodeTTL),
		AttemptsLeft: m.cfg.MaxAttempts,
		IssuedAt:     now,
	}
	if err := m.store.PutCode(ctx, rec); err != nil {
		return err
	}

	return m.dispatcher.Send(ctx, phone, code)
}

// VerifyAndConsume checks a submitted code against the pending record and
// deletes it on match. The delete is atomic on the stored hash: of two
// concurrent submissions of the same valid code exactly one succeeds, the
// other observes ErrCodeNotFound.
func (m *OTPManager) VerifyAndConsume(ctx context.Context, phone, code string) error {
	if code == "" {
		return core.ErrCodeMismatch
	}

	rec, err := m.store.GetCode(ctx, phone)
	if err != nil {
		return err
	}

	if m.now().After(rec.ExpiresAt) {
		_ = m.store.DeleteCode(ctx, phone)
		return core.ErrCodeExpired
	}

	if subtle.ConstantTimeCompare(hashCode(phone, code, m.salt), rec.CodeHash) != 1 {
		remaining, err := m.store.FailAttempt(ctx, phone)
		if err != nil {
			if errors.Is(err, core.ErrCodeNotFound) {
				return core.ErrCodeNotFound
			}
			return err
		}
		if remaining <= 0 {
			return core.ErrTooManyAttempts
		}
		return core.ErrCodeMismatch
	}

	consumed, err := m.store.ConsumeCode(ctx, phone, rec.CodeHash)
	if err != nil {
		return err
	}
	if !consumed {
		// A concurrent verify or reissue got there first.
		return core.ErrCodeNotFound
	}
	return nil
}

const codeDigits = "0123456789"

// generateCode draws length digits from a cryptographically secure source.
func generateCode(length int) (string, error) {
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeDigits))))
		if err != nil {
			return "", err
		}
		buf[i] = codeDigits[n.Int64()]
	}
	return string(buf), nil
}

// hashCode returns SHA-256(phone:code:salt). Binding the phone into the hash
// stops a code issued for one number from verifying against another.
func hashCode(phone, code, salt string) []byte {
	sum := sha256.Sum256([]byte(phone + ":" + code + ":" + salt))
	return sum[:]
}
