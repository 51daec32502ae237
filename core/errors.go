package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	// OTP errors.
	ErrCodeNotFound    = errors.New("no pending code for this phone")
	ErrCodeExpired     = errors.New("code has expired")
	ErrCodeMismatch    = errors.New("code does not match")
	ErrTooManyAttempts = errors.New("too many failed attempts")
	ErrRateLimited     = errors.New("too many code requests")

	// Token errors.
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenRevoked     = errors.New("token has been revoked")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrWrongTokenType   = errors.New("wrong token type")

	// Input errors.
	ErrInvalidPhone = errors.New("invalid phone number")

	// Collaborator errors. Never downgraded to an allow outcome.
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrIdentityUnavailable = errors.New("identity store unavailable")
	ErrDispatchFailed      = errors.New("code dispatch failed")
)

// RateLimitedError carries the time until the issuance window resets.
// It matches ErrRateLimited under errors.Is.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many code requests, retry in %s", e.RetryAfter)
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
