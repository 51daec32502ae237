package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/layer-3/simorgh/core"
	"github.com/layer-3/simorgh/ports"
)

// AuthService orchestrates the login, refresh, and logout flows over the OTP
// manager, tokenizer, revocation store, and the identity collaborator.
type AuthService struct {
	otp         *OTPManager
	tokenizer   ports.Tokenizer
	revocations ports.RevocationStore
	identity    ports.IdentityStore
	eventPub    ports.EventPublisher

	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	otp *OTPManager,
	tokenizer ports.Tokenizer,
	revocations ports.RevocationStore,
	identity ports.IdentityStore,
	eventPub ports.EventPublisher,
) *AuthService {
	return &AuthService{
		otp:         otp,
		tokenizer:   tokenizer,
		revocations: revocations,
		identity:    identity,
		eventPub:    eventPub,
		accessTTL:   15 * time.Minute,
		refreshTTL:  30 * 24 * time.Hour,
		now:         time.Now,
	}
}

// RequestLogin issues a one-time code for the phone. Nothing secret is
// returned to the caller; the code travels only through the dispatcher.
func (s *AuthService) RequestLogin(ctx context.Context, phone string) error {
	canonical, err := core.CanonicalPhone(phone)
	if err != nil {
		return err
	}
	return s.otp.Issue(ctx, canonical)
}

// CompleteLogin consumes the submitted code and, on success, resolves the
// user through the identity store and mints a fresh token pair. This is the
// only path that mints tokens for an unauthenticated caller.
func (s *AuthService) CompleteLogin(ctx context.Context, phone, code string) (access, refresh string, err error) {
	canonical, err := core.CanonicalPhone(phone)
	if err != nil {
		return "", "", err
	}

	if err := s.otp.VerifyAndConsume(ctx, canonical, code); err != nil {
		return "", "", err
	}

	userID, err := s.identity.ResolveOrCreate(ctx, canonical)
	if err != nil {
		return "", "", err
	}

	access, refresh, session, err := s.mintPair(userID, canonical)
	if err != nil {
		return "", "", err
	}

	if err := s.eventPub.PublishLogin(ctx, userID, canonical); err != nil {
		// The session is already minted; a lost event is not worth failing
		// the login over.
		log.Printf("warning: failed to publish login event for session %s: %v", session.ID, err)
	}

	return access, refresh, nil
}

// Refresh rotates a refresh token: the presented token's ID is revoked and a
// new pair is minted for the same user. The revocation is a single atomic
// set-if-absent, so of any concurrent refreshes presenting the same token
// exactly one wins; the rest observe ErrTokenRevoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (access, refresh string, err error) {
	session, err := s.tokenizer.RefreshTokenToSession(refreshToken)
	if err != nil {
		return "", "", err
	}

	if s.now().After(session.RefreshExpiry) {
		return "", "", core.ErrTokenExpired
	}

	remaining := session.RefreshExpiry.Sub(s.now())
	first, err := s.revocations.InvalidateTokenOnce(ctx, session.RefreshID, remaining)
	if err != nil {
		return "", "", err
	}
	if !first {
		return "", "", core.ErrTokenRevoked
	}

	access, refresh, _, err = s.mintPair(session.UserID, session.Phone)
	return access, refresh, err
}

// Logout revokes the refresh token's ID. Already-expired tokens are accepted
// and still revoked with a floor TTL, so slight clock skew between instances
// cannot resurrect them. Idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.tokenizer.RefreshTokenToSession(refreshToken)
	if err != nil {
		return err
	}

	ttl := session.RefreshExpiry.Sub(s.now())
	if ttl < time.Hour {
		ttl = time.Hour
	}

	if err := s.revocations.InvalidateToken(ctx, session.RefreshID, ttl); err != nil {
		return err
	}

	if err := s.eventPub.PublishLogout(ctx, session.UserID, session.RefreshID); err != nil {
		// The token is already revoked, which is the part that matters.
		log.Printf("warning: failed to publish logout event for token %s: %v", session.RefreshID, err)
	}

	return nil
}

// ValidateAccessToken verifies an access token and returns its session. A
// token whose parent refresh token was revoked is rejected even before its
// own expiry.
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessToken)
	if err != nil {
		return nil, err
	}

	if s.now().After(session.AccessExpiry) {
		return nil, core.ErrTokenExpired
	}

	if session.RefreshID != "" {
		revoked, err := s.revocations.IsTokenInvalidated(ctx, session.RefreshID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, core.ErrTokenRevoked
		}
	}

	return session, nil
}

// mintPair creates a fresh session and signs both tokens for it.
func (s *AuthService) mintPair(userID core.UserID, phone string) (access, refresh string, session *core.Session, err error) {
	now := s.now()
	session = &core.Session{
		ID:            uuid.New().String(),
		UserID:        userID,
		Phone:         phone,
		IssuedAt:      now,
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshExpiry: now.Add(s.refreshTTL),
		RefreshID:     uuid.New().String(),
	}

	access, err = s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return "", "", nil, err
	}
	refresh, err = s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return "", "", nil, err
	}
	return access, refresh, session, nil
}
