package tokenizer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/layer-3/simorgh/core"
	"github.com/layer-3/simorgh/ports"
)

const AudienceAccess = "auth:access"
const AudienceRefresh = "auth:refresh"

// JWTTokenizer implements the Tokenizer interface using ES256 JWTs. Every
// token carries a kid header; verification resolves the key from a keyring
// so the signing key can rotate without invalidating live sessions.
type JWTTokenizer struct {
	keyID   string
	signKey *ecdsa.PrivateKey
	keyring map[string]*ecdsa.PublicKey
}

// NewJWTTokenizer creates a tokenizer signing with signKey under keyID.
// retired maps key IDs of previous signing keys to their public keys; their
// tokens stay verifiable until natural expiry.
func NewJWTTokenizer(keyID string, signKey *ecdsa.PrivateKey, retired map[string]*ecdsa.PublicKey) ports.Tokenizer {
	keyring := make(map[string]*ecdsa.PublicKey, len(retired)+1)
	for kid, pub := range retired {
		keyring[kid] = pub
	}
	keyring[keyID] = &signKey.PublicKey

	return &JWTTokenizer{
		keyID:   keyID,
		signKey: signKey,
		keyring: keyring,
	}
}

// SessionToAccessToken converts a Session to an access JWT
func (j *JWTTokenizer) SessionToAccessToken(session *core.Session) (string, error) {
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(session.UserID),
			ID:        session.ID,
			ExpiresAt: jwt.NewNumericDate(session.AccessExpiry),
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceAccess},
		},
		Phone:     session.Phone,
		RefreshID: session.RefreshID,
	}
	return j.sign(claims)
}

// SessionToRefreshToken converts a Session to a refresh JWT
func (j *JWTTokenizer) SessionToRefreshToken(session *core.Session) (string, error) {
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(session.UserID),
			ID:        session.RefreshID, // the JWT ID is the revocation key
			ExpiresAt: jwt.NewNumericDate(session.RefreshExpiry),
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceRefresh},
		},
		Phone: session.Phone,
	}
	return j.sign(claims)
}

// AccessTokenToSession parses an access token and returns the session it
// carries. Signature and audience are verified here; expiry and revocation
// are the caller's concern.
func (j *JWTTokenizer) AccessTokenToSession(tokenStr string) (*core.Session, error) {
	claims := &AccessClaims{}
	if err := j.parse(tokenStr, claims, AudienceAccess); err != nil {
		return nil, err
	}

	return &core.Session{
		ID:           claims.ID,
		UserID:       core.UserID(claims.Subject),
		Phone:        claims.Phone,
		IssuedAt:     claims.IssuedAt.Time,
		AccessExpiry: claims.ExpiresAt.Time,
		RefreshID:    claims.RefreshID,
	}, nil
}

// RefreshTokenToSession parses a refresh token and returns the session it
// carries. The AccessExpiry is zeroed; it is not used on the refresh path.
func (j *JWTTokenizer) RefreshTokenToSession(tokenStr string) (*core.Session, error) {
	claims := &RefreshClaims{}
	if err := j.parse(tokenStr, claims, AudienceRefresh); err != nil {
		return nil, err
	}

	return &core.Session{
		UserID:        core.UserID(claims.Subject),
		Phone:         claims.Phone,
		IssuedAt:      claims.IssuedAt.Time,
		RefreshExpiry: claims.ExpiresAt.Time,
		RefreshID:     claims.ID,
	}, nil
}

func (j *JWTTokenizer) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = j.keyID

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signedToken, nil
}

// parse validates signature, structure, and audience. Expiry is deliberately
// not validated here: the service layer checks it against the session so
// that logout can tolerate already-expired tokens.
func (j *JWTTokenizer) parse(tokenStr string, claims jwt.Claims, audience string) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, j.keyFunc, jwt.WithoutClaimsValidation())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return core.ErrInvalidSignature
		default:
			return core.ErrInvalidToken
		}
	}
	if !token.Valid {
		return core.ErrInvalidToken
	}

	aud, err := claims.GetAudience()
	if err != nil {
		return core.ErrInvalidToken
	}
	if len(aud) == 0 || aud[0] != audience {
		return core.ErrWrongTokenType
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return core.ErrInvalidToken
	}
	return nil
}

// keyFunc resolves the verification key from the kid header.
func (j *JWTTokenizer) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	kid, _ := token.Header["kid"].(string)
	pub, ok := j.keyring[kid]
	if !ok {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return pub, nil
}
