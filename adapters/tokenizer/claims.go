package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with access-specific ones
type AccessClaims struct {
	jwt.RegisteredClaims
	Phone     string `json:"phn,omitempty"` // canonical phone of the subject
	RefreshID string `json:"rid"`           // JTI of the paired refresh token
}

// RefreshClaims combines standard claims with the subject's phone
type RefreshClaims struct {
	jwt.RegisteredClaims
	Phone string `json:"phn,omitempty"`
}
