package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/simorgh/core"
)

// errorResponse maps a service error to a status and a stable machine code
// with a generic message. Internal details, raw codes, and hashes never
// reach the response body.
func errorResponse(err error) (int, gin.H) {
	var rateLimited *core.RateLimitedError
	if errors.As(err, &rateLimited) {
		return http.StatusTooManyRequests, gin.H{
			"error":       "rate_limited",
			"message":     "Too many code requests",
			"retry_after": int(rateLimited.RetryAfter.Seconds()),
		}
	}

	switch {
	case errors.Is(err, core.ErrInvalidPhone):
		return http.StatusBadRequest, gin.H{"error": "invalid_phone", "message": "Phone number is not valid"}
	case errors.Is(err, core.ErrCodeNotFound):
		return http.StatusBadRequest, gin.H{"error": "code_not_found", "message": "No pending code for this phone"}
	case errors.Is(err, core.ErrCodeExpired):
		return http.StatusBadRequest, gin.H{"error": "code_expired", "message": "Code has expired"}
	case errors.Is(err, core.ErrCodeMismatch):
		return http.StatusBadRequest, gin.H{"error": "code_mismatch", "message": "Code is not correct"}
	case errors.Is(err, core.ErrTooManyAttempts):
		return http.StatusBadRequest, gin.H{"error": "too_many_attempts", "message": "Too many failed attempts"}
	case errors.Is(err, core.ErrTokenExpired):
		return http.StatusUnauthorized, gin.H{"error": "token_expired", "message": "Token has expired"}
	case errors.Is(err, core.ErrTokenRevoked):
		return http.StatusUnauthorized, gin.H{"error": "token_revoked", "message": "Token has been revoked"}
	case errors.Is(err, core.ErrInvalidSignature),
		errors.Is(err, core.ErrWrongTokenType),
		errors.Is(err, core.ErrInvalidToken):
		return http.StatusUnauthorized, gin.H{"error": "invalid_token", "message": "Token is not valid"}
	case errors.Is(err, core.ErrDispatchFailed):
		return http.StatusBadGateway, gin.H{"error": "dispatch_failed", "message": "Could not deliver the code"}
	case errors.Is(err, core.ErrStoreUnavailable),
		errors.Is(err, core.ErrIdentityUnavailable):
		return http.StatusServiceUnavailable, gin.H{"error": "service_unavailable", "message": "Service temporarily unavailable"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Something went wrong"}
	}
}
