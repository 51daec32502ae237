package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/layer-3/simorgh/core"
	"github.com/layer-3/simorgh/ports"
)

// HTTPClient resolves users against the identity service's internal API.
// The identity service owns the durable user records; this client only ever
// exchanges a canonical phone for an opaque user ID, creating the user on
// first login.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates an identity client. token authenticates this service
// to the identity service's internal endpoints.
func NewHTTPClient(baseURL, token string) ports.IdentityStore {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type resolveRequest struct {
	Phone string `json:"phone"`
}

type resolveResponse struct {
	UserID string `json:"user_id"`
}

// ResolveOrCreate returns the user ID for a canonical phone, creating the
// user if this is its first successful login.
func (c *HTTPClient) ResolveOrCreate(ctx context.Context, phone string) (core.UserID, error) {
	body, err := json.Marshal(resolveRequest{Phone: phone})
	if err != nil {
		return "", fmt.Errorf("marshal resolve request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/users/resolve", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build resolve request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrIdentityUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", core.ErrIdentityUnavailable, resp.StatusCode)
	}

	var out resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", core.ErrIdentityUnavailable, err)
	}
	if out.UserID == "" {
		return "", fmt.Errorf("%w: empty user id", core.ErrIdentityUnavailable)
	}
	return core.UserID(out.UserID), nil
}
