package http

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/simorgh/adapters/events"
	"github.com/layer-3/simorgh/adapters/identity"
	"github.com/layer-3/simorgh/adapters/ratelimit"
	"github.com/layer-3/simorgh/adapters/store"
	"github.com/layer-3/simorgh/adapters/tokenizer"
	"github.com/layer-3/simorgh/service"
)

type stubDispatcher struct {
	mu    sync.Mutex
	codes map[string]string
}

func (d *stubDispatcher) Send(ctx context.Context, phone, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.codes[phone] = code
	return nil
}

func (d *stubDispatcher) lastCode(phone string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.codes[phone]
}

func newTestRouter(t *testing.T, limit int) (*gin.Engine, *stubDispatcher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	dispatcher := &stubDispatcher{codes: make(map[string]string)}
	otpManager := service.NewOTPManager(
		store.NewMemoryOTPStore(),
		ratelimit.NewMemoryLimiter(limit, 10*time.Minute),
		dispatcher,
		"test-salt",
		service.OTPConfig{},
	)
	authService := service.NewAuthService(
		otpManager,
		tokenizer.NewJWTTokenizer("test-key", key, nil),
		store.NewMemoryRevocationStore(),
		identity.NewMemoryStore(),
		events.NewNoopPublisher(),
	)

	return SetupRouter(authService), dispatcher
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestLoginFlowOverHTTP(t *testing.T) {
	router, dispatcher := newTestRouter(t, 5)
	phone := "+994501234567"

	w := doJSON(t, router, http.MethodPost, "/auth/otp/request", gin.H{"phone": phone}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	code := dispatcher.lastCode(phone)
	require.NotEmpty(t, code)

	w = doJSON(t, router, http.MethodPost, "/auth/otp/verify", gin.H{"phone": phone, "code": code}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	access, _ := body["access_token"].(string)
	refresh, _ := body["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	// The access token opens the protected API.
	w = doJSON(t, router, http.MethodGet, "/api/me", nil, map[string]string{"Authorization": "Bearer " + access})
	require.Equal(t, http.StatusOK, w.Code)
	me := decodeBody(t, w)
	assert.Equal(t, phone, me["phone"])
	assert.NotEmpty(t, me["user_id"])

	// Rotation works once; the replay is rejected with a stable code.
	w = doJSON(t, router, http.MethodPost, "/auth/refresh", gin.H{"refresh_token": refresh}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/auth/refresh", gin.H{"refresh_token": refresh}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token_revoked", decodeBody(t, w)["error"])
}

func TestRequestCodeInvalidPhone(t *testing.T) {
	router, _ := newTestRouter(t, 5)

	w := doJSON(t, router, http.MethodPost, "/auth/otp/request", gin.H{"phone": "garbage"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_phone", decodeBody(t, w)["error"])
}

func TestRequestCodeRateLimited(t *testing.T) {
	router, _ := newTestRouter(t, 2)
	phone := "+994501234567"

	for i := 0; i < 2; i++ {
		w := doJSON(t, router, http.MethodPost, "/auth/otp/request", gin.H{"phone": phone}, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, router, http.MethodPost, "/auth/otp/request", gin.H{"phone": phone}, nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "rate_limited", body["error"])
	assert.Contains(t, body, "retry_after")
}

func TestVerifyWrongCode(t *testing.T) {
	router, dispatcher := newTestRouter(t, 5)
	phone := "+994501234567"

	w := doJSON(t, router, http.MethodPost, "/auth/otp/request", gin.H{"phone": phone}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	wrong := "000000"
	if dispatcher.lastCode(phone) == wrong {
		wrong = "000001"
	}

	w = doJSON(t, router, http.MethodPost, "/auth/otp/verify", gin.H{"phone": phone, "code": wrong}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "code_mismatch", body["error"])
	// Neither the expected code nor its hash may leak into the response.
	assert.NotContains(t, w.Body.String(), dispatcher.lastCode(phone))
}

func TestProtectedRouteRejectsBadTokens(t *testing.T) {
	router, _ := newTestRouter(t, 5)

	w := doJSON(t, router, http.MethodGet, "/api/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/me", nil, map[string]string{"Authorization": "Bearer not.a.token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_token", decodeBody(t, w)["error"])
}

func TestLogoutOverHTTP(t *testing.T) {
	router, dispatcher := newTestRouter(t, 5)
	phone := "+994501234567"

	w := doJSON(t, router, http.MethodPost, "/auth/otp/request", gin.H{"phone": phone}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodPost, "/auth/otp/verify", gin.H{"phone": phone, "code": dispatcher.lastCode(phone)}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	refresh := decodeBody(t, w)["refresh_token"].(string)

	w = doJSON(t, router, http.MethodPost, "/auth/logout", gin.H{"refresh_token": refresh}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/auth/refresh", gin.H{"refresh_token": refresh}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token_revoked", decodeBody(t, w)["error"])
}
