package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/models"
	"shareit/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upstream записывает, что именно долетело до ядра.
type upstream struct {
	mu       sync.Mutex
	requests []recordedRequest
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	UserID string
	Body   string
}

func (u *upstream) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.requests = append(u.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			UserID: r.Header.Get(models.UserIDHeader),
			Body:   string(body),
		})
		u.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":1}`))
	})
}

func (u *upstream) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.requests)
}

func (u *upstream) last() recordedRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.requests) == 0 {
		return recordedRequest{}
	}
	return u.requests[len(u.requests)-1]
}

func newTestGateway(t *testing.T, rl config.RateLimitConfig) (*Server, *upstream) {
	t.Helper()

	up := &upstream{}
	backend := httptest.NewServer(up.handler())
	t.Cleanup(backend.Close)

	logger := zerolog.Nop()
	cfg := config.GatewayConfig{
		Port:      0,
		ServerURL: backend.URL,
		RateLimit: rl,
	}
	srv := NewServer(cfg, NewClient(backend.URL), repository.NewMemoryCacheRepository(), &logger)
	return srv, up
}

func doGatewayRequest(t *testing.T, srv *Server, method, path string, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if userID > 0 {
		req.Header.Set(models.UserIDHeader, fmt.Sprintf("%d", userID))
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func gatewayError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload["error"]
}

func TestGatewayHealth(t *testing.T) {
	srv, up := newTestGateway(t, config.RateLimitConfig{})

	rec := doGatewayRequest(t, srv, http.MethodGet, "/health", 0, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Zero(t, up.count())
}

func TestGatewayForwardsValidRequests(t *testing.T) {
	srv, up := newTestGateway(t, config.RateLimitConfig{})

	body := `{"name":"Ivan","email":"ivan@example.com"}`
	rec := doGatewayRequest(t, srv, http.MethodPost, "/users", 0, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1}`, rec.Body.String())

	got := up.last()
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/users", got.Path)
	assert.JSONEq(t, body, got.Body)
}

func TestGatewayForwardsUserHeaderAndQuery(t *testing.T) {
	srv, up := newTestGateway(t, config.RateLimitConfig{})

	rec := doGatewayRequest(t, srv, http.MethodGet, "/bookings?state=FUTURE&from=0&size=5", 7, "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := up.last()
	assert.Equal(t, "/bookings", got.Path)
	assert.Equal(t, "state=FUTURE&from=0&size=5", got.Query)
	assert.Equal(t, "7", got.UserID)
}

func TestGatewayValidationRejects(t *testing.T) {
	srv, up := newTestGateway(t, config.RateLimitConfig{})

	futureStart := time.Now().Add(time.Hour).Format(time.RFC3339)
	futureEnd := time.Now().Add(2 * time.Hour).Format(time.RFC3339)

	tests := []struct {
		name    string
		method  string
		path    string
		userID  int64
		body    string
		wantMsg string
	}{
		{"user blank name", http.MethodPost, "/users", 0, `{"name":"","email":"a@b.c"}`, "name must not be blank"},
		{"user bad email", http.MethodPost, "/users", 0, `{"name":"Ivan","email":"nope"}`, "email is malformed"},
		{"user broken json", http.MethodPost, "/users", 0, `{broken`, "invalid JSON body"},
		{"patch bad email", http.MethodPatch, "/users/1", 0, `{"email":"nope"}`, "email is malformed"},
		{"item no available", http.MethodPost, "/items", 1, `{"name":"Drill","description":"ok"}`, "available is required"},
		{"item patch broken json", http.MethodPatch, "/items/1", 1, `{broken`, "invalid JSON body"},
		{"booking no item", http.MethodPost, "/bookings", 1, fmt.Sprintf(`{"start":%q,"end":%q}`, futureStart, futureEnd), "itemId is required"},
		{"booking end before start", http.MethodPost, "/bookings", 1, fmt.Sprintf(`{"itemId":1,"start":%q,"end":%q}`, futureEnd, futureStart), "end must be after start"},
		{"comment blank", http.MethodPost, "/items/1/comment", 1, `{"text":"  "}`, "text must not be blank"},
		{"request blank", http.MethodPost, "/requests", 1, `{"description":""}`, "description must not be blank"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := up.count()
			rec := doGatewayRequest(t, srv, tt.method, tt.path, tt.userID, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantMsg, gatewayError(t, rec))
			assert.Equal(t, before, up.count(), "rejected request must not reach the core")
		})
	}
}

func TestGatewayRequiresUserHeader(t *testing.T) {
	srv, up := newTestGateway(t, config.RateLimitConfig{})

	rec := doGatewayRequest(t, srv, http.MethodPost, "/items", 0, `{"name":"Drill","description":"ok","available":true}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "X-Sharer-User-Id header is required", gatewayError(t, rec))

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set(models.UserIDHeader, "abc")
	recInvalid := httptest.NewRecorder()
	srv.Handler().ServeHTTP(recInvalid, req)
	require.Equal(t, http.StatusBadRequest, recInvalid.Code)
	assert.Equal(t, "X-Sharer-User-Id header is invalid", gatewayError(t, recInvalid))

	assert.Zero(t, up.count())
}

func TestGatewayPageParams(t *testing.T) {
	srv, up := newTestGateway(t, config.RateLimitConfig{})

	rec := doGatewayRequest(t, srv, http.MethodGet, "/items/search?text=drill&from=-1", 0, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "from must be a non-negative integer", gatewayError(t, rec))

	rec = doGatewayRequest(t, srv, http.MethodGet, "/items/search?text=drill&size=0", 0, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "size must be a positive integer", gatewayError(t, rec))

	rec = doGatewayRequest(t, srv, http.MethodGet, "/items/search?text=drill&from=0&size=5", 0, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, up.count())
}

func TestGatewayMethodNotAllowed(t *testing.T) {
	srv, up := newTestGateway(t, config.RateLimitConfig{})

	rec := doGatewayRequest(t, srv, http.MethodPut, "/users", 0, `{}`)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Zero(t, up.count())
}

func TestGatewayRateLimit(t *testing.T) {
	srv, up := newTestGateway(t, config.RateLimitConfig{
		Enabled:  true,
		Requests: 2,
		Window:   60,
	})

	for i := 0; i < 2; i++ {
		rec := doGatewayRequest(t, srv, http.MethodGet, "/health", 42, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doGatewayRequest(t, srv, http.MethodGet, "/health", 42, "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", gatewayError(t, rec))

	// Другой клиент лимит не разделяет.
	recOther := doGatewayRequest(t, srv, http.MethodGet, "/health", 99, "")
	assert.Equal(t, http.StatusOK, recOther.Code)

	assert.Zero(t, up.count())
}
