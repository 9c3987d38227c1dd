package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type fakeRateStore struct {
	mu   sync.Mutex
	hits map[string]int64
	err  error
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{hits: map[string]int64{}}
}

func (f *fakeRateStore) RateLimitKey(parts ...string) string {
	return "rl:" + strings.Join(parts, ":")
}

func (f *fakeRateStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.hits[key]++
	return f.hits[key], nil
}

func (f *fakeRateStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.hits))
	for k := range f.hits {
		out = append(out, k)
	}
	return out
}

func subscribe(handler http.Handler, remote, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/news-letters", strings.NewReader(body))
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitPassesBodyThrough(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("newsletter", time.Minute, 2, 2)
	handler := RateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"email":"reader@example.com"}`, string(body))
		w.WriteHeader(http.StatusOK)
	}))

	rec := subscribe(handler, "1.2.3.4:5678", `{"email":"reader@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, store.keys(), 2)
}

func TestRateLimitBlocksRepeatedEmail(t *testing.T) {
	store := newFakeRateStore()
	handler := RateLimit(NewRateLimitPolicy("newsletter", time.Minute, 0, 2), store, nil)(okHandler())

	// Different casing and remote addresses still count against one email.
	assert.Equal(t, http.StatusOK, subscribe(handler, "1.1.1.1:1", `{"email":"Blocked@Example.com"}`).Code)
	assert.Equal(t, http.StatusOK, subscribe(handler, "2.2.2.2:1", `{"email":"blocked@example.com "}`).Code)

	rec := subscribe(handler, "3.3.3.3:1", `{"email":"blocked@example.com"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, string(pkgerrors.CodeRateLimit), payload.Error.Code)

	for _, key := range store.keys() {
		assert.NotContains(t, key, "blocked@example.com")
	}
}

func TestRateLimitBlocksRepeatedIP(t *testing.T) {
	store := newFakeRateStore()
	handler := RateLimit(NewRateLimitPolicy("newsletter", time.Minute, 1, 0), store, nil)(okHandler())

	assert.Equal(t, http.StatusOK, subscribe(handler, "5.6.7.8:1234", `{"email":"a@example.com"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, subscribe(handler, "5.6.7.8:9999", `{"email":"b@example.com"}`).Code)
	assert.Equal(t, http.StatusOK, subscribe(handler, "9.9.9.9:1234", `{"email":"c@example.com"}`).Code)
}

func TestRateLimitSkipsEmailRuleWithoutEmail(t *testing.T) {
	store := newFakeRateStore()
	handler := RateLimit(NewRateLimitPolicy("newsletter", time.Minute, 0, 1), store, nil)(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, subscribe(handler, "1.1.1.1:1", `not json`).Code)
	}
	assert.Empty(t, store.keys())
}

func TestRateLimitStoreFailure(t *testing.T) {
	store := newFakeRateStore()
	store.err = errors.New("redis down")
	handler := RateLimit(NewRateLimitPolicy("newsletter", time.Minute, 1, 0), store, nil)(okHandler())

	rec := subscribe(handler, "1.1.1.1:1", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimitDisabled(t *testing.T) {
	next := okHandler()

	cases := map[string]struct {
		policy RateLimitPolicy
		store  RateLimiterStore
	}{
		"nil store":   {NewRateLimitPolicy("n", time.Minute, 1, 1), nil},
		"zero window": {NewRateLimitPolicy("n", 0, 1, 1), newFakeRateStore()},
		"no rules":    {NewRateLimitPolicy("n", time.Minute, 0, 0), newFakeRateStore()},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			wrapped := RateLimit(tc.policy, tc.store, nil)(next)
			for i := 0; i < 3; i++ {
				assert.Equal(t, http.StatusOK, subscribe(wrapped, "1.1.1.1:1", `{"email":"x@example.com"}`).Code)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Real-IP", "172.16.0.9")
	assert.Equal(t, "172.16.0.9", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.2")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}
