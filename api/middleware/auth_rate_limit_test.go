package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mercadolocal/mercados-backend/pkg/config"
)

type fakeCounterStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counts: make(map[string]int64)}
}

func (f *fakeCounterStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func signupRequest(email string) *http.Request {
	body := `{"email":"` + email + `","password":"hunter22","name":"Ana"}`
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:4411"
	return req
}

func TestSignupRateLimitBlocksIPAfterLimit(t *testing.T) {
	store := newFakeCounterStore()
	policy := SignupPolicyFromConfig(config.AuthRateLimitConfig{
		SignupWindow:  time.Minute,
		SignupIPLimit: 2,
	})
	handler := SignupRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, signupRequest("ana@example.com"))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signupRequest("ana@example.com"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestSignupRateLimitBlocksEmailAcrossIPs(t *testing.T) {
	store := newFakeCounterStore()
	policy := SignupPolicyFromConfig(config.AuthRateLimitConfig{
		SignupWindow:     time.Minute,
		SignupEmailLimit: 1,
	})
	handler := SignupRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := signupRequest("Ana@Example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	second := signupRequest("ana@example.com")
	second.RemoteAddr = "198.51.100.9:2200"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestSignupRateLimitPreservesBodyForHandler(t *testing.T) {
	store := newFakeCounterStore()
	policy := SignupPolicyFromConfig(config.AuthRateLimitConfig{
		SignupWindow:     time.Minute,
		SignupEmailLimit: 5,
	})

	var seen string
	handler := SignupRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = string(body)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signupRequest("ana@example.com"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, seen, "ana@example.com")
}

func TestSignupRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	called := false
	handler := SignupRateLimit(SignupPolicy{}, newFakeCounterStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signupRequest("ana@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, called)
}
