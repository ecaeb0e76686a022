package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/St1cky1/service-tasks/internal/entity"
)

type authFunc func(token string) (entity.Identity, error)

func (f authFunc) Authenticate(token string) (entity.Identity, error) { return f(token) }

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
	}
	for header, want := range tests {
		if got := BearerToken(header); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestRequireAuth(t *testing.T) {
	auth := authFunc(func(token string) (entity.Identity, error) {
		if token == "good" {
			return entity.Identity{AccountID: "a-1", Role: entity.RoleAdmin}, nil
		}
		return entity.Identity{}, entity.ErrUnauthorized
	})

	var seen entity.Identity
	h := RequireAuth(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer good", http.StatusOK},
		{"invalid", "Bearer bad", http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
	if seen.AccountID != "a-1" {
		t.Errorf("Expected identity in context, got %+v", seen)
	}
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(4) // burst 1
	now := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do("10.0.0.1:1000"); code != http.StatusOK {
		t.Fatalf("Expected first request allowed, got %d", code)
	}
	if code := do("10.0.0.1:1001"); code != http.StatusTooManyRequests {
		t.Errorf("Expected second request limited, got %d", code)
	}
	if code := do("10.0.0.2:1000"); code != http.StatusOK {
		t.Errorf("Expected other client allowed, got %d", code)
	}

	now = now.Add(20 * time.Second)
	if code := do("10.0.0.1:1002"); code != http.StatusOK {
		t.Errorf("Expected request allowed after refill, got %d", code)
	}
}
