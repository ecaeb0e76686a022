package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/St1cky1/service-tasks/internal/entity"
)

type stubAuth struct{}

func (stubAuth) Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error) {
	return nil, entity.ErrInvalidCredentials
}

func (stubAuth) RefreshToken(ctx context.Context, refreshToken string) (*entity.RefreshTokenResponse, error) {
	return nil, entity.ErrUnauthorized
}

func (stubAuth) Logout(ctx context.Context, accountID string) error { return nil }

func (stubAuth) CreateAccount(ctx context.Context, actor entity.Identity, req *entity.CreateAccountRequest) (*entity.Account, error) {
	return nil, entity.ErrForbidden
}

func (stubAuth) Authenticate(accessToken string) (entity.Identity, error) {
	if accessToken == "good" {
		return entity.Identity{AccountID: "a1", Role: entity.RoleAdmin}, nil
	}
	return entity.Identity{}, entity.ErrUnauthorized
}

func TestRouter_Healthz(t *testing.T) {
	healthy := true
	r := NewRouter(RouterDeps{
		Auth:               stubAuth{},
		RateLimitPerMinute: 600,
		Health: func(ctx context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("db down")
		},
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthy: expected 200, got %d", rec.Code)
	}

	healthy = false
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy: expected 503, got %d", rec.Code)
	}
}

func TestRouter_RequiresToken(t *testing.T) {
	gatewayHit := false
	r := NewRouter(RouterDeps{
		Auth:               stubAuth{},
		RateLimitPerMinute: 600,
		Gateway: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gatewayHit = true
			w.WriteHeader(http.StatusOK)
		}),
	})

	for _, path := range []string{"/api/v1/tasks", "/api/v1/services", "/v1/dashboard"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}
	if gatewayHit {
		t.Fatal("gateway must not be reached without a token")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !gatewayHit {
		t.Fatalf("expected gateway to serve authorized request, got %d", rec.Code)
	}
}
