package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/St1cky1/service-tasks/internal/entity"
	"golang.org/x/crypto/bcrypt"
)

var testAccount = &entity.Account{
	ID:        "acc-1",
	Name:      "Alice",
	Email:     "alice@example.com",
	Role:      entity.RoleService,
	ServiceID: "geology",
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret")

	token, err := m.GenerateAccessToken(testAccount)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	claims, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("Expected valid token, got %v", err)
	}
	want := testAccount.Identity()
	if got := claims.Identity(); got != want {
		t.Errorf("Expected identity %+v, got %+v", want, got)
	}
}

func TestJWTRejectsWrongType(t *testing.T) {
	m := NewJWTManager("secret")

	refresh, _ := m.GenerateRefreshToken(testAccount)
	if _, err := m.ValidateAccessToken(refresh); !errors.Is(err, entity.ErrUnauthorized) {
		t.Errorf("Expected unauthorized for refresh token used as access, got %v", err)
	}
	if _, err := m.ValidateRefreshToken(refresh); err != nil {
		t.Errorf("Expected refresh token valid, got %v", err)
	}
}

func TestJWTRejectsForeignAndExpired(t *testing.T) {
	m := NewJWTManager("secret")
	other := NewJWTManager("other-secret")

	token, _ := other.GenerateAccessToken(testAccount)
	if _, err := m.ValidateAccessToken(token); !errors.Is(err, entity.ErrUnauthorized) {
		t.Errorf("Expected unauthorized for foreign signature, got %v", err)
	}

	past := NewJWTManager("secret")
	past.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _ := past.GenerateAccessToken(testAccount)
	if _, err := m.ValidateAccessToken(expired); !errors.Is(err, entity.ErrUnauthorized) {
		t.Errorf("Expected unauthorized for expired token, got %v", err)
	}

	if _, err := m.ValidateAccessToken("garbage"); !errors.Is(err, entity.ErrUnauthorized) {
		t.Errorf("Expected unauthorized for garbage, got %v", err)
	}
}

func TestRefreshTokensAreUnique(t *testing.T) {
	m := NewJWTManager("")
	a, _ := m.GenerateRefreshToken(testAccount)
	b, _ := m.GenerateRefreshToken(testAccount)
	if a == b {
		t.Error("Expected distinct refresh tokens")
	}
}

func TestPasswordManager(t *testing.T) {
	m := NewPasswordManager(bcrypt.MinCost)

	hash, err := m.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !m.VerifyPassword(hash, "correct horse") {
		t.Error("Expected password to verify")
	}
	if m.VerifyPassword(hash, "wrong horse") {
		t.Error("Expected wrong password to fail")
	}

	if _, err := m.HashPassword("short"); !errors.Is(err, entity.ErrValidation) {
		t.Errorf("Expected validation error for short password, got %v", err)
	}
}
