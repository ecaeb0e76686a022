package auth

import (
	"fmt"
	"unicode/utf8"

	"github.com/St1cky1/service-tasks/internal/entity"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength - в символах
const MinPasswordLength = 8

type PasswordManager struct {
	cost int
}

// NewPasswordManager - cost вне допустимого диапазона bcrypt заменяется DefaultCost
func NewPasswordManager(cost int) *PasswordManager {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordManager{cost: cost}
}

// HashPassword проверяет длину и хеширует пароль
func (m *PasswordManager) HashPassword(password string) (string, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", &entity.ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength),
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword проверяет пароль против хеша
func (m *PasswordManager) VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
