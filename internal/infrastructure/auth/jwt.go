package auth

import (
	"fmt"
	"time"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	defaultSecretKey = "your-secret-key-change-in-production"
)

type tokenClaims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	ServiceID string `json:"service_id,omitempty"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTManager - пустой ключ заменяется ключом для разработки
func NewJWTManager(secretKey string) *JWTManager {
	if secretKey == "" {
		secretKey = defaultSecretKey
	}
	return &JWTManager{
		secretKey:  []byte(secretKey),
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		now:        time.Now,
	}
}

// RefreshTTL - срок жизни refresh token
func (m *JWTManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// GenerateAccessToken генерирует access token на 15 минут
func (m *JWTManager) GenerateAccessToken(account *entity.Account) (string, error) {
	return m.sign(account, tokenTypeAccess, m.accessTTL)
}

// GenerateRefreshToken генерирует refresh token на 7 дней
func (m *JWTManager) GenerateRefreshToken(account *entity.Account) (string, error) {
	return m.sign(account, tokenTypeRefresh, m.refreshTTL)
}

func (m *JWTManager) sign(account *entity.Account, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := tokenClaims{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      string(account.Role),
		ServiceID: account.ServiceID,
		Name:      account.Name,
		Type:      tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, nil
}

// ValidateAccessToken проверяет access token
func (m *JWTManager) ValidateAccessToken(tokenString string) (*entity.JWTClaims, error) {
	return m.validate(tokenString, tokenTypeAccess)
}

// ValidateRefreshToken проверяет refresh token
func (m *JWTManager) ValidateRefreshToken(tokenString string) (*entity.JWTClaims, error) {
	return m.validate(tokenString, tokenTypeRefresh)
}

func (m *JWTManager) validate(tokenString, tokenType string) (*entity.JWTClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse token: %v", entity.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", entity.ErrUnauthorized)
	}

	// Проверяем тип токена
	if claims.Type != tokenType {
		return nil, fmt.Errorf("%w: invalid token type", entity.ErrUnauthorized)
	}
	if claims.AccountID == "" {
		return nil, fmt.Errorf("%w: invalid account_id in token", entity.ErrUnauthorized)
	}

	return &entity.JWTClaims{
		AccountID: claims.AccountID,
		Email:     claims.Email,
		Role:      entity.Role(claims.Role),
		ServiceID: claims.ServiceID,
		Name:      claims.Name,
	}, nil
}
