package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/St1cky1/service-tasks/internal/infrastructure/auth"
	"github.com/St1cky1/service-tasks/internal/repository"
	"github.com/google/uuid"
)

type AuthService struct {
	accountRepo      repository.IAccountRepository
	refreshTokenRepo repository.IRefreshTokenRepository
	serviceRepo      repository.IServiceRepository
	passwordManager  *auth.PasswordManager
	jwtManager       *auth.JWTManager
	now              func() time.Time
}

func NewAuthService(
	accountRepo repository.IAccountRepository,
	refreshTokenRepo repository.IRefreshTokenRepository,
	serviceRepo repository.IServiceRepository,
	passwordManager *auth.PasswordManager,
	jwtManager *auth.JWTManager,
) *AuthService {
	return &AuthService{
		accountRepo:      accountRepo,
		refreshTokenRepo: refreshTokenRepo,
		serviceRepo:      serviceRepo,
		passwordManager:  passwordManager,
		jwtManager:       jwtManager,
		now:              time.Now,
	}
}

// Login логинит учетную запись
func (s *AuthService) Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error) {
	account, err := s.accountRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, entity.WrapStore("get account", err)
	}
	if account == nil || !account.IsActive {
		return nil, entity.ErrInvalidCredentials
	}

	if !s.passwordManager.VerifyPassword(account.PasswordHash, req.Password) {
		return nil, entity.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, account)
	if err != nil {
		return nil, err
	}

	// Обновляем last_login
	now := s.now()
	if err := s.accountRepo.TouchLastLogin(ctx, account.ID, now); err != nil {
		return nil, entity.WrapStore("update last_login", err)
	}
	account.LastLogin = &now

	return &entity.LoginResponse{
		Account:      account,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshToken меняет refresh token на новую пару токенов
func (s *AuthService) RefreshToken(ctx context.Context, refreshTokenStr string) (*entity.RefreshTokenResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshTokenStr)
	if err != nil {
		return nil, err
	}

	// Проверяем, есть ли этот токен в БД
	refreshTokenHash := hashToken(refreshTokenStr)
	storedToken, err := s.refreshTokenRepo.GetByHash(ctx, refreshTokenHash)
	if err != nil {
		return nil, entity.WrapStore("get refresh token", err)
	}
	if storedToken == nil {
		return nil, fmt.Errorf("%w: refresh token not found or expired", entity.ErrUnauthorized)
	}

	// Роль и отдел могли измениться после выдачи токена
	account, err := s.accountRepo.GetByID(ctx, claims.AccountID)
	if err != nil {
		return nil, entity.WrapStore("get account", err)
	}
	if account == nil || !account.IsActive {
		return nil, fmt.Errorf("%w: account is not active", entity.ErrUnauthorized)
	}

	// Откатываем старый refresh token
	if err := s.refreshTokenRepo.Revoke(ctx, refreshTokenHash); err != nil {
		return nil, entity.WrapStore("revoke refresh token", err)
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, account)
	if err != nil {
		return nil, err
	}

	return &entity.RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout откатывает все refresh токены учетной записи
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	if err := s.refreshTokenRepo.RevokeAll(ctx, accountID); err != nil {
		return entity.WrapStore("revoke refresh tokens", err)
	}
	return nil
}

// Authenticate - личность из access token
func (s *AuthService) Authenticate(accessToken string) (entity.Identity, error) {
	claims, err := s.jwtManager.ValidateAccessToken(accessToken)
	if err != nil {
		return entity.Identity{}, err
	}
	return claims.Identity(), nil
}

// CreateAccount - учетные записи заводит только администратор
func (s *AuthService) CreateAccount(ctx context.Context, actor entity.Identity, req *entity.CreateAccountRequest) (*entity.Account, error) {
	if !actor.IsAdmin() {
		return nil, entity.ErrForbidden
	}
	return s.createAccount(ctx, req)
}

// EnsureAdmin создает администратора при первом запуске
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	existing, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return entity.WrapStore("get account", err)
	}
	if existing != nil {
		return nil
	}

	account, err := s.createAccount(ctx, &entity.CreateAccountRequest{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Role:     string(entity.RoleAdmin),
	})
	if err != nil {
		return err
	}

	log.Printf("✅ Создан администратор %s", account.Email)
	return nil
}

func (s *AuthService) createAccount(ctx context.Context, req *entity.CreateAccountRequest) (*entity.Account, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &entity.ValidationError{Field: "name", Message: "name is required"}
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	role := entity.Role(strings.TrimSpace(req.Role))
	serviceID := strings.TrimSpace(req.ServiceID)
	switch role {
	case entity.RoleAdmin:
		serviceID = ""
	case entity.RoleService, "":
		role = entity.RoleService
		if serviceID == "" {
			return nil, &entity.ValidationError{Field: "service_id", Message: "service account requires a service"}
		}
		svc, err := s.serviceRepo.GetByID(ctx, serviceID)
		if err != nil {
			return nil, entity.WrapStore("get service", err)
		}
		if svc == nil || svc.Deleted() {
			return nil, &entity.NotFoundError{Entity: "service", ID: serviceID}
		}
	default:
		return nil, &entity.ValidationError{Field: "role", Message: "unknown role " + string(role)}
	}

	existing, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, entity.WrapStore("get account", err)
	}
	if existing != nil {
		return nil, entity.ErrAccountExists
	}

	passwordHash, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.Create(ctx, &entity.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		ServiceID:    serviceID,
		IsActive:     true,
	})
	if err != nil {
		return nil, entity.WrapStore("create account", err)
	}

	return account, nil
}

func (s *AuthService) issueTokens(ctx context.Context, account *entity.Account) (string, string, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(account)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(account)
	if err != nil {
		return "", "", err
	}

	// Сохраняем хеш refresh token в БД
	expiresAt := s.now().Add(s.jwtManager.RefreshTTL())
	if err := s.refreshTokenRepo.Save(ctx, account.ID, hashToken(refreshToken), expiresAt); err != nil {
		return "", "", entity.WrapStore("save refresh token", err)
	}

	return accessToken, refreshToken, nil
}

// hashToken генерирует хеш токена для хранения в БД
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
