package entity

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleService Role = "service"
)

type Account struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Никогда не отправляем пароль
	Role         Role       `json:"role"`
	ServiceID    string     `json:"service_id,omitempty"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (a *Account) Identity() Identity {
	return Identity{AccountID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role, ServiceID: a.ServiceID}
}

// Identity - кто выполняет операцию
type Identity struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	ServiceID string `json:"service_id,omitempty"`
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// CanAccess - админ видит все, отдел только свои задачи
func (i Identity) CanAccess(t *Task) bool {
	return i.IsAdmin() || (i.ServiceID != "" && t.ServiceID == i.ServiceID)
}

type CreateAccountRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	ServiceID string `json:"service_id"`
}

// Логин
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Account      *Account `json:"account"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// JWT Claims
type JWTClaims struct {
	AccountID string
	Email     string
	Role      Role
	ServiceID string
	Name      string
}

func (c *JWTClaims) Identity() Identity {
	return Identity{AccountID: c.AccountID, Name: c.Name, Email: c.Email, Role: c.Role, ServiceID: c.ServiceID}
}

type RefreshToken struct {
	ID        int       `json:"id"`
	AccountID string    `json:"account_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `json:"revoked"`
}
