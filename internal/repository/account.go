package repository

import (
	"context"
	"errors"
	"time"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `id, name, email, password_hash, role, COALESCE(service_id, ''),
	is_active, last_login, created_at, updated_at`

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	var a entity.Account
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&a.Role,
		&a.ServiceID,
		&a.IsActive,
		&a.LastLogin,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// создаем учетную запись
func (r *AccountRepository) Create(ctx context.Context, account *entity.Account) (*entity.Account, error) {
	query := `
	INSERT INTO accounts (id, name, email, password_hash, role, service_id, is_active)
	VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
	RETURNING ` + accountColumns

	return scanAccount(r.db.QueryRow(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.ServiceID,
		account.IsActive,
	))
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	return scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

// GetByEmail - email без учета регистра
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email))
}

func (r *AccountRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE accounts SET last_login = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, at, id)
	return err
}
