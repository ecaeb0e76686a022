package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const serviceColumns = `id, name, email, phone, head, location, active, created_at, updated_at, deleted_at`

var serviceUpdatable = map[string]bool{
	"name":     true,
	"email":    true,
	"phone":    true,
	"head":     true,
	"location": true,
	"active":   true,
}

type ServiceRepository struct {
	db *pgxpool.Pool
}

func NewServiceRepository(db *pgxpool.Pool) *ServiceRepository {
	return &ServiceRepository{
		db: db,
	}
}

func scanService(row pgx.Row) (*entity.Service, error) {
	var s entity.Service
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Email,
		&s.Phone,
		&s.Head,
		&s.Location,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// создаем отдел
func (r *ServiceRepository) Create(ctx context.Context, service *entity.Service) (*entity.Service, error) {
	query := `
	INSERT INTO services (id, name, email, phone, head, location, active)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + serviceColumns

	return scanService(r.db.QueryRow(ctx, query,
		service.ID,
		service.Name,
		service.Email,
		service.Phone,
		service.Head,
		service.Location,
		service.Active,
	))
}

// GetByID - в том числе удаленный, nil если отсутствует
func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*entity.Service, error) {
	s, err := scanService(r.db.QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// Update - обновляем отдел
func (r *ServiceRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*entity.Service, error) {
	setClause := ""
	args := []interface{}{}
	argIndex := 1

	for field, value := range updates {
		if !serviceUpdatable[field] {
			return nil, fmt.Errorf("service: field %q is not updatable", field)
		}
		if argIndex > 1 {
			setClause += ", "
		}
		setClause += field + " = $" + strconv.Itoa(argIndex)
		args = append(args, value)
		argIndex++
	}

	if argIndex == 1 {
		return nil, entity.ErrNoFieldsToUpdate
	}
	setClause += ", updated_at = CURRENT_TIMESTAMP"

	query := `UPDATE services SET ` + setClause +
		` WHERE id = $` + strconv.Itoa(argIndex) + ` AND deleted_at IS NULL RETURNING ` + serviceColumns
	args = append(args, id)

	s, err := scanService(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// SoftDelete - задачи продолжают ссылаться на удаленный отдел
func (r *ServiceRepository) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `
	UPDATE services
	SET deleted_at = CURRENT_TIMESTAMP, active = false, updated_at = CURRENT_TIMESTAMP
	WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ServiceRepository) List(ctx context.Context, includeDeleted bool) ([]entity.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	if !includeDeleted {
		query += ` WHERE deleted_at IS NULL`
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := []entity.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, *s)
	}

	return services, rows.Err()
}
