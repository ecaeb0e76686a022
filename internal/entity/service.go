package entity

import "time"

// Service - отдел, которому назначаются задачи
type Service struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Head      string     `json:"head"`
	Location  string     `json:"location"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func (s *Service) Deleted() bool { return s.DeletedAt != nil }

type CreateServiceRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Head     string `json:"head"`
	Location string `json:"location"`
}

type UpdateServiceRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Head     *string `json:"head"`
	Location *string `json:"location"`
	Active   *bool   `json:"active"`
}
