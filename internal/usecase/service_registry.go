package usecase

import (
	"context"
	"net/mail"
	"strings"
	"unicode"

	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/St1cky1/service-tasks/internal/notify"
	"github.com/St1cky1/service-tasks/internal/repository"
	"github.com/google/uuid"
)

// ServiceRegistry - справочник отделов
type ServiceRegistry struct {
	serviceRepo repository.IServiceRepository
	notifier    ChangeNotifier
	newID       func() string
}

func NewServiceRegistry(serviceRepo repository.IServiceRepository, notifier ChangeNotifier) *ServiceRegistry {
	return &ServiceRegistry{
		serviceRepo: serviceRepo,
		notifier:    notifier,
		newID:       uuid.NewString,
	}
}

// Slugify строит идентификатор отдела из названия
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func validateEmail(email string) error {
	if email == "" {
		return &entity.ValidationError{Field: "email", Message: "email is required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &entity.ValidationError{Field: "email", Message: "invalid email " + email}
	}
	return nil
}

// CreateService создает отдел, id по умолчанию из названия
func (s *ServiceRegistry) CreateService(ctx context.Context, actor entity.Identity, req *entity.CreateServiceRequest) (*entity.Service, error) {
	if !actor.IsAdmin() {
		return nil, entity.ErrForbidden
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &entity.ValidationError{Field: "name", Message: "name is required"}
	}
	email := strings.TrimSpace(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	id := Slugify(req.ID)
	if id == "" {
		id = Slugify(name)
	}
	if id == "" {
		id = s.newID()
	}

	existing, err := s.serviceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, entity.WrapStore("get service", err)
	}
	if existing != nil {
		return nil, &entity.ValidationError{Field: "id", Message: "service " + id + " already exists"}
	}

	created, err := s.serviceRepo.Create(ctx, &entity.Service{
		ID:       id,
		Name:     name,
		Email:    email,
		Phone:    strings.TrimSpace(req.Phone),
		Head:     strings.TrimSpace(req.Head),
		Location: strings.TrimSpace(req.Location),
		Active:   true,
	})
	if err != nil {
		return nil, entity.WrapStore("create service", err)
	}

	s.notify("insert", created.ID)
	return created, nil
}

// GetService - удаленный отдел тоже возвращается
func (s *ServiceRegistry) GetService(ctx context.Context, id string) (*entity.Service, error) {
	svc, err := s.serviceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, entity.WrapStore("get service", err)
	}
	if svc == nil {
		return nil, &entity.NotFoundError{Entity: "service", ID: id}
	}
	return svc, nil
}

func (s *ServiceRegistry) ListServices(ctx context.Context, includeDeleted bool) ([]entity.Service, error) {
	services, err := s.serviceRepo.List(ctx, includeDeleted)
	if err != nil {
		return nil, entity.WrapStore("list services", err)
	}
	return services, nil
}

func (s *ServiceRegistry) UpdateService(ctx context.Context, actor entity.Identity, id string, req *entity.UpdateServiceRequest) (*entity.Service, error) {
	if !actor.IsAdmin() {
		return nil, entity.ErrForbidden
	}

	svc, err := s.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc.Deleted() {
		return nil, &entity.NotFoundError{Entity: "service", ID: id}
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, &entity.ValidationError{Field: "name", Message: "name is required"}
		}
		updates["name"] = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		updates["email"] = email
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Head != nil {
		updates["head"] = strings.TrimSpace(*req.Head)
	}
	if req.Location != nil {
		updates["location"] = strings.TrimSpace(*req.Location)
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		return nil, &entity.ValidationError{Message: entity.ErrNoFieldsToUpdate.Error()}
	}

	updated, err := s.serviceRepo.Update(ctx, id, updates)
	if err != nil {
		return nil, entity.WrapStore("update service", err)
	}
	if updated == nil {
		return nil, &entity.NotFoundError{Entity: "service", ID: id}
	}

	s.notify("update", id)
	return updated, nil
}

// DeleteService - мягкое удаление, задачи отдела сохраняются
func (s *ServiceRegistry) DeleteService(ctx context.Context, actor entity.Identity, id string) error {
	if !actor.IsAdmin() {
		return entity.ErrForbidden
	}

	svc, err := s.GetService(ctx, id)
	if err != nil {
		return err
	}
	if svc.Deleted() {
		return &entity.NotFoundError{Entity: "service", ID: id}
	}

	if err := s.serviceRepo.SoftDelete(ctx, id); err != nil {
		return entity.WrapStore("delete service", err)
	}

	s.notify("delete", id)
	return nil
}

func (s *ServiceRegistry) notify(op, id string) {
	if s.notifier != nil {
		s.notifier.Publish(notify.Change{Table: notify.TableServices, Op: op, ID: id})
	}
}
