package party

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
	"github.com/vladislavdragonenkov/appliances/internal/service/auth"
)

// Service — регистрация и управление клиентами и сотрудниками.
type Service struct {
	clients    domain.ClientRepository
	employees  domain.EmployeeRepository
	identities domain.IdentityRepository
	encoder    auth.PasswordEncoder
	logger     *log.Entry
}

// NewService создаёт сервис пользователей.
func NewService(
	clients domain.ClientRepository,
	employees domain.EmployeeRepository,
	identities domain.IdentityRepository,
	encoder auth.PasswordEncoder,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.WithField("component", "party-service")
	}
	return &Service{
		clients:    clients,
		employees:  employees,
		identities: identities,
		encoder:    encoder,
		logger:     logger,
	}
}

// RegisterClient создаёт клиента с захешированным паролем.
func (s *Service) RegisterClient(ctx context.Context, c domain.Client, password string) (domain.Client, error) {
	c.Email = domain.NormalizeEmail(c.Email)
	violations := c.ValidateInvariants()
	if err := domain.ValidatePassword(password); err != nil {
		violations = append(violations, err)
	}
	if err := domain.NewValidationError(violations...); err != nil {
		return domain.Client{}, err
	}
	if err := s.ensureEmailFree(ctx, c.Email); err != nil {
		return domain.Client{}, err
	}

	hash, err := s.encoder.Hash(password)
	if err != nil {
		return domain.Client{}, err
	}
	c.PasswordHash = hash
	if err := s.clients.Create(ctx, &c); err != nil {
		return domain.Client{}, fmt.Errorf("create client: %w", err)
	}
	s.logger.WithField("client_id", c.ID).Info("client registered")
	return c, nil
}

// RegisterEmployee создаёт сотрудника с захешированным паролем.
func (s *Service) RegisterEmployee(ctx context.Context, e domain.Employee, password string) (domain.Employee, error) {
	e.Email = domain.NormalizeEmail(e.Email)
	violations := e.ValidateInvariants()
	if err := domain.ValidatePassword(password); err != nil {
		violations = append(violations, err)
	}
	if err := domain.NewValidationError(violations...); err != nil {
		return domain.Employee{}, err
	}
	if err := s.ensureEmailFree(ctx, e.Email); err != nil {
		return domain.Employee{}, err
	}

	hash, err := s.encoder.Hash(password)
	if err != nil {
		return domain.Employee{}, err
	}
	e.PasswordHash = hash
	if err := s.employees.Create(ctx, &e); err != nil {
		return domain.Employee{}, fmt.Errorf("create employee: %w", err)
	}
	s.logger.WithField("employee_id", e.ID).Info("employee registered")
	return e, nil
}

// EnsureEmployee создаёт начального сотрудника, если email ещё не занят.
func (s *Service) EnsureEmployee(ctx context.Context, e domain.Employee, password string) (bool, error) {
	exists, err := s.identities.EmailExists(ctx, domain.NormalizeEmail(e.Email))
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if _, err := s.RegisterEmployee(ctx, e, password); err != nil {
		return false, err
	}
	return true, nil
}

// Profile возвращает актуальный профиль вызывающего.
func (s *Service) Profile(ctx context.Context, caller domain.Identity) (domain.Identity, error) {
	return s.identities.FindByEmail(ctx, caller.Email())
}

// ProfileUpdate — изменение собственного профиля. Пустые необязательные поля
// сохраняют прежние значения; имя, фамилия и email обязательны.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	Address   string
	Card      string
	Position  string
}

// UpdateProfile применяет изменения к профилю вызывающего.
func (s *Service) UpdateProfile(ctx context.Context, caller domain.Identity, in ProfileUpdate) (domain.Identity, error) {
	if client, ok := caller.AsClient(); ok {
		current, err := s.clients.Get(ctx, client.ID)
		if err != nil {
			return domain.Identity{}, err
		}
		current.FirstName, current.LastName, current.Email = in.FirstName, in.LastName, in.Email
		current.Phone = keep(current.Phone, in.Phone)
		current.Address = keep(current.Address, in.Address)
		current.Card = keep(current.Card, in.Card)
		updated, err := s.UpdateClient(ctx, current.ID, current, in.Password)
		if err != nil {
			return domain.Identity{}, err
		}
		return domain.ClientIdentity(updated), nil
	}
	if employee, ok := caller.AsEmployee(); ok {
		current, err := s.employees.Get(ctx, employee.ID)
		if err != nil {
			return domain.Identity{}, err
		}
		current.FirstName, current.LastName, current.Email = in.FirstName, in.LastName, in.Email
		current.Position = keep(current.Position, in.Position)
		updated, err := s.UpdateEmployee(ctx, current.ID, current, in.Password)
		if err != nil {
			return domain.Identity{}, err
		}
		return domain.EmployeeIdentity(updated), nil
	}
	return domain.Identity{}, domain.ErrUnauthenticated
}

func keep(current, next string) string {
	if strings.TrimSpace(next) == "" {
		return current
	}
	return next
}

func (s *Service) ListClients(ctx context.Context, query string, page domain.PageRequest) (domain.Page[domain.Client], error) {
	return s.clients.List(ctx, query, page)
}

func (s *Service) GetClient(ctx context.Context, id int64) (domain.Client, error) {
	return s.clients.Get(ctx, id)
}

// UpdateClient обновляет профиль; пустой пароль оставляет прежний хеш.
func (s *Service) UpdateClient(ctx context.Context, id int64, c domain.Client, password string) (domain.Client, error) {
	current, err := s.clients.Get(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}
	c.ID = id
	c.Email = domain.NormalizeEmail(c.Email)
	c.PasswordHash = current.PasswordHash

	violations := c.ValidateInvariants()
	if password != "" {
		if err := domain.ValidatePassword(password); err != nil {
			violations = append(violations, err)
		}
	}
	if err := domain.NewValidationError(violations...); err != nil {
		return domain.Client{}, err
	}
	if password != "" {
		if c.PasswordHash, err = s.encoder.Hash(password); err != nil {
			return domain.Client{}, err
		}
	}
	if err := s.clients.Update(ctx, &c); err != nil {
		return domain.Client{}, err
	}
	return c, nil
}

func (s *Service) DeleteClient(ctx context.Context, id int64) error {
	return s.clients.Delete(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context, query string, page domain.PageRequest) (domain.Page[domain.Employee], error) {
	return s.employees.List(ctx, query, page)
}

func (s *Service) GetEmployee(ctx context.Context, id int64) (domain.Employee, error) {
	return s.employees.Get(ctx, id)
}

// UpdateEmployee обновляет профиль; пустой пароль оставляет прежний хеш.
func (s *Service) UpdateEmployee(ctx context.Context, id int64, e domain.Employee, password string) (domain.Employee, error) {
	current, err := s.employees.Get(ctx, id)
	if err != nil {
		return domain.Employee{}, err
	}
	e.ID = id
	e.Email = domain.NormalizeEmail(e.Email)
	e.PasswordHash = current.PasswordHash

	violations := e.ValidateInvariants()
	if password != "" {
		if err := domain.ValidatePassword(password); err != nil {
			violations = append(violations, err)
		}
	}
	if err := domain.NewValidationError(violations...); err != nil {
		return domain.Employee{}, err
	}
	if password != "" {
		if e.PasswordHash, err = s.encoder.Hash(password); err != nil {
			return domain.Employee{}, err
		}
	}
	if err := s.employees.Update(ctx, &e); err != nil {
		return domain.Employee{}, err
	}
	return e, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	return s.employees.Delete(ctx, id)
}

func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	exists, err := s.identities.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.ErrEmailTaken
	}
	return nil
}

// IsEmailTaken сообщает, является ли ошибка конфликтом email.
func IsEmailTaken(err error) bool {
	return errors.Is(err, domain.ErrEmailTaken)
}
