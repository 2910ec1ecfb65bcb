package memory

import (
	"context"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

type clientRepositoryInMemory struct{ s *Store }

func (r *clientRepositoryInMemory) Get(_ context.Context, id int64) (domain.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.clients[id]
	if !ok {
		return domain.Client{}, domain.NewNotFound("Client", "id", id)
	}
	return c, nil
}

func (r *clientRepositoryInMemory) List(_ context.Context, query string, page domain.PageRequest) (domain.Page[domain.Client], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Client, 0, len(r.s.clients))
	for _, c := range r.s.clients {
		if query != "" && !matchesUser(c.User, query) {
			continue
		}
		result = append(result, c)
	}
	sortedByID(result, func(c domain.Client) int64 { return c.ID }, page)
	return domain.Paginate(result, page), nil
}

func (r *clientRepositoryInMemory) Create(_ context.Context, c *domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c.Email = domain.NormalizeEmail(c.Email)
	if r.s.emailTaken(c.Email, 0) {
		return domain.ErrEmailTaken
	}
	r.s.userSeq++
	c.ID = r.s.userSeq
	r.s.clients[c.ID] = *c
	return nil
}

func (r *clientRepositoryInMemory) Update(_ context.Context, c *domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.clients[c.ID]; !ok {
		return domain.NewNotFound("Client", "id", c.ID)
	}
	c.Email = domain.NormalizeEmail(c.Email)
	if r.s.emailTaken(c.Email, c.ID) {
		return domain.ErrEmailTaken
	}
	r.s.clients[c.ID] = *c
	return nil
}

func (r *clientRepositoryInMemory) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.clients[id]; !ok {
		return domain.NewNotFound("Client", "id", id)
	}
	for _, o := range r.s.orders {
		if o.Client.ID == id {
			return domain.ErrResourceInUse
		}
	}
	delete(r.s.clients, id)
	return nil
}

type employeeRepositoryInMemory struct{ s *Store }

func (r *employeeRepositoryInMemory) Get(_ context.Context, id int64) (domain.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.employees[id]
	if !ok {
		return domain.Employee{}, domain.NewNotFound("Employee", "id", id)
	}
	return e, nil
}

func (r *employeeRepositoryInMemory) List(_ context.Context, query string, page domain.PageRequest) (domain.Page[domain.Employee], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Employee, 0, len(r.s.employees))
	for _, e := range r.s.employees {
		if query != "" && !matchesUser(e.User, query) && !containsFold(e.Position, query) {
			continue
		}
		result = append(result, e)
	}
	sortedByID(result, func(e domain.Employee) int64 { return e.ID }, page)
	return domain.Paginate(result, page), nil
}

func (r *employeeRepositoryInMemory) Create(_ context.Context, e *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e.Email = domain.NormalizeEmail(e.Email)
	if r.s.emailTaken(e.Email, 0) {
		return domain.ErrEmailTaken
	}
	r.s.userSeq++
	e.ID = r.s.userSeq
	r.s.employees[e.ID] = *e
	return nil
}

func (r *employeeRepositoryInMemory) Update(_ context.Context, e *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.employees[e.ID]; !ok {
		return domain.NewNotFound("Employee", "id", e.ID)
	}
	e.Email = domain.NormalizeEmail(e.Email)
	if r.s.emailTaken(e.Email, e.ID) {
		return domain.ErrEmailTaken
	}
	r.s.employees[e.ID] = *e
	return nil
}

func (r *employeeRepositoryInMemory) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.employees[id]; !ok {
		return domain.NewNotFound("Employee", "id", id)
	}
	for _, o := range r.s.orders {
		if o.Employee != nil && o.Employee.ID == id {
			return domain.ErrResourceInUse
		}
	}
	delete(r.s.employees, id)
	return nil
}

type identityRepositoryInMemory struct{ s *Store }

// FindByEmail ищет пользователя среди клиентов и сотрудников.
func (r *identityRepositoryInMemory) FindByEmail(_ context.Context, email string) (domain.Identity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = domain.NormalizeEmail(email)
	for _, e := range r.s.employees {
		if e.Email == email {
			return domain.EmployeeIdentity(e), nil
		}
	}
	for _, c := range r.s.clients {
		if c.Email == email {
			return domain.ClientIdentity(c), nil
		}
	}
	return domain.Identity{}, domain.NewNotFound("User", "email", email)
}

func (r *identityRepositoryInMemory) EmailExists(_ context.Context, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.emailTaken(domain.NormalizeEmail(email), 0), nil
}

// emailTaken проверяет уникальность email среди всех пользователей. Вызывается под блокировкой.
func (s *Store) emailTaken(email string, exceptID int64) bool {
	for _, c := range s.clients {
		if c.ID != exceptID && c.Email == email {
			return true
		}
	}
	for _, e := range s.employees {
		if e.ID != exceptID && e.Email == email {
			return true
		}
	}
	return false
}

func matchesUser(u domain.User, query string) bool {
	return containsFold(u.FirstName, query) || containsFold(u.LastName, query) || containsFold(u.Email, query)
}

var (
	_ domain.ClientRepository   = (*clientRepositoryInMemory)(nil)
	_ domain.EmployeeRepository = (*employeeRepositoryInMemory)(nil)
	_ domain.IdentityRepository = (*identityRepositoryInMemory)(nil)
)
