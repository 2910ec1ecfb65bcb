package memory

import (
	"context"
	"strings"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

type manufacturerRepositoryInMemory struct{ s *Store }

func (r *manufacturerRepositoryInMemory) Get(_ context.Context, id int64) (domain.Manufacturer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.manufacturers[id]
	if !ok {
		return domain.Manufacturer{}, domain.NewNotFound("Manufacturer", "id", id)
	}
	return m, nil
}

func (r *manufacturerRepositoryInMemory) List(_ context.Context, query string, page domain.PageRequest) (domain.Page[domain.Manufacturer], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Manufacturer, 0, len(r.s.manufacturers))
	for _, m := range r.s.manufacturers {
		if query != "" && !containsFold(m.Name, query) && !containsFold(m.Country, query) {
			continue
		}
		result = append(result, m)
	}
	sortedByID(result, func(m domain.Manufacturer) int64 { return m.ID }, page)
	return domain.Paginate(result, page), nil
}

func (r *manufacturerRepositoryInMemory) Create(_ context.Context, m *domain.Manufacturer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.manufacturerNameTaken(m.Name, 0) {
		return domain.ErrManufacturerExists
	}
	r.s.manufacturerSeq++
	m.ID = r.s.manufacturerSeq
	r.s.manufacturers[m.ID] = *m
	return nil
}

func (r *manufacturerRepositoryInMemory) Update(_ context.Context, m *domain.Manufacturer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.manufacturers[m.ID]; !ok {
		return domain.NewNotFound("Manufacturer", "id", m.ID)
	}
	if r.s.manufacturerNameTaken(m.Name, m.ID) {
		return domain.ErrManufacturerExists
	}
	r.s.manufacturers[m.ID] = *m
	return nil
}

func (r *manufacturerRepositoryInMemory) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.manufacturers[id]; !ok {
		return domain.NewNotFound("Manufacturer", "id", id)
	}
	for _, a := range r.s.appliances {
		if a.Manufacturer.ID == id {
			return domain.ErrResourceInUse
		}
	}
	delete(r.s.manufacturers, id)
	return nil
}

func (s *Store) manufacturerNameTaken(name string, exceptID int64) bool {
	for _, m := range s.manufacturers {
		if m.ID != exceptID && strings.EqualFold(m.Name, name) {
			return true
		}
	}
	return false
}

type applianceRepositoryInMemory struct{ s *Store }

func (r *applianceRepositoryInMemory) Get(_ context.Context, id int64) (domain.Appliance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.hydrateAppliance(id)
	if !ok {
		return domain.Appliance{}, domain.NewNotFound("Appliance", "id", id)
	}
	return a, nil
}

func (r *applianceRepositoryInMemory) List(_ context.Context, filter domain.ApplianceFilter, page domain.PageRequest) (domain.Page[domain.Appliance], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Appliance, 0, len(r.s.appliances))
	for id := range r.s.appliances {
		a, _ := r.s.hydrateAppliance(id)
		if filter.Query != "" && !containsFold(a.Name, filter.Query) && !containsFold(a.Model, filter.Query) {
			continue
		}
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		if filter.PowerType != "" && a.PowerType != filter.PowerType {
			continue
		}
		if filter.ManufacturerID != nil && a.Manufacturer.ID != *filter.ManufacturerID {
			continue
		}
		result = append(result, a)
	}
	sortedByID(result, func(a domain.Appliance) int64 { return a.ID }, page)
	return domain.Paginate(result, page), nil
}

func (r *applianceRepositoryInMemory) Create(_ context.Context, a *domain.Appliance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.manufacturers[a.Manufacturer.ID]
	if !ok {
		return domain.NewNotFound("Manufacturer", "id", a.Manufacturer.ID)
	}
	r.s.applianceSeq++
	a.ID = r.s.applianceSeq
	a.Manufacturer = m
	r.s.appliances[a.ID] = *a
	return nil
}

func (r *applianceRepositoryInMemory) Update(_ context.Context, a *domain.Appliance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.appliances[a.ID]; !ok {
		return domain.NewNotFound("Appliance", "id", a.ID)
	}
	m, ok := r.s.manufacturers[a.Manufacturer.ID]
	if !ok {
		return domain.NewNotFound("Manufacturer", "id", a.Manufacturer.ID)
	}
	a.Manufacturer = m
	r.s.appliances[a.ID] = *a
	return nil
}

func (r *applianceRepositoryInMemory) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.appliances[id]; !ok {
		return domain.NewNotFound("Appliance", "id", id)
	}
	for _, o := range r.s.orders {
		for _, line := range o.Lines() {
			if line.Appliance.ID == id {
				return domain.ErrResourceInUse
			}
		}
	}
	delete(r.s.appliances, id)
	return nil
}

// hydrateAppliance подставляет актуальные данные производителя. Вызывается под блокировкой.
func (s *Store) hydrateAppliance(id int64) (domain.Appliance, bool) {
	a, ok := s.appliances[id]
	if !ok {
		return domain.Appliance{}, false
	}
	if m, ok := s.manufacturers[a.Manufacturer.ID]; ok {
		a.Manufacturer = m
	}
	return a, true
}

var (
	_ domain.ApplianceRepository    = (*applianceRepositoryInMemory)(nil)
	_ domain.ManufacturerRepository = (*manufacturerRepositoryInMemory)(nil)
)
