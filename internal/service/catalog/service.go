package catalog

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

// Service — CRUD каталога: техника и производители.
type Service struct {
	appliances    domain.ApplianceRepository
	manufacturers domain.ManufacturerRepository
	logger        *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(appliances domain.ApplianceRepository, manufacturers domain.ManufacturerRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "catalog-service")
	}
	return &Service{appliances: appliances, manufacturers: manufacturers, logger: logger}
}

func (s *Service) ListAppliances(ctx context.Context, filter domain.ApplianceFilter, page domain.PageRequest) (domain.Page[domain.Appliance], error) {
	return s.appliances.List(ctx, filter, page)
}

func (s *Service) GetAppliance(ctx context.Context, id int64) (domain.Appliance, error) {
	return s.appliances.Get(ctx, id)
}

// CreateAppliance проверяет поля и наличие производителя.
func (s *Service) CreateAppliance(ctx context.Context, a domain.Appliance) (domain.Appliance, error) {
	if err := domain.NewValidationError(a.ValidateInvariants()...); err != nil {
		return domain.Appliance{}, err
	}
	manufacturer, err := s.manufacturers.Get(ctx, a.Manufacturer.ID)
	if err != nil {
		return domain.Appliance{}, err
	}
	a.Manufacturer = manufacturer
	if err := s.appliances.Create(ctx, &a); err != nil {
		return domain.Appliance{}, fmt.Errorf("create appliance: %w", err)
	}
	s.logger.WithField("appliance_id", a.ID).Info("appliance created")
	return a, nil
}

func (s *Service) UpdateAppliance(ctx context.Context, id int64, a domain.Appliance) (domain.Appliance, error) {
	a.ID = id
	if err := domain.NewValidationError(a.ValidateInvariants()...); err != nil {
		return domain.Appliance{}, err
	}
	if _, err := s.appliances.Get(ctx, id); err != nil {
		return domain.Appliance{}, err
	}
	manufacturer, err := s.manufacturers.Get(ctx, a.Manufacturer.ID)
	if err != nil {
		return domain.Appliance{}, err
	}
	a.Manufacturer = manufacturer
	if err := s.appliances.Update(ctx, &a); err != nil {
		return domain.Appliance{}, fmt.Errorf("update appliance %d: %w", id, err)
	}
	return a, nil
}

// DeleteAppliance отказывает, если техника есть в заказах.
func (s *Service) DeleteAppliance(ctx context.Context, id int64) error {
	if err := s.appliances.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("appliance_id", id).Info("appliance deleted")
	return nil
}

func (s *Service) ListManufacturers(ctx context.Context, query string, page domain.PageRequest) (domain.Page[domain.Manufacturer], error) {
	return s.manufacturers.List(ctx, query, page)
}

func (s *Service) GetManufacturer(ctx context.Context, id int64) (domain.Manufacturer, error) {
	return s.manufacturers.Get(ctx, id)
}

func (s *Service) CreateManufacturer(ctx context.Context, m domain.Manufacturer) (domain.Manufacturer, error) {
	if err := domain.NewValidationError(m.ValidateInvariants()...); err != nil {
		return domain.Manufacturer{}, err
	}
	if err := s.manufacturers.Create(ctx, &m); err != nil {
		return domain.Manufacturer{}, err
	}
	s.logger.WithField("manufacturer_id", m.ID).Info("manufacturer created")
	return m, nil
}

func (s *Service) UpdateManufacturer(ctx context.Context, id int64, m domain.Manufacturer) (domain.Manufacturer, error) {
	m.ID = id
	if err := domain.NewValidationError(m.ValidateInvariants()...); err != nil {
		return domain.Manufacturer{}, err
	}
	if err := s.manufacturers.Update(ctx, &m); err != nil {
		return domain.Manufacturer{}, err
	}
	return m, nil
}

// DeleteManufacturer отказывает, если у производителя есть техника в каталоге.
func (s *Service) DeleteManufacturer(ctx context.Context, id int64) error {
	return s.manufacturers.Delete(ctx, id)
}
