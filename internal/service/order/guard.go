package order

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

// Guard — единственная точка входа для вызывающих: загружает цель,
// применяет Policy и только затем вызывает Service.
type Guard struct {
	service *Service
	policy  Policy
}

// NewGuard создаёт фасад с политикой доступа поверх сервиса заказов.
func NewGuard(service *Service) *Guard {
	return &Guard{service: service}
}

// ListAll возвращает все заказы.
func (g *Guard) ListAll(ctx context.Context, caller domain.Identity, page domain.PageRequest) (domain.Page[domain.Order], error) {
	if err := g.authorize(caller, ActionReadAll, Target{}); err != nil {
		return domain.Page[domain.Order]{}, err
	}
	return g.service.List(ctx, domain.OrderFilter{}, page)
}

// Get возвращает заказ; отсутствующий заказ даёт NotFound раньше проверки владельца.
func (g *Guard) Get(ctx context.Context, caller domain.Identity, id int64) (*domain.Order, error) {
	return g.load(ctx, caller, ActionRead, id)
}

// ListByClient возвращает заказы клиента.
func (g *Guard) ListByClient(ctx context.Context, caller domain.Identity, clientID int64, page domain.PageRequest) (domain.Page[domain.Order], error) {
	if err := g.authorize(caller, ActionListByClient, Target{ClientID: clientID}); err != nil {
		return domain.Page[domain.Order]{}, err
	}
	return g.service.ListByClient(ctx, clientID, page)
}

// ListByEmployee возвращает заказы, одобренные сотрудником.
func (g *Guard) ListByEmployee(ctx context.Context, caller domain.Identity, employeeID int64, page domain.PageRequest) (domain.Page[domain.Order], error) {
	if err := g.authorize(caller, ActionListByEmployee, Target{}); err != nil {
		return domain.Page[domain.Order]{}, err
	}
	return g.service.ListByEmployee(ctx, employeeID, page)
}

// ListByStatus возвращает заказы по флагу одобрения.
func (g *Guard) ListByStatus(ctx context.Context, caller domain.Identity, approved bool, page domain.PageRequest) (domain.Page[domain.Order], error) {
	if err := g.authorize(caller, ActionListByStatus, Target{}); err != nil {
		return domain.Page[domain.Order]{}, err
	}
	return g.service.List(ctx, domain.OrderFilter{Approved: &approved}, page)
}

// Create создаёт заказ.
func (g *Guard) Create(ctx context.Context, caller domain.Identity, in Input) (*domain.Order, error) {
	if err := g.authorize(caller, ActionCreate, Target{ClientID: in.ClientID}); err != nil {
		return nil, err
	}
	return g.service.Create(WithActor(ctx, caller.Email()), in)
}

// Update заменяет клиента и позиции заказа.
func (g *Guard) Update(ctx context.Context, caller domain.Identity, id int64, in Input) (*domain.Order, error) {
	current, err := g.load(ctx, caller, ActionUpdate, id)
	if err != nil {
		return nil, err
	}
	return g.service.Update(WithActor(ctx, caller.Email()), current, in)
}

// Delete удаляет заказ.
func (g *Guard) Delete(ctx context.Context, caller domain.Identity, id int64) error {
	current, err := g.load(ctx, caller, ActionDelete, id)
	if err != nil {
		return err
	}
	return g.service.Delete(WithActor(ctx, caller.Email()), current)
}

// Approve одобряет заказ от имени вызывающего сотрудника.
func (g *Guard) Approve(ctx context.Context, caller domain.Identity, id int64) (*domain.Order, error) {
	current, err := g.load(ctx, caller, ActionApprove, id)
	if err != nil {
		return nil, err
	}
	employee, ok := caller.AsEmployee()
	if !ok {
		return nil, &AccessDeniedError{Action: ActionApprove, Role: caller.Role(), Reason: "caller is not an employee"}
	}
	return g.service.Approve(WithActor(ctx, caller.Email()), current, employee.ID)
}

// Timeline возвращает историю заказа по тем же правилам, что и чтение заказа.
func (g *Guard) Timeline(ctx context.Context, caller domain.Identity, id int64) ([]domain.TimelineEvent, error) {
	if _, err := g.load(ctx, caller, ActionRead, id); err != nil {
		return nil, err
	}
	return g.service.Timeline(ctx, id)
}

func (g *Guard) load(ctx context.Context, caller domain.Identity, action Action, id int64) (*domain.Order, error) {
	if caller.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	// Роль проверяется до загрузки, чтобы не раскрывать существование заказа.
	if employeeOnly(action) && caller.Role() != domain.RoleEmployee {
		if err := g.authorize(caller, action, Target{}); err != nil {
			return nil, err
		}
	}
	order, err := g.service.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := g.authorize(caller, action, Target{Order: order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (g *Guard) authorize(caller domain.Identity, action Action, target Target) error {
	err := g.policy.Authorize(caller, action, target)
	if err == nil {
		return nil
	}

	var denied *AccessDeniedError
	if errors.As(err, &denied) {
		fields := log.Fields{
			"action":    action,
			"role":      caller.Role(),
			"caller_id": caller.ID(),
			"reason":    denied.Reason,
		}
		if target.Order != nil {
			fields["order_id"] = target.Order.ID
		}
		g.service.logger.WithFields(fields).Warn("order access denied")
		if g.service.metrics != nil {
			g.service.metrics.RecordDenied(string(action), string(caller.Role()))
		}
	}
	return err
}
