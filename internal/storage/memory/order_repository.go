package memory

import (
	"context"
	"time"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

// orderRepositoryInMemory хранит заказы в Store; запись outbox-сообщения
// выполняется под той же блокировкой, что и запись заказа.
type orderRepositoryInMemory struct{ s *Store }

// Create сохраняет новый заказ и выдаёт идентификаторы заказу и позициям.
func (r *orderRepositoryInMemory) Create(_ context.Context, order *domain.Order, event domain.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkOrderReferences(order); err != nil {
		return err
	}

	id := r.s.orderSeq + 1
	order.AssignID(id)
	r.s.assignLineIDs(order)
	order.Version = 1

	msg, err := buildEvent(order, event)
	if err != nil {
		return err
	}

	r.s.orderSeq = id
	r.s.orders[id] = order.Clone()
	r.s.enqueue(msg)
	return nil
}

// Get возвращает копию заказа с актуальными данными клиента, сотрудника и техники.
func (r *orderRepositoryInMemory) Get(_ context.Context, id int64) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	order, ok := r.s.orders[id]
	if !ok {
		return nil, domain.NewNotFound("Order", "id", id)
	}
	return r.s.hydrateOrder(order), nil
}

// Save перезаписывает заказ, проверяя версию (optimistic locking).
func (r *orderRepositoryInMemory) Save(_ context.Context, order *domain.Order, event domain.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.orders[order.ID]
	if !ok {
		return domain.NewNotFound("Order", "id", order.ID)
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}
	if err := r.s.checkOrderReferences(order); err != nil {
		return err
	}

	next := order.Clone()
	next.AssignID(order.ID)
	r.s.assignLineIDs(next)
	next.Version++

	msg, err := buildEvent(next, event)
	if err != nil {
		return err
	}

	r.s.orders[order.ID] = next
	r.s.enqueue(msg)

	order.Version = next.Version
	for i, line := range next.Lines() {
		order.AssignLineID(i, line.ID)
	}
	return nil
}

// Delete удаляет заказ; позиции хранятся внутри заказа и удаляются вместе с ним.
func (r *orderRepositoryInMemory) Delete(_ context.Context, order *domain.Order, event domain.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[order.ID]; !ok {
		return domain.NewNotFound("Order", "id", order.ID)
	}
	msg, err := buildEvent(order, event)
	if err != nil {
		return err
	}

	delete(r.s.orders, order.ID)
	r.s.enqueue(msg)
	return nil
}

// List возвращает страницу заказов по фильтру.
func (r *orderRepositoryInMemory) List(_ context.Context, filter domain.OrderFilter, page domain.PageRequest) (domain.Page[domain.Order], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.s.orders))
	for _, order := range r.s.orders {
		if filter.ClientID != nil && order.Client.ID != *filter.ClientID {
			continue
		}
		if filter.EmployeeID != nil && (order.Employee == nil || order.Employee.ID != *filter.EmployeeID) {
			continue
		}
		if filter.Approved != nil && order.Approved != *filter.Approved {
			continue
		}
		result = append(result, *r.s.hydrateOrder(order))
	}
	sortedByID(result, func(o domain.Order) int64 { return o.ID }, page)
	return domain.Paginate(result, page), nil
}

// checkOrderReferences повторяет проверки внешних ключей. Вызывается под блокировкой.
func (s *Store) checkOrderReferences(order *domain.Order) error {
	if _, ok := s.clients[order.Client.ID]; !ok {
		return domain.NewNotFound("Client", "id", order.Client.ID)
	}
	if order.Employee != nil {
		if _, ok := s.employees[order.Employee.ID]; !ok {
			return domain.NewNotFound("Employee", "id", order.Employee.ID)
		}
	}
	for _, line := range order.Lines() {
		if _, ok := s.appliances[line.Appliance.ID]; !ok {
			return domain.NewNotFound("Appliance", "id", line.Appliance.ID)
		}
	}
	return nil
}

// assignLineIDs выдаёт идентификаторы новым позициям. Вызывается под блокировкой.
func (s *Store) assignLineIDs(order *domain.Order) {
	for i, line := range order.Lines() {
		if line.ID == 0 {
			s.lineSeq++
			order.AssignLineID(i, s.lineSeq)
		}
	}
}

func (s *Store) hydrateOrder(stored *domain.Order) *domain.Order {
	order := stored.Clone()
	if c, ok := s.clients[order.Client.ID]; ok {
		order.Client = c
	}
	if order.Employee != nil {
		if e, ok := s.employees[order.Employee.ID]; ok {
			order.Employee = &e
		}
	}
	lines := order.Lines()
	for i := range lines {
		if a, ok := s.hydrateAppliance(lines[i].Appliance.ID); ok {
			lines[i].Appliance = a
		}
	}
	order.ReplaceLines(lines)
	return order
}

func buildEvent(order *domain.Order, event domain.OutboxEvent) (*domain.OutboxMessage, error) {
	if event == nil {
		return nil, nil
	}
	msg, err := event(order)
	if err != nil {
		return nil, err
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	return &msg, nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
