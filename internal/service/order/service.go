package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
	"github.com/vladislavdragonenkov/appliances/internal/metrics"
)

// LineInput — позиция из запроса. Нулевой Amount означает «не указан».
type LineInput struct {
	ApplianceID int64
	Quantity    int64
	Amount      decimal.Decimal
}

// Input — данные для создания и обновления заказа.
type Input struct {
	ClientID int64
	Lines    []LineInput
}

// Options задаёт необязательные зависимости Service.
type Options struct {
	Logger   *log.Entry
	Timeline domain.TimelineRepository
	Metrics  *metrics.OrderMetrics
	Clock    func() time.Time
}

// Option настраивает Service.
type Option func(*Options)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithTimeline включает запись событий жизненного цикла.
func WithTimeline(repo domain.TimelineRepository) Option {
	return func(opts *Options) {
		opts.Timeline = repo
	}
}

// WithMetrics включает метрики операций.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithClock подменяет источник времени.
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.Clock = clock
	}
}

// Service реализует жизненный цикл заказа поверх хранилищ.
// Проверки доступа выполняет Guard, Service их не делает.
type Service struct {
	orders     domain.OrderRepository
	appliances domain.ApplianceRepository
	clients    domain.ClientRepository
	employees  domain.EmployeeRepository
	timeline   domain.TimelineRepository
	metrics    *metrics.OrderMetrics
	logger     *log.Entry
	now        func() time.Time
}

// NewService создаёт сервис заказов.
func NewService(
	orders domain.OrderRepository,
	appliances domain.ApplianceRepository,
	clients domain.ClientRepository,
	employees domain.EmployeeRepository,
	options ...Option,
) *Service {
	var opts Options
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "order-service")
	}
	clock := opts.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		orders:     orders,
		appliances: appliances,
		clients:    clients,
		employees:  employees,
		timeline:   opts.Timeline,
		metrics:    opts.Metrics,
		logger:     logger,
		now:        clock,
	}
}

// Get возвращает заказ по идентификатору.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.orders.Get(ctx, id)
}

// List возвращает страницу заказов по фильтру.
func (s *Service) List(ctx context.Context, filter domain.OrderFilter, page domain.PageRequest) (domain.Page[domain.Order], error) {
	return s.orders.List(ctx, filter, page)
}

// ListByClient проверяет, что клиент существует, и возвращает его заказы.
func (s *Service) ListByClient(ctx context.Context, clientID int64, page domain.PageRequest) (domain.Page[domain.Order], error) {
	if _, err := s.clients.Get(ctx, clientID); err != nil {
		return domain.Page[domain.Order]{}, err
	}
	return s.orders.List(ctx, domain.OrderFilter{ClientID: &clientID}, page)
}

// ListByEmployee проверяет, что сотрудник существует, и возвращает одобренные им заказы.
func (s *Service) ListByEmployee(ctx context.Context, employeeID int64, page domain.PageRequest) (domain.Page[domain.Order], error) {
	if _, err := s.employees.Get(ctx, employeeID); err != nil {
		return domain.Page[domain.Order]{}, err
	}
	return s.orders.List(ctx, domain.OrderFilter{EmployeeID: &employeeID}, page)
}

// Create создаёт заказ в состоянии PENDING.
func (s *Service) Create(ctx context.Context, in Input) (created *domain.Order, err error) {
	defer s.observe("create", time.Now(), &err)

	if len(in.Lines) == 0 {
		return nil, domain.NewValidationError(domain.ErrItemsRequired)
	}

	client, err := s.clients.Get(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	lines, err := s.buildLines(ctx, in.Lines)
	if err != nil {
		return nil, err
	}

	order, err := domain.NewOrder(client, lines)
	if err != nil {
		return nil, err
	}
	now := s.now()
	order.CreatedAt = now
	order.UpdatedAt = now

	if err := s.orders.Create(ctx, order, outboxEvent(domain.EventOrderCreated, actorFrom(ctx), now)); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.recordOutbox()
	s.appendTimeline(ctx, order.ID, domain.EventOrderCreated, "")

	s.logger.WithFields(log.Fields{
		"order_id":  order.ID,
		"client_id": client.ID,
		"lines":     len(lines),
	}).Info("order created")
	return order, nil
}

// Update заменяет клиента и весь набор позиций загруженного заказа.
// Старые позиции удаляются, новые получают новые идентификаторы.
func (s *Service) Update(ctx context.Context, current *domain.Order, in Input) (updated *domain.Order, err error) {
	defer s.observe("update", time.Now(), &err)

	if len(in.Lines) == 0 {
		return nil, domain.NewValidationError(domain.ErrItemsRequired)
	}

	client, err := s.clients.Get(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	lines, err := s.buildLines(ctx, in.Lines)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	next.Client = client
	next.ReplaceLines(lines)
	if err := domain.NewValidationError(next.ValidateInvariants()...); err != nil {
		return nil, err
	}
	now := s.now()
	next.UpdatedAt = now

	if err := s.orders.Save(ctx, next, outboxEvent(domain.EventOrderUpdated, actorFrom(ctx), now)); err != nil {
		return nil, fmt.Errorf("update order %d: %w", current.ID, err)
	}
	s.recordOutbox()
	s.appendTimeline(ctx, next.ID, domain.EventOrderUpdated, "")

	s.logger.WithFields(log.Fields{
		"order_id": next.ID,
		"version":  next.Version,
	}).Info("order updated")
	return next, nil
}

// Delete удаляет заказ вместе с позициями.
func (s *Service) Delete(ctx context.Context, current *domain.Order) (err error) {
	defer s.observe("delete", time.Now(), &err)

	now := s.now()
	if err := s.orders.Delete(ctx, current, outboxEvent(domain.EventOrderDeleted, actorFrom(ctx), now)); err != nil {
		return fmt.Errorf("delete order %d: %w", current.ID, err)
	}
	s.recordOutbox()
	s.appendTimeline(ctx, current.ID, domain.EventOrderDeleted, "")

	s.logger.WithField("order_id", current.ID).Info("order deleted")
	return nil
}

// Approve одобряет заказ от имени сотрудника. Повторное одобрение даёт ErrOrderAlreadyApproved.
func (s *Service) Approve(ctx context.Context, current *domain.Order, employeeID int64) (approved *domain.Order, err error) {
	defer s.observe("approve", time.Now(), &err)

	employee, err := s.employees.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := next.Approve(employee); err != nil {
		return nil, err
	}
	now := s.now()
	next.UpdatedAt = now

	if err := s.orders.Save(ctx, next, outboxEvent(domain.EventOrderApproved, actorFrom(ctx), now)); err != nil {
		return nil, fmt.Errorf("approve order %d: %w", current.ID, err)
	}
	s.recordOutbox()
	s.appendTimeline(ctx, next.ID, domain.EventOrderApproved, fmt.Sprintf("approved by employee %d", employee.ID))
	if s.metrics != nil {
		s.metrics.RecordApproved()
	}

	s.logger.WithFields(log.Fields{
		"order_id":    next.ID,
		"employee_id": employee.ID,
	}).Info("order approved")
	return next, nil
}

// Timeline возвращает историю заказа. Без timeline-хранилища история пуста.
func (s *Service) Timeline(ctx context.Context, orderID int64) ([]domain.TimelineEvent, error) {
	if s.timeline == nil {
		return []domain.TimelineEvent{}, nil
	}
	return s.timeline.List(ctx, orderID)
}

func (s *Service) buildLines(ctx context.Context, inputs []LineInput) ([]domain.OrderLine, error) {
	lines := make([]domain.OrderLine, 0, len(inputs))
	for _, in := range inputs {
		appliance, err := s.appliances.Get(ctx, in.ApplianceID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, domain.NewOrderLine(appliance, in.Quantity, in.Amount))
	}
	return lines, nil
}

// appendTimeline пишет событие после коммита; ошибка не отменяет операцию.
func (s *Service) appendTimeline(ctx context.Context, orderID int64, eventType, reason string) {
	if s.timeline == nil {
		return
	}
	event := domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Actor:    actorFrom(ctx),
		Reason:   reason,
		Occurred: s.now(),
	}
	if err := s.timeline.Append(ctx, event); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("failed to append timeline event")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordTimelineEvent()
	}
}

func (s *Service) recordOutbox() {
	if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}

func (s *Service) observe(operation string, start time.Time, err *error) {
	if s.metrics != nil {
		s.metrics.RecordOperation(operation, *err, time.Since(start))
	}
}
