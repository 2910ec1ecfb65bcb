package memory

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

// Store — общее in-memory состояние всех репозиториев. Один мьютекс нужен,
// чтобы проверки ссылочной целостности и запись заказа с outbox были атомарны.
type Store struct {
	mu sync.RWMutex

	manufacturerSeq int64
	applianceSeq    int64
	userSeq         int64
	orderSeq        int64
	lineSeq         int64
	outboxSeq       int64

	manufacturers map[int64]domain.Manufacturer
	appliances    map[int64]domain.Appliance
	clients       map[int64]domain.Client
	employees     map[int64]domain.Employee
	orders        map[int64]*domain.Order
	outbox        map[string]*outboxRecord
	timeline      map[int64][]domain.TimelineEvent
}

// NewStore создаёт пустое хранилище для локальной разработки и тестов.
func NewStore() *Store {
	return &Store{
		manufacturers: make(map[int64]domain.Manufacturer),
		appliances:    make(map[int64]domain.Appliance),
		clients:       make(map[int64]domain.Client),
		employees:     make(map[int64]domain.Employee),
		orders:        make(map[int64]*domain.Order),
		outbox:        make(map[string]*outboxRecord),
		timeline:      make(map[int64][]domain.TimelineEvent),
	}
}

func (s *Store) Orders() domain.OrderRepository               { return &orderRepositoryInMemory{s} }
func (s *Store) Appliances() domain.ApplianceRepository       { return &applianceRepositoryInMemory{s} }
func (s *Store) Manufacturers() domain.ManufacturerRepository { return &manufacturerRepositoryInMemory{s} }
func (s *Store) Clients() domain.ClientRepository             { return &clientRepositoryInMemory{s} }
func (s *Store) Employees() domain.EmployeeRepository         { return &employeeRepositoryInMemory{s} }
func (s *Store) Identities() domain.IdentityRepository        { return &identityRepositoryInMemory{s} }
func (s *Store) Timeline() domain.TimelineRepository          { return &timelineRepositoryInMemory{s} }

// Outbox возвращает outbox-репозиторий; AllPending доступен для тестов.
func (s *Store) Outbox() *OutboxRepository { return &OutboxRepository{s} }

// sortedByID сортирует по id, по умолчанию по убыванию.
func sortedByID[T any](items []T, id func(T) int64, req domain.PageRequest) []T {
	slices.SortFunc(items, func(a, b T) int {
		if req.Ascending {
			return cmp.Compare(id(a), id(b))
		}
		return cmp.Compare(id(b), id(a))
	})
	return items
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
