package domain

import "context"

// OrderFilter ограничивает выборку заказов; nil-поля не фильтруют.
type OrderFilter struct {
	ClientID   *int64
	EmployeeID *int64
	Approved   *bool
}

// OutboxEvent строит outbox-сообщение по состоянию заказа после записи,
// когда идентификаторы и версия уже выданы. Вызывается внутри транзакции.
type OutboxEvent func(order *Order) (OutboxMessage, error)

// OrderRepository описывает требования к хранилищу заказов.
// Каждая мутация — одна транзакция: заказ, позиции и outbox-сообщение (если event != nil).
type OrderRepository interface {
	// Create сохраняет заказ с позициями и проставляет выданные идентификаторы.
	Create(ctx context.Context, order *Order, event OutboxEvent) error
	// Get возвращает заказ по идентификатору или NotFoundError.
	Get(ctx context.Context, id int64) (*Order, error)
	// Save заменяет заказ и все его позиции с учётом optimistic locking
	// и увеличивает Version.
	Save(ctx context.Context, order *Order, event OutboxEvent) error
	// Delete удаляет заказ, позиции удаляются каскадно.
	Delete(ctx context.Context, order *Order, event OutboxEvent) error
	// List возвращает страницу заказов, отсортированную по id.
	List(ctx context.Context, filter OrderFilter, page PageRequest) (Page[Order], error)
}

// ApplianceFilter задаёт поиск по каталогу.
type ApplianceFilter struct {
	// Query ищет подстроку в названии или модели без учёта регистра.
	Query          string
	Category       Category
	PowerType      PowerType
	ManufacturerID *int64
}

// ApplianceRepository — хранилище позиций каталога.
type ApplianceRepository interface {
	Get(ctx context.Context, id int64) (Appliance, error)
	List(ctx context.Context, filter ApplianceFilter, page PageRequest) (Page[Appliance], error)
	Create(ctx context.Context, appliance *Appliance) error
	Update(ctx context.Context, appliance *Appliance) error
	// Delete возвращает ErrResourceInUse, если техника есть в заказах.
	Delete(ctx context.Context, id int64) error
}

// ManufacturerRepository — хранилище производителей, имя уникально.
type ManufacturerRepository interface {
	Get(ctx context.Context, id int64) (Manufacturer, error)
	List(ctx context.Context, query string, page PageRequest) (Page[Manufacturer], error)
	Create(ctx context.Context, manufacturer *Manufacturer) error
	Update(ctx context.Context, manufacturer *Manufacturer) error
	Delete(ctx context.Context, id int64) error
}

// ClientRepository — хранилище клиентов.
type ClientRepository interface {
	Get(ctx context.Context, id int64) (Client, error)
	List(ctx context.Context, query string, page PageRequest) (Page[Client], error)
	// Create возвращает ErrEmailTaken, если email занят любым пользователем.
	Create(ctx context.Context, client *Client) error
	Update(ctx context.Context, client *Client) error
	Delete(ctx context.Context, id int64) error
}

// EmployeeRepository — хранилище сотрудников.
type EmployeeRepository interface {
	Get(ctx context.Context, id int64) (Employee, error)
	List(ctx context.Context, query string, page PageRequest) (Page[Employee], error)
	Create(ctx context.Context, employee *Employee) error
	Update(ctx context.Context, employee *Employee) error
	Delete(ctx context.Context, id int64) error
}

// IdentityRepository разрешает пользователя любого вида по email.
type IdentityRepository interface {
	FindByEmail(ctx context.Context, email string) (Identity, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}
