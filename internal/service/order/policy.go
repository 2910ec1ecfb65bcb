package order

import (
	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

// Action — операция над заказами, которую проверяет политика доступа.
type Action string

const (
	ActionReadAll        Action = "read_all"
	ActionRead           Action = "read"
	ActionListByClient   Action = "list_by_client"
	ActionListByEmployee Action = "list_by_employee"
	ActionListByStatus   Action = "list_by_status"
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionApprove        Action = "approve"
)

// Target — объект проверки. Order заполняется для операций над конкретным заказом,
// ClientID — для выборки заказов клиента.
type Target struct {
	Order    *domain.Order
	ClientID int64
}

// Decision — результат проверки. Reason пишется только в лог.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// AccessDeniedError — отказ политики. Текст ошибки не раскрывает причину.
type AccessDeniedError struct {
	Action Action
	Role   domain.Role
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return domain.ErrForbidden.Error()
}

// Is позволяет сравнивать через errors.Is(err, domain.ErrForbidden).
func (e *AccessDeniedError) Is(target error) bool {
	return target == domain.ErrForbidden
}

// Policy решает, может ли вызывающий выполнить операцию над заказом.
// Не имеет состояния и не обращается к хранилищам.
type Policy struct{}

// Decide применяет таблицу решений по роли и отношению вызывающего к заказу.
func (Policy) Decide(caller domain.Identity, action Action, target Target) Decision {
	switch caller.Role() {
	case domain.RoleEmployee:
		return decideEmployee(action)
	case domain.RoleClient:
		return decideClient(caller.ID(), action, target)
	default:
		return deny("caller identity is not resolved")
	}
}

// Authorize возвращает nil, если операция разрешена, иначе *AccessDeniedError.
// Пустая идентичность даёт domain.ErrUnauthenticated.
func (p Policy) Authorize(caller domain.Identity, action Action, target Target) error {
	if caller.IsZero() {
		return domain.ErrUnauthenticated
	}
	decision := p.Decide(caller, action, target)
	if decision.Allowed {
		return nil
	}
	return &AccessDeniedError{Action: action, Role: caller.Role(), Reason: decision.Reason}
}

func decideEmployee(action Action) Decision {
	switch action {
	case ActionReadAll, ActionRead, ActionListByClient, ActionListByEmployee,
		ActionListByStatus, ActionCreate, ActionUpdate, ActionDelete, ActionApprove:
		return allow()
	default:
		return deny("unknown action")
	}
}

func decideClient(callerID int64, action Action, target Target) Decision {
	switch action {
	case ActionReadAll:
		return deny("clients cannot list all orders")
	case ActionRead:
		if !owns(callerID, target.Order) {
			return deny("order belongs to another client")
		}
		return allow()
	case ActionListByClient:
		if target.ClientID != callerID {
			return deny("clients can list only their own orders")
		}
		return allow()
	case ActionListByEmployee:
		return deny("clients cannot list orders by employee")
	case ActionListByStatus:
		// Фильтр по владельцу не применяется.
		return allow()
	case ActionCreate:
		// clientId берётся из запроса и не сверяется с вызывающим.
		return allow()
	case ActionUpdate, ActionDelete:
		if !owns(callerID, target.Order) {
			return deny("order belongs to another client")
		}
		if target.Order.Approved {
			return deny("approved order is immutable for clients")
		}
		return allow()
	case ActionApprove:
		return deny("only employees can approve orders")
	default:
		return deny("unknown action")
	}
}

// employeeOnly — операции, которые клиенту запрещены независимо от заказа.
func employeeOnly(action Action) bool {
	switch action {
	case ActionReadAll, ActionListByEmployee, ActionApprove:
		return true
	default:
		return false
	}
}

func owns(callerID int64, order *domain.Order) bool {
	return order != nil && order.Client.ID == callerID
}
