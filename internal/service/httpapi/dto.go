package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
	"github.com/vladislavdragonenkov/appliances/internal/service/order"
)

// money сериализуется числом с двумя знаками после запятой.
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(2)), nil
}

type pageResponse[T any] struct {
	Content       []T   `json:"content"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

func toPageResponse[T, R any](page domain.Page[T], mapFn func(T) R) pageResponse[R] {
	content := make([]R, 0, len(page.Content))
	for _, item := range page.Content {
		content = append(content, mapFn(item))
	}
	return pageResponse[R]{
		Content:       content,
		PageNumber:    page.PageNumber,
		PageSize:      page.PageSize,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		First:         page.First,
		Last:          page.Last,
	}
}

type manufacturerRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Country string `json:"country"`
}

func (r manufacturerRequest) toDomain() domain.Manufacturer {
	return domain.Manufacturer{Name: r.Name, Address: r.Address, Country: r.Country}
}

type manufacturerResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Country string `json:"country"`
}

func toManufacturerResponse(m domain.Manufacturer) manufacturerResponse {
	return manufacturerResponse{ID: m.ID, Name: m.Name, Address: m.Address, Country: m.Country}
}

type applianceRequest struct {
	Name           string           `json:"name"`
	Category       domain.Category  `json:"category"`
	Model          string           `json:"model"`
	ManufacturerID int64            `json:"manufacturerId"`
	PowerType      domain.PowerType `json:"powerType"`
	Characteristic string           `json:"characteristic"`
	Description    string           `json:"description"`
	Power          *int32           `json:"power"`
	Price          decimal.Decimal  `json:"price"`
}

func (r applianceRequest) toDomain() domain.Appliance {
	return domain.Appliance{
		Name:           r.Name,
		Category:       r.Category,
		Model:          r.Model,
		Manufacturer:   domain.Manufacturer{ID: r.ManufacturerID},
		PowerType:      r.PowerType,
		Characteristic: r.Characteristic,
		Description:    r.Description,
		Power:          r.Power,
		Price:          r.Price,
	}
}

type applianceResponse struct {
	ID             int64                `json:"id"`
	Name           string               `json:"name"`
	Category       domain.Category      `json:"category"`
	Model          string               `json:"model"`
	Manufacturer   manufacturerResponse `json:"manufacturer"`
	PowerType      domain.PowerType     `json:"powerType"`
	Characteristic string               `json:"characteristic"`
	Description    string               `json:"description"`
	Power          *int32               `json:"power"`
	Price          money                `json:"price"`
}

func toApplianceResponse(a domain.Appliance) applianceResponse {
	return applianceResponse{
		ID:             a.ID,
		Name:           a.Name,
		Category:       a.Category,
		Model:          a.Model,
		Manufacturer:   toManufacturerResponse(a.Manufacturer),
		PowerType:      a.PowerType,
		Characteristic: a.Characteristic,
		Description:    a.Description,
		Power:          a.Power,
		Price:          money(a.Price),
	}
}

type userResponse struct {
	ID        int64       `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
}

type clientResponse struct {
	userResponse
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Card    string `json:"card,omitempty"`
}

func toClientResponse(c domain.Client) clientResponse {
	return clientResponse{
		userResponse: toUserResponse(c.User, domain.RoleClient),
		Phone:        c.Phone,
		Address:      c.Address,
		Card:         c.Card,
	}
}

type employeeResponse struct {
	userResponse
	Position string `json:"position"`
}

func toEmployeeResponse(e domain.Employee) employeeResponse {
	return employeeResponse{
		userResponse: toUserResponse(e.User, domain.RoleEmployee),
		Position:     e.Position,
	}
}

func toUserResponse(u domain.User, role domain.Role) userResponse {
	return userResponse{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Role: role}
}

// toIdentityResponse возвращает профиль клиента или сотрудника.
func toIdentityResponse(identity domain.Identity) any {
	if employee, ok := identity.AsEmployee(); ok {
		return toEmployeeResponse(employee)
	}
	client, _ := identity.AsClient()
	return toClientResponse(client)
}

type clientRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Card      string `json:"card"`
}

func (r clientRequest) toDomain() domain.Client {
	return domain.Client{
		User:    domain.User{FirstName: r.FirstName, LastName: r.LastName, Email: r.Email},
		Phone:   r.Phone,
		Address: r.Address,
		Card:    r.Card,
	}
}

type employeeRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Position  string `json:"position"`
}

func (r employeeRequest) toDomain() domain.Employee {
	return domain.Employee{
		User:     domain.User{FirstName: r.FirstName, LastName: r.LastName, Email: r.Email},
		Position: r.Position,
	}
}

// profileRequest — изменение собственного профиля. Пустые поля, кроме имени
// и email, оставляют прежние значения.
type profileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Card      string `json:"card"`
	Position  string `json:"position"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type jwtResponse struct {
	Token     string      `json:"token"`
	Type      string      `json:"type"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	UserID    int64       `json:"userId"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
}

type orderRowRequest struct {
	ApplianceID int64            `json:"applianceId"`
	Quantity    int64            `json:"quantity"`
	Amount      *decimal.Decimal `json:"amount"`
}

// orderRequest принимает позиции в "lines"; "orderRows" оставлен как синоним
// для старых клиентов и читается только при пустом "lines".
type orderRequest struct {
	ClientID  int64             `json:"clientId"`
	Lines     []orderRowRequest `json:"lines"`
	OrderRows []orderRowRequest `json:"orderRows"`
}

func (r orderRequest) rows() []orderRowRequest {
	if len(r.Lines) > 0 {
		return r.Lines
	}
	return r.OrderRows
}

func (r orderRequest) toInput() order.Input {
	rows := r.rows()
	lines := make([]order.LineInput, 0, len(rows))
	for _, row := range rows {
		line := order.LineInput{ApplianceID: row.ApplianceID, Quantity: row.Quantity}
		if row.Amount != nil {
			line.Amount = *row.Amount
		}
		lines = append(lines, line)
	}
	return order.Input{ClientID: r.ClientID, Lines: lines}
}

type orderRowResponse struct {
	ID        int64             `json:"id"`
	Appliance applianceResponse `json:"appliance"`
	Quantity  int64             `json:"quantity"`
	Amount    money             `json:"amount"`
}

type orderResponse struct {
	ID          int64              `json:"id"`
	Employee    *employeeResponse  `json:"employee"`
	Client      clientResponse     `json:"client"`
	Lines       []orderRowResponse `json:"lines"`
	Approved    bool               `json:"approved"`
	Status      domain.OrderStatus `json:"status"`
	TotalAmount money              `json:"totalAmount"`
	Version     int64              `json:"version"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func toOrderResponse(o domain.Order) orderResponse {
	lines := o.Lines()
	rows := make([]orderRowResponse, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, orderRowResponse{
			ID:        line.ID,
			Appliance: toApplianceResponse(line.Appliance),
			Quantity:  line.Quantity,
			Amount:    money(line.Amount),
		})
	}
	resp := orderResponse{
		ID:          o.ID,
		Client:      toClientResponse(o.Client),
		Lines:       rows,
		Approved:    o.Approved,
		Status:      o.Status(),
		TotalAmount: money(o.Total()),
		Version:     o.Version,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if o.Employee != nil {
		employee := toEmployeeResponse(*o.Employee)
		resp.Employee = &employee
	}
	return resp
}

type timelineEventResponse struct {
	Type     string    `json:"type"`
	Actor    string    `json:"actor,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurredAt"`
}
