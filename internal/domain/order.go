package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus — производное состояние заказа: PENDING или APPROVED.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан и ещё не одобрен сотрудником.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusApproved — заказ одобрен, переход необратим.
	OrderStatusApproved OrderStatus = "APPROVED"
)

// OrderLine — позиция заказа. Amount хранит сумму строки, а не цену за единицу.
type OrderLine struct {
	ID int64
	// OrderID — ссылка на владельца, проставляется только методами Order.
	OrderID   int64
	Appliance Appliance
	Quantity  int64
	Amount    decimal.Decimal
}

// NewOrderLine создаёт позицию. Нулевая сумма заменяется на price*quantity,
// округлённую до двух знаков (half-up).
func NewOrderLine(appliance Appliance, quantity int64, amount decimal.Decimal) OrderLine {
	if amount.IsZero() {
		amount = LineAmount(appliance.Price, quantity)
	}
	return OrderLine{
		Appliance: appliance,
		Quantity:  quantity,
		Amount:    amount,
	}
}

// LineAmount считает сумму строки по цене техники.
func LineAmount(price decimal.Decimal, quantity int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(quantity)).Round(2)
}

// Order агрегирует клиента, одобрившего сотрудника и позиции заказа.
// Позиции принадлежат заказу и меняются только через его методы.
type Order struct {
	ID       int64
	Client   Client
	Employee *Employee
	Approved bool
	// Version используется для optimistic locking при сохранении.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time

	lines []OrderLine
}

// NewOrder создаёт заказ в состоянии PENDING независимо от входных данных
// и проверяет инварианты.
func NewOrder(client Client, lines []OrderLine) (*Order, error) {
	o := &Order{Client: client}
	o.ReplaceLines(lines)
	if err := NewValidationError(o.ValidateInvariants()...); err != nil {
		return nil, err
	}
	return o, nil
}

// Status возвращает текущее состояние жизненного цикла.
func (o *Order) Status() OrderStatus {
	if o.Approved {
		return OrderStatusApproved
	}
	return OrderStatusPending
}

// AddLine добавляет позицию и проставляет ей ссылку на заказ.
func (o *Order) AddLine(line OrderLine) {
	line.OrderID = o.ID
	o.lines = append(o.lines, line)
}

// RemoveLine удаляет позицию по индексу. Возвращает false, если индекс вне диапазона.
func (o *Order) RemoveLine(index int) (OrderLine, bool) {
	if index < 0 || index >= len(o.lines) {
		return OrderLine{}, false
	}
	removed := o.lines[index]
	o.lines = append(o.lines[:index:index], o.lines[index+1:]...)
	removed.OrderID = 0
	return removed, true
}

// ReplaceLines полностью заменяет набор позиций, старые позиции не сохраняются.
func (o *Order) ReplaceLines(lines []OrderLine) {
	o.lines = make([]OrderLine, 0, len(lines))
	for _, line := range lines {
		o.AddLine(line)
	}
}

// Lines возвращает копию позиций.
func (o *Order) Lines() []OrderLine {
	out := make([]OrderLine, len(o.lines))
	copy(out, o.lines)
	return out
}

// Total — сумма Amount по всем позициям, считается при каждом вызове.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.lines {
		total = total.Add(line.Amount)
	}
	return total
}

// Approve переводит заказ в APPROVED. Повторное одобрение отклоняется,
// сотрудник не переназначается.
func (o *Order) Approve(employee Employee) error {
	if o.Approved {
		return ErrOrderAlreadyApproved
	}
	o.Employee = &employee
	o.Approved = true
	return nil
}

// AssignID фиксирует идентификатор, выданный хранилищем, и обновляет ссылки позиций.
func (o *Order) AssignID(id int64) {
	o.ID = id
	for i := range o.lines {
		o.lines[i].OrderID = id
	}
}

// AssignLineID фиксирует идентификатор позиции, выданный хранилищем.
func (o *Order) AssignLineID(index int, id int64) {
	if index < 0 || index >= len(o.lines) {
		return
	}
	o.lines[index].ID = id
}

// Clone возвращает независимую копию заказа.
func (o *Order) Clone() *Order {
	clone := *o
	clone.lines = o.Lines()
	if o.Employee != nil {
		employee := *o.Employee
		clone.Employee = &employee
	}
	return &clone
}

// ValidateInvariants проверяет инварианты заказа и возвращает список нарушений.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.Client.ID <= 0 {
		errs = append(errs, ErrClientRequired)
	}
	if len(o.lines) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.Approved && o.Employee == nil {
		errs = append(errs, ErrApprovedWithoutEmployee)
	}

	for _, line := range o.lines {
		if line.Appliance.ID <= 0 {
			errs = append(errs, ErrItemApplianceRequired)
		}
		if line.Quantity < 1 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if line.Amount.LessThan(minMoneyAmount) {
			errs = append(errs, ErrItemAmountInvalid)
		}
		if !line.Amount.Equal(line.Amount.Round(2)) {
			errs = append(errs, ErrItemAmountScale)
		}
	}

	return errs
}
