package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// Create сохраняет заказ, позиции и outbox-сообщение в одной транзакции.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order, event domain.OutboxEvent) (err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(tx, &err)

	next := order.Clone()
	next.Version = 1

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (client_id, employee_id, approved, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`,
		next.Client.ID, employeeID(next), next.Approved, next.Version,
		timestamp(next.CreatedAt), timestamp(next.UpdatedAt),
	).Scan(&id)
	if err != nil {
		return referenceError(err, next, "insert order")
	}
	next.AssignID(id)

	if err = insertLines(ctx, tx, next); err != nil {
		return err
	}
	if err = insertOutbox(ctx, tx, next, event); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}

	*order = *next
	return nil
}

// Get загружает заказ вместе с клиентом, сотрудником и позициями.
func (r *orderRepository) Get(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	order, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		`+orderFrom+`
		WHERE o.id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("Order", "id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}

	if err := loadLines(ctx, r.db, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// Save перезаписывает заказ с проверкой версии. Позиции без ID вставляются,
// позиции, отсутствующие в заказе, удаляются.
func (r *orderRepository) Save(ctx context.Context, order *domain.Order, event domain.OutboxEvent) (err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(tx, &err)

	next := order.Clone()
	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET client_id = $3,
		    employee_id = $4,
		    approved = $5,
		    version = version + 1,
		    updated_at = $6
		WHERE id = $1 AND version = $2
	`,
		next.ID, next.Version, next.Client.ID, employeeID(next), next.Approved, timestamp(next.UpdatedAt),
	)
	if err != nil {
		return referenceError(err, next, "update order")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for order %d: %w", next.ID, err)
	}
	if affected == 0 {
		var exists bool
		if err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, next.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check order exists: %w", err)
		}
		if !exists {
			err = domain.NewNotFound("Order", "id", next.ID)
			return err
		}
		err = domain.ErrOrderVersionConflict
		return err
	}
	next.Version++

	kept := make([]int64, 0)
	for _, line := range next.Lines() {
		if line.ID != 0 {
			kept = append(kept, line.ID)
		}
	}
	if _, err = tx.ExecContext(ctx, `
		DELETE FROM order_rows
		WHERE order_id = $1 AND NOT (id = ANY($2))
	`, next.ID, kept); err != nil {
		return fmt.Errorf("delete replaced order rows: %w", err)
	}
	if err = insertLines(ctx, tx, next); err != nil {
		return err
	}
	if err = insertOutbox(ctx, tx, next, event); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}

	order.Version = next.Version
	for i, line := range next.Lines() {
		order.AssignLineID(i, line.ID)
	}
	return nil
}

// Delete удаляет заказ; позиции удаляются каскадно.
func (r *orderRepository) Delete(ctx context.Context, order *domain.Order, event domain.OutboxEvent) (err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(tx, &err)

	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, order.ID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if err = expectAffected(res, domain.NewNotFound("Order", "id", order.ID)); err != nil {
		return err
	}
	if err = insertOutbox(ctx, tx, order, event); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit order delete: %w", err)
	}
	return nil
}

// List возвращает страницу заказов по фильтру.
func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter, page domain.PageRequest) (domain.Page[domain.Order], error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	page = page.Normalize()
	var (
		conditions []string
		args       []any
	)
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("o.client_id = $%d", len(args)))
	}
	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		conditions = append(conditions, fmt.Sprintf("o.employee_id = $%d", len(args)))
	}
	if filter.Approved != nil {
		args = append(args, *filter.Approved)
		conditions = append(conditions, fmt.Sprintf("o.approved = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders o "+where, args...).Scan(&total); err != nil {
		return domain.Page[domain.Order]{}, fmt.Errorf("count orders: %w", err)
	}

	args = append(args, page.Size, page.Offset())
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		%s
		%s
		ORDER BY o.id %s
		LIMIT $%d OFFSET $%d
	`, orderColumns, orderFrom, where, orderBy(page), len(args)-1, len(args)), args...)
	if err != nil {
		return domain.Page[domain.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0, page.Size)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return domain.Page[domain.Order]{}, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Order]{}, fmt.Errorf("iterate orders: %w", err)
	}
	rows.Close()

	if err := loadLines(ctx, r.db, orders); err != nil {
		return domain.Page[domain.Order]{}, err
	}

	content := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		content = append(content, *order)
	}
	return domain.NewPage(content, page, total), nil
}

const (
	orderColumns = `o.id, o.approved, o.version, o.created_at, o.updated_at,
		cu.id, cu.first_name, cu.last_name, cu.email, cu.password_hash,
		c.phone, c.address, c.card,
		eu.id, eu.first_name, eu.last_name, eu.email, e.position`
	orderFrom = `FROM orders o
		JOIN clients c ON c.user_id = o.client_id
		JOIN users cu ON cu.id = c.user_id
		LEFT JOIN employees e ON e.user_id = o.employee_id
		LEFT JOIN users eu ON eu.id = e.user_id`
)

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var (
		order    domain.Order
		empID    sql.NullInt64
		empFirst sql.NullString
		empLast  sql.NullString
		empEmail sql.NullString
		empPos   sql.NullString
	)
	err := row.Scan(
		&order.ID, &order.Approved, &order.Version, &order.CreatedAt, &order.UpdatedAt,
		&order.Client.ID, &order.Client.FirstName, &order.Client.LastName, &order.Client.Email, &order.Client.PasswordHash,
		&order.Client.Phone, &order.Client.Address, &order.Client.Card,
		&empID, &empFirst, &empLast, &empEmail, &empPos,
	)
	if err != nil {
		return nil, err
	}
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	if empID.Valid {
		order.Employee = &domain.Employee{
			User: domain.User{
				ID:        empID.Int64,
				FirstName: empFirst.String,
				LastName:  empLast.String,
				Email:     empEmail.String,
			},
			Position: empPos.String,
		}
	}
	return &order, nil
}

// loadLines подгружает позиции одним запросом для всех переданных заказов.
func loadLines(ctx context.Context, q queryer, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]*domain.Order, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
		byID[order.ID] = order
	}

	rows, err := q.QueryContext(ctx, `
		SELECT r.id, r.order_id, r.quantity, r.amount, `+applianceColumns+`
		FROM order_rows r
		JOIN appliances a ON a.id = r.appliance_id
		JOIN manufacturers m ON m.id = a.manufacturer_id
		WHERE r.order_id = ANY($1)
		ORDER BY r.order_id, r.id
	`, ids)
	if err != nil {
		return fmt.Errorf("select order rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line  domain.OrderLine
			power sql.NullInt32
		)
		a := &line.Appliance
		if err := rows.Scan(
			&line.ID, &line.OrderID, &line.Quantity, &line.Amount,
			&a.ID, &a.Name, &a.Category, &a.Model, &a.PowerType, &a.Characteristic,
			&a.Description, &power, &a.Price,
			&a.Manufacturer.ID, &a.Manufacturer.Name, &a.Manufacturer.Address, &a.Manufacturer.Country,
		); err != nil {
			return fmt.Errorf("scan order row: %w", err)
		}
		if power.Valid {
			value := power.Int32
			a.Power = &value
		}
		if order, ok := byID[line.OrderID]; ok {
			order.AddLine(line)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order rows: %w", err)
	}
	return nil
}

// insertLines вставляет позиции без ID и проставляет выданные идентификаторы.
func insertLines(ctx context.Context, q queryer, order *domain.Order) error {
	for i, line := range order.Lines() {
		if line.ID != 0 {
			continue
		}
		var id int64
		if err := q.QueryRowContext(ctx, `
			INSERT INTO order_rows (order_id, appliance_id, quantity, amount)
			VALUES ($1,$2,$3,$4)
			RETURNING id
		`, order.ID, line.Appliance.ID, line.Quantity, line.Amount).Scan(&id); err != nil {
			return referenceError(err, order, "insert order row")
		}
		order.AssignLineID(i, id)
	}
	return nil
}

func insertOutbox(ctx context.Context, q queryer, order *domain.Order, event domain.OutboxEvent) error {
	if event == nil {
		return nil
	}
	msg, err := event(order)
	if err != nil {
		return err
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	return enqueueOutbox(ctx, q, msg)
}

// referenceError переводит нарушение внешнего ключа в NotFound для той сущности,
// на которую ссылается заказ.
func referenceError(err error, order *domain.Order, op string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeForeignKeyViolation {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch pgErr.ConstraintName {
	case "orders_client_id_fkey":
		return domain.NewNotFound("Client", "id", order.Client.ID)
	case "orders_employee_id_fkey":
		return domain.NewNotFound("Employee", "id", employeeID(order))
	case "order_rows_appliance_id_fkey":
		return domain.NewNotFound("Appliance", "id", missingAppliance(pgErr.Detail, order))
	default:
		return fmt.Errorf("%w: referenced record no longer exists", domain.ErrConflict)
	}
}

// missingAppliance вытаскивает id из detail вида "Key (appliance_id)=(7) is not present ...".
func missingAppliance(detail string, order *domain.Order) any {
	if start := strings.Index(detail, ")=("); start >= 0 {
		rest := detail[start+3:]
		if end := strings.Index(rest, ")"); end >= 0 {
			return rest[:end]
		}
	}
	for _, line := range order.Lines() {
		if line.ID == 0 {
			return line.Appliance.ID
		}
	}
	return nil
}

func employeeID(order *domain.Order) any {
	if order.Employee == nil {
		return nil
	}
	return order.Employee.ID
}

func timestamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

var _ domain.OrderRepository = (*orderRepository)(nil)
