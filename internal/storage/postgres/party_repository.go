package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

const (
	clientColumns = `u.id, u.first_name, u.last_name, u.email, u.password_hash,
		c.phone, c.address, c.card`
	employeeColumns = `u.id, u.first_name, u.last_name, u.email, u.password_hash,
		e.position`
)

func scanClient(row interface{ Scan(...any) error }) (domain.Client, error) {
	var c domain.Client
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.PasswordHash,
		&c.Phone, &c.Address, &c.Card,
	)
	return c, err
}

func scanEmployee(row interface{ Scan(...any) error }) (domain.Employee, error) {
	var e domain.Employee
	err := row.Scan(
		&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.PasswordHash,
		&e.Position,
	)
	return e, err
}

type clientRepository struct {
	db *sql.DB
}

func (r *clientRepository) Get(ctx context.Context, id int64) (domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	c, err := scanClient(r.db.QueryRowContext(ctx, `
		SELECT `+clientColumns+`
		FROM clients c
		JOIN users u ON u.id = c.user_id
		WHERE u.id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Client{}, domain.NewNotFound("Client", "id", id)
	}
	if err != nil {
		return domain.Client{}, fmt.Errorf("select client: %w", err)
	}
	return c, nil
}

func (r *clientRepository) List(ctx context.Context, query string, page domain.PageRequest) (domain.Page[domain.Client], error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	page = page.Normalize()
	where, args := userSearch(query)

	var total int64
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM clients c
		JOIN users u ON u.id = c.user_id
	`+where, args...).Scan(&total); err != nil {
		return domain.Page[domain.Client]{}, fmt.Errorf("count clients: %w", err)
	}

	args = append(args, page.Size, page.Offset())
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM clients c
		JOIN users u ON u.id = c.user_id
		%s
		ORDER BY u.id %s
		LIMIT $%d OFFSET $%d
	`, clientColumns, where, orderBy(page), len(args)-1, len(args)), args...)
	if err != nil {
		return domain.Page[domain.Client]{}, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Client, 0, page.Size)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return domain.Page[domain.Client]{}, fmt.Errorf("scan client: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Client]{}, fmt.Errorf("iterate clients: %w", err)
	}

	return domain.NewPage(result, page, total), nil
}

func (r *clientRepository) Create(ctx context.Context, c *domain.Client) (err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(tx, &err)

	c.Email = domain.NormalizeEmail(c.Email)
	if c.ID, err = insertUser(ctx, tx, c.User); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO clients (user_id, phone, address, card)
		VALUES ($1,$2,$3,$4)
	`, c.ID, c.Phone, c.Address, c.Card); err != nil {
		return fmt.Errorf("insert client: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit client: %w", err)
	}
	return nil
}

func (r *clientRepository) Update(ctx context.Context, c *domain.Client) (err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(tx, &err)

	res, err := tx.ExecContext(ctx, `
		UPDATE clients
		SET phone = $2, address = $3, card = $4
		WHERE user_id = $1
	`, c.ID, c.Phone, c.Address, c.Card)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if err = expectAffected(res, domain.NewNotFound("Client", "id", c.ID)); err != nil {
		return err
	}
	c.Email = domain.NormalizeEmail(c.Email)
	if err = updateUser(ctx, tx, c.User); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit client: %w", err)
	}
	return nil
}

func (r *clientRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM users u
		USING clients c
		WHERE c.user_id = u.id AND u.id = $1
	`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrResourceInUse
		}
		return fmt.Errorf("delete client: %w", err)
	}
	return expectAffected(res, domain.NewNotFound("Client", "id", id))
}

type employeeRepository struct {
	db *sql.DB
}

func (r *employeeRepository) Get(ctx context.Context, id int64) (domain.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	e, err := scanEmployee(r.db.QueryRowContext(ctx, `
		SELECT `+employeeColumns+`
		FROM employees e
		JOIN users u ON u.id = e.user_id
		WHERE u.id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Employee{}, domain.NewNotFound("Employee", "id", id)
	}
	if err != nil {
		return domain.Employee{}, fmt.Errorf("select employee: %w", err)
	}
	return e, nil
}

func (r *employeeRepository) List(ctx context.Context, query string, page domain.PageRequest) (domain.Page[domain.Employee], error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	page = page.Normalize()
	where, args := userSearch(query)

	var total int64
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM employees e
		JOIN users u ON u.id = e.user_id
	`+where, args...).Scan(&total); err != nil {
		return domain.Page[domain.Employee]{}, fmt.Errorf("count employees: %w", err)
	}

	args = append(args, page.Size, page.Offset())
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM employees e
		JOIN users u ON u.id = e.user_id
		%s
		ORDER BY u.id %s
		LIMIT $%d OFFSET $%d
	`, employeeColumns, where, orderBy(page), len(args)-1, len(args)), args...)
	if err != nil {
		return domain.Page[domain.Employee]{}, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Employee, 0, page.Size)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return domain.Page[domain.Employee]{}, fmt.Errorf("scan employee: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Employee]{}, fmt.Errorf("iterate employees: %w", err)
	}

	return domain.NewPage(result, page, total), nil
}

func (r *employeeRepository) Create(ctx context.Context, e *domain.Employee) (err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(tx, &err)

	e.Email = domain.NormalizeEmail(e.Email)
	if e.ID, err = insertUser(ctx, tx, e.User); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO employees (user_id, position)
		VALUES ($1,$2)
	`, e.ID, e.Position); err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit employee: %w", err)
	}
	return nil
}

func (r *employeeRepository) Update(ctx context.Context, e *domain.Employee) (err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(tx, &err)

	res, err := tx.ExecContext(ctx, `
		UPDATE employees
		SET position = $2
		WHERE user_id = $1
	`, e.ID, e.Position)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	if err = expectAffected(res, domain.NewNotFound("Employee", "id", e.ID)); err != nil {
		return err
	}
	e.Email = domain.NormalizeEmail(e.Email)
	if err = updateUser(ctx, tx, e.User); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit employee: %w", err)
	}
	return nil
}

func (r *employeeRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM users u
		USING employees e
		WHERE e.user_id = u.id AND u.id = $1
	`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrResourceInUse
		}
		return fmt.Errorf("delete employee: %w", err)
	}
	return expectAffected(res, domain.NewNotFound("Employee", "id", id))
}

type identityRepository struct {
	db *sql.DB
}

// FindByEmail ищет сначала среди сотрудников, затем среди клиентов.
func (r *identityRepository) FindByEmail(ctx context.Context, email string) (domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	email = domain.NormalizeEmail(email)
	e, err := scanEmployee(r.db.QueryRowContext(ctx, `
		SELECT `+employeeColumns+`
		FROM employees e
		JOIN users u ON u.id = e.user_id
		WHERE u.email = $1
	`, email))
	if err == nil {
		return domain.EmployeeIdentity(e), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Identity{}, fmt.Errorf("select employee by email: %w", err)
	}

	c, err := scanClient(r.db.QueryRowContext(ctx, `
		SELECT `+clientColumns+`
		FROM clients c
		JOIN users u ON u.id = c.user_id
		WHERE u.email = $1
	`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Identity{}, domain.NewNotFound("User", "email", email)
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("select client by email: %w", err)
	}
	return domain.ClientIdentity(c), nil
}

func (r *identityRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var exists bool
	if err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
	`, domain.NormalizeEmail(email)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func insertUser(ctx context.Context, q queryer, u domain.User) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, u.FirstName, u.LastName, u.Email, u.PasswordHash).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrEmailTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func updateUser(ctx context.Context, q queryer, u domain.User) error {
	_, err := q.ExecContext(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, password_hash = $5
		WHERE id = $1
	`, u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// userSearch строит условие поиска по имени, фамилии и email.
func userSearch(query string) (string, []any) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}
	return "WHERE u.first_name ILIKE $1 OR u.last_name ILIKE $1 OR u.email ILIKE $1",
		[]any{likePattern(query)}
}

var (
	_ domain.ClientRepository   = (*clientRepository)(nil)
	_ domain.EmployeeRepository = (*employeeRepository)(nil)
	_ domain.IdentityRepository = (*identityRepository)(nil)
)
