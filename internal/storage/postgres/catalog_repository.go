package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

type manufacturerRepository struct {
	db *sql.DB
}

func (r *manufacturerRepository) Get(ctx context.Context, id int64) (domain.Manufacturer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var m domain.Manufacturer
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, address, country
		FROM manufacturers
		WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &m.Address, &m.Country)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Manufacturer{}, domain.NewNotFound("Manufacturer", "id", id)
	}
	if err != nil {
		return domain.Manufacturer{}, fmt.Errorf("select manufacturer: %w", err)
	}
	return m, nil
}

func (r *manufacturerRepository) List(ctx context.Context, query string, page domain.PageRequest) (domain.Page[domain.Manufacturer], error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	page = page.Normalize()
	where := ""
	args := []any{}
	if query = strings.TrimSpace(query); query != "" {
		where = "WHERE name ILIKE $1 OR country ILIKE $1"
		args = append(args, likePattern(query))
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM manufacturers "+where, args...).Scan(&total); err != nil {
		return domain.Page[domain.Manufacturer]{}, fmt.Errorf("count manufacturers: %w", err)
	}

	args = append(args, page.Size, page.Offset())
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, address, country
		FROM manufacturers
		%s
		ORDER BY id %s
		LIMIT $%d OFFSET $%d
	`, where, orderBy(page), len(args)-1, len(args)), args...)
	if err != nil {
		return domain.Page[domain.Manufacturer]{}, fmt.Errorf("list manufacturers: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Manufacturer, 0, page.Size)
	for rows.Next() {
		var m domain.Manufacturer
		if err := rows.Scan(&m.ID, &m.Name, &m.Address, &m.Country); err != nil {
			return domain.Page[domain.Manufacturer]{}, fmt.Errorf("scan manufacturer: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Manufacturer]{}, fmt.Errorf("iterate manufacturers: %w", err)
	}

	return domain.NewPage(result, page, total), nil
}

func (r *manufacturerRepository) Create(ctx context.Context, m *domain.Manufacturer) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO manufacturers (name, address, country)
		VALUES ($1,$2,$3)
		RETURNING id
	`, m.Name, m.Address, m.Country).Scan(&m.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrManufacturerExists
		}
		return fmt.Errorf("insert manufacturer: %w", err)
	}
	return nil
}

func (r *manufacturerRepository) Update(ctx context.Context, m *domain.Manufacturer) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE manufacturers
		SET name = $2, address = $3, country = $4
		WHERE id = $1
	`, m.ID, m.Name, m.Address, m.Country)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrManufacturerExists
		}
		return fmt.Errorf("update manufacturer: %w", err)
	}
	return expectAffected(res, domain.NewNotFound("Manufacturer", "id", m.ID))
}

func (r *manufacturerRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM manufacturers WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrResourceInUse
		}
		return fmt.Errorf("delete manufacturer: %w", err)
	}
	return expectAffected(res, domain.NewNotFound("Manufacturer", "id", id))
}

type applianceRepository struct {
	db *sql.DB
}

const applianceColumns = `
	a.id, a.name, a.category, a.model, a.power_type, a.characteristic,
	a.description, a.power, a.price,
	m.id, m.name, m.address, m.country`

func scanAppliance(row interface{ Scan(...any) error }) (domain.Appliance, error) {
	var (
		a     domain.Appliance
		power sql.NullInt32
	)
	err := row.Scan(
		&a.ID, &a.Name, &a.Category, &a.Model, &a.PowerType, &a.Characteristic,
		&a.Description, &power, &a.Price,
		&a.Manufacturer.ID, &a.Manufacturer.Name, &a.Manufacturer.Address, &a.Manufacturer.Country,
	)
	if err != nil {
		return domain.Appliance{}, err
	}
	if power.Valid {
		value := power.Int32
		a.Power = &value
	}
	return a, nil
}

func (r *applianceRepository) Get(ctx context.Context, id int64) (domain.Appliance, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	a, err := scanAppliance(r.db.QueryRowContext(ctx, `
		SELECT `+applianceColumns+`
		FROM appliances a
		JOIN manufacturers m ON m.id = a.manufacturer_id
		WHERE a.id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Appliance{}, domain.NewNotFound("Appliance", "id", id)
	}
	if err != nil {
		return domain.Appliance{}, fmt.Errorf("select appliance: %w", err)
	}
	return a, nil
}

func (r *applianceRepository) List(ctx context.Context, filter domain.ApplianceFilter, page domain.PageRequest) (domain.Page[domain.Appliance], error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	page = page.Normalize()
	var (
		conditions []string
		args       []any
	)
	if query := strings.TrimSpace(filter.Query); query != "" {
		args = append(args, likePattern(query))
		conditions = append(conditions, fmt.Sprintf("(a.name ILIKE $%d OR a.model ILIKE $%d)", len(args), len(args)))
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conditions = append(conditions, fmt.Sprintf("a.category = $%d", len(args)))
	}
	if filter.PowerType != "" {
		args = append(args, string(filter.PowerType))
		conditions = append(conditions, fmt.Sprintf("a.power_type = $%d", len(args)))
	}
	if filter.ManufacturerID != nil {
		args = append(args, *filter.ManufacturerID)
		conditions = append(conditions, fmt.Sprintf("a.manufacturer_id = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM appliances a "+where, args...).Scan(&total); err != nil {
		return domain.Page[domain.Appliance]{}, fmt.Errorf("count appliances: %w", err)
	}

	args = append(args, page.Size, page.Offset())
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM appliances a
		JOIN manufacturers m ON m.id = a.manufacturer_id
		%s
		ORDER BY a.id %s
		LIMIT $%d OFFSET $%d
	`, applianceColumns, where, orderBy(page), len(args)-1, len(args)), args...)
	if err != nil {
		return domain.Page[domain.Appliance]{}, fmt.Errorf("list appliances: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Appliance, 0, page.Size)
	for rows.Next() {
		a, err := scanAppliance(rows)
		if err != nil {
			return domain.Page[domain.Appliance]{}, fmt.Errorf("scan appliance: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Appliance]{}, fmt.Errorf("iterate appliances: %w", err)
	}

	return domain.NewPage(result, page, total), nil
}

func (r *applianceRepository) Create(ctx context.Context, a *domain.Appliance) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO appliances (
			name, category, model, manufacturer_id, power_type,
			characteristic, description, power, price
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`,
		a.Name, string(a.Category), a.Model, a.Manufacturer.ID, string(a.PowerType),
		a.Characteristic, a.Description, nullPower(a.Power), a.Price,
	).Scan(&a.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewNotFound("Manufacturer", "id", a.Manufacturer.ID)
		}
		return fmt.Errorf("insert appliance: %w", err)
	}
	return nil
}

func (r *applianceRepository) Update(ctx context.Context, a *domain.Appliance) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE appliances
		SET name = $2, category = $3, model = $4, manufacturer_id = $5, power_type = $6,
		    characteristic = $7, description = $8, power = $9, price = $10
		WHERE id = $1
	`,
		a.ID, a.Name, string(a.Category), a.Model, a.Manufacturer.ID, string(a.PowerType),
		a.Characteristic, a.Description, nullPower(a.Power), a.Price,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewNotFound("Manufacturer", "id", a.Manufacturer.ID)
		}
		return fmt.Errorf("update appliance: %w", err)
	}
	return expectAffected(res, domain.NewNotFound("Appliance", "id", a.ID))
}

func (r *applianceRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM appliances WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrResourceInUse
		}
		return fmt.Errorf("delete appliance: %w", err)
	}
	return expectAffected(res, domain.NewNotFound("Appliance", "id", id))
}

func nullPower(power *int32) sql.NullInt32 {
	if power == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: *power, Valid: true}
}

// expectAffected возвращает notFound, если запрос не затронул ни одной строки.
func expectAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

var (
	_ domain.ApplianceRepository    = (*applianceRepository)(nil)
	_ domain.ManufacturerRepository = (*manufacturerRepository)(nil)
)
