package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

func TestLikePatternEscapesWildcards(t *testing.T) {
	t.Parallel()

	if got := likePattern(`50%_off\`); got != `%50\%\_off\\%` {
		t.Fatalf("unexpected pattern: %q", got)
	}
}

func TestOrderBy(t *testing.T) {
	t.Parallel()

	if got := orderBy(domain.PageRequest{}); got != "DESC" {
		t.Fatalf("expected DESC by default, got %s", got)
	}
	if got := orderBy(domain.PageRequest{Ascending: true}); got != "ASC" {
		t.Fatalf("expected ASC, got %s", got)
	}
}

func TestReferenceError(t *testing.T) {
	t.Parallel()

	order, err := domain.NewOrder(
		domain.Client{User: domain.User{ID: 3}},
		[]domain.OrderLine{domain.NewOrderLine(domain.Appliance{ID: 7, Price: decimal.NewFromInt(10)}, 1, decimal.Zero)},
	)
	if err != nil {
		t.Fatalf("build order: %v", err)
	}

	clientErr := referenceError(&pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "orders_client_id_fkey"}, order, "insert order")
	if !errors.Is(clientErr, domain.ErrNotFound) || clientErr.Error() != domain.NewNotFound("Client", "id", int64(3)).Error() {
		t.Fatalf("unexpected client reference error: %v", clientErr)
	}

	applianceErr := referenceError(&pgconn.PgError{
		Code:           codeForeignKeyViolation,
		ConstraintName: "order_rows_appliance_id_fkey",
		Detail:         `Key (appliance_id)=(7) is not present in table "appliances".`,
	}, order, "insert order row")
	if !errors.Is(applianceErr, domain.ErrNotFound) {
		t.Fatalf("expected not found for appliance, got %v", applianceErr)
	}

	plain := referenceError(errors.New("boom"), order, "insert order")
	if errors.Is(plain, domain.ErrNotFound) || plain.Error() != "insert order: boom" {
		t.Fatalf("unexpected passthrough error: %v", plain)
	}
}

func TestViolationCodes(t *testing.T) {
	t.Parallel()

	if !isUniqueViolation(&pgconn.PgError{Code: codeUniqueViolation}) {
		t.Fatal("expected unique violation")
	}
	if isUniqueViolation(errors.New("23505")) {
		t.Fatal("plain error must not be a unique violation")
	}
	if !isForeignKeyViolation(&pgconn.PgError{Code: codeForeignKeyViolation}) {
		t.Fatal("expected foreign key violation")
	}
}
