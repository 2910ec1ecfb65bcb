package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
	"github.com/vladislavdragonenkov/appliances/internal/storage/memory"
)

type fixture struct {
	store     *memory.Store
	client    domain.Client
	employee  domain.Employee
	appliance domain.Appliance
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	m := domain.Manufacturer{Name: "Bosch", Address: "Robert-Bosch-Platz 1", Country: "Germany"}
	require.NoError(t, store.Manufacturers().Create(ctx, &m))

	a := domain.Appliance{
		Name:         "Washer",
		Category:     domain.CategoryBig,
		Model:        "WX-1",
		Manufacturer: domain.Manufacturer{ID: m.ID},
		PowerType:    domain.PowerTypeAC220,
		Price:        decimal.RequireFromString("100.00"),
	}
	require.NoError(t, store.Appliances().Create(ctx, &a))

	c := domain.Client{User: domain.User{FirstName: "Olena", LastName: "Koval", Email: "Olena@Example.com"}, Phone: "+380501234567", Address: "Kyiv"}
	require.NoError(t, store.Clients().Create(ctx, &c))

	e := domain.Employee{User: domain.User{FirstName: "Ivan", LastName: "Petrenko", Email: "ivan@example.com"}, Position: "Manager"}
	require.NoError(t, store.Employees().Create(ctx, &e))

	return fixture{store: store, client: c, employee: e, appliance: a}
}

func (f fixture) newOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(f.client, []domain.OrderLine{
		domain.NewOrderLine(f.appliance, 2, decimal.Zero),
	})
	require.NoError(t, err)
	return order
}

func eventOf(eventType string) domain.OutboxEvent {
	return func(order *domain.Order) (domain.OutboxMessage, error) {
		return domain.OutboxMessage{
			AggregateType: domain.AggregateTypeOrder,
			EventType:     eventType,
			CreatedAt:     time.Now().UTC(),
		}, nil
	}
}

func TestOrderRepository_CreateGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := f.store.Orders()
	order := f.newOrder(t)

	require.NoError(t, repo.Create(ctx, order, eventOf(domain.EventOrderCreated)))
	require.NotZero(t, order.ID)
	assert.Equal(t, int64(1), order.Version)

	stored, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
	assert.Equal(t, "olena@example.com", stored.Client.Email)
	require.Len(t, stored.Lines(), 1)
	assert.NotZero(t, stored.Lines()[0].ID)
	assert.Equal(t, order.ID, stored.Lines()[0].OrderID)
	assert.Equal(t, "Bosch", stored.Lines()[0].Appliance.Manufacturer.Name)

	assert.Len(t, f.store.Outbox().AllPending(), 1)
}

func TestOrderRepository_GetMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Orders().Get(context.Background(), 404)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderRepository_SaveVersionConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := f.store.Orders()
	order := f.newOrder(t)
	require.NoError(t, repo.Create(ctx, order, nil))

	first, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	stale, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)

	require.NoError(t, first.Approve(f.employee))
	require.NoError(t, repo.Save(ctx, first, eventOf(domain.EventOrderApproved)))
	assert.Equal(t, int64(2), first.Version)

	err = repo.Save(ctx, stale, nil)
	require.ErrorIs(t, err, domain.ErrOrderVersionConflict)
}

func TestOrderRepository_SaveReplacesLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := f.store.Orders()
	order := f.newOrder(t)
	require.NoError(t, repo.Create(ctx, order, nil))
	oldLineID := order.Lines()[0].ID

	order.ReplaceLines([]domain.OrderLine{domain.NewOrderLine(f.appliance, 5, decimal.Zero)})
	require.NoError(t, repo.Save(ctx, order, nil))

	stored, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines(), 1)
	assert.NotEqual(t, oldLineID, stored.Lines()[0].ID)
	assert.Equal(t, int64(5), stored.Lines()[0].Quantity)
}

func TestOrderRepository_DeleteAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := f.store.Orders()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, f.newOrder(t), nil))
	}

	approved := true
	page, err := repo.List(ctx, domain.OrderFilter{Approved: &approved}, domain.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Content)

	clientID := f.client.ID
	page, err = repo.List(ctx, domain.OrderFilter{ClientID: &clientID}, domain.PageRequest{Size: 2})
	require.NoError(t, err)
	require.Len(t, page.Content, 2)
	assert.Equal(t, int64(3), page.Content[0].ID)
	assert.Equal(t, int64(3), page.TotalElements)

	order, err := repo.Get(ctx, 3)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, order, eventOf(domain.EventOrderDeleted)))

	_, err = repo.Get(ctx, 3)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, f.store.Outbox().AllPending(), 1)
}

func TestReferencedEntitiesCannotBeDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.newOrder(t)
	require.NoError(t, f.store.Orders().Create(ctx, order, nil))
	require.NoError(t, order.Approve(f.employee))
	require.NoError(t, f.store.Orders().Save(ctx, order, nil))

	require.ErrorIs(t, f.store.Appliances().Delete(ctx, f.appliance.ID), domain.ErrResourceInUse)
	require.ErrorIs(t, f.store.Clients().Delete(ctx, f.client.ID), domain.ErrResourceInUse)
	require.ErrorIs(t, f.store.Employees().Delete(ctx, f.employee.ID), domain.ErrResourceInUse)
	require.ErrorIs(t, f.store.Manufacturers().Delete(ctx, f.appliance.Manufacturer.ID), domain.ErrResourceInUse)
}

func TestPartyRepositories_EmailUniqueAcrossKinds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dup := domain.Employee{User: domain.User{FirstName: "Dup", LastName: "User", Email: "OLENA@example.com"}, Position: "Clerk"}
	require.ErrorIs(t, f.store.Employees().Create(ctx, &dup), domain.ErrEmailTaken)

	exists, err := f.store.Identities().EmailExists(ctx, "ivan@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	identity, err := f.store.Identities().FindByEmail(ctx, " Olena@example.com ")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, identity.Role())
	assert.Equal(t, f.client.ID, identity.ID())

	_, err = f.store.Identities().FindByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalogRepositories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dup := domain.Manufacturer{Name: "bosch", Address: "Somewhere 1", Country: "DE"}
	require.ErrorIs(t, f.store.Manufacturers().Create(ctx, &dup), domain.ErrManufacturerExists)

	small := domain.Appliance{
		Name:         "Kettle",
		Category:     domain.CategorySmall,
		Model:        "K-2",
		Manufacturer: domain.Manufacturer{ID: f.appliance.Manufacturer.ID},
		PowerType:    domain.PowerTypeAC110,
		Price:        decimal.RequireFromString("20.00"),
	}
	require.NoError(t, f.store.Appliances().Create(ctx, &small))

	page, err := f.store.Appliances().List(ctx, domain.ApplianceFilter{Category: domain.CategorySmall}, domain.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Kettle", page.Content[0].Name)

	page, err = f.store.Appliances().List(ctx, domain.ApplianceFilter{Query: "wx"}, domain.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, f.appliance.ID, page.Content[0].ID)

	missing := domain.Appliance{Manufacturer: domain.Manufacturer{ID: 99}}
	require.ErrorIs(t, f.store.Appliances().Create(ctx, &missing), domain.ErrNotFound)
}

func TestTimelineRepository(t *testing.T) {
	store := memory.NewStore()
	repo := store.Timeline()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Append(ctx, domain.TimelineEvent{OrderID: 1, Type: domain.EventOrderApproved, Occurred: now.Add(time.Second)}))
	require.NoError(t, repo.Append(ctx, domain.TimelineEvent{OrderID: 1, Type: domain.EventOrderCreated, Occurred: now}))

	events, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventOrderCreated, events[0].Type)

	empty, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
