package order

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

type actorKey struct{}

// WithActor кладёт в контекст email пользователя для аудита в timeline.
func WithActor(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, actorKey{}, email)
}

func actorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

type eventLine struct {
	ApplianceID int64  `json:"appliance_id"`
	Quantity    int64  `json:"quantity"`
	Amount      string `json:"amount"`
}

// eventPayload — снимок заказа в outbox-сообщении.
type eventPayload struct {
	OrderID    int64       `json:"order_id"`
	ClientID   int64       `json:"client_id"`
	EmployeeID *int64      `json:"employee_id,omitempty"`
	Approved   bool        `json:"approved"`
	Status     string      `json:"status"`
	Total      string      `json:"total"`
	Version    int64       `json:"version"`
	Lines      []eventLine `json:"lines,omitempty"`
	Actor      string      `json:"actor,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// outboxEvent возвращает построитель outbox-сообщения для repository.
func outboxEvent(eventType, actor string, now time.Time) domain.OutboxEvent {
	return func(order *domain.Order) (domain.OutboxMessage, error) {
		payload := eventPayload{
			OrderID:    order.ID,
			ClientID:   order.Client.ID,
			Approved:   order.Approved,
			Status:     string(order.Status()),
			Total:      order.Total().StringFixed(2),
			Version:    order.Version,
			Actor:      actor,
			OccurredAt: now,
		}
		if order.Employee != nil {
			id := order.Employee.ID
			payload.EmployeeID = &id
		}
		if eventType != domain.EventOrderDeleted {
			for _, line := range order.Lines() {
				payload.Lines = append(payload.Lines, eventLine{
					ApplianceID: line.Appliance.ID,
					Quantity:    line.Quantity,
					Amount:      line.Amount.StringFixed(2),
				})
			}
		}

		data, err := json.Marshal(payload)
		if err != nil {
			return domain.OutboxMessage{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		return domain.OutboxMessage{
			ID:            uuid.NewString(),
			AggregateType: domain.AggregateTypeOrder,
			AggregateID:   strconv.FormatInt(order.ID, 10),
			EventType:     eventType,
			Payload:       data,
			CreatedAt:     now,
		}, nil
	}
}
