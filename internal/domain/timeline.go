package domain

import "time"

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID int64
	Type    string
	// Actor — email пользователя, выполнившего операцию.
	Actor    string
	Reason   string
	Occurred time.Time
}
