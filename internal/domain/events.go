package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// OrderEvent is the realtime notification published after a committed order
// write. It carries ids only: subscribers re-fetch authoritative state rather
// than trusting the payload.
type OrderEvent struct {
	Type         EventType `json:"type"`
	OrderID      uuid.UUID `json:"order_id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	CustomerID   string    `json:"customer_id"` // "guest" when the order has no customer
	EmittedAt    time.Time `json:"emitted_at"`
}

const guestSegment = "guest"

// RoutingKey is order.<restaurant>.<customer|guest>.<type>, so a dashboard
// binds order.<rid>.*.* and a customer tracking view binds order.*.<cid>.*.
func (e OrderEvent) RoutingKey() string {
	cust := e.CustomerID
	if cust == "" {
		cust = guestSegment
	}
	return fmt.Sprintf("order.%s.%s.%s", e.RestaurantID, cust, e.Type)
}

func NewOrderEvent(t EventType, o Order) OrderEvent {
	ev := OrderEvent{
		Type:         t,
		OrderID:      o.ID,
		RestaurantID: o.RestaurantID,
		CustomerID:   guestSegment,
		EmittedAt:    time.Now().UTC(),
	}
	if o.CustomerID != nil {
		ev.CustomerID = o.CustomerID.String()
	}
	return ev
}

// RestaurantScope and CustomerScope are the two server-side filters the
// realtime channel supports.
func RestaurantScope(restaurantID uuid.UUID) string {
	return fmt.Sprintf("order.%s.*.*", restaurantID)
}

func CustomerScope(customerID uuid.UUID) string {
	return fmt.Sprintf("order.*.%s.*", customerID)
}
