package domain

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRoutingKeyForCustomerOrder(t *testing.T) {
	restID := uuid.New()
	custID := uuid.New()
	ev := NewOrderEvent(EventInsert, Order{
		ID:           uuid.New(),
		RestaurantID: restID,
		CustomerID:   &custID,
	})

	assert.Equal(t, fmt.Sprintf("order.%s.%s.insert", restID, custID), ev.RoutingKey())
}

func TestRoutingKeyForGuestOrder(t *testing.T) {
	restID := uuid.New()
	ev := NewOrderEvent(EventUpdate, Order{ID: uuid.New(), RestaurantID: restID})

	assert.Equal(t, "guest", ev.CustomerID)
	assert.Equal(t, fmt.Sprintf("order.%s.guest.update", restID), ev.RoutingKey())
}

func TestScopePatterns(t *testing.T) {
	restID := uuid.New()
	custID := uuid.New()

	assert.Equal(t, fmt.Sprintf("order.%s.*.*", restID), RestaurantScope(restID))
	assert.Equal(t, fmt.Sprintf("order.*.%s.*", custID), CustomerScope(custID))
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusReady.Terminal())
}
