package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabletap/internal/auth"
	"tabletap/internal/domain"
)

func newTrackingFixture() (*fakeOrdersRepo, TrackingServiceInterface, domain.Restaurant, domain.Customer, uuid.UUID) {
	rest := domain.Restaurant{ID: uuid.New(), OwnerID: uuid.New(), Name: "Spice Garden", IsActive: true}
	customer := domain.Customer{ID: uuid.New(), Name: "Kamala", Phone: "+94770000000", LoyaltyPoints: 42}
	orderID := uuid.New()
	repo := &fakeOrdersRepo{
		tx: &fakeTx{restaurant: rest, customer: &customer},
		views: map[uuid.UUID]domain.OrderView{
			orderID: {
				Order: domain.Order{
					ID:           orderID,
					RestaurantID: rest.ID,
					CustomerID:   &customer.ID,
					TableNumber:  "2",
					Status:       domain.StatusPreparing,
					TotalAmount:  price(500),
					CreatedAt:    time.Now(),
				},
				Items:         []domain.OrderItem{{Name: "Kottu Roti", Quantity: 1, UnitPrice: price(500), TotalPrice: price(500)}},
				CustomerName:  customer.Name,
				CustomerPhone: customer.Phone,
			},
		},
	}
	return repo, NewTrackingService(repo), rest, customer, orderID
}

func TestCustomerOrdersRequiresCustomerSession(t *testing.T) {
	_, svc, _, _, _ := newTrackingFixture()

	_, _, err := svc.CustomerOrders(context.Background(), auth.Identity{Role: auth.RoleOwner, OwnerID: uuid.New()})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, _, err = svc.CustomerOrders(context.Background(), auth.Identity{})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCustomerOrdersUnknownPhone(t *testing.T) {
	_, svc, _, _, _ := newTrackingFixture()

	_, _, err := svc.CustomerOrders(context.Background(), auth.Identity{Role: auth.RoleCustomer, Phone: "+94779999999"})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCustomerOrdersResolvesLedger(t *testing.T) {
	_, svc, _, customer, _ := newTrackingFixture()

	got, _, err := svc.CustomerOrders(context.Background(), auth.Identity{Role: auth.RoleCustomer, Phone: customer.Phone})
	require.NoError(t, err)
	assert.Equal(t, customer.ID, got.ID)
	assert.Equal(t, 42, got.LoyaltyPoints)
}

func TestReceiptForOwnOrder(t *testing.T) {
	_, svc, _, customer, orderID := newTrackingFixture()

	text, err := svc.Receipt(context.Background(), auth.Identity{Role: auth.RoleCustomer, Phone: customer.Phone}, orderID)
	require.NoError(t, err)
	assert.Contains(t, text, "Spice Garden")
	assert.Contains(t, text, "Kottu Roti")
	assert.Contains(t, text, "Status: preparing")
}

func TestReceiptForOwner(t *testing.T) {
	_, svc, rest, _, orderID := newTrackingFixture()

	text, err := svc.Receipt(context.Background(), auth.Identity{Role: auth.RoleOwner, OwnerID: rest.OwnerID}, orderID)
	require.NoError(t, err)
	assert.Contains(t, text, "TOTAL")
}

func TestReceiptDeniedForOtherPhone(t *testing.T) {
	_, svc, _, _, orderID := newTrackingFixture()

	_, err := svc.Receipt(context.Background(), auth.Identity{Role: auth.RoleCustomer, Phone: "+94771111111"}, orderID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestReceiptDeniedForOtherOwner(t *testing.T) {
	_, svc, _, _, orderID := newTrackingFixture()

	_, err := svc.Receipt(context.Background(), auth.Identity{Role: auth.RoleOwner, OwnerID: uuid.New()}, orderID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestReceiptUnknownOrder(t *testing.T) {
	_, svc, rest, _, _ := newTrackingFixture()

	_, err := svc.Receipt(context.Background(), auth.Identity{Role: auth.RoleOwner, OwnerID: rest.OwnerID}, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
