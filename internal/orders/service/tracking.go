package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tabletap/internal/auth"
	"tabletap/internal/domain"
	"tabletap/internal/orders/repository"
)

const trackingLimit = 10

type TrackingServiceInterface interface {
	CustomerOrders(ctx context.Context, ident auth.Identity) (domain.Customer, []domain.OrderView, error)
	Receipt(ctx context.Context, ident auth.Identity, orderID uuid.UUID) (string, error)
}

// TrackingService is the customer-facing read projection: a phone-bound
// session sees its own recent orders and receipts, nothing else.
type TrackingService struct {
	repo repository.OrdersRepositoryInterface
}

func NewTrackingService(repo repository.OrdersRepositoryInterface) TrackingServiceInterface {
	return &TrackingService{repo: repo}
}

func (s *TrackingService) CustomerOrders(ctx context.Context, ident auth.Identity) (domain.Customer, []domain.OrderView, error) {
	if ident.Role != auth.RoleCustomer || ident.Phone == "" {
		return domain.Customer{}, nil, fmt.Errorf("%w: customer session required", domain.ErrUnauthorized)
	}
	customer, err := s.repo.GetCustomerByPhone(ctx, ident.Phone)
	if err != nil {
		return domain.Customer{}, nil, err
	}
	views, err := s.repo.ListByCustomer(ctx, customer.ID, trackingLimit)
	if err != nil {
		return domain.Customer{}, nil, err
	}
	return customer, views, nil
}

// Receipt renders a plain-text receipt for one of the caller's own orders;
// restaurant owners can render receipts for their restaurant's orders too.
func (s *TrackingService) Receipt(ctx context.Context, ident auth.Identity, orderID uuid.UUID) (string, error) {
	view, err := s.repo.GetOrderView(ctx, orderID)
	if err != nil {
		return "", err
	}
	rest, err := s.repo.GetRestaurant(ctx, view.Order.RestaurantID)
	if err != nil {
		return "", err
	}

	switch ident.Role {
	case auth.RoleOwner:
		if err := auth.RequireOwner(ident, rest); err != nil {
			return "", err
		}
	case auth.RoleCustomer:
		if err := auth.RequirePhone(ident, view.CustomerPhone); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("%w: unknown caller", domain.ErrUnauthorized)
	}
	return RenderReceipt(rest.Name, view), nil
}
