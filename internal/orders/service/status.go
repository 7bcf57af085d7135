package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tabletap/internal/auth"
	"tabletap/internal/domain"
	"tabletap/internal/logger"
	"tabletap/internal/orders/repository"
)

// transitions is the explicit table: the single forward advance per state,
// plus cancellation from every non-terminal state. ready is cancellable,
// matching the dashboard that offers Cancel until an order is terminal.
var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.StatusPending:   {domain.StatusConfirmed, domain.StatusCancelled},
	domain.StatusConfirmed: {domain.StatusPreparing, domain.StatusCancelled},
	domain.StatusPreparing: {domain.StatusReady, domain.StatusCancelled},
	domain.StatusReady:     {domain.StatusCompleted, domain.StatusCancelled},
	domain.StatusCompleted: nil,
	domain.StatusCancelled: nil,
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to domain.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatus is the single forward advance a state exposes, or "" for
// terminal states.
func NextStatus(from domain.OrderStatus) domain.OrderStatus {
	switch from {
	case domain.StatusPending:
		return domain.StatusConfirmed
	case domain.StatusConfirmed:
		return domain.StatusPreparing
	case domain.StatusPreparing:
		return domain.StatusReady
	case domain.StatusReady:
		return domain.StatusCompleted
	default:
		return ""
	}
}

type StatusServiceInterface interface {
	UpdateStatus(ctx context.Context, ident auth.Identity, orderID uuid.UUID, to domain.OrderStatus) (domain.OrderView, error)
	Advance(ctx context.Context, ident auth.Identity, orderID uuid.UUID) (domain.OrderView, error)
	Cancel(ctx context.Context, ident auth.Identity, orderID uuid.UUID) (domain.OrderView, error)
}

type StatusService struct {
	repo repository.OrdersRepositoryInterface
	pub  Publisher
	lg   *logger.Logger
}

func NewStatusService(repo repository.OrdersRepositoryInterface, pub Publisher, lg *logger.Logger) StatusServiceInterface {
	return &StatusService{repo: repo, pub: pub, lg: lg}
}

// UpdateStatus enforces the transition table; the storage layer accepts any
// status value, so this is the only gate.
func (s *StatusService) UpdateStatus(ctx context.Context, ident auth.Identity, orderID uuid.UUID, to domain.OrderStatus) (domain.OrderView, error) {
	view, err := s.repo.GetOrderView(ctx, orderID)
	if err != nil {
		return domain.OrderView{}, err
	}
	rest, err := s.repo.GetRestaurant(ctx, view.Order.RestaurantID)
	if err != nil {
		return domain.OrderView{}, err
	}
	if err := auth.RequireOwner(ident, rest); err != nil {
		return domain.OrderView{}, err
	}

	from := view.Order.Status
	if !CanTransition(from, to) {
		return domain.OrderView{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}

	moved, err := s.repo.UpdateStatus(ctx, orderID, from, to, to == domain.StatusReady)
	if err != nil {
		return domain.OrderView{}, err
	}
	if !moved {
		// Someone else moved the order between our read and write.
		return domain.OrderView{}, fmt.Errorf("%w: order is no longer %s", domain.ErrInvalidTransition, from)
	}

	updated, err := s.repo.GetOrderView(ctx, orderID)
	if err != nil {
		return domain.OrderView{}, err
	}
	s.lg.Info("order_status_changed", map[string]any{
		"order_id": orderID, "from": from, "to": to,
	})
	if s.pub != nil {
		if err := s.pub.PublishOrderEvent(ctx, domain.NewOrderEvent(domain.EventUpdate, updated.Order)); err != nil {
			s.lg.Error("order_event_publish_failed", err, map[string]any{"order_id": orderID})
		}
	}
	return updated, nil
}

// Advance applies the single forward action the staff UI exposes.
func (s *StatusService) Advance(ctx context.Context, ident auth.Identity, orderID uuid.UUID) (domain.OrderView, error) {
	view, err := s.repo.GetOrderView(ctx, orderID)
	if err != nil {
		return domain.OrderView{}, err
	}
	next := NextStatus(view.Order.Status)
	if next == "" {
		return domain.OrderView{}, fmt.Errorf("%w: %s is terminal", domain.ErrInvalidTransition, view.Order.Status)
	}
	return s.UpdateStatus(ctx, ident, orderID, next)
}

func (s *StatusService) Cancel(ctx context.Context, ident auth.Identity, orderID uuid.UUID) (domain.OrderView, error) {
	return s.UpdateStatus(ctx, ident, orderID, domain.StatusCancelled)
}
