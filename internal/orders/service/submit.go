package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tabletap/internal/domain"
	"tabletap/internal/logger"
	"tabletap/internal/orders/repository"
)

// Publisher emits realtime order events after a committed write. A failed
// publish never fails the order: subscribers converge on their next reload.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, ev domain.OrderEvent) error
}

type SubmitRequest struct {
	RestaurantID        uuid.UUID
	TableNumber         string
	Cart                domain.Cart
	CustomerName        string
	CustomerPhone       string
	SpecialInstructions string
	PointsToRedeem      int
}

// Receipt is the summary returned to the customer after submission.
type Receipt struct {
	OrderID      uuid.UUID
	Lines        []ReceiptLine
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	FinalAmount  decimal.Decimal
	PointsUsed   int
	PointsEarned int
}

type ReceiptLine struct {
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

type OrderServiceInterface interface {
	Submit(ctx context.Context, req SubmitRequest) (Receipt, error)
}

type OrderService struct {
	repo  repository.OrdersRepositoryInterface
	pub   Publisher
	rates domain.LoyaltyRates
	lg    *logger.Logger
}

func NewOrderService(repo repository.OrdersRepositoryInterface, pub Publisher, rates domain.LoyaltyRates, lg *logger.Logger) OrderServiceInterface {
	return &OrderService{repo: repo, pub: pub, rates: rates, lg: lg}
}

// Submit converts a cart plus optional customer identity into a persisted
// order, its items, and a loyalty ledger update in one transaction.
// Validation errors surface before any row is written; a storage failure at
// any step rolls back every prior step.
func (s *OrderService) Submit(ctx context.Context, req SubmitRequest) (Receipt, error) {
	if strings.TrimSpace(req.TableNumber) == "" {
		return Receipt{}, fmt.Errorf("%w: table number is required", domain.ErrInvalidRequest)
	}
	if req.Cart.Empty() {
		return Receipt{}, fmt.Errorf("%w: cart is empty", domain.ErrInvalidRequest)
	}
	for _, line := range req.Cart.Lines {
		if line.Quantity <= 0 {
			return Receipt{}, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidRequest)
		}
	}
	if req.PointsToRedeem < 0 {
		return Receipt{}, fmt.Errorf("%w: points to redeem must be non-negative", domain.ErrInvalidRequest)
	}
	if req.PointsToRedeem > 0 && req.CustomerPhone == "" {
		return Receipt{}, fmt.Errorf("%w: guests cannot redeem points", domain.ErrInvalidRedemption)
	}

	var (
		receipt Receipt
		order   domain.Order
	)
	err := s.repo.Submit(ctx, func(tx repository.SubmissionTx) error {
		if _, err := tx.GetActiveRestaurant(ctx, req.RestaurantID); err != nil {
			return err
		}

		// Server-resolved pricing: the cart's idea of a price is ignored.
		ids := make([]uuid.UUID, 0, len(req.Cart.Lines))
		for _, line := range req.Cart.Lines {
			ids = append(ids, line.MenuItemID)
		}
		catalog, err := tx.GetAvailableItems(ctx, req.RestaurantID, ids)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		items := make([]domain.OrderItem, 0, len(req.Cart.Lines))
		for _, line := range req.Cart.Lines {
			menuItem, ok := catalog[line.MenuItemID]
			if !ok {
				// Whole order rejected, never partially fulfilled.
				return fmt.Errorf("%w: item %s", domain.ErrItemUnavailable, line.MenuItemID)
			}
			lineTotal := menuItem.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			subtotal = subtotal.Add(lineTotal)
			items = append(items, domain.OrderItem{
				ID:                  uuid.New(),
				MenuItemID:          menuItem.ID,
				Name:                menuItem.Name,
				Quantity:            line.Quantity,
				UnitPrice:           menuItem.Price,
				TotalPrice:          lineTotal,
				SpecialInstructions: line.SpecialInstructions,
			})
		}

		var customerID *uuid.UUID
		pointsUsed := 0

		existing, found := domain.Customer{}, false
		if req.CustomerPhone != "" {
			existing, found, err = tx.GetCustomerForUpdate(ctx, req.CustomerPhone)
			if err != nil {
				return err
			}
		}

		if req.PointsToRedeem > 0 {
			if !found {
				return fmt.Errorf("%w: no loyalty account for this phone", domain.ErrInvalidRedemption)
			}
			max := s.rates.MaxRedeemable(existing.LoyaltyPoints, subtotal)
			if req.PointsToRedeem > max {
				return fmt.Errorf("%w: requested %d, redeemable %d", domain.ErrInvalidRedemption, req.PointsToRedeem, max)
			}
			pointsUsed = req.PointsToRedeem
		}

		discount := s.rates.Discount(pointsUsed)
		finalAmount := subtotal.Sub(discount)
		if finalAmount.IsNegative() {
			finalAmount = decimal.Zero
		}
		pointsEarned := s.rates.PointsEarned(finalAmount)

		switch {
		case found:
			name := existing.Name
			if req.CustomerName != "" {
				name = req.CustomerName
			}
			existing.Name = name
			existing.LoyaltyPoints = domain.NewBalance(existing.LoyaltyPoints, pointsUsed, pointsEarned)
			existing.TotalOrders++
			if err := tx.UpdateCustomer(ctx, existing); err != nil {
				return err
			}
			customerID = &existing.ID
		case req.CustomerPhone != "" || req.CustomerName != "":
			c := domain.Customer{
				ID:            uuid.New(),
				Name:          req.CustomerName,
				Phone:         req.CustomerPhone,
				LoyaltyPoints: pointsEarned,
				TotalOrders:   1,
			}
			if err := tx.CreateCustomer(ctx, c); err != nil {
				return err
			}
			customerID = &c.ID
		default:
			// Guest checkout: earned points are still recorded on the order,
			// but there is no customer ledger to credit them to.
		}

		order = domain.Order{
			ID:                  uuid.New(),
			RestaurantID:        req.RestaurantID,
			CustomerID:          customerID,
			TableNumber:         req.TableNumber,
			Status:              domain.StatusPending,
			TotalAmount:         finalAmount,
			LoyaltyPointsEarned: pointsEarned,
			LoyaltyPointsUsed:   pointsUsed,
			SpecialInstructions: req.SpecialInstructions,
		}
		order, err = tx.InsertOrder(ctx, order)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.InsertOrderItems(ctx, items); err != nil {
			return err
		}

		lines := make([]ReceiptLine, 0, len(items))
		for _, it := range items {
			lines = append(lines, ReceiptLine{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice, TotalPrice: it.TotalPrice})
		}
		receipt = Receipt{
			OrderID:      order.ID,
			Lines:        lines,
			Subtotal:     subtotal,
			Discount:     discount,
			FinalAmount:  finalAmount,
			PointsUsed:   pointsUsed,
			PointsEarned: pointsEarned,
		}
		return nil
	})
	if err != nil {
		s.lg.Error("order_submission_failed", err, map[string]any{
			"restaurant_id": req.RestaurantID,
			"table_number":  req.TableNumber,
			"cart_size":     len(req.Cart.Lines),
			"points":        req.PointsToRedeem,
		})
		return Receipt{}, err
	}

	s.lg.Info("order_placed", map[string]any{
		"order_id":      order.ID,
		"restaurant_id": order.RestaurantID,
		"table_number":  order.TableNumber,
		"total":         receipt.FinalAmount.String(),
		"points_earned": receipt.PointsEarned,
		"points_used":   receipt.PointsUsed,
	})

	if s.pub != nil {
		if err := s.pub.PublishOrderEvent(ctx, domain.NewOrderEvent(domain.EventInsert, order)); err != nil {
			s.lg.Error("order_event_publish_failed", err, map[string]any{"order_id": order.ID})
		}
	}
	return receipt, nil
}
