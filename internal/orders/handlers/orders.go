package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"tabletap/internal/auth"
	"tabletap/internal/domain"
	"tabletap/internal/httpx"
	"tabletap/internal/logger"
	"tabletap/internal/orders/service"
)

var validate = validator.New()

type OrdersHandler struct {
	orders   service.OrderServiceInterface
	status   service.StatusServiceInterface
	tracking service.TrackingServiceInterface
	lg       *logger.Logger
}

func NewOrdersHandler(orders service.OrderServiceInterface, status service.StatusServiceInterface, tracking service.TrackingServiceInterface, lg *logger.Logger) *OrdersHandler {
	return &OrdersHandler{orders: orders, status: status, tracking: tracking, lg: lg}
}

type submitItemDTO struct {
	MenuItemID          string `json:"menu_item_id" validate:"required,uuid"`
	Quantity            int    `json:"quantity" validate:"required,gt=0"`
	SpecialInstructions string `json:"special_instructions"`
}

type submitRequestDTO struct {
	TableNumber         string          `json:"table_number" validate:"required"`
	Items               []submitItemDTO `json:"items" validate:"required,min=1,dive"`
	CustomerName        string          `json:"customer_name"`
	CustomerPhone       string          `json:"customer_phone"`
	SpecialInstructions string          `json:"special_instructions"`
	PointsToRedeem      int             `json:"points_to_redeem" validate:"gte=0"`
}

type receiptLineDTO struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
}

type receiptDTO struct {
	OrderID      string           `json:"order_id"`
	Lines        []receiptLineDTO `json:"items"`
	Subtotal     string           `json:"subtotal"`
	Discount     string           `json:"discount"`
	FinalAmount  string           `json:"final_amount"`
	PointsUsed   int              `json:"points_used"`
	PointsEarned int              `json:"points_earned"`
}

// SubmitOrder is the public checkout endpoint behind the table QR code.
func (h *OrdersHandler) SubmitOrder(c *gin.Context) {
	restaurantID, err := uuid.Parse(c.Param("restaurantId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant id"})
		return
	}
	var req submitRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cart := domain.Cart{}
	for _, it := range req.Items {
		itemID, err := uuid.Parse(it.MenuItemID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid menu item id"})
			return
		}
		cart.Lines = append(cart.Lines, domain.CartLine{
			MenuItemID:          itemID,
			Quantity:            it.Quantity,
			SpecialInstructions: it.SpecialInstructions,
		})
	}

	receipt, err := h.orders.Submit(c.Request.Context(), service.SubmitRequest{
		RestaurantID:        restaurantID,
		TableNumber:         req.TableNumber,
		Cart:                cart,
		CustomerName:        req.CustomerName,
		CustomerPhone:       req.CustomerPhone,
		SpecialInstructions: req.SpecialInstructions,
		PointsToRedeem:      req.PointsToRedeem,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReceiptDTO(receipt))
}

func toReceiptDTO(r service.Receipt) receiptDTO {
	dto := receiptDTO{
		OrderID:      r.OrderID.String(),
		Subtotal:     r.Subtotal.StringFixed(2),
		Discount:     r.Discount.StringFixed(2),
		FinalAmount:  r.FinalAmount.StringFixed(2),
		PointsUsed:   r.PointsUsed,
		PointsEarned: r.PointsEarned,
	}
	for _, l := range r.Lines {
		dto.Lines = append(dto.Lines, receiptLineDTO{
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice.StringFixed(2),
			TotalPrice: l.TotalPrice.StringFixed(2),
		})
	}
	return dto
}

type statusRequestDTO struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed preparing ready completed cancelled"`
}

// UpdateStatus is the staff transition endpoint; the service enforces the
// transition table.
func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req statusRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.status.UpdateStatus(c.Request.Context(), auth.CallerIdentity(c), orderID, domain.OrderStatus(req.Status))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderDTO(view))
}

func (h *OrdersHandler) AdvanceOrder(c *gin.Context) {
	h.transition(c, h.status.Advance)
}

func (h *OrdersHandler) CancelOrder(c *gin.Context) {
	h.transition(c, h.status.Cancel)
}

func (h *OrdersHandler) transition(c *gin.Context, fn func(ctx context.Context, ident auth.Identity, id uuid.UUID) (domain.OrderView, error)) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	view, err := fn(c.Request.Context(), auth.CallerIdentity(c), orderID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderDTO(view))
}

// TrackOrders returns the caller's recent orders for the tracking view.
func (h *OrdersHandler) TrackOrders(c *gin.Context) {
	customer, views, err := h.tracking.CustomerOrders(c.Request.Context(), auth.CallerIdentity(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	out := make([]orderDTO, 0, len(views))
	for _, v := range views {
		out = append(out, toOrderDTO(v))
	}
	c.JSON(http.StatusOK, gin.H{
		"customer": gin.H{
			"name":           customer.Name,
			"phone":          customer.Phone,
			"loyalty_points": customer.LoyaltyPoints,
			"total_orders":   customer.TotalOrders,
		},
		"orders": out,
	})
}

func (h *OrdersHandler) Receipt(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	text, err := h.tracking.Receipt(c.Request.Context(), auth.CallerIdentity(c), orderID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

type orderItemDTO struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
}

type orderDTO struct {
	ID                  string         `json:"id"`
	TableNumber         string         `json:"table_number"`
	Status              string         `json:"status"`
	TotalAmount         string         `json:"total_amount"`
	LoyaltyPointsEarned int            `json:"loyalty_points_earned"`
	LoyaltyPointsUsed   int            `json:"loyalty_points_used"`
	SpecialInstructions string         `json:"special_instructions,omitempty"`
	EstimatedReadyTime  *string        `json:"estimated_ready_time,omitempty"`
	CreatedAt           string         `json:"created_at"`
	CustomerName        string         `json:"customer_name,omitempty"`
	CustomerPhone       string         `json:"customer_phone,omitempty"`
	Items               []orderItemDTO `json:"items"`
}

func toOrderDTO(v domain.OrderView) orderDTO {
	dto := orderDTO{
		ID:                  v.Order.ID.String(),
		TableNumber:         v.Order.TableNumber,
		Status:              string(v.Order.Status),
		TotalAmount:         v.Order.TotalAmount.StringFixed(2),
		LoyaltyPointsEarned: v.Order.LoyaltyPointsEarned,
		LoyaltyPointsUsed:   v.Order.LoyaltyPointsUsed,
		SpecialInstructions: v.Order.SpecialInstructions,
		CreatedAt:           v.Order.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		CustomerName:        v.CustomerName,
		CustomerPhone:       v.CustomerPhone,
	}
	if v.Order.EstimatedReadyTime != nil {
		t := v.Order.EstimatedReadyTime.UTC().Format("2006-01-02T15:04:05Z07:00")
		dto.EstimatedReadyTime = &t
	}
	for _, it := range v.Items {
		dto.Items = append(dto.Items, orderItemDTO{
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice.StringFixed(2),
			TotalPrice: it.TotalPrice.StringFixed(2),
		})
	}
	return dto
}
