// Package tracking runs the customer-side order feed: the same reconciler as
// the dashboard, scoped to one customer resolved from a phone number.
package tracking

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tabletap/internal/auth"
	"tabletap/internal/config"
	"tabletap/internal/connections/database"
	"tabletap/internal/connections/rabbitmq"
	"tabletap/internal/domain"
	"tabletap/internal/httpx"
	"tabletap/internal/logger"
	ordersrepo "tabletap/internal/orders/repository"
	ordersservice "tabletap/internal/orders/service"
	"tabletap/internal/realtime"
)

const feedLimit = 10

type customerFetcher struct {
	repo       ordersrepo.OrdersRepositoryInterface
	customerID uuid.UUID
}

func (f customerFetcher) FetchAll(ctx context.Context) ([]domain.OrderView, error) {
	return f.repo.ListByCustomer(ctx, f.customerID, feedLimit)
}

func (f customerFetcher) FetchOne(ctx context.Context, id uuid.UUID) (domain.OrderView, error) {
	return f.repo.GetOrderView(ctx, id)
}

func Run(ctx context.Context, cfg config.App, port int, phone string) error {
	lg := logger.New("tracking-feed")

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	mq, err := rabbitmq.Dial(cfg.Rabbit)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer mq.Close()

	tokens := auth.NewTokens(cfg.Auth.Secret)
	repo := ordersrepo.NewOrdersRepository(db)
	trackSvc := ordersservice.NewTrackingService(repo)

	customer, err := repo.GetCustomerByPhone(ctx, phone)
	if err != nil {
		return fmt.Errorf("resolve customer: %w", err)
	}

	rec := realtime.NewReconciler()
	applier := realtime.NewApplier(rec, customerFetcher{repo: repo, customerID: customer.ID}, lg)
	sub := realtime.NewSubscriber(mq, domain.CustomerScope(customer.ID),
		"tracking-"+customer.ID.String(), applier, lg)

	subCtx, stopSub := context.WithCancel(ctx)
	defer stopSub()
	subDone := make(chan error, 1)
	go func() { subDone <- sub.Run(subCtx) }()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	requirePhone := func(c *gin.Context) bool {
		if err := auth.RequirePhone(auth.CallerIdentity(c), phone); err != nil {
			httpx.Error(c, err)
			return false
		}
		return true
	}

	track := r.Group("/track", auth.Middleware(tokens))

	track.GET("/orders", func(c *gin.Context) {
		if !requirePhone(c) {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"customer": gin.H{
				"name":           customer.Name,
				"phone":          customer.Phone,
				"loyalty_points": customer.LoyaltyPoints,
			},
			"orders": rec.Snapshot(),
		})
	})

	track.GET("/orders/:orderId/receipt", func(c *gin.Context) {
		if !requirePhone(c) {
			return
		}
		orderID, err := uuid.Parse(c.Param("orderId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}
		text, err := trackSvc.Receipt(c.Request.Context(), auth.CallerIdentity(c), orderID)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
	})

	lg.Info("service_started", map[string]any{"port": port, "customer_id": customer.ID})
	srv := httpx.New(":"+strconv.Itoa(port), r)
	err = srv.Run(ctx)

	stopSub()
	<-subDone
	return err
}
