// Package dashboard runs the staff-side realtime feed for one restaurant:
// a reconciled, newest-first order list kept in sync with the event stream,
// plus optimistic status actions.
package dashboard

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

// restaurantFetcher adapts the orders repository to the realtime fetch
// contract, scoped to one tenant.
type restaurantFetcher struct {
	repo         ordersrepo.OrdersRepositoryInterface
	restaurantID uuid.UUID
}

func (f restaurantFetcher) FetchAll(ctx context.Context) ([]domain.OrderView, error) {
	return f.repo.ListByRestaurant(ctx, f.restaurantID)
}

func (f restaurantFetcher) FetchOne(ctx context.Context, id uuid.UUID) (domain.OrderView, error) {
	return f.repo.GetOrderView(ctx, id)
}

func Run(ctx context.Context, cfg config.App, port int, restaurantID uuid.UUID) error {
	lg := logger.New("dashboard-feed")

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
	statusSvc := ordersservice.NewStatusService(repo, realtime.NewPublisher(mq), lg)

	rec := realtime.NewReconciler()
	fetcher := restaurantFetcher{repo: repo, restaurantID: restaurantID}
	applier := realtime.NewApplier(rec, fetcher, lg)

	sub := realtime.NewSubscriber(mq, domain.RestaurantScope(restaurantID),
		"dashboard-"+restaurantID.String(), applier, lg)

	subCtx, stopSub := context.WithCancel(ctx)
	defer stopSub()
	subDone := make(chan error, 1)
	go func() { subDone <- sub.Run(subCtx) }()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	requireOwner := func(c *gin.Context) bool {
		rest, err := repo.GetRestaurant(c.Request.Context(), restaurantID)
		if err != nil {
			httpx.Error(c, err)
			return false
		}
		if err := auth.RequireOwner(auth.CallerIdentity(c), rest); err != nil {
			httpx.Error(c, err)
			return false
		}
		return true
	}

	live := r.Group("/live", auth.Middleware(tokens))

	live.GET("/orders", func(c *gin.Context) {
		if !requireOwner(c) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": rec.Snapshot()})
	})

	live.GET("/stats", func(c *gin.Context) {
		if !requireOwner(c) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": rec.Stats()})
	})

	// Optimistic status actions: the local list flips immediately, then the
	// write either confirms it (fresh view upserted) or a reload restores
	// the previous truth. The stuck optimistic value is the failure mode to
	// avoid.
	transition := func(c *gin.Context, fn func(context.Context, auth.Identity, uuid.UUID) (domain.OrderView, error), optimistic func(domain.OrderStatus) domain.OrderStatus) {
		if !requireOwner(c) {
			return
		}
		orderID, err := uuid.Parse(c.Param("orderId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}
		if cur, ok := rec.Get(orderID); ok {
			if next := optimistic(cur.Order.Status); next != "" {
				rec.SetStatus(orderID, next)
			}
		}
		view, err := fn(c.Request.Context(), auth.CallerIdentity(c), orderID)
		if err != nil {
			if rerr := applier.Reload(c.Request.Context()); rerr != nil {
				lg.Error("optimistic_rollback_failed", rerr, map[string]any{"order_id": orderID})
			}
			httpx.Error(c, err)
			return
		}
		rec.Upsert(view)
		c.JSON(http.StatusOK, gin.H{"order_id": view.Order.ID, "status": view.Order.Status})
	}

	live.POST("/orders/:orderId/advance", func(c *gin.Context) {
		transition(c, statusSvc.Advance, ordersservice.NextStatus)
	})
	live.POST("/orders/:orderId/cancel", func(c *gin.Context) {
		transition(c, statusSvc.Cancel, func(from domain.OrderStatus) domain.OrderStatus {
			if from.Terminal() {
				return ""
			}
			return domain.StatusCancelled
		})
	})

	lg.Info("service_started", map[string]any{"port": port, "restaurant_id": restaurantID})
	srv := httpx.New(":"+strconv.Itoa(port), r)
	err = srv.Run(ctx)

	stopSub()
	<-subDone
	return err
}
