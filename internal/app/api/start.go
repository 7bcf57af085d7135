// Package api wires the HTTP API server: catalog reads, menu administration,
// order submission, status transitions and customer tracking.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tabletap/internal/auth"
	cataloghandlers "tabletap/internal/catalog/handlers"
	catalogrepo "tabletap/internal/catalog/repository"
	catalogservice "tabletap/internal/catalog/service"
	"tabletap/internal/config"
	"tabletap/internal/connections/database"
	"tabletap/internal/connections/rabbitmq"
	"tabletap/internal/connections/redisdb"
	"tabletap/internal/httpx"
	"tabletap/internal/logger"
	orderhandlers "tabletap/internal/orders/handlers"
	ordersrepo "tabletap/internal/orders/repository"
	ordersservice "tabletap/internal/orders/service"
	"tabletap/internal/realtime"
)

func Run(ctx context.Context, cfg config.App, port int) error {
	lg := logger.New("api-server")

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

	cache, err := redisdb.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer cache.Close()

	tokens := auth.NewTokens(cfg.Auth.Secret)
	publisher := realtime.NewPublisher(mq)

	catRepo := catalogrepo.NewCatalogRepository(db)
	catSvc := catalogservice.NewCatalogService(catRepo, cache, lg)
	catHandler := cataloghandlers.NewCatalogHandler(catSvc, lg)

	ordRepo := ordersrepo.NewOrdersRepository(db)
	ordSvc := ordersservice.NewOrderService(ordRepo, publisher, cfg.LoyaltyRates(), lg)
	statusSvc := ordersservice.NewStatusService(ordRepo, publisher, lg)
	trackSvc := ordersservice.NewTrackingService(ordRepo)
	ordHandler := orderhandlers.NewOrdersHandler(ordSvc, statusSvc, trackSvc, lg)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok"}
		if err := mq.Ping(); err != nil {
			status = http.StatusServiceUnavailable
			body = gin.H{"status": "degraded", "rabbitmq": err.Error()}
		}
		c.JSON(status, body)
	})

	// Customer sessions are phone-bound; the token is how the tracking view
	// proves owns-phone-session on later calls.
	r.POST("/api/sessions/customer", func(c *gin.Context) {
		var req struct {
			Phone string `json:"phone" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "phone is required"})
			return
		}
		token, err := tokens.MintCustomer(req.Phone)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"token": token})
	})

	// Public surface behind the table QR code.
	menu := r.Group("/api/menu/:restaurantId")
	{
		menu.GET("/categories", catHandler.Categories)
		menu.GET("/items", catHandler.Items)
		menu.POST("/orders", ordHandler.SubmitOrder)
	}

	// Everything below requires an explicit caller identity.
	authed := r.Group("/api", auth.Middleware(tokens))
	{
		authed.GET("/restaurants/:restaurantId/menu", catHandler.MenuPage)
		authed.POST("/restaurants/:restaurantId/categories", catHandler.CreateCategory)
		authed.PUT("/restaurants/:restaurantId/categories/:categoryId", catHandler.UpdateCategory)
		authed.DELETE("/restaurants/:restaurantId/categories/:categoryId", catHandler.DeleteCategory)
		authed.POST("/restaurants/:restaurantId/items", catHandler.CreateItem)
		authed.PUT("/restaurants/:restaurantId/items/:itemId", catHandler.UpdateItem)
		authed.DELETE("/restaurants/:restaurantId/items/:itemId", catHandler.DeleteItem)

		authed.PATCH("/orders/:orderId/status", ordHandler.UpdateStatus)
		authed.POST("/orders/:orderId/advance", ordHandler.AdvanceOrder)
		authed.POST("/orders/:orderId/cancel", ordHandler.CancelOrder)

		authed.GET("/track/orders", ordHandler.TrackOrders)
		authed.GET("/track/orders/:orderId/receipt", ordHandler.Receipt)
	}

	lg.Info("service_started", map[string]any{"port": port})
	srv := httpx.New(":"+strconv.Itoa(port), r)
	return srv.Run(ctx)
}
