package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order-tracker/internal/core/auth"
	"order-tracker/internal/core/config"
	"order-tracker/internal/core/database"
	"order-tracker/internal/core/docstore"
	"order-tracker/internal/core/logger"
	"order-tracker/internal/core/server"
	"order-tracker/internal/core/telemetry"
	orderadapter "order-tracker/internal/features/orders/adapters"
	orderhandler "order-tracker/internal/features/orders/handler"
	orderports "order-tracker/internal/features/orders/ports"
	orderservice "order-tracker/internal/features/orders/service"
	trackingadapter "order-tracker/internal/features/tracking/adapters"
	trackinghandler "order-tracker/internal/features/tracking/handler"

	"go.uber.org/zap"
)

// @title Order Tracker API
// @version 1.0
// @description Order lifecycle tracking: status changes, tracking events and live order streams.
// @contact.name API Support
// @license.name MIT
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	ctx := context.Background()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Environment)
	if err != nil {
		l.Fatal("Failed to init tracing", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			l.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	// Initialize the document store and run Health Check
	store, err := docstore.NewRedisStore(cfg.Redis.URL, docstore.WithHealthCheckInterval(cfg.Redis.HealthCheckInterval))
	if err != nil {
		l.Fatal("Failed to create document store", zap.Error(err))
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		l.Fatal("Document store Health Check Failed", zap.Error(err))
	}
	l.Info("Document store connection verified")

	// The audit trail is optional
	var audit orderports.AuditRecorder
	if cfg.Audit.DatabaseURL != "" {
		db, err := database.Open(cfg.Audit.DatabaseURL)
		if err != nil {
			l.Fatal("Failed to connect audit database", zap.Error(err))
		}
		defer database.Close(db)

		recorder := orderadapter.NewGormAuditRecorder(db)
		if err := recorder.Migrate(ctx); err != nil {
			l.Fatal("Failed to migrate audit database", zap.Error(err))
		}
		audit = recorder
	} else {
		l.Info("Audit trail disabled")
	}

	// Initialize Order Service & Handlers
	repo := orderadapter.NewRedisOrderRepository(store, cfg.Gateway.MaxAttempts)
	orderService := orderservice.NewOrderService(repo, audit)
	orderHdl := orderhandler.NewOrderHandler(orderService)
	adminHdl := orderhandler.NewAdminOrderHandler(orderService)

	// Initialize Tracking Feed & Handler
	feed := trackingadapter.NewRedisFeed(store)
	trackingHdl := trackinghandler.NewTrackingHandler(orderService, feed, cfg.Feed.ReconnectInterval, cfg.Feed.HeartbeatInterval)

	srv := server.New(cfg, store)

	// Register Routes
	authn := auth.Middleware(cfg.Auth.JWTSecret)

	orders := srv.App.Group("/orders", authn)
	orders.Post("", orderHdl.PlaceOrder)
	orders.Get("/:id", orderHdl.GetOrder)
	orders.Post("/:id/cancellation", orderHdl.RequestCancellation)
	orders.Get("/:id/timeline", trackingHdl.GetTimeline)
	orders.Get("/:id/stream", trackingHdl.Stream)

	admin := srv.App.Group("/admin", authn, auth.RequireRole(auth.RoleOperator))
	admin.Get("/orders", adminHdl.ListOrders)
	admin.Get("/orders/:id", adminHdl.GetOrder)
	admin.Get("/orders/:id/audit", adminHdl.AuditTrail)
	admin.Post("/orders/:id/events", adminHdl.AppendEvent)
	admin.Post("/orders/:id/cancellation/approve", adminHdl.ApproveCancellation)
	admin.Post("/orders/:id/cancellation/decline", adminHdl.DeclineCancellation)
	admin.Post("/orders/:id/return", adminHdl.MarkReturned)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		l.Info("Shutting down")
		if err := srv.Shutdown(10 * time.Second); err != nil {
			l.Error("Graceful shutdown failed", zap.Error(err))
		}
	}()

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
