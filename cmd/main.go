package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"canteen-connect/internal/analytics"
	"canteen-connect/internal/cache"
	"canteen-connect/internal/cart"
	"canteen-connect/internal/checkout"
	"canteen-connect/internal/config"
	h "canteen-connect/internal/http"
	"canteen-connect/internal/logger"
	"canteen-connect/internal/messaging"
	"canteen-connect/internal/payment"
	"canteen-connect/internal/repository"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	log := logger.New("canteen-connect")
	startupID := logger.GenerateRequestID()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Postgres: orders, order items, catalog
	pg, err := repository.NewPostgresRepository(cfg.PostgresURL)
	if err != nil {
		log.Error("startup_failed", startupID, "failed to connect to postgres", err)
		os.Exit(1)
	}
	defer pg.Close()
	log.Info("db_connected", startupID, "connected to postgres")

	if err := pg.RunMigrations(cfg.MigrationsDir); err != nil {
		log.Error("startup_failed", startupID, "failed to run migrations", err)
		os.Exit(1)
	}

	// Mongo: cart persistence, keyed by client session
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Error("startup_failed", startupID, "failed to connect to MongoDB", err)
		os.Exit(1)
	}
	if err := repository.CreateCartIndexes(ctx, mongoDB); err != nil {
		log.Error("startup_failed", startupID, "failed to create cart indexes", err)
		os.Exit(1)
	}
	cartRepo := repository.NewMongoCartRepository(mongoDB)
	log.Info("mongo_connected", startupID, "connected to MongoDB")

	// Redis: cart cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("startup_failed", startupID, "redis connection failed", err)
		os.Exit(1)
	}
	cartCache := cache.NewRedisCache(redisClient)
	log.Info("redis_connected", startupID, "connected to redis")

	// RabbitMQ: live order feed
	mq, err := messaging.New(cfg.RabbitURL, log)
	if err != nil {
		log.Error("startup_failed", startupID, "failed to connect to RabbitMQ", err)
		os.Exit(1)
	}
	defer mq.Close()
	publisher := messaging.NewPublisher(mq, log)
	feedConsumer := messaging.NewFeedConsumer(mq, log)
	log.Info("rabbitmq_connected", startupID, "connected to RabbitMQ")

	// Services
	cartService := cart.NewService(cartRepo, cartCache, log)
	gateway := payment.NewGateway(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewaySecret)
	verifier := payment.NewVerifier(cfg.GatewaySecret)
	checkoutService := checkout.NewService(cartService, gateway, verifier, pg, publisher, log, cfg.Currency)
	analyticsService := analytics.NewService(pg)

	// HTTP handlers
	router := h.NewRouter(
		h.NewCartHandler(cartService, pg, log, cfg.RequestTimeout),
		h.NewCheckoutHandler(checkoutService, log, cfg.RequestTimeout),
		h.NewPaymentHandler(verifier),
		h.NewOrdersHandler(pg, log, cfg.RequestTimeout),
		h.NewAnalyticsHandler(analyticsService, log, cfg.RequestTimeout),
		h.NewMenuHandler(pg, log, cfg.RequestTimeout),
		h.NewFeedHandler(feedConsumer, log),
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("service_started", startupID, "canteen-connect listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server_failed", startupID, "HTTP server failed", err)
			cancel()
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("graceful_shutdown", startupID, "shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown_failed", startupID, "server forced to shutdown", err)
		os.Exit(1)
	}

	log.Info("service_stopped", startupID, "server exited")
}
