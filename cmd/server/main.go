package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/delilah-resto/api/internal/cache"
	"github.com/delilah-resto/api/internal/config"
	"github.com/delilah-resto/api/internal/es"
	"github.com/delilah-resto/api/internal/events"
	"github.com/delilah-resto/api/internal/handlers"
	"github.com/delilah-resto/api/internal/logging"
	"github.com/delilah-resto/api/internal/service/order"
	"github.com/delilah-resto/api/internal/service/search"
	"github.com/delilah-resto/api/internal/service/token"
	httpserver "github.com/delilah-resto/api/internal/transport/http"
)

const productsCacheTTL = time.Hour

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	store := cache.New(configuration.REDIS_ADDR, configuration.REDIS_PASSWORD, productsCacheTTL)

	var brokers []string
	if configuration.KAFKA_ADDRESS != "" {
		brokers = []string{configuration.KAFKA_ADDRESS}
	}
	producer := events.NewProducer(brokers)

	var esClient *elasticsearch.Client
	if configuration.ES_URL != "" {
		esClient, err = es.NewClient(configuration)
		if err != nil {
			logger.Warn("elasticsearch unavailable, search disabled", "error", err)
			esClient = nil
		}
	}

	tokens := &token.Service{DB: db, Secret: []byte(configuration.JWT_SECRET)}
	orders := &order.Service{DB: db}
	searcher := &search.Service{ES: esClient, Index: "products"}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(httpserver.RequestLogger(logger))

	deps := httpserver.Deps{
		UserHandler:    &handlers.UserHandler{DB: db, Tokens: tokens, Orders: orders, Producer: producer},
		ProductHandler: &handlers.ProductHandler{DB: db, Cache: store, Search: searcher, Producer: producer},
		PaymentHandler: &handlers.PaymentHandler{DB: db},
		OrderHandler:   &handlers.OrderHandler{DB: db, Orders: orders, Producer: producer},
		Tokens:         tokens,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	} else {
		logger.Error("db() error", "error", err)
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	if err := store.Close(); err != nil {
		logger.Error("cache close error", "error", err)
	}

	logger.Info("shutdown complete")
}
