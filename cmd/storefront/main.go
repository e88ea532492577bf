package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/coupon"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/events"
	h "github.com/fjod/go_storefront/internal/http"
	"github.com/fjod/go_storefront/internal/payment"
	"github.com/fjod/go_storefront/internal/service"
	"github.com/fjod/go_storefront/internal/store"
)

type Config struct {
	HTTPPort        string
	RedisAddr       string
	KafkaBrokers    []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// seed loads the demo catalog, user and coupons the storefront ships with.
func seed(st *store.Store) {
	st.SetItem(domain.Item{ID: 1, Name: "Smartphone X Pro", Price: 15000.0, Stock: 10})
	st.SetItem(domain.Item{ID: 2, Name: "Wireless Earbuds", Price: 1500.0, Stock: 0})
	st.SetItem(domain.Item{ID: 3, Name: "Laptop Alpha", Price: 55000.0, Stock: 5})
	st.SetItem(domain.Item{ID: 4, Name: "Coffee Maker", Price: 3500.0, Stock: 3})
	st.SetItem(domain.Item{ID: 5, Name: "Phone Cover - Blue", Price: 299.0, Stock: 100})
	st.AddUser("alice", "alicepwd")
}

func main() {
	cfg := loadConfig()

	st := store.New()
	seed(st)

	var cartCache cache.CartCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		cartCache = cache.NewRedisCache(client)
		log.Printf("cart cache: redis at %s", cfg.RedisAddr)
	}

	var publisher events.Publisher = events.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers...)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Printf("order events: kafka at %v", cfg.KafkaBrokers)
	}

	gateway := payment.NewBreakerGateway(payment.NewCardPrefixGateway(), "payments")

	storefront := service.NewStorefront(st, coupon.Defaults(), gateway, cartCache, publisher)
	router := h.NewRouter(storefront, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
