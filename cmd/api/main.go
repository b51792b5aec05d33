package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/toyvault/go-guest-orders/internal/config"
	"github.com/toyvault/go-guest-orders/internal/httpx"
	kafkax "github.com/toyvault/go-guest-orders/internal/kafka"
	"github.com/toyvault/go-guest-orders/internal/orders"
	"github.com/toyvault/go-guest-orders/internal/postgres"
	"github.com/toyvault/go-guest-orders/internal/ratelimit"
	"github.com/toyvault/go-guest-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicGuestOrderCreated, 1024)
	prod.Start(ctx)

	// Rate limiters, one budget per endpoint
	var createLimit, lookupLimit ratelimit.Limiter
	if cfg.RateLimitBackend == "redis" {
		createLimit = ratelimit.NewRedis(rdb, "guest-create", cfg.CreateRateLimit, cfg.CreateRateWindow)
		lookupLimit = ratelimit.NewRedis(rdb, "guest-lookup", cfg.LookupRateLimit, cfg.LookupRateWindow)
	} else {
		createLimit = ratelimit.NewMemory(cfg.CreateRateLimit, cfg.CreateRateWindow)
		lookupLimit = ratelimit.NewMemory(cfg.LookupRateLimit, cfg.LookupRateWindow)
	}

	// Repo & handler
	repo := &orders.Repo{DB: db}
	router := httpx.NewRouter()
	gh := &httpx.GuestOrdersHandler{
		Store:       repo,
		Producer:    prod,
		CreateLimit: createLimit,
		LookupLimit: lookupLimit,
		TokenTTL:    cfg.GuestTokenTTL,
		Service:     cfg.ServiceName,
	}
	gh.Register(router)

	// Reconciliation sweep: itemless orders past the grace period
	go func() {
		t := time.NewTicker(cfg.SweepInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				sctx, scancel := context.WithTimeout(ctx, 30*time.Second)
				n, err := repo.SweepEmptyOrders(sctx, cfg.SweepGrace)
				scancel()
				if err != nil {
					log.Printf("sweep: %v", err)
				} else if n > 0 {
					log.Printf("sweep: removed %d itemless orders", n)
				}
			}
		}
	}()

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // close inbox -> flush & close writer
	cancel()          // stop producer loop & sweep
	prod.WaitClosed() // drain
}
