package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/letmeget/swapgate/internal/chain"
	"github.com/letmeget/swapgate/internal/config"
	"github.com/letmeget/swapgate/internal/escrow"
	"github.com/letmeget/swapgate/internal/handler"
	"github.com/letmeget/swapgate/internal/ledger"
	"github.com/letmeget/swapgate/internal/middleware"
	"github.com/letmeget/swapgate/internal/pkg/logger"
	"github.com/letmeget/swapgate/internal/protocol"
	"github.com/letmeget/swapgate/internal/repository"
	"github.com/letmeget/swapgate/internal/service"
	"github.com/letmeget/swapgate/internal/stream"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	// 3. Initialize Persistence
	var redisClient *repository.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient, err = repository.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		logger.Info("Connected to Redis", "addr", cfg.Redis.Addr)
		defer redisClient.Close()
	}

	var db *gorm.DB
	if cfg.Database.DSN != "" {
		db, err = repository.NewDB(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		logger.Info("Connected to PostgreSQL")
	}

	stores, closeStores, err := offerStores(cfg, redisClient, db)
	if err != nil {
		log.Fatalf("Failed to open offer storage: %v", err)
	}
	defer closeStores()

	// Event Persistence (Postgres > Redis > file only)
	var eventRepo service.EventRepo
	var pgEvents *repository.PostgresEventRepo
	switch {
	case db != nil:
		pgEvents, err = repository.NewPostgresEventRepo(db)
		if err != nil {
			log.Fatalf("Failed to migrate event table: %v", err)
		}
		eventRepo = pgEvents
	case redisClient != nil:
		eventRepo = repository.NewRedisEventRepo(redisClient, cfg.Redis.EventListKey, cfg.Redis.EventListMax)
	}

	// Idempotency (Redis > Postgres > memory)
	var idempotencyStore middleware.IdempotencyStore = middleware.NewInMemIdempotencyStore()
	var pgIdempotency *repository.PostgresIdempotencyStore
	switch {
	case redisClient != nil:
		ttl := time.Duration(cfg.Redis.IdempotencyTTLSeconds) * time.Second
		idempotencyStore = repository.NewRedisIdempotencyStore(redisClient, ttl)
	case db != nil:
		pgIdempotency, err = repository.NewPostgresIdempotencyStore(db)
		if err != nil {
			log.Fatalf("Failed to migrate idempotency table: %v", err)
		}
		idempotencyStore = pgIdempotency
	}

	// 4. Initialize Ledger & Escrow Instances
	l := ledger.New(ledger.Options{
		Automine:    cfg.Ledger.Automine,
		StartHeight: cfg.Ledger.StartHeight,
		Deployer:    common.HexToAddress(cfg.Ledger.Deployer),
	})

	verifier, err := protocol.NewVerifier(cfg.Escrow.SignatureCacheSize)
	if err != nil {
		log.Fatalf("Failed to initialize signature cache: %v", err)
	}

	// escrow addresses are allocated first so they are stable across restarts
	var exchanges []escrow.Exchange
	for _, v := range []protocol.Version{protocol.V1, protocol.V2} {
		if (v == protocol.V1 && !cfg.Escrow.EnableV1) || (v == protocol.V2 && !cfg.Escrow.EnableV2) {
			continue
		}
		addr := l.NewAddress()
		store, err := stores(addr.Hex())
		if err != nil {
			log.Fatalf("Failed to open offer store for %s: %v", v, err)
		}
		escCfg := escrow.Config{
			Address:         addr,
			MinExpiryBuffer: cfg.Escrow.MinExpiryBuffer,
			Verifier:        verifier,
		}
		if v == protocol.V1 {
			exchanges = append(exchanges, escrow.NewV1(l, store, escCfg))
		} else {
			exchanges = append(exchanges, escrow.NewV2(l, store, escCfg))
		}
		logger.Info("escrow instance ready", "version", v.String(), "address", addr.Hex())
	}

	// 5. Initialize Services
	eventSvc, err := service.NewEventService(cfg.Events.LogDir, cfg.Events.BufferSize, eventRepo)
	if err != nil {
		log.Fatalf("Failed to initialize event service: %v", err)
	}
	eventSvc.Attach(l)
	hub := stream.NewHub()
	stopListening := eventSvc.Listen(hub.Publish)

	chainClient := chain.NewClient(cfg.Chain.RPCURL, time.Duration(cfg.Chain.TimeoutMs)*time.Millisecond, cfg.Chain.Retries)
	var chainEscrow common.Address
	if cfg.Chain.EscrowAddress != "" {
		if !common.IsHexAddress(cfg.Chain.EscrowAddress) {
			log.Fatalf("Invalid chain.escrow_address %q", cfg.Chain.EscrowAddress)
		}
		chainEscrow = common.HexToAddress(cfg.Chain.EscrowAddress)
	}
	preflightSvc := service.NewPreflightService(chainClient, chainEscrow, verifier)
	if preflightSvc.Enabled() {
		logger.Info("chain preflight enabled", "escrow", chainEscrow.Hex())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if pgEvents != nil || pgIdempotency != nil {
		go cleanupLoop(ctx, cfg, pgEvents, pgIdempotency)
	}

	// 6. Setup Router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// Global Middleware
	r.Use(middleware.RequestMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())

	// Metrics Endpoint
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	handler.Register(r, cfg, handler.Services{
		Escrows:     service.NewEscrowService(exchanges...),
		Ledger:      service.NewLedgerService(l),
		Events:      eventSvc,
		Hub:         hub,
		Preflight:   preflightSvc,
		Idempotency: idempotencyStore,
		Limiter:     middleware.NewClientLimiter(cfg.RateLimit.QPS, cfg.RateLimit.Burst),
	})

	// 7. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("swapgate started", "port", cfg.Server.Port, "storage", cfg.Storage.Driver, "read_only", cfg.Server.ReadOnly)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	hub.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	stopListening()
	eventSvc.Close()
	chainClient.Close()

	logger.Info("Server exiting")
}

// offerStores returns a constructor for per-escrow offer stores on the
// configured driver, and a function releasing the shared backend.
func offerStores(cfg *config.Config, redisClient *repository.RedisClient, db *gorm.DB) (func(namespace string) (escrow.Store, error), func(), error) {
	noop := func() {}
	switch strings.ToLower(cfg.Storage.Driver) {
	case "", "memory":
		return func(string) (escrow.Store, error) { return escrow.NewMemoryStore(), nil }, noop, nil
	case "redis":
		if redisClient == nil {
			return nil, nil, fmt.Errorf("storage driver redis requires redis.addr")
		}
		return func(ns string) (escrow.Store, error) {
			return repository.NewRedisOfferStore(redisClient, ns), nil
		}, noop, nil
	case "postgres":
		if db == nil {
			return nil, nil, fmt.Errorf("storage driver postgres requires database.dsn")
		}
		return func(ns string) (escrow.Store, error) {
			return repository.NewPostgresOfferStore(db, ns)
		}, noop, nil
	case "pebble":
		pdb, err := repository.OpenPebble(cfg.Storage.PebblePath)
		if err != nil {
			return nil, nil, err
		}
		open := func(ns string) (escrow.Store, error) {
			return repository.NewPebbleOfferStore(pdb, ns), nil
		}
		closeDB := func() {
			if err := pdb.Close(); err != nil {
				logger.Error("failed to close pebble", "error", err)
			}
		}
		return open, closeDB, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func cleanupLoop(ctx context.Context, cfg *config.Config, events *repository.PostgresEventRepo, idem *repository.PostgresIdempotencyStore) {
	interval := time.Duration(cfg.Database.CleanupIntervalMinutes) * time.Minute
	if interval <= 0 {
		return
	}
	retention := time.Duration(cfg.Database.EventRetentionDays) * 24 * time.Hour
	idemTTL := time.Duration(cfg.Redis.IdempotencyTTLSeconds) * time.Second

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if events != nil {
				if err := events.Cleanup(ctx, retention); err != nil {
					logger.Error("event cleanup failed", "error", err)
				}
			}
			if idem != nil {
				if err := idem.Cleanup(ctx, idemTTL); err != nil {
					logger.Error("idempotency cleanup failed", "error", err)
				}
			}
		}
	}
}
