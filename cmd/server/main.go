package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"verinode/internal/audit"
	"verinode/internal/identity"
	"verinode/internal/ledger"
	"verinode/internal/peers"
	"verinode/internal/platform/config"
	"verinode/internal/platform/database"
	"verinode/internal/platform/health"
	"verinode/internal/platform/httpserver"
	"verinode/internal/platform/kafka"
	"verinode/internal/platform/kafka/producer"
	"verinode/internal/platform/logger"
	"verinode/internal/platform/redis"
	httptransport "verinode/internal/transport/http"
	verificationhandler "verinode/internal/verification/handler"
	"verinode/internal/verification/metrics"
	"verinode/internal/verification/reaper"
	"verinode/internal/verification/service"
	"verinode/internal/verification/store"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing verinode",
		"addr", cfg.Addr,
		"node", cfg.NodeName,
		"ledger_backend", cfg.LedgerBackend,
	)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		log.Error("failed to create data directory", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	// A node without its durable identity must not serve: regenerating the
	// keypair would silently change this node's trust identity in the mesh.
	idStore, err := identity.NewFileStore(cfg.DataDir)
	if err != nil {
		log.Error("failed to open identity store", "error", err)
		os.Exit(1)
	}
	ident, err := identity.Load(context.Background(), cfg.NodeName, idStore)
	if err != nil {
		log.Error("failed to load node identity", "error", err)
		os.Exit(1)
	}
	log.Info("node identity ready", "public_key", ident.PublicKeyEncoded())

	healthHandler := health.New(cfg.NodeName)

	// Uniqueness ledger: atomic file snapshot by default, postgres when
	// configured.
	var ledgerStore ledger.Store
	switch cfg.LedgerBackend {
	case "postgres":
		pool, err := database.New(database.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		ledgerStore = ledger.NewPostgres(pool.DB())
		healthHandler.RegisterCheck("postgres", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
	default:
		fileStore, err := ledger.NewFileStore(cfg.DataDir)
		if err != nil {
			log.Error("failed to open ledger snapshot", "error", err)
			os.Exit(1)
		}
		ledgerStore = fileStore
	}

	// Pending claims: in-process by default, redis when configured.
	var pendingStore store.PendingStore
	if cfg.RedisURL != "" {
		client, err := redis.New(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		pendingStore = store.NewRedisStore(client.Client, cfg.PendingTTL)
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Health(ctx)
		})
	} else {
		pendingStore = store.NewMemoryStore()
	}

	// Audit trail, mirrored to kafka when brokers are configured.
	auditOpts := []audit.PublisherOption{
		audit.WithAsyncBuffer(1024),
		audit.WithPublisherLogger(log),
	}
	if cfg.KafkaBrokers != "" {
		prod, err := producer.New(producer.DefaultConfig(cfg.KafkaBrokers), log)
		if err != nil {
			log.Error("failed to create kafka producer", "error", err)
			os.Exit(1)
		}
		defer prod.Close()
		auditOpts = append(auditOpts, audit.WithKafkaSink(prod, cfg.AuditTopic))
		kafkaCheck := kafka.NewHealthChecker(cfg.KafkaBrokers)
		healthHandler.RegisterCheck("kafka", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return kafkaCheck.Check(ctx)
		})
	}
	auditor := audit.NewPublisher(audit.NewInMemoryStore(), auditOpts...)
	defer auditor.Close()

	m := metrics.New()
	svc := service.NewService(ident, ledgerStore, pendingStore,
		service.WithLogger(log),
		service.WithAuditor(auditor),
		service.WithMetrics(m),
		service.WithRestagePolicy(cfg.RestagePolicy),
	)

	directory, err := peers.ParseDirectory(cfg.Peers)
	if err != nil {
		log.Error("invalid peer directory", "error", err)
		os.Exit(1)
	}
	prober := peers.NewProber(directory,
		peers.WithProbeTimeout(cfg.ProbeTimeout),
		peers.WithProberLogger(log),
	)

	router := httptransport.NewRouter(
		verificationhandler.New(svc, log, m),
		peers.NewHandler(prober),
		healthHandler,
		log,
	)
	srv := httpserver.New(cfg.Addr, router)

	sweeper := reaper.New(pendingStore,
		reaper.WithLogger(log),
		reaper.WithTTL(cfg.PendingTTL),
		reaper.WithInterval(cfg.SweepInterval),
		reaper.WithMetrics(m),
		reaper.WithAuditor(auditor),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := sweeper.Start(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
