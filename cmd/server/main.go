package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/joho/godotenv"

	"credmint/internal/audit"
	"credmint/internal/chain"
	"credmint/internal/collections"
	"credmint/internal/dashboard"
	dashboardhandler "credmint/internal/dashboard/handler"
	jwttoken "credmint/internal/jwt_token"
	"credmint/internal/mint"
	"credmint/internal/ownership"
	"credmint/internal/platform/config"
	"credmint/internal/platform/health"
	"credmint/internal/platform/logger"
	"credmint/internal/platform/metrics"
	"credmint/internal/platform/middleware"
	redisclient "credmint/internal/platform/redis"
	"credmint/internal/platform/tracer"
	"credmint/internal/proof"
	"credmint/internal/proofrequest"
	"credmint/internal/session"
	httptransport "credmint/internal/transport/http"
	"credmint/internal/verifyconfig"
	"credmint/pkg/platform/circuit"
)

const poolStatsInterval = 15 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	log.Info("initializing credmint",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"providers", len(cfg.ProofService.Providers),
	)

	clk := clock.New()
	appMetrics := metrics.New()
	trc := tracer.NewOTel()
	healthHandler := health.New(cfg.Environment)

	auditor := audit.NewPublisher(audit.NewInMemoryStore(),
		audit.WithAsyncBuffer(1024),
		audit.WithPublisherLogger(log),
	)
	defer auditor.Close()

	store, closeStore, err := buildOwnershipStore(ctx, cfg.Redis, clk, healthHandler, log)
	if err != nil {
		return err
	}
	defer closeStore()

	client, err := chain.Dial(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return fmt.Errorf("connect to chain: %w", err)
	}
	defer client.Close()
	healthHandler.RegisterCheck("chain", func(ctx context.Context) error {
		_, err := client.BlockNumber(ctx)
		return err
	})

	nftAddress, err := chain.ParseAddress(cfg.Chain.NFTAddress)
	if err != nil {
		return fmt.Errorf("credential contract address: %w", err)
	}
	vaultAddress, err := chain.ParseAddress(cfg.Chain.VaultAddress)
	if err != nil {
		return fmt.Errorf("vault contract address: %w", err)
	}
	var minter *bind.TransactOpts
	if cfg.Chain.MinterKey != "" {
		if minter, err = chain.NewTransactor(cfg.Chain.MinterKey, cfg.Chain.ChainID); err != nil {
			return fmt.Errorf("minter key: %w", err)
		}
		log.Info("credential minting enabled", "minter", minter.From.Hex())
	} else {
		log.Warn("MINTER_PRIVATE_KEY not set, credential minting disabled")
	}

	catalog := collections.Default()
	coordinator := mint.New(
		chain.NewCredential(nftAddress, client, client, minter),
		store,
		catalog,
		mint.WithVault(chain.NewVault(vaultAddress, client)),
		mint.WithBreaker(circuit.New("chain-rpc", circuit.WithClock(clk))),
		mint.WithClock(clk),
		mint.WithLogger(log),
		mint.WithTracer(trc),
		mint.WithMetrics(appMetrics),
		mint.WithAuditor(auditor),
	)

	tokens := jwttoken.NewCallbackService(cfg.ProofService.CallbackSecret, "credmint", cfg.ProofService.CallbackTTL)
	inbox := proofrequest.NewInbox()
	builder, err := verifyconfig.NewBuilder(cfg.ProofService,
		verifyconfig.WithCallbackTokens(tokens),
		verifyconfig.WithTracer(trc),
	)
	if err != nil {
		return fmt.Errorf("proof request config: %w", err)
	}

	fetcher := proofrequest.NewFetcher(proofrequest.FetcherConfig{
		BaseURL: cfg.Verification.ConfigBaseURL,
		Timeout: cfg.Verification.FetchTimeout,
		Retries: cfg.Verification.FetchRetries,
		Logger:  log,
		Tracer:  trc,
	})
	factory := proofrequest.NewFactory(
		proofrequest.WithClock(clk),
		proofrequest.WithPollInterval(cfg.Verification.PollInterval),
		proofrequest.WithInbox(inbox),
		proofrequest.WithLogger(log),
		proofrequest.WithTracer(trc),
	)
	requests := session.RequestFactoryFunc(func(raw string) (session.ProofRequest, error) {
		req, err := factory.FromJSONString(raw)
		if err != nil {
			return nil, err
		}
		return req, nil
	})
	validator := proof.NewValidator(log)

	// the registry builds controllers lazily, after dash is assigned
	var dash *dashboard.Service
	registry := session.NewRegistry(func(address string) *session.Controller {
		return session.NewController(address, fetcher, requests,
			session.WithClock(clk),
			session.WithGraceDelay(cfg.Verification.GraceDelay),
			session.WithDisplayDelay(cfg.Verification.DisplayDelay),
			session.WithAwaitTimeout(cfg.Verification.AwaitTimeout),
			session.WithValidator(validator),
			session.WithLogger(log),
			session.WithMetrics(appMetrics),
			session.WithAuditor(auditor),
			session.WithOnVerified(func(v session.Verified) { dash.HandleVerified(v) }),
		)
	})
	defer registry.Close()
	dash = dashboard.NewService(catalog, coordinator,
		func(address string) dashboard.Session { return registry.Get(address) },
		dashboard.WithLogger(log),
		dashboard.WithAuditLog(auditor),
	)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:       log,
		HTTPMetrics:  middleware.NewHTTPMetrics(),
		Health:       healthHandler,
		VerifyConfig: verifyconfig.New(builder, inbox, tokens, log),
		Dashboard:    dashboardhandler.New(dash, log),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// buildOwnershipStore uses Redis when REDIS_URL is set and an in-memory
// store otherwise.
func buildOwnershipStore(ctx context.Context, cfg config.RedisConfig, clk clock.Clock, h *health.Handler, log *slog.Logger) (ownership.Store, func(), error) {
	rdb, err := redisclient.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	if rdb == nil {
		log.Info("REDIS_URL not set, ownership is kept in memory")
		return ownership.NewInMemoryStore(), func() {}, nil
	}
	h.RegisterCheck("redis", rdb.Health)
	go rdb.RunPoolStats(ctx, clk, poolStatsInterval)
	log.Info("ownership cache backed by redis", "ttl", cfg.OwnershipTTL)
	return ownership.NewRedisStore(rdb.Client, cfg.OwnershipTTL), func() { _ = rdb.Close() }, nil
}
