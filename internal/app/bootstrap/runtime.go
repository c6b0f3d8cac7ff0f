package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/gatepass/proof-service/internal/adapters/cache"
	"github.com/gatepass/proof-service/internal/adapters/chain"
	eventadapter "github.com/gatepass/proof-service/internal/adapters/events"
	httpadapter "github.com/gatepass/proof-service/internal/adapters/http"
	"github.com/gatepass/proof-service/internal/adapters/postgres"
	"github.com/gatepass/proof-service/internal/adapters/security"
	"github.com/gatepass/proof-service/internal/application"
	"github.com/gatepass/proof-service/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	sweeper    *cacheadapter.SweepWorker
	outbox     *eventadapter.OutboxWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Info("bootstrapping proof service", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	cleanups := make([]func(), 0, 2)

	// The nonce ledger prefers Redis but never blocks startup on it. A
	// reachable service with an in-process ledger beats no service at all.
	var ledger ports.NonceLedger
	if cfg.RedisURL != "" {
		redisClient, connErr := cacheadapter.Connect(ctx, cfg.RedisURL)
		if connErr == nil {
			connErr = redisClient.Ping(ctx).Err()
		}
		if connErr != nil {
			logger.Warn("redis unavailable, falling back to in-process nonce ledger", "error", connErr)
			ledger = cacheadapter.NewMemoryNonceLedger()
		} else {
			ledger = cacheadapter.NewRedisNonceLedger(redisClient)
			cleanups = append(cleanups, func() { _ = redisClient.Close() })
		}
	} else {
		logger.Info("no redis configured, using in-process nonce ledger")
		ledger = cacheadapter.NewMemoryNonceLedger()
	}

	// Postgres backs the check-in audit trail and outbox. Both are
	// best-effort surfaces, so a missing or unreachable database only
	// disables them.
	var checkIns ports.CheckInRepository
	var outboxRepo ports.OutboxRepository
	if cfg.PostgresURL != "" {
		pool, dbErr := postgres.Connect(ctx, cfg.PostgresURL, cfg.MaxDBConns)
		if dbErr == nil {
			dbErr = postgres.RunMigrations(ctx, pool)
		}
		if dbErr != nil {
			logger.Warn("postgres unavailable, check-in audit trail disabled", "error", dbErr)
		} else {
			repos := postgres.NewRepositories(pool)
			checkIns = repos.CheckIns
			outboxRepo = repos.Outbox
			if sqlDB, sqlErr := pool.DB(); sqlErr == nil {
				cleanups = append(cleanups, func() { _ = sqlDB.Close() })
			}
		}
	} else {
		logger.Info("no postgres configured, check-in audit trail disabled")
	}

	// An unset contract string still needs a deterministic domain hash, so
	// it parses to the zero address rather than being omitted.
	codec := chain.NewProofCodec(chain.DomainParams{
		Name:              cfg.DomainName,
		Version:           cfg.DomainVersion,
		ChainID:           cfg.ChainID,
		VerifyingContract: common.HexToAddress(cfg.VerifyingContract),
	})

	signer, err := chain.NewSigner(cfg.SignerPrivateKey, codec)
	if err != nil {
		if !cfg.AllowEphemeralSigner {
			return nil, fmt.Errorf("init signer: %w", err)
		}
		logger.Warn("using ephemeral signing key for local/dev runtime")
		signer, err = chain.NewEphemeralSigner(codec)
		if err != nil {
			return nil, fmt.Errorf("init ephemeral signer: %w", err)
		}
	}

	// Without an oracle the service issues unverified proofs; operators
	// opt into that mode by leaving the verifying contract unset.
	var oracle ports.TicketOracle
	if cfg.VerifyingContract != "" {
		ethClient, dialErr := ethclient.DialContext(ctx, cfg.ChainRPCURL)
		if dialErr != nil {
			return nil, fmt.Errorf("dial chain rpc: %w", dialErr)
		}
		oracle, err = chain.NewOracle(ethClient, common.HexToAddress(cfg.VerifyingContract), cfg.OracleTimeout)
		if err != nil {
			return nil, fmt.Errorf("init ticket oracle: %w", err)
		}
		cleanups = append(cleanups, ethClient.Close)
	} else {
		logger.Warn("no verifying contract configured, proofs are issued without ownership checks")
	}

	tokenSigner, err := security.NewJWTSigner(cfg.JWTKeyID, cfg.JWTPrivateKeyPEM, cfg.JWTPublicKeyPEM)
	if err != nil {
		if !cfg.AllowEphemeralJWT {
			return nil, fmt.Errorf("init jwt signer: %w", err)
		}
		logger.Warn("using ephemeral JWT keys for local/dev runtime")
		tokenSigner, err = security.NewEphemeralJWTSigner(cfg.JWTKeyID)
		if err != nil {
			return nil, fmt.Errorf("init ephemeral jwt signer: %w", err)
		}
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ProofTTL:           cfg.ProofTTL,
			NonceRetention:     cfg.NonceRetention,
			ClockSkewTolerance: cfg.ClockSkewTolerance,
			SessionTTL:         cfg.SessionTTL,
		},
		Signer:   signer,
		Ledger:   ledger,
		Oracle:   oracle,
		Sessions: tokenSigner,
		CheckIns: checkIns,
		Outbox:   outboxRepo,
	})

	handler := httpadapter.NewHandler(svc)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		for _, fn := range cleanups {
			fn()
		}
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	sweeper := cacheadapter.NewSweepWorker(logger, ledger, cfg.SweepInterval)

	var outbox *eventadapter.OutboxWorker
	if outboxRepo != nil {
		outbox = eventadapter.NewOutboxWorker(
			logger,
			outboxRepo,
			eventadapter.NewLoggingPublisher(logger),
			cfg.OutboxPollInterval,
			cfg.OutboxBatchSize,
			cfg.OutboxClaimTTL,
			cfg.OutboxMaxRetries,
		)
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		sweeper:    sweeper,
		outbox:     outbox,
		cleanupFn: func(ctx context.Context) {
			for _, fn := range cleanups {
				fn()
			}
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	// The sweep worker lives in the API process so it always reaches the
	// same ledger instance as the verify path, including the in-process one.
	go func() {
		if err := r.sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("sweep worker stopped", "error", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if r.outbox == nil {
		r.logger.Info("outbox worker idle, no postgres configured")
		<-ctx.Done()
		r.cleanupFn(context.Background())
		return nil
	}

	r.logger.Info("outbox worker started")
	err := r.outbox.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}
