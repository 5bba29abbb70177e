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

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"gorm.io/gorm"

	cacheadapter "github.com/dkrest1/content-management-system-api/internal/adapters/cache"
	eventadapter "github.com/dkrest1/content-management-system-api/internal/adapters/events"
	grpcadapter "github.com/dkrest1/content-management-system-api/internal/adapters/grpc"
	httpadapter "github.com/dkrest1/content-management-system-api/internal/adapters/http"
	"github.com/dkrest1/content-management-system-api/internal/adapters/memory"
	"github.com/dkrest1/content-management-system-api/internal/adapters/postgres"
	"github.com/dkrest1/content-management-system-api/internal/adapters/realtime"
	"github.com/dkrest1/content-management-system-api/internal/adapters/security"
	"github.com/dkrest1/content-management-system-api/internal/application"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	service    *application.Service
	httpServer *http.Server
	gateway    *realtime.Gateway
	grpcServer *grpc.Server
	grpcHealth *health.Server
	outbox     *eventadapter.OutboxWorker
	cleanup    []func() error
}

type storage struct {
	accounts   ports.AccountRepository
	categories ports.CategoryRepository
	posts      ports.PostRepository
	outbox     ports.OutboxRepository
	probe      func(context.Context) error
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	logger = logger.With("service", cfg.ServiceID)
	logger.Info("bootstrapping content management api",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"storage", cfg.Storage,
		"env", cfg.Env,
	)

	r := &Runtime{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			r.close()
		}
	}()

	store, err := r.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	var lockouts ports.LockoutStore = memory.NewLockoutStore()
	if cfg.RedisURL != "" {
		client, err := cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		r.cleanup = append(r.cleanup, client.Close)
		lockouts = cacheadapter.NewRedisLockoutStore(client)
	} else {
		logger.Warn("REDIS_URL not set, lockout counters are process-local")
	}

	tokens, err := security.NewJWTService(
		security.TokenKeyConfig{Secret: cfg.SessionSecret, TTL: cfg.SessionTTL.Duration()},
		security.TokenKeyConfig{Secret: cfg.ResetSecret, TTL: cfg.ResetTTL.Duration()},
	)
	if err != nil {
		return nil, fmt.Errorf("init jwt service: %w", err)
	}

	svc, err := application.NewService(application.Dependencies{
		Config: application.Config{
			AppURL:               cfg.AppURL,
			FailedLoginThreshold: cfg.FailedLoginThreshold,
			LockoutDuration:      cfg.LockoutDuration,
			ResetRequestLimit:    cfg.ResetRequestLimit,
			ResetRequestWindow:   cfg.ResetRequestWindow,
		},
		Accounts:   store.accounts,
		Categories: store.categories,
		Posts:      store.posts,
		Outbox:     store.outbox,
		Lockouts:   lockouts,
		Hasher:     security.NewBcryptHasher(cfg.BcryptCost),
		Tokens:     tokens,
		Probe:      store.probe,
	})
	if err != nil {
		return nil, fmt.Errorf("init service: %w", err)
	}
	r.service = svc

	r.gateway = realtime.NewGateway(svc, realtime.NewPresence(), realtime.Config{
		ClientURL:        cfg.ClientURL,
		HandshakeTimeout: cfg.WSHandshakeTimeout,
	})
	r.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(httpadapter.NewHandler(svc), r.gateway),
		ReadHeaderTimeout: 5 * time.Second,
	}
	r.grpcServer, r.grpcHealth = grpcadapter.NewServer(svc)

	publisher, err := r.newPublisher()
	if err != nil {
		return nil, err
	}
	r.outbox = eventadapter.NewOutboxWorker(logger, store.outbox, publisher, eventadapter.WorkerConfig{
		Interval:   cfg.OutboxPollInterval,
		BatchSize:  cfg.OutboxBatchSize,
		ClaimTTL:   cfg.OutboxClaimTTL,
		MaxRetries: cfg.OutboxMaxRetries,
	})

	ok = true
	return r, nil
}

func (r *Runtime) openStorage(ctx context.Context) (storage, error) {
	if r.cfg.Storage == StorageMemory {
		r.logger.Warn("using in-memory storage, data is lost on restart")
		repos := memory.NewRepositories(memory.NewStore())
		return storage{
			accounts:   repos.Accounts,
			categories: repos.Categories,
			posts:      repos.Posts,
			outbox:     repos.Outbox,
		}, nil
	}

	db, err := postgres.Connect(ctx, r.cfg.DatabaseURL, r.cfg.MaxDBConns)
	if err != nil {
		return storage{}, err
	}
	r.cleanup = append(r.cleanup, func() error { return postgres.Close(db) })
	if err := postgres.RunMigrations(ctx, db); err != nil {
		return storage{}, fmt.Errorf("run migrations: %w", err)
	}
	repos := postgres.NewRepositories(db)
	return storage{
		accounts:   repos.Accounts,
		categories: repos.Categories,
		posts:      repos.Posts,
		outbox:     repos.Outbox,
		probe:      pinger(db),
	}, nil
}

func pinger(db *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return postgres.Ping(ctx, db)
	}
}

func (r *Runtime) newPublisher() (ports.EventPublisher, error) {
	if len(r.cfg.KafkaBrokers) == 0 {
		return eventadapter.NewLoggingPublisher(r.logger), nil
	}
	publisher, err := eventadapter.NewKafkaPublisher(r.cfg.KafkaBrokers, r.cfg.KafkaTopicPrefix, nil)
	if err != nil {
		return nil, fmt.Errorf("init kafka publisher: %w", err)
	}
	r.cleanup = append(r.cleanup, publisher.Close)
	return publisher, nil
}

func (r *Runtime) close() {
	for i := len(r.cleanup) - 1; i >= 0; i-- {
		if err := r.cleanup[i](); err != nil {
			r.logger.Warn("cleanup failed", "error", err)
		}
	}
	r.cleanup = nil
}

// RunAPI serves HTTP (with the realtime gateway) and gRPC until ctx ends or
// a server fails. With in-memory storage the outbox worker runs in-process,
// since a separate worker could not see the queue.
func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		r.close()
		return fmt.Errorf("listen grpc: %w", err)
	}

	errCh := make(chan error, 3)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", lis.Addr().String())
		if err := r.grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	workerDone := make(chan struct{})
	if r.cfg.Storage == StorageMemory {
		go func() {
			defer close(workerDone)
			if err := r.outbox.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("outbox worker: %w", err)
			}
		}()
	} else {
		close(workerDone)
	}

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("server failure", "error", runErr)
	}

	r.grpcHealth.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("http shutdown", "error", err)
	}
	if err := r.gateway.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("realtime shutdown", "error", err)
	}
	r.grpcServer.GracefulStop()
	stopWorker()
	<-workerDone
	r.close()
	return runErr
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer r.close()

	if r.cfg.Storage == StorageMemory {
		return errors.New("outbox worker requires postgres storage")
	}
	r.logger.Info("outbox worker started")
	if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
