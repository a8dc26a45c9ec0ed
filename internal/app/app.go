package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/approvenow/server/internal/adapter/inbound/pgtrigger"
	"github.com/approvenow/server/internal/domain/invitation"
	"github.com/approvenow/server/internal/infra/scheduler"
	"github.com/approvenow/server/internal/shared/config"
)

// App represents the application.
type App struct {
	config    *config.Config
	router    *gin.Engine
	logger    *zap.Logger
	scheduler *scheduler.Scheduler
	listener  *pgtrigger.Listener

	invitations *invitation.Domain

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	cleanup []func()
}

// New creates a new application instance from cfg.
func New(cfg *config.Config) (*App, error) {
	return NewWithLogger(cfg, ProvideLogger(cfg))
}

// NewWithLogger creates a new application instance logging to log.
func NewWithLogger(cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{config: cfg, logger: log}

	if err := app.init(); err != nil {
		app.runCleanup()
		return nil, err
	}
	return app, nil
}

func (a *App) init() error {
	cfg, log := a.config, a.logger

	registry := ProvideRegistry()
	m := ProvideMetrics(registry)

	storage, closeStorage, err := ProvideStorage(cfg, log)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	a.cleanup = append(a.cleanup, closeStorage)

	redis, closeRedis := ProvideRedisClient(cfg, log)
	a.cleanup = append(a.cleanup, closeRedis)

	validator, err := ProvideTokenValidator(cfg)
	if err != nil {
		return fmt.Errorf("init token validator: %w", err)
	}

	dispatcher := ProvideDispatcher(cfg, ProvideNotificationSender(cfg, log), ProvideIntentLedger(redis), storage, m, log)

	guard, err := ProvideGuard(cfg, storage)
	if err != nil {
		return fmt.Errorf("init access guard: %w", err)
	}
	workspaces := ProvideWorkspaceDomain(cfg, storage, guard, log)
	approvals := ProvideApprovalDomain(cfg, storage, guard, dispatcher, m, log)
	a.invitations = ProvideInvitationDomain(cfg, storage, guard, dispatcher, m, log)

	bus := ProvideEventBus(a.invitations, approvals, log)
	if a.scheduler, err = ProvideScheduler(cfg, a.invitations, log); err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	a.listener = ProvideListener(cfg, storage, bus, log)

	a.router = NewRouter(RouterDeps{
		Config:      cfg,
		Logger:      log,
		Registry:    registry,
		Metrics:     m,
		Validator:   validator,
		RateLimiter: ProvideRateLimiter(redis),
		Redis:       redis,
		Bus:         bus,
		Workspaces:  workspaces,
		Approvals:   approvals,
		Invitations: a.invitations,
	})
	return nil
}

// Router returns the HTTP handler.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Start launches the scheduler and, when enabled, the trigger listener.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	a.scheduler.Start(ctx)

	if a.listener != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("trigger listener stopped", zap.Error(err))
			}
		}()
	}
}

// Stop stops background work and releases connections.
func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.wg.Wait()
	a.runCleanup()
	_ = a.logger.Sync()
}

func (a *App) runCleanup() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}
