package app

import (
	"context"
	"fmt"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	// Domains
	"github.com/approvenow/server/internal/domain/access"
	"github.com/approvenow/server/internal/domain/approval"
	"github.com/approvenow/server/internal/domain/invitation"
	"github.com/approvenow/server/internal/domain/notification"
	"github.com/approvenow/server/internal/domain/workspace"

	// Ports
	"github.com/approvenow/server/internal/port/outbound"

	// Adapters
	"github.com/approvenow/server/internal/adapter/inbound/pgtrigger"
	jwtadapter "github.com/approvenow/server/internal/adapter/outbound/jwt"
	"github.com/approvenow/server/internal/adapter/outbound/memory"
	"github.com/approvenow/server/internal/adapter/outbound/notify"
	"github.com/approvenow/server/internal/adapter/outbound/postgres"
	redisadapter "github.com/approvenow/server/internal/adapter/outbound/redis"

	// Infrastructure
	"github.com/approvenow/server/internal/infra/events"
	"github.com/approvenow/server/internal/infra/scheduler"
	"github.com/approvenow/server/internal/shared/cache"
	"github.com/approvenow/server/internal/shared/config"
	"github.com/approvenow/server/internal/shared/database"
	"github.com/approvenow/server/internal/shared/logger"

	// Utils
	"github.com/approvenow/server/internal/utils/metrics"
)

// Storage groups the persistence ports of one backend.
type Storage struct {
	Workspaces  outbound.WorkspaceDatabasePort
	Members     outbound.MemberDatabasePort
	Users       outbound.UserDirectoryPort
	Requests    outbound.RequestDatabasePort
	Invitations outbound.InvitationDatabasePort
	Tx          outbound.TransactionPort
}

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideStorage,
	ProvideRedisClient,
	ProvideIntentLedger,
	ProvideRateLimiter,
	ProvideTokenValidator,
	wire.Bind(new(outbound.MetricsPort), new(*metrics.Metrics)),
	wire.Bind(new(outbound.TokenValidatorPort), new(*jwtadapter.Validator)),
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) *zap.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideRegistry creates the Prometheus registry served on /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a metrics instance.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.NewWithRegistry("approvenow", reg)
}

// ProvideStorage opens the configured backend. The postgres backend runs
// migrations when enabled.
func ProvideStorage(cfg *config.Config, log *zap.Logger) (*Storage, func(), error) {
	if cfg.Database.Driver == "memory" {
		log.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &Storage{
			Workspaces:  store.Workspaces(),
			Members:     store.Members(),
			Users:       store.Users(),
			Requests:    store.Requests(),
			Invitations: store.Invitations(),
			Tx:          store,
		}, func() {}, nil
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := database.Close(db); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(db, cfg.Triggers.Channel); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &Storage{
		Workspaces:  postgres.NewWorkspaceAdapter(db),
		Members:     postgres.NewMemberAdapter(db),
		Users:       postgres.NewUserDirectoryAdapter(db),
		Requests:    postgres.NewRequestAdapter(db),
		Invitations: postgres.NewInvitationAdapter(db),
		Tx:          postgres.NewTransactionAdapter(db),
	}, cleanup, nil
}

// ProvideRedisClient creates a Redis client, or nil when Redis is not
// configured or unreachable.
func ProvideRedisClient(cfg *config.Config, log *zap.Logger) (goredis.UniversalClient, func()) {
	if !cfg.Redis.Enabled() {
		return nil, func() {}
	}
	client, err := cache.Open(context.Background(), &cfg.Redis)
	if err != nil {
		log.Warn("redis connection failed, continuing without redis", zap.Error(err))
		return nil, func() {}
	}
	return client, func() { _ = client.Close() }
}

// ProvideIntentLedger records delivered intents in Redis, falling back to
// process memory.
func ProvideIntentLedger(redis goredis.UniversalClient) outbound.IntentLedgerPort {
	if redis == nil {
		return memory.NewIntentLedger()
	}
	return redisadapter.NewIntentLedger(redis)
}

// ProvideRateLimiter creates a rate limiter. Without Redis nothing is limited.
func ProvideRateLimiter(redis goredis.UniversalClient) outbound.RateLimiterPort {
	if redis == nil {
		return nil
	}
	return redisadapter.NewRateLimiter(redis)
}

// ProvideTokenValidator creates the access token validator.
func ProvideTokenValidator(cfg *config.Config) (*jwtadapter.Validator, error) {
	return jwtadapter.NewValidator(jwtadapter.Config{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Leeway:   cfg.Auth.Leeway,
	})
}

// ===== Notification Providers =====

// NotificationSet provides notification delivery.
var NotificationSet = wire.NewSet(
	ProvideNotificationSender,
	ProvideDispatcher,
	wire.Bind(new(outbound.NotificationDispatcherPort), new(*notification.Dispatcher)),
)

// ProvideNotificationSender picks the delivery driver. SMTP delivery is
// wrapped in a circuit breaker.
func ProvideNotificationSender(cfg *config.Config, log *zap.Logger) outbound.NotificationSenderPort {
	if cfg.Notification.Driver != "smtp" {
		return notify.NewLogSender(log)
	}

	smtp := cfg.Notification.SMTP
	sender := notify.NewSMTPSender(notify.SMTPConfig{
		Host:       smtp.Host,
		Port:       smtp.Port,
		Username:   smtp.Username,
		Password:   smtp.Password,
		SSL:        smtp.SSL,
		SkipVerify: smtp.SkipVerify,
		FromEmail:  smtp.FromEmail,
		FromName:   smtp.FromName,
	}, log)

	b := cfg.Notification.Breaker
	return notify.NewBreakerSender(sender, notify.BreakerConfig{
		FailureThreshold: b.FailureThreshold,
		OpenTimeout:      b.OpenTimeout,
		Interval:         b.Interval,
	}, log)
}

// ProvideDispatcher creates the notification dispatcher.
func ProvideDispatcher(
	cfg *config.Config,
	sender outbound.NotificationSenderPort,
	ledger outbound.IntentLedgerPort,
	storage *Storage,
	m outbound.MetricsPort,
	log *zap.Logger,
) *notification.Dispatcher {
	return notification.NewDispatcher(sender, ledger, storage.Users, m, &notification.Config{
		DedupeTTL:            cfg.Notification.DedupeTTL,
		MaxConcurrentLookups: cfg.Notification.MaxConcurrentLookups,
	}, log.Named("notification"))
}

// ===== Domain Providers =====

// DomainSet provides the domains.
var DomainSet = wire.NewSet(
	ProvideGuard,
	ProvideWorkspaceDomain,
	ProvideApprovalDomain,
	ProvideInvitationDomain,
)

// ProvideGuard creates the capability guard.
func ProvideGuard(cfg *config.Config, storage *Storage) (*access.Guard, error) {
	policy, err := access.ParsePolicy(cfg.Access.UnknownRolePolicy)
	if err != nil {
		return nil, err
	}
	return access.NewGuard(storage.Members, access.NewRegistry(policy)), nil
}

// ProvideWorkspaceDomain creates the workspace domain.
func ProvideWorkspaceDomain(cfg *config.Config, storage *Storage, guard *access.Guard, log *zap.Logger) *workspace.Domain {
	return workspace.NewDomain(
		storage.Workspaces,
		storage.Members,
		storage.Users,
		guard,
		storage.Tx,
		&workspace.Config{StoreTimeout: cfg.Store.OperationTimeout},
		log.Named("workspace"),
	)
}

// ProvideApprovalDomain creates the approval domain.
func ProvideApprovalDomain(
	cfg *config.Config,
	storage *Storage,
	guard *access.Guard,
	notifier outbound.NotificationDispatcherPort,
	m outbound.MetricsPort,
	log *zap.Logger,
) *approval.Domain {
	return approval.NewDomain(
		storage.Requests,
		storage.Workspaces,
		guard,
		storage.Tx,
		notifier,
		m,
		&approval.Config{
			StoreTimeout:        cfg.Store.OperationTimeout,
			NotifyTimeout:       cfg.Store.NotifyTimeout,
			MaxSteps:            cfg.Approval.MaxSteps,
			MaxApproversPerStep: cfg.Approval.MaxApproversPerStep,
			BaseURL:             cfg.Invitation.BaseURL,
		},
		log.Named("approval"),
	)
}

// ProvideInvitationDomain creates the invitation domain.
func ProvideInvitationDomain(
	cfg *config.Config,
	storage *Storage,
	guard *access.Guard,
	notifier outbound.NotificationDispatcherPort,
	m outbound.MetricsPort,
	log *zap.Logger,
) *invitation.Domain {
	return invitation.NewDomain(
		storage.Invitations,
		storage.Workspaces,
		storage.Members,
		storage.Users,
		guard,
		storage.Tx,
		notifier,
		m,
		&invitation.Config{
			Expiry:        cfg.Invitation.Expiry,
			TokenLength:   cfg.Invitation.TokenLength,
			BaseURL:       cfg.Invitation.BaseURL,
			StoreTimeout:  cfg.Store.OperationTimeout,
			NotifyTimeout: cfg.Store.NotifyTimeout,
		},
		log.Named("invitation"),
	)
}

// ===== Background Providers =====

// BackgroundSet provides the event bus, scheduler and trigger listener.
var BackgroundSet = wire.NewSet(
	ProvideEventBus,
	ProvideScheduler,
	ProvideListener,
)

// ProvideEventBus creates the store event bus and registers the trigger handlers.
func ProvideEventBus(inv *invitation.Domain, appr *approval.Domain, log *zap.Logger) *events.Bus {
	bus := events.NewBus(log.Named("events"))
	bus.Register(events.InvitationCreatedHandler(inv))
	bus.Register(events.RequestUpdatedHandler(appr))
	return bus
}

// ProvideScheduler creates the scheduler with the expiration sweep registered.
func ProvideScheduler(cfg *config.Config, inv *invitation.Domain, log *zap.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.New(log)
	err := s.Add(scheduler.Job{
		Name:     "sweep-invitations",
		Interval: cfg.Invitation.SweepInterval,
		Timeout:  cfg.Invitation.SweepTimeout,
		Run: func(ctx context.Context) error {
			_, err := inv.Sweep(ctx)
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideListener creates the Postgres trigger listener, or nil when disabled.
func ProvideListener(cfg *config.Config, storage *Storage, bus *events.Bus, log *zap.Logger) *pgtrigger.Listener {
	if !cfg.Triggers.Enabled {
		return nil
	}
	return pgtrigger.NewListener(pgtrigger.Config{
		DSN:     cfg.Database.DSN(),
		Channel: cfg.Triggers.Channel,
	}, storage.Invitations, storage.Requests, bus, log)
}
