// Package pgtrigger turns Postgres row-trigger notifications into store events.
package pgtrigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/approvenow/server/internal/infra/events"
	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/outbound"
)

// Config holds listener settings.
type Config struct {
	DSN                  string
	Channel              string
	MinReconnectInterval time.Duration
	MaxReconnectInterval time.Duration
	PingInterval         time.Duration
	HandleTimeout        time.Duration
	// ReplayLimit caps how many rows of each table one replay re-publishes.
	ReplayLimit int
}

// Payload is the JSON the row triggers send.
type Payload struct {
	Table     string              `json:"table"`
	Op        string              `json:"op"`
	ID        uuid.UUID           `json:"id"`
	OldStatus model.RequestStatus `json:"old_status,omitempty"`
	OldLevel  int                 `json:"old_level,omitempty"`
}

// Publisher is the part of the event bus the listener needs.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Listener receives trigger notifications and publishes full snapshots.
type Listener struct {
	cfg         Config
	invitations outbound.InvitationDatabasePort
	requests    outbound.RequestDatabasePort
	bus         Publisher
	reconnected chan struct{}
	logger      *zap.Logger
}

// NewListener creates a listener.
func NewListener(
	cfg Config,
	invitations outbound.InvitationDatabasePort,
	requests outbound.RequestDatabasePort,
	bus Publisher,
	logger *zap.Logger,
) *Listener {
	if cfg.MinReconnectInterval <= 0 {
		cfg.MinReconnectInterval = time.Second
	}
	if cfg.MaxReconnectInterval <= 0 {
		cfg.MaxReconnectInterval = time.Minute
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 90 * time.Second
	}
	if cfg.HandleTimeout <= 0 {
		cfg.HandleTimeout = 30 * time.Second
	}
	if cfg.ReplayLimit <= 0 {
		cfg.ReplayLimit = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		cfg:         cfg,
		invitations: invitations,
		requests:    requests,
		bus:         bus,
		reconnected: make(chan struct{}, 1),
		logger:      logger.Named("pgtrigger"),
	}
}

// Run listens until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	pl := pq.NewListener(l.cfg.DSN, l.cfg.MinReconnectInterval, l.cfg.MaxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			switch ev {
			case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
				l.logger.Warn("listener connection problem", zap.Error(err))
			case pq.ListenerEventReconnected:
				l.logger.Info("listener reconnected")
				select {
				case l.reconnected <- struct{}{}:
				default:
				}
			}
		})
	defer pl.Close()

	if err := pl.Listen(l.cfg.Channel); err != nil {
		return fmt.Errorf("listen %s: %w", l.cfg.Channel, err)
	}
	l.logger.Info("listening for store events", zap.String("channel", l.cfg.Channel))

	ping := time.NewTicker(l.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-pl.Notify:
			if n == nil {
				continue
			}
			hctx, cancel := context.WithTimeout(ctx, l.cfg.HandleTimeout)
			if err := l.Handle(hctx, n.Extra); err != nil {
				l.logger.Error("store event failed", zap.String("payload", n.Extra), zap.Error(err))
			}
			cancel()
		case <-l.reconnected:
			// Notifications sent while disconnected are gone.
			if err := l.Replay(ctx); err != nil {
				l.logger.Error("store event replay incomplete", zap.Error(err))
			}
		case <-ping.C:
			if err := pl.Ping(); err != nil {
				l.logger.Warn("listener ping failed", zap.Error(err))
			}
		}
	}
}

// Replay re-publishes the rows whose trigger may have been missed: pending
// invitations without a delivery attempt and submitted requests changed since
// their last notification. Handlers are idempotent per intent key, so rows
// that were in fact handled produce no second send.
func (l *Listener) Replay(ctx context.Context) error {
	invs, err := l.invitations.FindUndelivered(ctx, l.cfg.ReplayLimit)
	if err != nil {
		return fmt.Errorf("find undelivered invitations: %w", err)
	}
	reqs, err := l.requests.FindUnnotified(ctx, l.cfg.ReplayLimit)
	if err != nil {
		return fmt.Errorf("find unnotified requests: %w", err)
	}

	payloads := make([]Payload, 0, len(invs)+len(reqs))
	for _, inv := range invs {
		payloads = append(payloads, Payload{Table: "invitations", Op: "REPLAY", ID: inv.ID})
	}
	for _, req := range reqs {
		// The previous state is unknown; an empty one always derives the
		// intent for the current state.
		payloads = append(payloads, Payload{Table: "requests", Op: "REPLAY", ID: req.ID})
	}

	var errs []error
	for _, p := range payloads {
		raw, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		hctx, cancel := context.WithTimeout(ctx, l.cfg.HandleTimeout)
		if err := l.Handle(hctx, string(raw)); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", p.Table, p.ID, err))
		}
		cancel()
	}

	l.logger.Info("store events replayed",
		zap.Int("invitations", len(invs)),
		zap.Int("requests", len(reqs)),
		zap.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}

// Handle decodes one notification payload, loads the row and publishes it.
func (l *Listener) Handle(ctx context.Context, raw string) error {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch p.Table {
	case "invitations":
		inv, err := l.invitations.FindByID(ctx, p.ID)
		if err != nil {
			return l.missing("invitation", p.ID, err)
		}
		return l.bus.Publish(ctx, events.NewInvitationCreated(inv))

	case "requests":
		after, err := l.requests.FindByID(ctx, p.ID)
		if err != nil {
			return l.missing("request", p.ID, err)
		}
		before := after.Clone()
		before.Status = p.OldStatus
		before.CurrentLevel = p.OldLevel
		return l.bus.Publish(ctx, events.NewRequestUpdated(before, after))

	default:
		l.logger.Debug("ignoring store event", zap.String("table", p.Table))
		return nil
	}
}

func (l *Listener) missing(kind string, id uuid.UUID, err error) error {
	if errors.Is(err, outbound.ErrRecordNotFound) {
		l.logger.Warn("store event for missing row", zap.String("kind", kind), zap.String("id", id.String()))
		return nil
	}
	return fmt.Errorf("load %s %s: %w", kind, id, err)
}
