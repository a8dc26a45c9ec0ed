package notification

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/outbound"
)

// Dispatcher delivers notification intents at most once per intent key.
//
// Both the command path and the store trigger path may hand the same intent
// over; the first claim on the key wins and later ones return
// outbound.ErrDuplicateIntent without sending. A failed send releases the
// claim so an explicit retry can deliver.
type Dispatcher struct {
	sender  outbound.NotificationSenderPort
	ledger  outbound.IntentLedgerPort
	users   outbound.UserDirectoryPort
	metrics outbound.MetricsPort
	cfg     *Config
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(
	sender outbound.NotificationSenderPort,
	ledger outbound.IntentLedgerPort,
	users outbound.UserDirectoryPort,
	metrics outbound.MetricsPort,
	cfg *Config,
	logger *zap.Logger,
) *Dispatcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	_ = cfg.Validate()
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		sender:  sender,
		ledger:  ledger,
		users:   users,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger,
	}
}

var _ outbound.NotificationDispatcherPort = (*Dispatcher)(nil)

// Dispatch resolves recipient addresses and sends the intent.
func (d *Dispatcher) Dispatch(ctx context.Context, intent *model.NotificationIntent) error {
	if intent == nil || len(intent.To) == 0 {
		return nil
	}
	kind := string(intent.Kind)

	claimed, err := d.ledger.Claim(ctx, intent.Key, d.cfg.DedupeTTL)
	if err != nil {
		// Without the ledger a duplicate is preferable to a lost notification.
		d.logger.Warn("intent ledger unavailable", zap.String("intent", intent.Key), zap.Error(err))
		claimed = true
	}
	if !claimed {
		d.metrics.RecordNotification(kind, "duplicate")
		d.logger.Debug("duplicate notification suppressed", zap.String("intent", intent.Key))
		return outbound.ErrDuplicateIntent
	}

	recipients, err := d.resolve(ctx, intent.To)
	if err == nil && len(recipients) == 0 {
		err = ErrNoRecipients
	}
	if err == nil {
		resolved := *intent
		resolved.To = recipients
		err = d.sender.Send(ctx, &resolved)
	}

	if err != nil {
		if relErr := d.ledger.Release(context.WithoutCancel(ctx), intent.Key); relErr != nil {
			d.logger.Warn("failed to release intent claim", zap.String("intent", intent.Key), zap.Error(relErr))
		}
		d.metrics.RecordNotification(kind, "failed")
		return err
	}

	d.metrics.RecordNotification(kind, "sent")
	d.logger.Info("notification sent",
		zap.String("intent", intent.Key),
		zap.String("kind", kind),
		zap.Int("recipients", len(recipients)),
	)
	return nil
}

// resolve fills in email addresses for user recipients and drops duplicates.
// Users without a directory entry or address are skipped.
func (d *Dispatcher) resolve(ctx context.Context, to []model.Recipient) ([]model.Recipient, error) {
	out := make([]model.Recipient, len(to))
	var mu sync.Mutex
	var missing []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.MaxConcurrentLookups)

	for i, r := range to {
		if r.Email != "" {
			out[i] = model.Recipient{UserID: r.UserID, Email: strings.ToLower(strings.TrimSpace(r.Email))}
			continue
		}
		i, r := i, r
		g.Go(func() error {
			u, err := d.users.FindByID(gctx, r.UserID)
			if errors.Is(err, outbound.ErrRecordNotFound) || (err == nil && u.Email == "") {
				mu.Lock()
				missing = append(missing, r.UserID.String())
				mu.Unlock()
				return nil
			}
			if err != nil {
				return err
			}
			out[i] = model.Recipient{UserID: r.UserID, Email: strings.ToLower(u.Email)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(missing) > 0 {
		d.logger.Warn("recipients without address skipped", zap.Strings("user_ids", missing))
	}

	seen := make(map[string]struct{}, len(out))
	recipients := make([]model.Recipient, 0, len(out))
	for _, r := range out {
		if r.Email == "" {
			continue
		}
		if _, ok := seen[r.Email]; ok {
			continue
		}
		seen[r.Email] = struct{}{}
		recipients = append(recipients, r)
	}
	return recipients, nil
}
