package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/outbound"
)

// BreakerConfig configures the delivery circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32
	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration
	// Interval resets the failure counts while closed.
	Interval time.Duration
}

// ErrDeliveryUnavailable is returned while the circuit is open.
var ErrDeliveryUnavailable = errors.New("notification delivery unavailable")

// BreakerSender stops calling a failing sender until it recovers.
type BreakerSender struct {
	next    outbound.NotificationSenderPort
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerSender wraps next with a circuit breaker.
func NewBreakerSender(next outbound.NotificationSenderPort, cfg BreakerConfig, logger *zap.Logger) *BreakerSender {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:        "notification-sender",
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A caller giving up is not a delivery failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &BreakerSender{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (s *BreakerSender) Send(ctx context.Context, intent *model.NotificationIntent) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.next.Send(ctx, intent)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrDeliveryUnavailable, err)
	}
	return err
}

// State reports the breaker state.
func (s *BreakerSender) State() gobreaker.State {
	return s.breaker.State()
}

var _ outbound.NotificationSenderPort = (*BreakerSender)(nil)
