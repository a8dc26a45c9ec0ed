package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/outbound"
)

// LogSender writes intents to the log instead of delivering them.
// Bodies, which carry invite links, are logged at debug level only.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, intent *model.NotificationIntent) error {
	msg, err := Compose(intent)
	if err != nil {
		return err
	}

	to := make([]string, 0, len(intent.To))
	for _, r := range intent.To {
		to = append(to, r.Email)
	}
	s.logger.Info("notification",
		zap.String("key", intent.Key),
		zap.String("kind", string(intent.Kind)),
		zap.Strings("to", to),
		zap.String("subject", msg.Subject),
	)
	s.logger.Debug("notification body", zap.String("key", intent.Key), zap.String("body", msg.Body))
	return nil
}

var _ outbound.NotificationSenderPort = (*LogSender)(nil)
