package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/approvenow/server/internal/model"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, intent *model.NotificationIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

func invitationIntent() *model.NotificationIntent {
	return &model.NotificationIntent{
		Key:  "invitation:1:1",
		Kind: model.NotificationInvitation,
		To:   []model.Recipient{{Email: "bob@example.com"}},
		Data: map[string]string{
			"workspaceName": "Acme",
			"inviterName":   "Ada",
			"role":          "editor",
			"permissions":   "Create and edit your own requests\nApprove requests assigned to you",
			"inviteLink":    "https://approvenow.app/invite?token=x",
			"rejectLink":    "https://approvenow.app/invite?token=x&action=reject",
			"expiresInDays": "7",
		},
	}
}

func TestCompose(t *testing.T) {
	t.Run("invitation", func(t *testing.T) {
		msg, err := Compose(invitationIntent())
		require.NoError(t, err)
		assert.Equal(t, "Ada invited you to join Acme", msg.Subject)
		assert.Contains(t, msg.Body, "  - Approve requests assigned to you")
		assert.Contains(t, msg.Body, "action=reject")
		assert.Contains(t, msg.Body, "expires in 7 days")
	})

	t.Run("request_kinds", func(t *testing.T) {
		data := map[string]string{"requestTitle": "Q3 budget", "requestLink": "https://x/r/1", "level": "1", "totalLevels": "2"}
		cases := map[model.NotificationKind]string{
			model.NotificationApprovalRequest:   "Approval needed: Q3 budget",
			model.NotificationApprovalCompleted: "Request approved: Q3 budget",
			model.NotificationRequestRejected:   "Request rejected: Q3 budget",
		}
		for kind, subject := range cases {
			msg, err := Compose(&model.NotificationIntent{Kind: kind, Data: data})
			require.NoError(t, err)
			assert.Equal(t, subject, msg.Subject)
			assert.Contains(t, msg.Body, "https://x/r/1")
		}
	})

	t.Run("rejection_reason_included", func(t *testing.T) {
		msg, err := Compose(&model.NotificationIntent{
			Kind: model.NotificationRequestRejected,
			Data: map[string]string{"requestTitle": "Q3", "reason": "over budget"},
		})
		require.NoError(t, err)
		assert.Contains(t, msg.Body, "Reason: over budget")
	})

	t.Run("unknown_kind", func(t *testing.T) {
		_, err := Compose(&model.NotificationIntent{Kind: "fax"})
		assert.Error(t, err)
	})
}

func TestSMTPSender_Build(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 1025}, nil)

	t.Run("one_message_per_addressed_recipient", func(t *testing.T) {
		intent := invitationIntent()
		intent.To = append(intent.To, model.Recipient{}, model.Recipient{Email: "carol@example.com"})

		msgs, err := s.build(intent)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, []string{"bob@example.com"}, msgs[0].GetHeader("To"))
		assert.Equal(t, []string{"Ada invited you to join Acme"}, msgs[0].GetHeader("Subject"))
		assert.Contains(t, msgs[0].GetHeader("From")[0], "noreply@approvenow.app")
	})

	t.Run("no_addresses", func(t *testing.T) {
		intent := invitationIntent()
		intent.To = []model.Recipient{{}}
		_, err := s.build(intent)
		assert.Error(t, err)
	})
}

func TestBreakerSender(t *testing.T) {
	ctx := context.Background()

	t.Run("opens_after_consecutive_failures", func(t *testing.T) {
		next := new(mockSender)
		next.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Times(3)

		s := NewBreakerSender(next, BreakerConfig{FailureThreshold: 3, OpenTimeout: time.Minute}, nil)
		for i := 0; i < 3; i++ {
			assert.Error(t, s.Send(ctx, invitationIntent()))
		}
		assert.Equal(t, gobreaker.StateOpen, s.State())

		err := s.Send(ctx, invitationIntent())
		assert.ErrorIs(t, err, ErrDeliveryUnavailable)
		next.AssertExpectations(t)
	})

	t.Run("passes_success_through", func(t *testing.T) {
		next := new(mockSender)
		next.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

		s := NewBreakerSender(next, BreakerConfig{}, nil)
		require.NoError(t, s.Send(ctx, invitationIntent()))
		assert.Equal(t, gobreaker.StateClosed, s.State())
	})

	t.Run("cancellation_does_not_trip", func(t *testing.T) {
		next := new(mockSender)
		next.On("Send", mock.Anything, mock.Anything).Return(context.Canceled)

		s := NewBreakerSender(next, BreakerConfig{FailureThreshold: 1}, nil)
		for i := 0; i < 3; i++ {
			assert.ErrorIs(t, s.Send(ctx, invitationIntent()), context.Canceled)
		}
		assert.Equal(t, gobreaker.StateClosed, s.State())
	})
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender(zap.New(core))

	require.NoError(t, s.Send(context.Background(), invitationIntent()))

	entries := logs.FilterMessage("notification").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Ada invited you to join Acme", entries[0].ContextMap()["subject"])
}
