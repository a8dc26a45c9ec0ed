package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/inbound"
)

type mockApprovalDomain struct {
	inbound.ApprovalDomain
	mock.Mock
}

func (m *mockApprovalDomain) HandleRequestUpdated(ctx context.Context, before, after *model.Request) error {
	return m.Called(ctx, before, after).Error(0)
}

type mockInvitationDomain struct {
	inbound.InvitationDomain
	mock.Mock
}

func (m *mockInvitationDomain) HandleInvitationCreated(ctx context.Context, snapshot *model.Invitation) error {
	return m.Called(ctx, snapshot).Error(0)
}

func TestBus_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("no_handlers", func(t *testing.T) {
		bus := NewBus(nil)
		assert.NoError(t, bus.Publish(ctx, NewInvitationCreated(&model.Invitation{ID: uuid.New()})))
	})

	t.Run("runs_every_handler_and_joins_errors", func(t *testing.T) {
		bus := NewBus(nil)
		first := errors.New("first")
		var calls []string

		bus.Register(On(func(context.Context, Event) error {
			calls = append(calls, "a")
			return first
		}, RequestUpdatedType))
		bus.Register(On(func(context.Context, Event) error {
			calls = append(calls, "b")
			return nil
		}, RequestUpdatedType))

		req := &model.Request{ID: uuid.New()}
		err := bus.Publish(ctx, NewRequestUpdated(req, req))
		assert.ErrorIs(t, err, first)
		assert.Equal(t, []string{"a", "b"}, calls)
	})

	t.Run("publish_all", func(t *testing.T) {
		bus := NewBus(nil)
		var n int
		bus.Register(On(func(context.Context, Event) error {
			n++
			return nil
		}, InvitationCreatedType, RequestUpdatedType))

		req := &model.Request{ID: uuid.New()}
		err := bus.PublishAll(ctx, []Event{
			NewInvitationCreated(&model.Invitation{ID: uuid.New()}),
			NewRequestUpdated(req, req),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestStoreHandlers(t *testing.T) {
	ctx := context.Background()

	t.Run("request_updated", func(t *testing.T) {
		domain := &mockApprovalDomain{}
		before := &model.Request{ID: uuid.New(), Status: model.RequestStatusDraft}
		after := &model.Request{ID: before.ID, Status: model.RequestStatusPendingApproval}
		domain.On("HandleRequestUpdated", ctx, before, after).Return(nil).Once()

		bus := NewBus(nil)
		bus.Register(RequestUpdatedHandler(domain))
		require.NoError(t, bus.Publish(ctx, NewRequestUpdated(before, after)))
		domain.AssertExpectations(t)
	})

	t.Run("invitation_created_error_surfaces", func(t *testing.T) {
		domain := &mockInvitationDomain{}
		inv := &model.Invitation{ID: uuid.New()}
		domain.On("HandleInvitationCreated", ctx, inv).Return(errors.New("smtp down")).Once()

		bus := NewBus(nil)
		bus.Register(InvitationCreatedHandler(domain))
		err := bus.Publish(ctx, NewInvitationCreated(inv))
		assert.ErrorContains(t, err, "smtp down")
	})
}
