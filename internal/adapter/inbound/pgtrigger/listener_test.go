package pgtrigger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/approvenow/server/internal/adapter/outbound/memory"
	"github.com/approvenow/server/internal/infra/events"
	"github.com/approvenow/server/internal/model"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event events.Event) error {
	return m.Called(ctx, event).Error(0)
}

func TestListener_Handle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	setup := func() (*memory.Store, *mockPublisher, *Listener) {
		store := memory.NewStore()
		pub := &mockPublisher{}
		return store, pub, NewListener(Config{Channel: "approvenow_store_events"}, store.Invitations(), store.Requests(), pub, nil)
	}

	t.Run("request_update_rebuilds_before", func(t *testing.T) {
		store, pub, l := setup()
		req := &model.Request{
			ID:            uuid.New(),
			WorkspaceID:   uuid.New(),
			Title:         "Q3",
			Status:        model.RequestStatusPendingApproval,
			CurrentLevel:  2,
			ApprovalSteps: []model.ApprovalStep{{Level: 1, Approvers: []uuid.UUID{uuid.New()}}, {Level: 2, Approvers: []uuid.UUID{uuid.New()}}},
			CreatedAt:     now,
		}
		require.NoError(t, store.Requests().Create(ctx, req))

		pub.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
			ev, ok := e.(*events.RequestUpdated)
			return ok &&
				ev.Before.Status == model.RequestStatusPendingApproval && ev.Before.CurrentLevel == 1 &&
				ev.After.CurrentLevel == 2 && ev.After.ID == req.ID
		})).Return(nil).Once()

		payload := `{"table":"requests","op":"UPDATE","id":"` + req.ID.String() + `","old_status":"pending_approval","old_level":1}`
		require.NoError(t, l.Handle(ctx, payload))
		pub.AssertExpectations(t)
	})

	t.Run("invitation_insert", func(t *testing.T) {
		store, pub, l := setup()
		inv := &model.Invitation{ID: uuid.New(), WorkspaceID: uuid.New(), Email: "a@b.c", Token: "t", Status: model.InvitationStatusPending, CreatedAt: now}
		require.NoError(t, store.Invitations().Create(ctx, inv))

		pub.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
			ev, ok := e.(*events.InvitationCreated)
			return ok && ev.Invitation.ID == inv.ID
		})).Return(errors.New("smtp down")).Once()

		err := l.Handle(ctx, `{"table":"invitations","op":"INSERT","id":"`+inv.ID.String()+`"}`)
		assert.ErrorContains(t, err, "smtp down")
	})

	t.Run("missing_row_is_skipped", func(t *testing.T) {
		_, pub, l := setup()
		require.NoError(t, l.Handle(ctx, `{"table":"requests","op":"UPDATE","id":"`+uuid.NewString()+`"}`))
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("bad_payload", func(t *testing.T) {
		_, _, l := setup()
		assert.Error(t, l.Handle(ctx, "not json"))
	})

	t.Run("other_tables_ignored", func(t *testing.T) {
		_, pub, l := setup()
		require.NoError(t, l.Handle(ctx, `{"table":"users","op":"INSERT","id":"`+uuid.NewString()+`"}`))
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestListener_Replay(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	pub := &mockPublisher{}
	l := NewListener(Config{Channel: "approvenow_store_events"}, store.Invitations(), store.Requests(), pub, nil)

	sent := true
	undelivered := &model.Invitation{ID: uuid.New(), Email: "a@b.c", Token: "t1", Status: model.InvitationStatusPending, CreatedAt: now}
	delivered := &model.Invitation{ID: uuid.New(), Email: "b@b.c", Token: "t2", Status: model.InvitationStatusPending, CreatedAt: now, EmailSent: &sent}
	rejected := &model.Invitation{ID: uuid.New(), Email: "c@b.c", Token: "t3", Status: model.InvitationStatusRejected, CreatedAt: now}
	for _, inv := range []*model.Invitation{undelivered, delivered, rejected} {
		require.NoError(t, store.Invitations().Create(ctx, inv))
	}

	steps := []model.ApprovalStep{{Level: 1, Approvers: []uuid.UUID{uuid.New()}}}
	notifiedAt := now.Add(time.Minute)
	changed := &model.Request{ID: uuid.New(), Status: model.RequestStatusPendingApproval, CurrentLevel: 1, ApprovalSteps: steps, UpdatedAt: now}
	notified := &model.Request{ID: uuid.New(), Status: model.RequestStatusApproved, CurrentLevel: 2, ApprovalSteps: steps, UpdatedAt: now, NotifiedAt: &notifiedAt}
	draft := &model.Request{ID: uuid.New(), Status: model.RequestStatusDraft, CurrentLevel: 1, ApprovalSteps: steps, UpdatedAt: now}
	for _, req := range []*model.Request{changed, notified, draft} {
		require.NoError(t, store.Requests().Create(ctx, req))
	}

	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		ev, ok := e.(*events.InvitationCreated)
		return ok && ev.Invitation.ID == undelivered.ID
	})).Return(nil).Once()
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		ev, ok := e.(*events.RequestUpdated)
		return ok && ev.After.ID == changed.ID && ev.Before.Status == ""
	})).Return(nil).Once()

	require.NoError(t, l.Replay(ctx))
	pub.AssertExpectations(t)
	pub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestListener_ReplayReportsFailures(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pub := &mockPublisher{}
	l := NewListener(Config{}, store.Invitations(), store.Requests(), pub, nil)

	for i := 0; i < 2; i++ {
		require.NoError(t, store.Invitations().Create(ctx, &model.Invitation{
			ID:        uuid.New(),
			Email:     uuid.NewString() + "@b.c",
			Token:     uuid.NewString(),
			Status:    model.InvitationStatusPending,
			CreatedAt: time.Now(),
		}))
	}
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	err := l.Replay(ctx)
	assert.ErrorContains(t, err, "smtp down")
	pub.AssertNumberOfCalls(t, "Publish", 2)
}
