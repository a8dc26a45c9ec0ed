package approval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/approvenow/server/internal/domain/access"
	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/inbound"
	"github.com/approvenow/server/internal/port/outbound"
	apperrors "github.com/approvenow/server/internal/utils/errors"
)

// Mock implementations

type mockRequestDB struct {
	mock.Mock
}

func (m *mockRequestDB) Create(ctx context.Context, req *model.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockRequestDB) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Request).Clone(), args.Error(1)
}

func (m *mockRequestDB) FindByWorkspace(ctx context.Context, workspaceID uuid.UUID, status *model.RequestStatus, limit, offset int) ([]*model.Request, error) {
	args := m.Called(ctx, workspaceID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Request), args.Error(1)
}

func (m *mockRequestDB) CompareAndSwap(ctx context.Context, expectedStatus model.RequestStatus, expectedLevel int, next *model.Request) error {
	args := m.Called(ctx, expectedStatus, expectedLevel, next)
	return args.Error(0)
}

func (m *mockRequestDB) RecordDecision(ctx context.Context, decision *model.RequestDecision) error {
	args := m.Called(ctx, decision)
	return args.Error(0)
}

func (m *mockRequestDB) FindDecision(ctx context.Context, requestID uuid.UUID, level int) (*model.RequestDecision, error) {
	args := m.Called(ctx, requestID, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RequestDecision), args.Error(1)
}

func (m *mockRequestDB) FindDecisions(ctx context.Context, requestID uuid.UUID) ([]*model.RequestDecision, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.RequestDecision), args.Error(1)
}

func (m *mockRequestDB) RecordNotification(ctx context.Context, id uuid.UUID, at time.Time, errMsg string) error {
	args := m.Called(ctx, id, at, errMsg)
	return args.Error(0)
}

func (m *mockRequestDB) FindUnnotified(ctx context.Context, limit int) ([]*model.Request, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Request), args.Error(1)
}

type mockWorkspaceDB struct {
	mock.Mock
}

func (m *mockWorkspaceDB) Create(ctx context.Context, ws *model.Workspace) error {
	args := m.Called(ctx, ws)
	return args.Error(0)
}

func (m *mockWorkspaceDB) FindByID(ctx context.Context, id uuid.UUID) (*model.Workspace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Workspace), args.Error(1)
}

func (m *mockWorkspaceDB) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*model.Workspace, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Workspace), args.Error(1)
}

// memberTable answers membership lookups from a fixed map.
type memberTable struct {
	workspaceID uuid.UUID
	roles       map[uuid.UUID]model.Role
}

func (m *memberTable) Upsert(context.Context, *model.Member) error { return nil }

func (m *memberTable) Find(_ context.Context, workspaceID, userID uuid.UUID) (*model.Member, error) {
	role, ok := m.roles[userID]
	if !ok || workspaceID != m.workspaceID {
		return nil, outbound.ErrRecordNotFound
	}
	return &model.Member{WorkspaceID: workspaceID, UserID: userID, Role: role}, nil
}

func (m *memberTable) FindByWorkspaceWithUsers(context.Context, uuid.UUID) ([]*model.MemberWithUser, error) {
	return nil, nil
}

func (m *memberTable) UpdateRole(context.Context, uuid.UUID, uuid.UUID, model.Role) error { return nil }

func (m *memberTable) Remove(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (m *memberTable) LockOwners(context.Context, uuid.UUID) ([]uuid.UUID, error) { return nil, nil }

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Dispatch(ctx context.Context, intent *model.NotificationIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

type fixture struct {
	domain     *Domain
	requests   *mockRequestDB
	workspaces *mockWorkspaceDB
	notifier   *mockNotifier
	members    *memberTable

	workspaceID uuid.UUID
	author      uuid.UUID
	approverA   uuid.UUID
	approverB   uuid.UUID
	viewer      uuid.UUID
	now         time.Time
}

func setupDomain(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		requests:    new(mockRequestDB),
		workspaces:  new(mockWorkspaceDB),
		notifier:    new(mockNotifier),
		workspaceID: uuid.New(),
		author:      uuid.New(),
		approverA:   uuid.New(),
		approverB:   uuid.New(),
		viewer:      uuid.New(),
		now:         time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.members = &memberTable{
		workspaceID: f.workspaceID,
		roles: map[uuid.UUID]model.Role{
			f.author:    model.RoleEditor,
			f.approverA: model.RoleEditor,
			f.approverB: model.RoleAdmin,
			f.viewer:    model.RoleViewer,
		},
	}

	guard := access.NewGuard(f.members, access.NewRegistry(access.PolicyViewer))
	f.domain = NewDomain(f.requests, f.workspaces, guard, passthroughTx{}, f.notifier, nil, DefaultConfig(), zap.NewNop())
	f.domain.SetClock(func() time.Time { return f.now })

	f.workspaces.On("FindByID", mock.Anything, f.workspaceID).
		Return(&model.Workspace{ID: f.workspaceID, Name: "Finance"}, nil).Maybe()

	return f
}

func (f *fixture) pendingRequest() *model.Request {
	return &model.Request{
		ID:           uuid.New(),
		WorkspaceID:  f.workspaceID,
		Title:        "Laptop purchase",
		Status:       model.RequestStatusPendingApproval,
		CurrentLevel: 1,
		ApprovalSteps: []model.ApprovalStep{
			{Level: 1, Approvers: []uuid.UUID{f.approverA}},
			{Level: 2, Approvers: []uuid.UUID{f.approverB}},
		},
		SubmittedBy: f.author,
	}
}

func TestDomain_CreateRequest(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := setupDomain(t)
		f.requests.On("Create", mock.Anything, mock.AnythingOfType("*model.Request")).Return(nil)

		req, err := f.domain.CreateRequest(context.Background(), f.author, f.workspaceID, &inbound.CreateRequestInput{
			Title: " Laptop purchase ",
			ApprovalSteps: []inbound.ApprovalStepInput{
				{Approvers: []uuid.UUID{f.approverA, f.approverA}},
				{Approvers: []uuid.UUID{f.approverB}},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "Laptop purchase", req.Title)
		assert.Equal(t, model.RequestStatusDraft, req.Status)
		assert.Equal(t, 1, req.CurrentLevel)
		assert.Equal(t, f.author, req.SubmittedBy)
		require.Len(t, req.ApprovalSteps, 2)
		assert.Equal(t, []uuid.UUID{f.approverA}, req.ApprovalSteps[0].Approvers)
		assert.Equal(t, 2, req.ApprovalSteps[1].Level)
	})

	t.Run("viewer_cannot_create", func(t *testing.T) {
		f := setupDomain(t)

		_, err := f.domain.CreateRequest(context.Background(), f.viewer, f.workspaceID, &inbound.CreateRequestInput{Title: "x"})
		assert.True(t, apperrors.IsPermission(err))
		f.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("approver_not_member", func(t *testing.T) {
		f := setupDomain(t)

		_, err := f.domain.CreateRequest(context.Background(), f.author, f.workspaceID, &inbound.CreateRequestInput{
			Title:         "x",
			ApprovalSteps: []inbound.ApprovalStepInput{{Approvers: []uuid.UUID{uuid.New()}}},
		})
		assert.Equal(t, apperrors.KindValidation, apperrors.Kind(err))
	})

	t.Run("approver_is_viewer", func(t *testing.T) {
		f := setupDomain(t)

		_, err := f.domain.CreateRequest(context.Background(), f.author, f.workspaceID, &inbound.CreateRequestInput{
			Title:         "x",
			ApprovalSteps: []inbound.ApprovalStepInput{{Approvers: []uuid.UUID{f.viewer}}},
		})
		assert.Equal(t, apperrors.KindValidation, apperrors.Kind(err))
	})

	t.Run("empty_step", func(t *testing.T) {
		f := setupDomain(t)

		_, err := f.domain.CreateRequest(context.Background(), f.author, f.workspaceID, &inbound.CreateRequestInput{
			Title:         "x",
			ApprovalSteps: []inbound.ApprovalStepInput{{}},
		})
		assert.ErrorIs(t, err, ErrEmptyStep)
	})

	t.Run("missing_title", func(t *testing.T) {
		f := setupDomain(t)

		_, err := f.domain.CreateRequest(context.Background(), f.author, f.workspaceID, &inbound.CreateRequestInput{Title: "  "})
		assert.ErrorIs(t, err, ErrTitleRequired)
	})
}

func TestDomain_SubmitRequest(t *testing.T) {
	t.Run("success_notifies_level_one", func(t *testing.T) {
		f := setupDomain(t)
		req := f.pendingRequest()
		req.Status = model.RequestStatusDraft

		f.requests.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.requests.On("CompareAndSwap", mock.Anything, model.RequestStatusDraft, 1, mock.AnythingOfType("*model.Request")).Return(nil)
		f.notifier.On("Dispatch", mock.Anything, mock.MatchedBy(func(i *model.NotificationIntent) bool {
			return i.Kind == model.NotificationApprovalRequest && len(i.To) == 1 && i.To[0].UserID == f.approverA
		})).Return(nil)
		f.requests.On("RecordNotification", mock.Anything, req.ID, f.now, "").Return(nil)

		got, err := f.domain.SubmitRequest(context.Background(), f.author, f.workspaceID, req.ID)

		require.NoError(t, err)
		assert.Equal(t, model.RequestStatusPendingApproval, got.Status)
		f.notifier.AssertExpectations(t)
		f.requests.AssertExpectations(t)
	})

	t.Run("lost_race", func(t *testing.T) {
		f := setupDomain(t)
		req := f.pendingRequest()
		req.Status = model.RequestStatusDraft

		f.requests.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.requests.On("CompareAndSwap", mock.Anything, model.RequestStatusDraft, 1, mock.Anything).Return(outbound.ErrConflict)

		_, err := f.domain.SubmitRequest(context.Background(), f.author, f.workspaceID, req.ID)
		assert.True(t, apperrors.IsStaleState(err))
		f.notifier.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})

	t.Run("other_workspace", func(t *testing.T) {
		f := setupDomain(t)
		req := f.pendingRequest()
		req.WorkspaceID = uuid.New()

		f.requests.On("FindByID", mock.Anything, req.ID).Return(req, nil)

		_, err := f.domain.SubmitRequest(context.Background(), f.author, f.workspaceID, req.ID)
		assert.ErrorIs(t, err, ErrRequestNotFound)
	})
}

func TestDomain_RecordDecision(t *testing.T) {
	t.Run("approve_level_one", func(t *testing.T) {
		f := setupDomain(t)
		req := f.pendingRequest()

		f.requests.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.requests.On("RecordDecision", mock.Anything, mock.MatchedBy(func(d *model.RequestDecision) bool {
			return d.Level == 1 && d.ApproverID == f.approverA && d.Verdict == model.VerdictApprove
		})).Return(nil)
		f.requests.On("CompareAndSwap", mock.Anything, model.RequestStatusPendingApproval, 1, mock.MatchedBy(func(r *model.Request) bool {
			return r.CurrentLevel == 2 && r.Status == model.RequestStatusPendingApproval
		})).Return(nil)
		f.notifier.On("Dispatch", mock.Anything, mock.MatchedBy(func(i *model.NotificationIntent) bool {
			return i.To[0].UserID == f.approverB
		})).Return(nil)
		f.requests.On("RecordNotification", mock.Anything, req.ID, f.now, "").Return(nil)

		out, err := f.domain.RecordDecision(context.Background(), f.approverA, f.workspaceID, req.ID, &inbound.DecisionInput{Decision: model.VerdictApprove, Level: 1})

		require.NoError(t, err)
		assert.False(t, out.Replayed)
		assert.Equal(t, 2, out.Request.CurrentLevel)
		f.requests.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("notification_failure_keeps_transition", func(t *testing.T) {
		f := setupDomain(t)
		req := f.pendingRequest()
		req.CurrentLevel = 2

		f.requests.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.requests.On("RecordDecision", mock.Anything, mock.Anything).Return(nil)
		f.requests.On("CompareAndSwap", mock.Anything, model.RequestStatusPendingApproval, 2, mock.Anything).Return(nil)
		f.notifier.On("Dispatch", mock.Anything, mock.Anything).Return(errors.New("smtp: 421"))
		f.requests.On("RecordNotification", mock.Anything, req.ID, f.now, "smtp: 421").Return(nil)

		out, err := f.domain.RecordDecision(context.Background(), f.approverB, f.workspaceID, req.ID, &inbound.DecisionInput{Decision: model.VerdictApprove, Level: 2})

		require.NoError(t, err)
		assert.Equal(t, model.RequestStatusApproved, out.Request.Status)
		f.requests.AssertExpectations(t)
	})

	t.Run("duplicate_intent_records_nothing", func(t *testing.T) {
		f := setupDomain(t)
		req := f.pendingRequest()

		f.requests.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.requests.On("RecordDecision", mock.Anything, mock.Anything).Return(nil)
		f.requests.On("CompareAndSwap", mock.Anything, model.RequestStatusPendingApproval, 1, mock.Anything).Return(nil)
		f.notifier.On("Dispatch", mock.Anything, mock.Anything).Return(outbound.ErrDuplicateIntent)

		_, err := f.domain.RecordDecision(context.Background(), f.approverA, f.workspaceID, req.ID, &inbound.DecisionInput{Decision: model.VerdictApprove, Level: 1})

		require.NoError(t, err)
		f.requests.AssertNotCalled(t, "RecordNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not_an_approver_at_level", func(t *testing.T) {
		f := setupDomain(t)
		req := f.pendingRequest()

		f.requests.On("FindByID", mock.Anything, req.ID).Return(req, nil)

		_, err := f.domain.RecordDecision(context.Background(), f.approverB, f.workspaceID, req.ID, &inbound.DecisionInput{Decision: model.VerdictApprove, Level: 1})
		assert.ErrorIs(t, err, ErrNotApprover)
		f.requests.AssertNotCalled(t, "RecordDecision", mock.Anything, mock.Anything)
	})

	t.Run("viewer_denied", func(t *testing.T) {
		f := setupDomain(t)

		_, err := f.domain.RecordDecision(context.Background(), f.viewer, f.workspaceID, uuid.New(), &inbound.DecisionInput{Decision: model.VerdictApprove, Level: 1})
		assert.True(t, apperrors.IsPermission(err))
	})

	t.Run("lost_race_is_stale", func(t *testing.T) {
		f := setupDomain(t)
		req := f.pendingRequest()
		req.ApprovalSteps[0].Approvers = []uuid.UUID{f.approverA, f.author}
		winner := &model.RequestDecision{RequestID: req.ID, Level: 1, ApproverID: f.author, Verdict: model.VerdictApprove}

		f.requests.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.requests.On("RecordDecision", mock.Anything, mock.Anything).Return(outbound.ErrConflict)
		f.requests.On("FindDecision", mock.Anything, req.ID, 1).Return(winner, nil)

		_, err := f.domain.RecordDecision(context.Background(), f.approverA, f.workspaceID, req.ID, &inbound.DecisionInput{Decision: model.VerdictReject, Level: 1})
		assert.ErrorIs(t, err, ErrStaleDecision)
		f.notifier.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})

	t.Run("retry_is_replayed", func(t *testing.T) {
		f := setupDomain(t)
		req := f.pendingRequest()
		req.CurrentLevel = 2
		prior := &model.RequestDecision{RequestID: req.ID, Level: 1, ApproverID: f.approverA, Verdict: model.VerdictApprove}

		f.requests.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.requests.On("FindDecision", mock.Anything, req.ID, 1).Return(prior, nil)

		out, err := f.domain.RecordDecision(context.Background(), f.approverA, f.workspaceID, req.ID, &inbound.DecisionInput{Decision: model.VerdictApprove, Level: 1})

		require.NoError(t, err)
		assert.True(t, out.Replayed)
		assert.Equal(t, prior, out.Decision)
		f.requests.AssertNotCalled(t, "RecordDecision", mock.Anything, mock.Anything)
	})

	t.Run("retry_with_other_verdict_is_stale", func(t *testing.T) {
		f := setupDomain(t)
		req := f.pendingRequest()
		req.CurrentLevel = 2
		prior := &model.RequestDecision{RequestID: req.ID, Level: 1, ApproverID: f.approverA, Verdict: model.VerdictApprove}

		f.requests.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.requests.On("FindDecision", mock.Anything, req.ID, 1).Return(prior, nil)

		_, err := f.domain.RecordDecision(context.Background(), f.approverA, f.workspaceID, req.ID, &inbound.DecisionInput{Decision: model.VerdictReject, Level: 1})
		assert.ErrorIs(t, err, ErrStaleDecision)
	})

	t.Run("future_level", func(t *testing.T) {
		f := setupDomain(t)
		req := f.pendingRequest()

		f.requests.On("FindByID", mock.Anything, req.ID).Return(req, nil)

		_, err := f.domain.RecordDecision(context.Background(), f.approverA, f.workspaceID, req.ID, &inbound.DecisionInput{Decision: model.VerdictApprove, Level: 2})
		assert.ErrorIs(t, err, ErrLevelMismatch)
	})

	t.Run("closed_request", func(t *testing.T) {
		f := setupDomain(t)
		req := f.pendingRequest()
		req.Status = model.RequestStatusApproved
		req.CurrentLevel = 3

		f.requests.On("FindByID", mock.Anything, req.ID).Return(req, nil)
		f.requests.On("FindDecision", mock.Anything, req.ID, 3).Return(nil, outbound.ErrRecordNotFound)

		_, err := f.domain.RecordDecision(context.Background(), f.approverA, f.workspaceID, req.ID, &inbound.DecisionInput{Decision: model.VerdictApprove, Level: 3})
		assert.ErrorIs(t, err, ErrRequestClosed)
		f.requests.AssertNotCalled(t, "RecordDecision", mock.Anything, mock.Anything)
	})

	t.Run("level_required", func(t *testing.T) {
		f := setupDomain(t)

		_, err := f.domain.RecordDecision(context.Background(), f.approverA, f.workspaceID, uuid.New(), &inbound.DecisionInput{Decision: model.VerdictApprove})
		assert.ErrorIs(t, err, ErrLevelRequired)
		assert.Equal(t, apperrors.KindValidation, apperrors.Kind(err))
		f.requests.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("invalid_verdict", func(t *testing.T) {
		f := setupDomain(t)

		_, err := f.domain.RecordDecision(context.Background(), f.approverA, f.workspaceID, uuid.New(), &inbound.DecisionInput{Decision: "maybe"})
		assert.ErrorIs(t, err, ErrInvalidVerdict)
	})
}

func TestDomain_Approvers(t *testing.T) {
	f := setupDomain(t)
	req := f.pendingRequest()
	req.CurrentLevel = 2
	f.requests.On("FindByID", mock.Anything, req.ID).Return(req, nil)

	out, err := f.domain.Approvers(context.Background(), f.viewer, f.workspaceID, req.ID)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.approverB}, out.Approvers)
	assert.Equal(t, 2, out.CurrentLevel)
}

func TestDomain_GetRequest(t *testing.T) {
	f := setupDomain(t)
	req := f.pendingRequest()
	dec := &model.RequestDecision{RequestID: req.ID, Level: 1, ApproverID: f.approverA, Verdict: model.VerdictApprove}
	f.requests.On("FindByID", mock.Anything, req.ID).Return(req, nil)
	f.requests.On("FindDecisions", mock.Anything, req.ID).Return([]*model.RequestDecision{dec}, nil)

	got, err := f.domain.GetRequest(context.Background(), f.viewer, f.workspaceID, req.ID)

	require.NoError(t, err)
	require.Len(t, got.Decisions, 1)
	assert.Equal(t, f.approverA, got.Decisions[0].ApproverID)
}

func TestDomain_ListRequests(t *testing.T) {
	t.Run("normalizes_page", func(t *testing.T) {
		f := setupDomain(t)
		status := model.RequestStatusPendingApproval
		f.requests.On("FindByWorkspace", mock.Anything, f.workspaceID, &status, 20, 0).Return([]*model.Request{f.pendingRequest()}, nil)

		got, err := f.domain.ListRequests(context.Background(), f.viewer, f.workspaceID, &status, model.PaginationRequest{Limit: 500})

		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("unknown_status", func(t *testing.T) {
		f := setupDomain(t)
		status := model.RequestStatus("archived")

		_, err := f.domain.ListRequests(context.Background(), f.viewer, f.workspaceID, &status, model.PaginationRequest{})
		assert.ErrorIs(t, err, ErrInvalidStatusFilter)
	})

	t.Run("non_member", func(t *testing.T) {
		f := setupDomain(t)

		_, err := f.domain.ListRequests(context.Background(), uuid.New(), f.workspaceID, nil, model.PaginationRequest{})
		assert.ErrorIs(t, err, access.ErrNotMember)
	})
}

func TestDomain_HandleRequestUpdated(t *testing.T) {
	t.Run("dispatches_for_level_change", func(t *testing.T) {
		f := setupDomain(t)
		before := f.pendingRequest()
		after := before.Clone()
		after.CurrentLevel = 2

		f.notifier.On("Dispatch", mock.Anything, mock.MatchedBy(func(i *model.NotificationIntent) bool {
			return i.Key == model.RequestIntentKey(after.ID, model.RequestStatusPendingApproval, 2)
		})).Return(nil)
		f.requests.On("RecordNotification", mock.Anything, after.ID, f.now, "").Return(nil)

		require.NoError(t, f.domain.HandleRequestUpdated(context.Background(), before, after))
		f.notifier.AssertExpectations(t)
	})

	t.Run("ignores_unrelated_change", func(t *testing.T) {
		f := setupDomain(t)
		before := f.pendingRequest()
		after := before.Clone()
		after.Description = "edited"

		require.NoError(t, f.domain.HandleRequestUpdated(context.Background(), before, after))
		f.notifier.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})

	t.Run("inconsistent_configuration", func(t *testing.T) {
		f := setupDomain(t)
		before := f.pendingRequest()
		after := before.Clone()
		after.CurrentLevel = 9

		err := f.domain.HandleRequestUpdated(context.Background(), before, after)
		assert.Equal(t, apperrors.KindConfiguration, apperrors.Kind(err))
	})
}
