package approval

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/approvenow/server/internal/model"
	apperrors "github.com/approvenow/server/internal/utils/errors"
)

func testEnv() Env {
	return Env{
		Now:           time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		WorkspaceName: "Finance",
		BaseURL:       "https://approvenow.app/",
	}
}

func TestSubmit(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	t.Run("draft_to_pending", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		req.Status = model.RequestStatusDraft

		tr, err := Submit(req, req.SubmittedBy, testEnv())
		require.NoError(t, err)

		assert.Equal(t, model.RequestStatusDraft, req.Status, "input must not be mutated")
		assert.Equal(t, model.RequestStatusPendingApproval, tr.After.Status)
		assert.Equal(t, 1, tr.After.CurrentLevel)
		require.NotNil(t, tr.After.SubmittedAt)

		require.NotNil(t, tr.Intent)
		assert.Equal(t, model.NotificationApprovalRequest, tr.Intent.Kind)
		assert.Equal(t, []model.Recipient{{UserID: a}}, tr.Intent.To)
		assert.Equal(t, model.RequestIntentKey(req.ID, model.RequestStatusPendingApproval, 1), tr.Intent.Key)
		assert.Equal(t, "Finance", tr.Intent.Data["workspaceName"])
		assert.Equal(t, "2", tr.Intent.Data["totalLevels"])
		assert.Equal(t, "https://approvenow.app/workspaces/"+req.WorkspaceID.String()+"/requests/"+req.ID.String(), tr.Intent.Data["requestLink"])
	})

	t.Run("not_draft", func(t *testing.T) {
		req := twoLevelRequest(a, b)

		_, err := Submit(req, req.SubmittedBy, testEnv())
		assert.ErrorIs(t, err, ErrNotDraft)
	})

	t.Run("not_author", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		req.Status = model.RequestStatusDraft

		_, err := Submit(req, uuid.New(), testEnv())
		assert.ErrorIs(t, err, ErrNotSubmitter)
	})

	t.Run("no_steps", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		req.Status = model.RequestStatusDraft
		req.ApprovalSteps = nil

		_, err := Submit(req, req.SubmittedBy, testEnv())
		assert.ErrorIs(t, err, ErrNoApprovalSteps)
	})

	t.Run("empty_step", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		req.Status = model.RequestStatusDraft
		req.ApprovalSteps[1].Approvers = nil

		_, err := Submit(req, req.SubmittedBy, testEnv())
		assert.ErrorIs(t, err, ErrEmptyStep)
	})
}

func TestDecide(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	t.Run("approve_advances_level", func(t *testing.T) {
		req := twoLevelRequest(a, b)

		tr, err := Decide(req, Decision{Actor: a, Verdict: model.VerdictApprove}, testEnv())
		require.NoError(t, err)

		assert.Equal(t, model.RequestStatusPendingApproval, tr.After.Status)
		assert.Equal(t, 2, tr.After.CurrentLevel)
		assert.Nil(t, tr.After.CompletedAt)
		assert.Equal(t, 1, tr.Decision.Level)
		assert.Equal(t, a, tr.Decision.ApproverID)

		require.NotNil(t, tr.Intent)
		assert.Equal(t, model.NotificationApprovalRequest, tr.Intent.Kind)
		assert.Equal(t, []model.Recipient{{UserID: b}}, tr.Intent.To)
		assert.Equal(t, "2", tr.Intent.Data["level"])
	})

	t.Run("approve_last_level_completes", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		req.CurrentLevel = 2

		tr, err := Decide(req, Decision{Actor: b, Verdict: model.VerdictApprove}, testEnv())
		require.NoError(t, err)

		assert.Equal(t, model.RequestStatusApproved, tr.After.Status)
		assert.Equal(t, 3, tr.After.CurrentLevel)
		require.NotNil(t, tr.After.CompletedAt)

		require.NotNil(t, tr.Intent)
		assert.Equal(t, model.NotificationApprovalCompleted, tr.Intent.Kind)
		assert.Equal(t, []model.Recipient{{UserID: req.SubmittedBy}}, tr.Intent.To)
	})

	t.Run("reject_keeps_level", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		req.CurrentLevel = 2

		tr, err := Decide(req, Decision{Actor: b, Verdict: model.VerdictReject, Reason: "  over budget "}, testEnv())
		require.NoError(t, err)

		assert.Equal(t, model.RequestStatusRejected, tr.After.Status)
		assert.Equal(t, 2, tr.After.CurrentLevel)
		assert.Equal(t, "over budget", tr.After.RejectionReason)
		require.NotNil(t, tr.Intent)
		assert.Equal(t, model.NotificationRequestRejected, tr.Intent.Kind)
		assert.Equal(t, "over budget", tr.Intent.Data["reason"])
	})

	t.Run("wrong_approver", func(t *testing.T) {
		req := twoLevelRequest(a, b)

		_, err := Decide(req, Decision{Actor: b, Verdict: model.VerdictApprove}, testEnv())
		assert.ErrorIs(t, err, ErrNotApprover)
		assert.True(t, apperrors.IsPermission(err))
	})

	t.Run("closed_request", func(t *testing.T) {
		for _, status := range []model.RequestStatus{model.RequestStatusApproved, model.RequestStatusRejected} {
			req := twoLevelRequest(a, b)
			req.Status = status

			_, err := Decide(req, Decision{Actor: a, Verdict: model.VerdictApprove}, testEnv())
			assert.ErrorIs(t, err, ErrRequestClosed, status)
		}
	})

	t.Run("draft_request", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		req.Status = model.RequestStatusDraft

		_, err := Decide(req, Decision{Actor: a, Verdict: model.VerdictApprove}, testEnv())
		assert.ErrorIs(t, err, ErrRequestNotSubmitted)
	})

	t.Run("invalid_verdict", func(t *testing.T) {
		req := twoLevelRequest(a, b)

		_, err := Decide(req, Decision{Actor: a, Verdict: "maybe"}, testEnv())
		assert.ErrorIs(t, err, ErrInvalidVerdict)
	})

	t.Run("inconsistent_level", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		req.CurrentLevel = 5

		_, err := Decide(req, Decision{Actor: a, Verdict: model.VerdictApprove}, testEnv())
		assert.Equal(t, apperrors.KindConfiguration, apperrors.Kind(err))
	})
}

func TestIntentForUpdate(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	t.Run("no_change", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		after := req.Clone()
		after.Title = "renamed"

		intent, err := IntentForUpdate(req, after, testEnv())
		require.NoError(t, err)
		assert.Nil(t, intent)
	})

	t.Run("back_to_draft", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		after := req.Clone()
		after.Status = model.RequestStatusDraft

		intent, err := IntentForUpdate(req, after, testEnv())
		require.NoError(t, err)
		assert.Nil(t, intent)
	})

	t.Run("same_transition_same_key", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		after := req.Clone()
		after.CurrentLevel = 2

		first, err := IntentForUpdate(req, after, testEnv())
		require.NoError(t, err)
		second, err := IntentForUpdate(nil, after, testEnv())
		require.NoError(t, err)

		assert.Equal(t, first.Key, second.Key)
	})
}

func TestValidateSteps(t *testing.T) {
	a := uuid.New()
	steps := []model.ApprovalStep{{Level: 1, Approvers: []uuid.UUID{a}}, {Level: 2, Approvers: []uuid.UUID{a}}}

	assert.NoError(t, ValidateSteps(steps, 10, 50))
	assert.ErrorIs(t, ValidateSteps(steps, 1, 50), ErrTooManySteps)
	assert.ErrorIs(t, ValidateSteps(nil, 10, 50), ErrNoApprovalSteps)
}
