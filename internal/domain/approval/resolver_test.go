package approval

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/approvenow/server/internal/model"
	apperrors "github.com/approvenow/server/internal/utils/errors"
)

func twoLevelRequest(a, b uuid.UUID) *model.Request {
	return &model.Request{
		ID:           uuid.New(),
		WorkspaceID:  uuid.New(),
		Title:        "Q3 budget",
		Status:       model.RequestStatusPendingApproval,
		CurrentLevel: 1,
		ApprovalSteps: []model.ApprovalStep{
			{Level: 1, Approvers: []uuid.UUID{a}},
			{Level: 2, Approvers: []uuid.UUID{b}},
		},
		SubmittedBy: uuid.New(),
	}
}

func TestResolveApprovers(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	t.Run("current_level", func(t *testing.T) {
		req := twoLevelRequest(a, b)

		got, err := ResolveApprovers(req)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a}, got)

		req.CurrentLevel = 2
		got, err = ResolveApprovers(req)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{b}, got)
	})

	t.Run("deduplicates", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		req.ApprovalSteps[0].Approvers = []uuid.UUID{a, b, a, uuid.Nil}

		got, err := ResolveApprovers(req)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a, b}, got)
	})

	t.Run("all_levels_satisfied", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		req.Status = model.RequestStatusApproved
		req.CurrentLevel = 3

		got, err := ResolveApprovers(req)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("pending_past_last_level", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		req.CurrentLevel = 3

		_, err := ResolveApprovers(req)
		assert.Equal(t, apperrors.KindConfiguration, apperrors.Kind(err))
	})

	t.Run("level_far_out_of_range", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		req.Status = model.RequestStatusApproved
		req.CurrentLevel = 7

		_, err := ResolveApprovers(req)
		assert.Equal(t, apperrors.KindConfiguration, apperrors.Kind(err))
	})

	t.Run("level_zero", func(t *testing.T) {
		req := twoLevelRequest(a, b)
		req.CurrentLevel = 0

		_, err := ResolveApprovers(req)
		assert.Equal(t, apperrors.KindConfiguration, apperrors.Kind(err))
	})
}

func TestIsApprover(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	req := twoLevelRequest(a, b)

	ok, err := IsApprover(req, a)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsApprover(req, b)
	require.NoError(t, err)
	assert.False(t, ok)
}
