package approval

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/approvenow/server/internal/model"
	apperrors "github.com/approvenow/server/internal/utils/errors"
)

// ResolveApprovers returns the users entitled to act on req at its current level.
//
// An empty result means every configured level has been satisfied, which is
// only valid when currentLevel is exactly one past the last step and the
// request is no longer pending. Any other out-of-range level is a
// configuration error.
func ResolveApprovers(req *model.Request) ([]uuid.UUID, error) {
	n := len(req.ApprovalSteps)
	level := req.CurrentLevel

	if level >= 1 && level <= n {
		return uniqueApprovers(req.ApprovalSteps[level-1].Approvers), nil
	}
	if req.Status == model.RequestStatusPendingApproval {
		return nil, apperrors.Configuration(fmt.Sprintf(
			"request %s is pending at level %d but has %d approval steps", req.ID, level, n))
	}
	if level == n+1 {
		return []uuid.UUID{}, nil
	}
	return nil, apperrors.Configuration(fmt.Sprintf(
		"request %s is at level %d but has %d approval steps", req.ID, level, n))
}

// IsApprover reports whether userID may act on req now.
func IsApprover(req *model.Request, userID uuid.UUID) (bool, error) {
	approvers, err := ResolveApprovers(req)
	if err != nil {
		return false, err
	}
	for _, id := range approvers {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func uniqueApprovers(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
