package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/outbound"
	apperrors "github.com/approvenow/server/internal/utils/errors"
)

// ErrNotMember is returned when the caller does not belong to the workspace.
var ErrNotMember = apperrors.PermissionDenied("not a member of this workspace")

// Guard checks a caller's capabilities against their stored membership.
type Guard struct {
	members  outbound.MemberDatabasePort
	registry *Registry
}

// NewGuard creates a guard.
func NewGuard(members outbound.MemberDatabasePort, registry *Registry) *Guard {
	if registry == nil {
		registry = NewRegistry(PolicyViewer)
	}
	return &Guard{members: members, registry: registry}
}

// Registry returns the registry used by the guard.
func (g *Guard) Registry() *Registry {
	return g.registry
}

// Membership loads the caller's membership and capabilities.
func (g *Guard) Membership(ctx context.Context, workspaceID, userID uuid.UUID) (*model.Member, CapabilitySet, error) {
	member, err := g.members.Find(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, outbound.ErrRecordNotFound) {
			return nil, emptySet, ErrNotMember
		}
		return nil, emptySet, fmt.Errorf("find member: %w", err)
	}
	return member, g.registry.Resolve(member.Role), nil
}

// Require returns the caller's membership if it grants c.
func (g *Guard) Require(ctx context.Context, workspaceID, userID uuid.UUID, c Capability) (*model.Member, error) {
	member, caps, err := g.Membership(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if !caps.Has(c) {
		return nil, apperrors.PermissionDenied(fmt.Sprintf("%s capability required", c))
	}
	return member, nil
}
