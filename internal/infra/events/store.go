package events

import (
	"context"
	"fmt"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/inbound"
)

// Store event types.
const (
	InvitationCreatedType = "invitation.created"
	RequestUpdatedType    = "request.updated"
)

// InvitationCreated announces a newly inserted invitation row.
type InvitationCreated struct {
	StoreEvent
	Invitation *model.Invitation `json:"invitation"`
}

// NewInvitationCreated creates an invitation.created event.
func NewInvitationCreated(inv *model.Invitation) *InvitationCreated {
	return &InvitationCreated{
		StoreEvent: newStoreEvent(InvitationCreatedType, inv.ID),
		Invitation: inv,
	}
}

// RequestUpdated carries the request as it was before and after a change.
type RequestUpdated struct {
	StoreEvent
	Before *model.Request `json:"before"`
	After  *model.Request `json:"after"`
}

// NewRequestUpdated creates a request.updated event.
func NewRequestUpdated(before, after *model.Request) *RequestUpdated {
	return &RequestUpdated{
		StoreEvent: newStoreEvent(RequestUpdatedType, after.ID),
		Before:     before,
		After:      after,
	}
}

// InvitationCreatedHandler hands invitation inserts to the invitation domain.
func InvitationCreatedHandler(domain inbound.InvitationDomain) Handler {
	return On(func(ctx context.Context, e Event) error {
		ev, ok := e.(*InvitationCreated)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		return domain.HandleInvitationCreated(ctx, ev.Invitation)
	}, InvitationCreatedType)
}

// RequestUpdatedHandler hands request changes to the approval domain.
func RequestUpdatedHandler(domain inbound.ApprovalDomain) Handler {
	return On(func(ctx context.Context, e Event) error {
		ev, ok := e.(*RequestUpdated)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		return domain.HandleRequestUpdated(ctx, ev.Before, ev.After)
	}, RequestUpdatedType)
}
