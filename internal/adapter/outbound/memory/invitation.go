package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/outbound"
)

type invitationRepo Store

func (r *invitationRepo) Create(ctx context.Context, inv *model.Invitation) error {
	s := (*Store)(r)
	defer s.lock(ctx)()

	for _, other := range s.t.invitations {
		if other.ID == inv.ID || other.Token == inv.Token {
			return outbound.ErrConflict
		}
		if inv.Status == model.InvitationStatusPending && other.IsPending() &&
			other.WorkspaceID == inv.WorkspaceID && other.Email == inv.Email {
			return outbound.ErrConflict
		}
	}
	cp := *inv
	s.t.invitations[inv.ID] = &cp
	return nil
}

func (r *invitationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invitation, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	inv, ok := s.t.invitations[id]
	if !ok {
		return nil, outbound.ErrRecordNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *invitationRepo) FindByToken(ctx context.Context, token string) (*model.Invitation, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	for _, inv := range s.t.invitations {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, outbound.ErrRecordNotFound
}

func (r *invitationRepo) FindPendingByEmail(ctx context.Context, workspaceID uuid.UUID, email string) (*model.Invitation, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	for _, inv := range s.t.invitations {
		if inv.WorkspaceID == workspaceID && inv.Email == email && inv.IsPending() {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *invitationRepo) FindByWorkspace(ctx context.Context, workspaceID uuid.UUID, status *model.InvitationStatus, limit, offset int) ([]*model.Invitation, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	var list []*model.Invitation
	for _, inv := range s.t.invitations {
		if inv.WorkspaceID != workspaceID {
			continue
		}
		if status != nil && inv.Status != *status {
			continue
		}
		cp := *inv
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return page(list, limit, offset), nil
}

func (r *invitationRepo) Transition(ctx context.Context, id uuid.UUID, status model.InvitationStatus, redeemedBy *uuid.UUID, at time.Time) error {
	return r.updatePending(ctx, id, func(inv *model.Invitation) {
		inv.Status = status
		inv.UpdatedAt = at
		if status == model.InvitationStatusExpired {
			inv.ExpiredAt = &at
			return
		}
		inv.RedeemedAt = &at
		inv.RedeemedBy = redeemedBy
	})
}

func (r *invitationRepo) MarkResent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.updatePending(ctx, id, func(inv *model.Invitation) {
		inv.ResentAt = &at
		inv.UpdatedAt = at
	})
}

func (r *invitationRepo) RecordDelivery(ctx context.Context, id uuid.UUID, sent bool, at time.Time, errMsg string) error {
	s := (*Store)(r)
	defer s.lock(ctx)()

	cur, ok := s.t.invitations[id]
	if !ok {
		return outbound.ErrRecordNotFound
	}
	cp := *cur
	cp.EmailSent = &sent
	cp.EmailError = errMsg
	if sent {
		cp.EmailSentAt = &at
	}
	s.t.invitations[id] = &cp
	return nil
}

func (r *invitationRepo) ExpirePending(ctx context.Context, cutoff, at time.Time) (int64, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	var n int64
	for id, inv := range s.t.invitations {
		if !inv.IsPending() || inv.CreatedAt.After(cutoff) {
			continue
		}
		cp := *inv
		cp.Status = model.InvitationStatusExpired
		cp.ExpiredAt = &at
		cp.UpdatedAt = at
		s.t.invitations[id] = &cp
		n++
	}
	return n, nil
}

func (r *invitationRepo) FindUndelivered(ctx context.Context, limit int) ([]*model.Invitation, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	var list []*model.Invitation
	for _, inv := range s.t.invitations {
		if inv.IsPending() && !inv.Delivered() {
			cp := *inv
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *invitationRepo) updatePending(ctx context.Context, id uuid.UUID, apply func(*model.Invitation)) error {
	s := (*Store)(r)
	defer s.lock(ctx)()

	cur, ok := s.t.invitations[id]
	if !ok {
		return outbound.ErrRecordNotFound
	}
	if !cur.IsPending() {
		return outbound.ErrConflict
	}
	cp := *cur
	apply(&cp)
	s.t.invitations[id] = &cp
	return nil
}

var _ outbound.InvitationDatabasePort = (*invitationRepo)(nil)
