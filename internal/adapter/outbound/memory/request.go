package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/outbound"
)

type requestRepo Store

func (r *requestRepo) Create(ctx context.Context, req *model.Request) error {
	s := (*Store)(r)
	defer s.lock(ctx)()

	if _, ok := s.t.requests[req.ID]; ok {
		return outbound.ErrConflict
	}
	cp := req.Clone()
	cp.Decisions = nil
	s.t.requests[req.ID] = cp
	return nil
}

func (r *requestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	req, ok := s.t.requests[id]
	if !ok {
		return nil, outbound.ErrRecordNotFound
	}
	return req.Clone(), nil
}

func (r *requestRepo) FindByWorkspace(ctx context.Context, workspaceID uuid.UUID, status *model.RequestStatus, limit, offset int) ([]*model.Request, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	var list []*model.Request
	for _, req := range s.t.requests {
		if req.WorkspaceID != workspaceID {
			continue
		}
		if status != nil && req.Status != *status {
			continue
		}
		list = append(list, req.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return page(list, limit, offset), nil
}

func (r *requestRepo) CompareAndSwap(ctx context.Context, expectedStatus model.RequestStatus, expectedLevel int, next *model.Request) error {
	s := (*Store)(r)
	defer s.lock(ctx)()

	cur, ok := s.t.requests[next.ID]
	if !ok || cur.Status != expectedStatus || cur.CurrentLevel != expectedLevel {
		return outbound.ErrConflict
	}

	cp := cur.Clone()
	cp.Status = next.Status
	cp.CurrentLevel = next.CurrentLevel
	cp.SubmittedAt = next.SubmittedAt
	cp.CompletedAt = next.CompletedAt
	cp.RejectionReason = next.RejectionReason
	cp.UpdatedAt = next.UpdatedAt
	s.t.requests[next.ID] = cp
	return nil
}

func (r *requestRepo) RecordDecision(ctx context.Context, decision *model.RequestDecision) error {
	s := (*Store)(r)
	defer s.lock(ctx)()

	key := decisionKey{decision.RequestID, decision.Level}
	if _, ok := s.t.decisions[key]; ok {
		return outbound.ErrConflict
	}
	cp := *decision
	s.t.decisions[key] = &cp
	return nil
}

func (r *requestRepo) FindDecision(ctx context.Context, requestID uuid.UUID, level int) (*model.RequestDecision, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	dec, ok := s.t.decisions[decisionKey{requestID, level}]
	if !ok {
		return nil, outbound.ErrRecordNotFound
	}
	cp := *dec
	return &cp, nil
}

func (r *requestRepo) FindDecisions(ctx context.Context, requestID uuid.UUID) ([]*model.RequestDecision, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	var list []*model.RequestDecision
	for key, dec := range s.t.decisions {
		if key.requestID == requestID {
			cp := *dec
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Level < list[j].Level })
	return list, nil
}

func (r *requestRepo) RecordNotification(ctx context.Context, id uuid.UUID, at time.Time, errMsg string) error {
	s := (*Store)(r)
	defer s.lock(ctx)()

	cur, ok := s.t.requests[id]
	if !ok {
		return outbound.ErrRecordNotFound
	}
	cp := cur.Clone()
	cp.NotifiedAt = &at
	cp.NotificationError = errMsg
	s.t.requests[id] = cp
	return nil
}

func (r *requestRepo) FindUnnotified(ctx context.Context, limit int) ([]*model.Request, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	var list []*model.Request
	for _, req := range s.t.requests {
		if req.Status == model.RequestStatusDraft {
			continue
		}
		if req.NotifiedAt != nil && !req.NotifiedAt.Before(req.UpdatedAt) {
			continue
		}
		list = append(list, req.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.Before(list[j].UpdatedAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

var _ outbound.RequestDatabasePort = (*requestRepo)(nil)
