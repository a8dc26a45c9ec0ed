package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/outbound"
)

type workspaceRepo Store

func (r *workspaceRepo) Create(ctx context.Context, ws *model.Workspace) error {
	s := (*Store)(r)
	defer s.lock(ctx)()

	if _, ok := s.t.workspaces[ws.ID]; ok {
		return outbound.ErrConflict
	}
	cp := *ws
	cp.Members = nil
	s.t.workspaces[ws.ID] = &cp
	return nil
}

func (r *workspaceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Workspace, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	ws, ok := s.t.workspaces[id]
	if !ok {
		return nil, outbound.ErrRecordNotFound
	}
	cp := *ws
	return &cp, nil
}

func (r *workspaceRepo) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*model.Workspace, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	var list []*model.Workspace
	for key := range s.t.members {
		if key.userID != userID {
			continue
		}
		if ws, ok := s.t.workspaces[key.workspaceID]; ok {
			cp := *ws
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return page(list, limit, offset), nil
}

type memberRepo Store

func (r *memberRepo) Upsert(ctx context.Context, member *model.Member) error {
	s := (*Store)(r)
	defer s.lock(ctx)()

	key := memberKey{member.WorkspaceID, member.UserID}
	cp := *member
	if existing, ok := s.t.members[key]; ok {
		cp.JoinedAt = existing.JoinedAt
	}
	s.t.members[key] = &cp
	return nil
}

func (r *memberRepo) Find(ctx context.Context, workspaceID, userID uuid.UUID) (*model.Member, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	m, ok := s.t.members[memberKey{workspaceID, userID}]
	if !ok {
		return nil, outbound.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memberRepo) FindByWorkspaceWithUsers(ctx context.Context, workspaceID uuid.UUID) ([]*model.MemberWithUser, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	var list []*model.MemberWithUser
	for key, m := range s.t.members {
		if key.workspaceID != workspaceID {
			continue
		}
		row := &model.MemberWithUser{Member: *m}
		if u, ok := s.t.users[key.userID]; ok {
			row.Email = u.Email
			row.DisplayName = u.DisplayName
		}
		list = append(list, row)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].JoinedAt.Before(list[j].JoinedAt) })
	return list, nil
}

func (r *memberRepo) UpdateRole(ctx context.Context, workspaceID, userID uuid.UUID, role model.Role) error {
	s := (*Store)(r)
	defer s.lock(ctx)()

	key := memberKey{workspaceID, userID}
	m, ok := s.t.members[key]
	if !ok {
		return outbound.ErrRecordNotFound
	}
	cp := *m
	cp.Role = role
	cp.UpdatedAt = time.Now()
	s.t.members[key] = &cp
	return nil
}

func (r *memberRepo) Remove(ctx context.Context, workspaceID, userID uuid.UUID) error {
	s := (*Store)(r)
	defer s.lock(ctx)()

	key := memberKey{workspaceID, userID}
	if _, ok := s.t.members[key]; !ok {
		return outbound.ErrRecordNotFound
	}
	delete(s.t.members, key)
	return nil
}

// LockOwners relies on the transaction holding the store lock.
func (r *memberRepo) LockOwners(ctx context.Context, workspaceID uuid.UUID) ([]uuid.UUID, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	var owners []uuid.UUID
	for key, m := range s.t.members {
		if key.workspaceID == workspaceID && m.Role == model.RoleOwner {
			owners = append(owners, key.userID)
		}
	}
	return owners, nil
}

type userRepo Store

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	u, ok := s.t.users[id]
	if !ok {
		return nil, outbound.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error) {
	s := (*Store)(r)
	defer s.lock(ctx)()

	var list []*model.User
	for _, id := range ids {
		if u, ok := s.t.users[id]; ok {
			cp := *u
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (r *userRepo) Upsert(ctx context.Context, user *model.User) error {
	s := (*Store)(r)
	defer s.lock(ctx)()

	email := strings.ToLower(user.Email)
	for id, u := range s.t.users {
		if id != user.ID && email != "" && strings.ToLower(u.Email) == email {
			return outbound.ErrConflict
		}
	}

	cp := *user
	if existing, ok := s.t.users[user.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
		if cp.DisplayName == "" {
			cp.DisplayName = existing.DisplayName
		}
	}
	s.t.users[user.ID] = &cp
	return nil
}

var (
	_ outbound.WorkspaceDatabasePort = (*workspaceRepo)(nil)
	_ outbound.MemberDatabasePort    = (*memberRepo)(nil)
	_ outbound.UserDirectoryPort     = (*userRepo)(nil)
)
