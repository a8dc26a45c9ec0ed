// Package memory provides in-process implementations of the persistence and
// ledger ports. It backs single-node development setups and the concurrency
// tests, and honours the same conditional-write contract as the postgres
// adapters.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/outbound"
)

type memberKey struct {
	workspaceID uuid.UUID
	userID      uuid.UUID
}

type decisionKey struct {
	requestID uuid.UUID
	level     int
}

type txKey struct{}

// tables holds every row. Rows are never mutated in place; writers replace
// the pointer, so a shallow copy of the maps is a consistent snapshot.
type tables struct {
	users       map[uuid.UUID]*model.User
	workspaces  map[uuid.UUID]*model.Workspace
	members     map[memberKey]*model.Member
	requests    map[uuid.UUID]*model.Request
	decisions   map[decisionKey]*model.RequestDecision
	invitations map[uuid.UUID]*model.Invitation
}

func newTables() tables {
	return tables{
		users:       make(map[uuid.UUID]*model.User),
		workspaces:  make(map[uuid.UUID]*model.Workspace),
		members:     make(map[memberKey]*model.Member),
		requests:    make(map[uuid.UUID]*model.Request),
		decisions:   make(map[decisionKey]*model.RequestDecision),
		invitations: make(map[uuid.UUID]*model.Invitation),
	}
}

func (t tables) snapshot() tables {
	return tables{
		users:       copyMap(t.users),
		workspaces:  copyMap(t.workspaces),
		members:     copyMap(t.members),
		requests:    copyMap(t.requests),
		decisions:   copyMap(t.decisions),
		invitations: copyMap(t.invitations),
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store is an in-memory relational store.
// A transaction holds the store lock until it ends and is rolled back by
// restoring the snapshot taken when it began.
type Store struct {
	mu sync.Mutex
	t  tables
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{t: newTables()}
}

// lock acquires the store unless ctx already runs inside one of its transactions.
func (s *Store) lock(ctx context.Context) func() {
	if owner, _ := ctx.Value(txKey{}).(*Store); owner == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// RunInTransaction implements outbound.TransactionPort.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if owner, _ := ctx.Value(txKey{}).(*Store); owner == s {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.t.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.t = saved
		return err
	}
	return nil
}

// Workspaces returns the workspace port view of the store.
func (s *Store) Workspaces() outbound.WorkspaceDatabasePort { return (*workspaceRepo)(s) }

// Members returns the member port view of the store.
func (s *Store) Members() outbound.MemberDatabasePort { return (*memberRepo)(s) }

// Users returns the user directory view of the store.
func (s *Store) Users() outbound.UserDirectoryPort { return (*userRepo)(s) }

// Requests returns the request port view of the store.
func (s *Store) Requests() outbound.RequestDatabasePort { return (*requestRepo)(s) }

// Invitations returns the invitation port view of the store.
func (s *Store) Invitations() outbound.InvitationDatabasePort { return (*invitationRepo)(s) }

var _ outbound.TransactionPort = (*Store)(nil)

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 20
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
