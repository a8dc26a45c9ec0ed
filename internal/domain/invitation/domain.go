package invitation

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/approvenow/server/internal/domain/access"
	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/inbound"
	"github.com/approvenow/server/internal/port/outbound"
	apperrors "github.com/approvenow/server/internal/utils/errors"
	"github.com/approvenow/server/internal/utils/random"
	"github.com/approvenow/server/internal/utils/requestctx"
)

// Domain implements the invitation lifecycle.
type Domain struct {
	invitations outbound.InvitationDatabasePort
	workspaces  outbound.WorkspaceDatabasePort
	members     outbound.MemberDatabasePort
	users       outbound.UserDirectoryPort
	guard       *access.Guard
	txPort      outbound.TransactionPort
	notifier    outbound.NotificationDispatcherPort
	metrics     outbound.MetricsPort
	cfg         *Config
	now         func() time.Time
	logger      *zap.Logger
}

// NewDomain creates a new invitation domain.
func NewDomain(
	invitations outbound.InvitationDatabasePort,
	workspaces outbound.WorkspaceDatabasePort,
	members outbound.MemberDatabasePort,
	users outbound.UserDirectoryPort,
	guard *access.Guard,
	txPort outbound.TransactionPort,
	notifier outbound.NotificationDispatcherPort,
	metrics outbound.MetricsPort,
	cfg *Config,
	logger *zap.Logger,
) *Domain {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	_ = cfg.Validate()
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Domain{
		invitations: invitations,
		workspaces:  workspaces,
		members:     members,
		users:       users,
		guard:       guard,
		txPort:      txPort,
		notifier:    notifier,
		metrics:     metrics,
		cfg:         cfg,
		now:         time.Now,
		logger:      logger,
	}
}

// SetClock replaces the time source. Used by tests.
func (d *Domain) SetClock(now func() time.Time) {
	d.now = now
}

var _ inbound.InvitationDomain = (*Domain)(nil)

// clock returns the current time at the precision the store keeps, so that
// delivery keys derived from stored timestamps match the ones derived here.
func (d *Domain) clock() time.Time {
	return d.now().UTC().Truncate(time.Microsecond)
}

// ========== Commands ==========

// Create invites email to the workspace with role and delivers the invitation.
func (d *Domain) Create(ctx context.Context, actorID, workspaceID uuid.UUID, in *inbound.CreateInvitationInput) (*model.Invitation, error) {
	if in == nil {
		return nil, ErrInvalidEmail
	}
	email := NormalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, ErrInvalidEmail
	}
	if !in.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	storeCtx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	actor, err := d.guard.Require(storeCtx, workspaceID, actorID, access.CapManageMembers)
	if err != nil {
		return nil, err
	}
	if !access.CanAssign(actor.Role, in.Role) {
		return nil, ErrRoleNotAssignable
	}

	now := d.clock()
	existing, err := d.invitations.FindPendingByEmail(storeCtx, workspaceID, email)
	if err != nil {
		return nil, storeErr("find pending invitation", err)
	}
	if existing != nil {
		if !IsStale(existing, now, d.cfg.Expiry) {
			return nil, ErrPendingInvitationExists
		}
		d.expireLazily(storeCtx, existing, now)
	}

	token, err := random.SecureToken(d.cfg.TokenLength)
	if err != nil {
		return nil, apperrors.Internal("", fmt.Errorf("generate token: %w", err))
	}

	inv := &model.Invitation{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Email:       email,
		Role:        in.Role,
		Token:       token,
		Status:      model.InvitationStatusPending,
		InvitedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := d.invitations.Create(storeCtx, inv); err != nil {
		if errors.Is(err, outbound.ErrConflict) {
			return nil, ErrPendingInvitationExists
		}
		return nil, storeErr("create invitation", err)
	}

	d.metrics.RecordInvitationEvent("created")
	d.logger.Info("invitation created",
		append(requestctx.Fields(ctx),
			zap.String("invitation_id", inv.ID.String()),
			zap.String("workspace_id", workspaceID.String()),
			zap.String("role", string(inv.Role)),
		)...,
	)

	_ = d.Deliver(ctx, inv)
	return inv, nil
}

// Resend re-delivers a pending invitation with its original token.
func (d *Domain) Resend(ctx context.Context, actorID, workspaceID, invitationID uuid.UUID) (*model.Invitation, error) {
	storeCtx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	if _, err := d.guard.Require(storeCtx, workspaceID, actorID, access.CapManageMembers); err != nil {
		return nil, err
	}

	inv, err := d.invitations.FindByID(storeCtx, invitationID)
	if err != nil {
		if errors.Is(err, outbound.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, storeErr("find invitation", err)
	}
	if inv.WorkspaceID != workspaceID {
		return nil, ErrInvitationNotFound
	}
	if !inv.IsPending() {
		return nil, ErrInvitationNotPending
	}

	now := d.clock()
	if err := d.invitations.MarkResent(storeCtx, inv.ID, now); err != nil {
		if errors.Is(err, outbound.ErrConflict) {
			return nil, ErrInvitationNotPending
		}
		if errors.Is(err, outbound.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, storeErr("mark resent", err)
	}
	inv.ResentAt = &now
	inv.UpdatedAt = now

	d.metrics.RecordInvitationEvent("resent")
	d.logger.Info("invitation resent",
		append(requestctx.Fields(ctx),
			zap.String("invitation_id", inv.ID.String()),
			zap.String("workspace_id", workspaceID.String()),
		)...,
	)

	_ = d.Deliver(ctx, inv)
	return inv, nil
}

// Deliver hands the invitation notification to the dispatcher and records the
// outcome on the invitation. The returned error is informational; the
// invitation itself is unaffected by delivery failures.
func (d *Domain) Deliver(ctx context.Context, inv *model.Invitation) error {
	if !inv.IsPending() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.NotifyTimeout)
	defer cancel()

	workspaceName := ""
	if ws, err := d.workspaces.FindByID(ctx, inv.WorkspaceID); err == nil {
		workspaceName = ws.Name
	} else {
		d.logger.Warn("workspace lookup failed", zap.String("workspace_id", inv.WorkspaceID.String()), zap.Error(err))
	}

	var inviter *model.User
	if u, err := d.users.FindByID(ctx, inv.InvitedBy); err == nil {
		inviter = u
	}

	intent := BuildIntent(inv, workspaceName, inviter.Label(), d.cfg)
	err := d.notifier.Dispatch(ctx, intent)
	if errors.Is(err, outbound.ErrDuplicateIntent) {
		// The attempt holding the claim records the outcome.
		return nil
	}

	at := d.clock()
	sent := err == nil
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
		d.logger.Warn("invitation delivery failed",
			zap.String("invitation_id", inv.ID.String()),
			zap.Error(err),
		)
	}

	inv.EmailSent = &sent
	inv.EmailError = errMsg
	if sent {
		inv.EmailSentAt = &at
	}

	if recErr := d.invitations.RecordDelivery(ctx, inv.ID, sent, at, errMsg); recErr != nil {
		d.logger.Warn("failed to record delivery outcome",
			zap.String("invitation_id", inv.ID.String()),
			zap.Error(recErr),
		)
	}
	return err
}

// Redeem accepts or rejects an invitation by token.
//
// Only one redemption of a token can succeed: the status change is
// conditional on the invitation still being pending, and a caller that loses
// the race is told why from the re-read invitation.
func (d *Domain) Redeem(ctx context.Context, caller requestctx.Caller, in *inbound.RedeemInvitationInput) (*inbound.RedeemOutput, error) {
	if in == nil || strings.TrimSpace(in.Token) == "" {
		return nil, ErrTokenRequired
	}
	if !in.Action.IsValid() {
		return nil, ErrInvalidAction
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	inv, err := d.invitations.FindByToken(ctx, strings.TrimSpace(in.Token))
	if err != nil {
		if errors.Is(err, outbound.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, storeErr("find invitation", err)
	}

	now := d.clock()
	if err := CheckRedeemable(inv, now, d.cfg.Expiry); err != nil {
		if errors.Is(err, ErrInvitationExpired) && inv.IsPending() {
			d.expireLazily(ctx, inv, now)
		}
		return nil, err
	}

	var redeemedBy *uuid.UUID
	if caller.UserID != uuid.Nil {
		id := caller.UserID
		redeemedBy = &id
	}

	if in.Action == model.RedeemReject {
		if err := d.invitations.Transition(ctx, inv.ID, model.InvitationStatusRejected, redeemedBy, now); err != nil {
			return nil, d.lostRedeem(ctx, inv.ID, now, err)
		}
		applyRedeem(inv, model.InvitationStatusRejected, redeemedBy, now)

		d.metrics.RecordInvitationEvent("rejected")
		d.logger.Info("invitation rejected",
			append(requestctx.Fields(ctx), zap.String("invitation_id", inv.ID.String()))...,
		)
		return &inbound.RedeemOutput{Invitation: inv}, nil
	}

	if redeemedBy == nil {
		return nil, ErrSignInRequired
	}
	if NormalizeEmail(caller.Email) != inv.Email {
		return nil, ErrNotForCaller
	}

	var member *model.Member
	err = d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := d.invitations.Transition(txCtx, inv.ID, model.InvitationStatusAccepted, redeemedBy, now); err != nil {
			return err
		}

		if err := d.users.Upsert(txCtx, &model.User{
			ID:          caller.UserID,
			Email:       NormalizeEmail(caller.Email),
			DisplayName: caller.DisplayName,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return err
		}

		role := inv.Role
		existing, err := d.members.Find(txCtx, inv.WorkspaceID, caller.UserID)
		switch {
		case err == nil && existing.Role.Rank() >= role.Rank():
			member = existing
			return nil
		case err != nil && !errors.Is(err, outbound.ErrRecordNotFound):
			return err
		}

		member = &model.Member{
			WorkspaceID: inv.WorkspaceID,
			UserID:      caller.UserID,
			Role:        role,
			JoinedAt:    now,
			UpdatedAt:   now,
		}
		if existing != nil {
			member.JoinedAt = existing.JoinedAt
		}
		return d.members.Upsert(txCtx, member)
	})
	if err != nil {
		return nil, d.lostRedeem(ctx, inv.ID, now, err)
	}
	applyRedeem(inv, model.InvitationStatusAccepted, redeemedBy, now)

	d.metrics.RecordInvitationEvent("accepted")
	d.logger.Info("invitation accepted",
		append(requestctx.Fields(ctx),
			zap.String("invitation_id", inv.ID.String()),
			zap.String("workspace_id", inv.WorkspaceID.String()),
			zap.String("role", string(member.Role)),
		)...,
	)
	return &inbound.RedeemOutput{Invitation: inv, Member: member}, nil
}

// ========== Queries ==========

// Preview returns what the invite landing page shows for token.
func (d *Domain) Preview(ctx context.Context, token string) (*inbound.InvitationPreview, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrTokenRequired
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	inv, err := d.invitations.FindByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, outbound.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, storeErr("find invitation", err)
	}

	ws, err := d.workspaces.FindByID(ctx, inv.WorkspaceID)
	if err != nil {
		return nil, storeErr("find workspace", err)
	}

	var inviter *model.User
	if u, err := d.users.FindByID(ctx, inv.InvitedBy); err == nil {
		inviter = u
	}

	status := inv.Status
	if inv.IsPending() && IsStale(inv, d.clock(), d.cfg.Expiry) {
		status = model.InvitationStatusExpired
	}

	return &inbound.InvitationPreview{
		InvitationID:  inv.ID,
		WorkspaceID:   inv.WorkspaceID,
		WorkspaceName: ws.Name,
		Email:         inv.Email,
		Role:          inv.Role,
		Permissions:   access.Describe(inv.Role),
		InviterName:   inviter.Label(),
		Status:        status,
		ExpiresAt:     inv.CreatedAt.Add(d.cfg.Expiry),
	}, nil
}

// List lists the invitations of a workspace.
func (d *Domain) List(ctx context.Context, actorID, workspaceID uuid.UUID, status *model.InvitationStatus, page model.PaginationRequest) ([]*model.Invitation, error) {
	if status != nil {
		switch *status {
		case model.InvitationStatusPending, model.InvitationStatusAccepted,
			model.InvitationStatusRejected, model.InvitationStatusExpired:
		default:
			return nil, ErrInvalidStatusFilter
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	if _, err := d.guard.Require(ctx, workspaceID, actorID, access.CapManageMembers); err != nil {
		return nil, err
	}

	page.Normalize()
	invs, err := d.invitations.FindByWorkspace(ctx, workspaceID, status, page.Limit, page.Offset)
	if err != nil {
		return nil, storeErr("list invitations", err)
	}
	return invs, nil
}

// ========== Triggers ==========

// HandleInvitationCreated delivers a newly stored invitation unless a delivery
// was already recorded for it.
func (d *Domain) HandleInvitationCreated(ctx context.Context, snapshot *model.Invitation) error {
	if snapshot == nil {
		return nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	inv, err := d.invitations.FindByID(storeCtx, snapshot.ID)
	cancel()
	if err != nil {
		if errors.Is(err, outbound.ErrRecordNotFound) {
			d.logger.Warn("created invitation not found", zap.String("invitation_id", snapshot.ID.String()))
			return nil
		}
		return storeErr("find invitation", err)
	}

	if inv.Delivered() || !inv.IsPending() {
		return nil
	}
	return d.Deliver(ctx, inv)
}

// ========== Helpers ==========

// lostRedeem explains a failed conditional redemption from the current state.
func (d *Domain) lostRedeem(ctx context.Context, id uuid.UUID, now time.Time, cause error) error {
	if !errors.Is(cause, outbound.ErrConflict) {
		return storeErr("redeem invitation", cause)
	}

	d.metrics.RecordStaleConflict("redeem")
	current, err := d.invitations.FindByID(ctx, id)
	if err != nil {
		return ErrInvitationAlreadyRedeemed
	}
	if err := CheckRedeemable(current, now, d.cfg.Expiry); err != nil {
		return err
	}
	return ErrInvitationAlreadyRedeemed
}

// expireLazily marks a stale pending invitation expired. Losing to a
// concurrent redemption or sweep is fine.
func (d *Domain) expireLazily(ctx context.Context, inv *model.Invitation, now time.Time) {
	err := d.invitations.Transition(ctx, inv.ID, model.InvitationStatusExpired, nil, now)
	if err != nil && !errors.Is(err, outbound.ErrConflict) {
		d.logger.Warn("failed to expire invitation",
			zap.String("invitation_id", inv.ID.String()),
			zap.Error(err),
		)
		return
	}
	if err == nil {
		d.metrics.RecordInvitationEvent("expired")
	}
}

func applyRedeem(inv *model.Invitation, status model.InvitationStatus, by *uuid.UUID, at time.Time) {
	inv.Status = status
	inv.RedeemedBy = by
	inv.RedeemedAt = &at
	inv.UpdatedAt = at
}

func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(op + " timed out")
	}
	return fmt.Errorf("%s: %w", op, err)
}
