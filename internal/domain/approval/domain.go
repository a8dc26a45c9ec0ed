package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/approvenow/server/internal/domain/access"
	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/inbound"
	"github.com/approvenow/server/internal/port/outbound"
	apperrors "github.com/approvenow/server/internal/utils/errors"
	"github.com/approvenow/server/internal/utils/requestctx"
)

// Domain implements the approval request lifecycle.
type Domain struct {
	requests   outbound.RequestDatabasePort
	workspaces outbound.WorkspaceDatabasePort
	guard      *access.Guard
	txPort     outbound.TransactionPort
	notifier   outbound.NotificationDispatcherPort
	metrics    outbound.MetricsPort
	cfg        *Config
	now        func() time.Time
	logger     *zap.Logger
}

// NewDomain creates a new approval domain.
func NewDomain(
	requests outbound.RequestDatabasePort,
	workspaces outbound.WorkspaceDatabasePort,
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
		requests:   requests,
		workspaces: workspaces,
		guard:      guard,
		txPort:     txPort,
		notifier:   notifier,
		metrics:    metrics,
		cfg:        cfg,
		now:        time.Now,
		logger:     logger,
	}
}

// SetClock replaces the time source. Used by tests.
func (d *Domain) SetClock(now func() time.Time) {
	d.now = now
}

var _ inbound.ApprovalDomain = (*Domain)(nil)

// ========== Queries ==========

// GetRequest returns a request with its recorded decisions.
func (d *Domain) GetRequest(ctx context.Context, actorID, workspaceID, requestID uuid.UUID) (*model.Request, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	if _, err := d.guard.Require(ctx, workspaceID, actorID, access.CapViewRequests); err != nil {
		return nil, err
	}

	req, err := d.load(ctx, workspaceID, requestID)
	if err != nil {
		return nil, err
	}

	decisions, err := d.requests.FindDecisions(ctx, requestID)
	if err != nil {
		return nil, storeErr("find decisions", err)
	}
	req.Decisions = make([]model.RequestDecision, 0, len(decisions))
	for _, dec := range decisions {
		req.Decisions = append(req.Decisions, *dec)
	}
	return req, nil
}

// ListRequests lists the requests of a workspace.
func (d *Domain) ListRequests(ctx context.Context, actorID, workspaceID uuid.UUID, status *model.RequestStatus, page model.PaginationRequest) ([]*model.Request, error) {
	if status != nil && !status.IsValid() {
		return nil, ErrInvalidStatusFilter
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	if _, err := d.guard.Require(ctx, workspaceID, actorID, access.CapViewRequests); err != nil {
		return nil, err
	}

	page.Normalize()
	reqs, err := d.requests.FindByWorkspace(ctx, workspaceID, status, page.Limit, page.Offset)
	if err != nil {
		return nil, storeErr("list requests", err)
	}
	return reqs, nil
}

// Approvers returns who may act on the request at its current level.
func (d *Domain) Approvers(ctx context.Context, actorID, workspaceID, requestID uuid.UUID) (*inbound.ApproversOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	if _, err := d.guard.Require(ctx, workspaceID, actorID, access.CapViewRequests); err != nil {
		return nil, err
	}

	req, err := d.load(ctx, workspaceID, requestID)
	if err != nil {
		return nil, err
	}

	approvers, err := ResolveApprovers(req)
	if err != nil {
		d.logger.Error("approval configuration is inconsistent",
			zap.String("request_id", req.ID.String()),
			zap.Int("current_level", req.CurrentLevel),
			zap.Int("steps", len(req.ApprovalSteps)),
		)
		return nil, err
	}

	return &inbound.ApproversOutput{
		RequestID:    req.ID,
		Status:       req.Status,
		CurrentLevel: req.CurrentLevel,
		Approvers:    approvers,
	}, nil
}

// ========== Commands ==========

// CreateRequest creates a draft request authored by the actor.
func (d *Domain) CreateRequest(ctx context.Context, actorID, workspaceID uuid.UUID, in *inbound.CreateRequestInput) (*model.Request, error) {
	if in == nil || strings.TrimSpace(in.Title) == "" {
		return nil, ErrTitleRequired
	}

	steps := make([]model.ApprovalStep, 0, len(in.ApprovalSteps))
	for i, s := range in.ApprovalSteps {
		steps = append(steps, model.ApprovalStep{Level: i + 1, Approvers: uniqueApprovers(s.Approvers)})
	}
	if len(steps) > d.cfg.MaxSteps {
		return nil, ErrTooManySteps
	}
	for _, s := range steps {
		if len(s.Approvers) == 0 {
			return nil, ErrEmptyStep
		}
		if len(s.Approvers) > d.cfg.MaxApproversPerStep {
			return nil, ErrTooManyApprovers
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	if _, err := d.guard.Require(ctx, workspaceID, actorID, access.CapCreateRequest); err != nil {
		return nil, err
	}
	if err := d.checkApprovers(ctx, workspaceID, steps); err != nil {
		return nil, err
	}

	now := d.now()
	req := &model.Request{
		ID:            uuid.New(),
		WorkspaceID:   workspaceID,
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		TemplateName:  in.TemplateName,
		Status:        model.RequestStatusDraft,
		CurrentLevel:  1,
		ApprovalSteps: steps,
		SubmittedBy:   actorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := d.requests.Create(ctx, req); err != nil {
		return nil, storeErr("create request", err)
	}

	d.logger.Info("request created",
		append(requestctx.Fields(ctx),
			zap.String("request_id", req.ID.String()),
			zap.String("workspace_id", workspaceID.String()),
			zap.Int("levels", len(steps)),
		)...,
	)
	return req, nil
}

// SubmitRequest moves the actor's draft into review and notifies level 1.
func (d *Domain) SubmitRequest(ctx context.Context, actorID, workspaceID, requestID uuid.UUID) (*model.Request, error) {
	storeCtx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	if _, err := d.guard.Require(storeCtx, workspaceID, actorID, access.CapEditOwnRequest); err != nil {
		return nil, err
	}

	req, err := d.load(storeCtx, workspaceID, requestID)
	if err != nil {
		return nil, err
	}

	t, err := Submit(req, actorID, d.env(storeCtx, workspaceID))
	if err != nil {
		return nil, err
	}

	err = d.requests.CompareAndSwap(storeCtx, t.Before.Status, t.Before.CurrentLevel, t.After)
	if errors.Is(err, outbound.ErrConflict) {
		d.metrics.RecordStaleConflict("submit")
		return nil, ErrStaleSubmission
	}
	if err != nil {
		return nil, storeErr("submit request", err)
	}

	d.metrics.RecordRequestTransition(string(t.Before.Status), string(t.After.Status))
	d.logger.Info("request submitted",
		append(requestctx.Fields(ctx),
			zap.String("request_id", requestID.String()),
			zap.Int("levels", len(t.After.ApprovalSteps)),
		)...,
	)

	d.notify(ctx, t.After, t.Intent)
	return t.After, nil
}

// RecordDecision applies an approver's verdict to the current level.
//
// The decision insert and the guarded request update commit together, so two
// approvers racing on the same level produce exactly one winner; the loser
// gets a stale state error. A retry of the winning decision is answered from
// the stored record.
func (d *Domain) RecordDecision(ctx context.Context, actorID, workspaceID, requestID uuid.UUID, in *inbound.DecisionInput) (*inbound.DecisionOutput, error) {
	if in == nil || !in.Decision.IsValid() {
		return nil, ErrInvalidVerdict
	}
	if in.Level < 1 {
		return nil, ErrLevelRequired
	}

	storeCtx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	if _, err := d.guard.Require(storeCtx, workspaceID, actorID, access.CapApproveAssigned); err != nil {
		return nil, err
	}

	req, err := d.load(storeCtx, workspaceID, requestID)
	if err != nil {
		return nil, err
	}

	if in.Level > req.CurrentLevel {
		return nil, ErrLevelMismatch
	}
	if in.Level < req.CurrentLevel || req.Status.IsTerminal() {
		out, err := d.replay(storeCtx, req, actorID, in.Decision, in.Level)
		if errors.Is(err, ErrStaleDecision) && req.Status.IsTerminal() {
			return nil, ErrRequestClosed
		}
		return out, err
	}

	t, err := Decide(req, Decision{Actor: actorID, Verdict: in.Decision, Reason: in.Reason}, d.env(storeCtx, workspaceID))
	if err != nil {
		if apperrors.Kind(err) == apperrors.KindConfiguration {
			d.logger.Error("approval configuration is inconsistent",
				zap.String("request_id", req.ID.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	err = d.txPort.RunInTransaction(storeCtx, func(txCtx context.Context) error {
		if err := d.requests.RecordDecision(txCtx, t.Decision); err != nil {
			return err
		}
		return d.requests.CompareAndSwap(txCtx, t.Before.Status, t.Before.CurrentLevel, t.After)
	})
	if errors.Is(err, outbound.ErrConflict) {
		d.metrics.RecordStaleConflict("decide")
		out, replayErr := d.replay(storeCtx, req, actorID, in.Decision, t.Before.CurrentLevel)
		if replayErr == nil {
			return out, nil
		}
		d.logger.Info("decision lost race",
			append(requestctx.Fields(ctx),
				zap.String("request_id", requestID.String()),
				zap.Int("level", t.Before.CurrentLevel),
			)...,
		)
		return nil, replayErr
	}
	if err != nil {
		return nil, storeErr("record decision", err)
	}

	d.metrics.RecordDecision(string(in.Decision))
	if t.Before.Status != t.After.Status {
		d.metrics.RecordRequestTransition(string(t.Before.Status), string(t.After.Status))
	}
	d.logger.Info("decision recorded",
		append(requestctx.Fields(ctx),
			zap.String("request_id", requestID.String()),
			zap.Int("level", t.Decision.Level),
			zap.String("verdict", string(t.Decision.Verdict)),
			zap.String("status", string(t.After.Status)),
		)...,
	)

	d.notify(ctx, t.After, t.Intent)
	return &inbound.DecisionOutput{Request: t.After, Decision: t.Decision}, nil
}

// HandleRequestUpdated dispatches the notification implied by a stored change.
// Changes that neither move the status nor the level are ignored.
func (d *Domain) HandleRequestUpdated(ctx context.Context, before, after *model.Request) error {
	if after == nil {
		return nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	env := d.env(storeCtx, after.WorkspaceID)
	cancel()

	intent, err := IntentForUpdate(before, after, env)
	if err != nil {
		d.logger.Error("cannot derive request notification",
			zap.String("request_id", after.ID.String()),
			zap.Error(err),
		)
		return err
	}
	if intent == nil {
		return nil
	}
	return d.dispatch(ctx, after.ID, intent)
}

// ========== Helpers ==========

func (d *Domain) load(ctx context.Context, workspaceID, requestID uuid.UUID) (*model.Request, error) {
	req, err := d.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, outbound.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, storeErr("find request", err)
	}
	if req.WorkspaceID != workspaceID {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// replay answers a decision retry from the decision stored for level.
func (d *Domain) replay(ctx context.Context, req *model.Request, actorID uuid.UUID, verdict model.Verdict, level int) (*inbound.DecisionOutput, error) {
	dec, err := d.requests.FindDecision(ctx, req.ID, level)
	if errors.Is(err, outbound.ErrRecordNotFound) {
		return nil, ErrStaleDecision
	}
	if err != nil {
		return nil, storeErr("find decision", err)
	}
	if dec.ApproverID != actorID || dec.Verdict != verdict {
		return nil, ErrStaleDecision
	}

	current, err := d.requests.FindByID(ctx, req.ID)
	if err != nil {
		return nil, storeErr("reload request", err)
	}
	return &inbound.DecisionOutput{Request: current, Decision: dec, Replayed: true}, nil
}

func (d *Domain) checkApprovers(ctx context.Context, workspaceID uuid.UUID, steps []model.ApprovalStep) error {
	checked := make(map[uuid.UUID]struct{})
	for _, s := range steps {
		for _, id := range s.Approvers {
			if _, ok := checked[id]; ok {
				continue
			}
			checked[id] = struct{}{}

			_, caps, err := d.guard.Membership(ctx, workspaceID, id)
			if errors.Is(err, access.ErrNotMember) {
				return apperrors.ValidationError(fmt.Sprintf("approver %s is not a workspace member", id))
			}
			if err != nil {
				return err
			}
			if !caps.Has(access.CapApproveAssigned) {
				return apperrors.ValidationError(fmt.Sprintf("approver %s cannot approve requests", id))
			}
		}
	}
	return nil
}

func (d *Domain) env(ctx context.Context, workspaceID uuid.UUID) Env {
	env := Env{Now: d.now(), BaseURL: d.cfg.BaseURL}
	ws, err := d.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		d.logger.Warn("workspace lookup failed",
			zap.String("workspace_id", workspaceID.String()),
			zap.Error(err),
		)
		return env
	}
	env.WorkspaceName = ws.Name
	return env
}

// notify hands the intent off after the transition has committed. Failures
// are recorded on the request and never undo the transition.
func (d *Domain) notify(ctx context.Context, req *model.Request, intent *model.NotificationIntent) {
	if intent == nil {
		return
	}
	_ = d.dispatch(ctx, req.ID, intent)
}

func (d *Domain) dispatch(ctx context.Context, requestID uuid.UUID, intent *model.NotificationIntent) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.NotifyTimeout)
	defer cancel()

	err := d.notifier.Dispatch(ctx, intent)
	if errors.Is(err, outbound.ErrDuplicateIntent) {
		return nil
	}
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
		d.logger.Warn("request notification failed",
			zap.String("request_id", requestID.String()),
			zap.String("intent", intent.Key),
			zap.Error(err),
		)
	}

	if recErr := d.requests.RecordNotification(ctx, requestID, d.now(), errMsg); recErr != nil {
		d.logger.Warn("failed to record notification outcome",
			zap.String("request_id", requestID.String()),
			zap.Error(recErr),
		)
	}
	return err
}

func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(op + " timed out")
	}
	return fmt.Errorf("%s: %w", op, err)
}
