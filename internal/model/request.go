package model

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the status of an approval request.
type RequestStatus string

const (
	RequestStatusDraft           RequestStatus = "draft"
	RequestStatusPendingApproval RequestStatus = "pending_approval"
	RequestStatusApproved        RequestStatus = "approved"
	RequestStatusRejected        RequestStatus = "rejected"
)

// IsTerminal reports whether no further transition is defined.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// IsValid checks if the status is valid.
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusDraft, RequestStatusPendingApproval, RequestStatusApproved, RequestStatusRejected:
		return true
	default:
		return false
	}
}

// ApprovalStep is the set of users allowed to satisfy one approval level.
// Any single approver satisfies the level.
type ApprovalStep struct {
	Level     int         `json:"level"`
	Approvers []uuid.UUID `json:"approvers"`
}

// Request is a workspace item moving through multi-level approval.
type Request struct {
	ID                uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	WorkspaceID       uuid.UUID      `json:"workspace_id" gorm:"type:uuid;not null;index"`
	Title             string         `json:"title" gorm:"not null"`
	Description       string         `json:"description,omitempty"`
	TemplateName      string         `json:"template_name,omitempty"`
	Status            RequestStatus  `json:"status" gorm:"not null;default:draft;index"`
	CurrentLevel      int            `json:"current_level" gorm:"not null;default:1"`
	ApprovalSteps     []ApprovalStep `json:"approval_steps" gorm:"type:jsonb;serializer:json;not null"`
	SubmittedBy       uuid.UUID      `json:"submitted_by" gorm:"type:uuid;not null"`
	SubmittedAt       *time.Time     `json:"submitted_at,omitempty"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
	RejectionReason   string         `json:"rejection_reason,omitempty"`
	NotifiedAt        *time.Time     `json:"notified_at,omitempty"`
	NotificationError string         `json:"notification_error,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`

	Decisions []RequestDecision `json:"decisions,omitempty" gorm:"foreignKey:RequestID"`
}

// TableName returns the database table name.
func (Request) TableName() string {
	return "requests"
}

// Clone returns a deep copy so transitions never alias the caller's state.
func (r *Request) Clone() *Request {
	cp := *r
	cp.ApprovalSteps = make([]ApprovalStep, len(r.ApprovalSteps))
	for i, s := range r.ApprovalSteps {
		cp.ApprovalSteps[i] = ApprovalStep{Level: s.Level, Approvers: append([]uuid.UUID(nil), s.Approvers...)}
	}
	cp.Decisions = append([]RequestDecision(nil), r.Decisions...)
	return &cp
}

// Verdict is an approver's decision at one level.
type Verdict string

const (
	VerdictApprove Verdict = "approve"
	VerdictReject  Verdict = "reject"
)

// IsValid checks if the verdict is valid.
func (v Verdict) IsValid() bool {
	return v == VerdictApprove || v == VerdictReject
}

// RequestDecision records the single winning decision for a level.
type RequestDecision struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RequestID  uuid.UUID `json:"request_id" gorm:"type:uuid;not null;uniqueIndex:idx_request_decisions_level"`
	Level      int       `json:"level" gorm:"not null;uniqueIndex:idx_request_decisions_level"`
	ApproverID uuid.UUID `json:"approver_id" gorm:"type:uuid;not null"`
	Verdict    Verdict   `json:"verdict" gorm:"not null"`
	Reason     string    `json:"reason,omitempty"`
	DecidedAt  time.Time `json:"decided_at"`
}

// TableName returns the database table name.
func (RequestDecision) TableName() string {
	return "request_decisions"
}
