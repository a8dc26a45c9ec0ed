package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationKind selects the message template.
type NotificationKind string

const (
	NotificationInvitation        NotificationKind = "invitation"
	NotificationApprovalRequest   NotificationKind = "approval_request"
	NotificationApprovalCompleted NotificationKind = "approval_completed"
	NotificationRequestRejected   NotificationKind = "request_rejected"
)

// Recipient is either a known user or a bare email address.
type Recipient struct {
	UserID uuid.UUID `json:"user_id,omitempty"`
	Email  string    `json:"email,omitempty"`
}

// NotificationIntent is a structured request to notify recipients.
// Key identifies the transition that produced it; intents with equal keys are duplicates.
type NotificationIntent struct {
	Key  string            `json:"key"`
	Kind NotificationKind  `json:"kind"`
	To   []Recipient       `json:"to"`
	Data map[string]string `json:"data"`
}

// RequestIntentKey identifies a request transition by the state it produced.
func RequestIntentKey(requestID uuid.UUID, status RequestStatus, level int) string {
	return fmt.Sprintf("request:%s:%s:%d", requestID, status, level)
}

// InvitationIntentKey identifies one delivery of an invitation.
// The first delivery uses the creation time, each resend its own timestamp.
func InvitationIntentKey(invitationID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("invitation:%s:%d", invitationID, at.UnixNano())
}
