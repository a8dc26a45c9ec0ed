package model

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus represents the status of an invitation.
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusRejected InvitationStatus = "rejected"
	InvitationStatusExpired  InvitationStatus = "expired"
)

// Invitation grants a role in a workspace to whoever redeems its token.
// Invitations are archived through status and never deleted.
type Invitation struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	WorkspaceID uuid.UUID        `json:"workspace_id" gorm:"type:uuid;not null;index"`
	Email       string           `json:"email" gorm:"not null;index"`
	Role        Role             `json:"role" gorm:"not null"`
	Token       string           `json:"-" gorm:"not null;uniqueIndex"`
	Status      InvitationStatus `json:"status" gorm:"not null;default:pending;index:idx_invitations_status_created"`
	InvitedBy   uuid.UUID        `json:"invited_by" gorm:"type:uuid;not null"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index:idx_invitations_status_created"`
	UpdatedAt   time.Time        `json:"updated_at"`
	ResentAt    *time.Time       `json:"resent_at,omitempty"`
	EmailSent   *bool            `json:"email_sent,omitempty"`
	EmailSentAt *time.Time       `json:"email_sent_at,omitempty"`
	EmailError  string           `json:"email_error,omitempty"`
	RedeemedAt  *time.Time       `json:"redeemed_at,omitempty"`
	RedeemedBy  *uuid.UUID       `json:"redeemed_by,omitempty" gorm:"type:uuid"`
	ExpiredAt   *time.Time       `json:"expired_at,omitempty"`
}

// TableName returns the database table name.
func (Invitation) TableName() string {
	return "invitations"
}

// IsPending returns true if the invitation is still pending.
func (i *Invitation) IsPending() bool {
	return i.Status == InvitationStatusPending
}

// Delivered reports whether a delivery attempt has been recorded.
func (i *Invitation) Delivered() bool {
	return i.EmailSent != nil
}

// RedeemAction is what the invitee chose to do with the invitation.
type RedeemAction string

const (
	RedeemAccept RedeemAction = "accept"
	RedeemReject RedeemAction = "reject"
)

// IsValid checks if the action is valid.
func (a RedeemAction) IsValid() bool {
	return a == RedeemAccept || a == RedeemReject
}
