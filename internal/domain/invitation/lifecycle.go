package invitation

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/approvenow/server/internal/domain/access"
	"github.com/approvenow/server/internal/model"
)

// CheckRedeemable reports why inv cannot be redeemed at now, if it cannot.
// Expiry wins over the status check so a stale pending invitation reads as
// expired even before the sweeper has visited it.
func CheckRedeemable(inv *model.Invitation, now time.Time, expiry time.Duration) error {
	if inv == nil {
		return ErrInvitationNotFound
	}
	if inv.Status == model.InvitationStatusExpired {
		return ErrInvitationExpired
	}
	if inv.IsPending() && IsStale(inv, now, expiry) {
		return ErrInvitationExpired
	}
	if !inv.IsPending() {
		return ErrInvitationAlreadyRedeemed
	}
	return nil
}

// IsStale reports whether inv is older than expiry at now.
func IsStale(inv *model.Invitation, now time.Time, expiry time.Duration) bool {
	return now.Sub(inv.CreatedAt) > expiry
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// InviteLink returns the link that opens the invite landing page.
func InviteLink(baseURL string, inv *model.Invitation) string {
	return fmt.Sprintf("%s/invite?workspace=%s&invitation=%s&token=%s",
		strings.TrimRight(baseURL, "/"), inv.WorkspaceID, inv.ID, url.QueryEscape(inv.Token))
}

// RejectLink returns the link that declines the invitation.
func RejectLink(baseURL string, inv *model.Invitation) string {
	return InviteLink(baseURL, inv) + "&action=reject"
}

// deliveryTime is the timestamp that identifies the current delivery.
func deliveryTime(inv *model.Invitation) time.Time {
	if inv.ResentAt != nil {
		return *inv.ResentAt
	}
	return inv.CreatedAt
}

// BuildIntent composes the invitation notification.
func BuildIntent(inv *model.Invitation, workspaceName, inviterName string, cfg *Config) *model.NotificationIntent {
	return &model.NotificationIntent{
		Key:  model.InvitationIntentKey(inv.ID, deliveryTime(inv)),
		Kind: model.NotificationInvitation,
		To:   []model.Recipient{{Email: inv.Email}},
		Data: map[string]string{
			"invitationId":  inv.ID.String(),
			"workspaceId":   inv.WorkspaceID.String(),
			"workspaceName": workspaceName,
			"inviterName":   inviterName,
			"email":         inv.Email,
			"role":          string(inv.Role),
			"permissions":   strings.Join(access.Describe(inv.Role), "\n"),
			"inviteLink":    InviteLink(cfg.BaseURL, inv),
			"rejectLink":    RejectLink(cfg.BaseURL, inv),
			"expiresInDays": strconv.Itoa(cfg.ExpiresInDays()),
		},
	}
}
