package invitation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/approvenow/server/internal/model"
)

func TestCheckRedeemable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	week := 7 * 24 * time.Hour

	tests := []struct {
		name   string
		status model.InvitationStatus
		age    time.Duration
		want   error
	}{
		{"fresh_pending", model.InvitationStatusPending, time.Hour, nil},
		{"exactly_at_expiry", model.InvitationStatusPending, week, nil},
		{"eight_days", model.InvitationStatusPending, 8 * 24 * time.Hour, ErrInvitationExpired},
		{"expired_status", model.InvitationStatusExpired, time.Hour, ErrInvitationExpired},
		{"accepted", model.InvitationStatusAccepted, time.Hour, ErrInvitationAlreadyRedeemed},
		{"rejected", model.InvitationStatusRejected, time.Hour, ErrInvitationAlreadyRedeemed},
		{"old_and_accepted", model.InvitationStatusAccepted, 30 * 24 * time.Hour, ErrInvitationAlreadyRedeemed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &model.Invitation{Status: tt.status, CreatedAt: now.Add(-tt.age)}
			err := CheckRedeemable(inv, now, week)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("missing", func(t *testing.T) {
		assert.ErrorIs(t, CheckRedeemable(nil, now, week), ErrInvitationNotFound)
	})
}

func TestLinks(t *testing.T) {
	inv := &model.Invitation{ID: uuid.New(), WorkspaceID: uuid.New(), Token: "a+b/c"}

	link := InviteLink("https://approvenow.app/", inv)
	assert.Equal(t, "https://approvenow.app/invite?workspace="+inv.WorkspaceID.String()+
		"&invitation="+inv.ID.String()+"&token=a%2Bb%2Fc", link)
	assert.Equal(t, link+"&action=reject", RejectLink("https://approvenow.app", inv))
}

func TestBuildIntent(t *testing.T) {
	cfg := DefaultConfig()
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inv := &model.Invitation{
		ID:          uuid.New(),
		WorkspaceID: uuid.New(),
		Email:       "bob@example.com",
		Role:        model.RoleAdmin,
		Token:       "tok",
		CreatedAt:   created,
	}

	first := BuildIntent(inv, "Finance", "Ada", cfg)
	assert.Equal(t, model.InvitationIntentKey(inv.ID, created), first.Key)
	assert.Equal(t, "admin", first.Data["role"])
	assert.Contains(t, first.Data["permissions"], "Manage members")

	resent := created.Add(time.Hour)
	inv.ResentAt = &resent
	second := BuildIntent(inv, "Finance", "Ada", cfg)
	assert.NotEqual(t, first.Key, second.Key)
	assert.Equal(t, first.Data["inviteLink"], second.Data["inviteLink"])
}

func TestConfig_ExpiresInDays(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 7, cfg.ExpiresInDays())

	cfg.Expiry = 36 * time.Hour
	assert.Equal(t, 2, cfg.ExpiresInDays())
}
