package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	if yaml != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	}
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(newViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 7*24*time.Hour, cfg.Invitation.Expiry)
	assert.Equal(t, 32, cfg.Invitation.TokenLength)
	assert.Equal(t, "https://approvenow.app", cfg.Invitation.BaseURL)
	assert.Equal(t, 24*time.Hour, cfg.Invitation.SweepInterval)
	assert.Equal(t, "viewer", cfg.Access.UnknownRolePolicy)
	assert.Equal(t, "noreply@approvenow.app", cfg.Notification.SMTP.FromEmail)
	assert.Equal(t, "Approve Now", cfg.Notification.SMTP.FromName)
	assert.Equal(t, "approvenow_store_events", cfg.Triggers.Channel)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Setenv("APPROVENOW_INVITATION_EXPIRY", "48h")
	t.Setenv("APPROVENOW_JWT_SECRET", "from-env")
	t.Setenv("APPROVENOW_SMTP_PASSWORD", "smtp-secret")

	cfg, err := load(newViper(t, `
database:
  driver: memory
access:
  unknown_role_policy: deny
notification:
  driver: smtp
  smtp:
    host: mail.internal
redis:
  address: localhost:6379
`))
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "deny", cfg.Access.UnknownRolePolicy)
	assert.Equal(t, 48*time.Hour, cfg.Invitation.Expiry)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "smtp-secret", cfg.Notification.SMTP.Password)
	assert.True(t, cfg.Redis.Enabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown_policy", "access:\n  unknown_role_policy: admin\n", "unknown_role_policy"},
		{"unknown_driver", "database:\n  driver: mysql\n", "database.driver"},
		{"smtp_without_host", "notification:\n  driver: smtp\n", "smtp.host"},
		{"non_positive_expiry", "invitation:\n  expiry: 0s\n", "invitation.expiry"},
		{"short_token", "invitation:\n  token_length: 8\n", "token_length"},
		{"triggers_need_postgres", "database:\n  driver: memory\ntriggers:\n  enabled: true\n", "triggers.enabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(newViper(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
