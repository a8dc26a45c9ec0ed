package postgres

import (
	"fmt"
	"regexp"

	"gorm.io/gorm"

	"github.com/approvenow/server/internal/model"
)

// DefaultEventChannel is the NOTIFY channel the row triggers publish on.
const DefaultEventChannel = "approvenow_store_events"

var channelName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Migrate creates the schema and installs the row triggers that announce
// invitation inserts and request state changes on channel.
func Migrate(db *gorm.DB, channel string) error {
	if channel == "" {
		channel = DefaultEventChannel
	}
	if !channelName.MatchString(channel) {
		return fmt.Errorf("invalid notify channel %q", channel)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Workspace{},
		&model.Member{},
		&model.Request{},
		&model.RequestDecision{},
		&model.Invitation{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, stmt := range schemaStatements(channel) {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func schemaStatements(channel string) []string {
	return []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_invitations_pending_email
			ON invitations (workspace_id, email) WHERE status = 'pending'`,

		fmt.Sprintf(`CREATE OR REPLACE FUNCTION approvenow_notify_invitation() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('%s', json_build_object(
		'table', TG_TABLE_NAME,
		'op', TG_OP,
		'id', NEW.id
	)::text);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`, channel),

		`DROP TRIGGER IF EXISTS approvenow_invitation_created ON invitations`,
		`CREATE TRIGGER approvenow_invitation_created
			AFTER INSERT ON invitations
			FOR EACH ROW EXECUTE FUNCTION approvenow_notify_invitation()`,

		fmt.Sprintf(`CREATE OR REPLACE FUNCTION approvenow_notify_request() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('%s', json_build_object(
		'table', TG_TABLE_NAME,
		'op', TG_OP,
		'id', NEW.id,
		'old_status', OLD.status,
		'old_level', OLD.current_level
	)::text);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`, channel),

		`DROP TRIGGER IF EXISTS approvenow_request_updated ON requests`,
		`CREATE TRIGGER approvenow_request_updated
			AFTER UPDATE ON requests
			FOR EACH ROW
			WHEN (OLD.status IS DISTINCT FROM NEW.status OR OLD.current_level IS DISTINCT FROM NEW.current_level)
			EXECUTE FUNCTION approvenow_notify_request()`,
	}
}
