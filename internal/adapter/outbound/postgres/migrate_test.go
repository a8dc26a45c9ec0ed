package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/approvenow/server/internal/port/outbound"
)

func TestMigrate_RejectsInvalidChannel(t *testing.T) {
	for _, channel := range []string{"Store-Events", "1events", "events; DROP TABLE requests", strings.Repeat("a", 64)} {
		t.Run(channel, func(t *testing.T) {
			err := Migrate(nil, channel)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid notify channel")
		})
	}
}

func TestSchemaStatements(t *testing.T) {
	stmts := schemaStatements("custom_channel")

	var notifies int
	for _, stmt := range stmts {
		if strings.Contains(stmt, "pg_notify(") {
			notifies++
			assert.Contains(t, stmt, "pg_notify('custom_channel'")
		}
	}
	assert.Equal(t, 2, notifies)
	assert.Contains(t, stmts[0], "WHERE status = 'pending'")
}

func TestTranslate(t *testing.T) {
	other := errors.New("connection reset")

	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), outbound.ErrRecordNotFound)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), outbound.ErrConflict)
	assert.Equal(t, other, translate(other))
}
