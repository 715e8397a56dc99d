package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIsPostgres(t *testing.T) {
	assert.True(t, IsPostgres("postgres://u:p@localhost/db"))
	assert.True(t, IsPostgres("postgresql://localhost/db"))
	assert.False(t, IsPostgres("salon.db"))
	assert.False(t, IsPostgres(":memory:"))
}

func TestMigrate_CreatesSchema(t *testing.T) {
	dsn := fmt.Sprintf("file:database_test_%s?mode=memory&cache=shared", t.Name())
	db, err := Connect(dsn, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, Migrate(context.Background(), db))
	// a second run is a no-op
	require.NoError(t, Migrate(context.Background(), db))

	assert.True(t, db.Migrator().HasTable("users"))
	assert.True(t, db.Migrator().HasTable("appointments"))
	assert.True(t, db.Migrator().HasIndex("appointments", "idx_appointments_slot"))
}
