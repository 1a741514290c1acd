package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learning-gap-api/internal/models"
)

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect("oracle", "whatever")
	require.Error(t, err)
}

func TestConnectSQLiteRequiresPath(t *testing.T) {
	_, err := ConnectSQLite("  ")
	require.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Connect(DriverSQLite, "file:migrate_test?mode=memory&cache=shared")
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "assignments", "submissions", "progress", "search_history"} {
		require.True(t, db.Migrator().HasTable(table), table)
	}
	require.True(t, db.Migrator().HasIndex(&models.Progress{}, "idx_progress_student_subject"))
}
