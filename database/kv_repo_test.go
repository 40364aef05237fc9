package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) Database {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "kv.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	d := New(db)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestKVRepoSatisfiesStorage(t *testing.T) {
	var _ storage.KV = (*KVRepo)(nil)
}

func TestKVRepoCRUD(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t).KVRepo()

	_, found, err := repo.Get(ctx, storage.KeyProjects)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Set(ctx, storage.KeyProjects, `[{"id":"a"}]`))
	require.NoError(t, repo.Set(ctx, storage.KeyProjects, `[{"id":"b"}]`))

	v, found, err := repo.Get(ctx, storage.KeyProjects)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[{"id":"b"}]`, v)

	require.NoError(t, repo.Set(ctx, storage.KeyAuth, `{}`))
	_, found, err = repo.Get(ctx, storage.KeyAuth)
	require.NoError(t, err)
	assert.True(t, found, "keys are stored independently")

	require.NoError(t, repo.Delete(ctx, storage.KeyProjects))
	_, found, err = repo.Get(ctx, storage.KeyProjects)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKVRepoRejectsInvalidJSON(t *testing.T) {
	repo := openTestDB(t).KVRepo()
	assert.Error(t, repo.Set(context.Background(), storage.KeyAuth, "not json"))
}

func TestColumnReportOnMigratedSchema(t *testing.T) {
	report, err := models.ColumnMismatchReport(openTestDB(t).DB())
	require.NoError(t, err)
	assert.Empty(t, report["kv_entries"])
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "", DSN(map[string]string{}))
	assert.Equal(t, "postgres://u@h/db", DSN(map[string]string{"DATABASE_URL": "postgres://u@h/db"}))
	assert.Equal(t,
		"host=db.local user=me password=pw dbname=site port=5432 sslmode=require",
		DSN(map[string]string{
			"SUPABASE_DB_HOST":     "db.local",
			"SUPABASE_DB_USER":     "me",
			"SUPABASE_DB_PASSWORD": "pw",
			"SUPABASE_DB_NAME":     "site",
		}),
	)
}
