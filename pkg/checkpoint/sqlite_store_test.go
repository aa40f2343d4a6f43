package checkpoint_test

import (
	"os"
	"path/filepath"
	"testing"

	"datedreader/pkg/checkpoint"
	errs "datedreader/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store1, err := checkpoint.NewSQLiteStore(dbPath)
	require.NoError(t, err)

	want := checkpoint.Table{
		"/logs/{date}.log": {Date: checkpoint.MustParseDate("2024-03-01"), Offset: 128},
	}
	require.NoError(t, store1.Save(want))
	require.NoError(t, store1.Close())

	// Reopening the database sees the same rows
	store2, err := checkpoint.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	got, err := store2.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store, err := checkpoint.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(checkpoint.Table{
		"a-{date}": {Date: checkpoint.MustParseDate("2024-01-01"), Offset: 3},
	}))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := checkpoint.NewSQLiteStore("/nonexistent/path/db.sqlite")
	assert.Error(t, err)
}

func TestSQLiteStore_NotADatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "garbage.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("this is not a sqlite database, just text padding it out"), 0644))

	store, err := checkpoint.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCorruptStore)
	assert.Equal(t, errs.ErrorTypeCorruptStore, errs.TypeOf(err))

	assert.ErrorIs(t, store.Save(checkpoint.NewTable()), errs.ErrCorruptStore)
}

func TestSQLiteStore_ForeignSchemaIsCorrupt(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "other.db")

	// Another program's checkpoints table with different columns
	raw, err := sqlOpen(dbPath)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE checkpoints (id INTEGER PRIMARY KEY, payload BLOB)`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	store, err := checkpoint.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCorruptStore)
	assert.Contains(t, err.Error(), dbPath)
}

func TestSQLiteStore_BadRowIsCorrupt(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := checkpoint.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Write a row the store itself would never produce
	raw, err := sqlOpen(dbPath)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO checkpoints (template, file_date, byte_offset, updated_at) VALUES ('x', 'yesterday', 0, '')`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	store, err = checkpoint.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCorruptStore)
}

func TestSQLiteStore_CloseIdempotent(t *testing.T) {
	store, err := checkpoint.NewSQLiteStore(":memory:")
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())

	_, err = store.Load()
	assert.ErrorIs(t, err, checkpoint.ErrStoreClosed)
	assert.ErrorIs(t, store.Save(checkpoint.NewTable()), checkpoint.ErrStoreClosed)
}
