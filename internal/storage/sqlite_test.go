package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteyou/noteyou/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

func setupSQLite(t *testing.T) *SQLiteDriver {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "noteyou.db")
	d := NewSQLiteDriver(dsn, testLogger())
	require.NoError(t, d.Init(context.Background()))
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func taskRecord(id, boardID, title, status string) Record {
	return Record{
		"id":       id,
		"board_id": boardID,
		"title":    title,
		"status":   status,
		"priority": "medium",
	}
}

func TestSQLite_PutInsertsThenUpdates(t *testing.T) {
	d := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, CollectionTasks, taskRecord("t1", "b1", "Draft report", "todo")))

	got, err := d.QueryAll(ctx, CollectionTasks, Record{"id": "t1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Draft report", got[0].String("title"))
	assert.Equal(t, "todo", got[0].String("status"))

	// Same id again must update, not duplicate.
	require.NoError(t, d.Put(ctx, CollectionTasks, taskRecord("t1", "b1", "Draft report", "done")))

	got, err = d.QueryAll(ctx, CollectionTasks, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "done", got[0].String("status"))
}

func TestSQLite_QueryAllFilter(t *testing.T) {
	d := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, CollectionTasks, taskRecord("t1", "b1", "One", "todo")))
	require.NoError(t, d.Put(ctx, CollectionTasks, taskRecord("t2", "b1", "Two", "done")))
	require.NoError(t, d.Put(ctx, CollectionTasks, taskRecord("t3", "b2", "Three", "todo")))

	got, err := d.QueryAll(ctx, CollectionTasks, Record{"board_id": "b1", "status": "todo"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].ID())

	all, err := d.QueryAll(ctx, CollectionTasks, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLite_QueryAll_NilFilterMatchesNullColumn(t *testing.T) {
	d := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, CollectionUsers, Record{
		"id": "u1", "email": "a@b.c", "name": "A",
		"password_hash": "h", "salt": "s", "is_active": true,
	}))
	require.NoError(t, d.Put(ctx, CollectionUsers, Record{
		"id": "u2", "email": "d@e.f", "name": "D",
		"password_hash": "h", "salt": "s", "is_active": true,
		"last_login": "2025-01-02T03:04:05Z",
	}))

	got, err := d.QueryAll(ctx, CollectionUsers, Record{"last_login": nil})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].ID())
}

func TestSQLite_QueryAll_UnknownFilterColumn(t *testing.T) {
	d := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, CollectionTasks, taskRecord("t1", "b1", "One", "todo")))

	got, err := d.QueryAll(ctx, CollectionTasks, Record{"no_such_field": "x"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_BooleanColumns(t *testing.T) {
	d := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, CollectionUsers, Record{
		"id":            "u1",
		"email":         "a@b.c",
		"name":          "A",
		"password_hash": "h",
		"salt":          "s",
		"is_active":     true,
	}))

	got, err := d.QueryAll(ctx, CollectionUsers, Record{"is_active": true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, true, got[0].Bool("is_active"))
}

func TestSQLite_DeleteByID_NoopWhenAbsent(t *testing.T) {
	d := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, CollectionBoards, Record{"id": "b1", "user_id": "u1", "name": "Work"}))
	require.NoError(t, d.DeleteByID(ctx, CollectionBoards, "b1"))
	require.NoError(t, d.DeleteByID(ctx, CollectionBoards, "b1"))
	require.NoError(t, d.DeleteByID(ctx, CollectionBoards, "never-existed"))

	got, err := d.QueryAll(ctx, CollectionBoards, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_UnknownCollection(t *testing.T) {
	d := setupSQLite(t)
	ctx := context.Background()

	err := d.Put(ctx, "gadgets", Record{"id": "g1"})
	require.Error(t, err)

	_, err = d.QueryAll(ctx, "gadgets", nil)
	require.Error(t, err)
}

func TestSQLite_InitFailsOnBadDSN(t *testing.T) {
	d := NewSQLiteDriver(filepath.Join(t.TempDir(), "no", "such", "dir", "x.db"), testLogger())
	require.Error(t, d.Init(context.Background()))
}

func TestSQLite_Capabilities(t *testing.T) {
	d := setupSQLite(t)
	caps := d.Capabilities()
	assert.Equal(t, "sqlite", caps.Type)
	assert.Contains(t, caps.Features, "sql")
}
