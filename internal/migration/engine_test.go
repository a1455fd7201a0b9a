package migration

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteyou/noteyou/internal/auth"
	"github.com/noteyou/noteyou/internal/localstore"
	"github.com/noteyou/noteyou/internal/logging"
	"github.com/noteyou/noteyou/internal/storage"
)

type stubSession struct {
	id string
}

func (s *stubSession) CurrentUserID() string { return s.id }

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

func setupEngine(t *testing.T) (*Engine, *localstore.Store, *storage.Store) {
	t.Helper()
	ctx := context.Background()

	kv, err := localstore.New(t.TempDir())
	require.NoError(t, err)

	store := storage.NewStore(testLogger(), storage.NewFileDriver(kv, testLogger()))
	require.NoError(t, store.Initialize(ctx))

	return NewEngine(kv, store, &stubSession{}, testLogger()), kv, store
}

const legacyState = `{
  "boards": {"b1": {"id": "b1", "name": "Work"}},
  "tasks":  {"t1": {"id": "t1", "boardId": "b1", "status": "todo", "title": "Draft report"}},
  "notes":  {}
}`

func TestCheckForMigration(t *testing.T) {
	e, kv, _ := setupEngine(t)

	assert.False(t, e.CheckForMigration(), "empty store needs no migration")
	assert.Equal(t, StateNoMigrationNeeded, e.State())

	require.NoError(t, kv.Set(LegacyStateKey, []byte(legacyState)))
	assert.True(t, e.CheckForMigration())
	assert.Equal(t, StateNeeded, e.State())

	require.NoError(t, kv.Delete(LegacyStateKey))
	require.NoError(t, kv.Set(LegacySessionKey, []byte(`{"id":"u1"}`)))
	assert.True(t, e.CheckForMigration(), "a lone legacy session record is enough")
	require.NoError(t, kv.Delete(LegacySessionKey))

	// The persisted marker wins even while legacy keys still exist.
	require.NoError(t, kv.Set(MarkerKey, []byte(`"2024-01-01T00:00:00Z"`)))
	assert.False(t, e.CheckForMigration())
	assert.Equal(t, StateNoMigrationNeeded, e.State())
}

func TestMigrate_LegacyFlatState(t *testing.T) {
	e, kv, store := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(LegacyStateKey, []byte(legacyState)))
	require.True(t, e.CheckForMigration())

	res := e.Migrate(ctx)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, StateCompleted, e.State())

	boards := store.Load(ctx, storage.CollectionBoards, nil)
	require.Len(t, boards, 1)
	assert.Equal(t, "Work", boards[0].String("name"))
	assert.True(t, boards[0].Bool("migrated_from_old_system"))
	assert.Equal(t, PlaceholderOwner, boards[0].String("user_id"))

	tasks := store.Load(ctx, storage.CollectionTasks, nil)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Draft report", tasks[0].String("title"))
	assert.Equal(t, "b1", tasks[0].String("board_id"))
	assert.Equal(t, "medium", tasks[0].String("priority"), "missing priority gets the default")

	v := e.VerifyMigration(ctx)
	assert.Equal(t, 2, v.Total)
	assert.Equal(t, 1, v.Boards)
	assert.Equal(t, 1, v.Tasks)

	assert.True(t, kv.Has(MarkerKey))
	assert.False(t, e.CheckForMigration(), "completed marker makes re-check false")
}

func TestMigrate_SecondCallIsNoop(t *testing.T) {
	e, kv, _ := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(LegacyStateKey, []byte(legacyState)))
	require.True(t, e.Migrate(ctx).Success)

	before := e.VerifyMigration(ctx)
	res := e.Migrate(ctx)
	require.True(t, res.Success)
	after := e.VerifyMigration(ctx)

	assert.Equal(t, before.Total, after.Total, "second migrate must not duplicate records")
}

func TestMigrate_Users(t *testing.T) {
	e, kv, store := setupEngine(t)
	ctx := context.Background()

	legacyUsers := `{
	  "Alice@Example.com": {"id": "u1", "name": "Alice", "password": "h", "salt": "s"},
	  "bob@example.com":   {"password": "h2", "salt": "s2", "isActive": false}
	}`
	require.NoError(t, kv.Set(LegacyUsersKey, []byte(legacyUsers)))

	res := e.Migrate(ctx)
	require.True(t, res.Success, res.Message)
	require.NotNil(t, res.MigratedItems)
	assert.Equal(t, 2, res.MigratedItems.Users)

	alice := store.Load(ctx, storage.CollectionUsers, storage.Record{"email": "alice@example.com"})
	require.Len(t, alice, 1, "legacy emails are lowercased")
	assert.Equal(t, "Alice", alice[0].String("name"))
	assert.True(t, alice[0].Bool("is_active"))

	bob := store.Load(ctx, storage.CollectionUsers, storage.Record{"email": "bob@example.com"})
	require.Len(t, bob, 1)
	assert.Equal(t, "Migrated User", bob[0].String("name"), "missing name gets the default")
	assert.False(t, bob[0].Bool("is_active"), "explicit isActive=false is preserved")
	assert.NotEmpty(t, bob[0].ID(), "missing id is synthesized")
}

func TestMigrate_SkipsUsersAlreadyPresent(t *testing.T) {
	e, kv, store := setupEngine(t)
	ctx := context.Background()

	store.Save(ctx, storage.CollectionUsers, storage.Record{"id": "existing", "email": "alice@example.com", "name": "Native Alice"})
	require.NoError(t, kv.Set(LegacyUsersKey, []byte(`{"alice@example.com": {"name": "Legacy Alice"}}`)))

	res := e.Migrate(ctx)
	require.True(t, res.Success)
	assert.Equal(t, 0, res.MigratedItems.Users)

	users := store.Load(ctx, storage.CollectionUsers, storage.Record{"email": "alice@example.com"})
	require.Len(t, users, 1)
	assert.Equal(t, "Native Alice", users[0].String("name"))
}

func TestMigrate_AttachesSessionOwner(t *testing.T) {
	ctx := context.Background()
	kv, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	store := storage.NewStore(testLogger(), storage.NewFileDriver(kv, testLogger()))
	require.NoError(t, store.Initialize(ctx))

	e := NewEngine(kv, store, &stubSession{id: "u42"}, testLogger())
	require.NoError(t, kv.Set(LegacyStateKey, []byte(legacyState)))

	require.True(t, e.Migrate(ctx).Success)

	boards := store.Load(ctx, storage.CollectionBoards, nil)
	require.Len(t, boards, 1)
	assert.Equal(t, "u42", boards[0].String("user_id"))
}

// The session record can reference a user that only exists in the legacy
// layout. Restoring it must leave the key on disk so the migration still
// triggers, and the restored id becomes the owner of migrated records.
func TestMigrate_RestoredLegacySessionBecomesOwner(t *testing.T) {
	ctx := context.Background()
	kv, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	store := storage.NewStore(testLogger(), storage.NewFileDriver(kv, testLogger()))
	require.NoError(t, store.Initialize(ctx))

	require.NoError(t, kv.Set(LegacySessionKey, []byte(`{"id":"u1","email":"alice@example.com","name":"Alice"}`)))
	require.NoError(t, kv.Set(LegacyStateKey, []byte(legacyState)))

	session := auth.NewService(store, kv, 0, testLogger())
	session.Restore(ctx)
	require.Equal(t, "u1", session.CurrentUserID())
	require.True(t, kv.Has(LegacySessionKey), "restore must not consume the legacy session key")

	e := NewEngine(kv, store, session, testLogger())
	require.True(t, e.CheckForMigration())
	require.True(t, e.Migrate(ctx).Success)

	boards := store.Load(ctx, storage.CollectionBoards, nil)
	require.Len(t, boards, 1)
	assert.Equal(t, "u1", boards[0].String("user_id"))
}

func TestMigrate_StructuralFailureLeavesMarkerUnset(t *testing.T) {
	e, kv, _ := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(LegacyStateKey, []byte(`{not valid json`)))

	res := e.Migrate(ctx)
	assert.False(t, res.Success)
	assert.Equal(t, StateFailed, e.State())
	assert.False(t, kv.Has(MarkerKey), "failed migration must not persist the marker")

	// A repaired legacy blob can be retried in the same process.
	require.NoError(t, kv.Set(LegacyStateKey, []byte(legacyState)))
	res = e.Migrate(ctx)
	assert.True(t, res.Success)
	assert.True(t, kv.Has(MarkerKey))
}

func TestCleanupOldData(t *testing.T) {
	e, kv, _ := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(LegacyStateKey, []byte(legacyState)))
	require.NoError(t, kv.Set(LegacyUsersKey, []byte(`{}`)))
	require.True(t, e.Migrate(ctx).Success)

	require.NoError(t, e.CleanupOldData())
	assert.Equal(t, StateCleaned, e.State())
	assert.False(t, kv.Has(LegacyStateKey))
	assert.False(t, kv.Has(LegacyUsersKey))
	assert.False(t, kv.Has(LegacySessionKey))

	// The marker survives cleanup, so no duplicate migration can ever run.
	assert.True(t, kv.Has(MarkerKey))
	assert.False(t, e.CheckForMigration())
}

func TestVerifyMigration_IgnoresNativeRecords(t *testing.T) {
	e, kv, store := setupEngine(t)
	ctx := context.Background()

	store.Save(ctx, storage.CollectionBoards, storage.Record{"id": "native", "user_id": "u1", "name": "Native"})
	require.NoError(t, kv.Set(LegacyStateKey, []byte(legacyState)))
	require.True(t, e.Migrate(ctx).Success)

	v := e.VerifyMigration(ctx)
	assert.Equal(t, 1, v.Boards, "native records carry no provenance tag")
	assert.Equal(t, 2, v.Total)
}
