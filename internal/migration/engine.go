// Package migration moves records out of the legacy flat-state layout into
// the per-collection layout served by the storage facade. It runs at most
// once per installation, is safe to re-check at every startup, and never
// loses data on partial failure: the completion marker is only persisted
// after a fully successful pass.
package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noteyou/noteyou/internal/common"
	"github.com/noteyou/noteyou/internal/localstore"
	"github.com/noteyou/noteyou/internal/logging"
	"github.com/noteyou/noteyou/internal/models"
	"github.com/noteyou/noteyou/internal/storage"
)

// Legacy persistence keys of the pre-migration layout, plus the marker that
// gates re-migration.
const (
	LegacyStateKey   = "noteyou_v3_state"
	LegacyUsersKey   = "noteyou_local_users"
	LegacySessionKey = "noteyou_current_user"
	MarkerKey        = "noteyou_migration_completed"
)

// PlaceholderOwner is attached to legacy records when no session is active.
const PlaceholderOwner = "migrated_user"

// State of the engine. Terminal states are StateNoMigrationNeeded,
// StateCleaned and StateFailed.
type State string

const (
	StateNotChecked        State = "NOT_CHECKED"
	StateNoMigrationNeeded State = "NO_MIGRATION_NEEDED"
	StateNeeded            State = "NEEDED"
	StateInProgress        State = "IN_PROGRESS"
	StateCompleted         State = "COMPLETED"
	StateCleaned           State = "CLEANED"
	StateFailed            State = "FAILED"
)

// SessionSource yields the id of the currently logged-in user, or "" when no
// session is active. The auth service satisfies this interface.
type SessionSource interface {
	CurrentUserID() string
}

// Summary counts the records written during one migration pass.
type Summary struct {
	Users     int    `json:"users"`
	Boards    int    `json:"boards"`
	Tasks     int    `json:"tasks"`
	Notes     int    `json:"notes"`
	Timestamp string `json:"timestamp"`
}

// Result reports the outcome of Migrate.
type Result struct {
	Success       bool
	Message       string
	MigratedItems *Summary
}

// Verification is the read-only count of provenance-tagged records per
// collection.
type Verification struct {
	Users  int
	Boards int
	Tasks  int
	Notes  int
	Total  int
}

type Engine struct {
	kv      *localstore.Store
	store   *storage.Store
	session SessionSource
	log     logging.Logger

	state     State
	completed bool
}

func NewEngine(kv *localstore.Store, store *storage.Store, session SessionSource, log logging.Logger) *Engine {
	return &Engine{
		kv:      kv,
		store:   store,
		session: session,
		log:     log.With("component", "migration"),
		state:   StateNotChecked,
	}
}

// State returns the engine's current position in the migration lifecycle.
func (e *Engine) State() State {
	return e.state
}

// CheckForMigration reports whether a migration pass is required: no
// completion marker persisted AND at least one legacy key present. Once the
// marker exists the check is false forever, so a session record living under
// the legacy session key cannot retrigger it. The check is side-effect-free
// and repeatable.
func (e *Engine) CheckForMigration() bool {
	if e.kv.Has(MarkerKey) {
		e.state = StateNoMigrationNeeded
		return false
	}

	hasOldData := e.kv.Has(LegacyStateKey) || e.kv.Has(LegacyUsersKey) || e.kv.Has(LegacySessionKey)
	if hasOldData {
		e.state = StateNeeded
		return true
	}

	e.state = StateNoMigrationNeeded
	return false
}

// Migrate runs the full migration pass. A second invocation within the same
// process is a cheap no-op returning success. A single record that fails to
// migrate is logged and skipped; only a structurally unparsable legacy
// container aborts the pass and leaves the marker unset for a retry.
func (e *Engine) Migrate(ctx context.Context) Result {
	if e.completed {
		return Result{Success: true, Message: "migration already completed"}
	}

	e.state = StateInProgress
	summary := &Summary{}

	if err := e.migrateUsers(ctx, summary); err != nil {
		e.state = StateFailed
		e.log.Error(ctx, "migration failed", "step", "users", "error", err)
		return Result{Success: false, Message: fmt.Sprintf("migration failed: %v", err)}
	}

	if err := e.migrateAppData(ctx, summary); err != nil {
		e.state = StateFailed
		e.log.Error(ctx, "migration failed", "step", "app data", "error", err)
		return Result{Success: false, Message: fmt.Sprintf("migration failed: %v", err)}
	}

	summary.Timestamp = models.Now()
	if err := e.kv.Set(MarkerKey, []byte(fmt.Sprintf("%q", summary.Timestamp))); err != nil {
		e.state = StateFailed
		e.log.Error(ctx, "persisting completion marker failed", "error", err)
		return Result{Success: false, Message: fmt.Sprintf("migration failed: %v", err)}
	}

	e.completed = true
	e.state = StateCompleted
	e.log.Info(ctx, "migration completed",
		"users", summary.Users, "boards", summary.Boards, "tasks", summary.Tasks, "notes", summary.Notes)

	return Result{Success: true, Message: "migration completed", MigratedItems: summary}
}

// migrateUsers converts the legacy local-user map (keyed by email) into
// users collection records. Emails already registered are left alone.
func (e *Engine) migrateUsers(ctx context.Context, summary *Summary) error {
	data, err := e.kv.Get(LegacyUsersKey)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}

	var users map[string]map[string]any
	if err := json.Unmarshal(data, &users); err != nil {
		return fmt.Errorf("parse legacy users: %w", err)
	}

	now := models.Now()
	for email, legacy := range users {
		email = strings.ToLower(email)

		existing := e.store.Load(ctx, storage.CollectionUsers, storage.Record{"email": email})
		if len(existing) > 0 {
			continue
		}

		rec := storage.Record{
			"id":                       stringOr(legacy["id"], synthesizeID("user")),
			"email":                    email,
			"name":                     stringOr(legacy["name"], "Migrated User"),
			"password_hash":            stringOr(legacy["password"], ""),
			"salt":                     stringOr(legacy["salt"], ""),
			"created_at":               stringOr(legacy["createdAt"], now),
			"last_login":               legacy["lastLogin"],
			"is_active":                legacy["isActive"] != false,
			"migrated_from_old_system": true,
			"migration_date":           now,
		}

		if res := e.store.Save(ctx, storage.CollectionUsers, rec); !res.Success {
			e.log.Warn(ctx, "skipping user that failed to migrate", "email", email, "error", res.ErrorDetail)
			continue
		}
		summary.Users++
	}

	return nil
}

// migrateAppData converts the legacy flat state (boards/tasks/notes maps)
// into per-collection records, attaching the active session's user id as
// owner, or a placeholder when nobody is logged in.
func (e *Engine) migrateAppData(ctx context.Context, summary *Summary) error {
	data, err := e.kv.Get(LegacyStateKey)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}

	var state struct {
		Boards map[string]map[string]any `json:"boards"`
		Tasks  map[string]map[string]any `json:"tasks"`
		Notes  map[string]map[string]any `json:"notes"`
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("parse legacy state: %w", err)
	}

	owner := e.ownerID()
	now := models.Now()

	for _, legacy := range state.Boards {
		rec := storage.Record{
			"id":                       stringOr(legacy["id"], synthesizeID("board")),
			"user_id":                  owner,
			"name":                     stringOr(legacy["name"], "Migrated Board"),
			"created_at":               stringOr(legacy["createdAt"], now),
			"updated_at":               stringOr(legacy["updatedAt"], now),
			"migrated_from_old_system": true,
			"migration_date":           now,
		}
		if res := e.store.Save(ctx, storage.CollectionBoards, rec); !res.Success {
			e.log.Warn(ctx, "skipping board that failed to migrate", "id", rec.ID(), "error", res.ErrorDetail)
			continue
		}
		summary.Boards++
	}

	for _, legacy := range state.Tasks {
		rec := storage.Record{
			"id":                       stringOr(legacy["id"], synthesizeID("task")),
			"board_id":                 stringOr(legacy["boardId"], "migrated_board"),
			"title":                    stringOr(legacy["title"], "Migrated Task"),
			"description":              stringOr(legacy["description"], ""),
			"status":                   stringOr(legacy["status"], models.StatusTodo),
			"priority":                 stringOr(legacy["priority"], models.PriorityMedium),
			"assignee":                 stringOr(legacy["assignee"], ""),
			"created_at":               stringOr(legacy["createdAt"], now),
			"updated_at":               stringOr(legacy["updatedAt"], now),
			"migrated_from_old_system": true,
			"migration_date":           now,
		}
		if res := e.store.Save(ctx, storage.CollectionTasks, rec); !res.Success {
			e.log.Warn(ctx, "skipping task that failed to migrate", "id", rec.ID(), "error", res.ErrorDetail)
			continue
		}
		summary.Tasks++
	}

	for _, legacy := range state.Notes {
		rec := storage.Record{
			"id":                       stringOr(legacy["id"], synthesizeID("note")),
			"user_id":                  owner,
			"title":                    stringOr(legacy["title"], "Migrated Note"),
			"content":                  stringOr(legacy["content"], ""),
			"created_at":               stringOr(legacy["createdAt"], now),
			"updated_at":               stringOr(legacy["updatedAt"], now),
			"migrated_from_old_system": true,
			"migration_date":           now,
		}
		if res := e.store.Save(ctx, storage.CollectionNotes, rec); !res.Success {
			e.log.Warn(ctx, "skipping note that failed to migrate", "id", rec.ID(), "error", res.ErrorDetail)
			continue
		}
		summary.Notes++
	}

	return nil
}

// VerifyMigration counts provenance-tagged records per collection. It is
// read-only and repeatable.
func (e *Engine) VerifyMigration(ctx context.Context) Verification {
	filter := storage.Record{"migrated_from_old_system": true}

	v := Verification{
		Users:  len(e.store.Load(ctx, storage.CollectionUsers, filter)),
		Boards: len(e.store.Load(ctx, storage.CollectionBoards, filter)),
		Tasks:  len(e.store.Load(ctx, storage.CollectionTasks, filter)),
		Notes:  len(e.store.Load(ctx, storage.CollectionNotes, filter)),
	}
	v.Total = v.Users + v.Boards + v.Tasks + v.Notes
	return v
}

// CleanupOldData removes the legacy keys. Only call after a successful
// Migrate; the caller schedules it after a grace period so verification can
// still read legacy data. A failure here is non-fatal: the completed marker
// already prevents re-migration, and a future run can retry the deletion.
func (e *Engine) CleanupOldData() error {
	for _, key := range []string{LegacyStateKey, LegacyUsersKey, LegacySessionKey} {
		if err := e.kv.Delete(key); err != nil {
			return fmt.Errorf("cleanup %s: %w", key, err)
		}
	}
	if e.state == StateCompleted {
		e.state = StateCleaned
	}
	return nil
}

func (e *Engine) ownerID() string {
	if e.session != nil {
		if id := e.session.CurrentUserID(); id != "" {
			return id
		}
	}
	return PlaceholderOwner
}

// stringOr returns v when it is a non-empty string, else fallback.
func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// synthesizeID builds an identifier for a legacy record that has none:
// unique within the process, which is enough for a once-per-installation
// migration.
func synthesizeID(kind string) string {
	suffix, err := common.MakeRandHexString(4)
	if err != nil {
		suffix = "0"
	}
	return fmt.Sprintf("%s_%d_%s", kind, time.Now().UnixMilli(), suffix)
}
