package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_RecordRoundTrip(t *testing.T) {
	u := &User{
		ID:           "u1",
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: "digest",
		Salt:         "salt",
		CreatedAt:    Now(),
		IsActive:     true,
	}

	got := UserFromRecord(u.ToRecord())
	assert.Equal(t, u, got)
}

func TestUser_ToRecord_NullLastLogin(t *testing.T) {
	u := &User{ID: "u1", Email: "a@b.c", Name: "A", IsActive: true}
	rec := u.ToRecord()

	v, present := rec["last_login"]
	require.True(t, present)
	assert.Nil(t, v)
}

func TestUser_ToRecord_MigrationProvenance(t *testing.T) {
	u := &User{ID: "u1", Email: "a@b.c", Name: "A", Migrated: true, MigrationAt: "2024-01-01T00:00:00Z"}
	rec := u.ToRecord()

	assert.Equal(t, true, rec.Bool("migrated_from_old_system"))
	assert.Equal(t, "2024-01-01T00:00:00Z", rec.String("migration_date"))

	// Natively created users carry no provenance fields at all.
	native := &User{ID: "u2", Email: "b@b.c", Name: "B"}
	_, present := native.ToRecord()["migrated_from_old_system"]
	assert.False(t, present)
}

func TestUser_Sanitize_StripsCredentials(t *testing.T) {
	u := &User{ID: "u1", Email: "a@b.c", Name: "A", PasswordHash: "h", Salt: "s", IsActive: true}
	s := u.Sanitize()

	assert.Equal(t, "u1", s.ID)
	assert.Equal(t, "a@b.c", s.Email)
	assert.True(t, s.IsActive)
}

func TestTask_RecordRoundTrip(t *testing.T) {
	task := &Task{
		ID:       "t1",
		BoardID:  "b1",
		Title:    "Draft report",
		Status:   StatusTodo,
		Priority: PriorityMedium,
	}

	got := TaskFromRecord(task.ToRecord())
	assert.Equal(t, task, got)
}

func TestBoardAndNote_RecordRoundTrip(t *testing.T) {
	b := &Board{ID: "b1", UserID: "u1", Name: "Work", CreatedAt: Now(), UpdatedAt: Now()}
	assert.Equal(t, b, BoardFromRecord(b.ToRecord()))

	n := &Note{ID: "n1", UserID: "u1", Title: "Idea", Content: "text"}
	assert.Equal(t, n, NoteFromRecord(n.ToRecord()))
}
