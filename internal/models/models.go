// Package models defines the entities persisted through the storage facade
// and their conversions to and from the generic record shape. Timestamps are
// RFC3339 strings so records survive any backend round trip unchanged.
package models

import (
	"time"

	"github.com/noteyou/noteyou/internal/storage"
)

// Task status values.
const (
	StatusTodo       = "todo"
	StatusInProgress = "inprogress"
	StatusDone       = "done"
)

// Task priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Now returns the current time in the canonical record timestamp format.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Salt         string
	CreatedAt    string
	LastLogin    string
	IsActive     bool
	Migrated     bool
	MigrationAt  string
}

// SanitizedUser is a User stripped of credential material; this is the only
// user shape that leaves the auth boundary or gets persisted as the session
// record.
type SanitizedUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	LastLogin string `json:"last_login,omitempty"`
	IsActive  bool   `json:"is_active"`
}

// Sanitize strips the digest and salt.
func (u *User) Sanitize() *SanitizedUser {
	return &SanitizedUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
		IsActive:  u.IsActive,
	}
}

func (u *User) ToRecord() storage.Record {
	rec := storage.Record{
		"id":            u.ID,
		"email":         u.Email,
		"name":          u.Name,
		"password_hash": u.PasswordHash,
		"salt":          u.Salt,
		"created_at":    u.CreatedAt,
		"is_active":     u.IsActive,
	}
	if u.LastLogin != "" {
		rec["last_login"] = u.LastLogin
	} else {
		rec["last_login"] = nil
	}
	if u.Migrated {
		rec["migrated_from_old_system"] = true
		rec["migration_date"] = u.MigrationAt
	}
	return rec
}

func UserFromRecord(rec storage.Record) *User {
	return &User{
		ID:           rec.ID(),
		Email:        rec.String("email"),
		Name:         rec.String("name"),
		PasswordHash: rec.String("password_hash"),
		Salt:         rec.String("salt"),
		CreatedAt:    rec.String("created_at"),
		LastLogin:    rec.String("last_login"),
		IsActive:     rec.Bool("is_active"),
		Migrated:     rec.Bool("migrated_from_old_system"),
		MigrationAt:  rec.String("migration_date"),
	}
}

type Board struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt string
	UpdatedAt string
}

func (b *Board) ToRecord() storage.Record {
	return storage.Record{
		"id":         b.ID,
		"user_id":    b.UserID,
		"name":       b.Name,
		"created_at": b.CreatedAt,
		"updated_at": b.UpdatedAt,
	}
}

func BoardFromRecord(rec storage.Record) *Board {
	return &Board{
		ID:        rec.ID(),
		UserID:    rec.String("user_id"),
		Name:      rec.String("name"),
		CreatedAt: rec.String("created_at"),
		UpdatedAt: rec.String("updated_at"),
	}
}

type Task struct {
	ID          string
	BoardID     string
	Title       string
	Description string
	Status      string
	Priority    string
	Assignee    string
	CreatedAt   string
	UpdatedAt   string
}

func (t *Task) ToRecord() storage.Record {
	return storage.Record{
		"id":          t.ID,
		"board_id":    t.BoardID,
		"title":       t.Title,
		"description": t.Description,
		"status":      t.Status,
		"priority":    t.Priority,
		"assignee":    t.Assignee,
		"created_at":  t.CreatedAt,
		"updated_at":  t.UpdatedAt,
	}
}

func TaskFromRecord(rec storage.Record) *Task {
	return &Task{
		ID:          rec.ID(),
		BoardID:     rec.String("board_id"),
		Title:       rec.String("title"),
		Description: rec.String("description"),
		Status:      rec.String("status"),
		Priority:    rec.String("priority"),
		Assignee:    rec.String("assignee"),
		CreatedAt:   rec.String("created_at"),
		UpdatedAt:   rec.String("updated_at"),
	}
}

type Note struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	CreatedAt string
	UpdatedAt string
}

func (n *Note) ToRecord() storage.Record {
	return storage.Record{
		"id":         n.ID,
		"user_id":    n.UserID,
		"title":      n.Title,
		"content":    n.Content,
		"created_at": n.CreatedAt,
		"updated_at": n.UpdatedAt,
	}
}

func NoteFromRecord(rec storage.Record) *Note {
	return &Note{
		ID:        rec.ID(),
		UserID:    rec.String("user_id"),
		Title:     rec.String("title"),
		Content:   rec.String("content"),
		CreatedAt: rec.String("created_at"),
		UpdatedAt: rec.String("updated_at"),
	}
}
