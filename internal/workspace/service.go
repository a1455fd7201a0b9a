// Package workspace implements the board/task/note operations available to a
// logged-in user, plus export and import of a user's whole workspace. All
// operations are scoped to the active session's user; records belonging to
// other users are invisible.
package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/noteyou/noteyou/internal/common"
	"github.com/noteyou/noteyou/internal/logging"
	"github.com/noteyou/noteyou/internal/models"
	"github.com/noteyou/noteyou/internal/storage"
)

// Session exposes the active user. auth.Service satisfies it.
type Session interface {
	CurrentUserID() string
}

// Service carries out workspace operations against the storage facade.
type Service struct {
	store   *storage.Store
	session Session
	log     logging.Logger
}

func NewService(store *storage.Store, session Session, log logging.Logger) *Service {
	return &Service{store: store, session: session, log: log}
}

// owner returns the active user id or ErrUnauthorized when nobody is logged in.
func (s *Service) owner() (string, error) {
	id := s.session.CurrentUserID()
	if id == "" {
		return "", common.ErrUnauthorized
	}
	return id, nil
}

// CreateBoard adds a board owned by the active user.
func (s *Service) CreateBoard(ctx context.Context, name string) (*models.Board, error) {
	owner, err := s.owner()
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name == "" {
		return nil, fmt.Errorf("%w: board name is required", common.ErrValidation)
	}

	now := models.Now()
	board := &models.Board{
		ID:        uuid.NewString(),
		UserID:    owner,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if res := s.store.Save(ctx, storage.CollectionBoards, board.ToRecord()); !res.Success {
		return nil, fmt.Errorf("saving board: %s", res.ErrorDetail)
	}
	return board, nil
}

// Boards lists the active user's boards.
func (s *Service) Boards(ctx context.Context) ([]*models.Board, error) {
	owner, err := s.owner()
	if err != nil {
		return nil, err
	}
	recs := s.store.Load(ctx, storage.CollectionBoards, storage.Record{"user_id": owner})
	boards := make([]*models.Board, 0, len(recs))
	for _, rec := range recs {
		boards = append(boards, models.BoardFromRecord(rec))
	}
	return boards, nil
}

// Board fetches one of the active user's boards by id.
func (s *Service) Board(ctx context.Context, id string) (*models.Board, error) {
	owner, err := s.owner()
	if err != nil {
		return nil, err
	}
	recs := s.store.Load(ctx, storage.CollectionBoards, storage.Record{"id": id, "user_id": owner})
	if len(recs) == 0 {
		return nil, common.ErrNotFound
	}
	return models.BoardFromRecord(recs[0]), nil
}

// RenameBoard changes a board's name.
func (s *Service) RenameBoard(ctx context.Context, id, name string) (*models.Board, error) {
	board, err := s.Board(ctx, id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name == "" {
		return nil, fmt.Errorf("%w: board name is required", common.ErrValidation)
	}
	board.Name = name
	board.UpdatedAt = models.Now()
	if res := s.store.Save(ctx, storage.CollectionBoards, board.ToRecord()); !res.Success {
		return nil, fmt.Errorf("saving board: %s", res.ErrorDetail)
	}
	return board, nil
}

// DeleteBoard removes a board and every task on it.
func (s *Service) DeleteBoard(ctx context.Context, id string) error {
	board, err := s.Board(ctx, id)
	if err != nil {
		return err
	}

	tasks := s.store.Load(ctx, storage.CollectionTasks, storage.Record{"board_id": board.ID})
	for _, task := range tasks {
		if res := s.store.Remove(ctx, storage.CollectionTasks, task.ID()); !res.Success {
			return fmt.Errorf("removing task %s: %s", task.ID(), res.ErrorDetail)
		}
	}
	if res := s.store.Remove(ctx, storage.CollectionBoards, board.ID); !res.Success {
		return fmt.Errorf("removing board: %s", res.ErrorDetail)
	}

	s.log.Info(ctx, "board deleted", "board_id", board.ID, "cascaded_tasks", len(tasks))
	return nil
}

// CreateTask adds a task to one of the active user's boards. Empty status and
// priority take the defaults.
func (s *Service) CreateTask(ctx context.Context, boardID, title, description, priority string) (*models.Task, error) {
	if _, err := s.Board(ctx, boardID); err != nil {
		return nil, err
	}
	if title = strings.TrimSpace(title); title == "" {
		return nil, fmt.Errorf("%w: task title is required", common.ErrValidation)
	}
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !validPriority(priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", common.ErrValidation, priority)
	}

	now := models.Now()
	task := &models.Task{
		ID:          uuid.NewString(),
		BoardID:     boardID,
		Title:       title,
		Description: description,
		Status:      models.StatusTodo,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if res := s.store.Save(ctx, storage.CollectionTasks, task.ToRecord()); !res.Success {
		return nil, fmt.Errorf("saving task: %s", res.ErrorDetail)
	}
	return task, nil
}

// Tasks lists the tasks on one of the active user's boards.
func (s *Service) Tasks(ctx context.Context, boardID string) ([]*models.Task, error) {
	if _, err := s.Board(ctx, boardID); err != nil {
		return nil, err
	}
	recs := s.store.Load(ctx, storage.CollectionTasks, storage.Record{"board_id": boardID})
	tasks := make([]*models.Task, 0, len(recs))
	for _, rec := range recs {
		tasks = append(tasks, models.TaskFromRecord(rec))
	}
	return tasks, nil
}

// Task fetches a task by id, enforcing board ownership.
func (s *Service) Task(ctx context.Context, id string) (*models.Task, error) {
	if _, err := s.owner(); err != nil {
		return nil, err
	}
	recs := s.store.Load(ctx, storage.CollectionTasks, storage.Record{"id": id})
	if len(recs) == 0 {
		return nil, common.ErrNotFound
	}
	task := models.TaskFromRecord(recs[0])
	if _, err := s.Board(ctx, task.BoardID); err != nil {
		return nil, common.ErrNotFound
	}
	return task, nil
}

// TaskUpdate carries the mutable task fields; empty strings keep the current
// value.
type TaskUpdate struct {
	Title       string
	Description string
	Priority    string
	Assignee    string
}

// UpdateTask applies a partial update to a task.
func (s *Service) UpdateTask(ctx context.Context, id string, upd TaskUpdate) (*models.Task, error) {
	task, err := s.Task(ctx, id)
	if err != nil {
		return nil, err
	}

	if t := strings.TrimSpace(upd.Title); t != "" {
		task.Title = t
	}
	if upd.Description != "" {
		task.Description = upd.Description
	}
	if upd.Priority != "" {
		if !validPriority(upd.Priority) {
			return nil, fmt.Errorf("%w: unknown priority %q", common.ErrValidation, upd.Priority)
		}
		task.Priority = upd.Priority
	}
	if upd.Assignee != "" {
		task.Assignee = upd.Assignee
	}
	task.UpdatedAt = models.Now()

	if res := s.store.Save(ctx, storage.CollectionTasks, task.ToRecord()); !res.Success {
		return nil, fmt.Errorf("saving task: %s", res.ErrorDetail)
	}
	return task, nil
}

// MoveTask changes a task's status.
func (s *Service) MoveTask(ctx context.Context, id, status string) (*models.Task, error) {
	if !validStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrValidation, status)
	}
	task, err := s.Task(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Status = status
	task.UpdatedAt = models.Now()
	if res := s.store.Save(ctx, storage.CollectionTasks, task.ToRecord()); !res.Success {
		return nil, fmt.Errorf("saving task: %s", res.ErrorDetail)
	}
	return task, nil
}

// DeleteTask removes a single task.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	task, err := s.Task(ctx, id)
	if err != nil {
		return err
	}
	if res := s.store.Remove(ctx, storage.CollectionTasks, task.ID); !res.Success {
		return fmt.Errorf("removing task: %s", res.ErrorDetail)
	}
	return nil
}

// CreateNote adds a note owned by the active user.
func (s *Service) CreateNote(ctx context.Context, title, content string) (*models.Note, error) {
	owner, err := s.owner()
	if err != nil {
		return nil, err
	}
	if title = strings.TrimSpace(title); title == "" {
		return nil, fmt.Errorf("%w: note title is required", common.ErrValidation)
	}

	now := models.Now()
	note := &models.Note{
		ID:        uuid.NewString(),
		UserID:    owner,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if res := s.store.Save(ctx, storage.CollectionNotes, note.ToRecord()); !res.Success {
		return nil, fmt.Errorf("saving note: %s", res.ErrorDetail)
	}
	return note, nil
}

// Notes lists the active user's notes.
func (s *Service) Notes(ctx context.Context) ([]*models.Note, error) {
	owner, err := s.owner()
	if err != nil {
		return nil, err
	}
	recs := s.store.Load(ctx, storage.CollectionNotes, storage.Record{"user_id": owner})
	notes := make([]*models.Note, 0, len(recs))
	for _, rec := range recs {
		notes = append(notes, models.NoteFromRecord(rec))
	}
	return notes, nil
}

// Note fetches one of the active user's notes by id.
func (s *Service) Note(ctx context.Context, id string) (*models.Note, error) {
	owner, err := s.owner()
	if err != nil {
		return nil, err
	}
	recs := s.store.Load(ctx, storage.CollectionNotes, storage.Record{"id": id, "user_id": owner})
	if len(recs) == 0 {
		return nil, common.ErrNotFound
	}
	return models.NoteFromRecord(recs[0]), nil
}

// UpdateNote changes a note's title and/or content; empty title keeps the
// current one.
func (s *Service) UpdateNote(ctx context.Context, id, title, content string) (*models.Note, error) {
	note, err := s.Note(ctx, id)
	if err != nil {
		return nil, err
	}
	if title = strings.TrimSpace(title); title != "" {
		note.Title = title
	}
	note.Content = content
	note.UpdatedAt = models.Now()
	if res := s.store.Save(ctx, storage.CollectionNotes, note.ToRecord()); !res.Success {
		return nil, fmt.Errorf("saving note: %s", res.ErrorDetail)
	}
	return note, nil
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	note, err := s.Note(ctx, id)
	if err != nil {
		return err
	}
	if res := s.store.Remove(ctx, storage.CollectionNotes, note.ID); !res.Success {
		return fmt.Errorf("removing note: %s", res.ErrorDetail)
	}
	return nil
}

// Stats summarizes the active user's workspace.
type Stats struct {
	Boards        int
	Tasks         int
	Notes         int
	TasksByStatus map[string]int
}

// Stats counts the active user's boards, tasks per status, and notes.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	boards, err := s.Boards(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Boards:        len(boards),
		TasksByStatus: map[string]int{},
	}
	for _, board := range boards {
		tasks := s.store.Load(ctx, storage.CollectionTasks, storage.Record{"board_id": board.ID})
		stats.Tasks += len(tasks)
		for _, rec := range tasks {
			stats.TasksByStatus[rec.String("status")]++
		}
	}

	notes := s.store.Load(ctx, storage.CollectionNotes, storage.Record{"user_id": s.session.CurrentUserID()})
	stats.Notes = len(notes)
	return stats, nil
}

func validStatus(v string) bool {
	switch v {
	case models.StatusTodo, models.StatusInProgress, models.StatusDone:
		return true
	}
	return false
}

func validPriority(v string) bool {
	switch v {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return true
	}
	return false
}
