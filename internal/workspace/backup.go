package workspace

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/noteyou/noteyou/internal/common"
	"github.com/noteyou/noteyou/internal/models"
	"github.com/noteyou/noteyou/internal/storage"
)

// BackupVersion is the only backup format this build reads and writes.
const BackupVersion = "3.0"

// Backup is the export document: the active user's whole workspace plus a
// format version and timestamp.
type Backup struct {
	Version    string           `json:"version"`
	ExportDate string           `json:"exportDate"`
	Boards     []storage.Record `json:"boards"`
	Tasks      []storage.Record `json:"tasks"`
	Notes      []storage.Record `json:"notes"`
}

// ImportSummary reports how many records an import created.
type ImportSummary struct {
	Boards int
	Tasks  int
	Notes  int
}

// Export serializes the active user's boards, tasks and notes.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	owner, err := s.owner()
	if err != nil {
		return nil, err
	}

	backup := Backup{
		Version:    BackupVersion,
		ExportDate: models.Now(),
		Boards:     s.store.Load(ctx, storage.CollectionBoards, storage.Record{"user_id": owner}),
		Tasks:      []storage.Record{},
		Notes:      s.store.Load(ctx, storage.CollectionNotes, storage.Record{"user_id": owner}),
	}
	for _, board := range backup.Boards {
		backup.Tasks = append(backup.Tasks, s.store.Load(ctx, storage.CollectionTasks, storage.Record{"board_id": board.ID()})...)
	}

	return json.MarshalIndent(backup, "", "  ")
}

// Import replaces the active user's workspace with the backup's contents.
// Every record gets a fresh id and the active user as owner; task board
// references are remapped to the new board ids. The document is validated in
// full before anything is touched, so a malformed backup changes nothing.
func (s *Service) Import(ctx context.Context, data []byte) (*ImportSummary, error) {
	owner, err := s.owner()
	if err != nil {
		return nil, err
	}

	var backup Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		return nil, fmt.Errorf("%w: not a valid backup document: %v", common.ErrValidation, err)
	}
	if backup.Version != BackupVersion {
		return nil, fmt.Errorf("%w: unsupported backup version %q", common.ErrValidation, backup.Version)
	}
	if backup.Boards == nil || backup.Tasks == nil || backup.Notes == nil {
		return nil, fmt.Errorf("%w: backup must contain boards, tasks and notes", common.ErrValidation)
	}

	now := models.Now()
	boardIDs := make(map[string]string, len(backup.Boards))

	boards := make([]storage.Record, 0, len(backup.Boards))
	for i, rec := range backup.Boards {
		if rec.String("name") == "" {
			return nil, fmt.Errorf("%w: board %d has no name", common.ErrValidation, i)
		}
		fresh := rec.Clone()
		boardIDs[rec.ID()] = uuid.NewString()
		fresh["id"] = boardIDs[rec.ID()]
		fresh["user_id"] = owner
		fresh["updated_at"] = now
		boards = append(boards, fresh)
	}

	tasks := make([]storage.Record, 0, len(backup.Tasks))
	for i, rec := range backup.Tasks {
		if rec.String("title") == "" {
			return nil, fmt.Errorf("%w: task %d has no title", common.ErrValidation, i)
		}
		newBoardID, ok := boardIDs[rec.String("board_id")]
		if !ok {
			return nil, fmt.Errorf("%w: task %d references a board missing from the backup", common.ErrValidation, i)
		}
		fresh := rec.Clone()
		fresh["id"] = uuid.NewString()
		fresh["board_id"] = newBoardID
		fresh["updated_at"] = now
		tasks = append(tasks, fresh)
	}

	notes := make([]storage.Record, 0, len(backup.Notes))
	for i, rec := range backup.Notes {
		if rec.String("title") == "" {
			return nil, fmt.Errorf("%w: note %d has no title", common.ErrValidation, i)
		}
		fresh := rec.Clone()
		fresh["id"] = uuid.NewString()
		fresh["user_id"] = owner
		fresh["updated_at"] = now
		notes = append(notes, fresh)
	}

	// The backup replaces the workspace wholesale. Everything the user owns
	// goes first, so importing the same document twice yields one copy.
	for _, old := range s.store.Load(ctx, storage.CollectionBoards, storage.Record{"user_id": owner}) {
		for _, task := range s.store.Load(ctx, storage.CollectionTasks, storage.Record{"board_id": old.ID()}) {
			if res := s.store.Remove(ctx, storage.CollectionTasks, task.ID()); !res.Success {
				return nil, fmt.Errorf("clearing task before import: %s", res.ErrorDetail)
			}
		}
		if res := s.store.Remove(ctx, storage.CollectionBoards, old.ID()); !res.Success {
			return nil, fmt.Errorf("clearing board before import: %s", res.ErrorDetail)
		}
	}
	for _, old := range s.store.Load(ctx, storage.CollectionNotes, storage.Record{"user_id": owner}) {
		if res := s.store.Remove(ctx, storage.CollectionNotes, old.ID()); !res.Success {
			return nil, fmt.Errorf("clearing note before import: %s", res.ErrorDetail)
		}
	}

	summary := &ImportSummary{}
	for _, rec := range boards {
		if res := s.store.Save(ctx, storage.CollectionBoards, rec); !res.Success {
			return summary, fmt.Errorf("saving imported board: %s", res.ErrorDetail)
		}
		summary.Boards++
	}
	for _, rec := range tasks {
		if res := s.store.Save(ctx, storage.CollectionTasks, rec); !res.Success {
			return summary, fmt.Errorf("saving imported task: %s", res.ErrorDetail)
		}
		summary.Tasks++
	}
	for _, rec := range notes {
		if res := s.store.Save(ctx, storage.CollectionNotes, rec); !res.Success {
			return summary, fmt.Errorf("saving imported note: %s", res.ErrorDetail)
		}
		summary.Notes++
	}

	s.log.Info(ctx, "backup imported",
		"boards", summary.Boards, "tasks", summary.Tasks, "notes", summary.Notes)
	return summary, nil
}
