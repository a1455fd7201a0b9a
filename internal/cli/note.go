package cli

import (
	"context"
	"fmt"
	"os"
)

// ListNotes prints the active user's notes.
func (a *App) ListNotes(ctx context.Context) error {
	notes, err := a.workspace.Notes(ctx)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}
	if len(notes) == 0 {
		printlnFn("No notes yet; use 'addnote'")
		return nil
	}
	for _, n := range notes {
		printlnFn(fmt.Sprintf("%s  %s", n.ID, n.Title))
	}
	return nil
}

// AddNote prompts for a title and body and creates the note.
func (a *App) AddNote(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	content, err := GetMultiline(a.reader, "Content", os.Stdout)
	if err != nil {
		return err
	}

	note, err := a.workspace.CreateNote(ctx, title, content)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}
	printlnFn("Created note", note.ID)
	return nil
}

// DeleteNote removes a note.
func (a *App) DeleteNote(ctx context.Context, id string) error {
	if err := a.workspace.DeleteNote(ctx, id); err != nil {
		printlnFn("Error:", err)
		return err
	}
	printlnFn("Note deleted")
	return nil
}
