package cli

import (
	"context"
	"fmt"
	"os"
)

// ListBoards prints the active user's boards.
func (a *App) ListBoards(ctx context.Context) error {
	boards, err := a.workspace.Boards(ctx)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}
	if len(boards) == 0 {
		printlnFn("No boards yet; use 'addboard'")
		return nil
	}
	for _, b := range boards {
		printlnFn(fmt.Sprintf("%s  %s", b.ID, b.Name))
	}
	return nil
}

// AddBoard prompts for a name and creates a board.
func (a *App) AddBoard(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Board name", os.Stdout)
	if err != nil {
		return err
	}

	board, err := a.workspace.CreateBoard(ctx, name)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}
	printlnFn("Created board", board.ID)
	return nil
}

// DeleteBoard removes a board and its tasks.
func (a *App) DeleteBoard(ctx context.Context, id string) error {
	if err := a.workspace.DeleteBoard(ctx, id); err != nil {
		printlnFn("Error:", err)
		return err
	}
	printlnFn("Board deleted")
	return nil
}
