package cli

import (
	"context"
	"fmt"
	"os"
)

// Export writes the active user's workspace to a backup file.
func (a *App) Export(ctx context.Context, path string) error {
	data, err := a.workspace.Export(ctx)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		printlnFn("Error:", err)
		return err
	}
	printlnFn("Exported to", path)
	return nil
}

// Import merges a backup file into the active user's workspace.
func (a *App) Import(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}

	summary, err := a.workspace.Import(ctx, data)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}
	printlnFn(fmt.Sprintf("Imported %d boards, %d tasks, %d notes",
		summary.Boards, summary.Tasks, summary.Notes))
	return nil
}

// ShowStats prints workspace counters.
func (a *App) ShowStats(ctx context.Context) error {
	stats, err := a.workspace.Stats(ctx)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}
	printlnFn(fmt.Sprintf("Boards: %d  Tasks: %d  Notes: %d", stats.Boards, stats.Tasks, stats.Notes))
	for status, n := range stats.TasksByStatus {
		printlnFn(fmt.Sprintf("  %s: %d", status, n))
	}
	return nil
}

// DBInfo prints the selected storage backend and its feature set.
func (a *App) DBInfo(ctx context.Context) error {
	info := a.store.Info()
	printlnFn("Backend:", info.Type)
	printlnFn("Initialized:", info.Initialized)
	for _, f := range info.Features {
		printlnFn("  -", f)
	}
	return nil
}
