package cli

import (
	"context"
	"fmt"
	"os"
)

// ListTasks prints the tasks on a board.
func (a *App) ListTasks(ctx context.Context, boardID string) error {
	tasks, err := a.workspace.Tasks(ctx, boardID)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}
	if len(tasks) == 0 {
		printlnFn("No tasks on this board")
		return nil
	}
	for _, t := range tasks {
		line := fmt.Sprintf("%s  [%s/%s]  %s", t.ID, t.Status, t.Priority, t.Title)
		if t.Assignee != "" {
			line += "  @" + t.Assignee
		}
		printlnFn(line)
	}
	return nil
}

// AddTask prompts for the task fields and creates it.
func (a *App) AddTask(ctx context.Context) error {
	boardID, err := getSimpleText(a.reader, "Board id", os.Stdout)
	if err != nil {
		return err
	}
	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	description, err := GetMultiline(a.reader, "Description", os.Stdout)
	if err != nil {
		return err
	}
	priority, err := getSimpleText(a.reader, "Priority (low/medium/high, empty for medium)", os.Stdout)
	if err != nil {
		return err
	}

	task, err := a.workspace.CreateTask(ctx, boardID, title, description, priority)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}
	printlnFn("Created task", task.ID)
	return nil
}

// MoveTask changes a task's status.
func (a *App) MoveTask(ctx context.Context, id, status string) error {
	task, err := a.workspace.MoveTask(ctx, id, status)
	if err != nil {
		printlnFn("Error:", err)
		return err
	}
	printlnFn("Task", task.ID, "is now", task.Status)
	return nil
}

// DeleteTask removes a task.
func (a *App) DeleteTask(ctx context.Context, id string) error {
	if err := a.workspace.DeleteTask(ctx, id); err != nil {
		printlnFn("Error:", err)
		return err
	}
	printlnFn("Task deleted")
	return nil
}
