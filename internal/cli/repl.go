package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	ListBoards(ctx context.Context) error
	AddBoard(ctx context.Context) error
	DeleteBoard(ctx context.Context, id string) error
	ListTasks(ctx context.Context, boardID string) error
	AddTask(ctx context.Context) error
	MoveTask(ctx context.Context, id, status string) error
	DeleteTask(ctx context.Context, id string) error
	ListNotes(ctx context.Context) error
	AddNote(ctx context.Context) error
	DeleteNote(ctx context.Context, id string) error
	ShowStats(ctx context.Context) error
	Export(ctx context.Context, path string) error
	Import(ctx context.Context, path string) error
	DBInfo(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the NoteYou shell.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("noteyou %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: boards, addboard, delboard, tasks, addtask, movetask, deltask,")
				printlnFn("  notes, addnote, delnote, stats, export, import, whoami, passwd, delaccount, dbinfo, logout, exit")
			} else {
				printlnFn("Available commands: register, login, dbinfo, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "passwd":
			_ = a.ChangePassword(ctx)

		case "delaccount":
			_ = a.DeleteAccount(ctx)

		case "b", "boards":
			_ = a.ListBoards(ctx)

		case "addboard":
			_ = a.AddBoard(ctx)

		case "delboard":
			if len(args) == 0 {
				printlnFn("Usage: delboard <id>")
				continue
			}
			_ = a.DeleteBoard(ctx, args[0])

		case "t", "tasks":
			if len(args) == 0 {
				printlnFn("Usage: tasks <board-id>")
				continue
			}
			_ = a.ListTasks(ctx, args[0])

		case "addtask":
			_ = a.AddTask(ctx)

		case "movetask":
			if len(args) < 2 {
				printlnFn("Usage: movetask <id> <todo|inprogress|done>")
				continue
			}
			_ = a.MoveTask(ctx, args[0], args[1])

		case "deltask":
			if len(args) == 0 {
				printlnFn("Usage: deltask <id>")
				continue
			}
			_ = a.DeleteTask(ctx, args[0])

		case "n", "notes":
			_ = a.ListNotes(ctx)

		case "addnote":
			_ = a.AddNote(ctx)

		case "delnote":
			if len(args) == 0 {
				printlnFn("Usage: delnote <id>")
				continue
			}
			_ = a.DeleteNote(ctx, args[0])

		case "stats":
			_ = a.ShowStats(ctx)

		case "export":
			if len(args) == 0 {
				printlnFn("Usage: export <file>")
				continue
			}
			_ = a.Export(ctx, args[0])

		case "import":
			if len(args) == 0 {
				printlnFn("Usage: import <file>")
				continue
			}
			_ = a.Import(ctx, args[0])

		case "dbinfo":
			_ = a.DBInfo(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
