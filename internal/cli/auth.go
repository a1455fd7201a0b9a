package cli

import (
	"context"
	"os"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email, display name and password and creates a new
// account. The user signs in afterwards with the login command.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter display name", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}

	user, err := a.auth.Register(ctx, email, name, password)
	if err != nil {
		printlnFn("Registration failed:", err)
		return err
	}

	printlnFn("Account created for", user.Email, "- use 'login' to sign in")
	return nil
}

// Login prompts for credentials and starts a session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}

	user, err := a.auth.Login(ctx, email, password)
	if err != nil {
		printlnFn("Login failed:", err)
		return err
	}

	printlnFn("Welcome back,", user.Name)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		printlnFn("Logout failed:", err)
		return err
	}
	printlnFn("Logged out")
	return nil
}

// WhoAmI prints the active session's user.
func (a *App) WhoAmI(ctx context.Context) error {
	u := a.auth.CurrentUser()
	if u == nil {
		printlnFn("Not logged in")
		return nil
	}
	printlnFn(u.Name, "<"+u.Email+">")
	if u.LastLogin != "" {
		printlnFn("Last login:", u.LastLogin)
	}
	return nil
}

// DeleteAccount asks for confirmation and the password, then removes the
// account together with all of its boards, tasks and notes.
func (a *App) DeleteAccount(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "Delete this account and all its data? (yes/no)", os.Stdout)
	if err != nil {
		return err
	}
	if answer != "yes" {
		printlnFn("Aborted")
		return nil
	}
	password, err := getPassword(os.Stdout, "Enter password to confirm")
	if err != nil {
		return err
	}

	if err := a.auth.DeleteAccount(ctx, password); err != nil {
		printlnFn("Account deletion failed:", err)
		return err
	}
	printlnFn("Account deleted")
	return nil
}

// ChangePassword prompts for the current and replacement passwords.
func (a *App) ChangePassword(ctx context.Context) error {
	current, err := getPassword(os.Stdout, "Current password")
	if err != nil {
		return err
	}
	replacement, err := getPassword(os.Stdout, "New password")
	if err != nil {
		return err
	}

	if err := a.auth.ChangePassword(ctx, current, replacement); err != nil {
		printlnFn("Password change failed:", err)
		return err
	}
	printlnFn("Password changed")
	return nil
}
