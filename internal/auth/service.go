// Package auth implements local account management on top of the storage
// facade: registration, salted-digest login, session persistence, and
// credential updates. Failed logins always return the same error value so
// callers cannot distinguish unknown accounts from wrong passwords.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/noteyou/noteyou/internal/common"
	"github.com/noteyou/noteyou/internal/cryptox"
	"github.com/noteyou/noteyou/internal/localstore"
	"github.com/noteyou/noteyou/internal/logging"
	"github.com/noteyou/noteyou/internal/models"
	"github.com/noteyou/noteyou/internal/storage"
)

// SessionKey is the local-store key holding the sanitized session record.
const SessionKey = "noteyou_current_user"

const defaultMinPasswordLen = 6

// Service handles accounts and the single active session.
type Service struct {
	store          *storage.Store
	kv             *localstore.Store
	log            logging.Logger
	minPasswordLen int

	mu      sync.RWMutex
	current *models.SanitizedUser
}

// NewService constructs an auth service. minPasswordLen <= 0 selects the
// default minimum of 6 characters.
func NewService(store *storage.Store, kv *localstore.Store, minPasswordLen int, log logging.Logger) *Service {
	if minPasswordLen <= 0 {
		minPasswordLen = defaultMinPasswordLen
	}
	return &Service{
		store:          store,
		kv:             kv,
		log:            log,
		minPasswordLen: minPasswordLen,
	}
}

// Restore rehydrates the session persisted by a previous run. A missing key
// means no session; an unparsable record is discarded rather than surfaced
// as an error.
func (s *Service) Restore(ctx context.Context) {
	data, err := s.kv.Get(SessionKey)
	if err != nil {
		return
	}

	var session models.SanitizedUser
	if err := json.Unmarshal(data, &session); err != nil || session.ID == "" {
		s.log.Warn(ctx, "discarding corrupt session record", "error", err)
		_ = s.kv.Delete(SessionKey)
		return
	}

	// Rehydrate from the stored record as-is. The referenced user may not be
	// in the users collection yet (its record can still be sitting in the
	// legacy layout), so no existence check here; the persisted key also
	// stays in place for the migration engine to see.
	s.mu.Lock()
	s.current = &session
	s.mu.Unlock()
	s.log.Info(ctx, "session restored", "user_id", session.ID)
}

// Register creates an account and returns the sanitized user. It does not
// start a session; the caller logs in separately. Email comparison is
// case-insensitive; the stored email is lowercased.
func (s *Service) Register(ctx context.Context, email, name, password string) (*models.SanitizedUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := s.validateEmail(email); err != nil {
		return nil, err
	}
	if err := s.validatePassword(password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
	}

	existing := s.store.Load(ctx, storage.CollectionUsers, storage.Record{"email": email})
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: email already registered", common.ErrAlreadyExists)
	}

	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: cryptox.HashPassword(password, salt),
		Salt:         salt,
		CreatedAt:    models.Now(),
		IsActive:     true,
	}

	if res := s.store.Save(ctx, storage.CollectionUsers, user.ToRecord()); !res.Success {
		return nil, fmt.Errorf("saving user: %s", res.ErrorDetail)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user.Sanitize(), nil
}

// Login verifies credentials and starts a session. Unknown email, inactive
// account, and wrong password all yield the identical common.ErrUnauthorized.
func (s *Service) Login(ctx context.Context, email, password string) (*models.SanitizedUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	users := s.store.Load(ctx, storage.CollectionUsers, storage.Record{"email": email})
	if len(users) == 0 {
		return nil, common.ErrUnauthorized
	}

	user := models.UserFromRecord(users[0])
	if !user.IsActive {
		return nil, common.ErrUnauthorized
	}
	if !cryptox.VerifyPassword(password, user.Salt, user.PasswordHash) {
		return nil, common.ErrUnauthorized
	}

	user.LastLogin = models.Now()
	if res := s.store.Save(ctx, storage.CollectionUsers, user.ToRecord()); !res.Success {
		s.log.Warn(ctx, "recording last login failed", "user_id", user.ID, "error", res.ErrorDetail)
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return s.startSession(ctx, user)
}

// Logout clears the active session and its persisted record. Logging out
// without a session is not an error.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := s.kv.Delete(SessionKey); err != nil {
		return fmt.Errorf("removing session record: %w", err)
	}
	s.log.Info(ctx, "user logged out")
	return nil
}

// CurrentUser returns a copy of the active session's user, or nil.
func (s *Service) CurrentUser() *models.SanitizedUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

func (s *Service) IsLoggedIn() bool {
	return s.CurrentUser() != nil
}

// CurrentUserID returns the active user's id, or "" when nobody is logged in.
func (s *Service) CurrentUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.ID
}

// UpdateProfile changes the logged-in user's name and/or email. Empty
// arguments keep the current value. An email change must not collide with
// another account.
func (s *Service) UpdateProfile(ctx context.Context, name, email string) (*models.SanitizedUser, error) {
	user, err := s.loadCurrent(ctx)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		user.Name = name
	}
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" && email != user.Email {
		if err := s.validateEmail(email); err != nil {
			return nil, err
		}
		existing := s.store.Load(ctx, storage.CollectionUsers, storage.Record{"email": email})
		if len(existing) > 0 && existing[0].ID() != user.ID {
			return nil, fmt.Errorf("%w: email already registered", common.ErrAlreadyExists)
		}
		user.Email = email
	}

	if res := s.store.Save(ctx, storage.CollectionUsers, user.ToRecord()); !res.Success {
		return nil, fmt.Errorf("saving user: %s", res.ErrorDetail)
	}
	return s.startSession(ctx, user)
}

// userDataKeyPrefix names the per-user cached blob kept by the legacy
// layout. Account deletion removes it along with the account.
const userDataKeyPrefix = "noteyou_user_data_"

// DeleteAccount verifies the current password and removes the account with
// everything it owns: boards and their tasks, notes, the user record, the
// legacy per-user cached blob, and the active session. A wrong password
// yields common.ErrUnauthorized and deletes nothing.
func (s *Service) DeleteAccount(ctx context.Context, password string) error {
	user, err := s.loadCurrent(ctx)
	if err != nil {
		return err
	}
	if !cryptox.VerifyPassword(password, user.Salt, user.PasswordHash) {
		return common.ErrUnauthorized
	}

	boards := s.store.Load(ctx, storage.CollectionBoards, storage.Record{"user_id": user.ID})
	for _, board := range boards {
		tasks := s.store.Load(ctx, storage.CollectionTasks, storage.Record{"board_id": board.ID()})
		for _, task := range tasks {
			if res := s.store.Remove(ctx, storage.CollectionTasks, task.ID()); !res.Success {
				return fmt.Errorf("removing task %s: %s", task.ID(), res.ErrorDetail)
			}
		}
		if res := s.store.Remove(ctx, storage.CollectionBoards, board.ID()); !res.Success {
			return fmt.Errorf("removing board %s: %s", board.ID(), res.ErrorDetail)
		}
	}

	notes := s.store.Load(ctx, storage.CollectionNotes, storage.Record{"user_id": user.ID})
	for _, note := range notes {
		if res := s.store.Remove(ctx, storage.CollectionNotes, note.ID()); !res.Success {
			return fmt.Errorf("removing note %s: %s", note.ID(), res.ErrorDetail)
		}
	}

	if res := s.store.Remove(ctx, storage.CollectionUsers, user.ID); !res.Success {
		return fmt.Errorf("removing user: %s", res.ErrorDetail)
	}

	if err := s.kv.Delete(userDataKeyPrefix + user.Email); err != nil {
		s.log.Warn(ctx, "removing cached user data", "error", err)
	}

	s.log.Info(ctx, "account deleted", "user_id", user.ID)
	return s.Logout(ctx)
}

// ChangePassword verifies the current password and replaces the digest and
// salt. A wrong current password yields common.ErrUnauthorized.
func (s *Service) ChangePassword(ctx context.Context, current, replacement string) error {
	user, err := s.loadCurrent(ctx)
	if err != nil {
		return err
	}

	if !cryptox.VerifyPassword(current, user.Salt, user.PasswordHash) {
		return common.ErrUnauthorized
	}
	if err := s.validatePassword(replacement); err != nil {
		return err
	}

	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}
	user.Salt = salt
	user.PasswordHash = cryptox.HashPassword(replacement, salt)

	if res := s.store.Save(ctx, storage.CollectionUsers, user.ToRecord()); !res.Success {
		return fmt.Errorf("saving user: %s", res.ErrorDetail)
	}
	s.log.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

// loadCurrent fetches the full user record behind the active session.
func (s *Service) loadCurrent(ctx context.Context) (*models.User, error) {
	id := s.CurrentUserID()
	if id == "" {
		return nil, common.ErrUnauthorized
	}
	users := s.store.Load(ctx, storage.CollectionUsers, storage.Record{"id": id})
	if len(users) == 0 {
		return nil, common.ErrUnauthorized
	}
	return models.UserFromRecord(users[0]), nil
}

// startSession installs the user as the active session and persists the
// sanitized record so the next run can rehydrate it.
func (s *Service) startSession(ctx context.Context, user *models.User) (*models.SanitizedUser, error) {
	sanitized := user.Sanitize()

	s.mu.Lock()
	s.current = sanitized
	s.mu.Unlock()

	data, err := json.Marshal(sanitized)
	if err != nil {
		return nil, fmt.Errorf("encoding session record: %w", err)
	}
	if err := s.kv.Set(SessionKey, data); err != nil {
		return nil, fmt.Errorf("persisting session record: %w", err)
	}

	out := *sanitized
	return &out, nil
}

func (s *Service) validateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email is required", common.ErrValidation)
	}
	return nil
}

func (s *Service) validatePassword(password string) error {
	if len(password) < s.minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, s.minPasswordLen)
	}
	return nil
}
