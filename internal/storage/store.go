package storage

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/noteyou/noteyou/internal/common"
	"github.com/noteyou/noteyou/internal/logging"
)

// readyPollInterval is how often AwaitReady re-checks the selection flag.
const readyPollInterval = 50 * time.Millisecond

// Result is the uniform success/failure shape returned to CRUD callers.
type Result struct {
	Success     bool
	ErrorDetail string
}

// Info describes the active backend for diagnostics.
type Info struct {
	Type        string
	Initialized bool
	Features    []string
}

// Store selects one backend driver at startup and exposes the save/load/
// remove contract over it. A single long-lived instance is constructed at
// process start and injected into every collaborator; the active driver is
// never swapped mid-session.
type Store struct {
	candidates []Driver
	active     Driver
	ready      atomic.Bool
	log        logging.Logger
}

// NewStore builds a facade over the candidate drivers, listed in descending
// preference order.
func NewStore(log logging.Logger, candidates ...Driver) *Store {
	return &Store{candidates: candidates, log: log}
}

// Initialize probes the candidates in order and activates the first one
// whose Init succeeds. Probing stops at the first success; a candidate that
// fails here is never retried. Only total exhaustion is an error, and the
// flat-map driver is defined to always succeed given a writable data dir.
func (s *Store) Initialize(ctx context.Context) error {
	for _, candidate := range s.candidates {
		caps := candidate.Capabilities()
		if err := candidate.Init(ctx); err != nil {
			s.log.Warn(ctx, "backend unavailable, falling back", "type", caps.Type, "error", err)
			continue
		}
		s.active = candidate
		s.ready.Store(true)
		s.log.Info(ctx, "backend selected", "type", caps.Type)
		return nil
	}
	return errors.New("no storage backend available")
}

// AwaitReady suspends the caller until a backend has been selected. Waiting
// is cooperative with a short polling interval, not a busy-loop, and stops
// when ctx is cancelled.
func (s *Store) AwaitReady(ctx context.Context) error {
	if s.ready.Load() {
		return nil
	}
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.ready.Load() {
				return nil
			}
		}
	}
}

// Save upserts the record into collection. Driver failures are logged and
// surfaced as an unsuccessful Result, never as a panic.
func (s *Store) Save(ctx context.Context, collection string, rec Record) Result {
	if err := s.AwaitReady(ctx); err != nil {
		return Result{Success: false, ErrorDetail: common.ErrNotInitialized.Error()}
	}
	if err := s.active.Put(ctx, collection, rec); err != nil {
		s.log.Error(ctx, "save failed", "collection", collection, "error", err)
		return Result{Success: false, ErrorDetail: err.Error()}
	}
	return Result{Success: true}
}

// Load returns the records of collection matching filter. The result is
// always a non-nil slice; a driver failure is logged and yields an empty
// one, keeping callers filter-safe.
func (s *Store) Load(ctx context.Context, collection string, filter Record) []Record {
	if err := s.AwaitReady(ctx); err != nil {
		return []Record{}
	}
	records, err := s.active.QueryAll(ctx, collection, filter)
	if err != nil {
		s.log.Error(ctx, "load failed", "collection", collection, "error", err)
		return []Record{}
	}
	if records == nil {
		records = []Record{}
	}
	return records
}

// Remove deletes the record with the given id; removing an absent id
// succeeds.
func (s *Store) Remove(ctx context.Context, collection string, id string) Result {
	if err := s.AwaitReady(ctx); err != nil {
		return Result{Success: false, ErrorDetail: common.ErrNotInitialized.Error()}
	}
	if err := s.active.DeleteByID(ctx, collection, id); err != nil {
		s.log.Error(ctx, "remove failed", "collection", collection, "id", id, "error", err)
		return Result{Success: false, ErrorDetail: err.Error()}
	}
	return Result{Success: true}
}

// Info reports which backend is active. Diagnostics only.
func (s *Store) Info() Info {
	if !s.ready.Load() {
		return Info{Initialized: false}
	}
	caps := s.active.Capabilities()
	return Info{Type: caps.Type, Initialized: true, Features: caps.Features}
}

// Close releases the active driver.
func (s *Store) Close() error {
	if s.active == nil {
		return nil
	}
	return s.active.Close()
}
