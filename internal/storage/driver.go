package storage

import "context"

// Collection names recognized by every backend. The structured-table driver
// additionally requires them because each one maps to a fixed table schema.
const (
	CollectionUsers  = "users"
	CollectionBoards = "boards"
	CollectionTasks  = "tasks"
	CollectionNotes  = "notes"
)

// Capabilities is the feature set a driver claims to support. It is used for
// diagnostics only; no behavioral branching happens on it after a driver has
// been selected.
type Capabilities struct {
	Type     string
	Features []string
}

// Driver is the uniform record-store contract implemented by every backend.
//
// Init must fail fast when the backend cannot open; the facade treats an Init
// error as "try the next candidate". Runtime operation errors are returned
// to the caller, never panicked.
type Driver interface {
	// Init opens the backend and prepares the collections.
	Init(ctx context.Context) error

	// Put upserts the record into collection, keyed by its "id" field.
	Put(ctx context.Context, collection string, rec Record) error

	// QueryAll returns every record of collection matching all key/value
	// pairs of filter (exact equality, AND). A nil or empty filter returns
	// the full collection. The result slice is never nil.
	QueryAll(ctx context.Context, collection string, filter Record) ([]Record, error)

	// DeleteByID removes the record with the given id. Deleting an absent
	// id is a no-op, not an error.
	DeleteByID(ctx context.Context, collection string, id string) error

	// Capabilities describes the driver for diagnostics.
	Capabilities() Capabilities

	// Close releases backend resources.
	Close() error
}
