package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/noteyou/noteyou/internal/common"
	"github.com/noteyou/noteyou/internal/localstore"
	"github.com/noteyou/noteyou/internal/logging"
)

// keyPrefix is the naming pattern of persisted collection blobs. The same
// prefix is shared with the legacy keys consumed by the migration engine.
const keyPrefix = "noteyou_"

// FileDriver is the flat-map backend of last resort: one persisted entry per
// collection holding a JSON object that maps record id to record. Writes go
// through the in-memory map first, then the whole collection is serialized.
// Initialization only needs a writable data directory, so this driver is
// expected to always succeed.
type FileDriver struct {
	kv          *localstore.Store
	collections map[string]map[string]Record
	log         logging.Logger
}

func NewFileDriver(kv *localstore.Store, log logging.Logger) *FileDriver {
	return &FileDriver{kv: kv, log: log.With("backend", "file")}
}

func (d *FileDriver) Init(ctx context.Context) error {
	if d.kv == nil {
		return fmt.Errorf("filestore: no local store")
	}
	d.collections = make(map[string]map[string]Record)
	return nil
}

// load materializes a collection from disk on first access.
func (d *FileDriver) load(collection string) (map[string]Record, error) {
	if m, ok := d.collections[collection]; ok {
		return m, nil
	}

	m := map[string]Record{}
	data, err := d.kv.Get(keyPrefix + collection)
	if err == nil {
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("filestore parse %s: %w", collection, err)
		}
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	d.collections[collection] = m
	return m, nil
}

func (d *FileDriver) persist(collection string, m map[string]Record) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("filestore marshal %s: %w", collection, err)
	}
	return d.kv.Set(keyPrefix+collection, data)
}

func (d *FileDriver) Put(ctx context.Context, collection string, rec Record) error {
	id := rec.ID()
	if id == "" {
		return fmt.Errorf("filestore put %q: record has no id", collection)
	}
	m, err := d.load(collection)
	if err != nil {
		return err
	}
	m[id] = rec.Clone()
	return d.persist(collection, m)
}

func (d *FileDriver) QueryAll(ctx context.Context, collection string, filter Record) ([]Record, error) {
	m, err := d.load(collection)
	if err != nil {
		return nil, err
	}
	result := []Record{}
	for _, rec := range m {
		if rec.Matches(filter) {
			result = append(result, rec.Clone())
		}
	}
	return result, nil
}

func (d *FileDriver) DeleteByID(ctx context.Context, collection string, id string) error {
	m, err := d.load(collection)
	if err != nil {
		return err
	}
	if _, ok := m[id]; !ok {
		return nil
	}
	delete(m, id)
	return d.persist(collection, m)
}

func (d *FileDriver) Capabilities() Capabilities {
	return Capabilities{
		Type:     "file",
		Features: []string{"simple", "universal", "sync", "fallback"},
	}
}

func (d *FileDriver) Close() error {
	return nil
}
