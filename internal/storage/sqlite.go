package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/noteyou/noteyou/internal/common"
	"github.com/noteyou/noteyou/internal/dbx"
	"github.com/noteyou/noteyou/internal/logging"
	"github.com/noteyou/noteyou/internal/storage/migrations"
)

// tableSchema fixes the column set of one collection. The structured-table
// backend cannot store fields outside the schema, so filters referencing an
// unknown column simply match nothing.
type tableSchema struct {
	columns []string
	bools   map[string]struct{}
}

var tableSchemas = map[string]tableSchema{
	CollectionUsers: {
		columns: []string{"id", "email", "name", "password_hash", "salt", "created_at", "last_login", "is_active", "migrated_from_old_system", "migration_date"},
		bools:   map[string]struct{}{"is_active": {}, "migrated_from_old_system": {}},
	},
	CollectionBoards: {
		columns: []string{"id", "user_id", "name", "created_at", "updated_at", "migrated_from_old_system", "migration_date"},
		bools:   map[string]struct{}{"migrated_from_old_system": {}},
	},
	CollectionTasks: {
		columns: []string{"id", "board_id", "title", "description", "status", "priority", "assignee", "created_at", "updated_at", "migrated_from_old_system", "migration_date"},
		bools:   map[string]struct{}{"migrated_from_old_system": {}},
	},
	CollectionNotes: {
		columns: []string{"id", "user_id", "title", "content", "created_at", "updated_at", "migrated_from_old_system", "migration_date"},
		bools:   map[string]struct{}{"migrated_from_old_system": {}},
	},
}

// SQLiteDriver is the structured-table backend: one table per collection,
// schema managed by embedded goose migrations.
type SQLiteDriver struct {
	dsn string
	db  *sql.DB
	log logging.Logger
}

func NewSQLiteDriver(dsn string, log logging.Logger) *SQLiteDriver {
	return &SQLiteDriver{dsn: dsn, log: log.With("backend", "sqlite")}
}

func (d *SQLiteDriver) Init(ctx context.Context) error {
	if d.dsn == "" {
		return fmt.Errorf("sqlite: empty dsn")
	}

	db, err := sql.Open("sqlite", d.dsn)
	if err != nil {
		return fmt.Errorf("sqlite open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("sqlite ping: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		db.Close()
		return fmt.Errorf("sqlite migrations: %w", err)
	}

	d.db = db
	d.log.Debug(ctx, "schema ready", "dsn", d.dsn)
	return nil
}

func (d *SQLiteDriver) Put(ctx context.Context, collection string, rec Record) error {
	schema, ok := tableSchemas[collection]
	if !ok {
		return fmt.Errorf("sqlite put %q: %w", collection, common.ErrUnknownCollection)
	}
	id := rec.ID()
	if id == "" {
		return fmt.Errorf("sqlite put %q: record has no id", collection)
	}

	// UPDATE first; INSERT only when no row was touched. Both statements
	// run inside one transaction so the upsert is atomic.
	return dbx.WithTx(ctx, d.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var sets []string
		var args []any
		for _, col := range schema.columns {
			if col == "id" {
				continue
			}
			v, present := rec[col]
			if !present {
				continue
			}
			sets = append(sets, col+" = ?")
			args = append(args, toColumnValue(schema, col, v))
		}

		if len(sets) > 0 {
			query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", collection, strings.Join(sets, ", "))
			res, err := tx.ExecContext(ctx, query, append(args, id)...)
			if err != nil {
				return fmt.Errorf("sqlite update %s: %w", collection, err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("sqlite rows affected: %w", err)
			}
			if affected > 0 {
				return nil
			}
		}

		var cols []string
		var values []any
		for _, col := range schema.columns {
			v, present := rec[col]
			if !present {
				continue
			}
			cols = append(cols, col)
			values = append(values, toColumnValue(schema, col, v))
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", collection, strings.Join(cols, ", "), placeholders)
		if _, err := tx.ExecContext(ctx, query, values...); err != nil {
			return fmt.Errorf("sqlite insert %s: %w", collection, err)
		}
		return nil
	})
}

func (d *SQLiteDriver) QueryAll(ctx context.Context, collection string, filter Record) ([]Record, error) {
	schema, ok := tableSchemas[collection]
	if !ok {
		return nil, fmt.Errorf("sqlite query %q: %w", collection, common.ErrUnknownCollection)
	}

	known := make(map[string]struct{}, len(schema.columns))
	for _, col := range schema.columns {
		known[col] = struct{}{}
	}

	query := "SELECT * FROM " + collection
	var args []any
	var conds []string
	for key, v := range filter {
		if _, ok := known[key]; !ok {
			// No row carries a column outside the schema.
			return []Record{}, nil
		}
		if v == nil {
			// `= NULL` never matches in SQL; keep nil filters meaning
			// "column is absent", same as the other drivers.
			conds = append(conds, key+" IS NULL")
			continue
		}
		conds = append(conds, key+" = ?")
		args = append(args, toColumnValue(schema, key, v))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query %s: %w", collection, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite columns: %w", err)
	}

	result := []Record{}
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}

		rec := Record{}
		for i, col := range cols {
			rec[col] = fromColumnValue(schema, col, values[i])
		}
		normalized, err := Normalize(rec)
		if err != nil {
			return nil, err
		}
		result = append(result, normalized)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite rows: %w", err)
	}
	return result, nil
}

func (d *SQLiteDriver) DeleteByID(ctx context.Context, collection string, id string) error {
	if _, ok := tableSchemas[collection]; !ok {
		return fmt.Errorf("sqlite delete %q: %w", collection, common.ErrUnknownCollection)
	}
	if _, err := d.db.ExecContext(ctx, "DELETE FROM "+collection+" WHERE id = ?", id); err != nil {
		return fmt.Errorf("sqlite delete %s: %w", collection, err)
	}
	return nil
}

func (d *SQLiteDriver) Capabilities() Capabilities {
	return Capabilities{
		Type:     "sqlite",
		Features: []string{"sql", "transactions", "indexes", "relationships", "constraints"},
	}
}

func (d *SQLiteDriver) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// toColumnValue converts a record value to its SQL representation; booleans
// become 0/1 integers.
func toColumnValue(schema tableSchema, col string, v any) any {
	if _, ok := schema.bools[col]; ok {
		switch b := v.(type) {
		case bool:
			if b {
				return 1
			}
			return 0
		}
	}
	return v
}

// fromColumnValue converts a scanned SQL value back to the JSON-normal shape
// shared with the other backends.
func fromColumnValue(schema tableSchema, col string, v any) any {
	if v == nil {
		return nil
	}
	if _, ok := schema.bools[col]; ok {
		if n, ok := v.(int64); ok {
			return n != 0
		}
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
