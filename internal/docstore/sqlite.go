package docstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
)

// foldFunc lowercases with Unicode rules; the built-in lower() only folds ASCII.
const foldFunc = "docstore_fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

func fold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// OpenSQLite opens a WAL-mode SQLite database, creating its directory.
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("docstore: sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// sqliteCollection keeps one JSON document per row. Field filters run through
// json_extract so the field names match the Mongo backend.
type sqliteCollection[T Document] struct {
	db   *sql.DB
	name string
}

func newSQLiteCollection[T Document](ctx context.Context, db *sql.DB, name string) (Collection[T], error) {
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL
	)`, name)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create table %s: %w", name, err)
	}
	return &sqliteCollection[T]{db: db, name: name}, nil
}

func (c *sqliteCollection[T]) Name() string { return c.name }

func (c *sqliteCollection[T]) Insert(ctx context.Context, doc T) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", c.name, err)
	}
	query := fmt.Sprintf(`INSERT INTO %q (id, data) VALUES (?, ?)`, c.name)
	if _, err := c.db.ExecContext(ctx, query, doc.DocumentID(), string(data)); err != nil {
		return fmt.Errorf("insert into %s: %w", c.name, err)
	}
	return nil
}

func (c *sqliteCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if !ValidID(id) {
		return zero, ErrNoDocument
	}
	query := fmt.Sprintf(`SELECT data FROM %q WHERE id = ?`, c.name)
	return c.scanOne(c.db.QueryRowContext(ctx, query, id))
}

func (c *sqliteCollection[T]) Find(ctx context.Context, filter Filter) ([]T, error) {
	where, args, err := toSQL(filter)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT data FROM %q WHERE %s ORDER BY rowid`, c.name, where)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.name, err)
	}
	defer rows.Close()

	docs := make([]T, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", c.name, err)
		}
		var doc T
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", c.name, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (c *sqliteCollection[T]) FindOne(ctx context.Context, filter Filter) (T, error) {
	var zero T
	where, args, err := toSQL(filter)
	if err != nil {
		return zero, err
	}
	query := fmt.Sprintf(`SELECT data FROM %q WHERE %s ORDER BY rowid LIMIT 1`, c.name, where)
	return c.scanOne(c.db.QueryRowContext(ctx, query, args...))
}

func (c *sqliteCollection[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	where, args, err := toSQL(filter)
	if err != nil {
		return 0, err
	}
	var n int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %q WHERE %s`, c.name, where)
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.name, err)
	}
	return n, nil
}

func (c *sqliteCollection[T]) Distinct(ctx context.Context, field string, filter Filter) ([]string, error) {
	if !fieldPattern.MatchString(field) {
		return nil, fmt.Errorf("docstore: invalid field name %q", field)
	}
	where, args, err := toSQL(filter)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT DISTINCT json_extract(data, '$.%s') AS v FROM %q
		WHERE %s AND json_type(data, '$.%s') = 'text' ORDER BY v`, field, c.name, where, field)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct %s.%s: %w", c.name, field, err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (c *sqliteCollection[T]) Update(ctx context.Context, id string, set map[string]any) (T, error) {
	var zero T
	if !ValidID(id) {
		return zero, ErrNoDocument
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	var data string
	selectQuery := fmt.Sprintf(`SELECT data FROM %q WHERE id = ?`, c.name)
	if err := tx.QueryRowContext(ctx, selectQuery, id).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, ErrNoDocument
		}
		return zero, fmt.Errorf("load %s/%s: %w", c.name, id, err)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return zero, fmt.Errorf("decode %s/%s: %w", c.name, id, err)
	}
	for key, value := range set {
		raw, err := json.Marshal(value)
		if err != nil {
			return zero, fmt.Errorf("encode field %s: %w", key, err)
		}
		fields[key] = raw
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	updateQuery := fmt.Sprintf(`UPDATE %q SET data = ? WHERE id = ?`, c.name)
	if _, err := tx.ExecContext(ctx, updateQuery, string(merged), id); err != nil {
		return zero, fmt.Errorf("update %s/%s: %w", c.name, id, err)
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit update: %w", err)
	}

	var doc T
	if err := json.Unmarshal(merged, &doc); err != nil {
		return zero, fmt.Errorf("decode %s/%s: %w", c.name, id, err)
	}
	return doc, nil
}

func (c *sqliteCollection[T]) Delete(ctx context.Context, id string) (T, error) {
	var zero T
	if !ValidID(id) {
		return zero, ErrNoDocument
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	selectQuery := fmt.Sprintf(`SELECT data FROM %q WHERE id = ?`, c.name)
	doc, err := c.scanOne(tx.QueryRowContext(ctx, selectQuery, id))
	if err != nil {
		return zero, err
	}
	deleteQuery := fmt.Sprintf(`DELETE FROM %q WHERE id = ?`, c.name)
	if _, err := tx.ExecContext(ctx, deleteQuery, id); err != nil {
		return zero, fmt.Errorf("delete %s/%s: %w", c.name, id, err)
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit delete: %w", err)
	}
	return doc, nil
}

func (c *sqliteCollection[T]) scanOne(row *sql.Row) (T, error) {
	var doc T
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return doc, ErrNoDocument
		}
		return doc, fmt.Errorf("load %s document: %w", c.name, err)
	}
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return doc, fmt.Errorf("decode %s document: %w", c.name, err)
	}
	return doc, nil
}

func toSQL(filter Filter) (string, []any, error) {
	if err := filter.validate(); err != nil {
		return "", nil, err
	}

	clauses := []string{"1 = 1"}
	var args []any

	for field, value := range filter.Equals {
		clauses = append(clauses, fmt.Sprintf("json_extract(data, '$.%s') = ?", field))
		args = append(args, sqlValue(value))
	}

	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			clauses = append(clauses, "0 = 1")
		} else {
			marks := strings.TrimSuffix(strings.Repeat("?,", len(filter.IDs)), ",")
			clauses = append(clauses, fmt.Sprintf("id IN (%s)", marks))
			for _, id := range filter.IDs {
				args = append(args, id)
			}
		}
	}

	if len(filter.SearchKeys) > 0 {
		ors := make([]string, 0, len(filter.SearchKeys))
		for _, field := range filter.SearchKeys {
			ors = append(ors, fmt.Sprintf("instr(%s(coalesce(json_extract(data, '$.%s'), '')), ?) > 0", foldFunc, field))
			args = append(args, strings.ToLower(filter.Contains))
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}

	return strings.Join(clauses, " AND "), args, nil
}

// json_extract yields 1/0 for JSON booleans.
func sqlValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}
