package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PostgresStore keeps documents as JSONB rows of the documents table
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgres creates a store over an open connection pool. The documents
// table is created by the migrations directory.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Collection returns a handle to the named collection
func (s *PostgresStore) Collection(name string) Collection {
	return &pgCollection{store: s, name: name}
}

type pgCollection struct {
	store *PostgresStore
	name  string
}

func (c *pgCollection) Add(ctx context.Context, fields Fields) (string, error) {
	now := c.store.now()
	body, err := resolve(fields, now)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	id := uuid.NewString()
	query := `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $4)
	`
	if _, err := c.store.db.ExecContext(ctx, query, c.name, id, string(body), now); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", c.name, err)
	}
	return id, nil
}

func (c *pgCollection) Get(ctx context.Context, id string) (*Snapshot, error) {
	var raw []byte
	err := c.store.db.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE collection = $1 AND id = $2",
		c.name, id,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", c.name, id, err)
	}

	data, err := decode(raw)
	if err != nil {
		return nil, err
	}
	return &Snapshot{ID: id, Data: data}, nil
}

func (c *pgCollection) Update(ctx context.Context, id string, fields Fields) error {
	now := c.store.now()
	body, err := resolve(fields, now)
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}

	query := `
		UPDATE documents SET data = data || $3::jsonb, updated_at = $4
		WHERE collection = $1 AND id = $2
	`
	result, err := c.store.db.ExecContext(ctx, query, c.name, id, string(body), now)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", c.name, id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", c.name, id, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *pgCollection) Delete(ctx context.Context, id string) error {
	_, err := c.store.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = $1 AND id = $2",
		c.name, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", c.name, id, err)
	}
	return nil
}

func (c *pgCollection) Query(ctx context.Context, q Query) ([]*Snapshot, error) {
	query, args, err := buildQuery(c.name, q)
	if err != nil {
		return nil, err
	}

	rows, err := c.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.name, err)
	}
	defer rows.Close()

	var result []*Snapshot
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		data, err := decode(raw)
		if err != nil {
			return nil, err
		}
		result = append(result, &Snapshot{ID: id, Data: data})
	}
	return result, rows.Err()
}

// truthyValues are the stored encodings Truthy accepts
const truthyValues = `('true'::jsonb, '"true"'::jsonb, '"on"'::jsonb)`

// buildQuery renders q as SQL. Field names are bound as parameters, never
// interpolated.
func buildQuery(collection string, q Query) (string, []interface{}, error) {
	var sb strings.Builder
	args := []interface{}{collection}
	param := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString("SELECT id, data FROM documents WHERE collection = $1")

	for _, f := range q.Filters {
		switch f.Op {
		case Equal:
			enc, err := encodeValue(f.Value)
			if err != nil {
				return "", nil, err
			}
			field := param(f.Field)
			fmt.Fprintf(&sb, " AND data->%s = %s::jsonb", field, param(enc))
		case NotTrue:
			fmt.Fprintf(&sb, " AND COALESCE(data->%s, 'null'::jsonb) NOT IN %s", param(f.Field), truthyValues)
		case IsTruthy:
			fmt.Fprintf(&sb, " AND data->%s IN %s", param(f.Field), truthyValues)
		default:
			return "", nil, fmt.Errorf("unsupported filter operator %d", f.Op)
		}
	}

	if q.OrderBy != "" {
		dir, nulls := "ASC", "NULLS FIRST"
		if q.Descending {
			dir, nulls = "DESC", "NULLS LAST"
		}
		if q.TimeOrder {
			fmt.Fprintf(&sb, " ORDER BY doc_time_key(data->%s) %s %s, created_at %s", param(q.OrderBy), dir, nulls, dir)
		} else {
			fmt.Fprintf(&sb, " ORDER BY data->>%s %s %s, created_at %s", param(q.OrderBy), dir, nulls, dir)
		}
	} else {
		sb.WriteString(" ORDER BY created_at ASC")
	}

	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %s", param(q.Limit))
	}

	return sb.String(), args, nil
}
