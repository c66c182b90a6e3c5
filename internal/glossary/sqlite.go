package glossary

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/stateful/canvas/internal/dbopen"
)

const Schema = `
CREATE TABLE IF NOT EXISTS glossary (
	key        TEXT PRIMARY KEY,
	term       TEXT NOT NULL,
	definition TEXT NOT NULL DEFAULT '',
	mastery    TEXT NOT NULL DEFAULT 'new',
	prompts    TEXT NOT NULL DEFAULT '[]'
)`

// SQLite is a Store backed by the glossary table.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// NewSQLite creates the glossary table if needed.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return nil, errors.Wrap(err, "failed to create glossary table")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Lookup(ctx context.Context, term string) (Entry, error) {
	var (
		entry   Entry
		prompts string
	)

	err := s.db.QueryRowContext(
		ctx,
		`SELECT term, definition, mastery, prompts FROM glossary WHERE key = ?`,
		Normalize(term),
	).Scan(&entry.Term, &entry.Definition, &entry.Mastery, &prompts)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, errors.WithStack(ErrNotFound)
	}
	if err != nil {
		return Entry{}, errors.Wrapf(err, "failed to look up %q", term)
	}

	if err := json.Unmarshal([]byte(prompts), &entry.Prompts); err != nil {
		return Entry{}, errors.Wrapf(err, "invalid prompts for %q", term)
	}
	return entry, nil
}

func (s *SQLite) Put(ctx context.Context, entry Entry) error {
	key := Normalize(entry.Term)
	if key == "" {
		return errors.New("empty term")
	}
	if entry.Mastery == "" {
		entry.Mastery = MasteryNew
	}
	if !ValidMastery(entry.Mastery) {
		return errors.Errorf("invalid mastery level %q", entry.Mastery)
	}
	if entry.Prompts == nil {
		entry.Prompts = []string{}
	}

	prompts, err := json.Marshal(entry.Prompts)
	if err != nil {
		return errors.WithStack(err)
	}

	_, err = dbopen.Exec(
		ctx,
		s.db,
		`INSERT INTO glossary (key, term, definition, mastery, prompts) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			term = excluded.term,
			definition = excluded.definition,
			mastery = excluded.mastery,
			prompts = excluded.prompts`,
		key, entry.Term, entry.Definition, entry.Mastery, string(prompts),
	)
	return errors.Wrapf(err, "failed to store %q", entry.Term)
}

func (s *SQLite) Delete(ctx context.Context, term string) error {
	result, err := dbopen.Exec(ctx, s.db, `DELETE FROM glossary WHERE key = ?`, Normalize(term))
	if err != nil {
		return errors.Wrapf(err, "failed to delete %q", term)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.WithStack(ErrNotFound)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT term, definition, mastery, prompts FROM glossary ORDER BY key`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list glossary")
	}
	defer func() { _ = rows.Close() }()

	var result []Entry
	for rows.Next() {
		var (
			entry   Entry
			prompts string
		)
		if err := rows.Scan(&entry.Term, &entry.Definition, &entry.Mastery, &prompts); err != nil {
			return nil, errors.WithStack(err)
		}
		if err := json.Unmarshal([]byte(prompts), &entry.Prompts); err != nil {
			return nil, errors.Wrapf(err, "invalid prompts for %q", entry.Term)
		}
		result = append(result, entry)
	}
	return result, errors.WithStack(rows.Err())
}
