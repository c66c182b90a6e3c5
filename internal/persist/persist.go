// Package persist stores edited documents together with the data
// derived from them (flattened text, tags, keyword state).
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/stateful/canvas/internal/dbopen"
)

var ErrNotFound = errors.New("document not found")

// Key identifies a document: the collection it belongs to (a course,
// a notebook) and the document within it.
type Key struct {
	Collection string `json:"collection"`
	Document   string `json:"document"`
}

func (k Key) Valid() bool {
	return k.Collection != "" && k.Document != ""
}

func (k Key) String() string {
	return k.Collection + "/" + k.Document
}

type Payload struct {
	// Content is the flattened plain text of the blocks.
	Content          string            `json:"content"`
	SerializedBlocks json.RawMessage   `json:"serializedBlocks"`
	Tags             []string          `json:"tags"`
	EditTimeMinutes  int               `json:"editTimeMinutes"`
	Annotations      json.RawMessage   `json:"annotations,omitempty"`
	KeywordMastery   map[string]string `json:"keywordMastery,omitempty"`
	KeywordNotes     map[string]string `json:"keywordNotes,omitempty"`
}

type Record struct {
	Key
	Payload
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store interface {
	Save(ctx context.Context, key Key, payload Payload) (Record, error)
	Load(ctx context.Context, key Key) (Record, error)
}

const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection      TEXT NOT NULL,
	document        TEXT NOT NULL,
	content         TEXT NOT NULL DEFAULT '',
	blocks          TEXT NOT NULL DEFAULT '[]',
	tags            TEXT NOT NULL DEFAULT '[]',
	edit_minutes    INTEGER NOT NULL DEFAULT 0,
	annotations     TEXT NOT NULL DEFAULT 'null',
	keyword_mastery TEXT NOT NULL DEFAULT '{}',
	keyword_notes   TEXT NOT NULL DEFAULT '{}',
	version         INTEGER NOT NULL DEFAULT 0,
	updated_at      INTEGER NOT NULL,
	PRIMARY KEY (collection, document)
)`

type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLite)(nil)

func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return nil, errors.Wrap(err, "failed to create documents table")
	}
	return &SQLite{db: db, now: time.Now}, nil
}

type row struct {
	blocks, tags, annotations, mastery, notes string
}

func encode(p Payload) (row, error) {
	var (
		r   row
		err error
	)

	blocks := p.SerializedBlocks
	if len(blocks) == 0 {
		blocks = json.RawMessage("[]")
	}
	if !json.Valid(blocks) {
		return r, errors.New("serialized blocks are not valid JSON")
	}
	r.blocks = string(blocks)

	annotations := p.Annotations
	if len(annotations) == 0 {
		annotations = json.RawMessage("null")
	}
	if !json.Valid(annotations) {
		return r, errors.New("annotations are not valid JSON")
	}
	r.annotations = string(annotations)

	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	if r.tags, err = marshal(tags); err != nil {
		return r, err
	}
	if r.mastery, err = marshal(p.KeywordMastery); err != nil {
		return r, err
	}
	if r.notes, err = marshal(p.KeywordNotes); err != nil {
		return r, err
	}
	return r, nil
}

func marshal(v any) (string, error) {
	data, err := json.Marshal(v)
	return string(data), errors.WithStack(err)
}

// Save upserts the document and bumps its version.
func (s *SQLite) Save(ctx context.Context, key Key, payload Payload) (Record, error) {
	if !key.Valid() {
		return Record{}, errors.Errorf("invalid key %q", key)
	}

	r, err := encode(payload)
	if err != nil {
		return Record{}, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)

	err = dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO documents (collection, document, content, blocks, tags, edit_minutes,
				annotations, keyword_mastery, keyword_notes, version, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
			ON CONFLICT(collection, document) DO UPDATE SET
				content = excluded.content,
				blocks = excluded.blocks,
				tags = excluded.tags,
				edit_minutes = excluded.edit_minutes,
				annotations = excluded.annotations,
				keyword_mastery = excluded.keyword_mastery,
				keyword_notes = excluded.keyword_notes,
				version = documents.version + 1,
				updated_at = excluded.updated_at`,
			key.Collection, key.Document, payload.Content, r.blocks, r.tags, payload.EditTimeMinutes,
			r.annotations, r.mastery, r.notes, now.UnixMilli(),
		)
		return err
	})
	if err != nil {
		return Record{}, errors.Wrapf(err, "failed to save %s", key)
	}

	return s.Load(ctx, key)
}

func (s *SQLite) Load(ctx context.Context, key Key) (Record, error) {
	var (
		record  = Record{Key: key}
		r       row
		updated int64
	)

	err := s.db.QueryRowContext(
		ctx,
		`SELECT content, blocks, tags, edit_minutes, annotations, keyword_mastery, keyword_notes,
			version, updated_at
		FROM documents WHERE collection = ? AND document = ?`,
		key.Collection, key.Document,
	).Scan(
		&record.Content, &r.blocks, &r.tags, &record.EditTimeMinutes, &r.annotations,
		&r.mastery, &r.notes, &record.Version, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, errors.WithStack(ErrNotFound)
	}
	if err != nil {
		return Record{}, errors.Wrapf(err, "failed to load %s", key)
	}

	record.SerializedBlocks = json.RawMessage(r.blocks)
	if r.annotations != "null" {
		record.Annotations = json.RawMessage(r.annotations)
	}
	if err := json.Unmarshal([]byte(r.tags), &record.Tags); err != nil {
		return Record{}, errors.Wrap(err, "invalid tags")
	}
	if err := json.Unmarshal([]byte(r.mastery), &record.KeywordMastery); err != nil {
		return Record{}, errors.Wrap(err, "invalid keyword mastery")
	}
	if err := json.Unmarshal([]byte(r.notes), &record.KeywordNotes); err != nil {
		return Record{}, errors.Wrap(err, "invalid keyword notes")
	}
	record.UpdatedAt = time.UnixMilli(updated).UTC()

	return record, nil
}

// List returns the documents of a collection, most recently updated
// first, without their serialized blocks.
func (s *SQLite) List(ctx context.Context, collection string) ([]Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT document, content, tags, edit_minutes, version, updated_at
		FROM documents WHERE collection = ? ORDER BY updated_at DESC, document`,
		collection,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list documents")
	}
	defer func() { _ = rows.Close() }()

	var result []Record
	for rows.Next() {
		var (
			record  = Record{Key: Key{Collection: collection}}
			tags    string
			updated int64
		)
		if err := rows.Scan(&record.Document, &record.Content, &tags, &record.EditTimeMinutes, &record.Version, &updated); err != nil {
			return nil, errors.WithStack(err)
		}
		if err := json.Unmarshal([]byte(tags), &record.Tags); err != nil {
			return nil, errors.Wrap(err, "invalid tags")
		}
		record.UpdatedAt = time.UnixMilli(updated).UTC()
		result = append(result, record)
	}
	return result, errors.WithStack(rows.Err())
}

func (s *SQLite) Delete(ctx context.Context, key Key) error {
	result, err := dbopen.Exec(ctx, s.db, `DELETE FROM documents WHERE collection = ? AND document = ?`, key.Collection, key.Document)
	if err != nil {
		return errors.Wrapf(err, "failed to delete %s", key)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.WithStack(ErrNotFound)
	}
	return nil
}
