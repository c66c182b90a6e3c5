package persist

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/canvas/internal/dbopen"
)

func newStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(context.Background(), dbopen.OpenMemory(t))
	require.NoError(t, err)
	return s
}

func TestSQLite_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	key := Key{Collection: "anatomy", Document: "legs"}
	payload := Payload{
		Content:          "# Legs\nThe femur",
		SerializedBlocks: json.RawMessage(`[{"id":"a","type":"heading","content":"Legs"}]`),
		Tags:             []string{"femur"},
		EditTimeMinutes:  12,
		Annotations:      json.RawMessage(`[{"block":"a","note":"check"}]`),
		KeywordMastery:   map[string]string{"femur": "learning"},
		KeywordNotes:     map[string]string{"femur": "longest bone"},
	}

	record, err := s.Save(ctx, key, payload)
	require.NoError(t, err)
	assert.Equal(t, key, record.Key)
	assert.Equal(t, payload, record.Payload)
	assert.Equal(t, 1, record.Version)
	assert.Equal(t, now, record.UpdatedAt)

	payload.EditTimeMinutes = 15
	payload.Annotations = nil
	record, err = s.Save(ctx, key, payload)
	require.NoError(t, err)
	assert.Equal(t, 2, record.Version)
	assert.Equal(t, 15, record.EditTimeMinutes)
	assert.Nil(t, record.Annotations)

	loaded, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, record, loaded)
}

func TestSQLite_Defaults(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	record, err := s.Save(ctx, Key{Collection: "c", Document: "d"}, Payload{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(record.SerializedBlocks))
	assert.Equal(t, []string{}, record.Tags)
	assert.Nil(t, record.KeywordMastery)
}

func TestSQLite_Errors(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Load(ctx, Key{Collection: "c", Document: "missing"})
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Save(ctx, Key{Document: "d"}, Payload{})
	assert.Error(t, err)

	_, err = s.Save(ctx, Key{Collection: "c", Document: "d"}, Payload{SerializedBlocks: json.RawMessage(`[{`)})
	assert.Error(t, err)

	assert.True(t, errors.Is(s.Delete(ctx, Key{Collection: "c", Document: "d"}), ErrNotFound))
}

func TestSQLite_ListDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, doc := range []string{"first", "second"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return ts }
		_, err := s.Save(ctx, Key{Collection: "c", Document: doc}, Payload{Content: doc, Tags: []string{doc}})
		require.NoError(t, err)
	}
	_, err := s.Save(ctx, Key{Collection: "other", Document: "x"}, Payload{})
	require.NoError(t, err)

	records, err := s.List(ctx, "c")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "second", records[0].Document)
	assert.Equal(t, []string{"second"}, records[0].Tags)
	assert.Nil(t, records[0].SerializedBlocks)

	require.NoError(t, s.Delete(ctx, Key{Collection: "c", Document: "second"}))
	records, err = s.List(ctx, "c")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
