package session

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/canvas/internal/dbopen"
	"github.com/stateful/canvas/internal/glossary"
	"github.com/stateful/canvas/internal/persist"
	"github.com/stateful/canvas/internal/ulid"
	"github.com/stateful/canvas/pkg/document"
	"github.com/stateful/canvas/pkg/document/editor"
	"github.com/stateful/canvas/pkg/document/keyword"
)

func TestMain(m *testing.M) {
	ulid.MockGenerator("blk")
	code := m.Run()
	ulid.ResetGenerator()
	os.Exit(code)
}

var key = persist.Key{Collection: "anatomy", Document: "legs"}

func newPersister(t *testing.T) *persist.SQLite {
	t.Helper()
	p, err := persist.NewSQLite(context.Background(), dbopen.OpenMemory(t))
	require.NoError(t, err)
	return p
}

type failingStore struct {
	persist.Store
	err error
}

func (f failingStore) Save(context.Context, persist.Key, persist.Payload) (persist.Record, error) {
	return persist.Record{}, f.err
}

func (f failingStore) Load(context.Context, persist.Key) (persist.Record, error) {
	return persist.Record{}, f.err
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestSession_SaveOpen(t *testing.T) {
	ctx := context.Background()
	p := newPersister(t)
	c := &clock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	resolver := keyword.NewResolver(glossary.NewMemory(glossary.Entry{Term: "femur", Mastery: glossary.MasteryReview}), 0)

	s := New(key, p, document.Blocks{
		{ID: "a", Type: document.TypeHeading, Content: "Legs"},
		{ID: "b", Type: document.TypeText, Content: `The <span data-keyword="Femur">Femur</span>`},
	}, WithClock(c.now), WithResolver(resolver))
	s.SetKeywordNote("femur", "longest bone")
	s.SetAnnotations(json.RawMessage(`{"b":"check"}`))

	c.t = c.t.Add(7*time.Minute + 30*time.Second)
	record, err := s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, record.Version)
	assert.Equal(t, 7, record.EditTimeMinutes)
	assert.Equal(t, "# Legs\nThe Femur", record.Content)
	assert.Equal(t, []string{"femur"}, record.Tags)
	assert.Equal(t, map[string]string{"femur": glossary.MasteryReview}, record.KeywordMastery)
	assert.Equal(t, map[string]string{"femur": "longest bone"}, record.KeywordNotes)
	assert.JSONEq(t, `{"b":"check"}`, string(record.Annotations))
	assert.Equal(t, 1, s.Version())

	c.t = c.t.Add(time.Hour)
	opened, err := Open(ctx, key, p, WithClock(c.now))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, opened.Blocks().IDs())
	assert.Equal(t, 7, opened.EditMinutes())
	assert.Equal(t, 1, opened.Version())

	c.t = c.t.Add(3 * time.Minute)
	record, err = opened.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, record.Version)
	assert.Equal(t, 10, record.EditTimeMinutes)
	assert.Equal(t, map[string]string{"femur": "longest bone"}, record.KeywordNotes)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing", func(t *testing.T) {
		s, err := Open(ctx, key, newPersister(t))
		require.NoError(t, err)
		blocks := s.Blocks()
		require.Len(t, blocks, 1)
		assert.Equal(t, document.TypeText, blocks[0].Type)
	})

	t.Run("LegacyContent", func(t *testing.T) {
		p := newPersister(t)
		_, err := p.Save(ctx, key, persist.Payload{
			Content:          "# Title\n\n- a\n- b",
			SerializedBlocks: json.RawMessage(`[]`),
		})
		require.NoError(t, err)

		s, err := Open(ctx, key, p)
		require.NoError(t, err)
		blocks := s.Blocks()
		require.Len(t, blocks, 2)
		assert.Equal(t, document.TypeHeading, blocks[0].Type)
		assert.Equal(t, document.TypeList, blocks[1].Type)
	})

	t.Run("Malformed", func(t *testing.T) {
		p := newPersister(t)
		_, err := p.Save(ctx, key, persist.Payload{SerializedBlocks: json.RawMessage(`[{"id":"a","type":"table"}]`)})
		require.NoError(t, err)

		s, err := Open(ctx, key, p)
		require.NoError(t, err)
		assert.True(t, errors.Is(s.Damaged(), document.ErrMalformed))
		assert.Equal(t, 1, s.Version())

		var buf bytes.Buffer
		require.NoError(t, s.Export(ctx, &buf, ""))
		assert.Contains(t, buf.String(), "damaged")

		_, err = s.Save(ctx)
		require.Error(t, err)
		record, err := p.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 1, record.Version)

		s.Load(document.Blocks{{ID: "b", Type: document.TypeText, Content: "fixed"}})
		require.NoError(t, s.Damaged())
		record, err = s.Save(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, record.Version)
	})

	t.Run("Unavailable", func(t *testing.T) {
		_, err := Open(ctx, key, failingStore{err: errors.New("offline")})
		require.Error(t, err)
		assert.True(t, IsRetryable(err))
	})
}

func TestSession_SaveFailure(t *testing.T) {
	ctx := context.Background()
	s := New(key, failingStore{err: errors.New("network down")}, document.Blocks{{ID: "a", Type: document.TypeText, Content: "keep me"}})
	s.Edit(func(store *editor.Store) {
		store.Create(0, document.TypeText, "unsaved", nil)
	})

	_, err := s.Save(ctx)
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "network down")
	assert.False(t, s.Saving())

	blocks := s.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "unsaved", blocks[1].Content)
}

func TestSession_Generate(t *testing.T) {
	ctx := context.Background()

	var gotTopic, gotBackground string
	gen := GeneratorFunc(func(_ context.Context, topic, background string) (string, error) {
		gotTopic, gotBackground = topic, background
		return "## Bones\n\nThe femur\n\n- tibia\n- fibula", nil
	})

	s := New(key, newPersister(t), document.Blocks{
		{ID: "a", Type: document.TypeText, Content: "intro"},
		{ID: "z", Type: document.TypeText, Content: "outro"},
	}, WithGenerator(gen))

	blocks, err := s.Generate(ctx, "Legs", "focus on bones")
	require.NoError(t, err)
	assert.Equal(t, "Legs", gotTopic)
	assert.Equal(t, "focus on bones", gotBackground)
	require.Len(t, blocks, 3)

	all := s.Blocks()
	require.Len(t, all, 5)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, document.TypeSubheading, all[1].Type)
	assert.Equal(t, document.TypeList, all[3].Type)
	assert.Equal(t, "z", all[4].ID)

	s.Edit(func(store *editor.Store) {
		require.True(t, store.Undo())
		assert.Equal(t, []string{"a", "z"}, store.Blocks().IDs())
	})

	t.Run("ReplacesEmptyDocument", func(t *testing.T) {
		s := New(key, newPersister(t), nil, WithGenerator(gen))
		_, err := s.Generate(ctx, "Legs", "")
		require.NoError(t, err)
		assert.Len(t, s.Blocks(), 3)
	})

	t.Run("Failure", func(t *testing.T) {
		s := New(key, newPersister(t), nil, WithGenerator(GeneratorFunc(func(context.Context, string, string) (string, error) {
			return "", errors.New("quota exceeded")
		})))
		_, err := s.Generate(ctx, "Legs", "")
		require.Error(t, err)
		assert.True(t, IsRetryable(err))
		assert.Len(t, s.Blocks(), 1)
	})

	t.Run("NoGenerator", func(t *testing.T) {
		s := New(key, newPersister(t), nil)
		_, err := s.Generate(ctx, "Legs", "")
		assert.Error(t, err)
	})
}

func TestSession_Busy(t *testing.T) {
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	gen := GeneratorFunc(func(context.Context, string, string) (string, error) {
		close(started)
		<-release
		return "one\n\ntwo", nil
	})

	s := New(key, newPersister(t), nil, WithGenerator(gen))

	done := make(chan error, 1)
	go func() {
		_, err := s.Generate(ctx, "topic", "")
		done <- err
	}()
	<-started

	assert.True(t, s.Generating())
	_, err := s.Generate(ctx, "topic", "")
	assert.True(t, errors.Is(err, ErrBusy))

	// Other operations are not blocked.
	_, err = s.Save(ctx)
	assert.NoError(t, err)
	var buf bytes.Buffer
	assert.NoError(t, s.Export(ctx, &buf, "Doc"))
	s.Edit(func(store *editor.Store) {
		store.Create(0, document.TypeText, "typed meanwhile", nil)
	})

	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Generating())
	assert.Len(t, s.Blocks(), 4)
}

func TestSession_Export(t *testing.T) {
	s := New(key, newPersister(t), document.Blocks{
		{ID: "a", Type: document.TypeText, Content: `<span data-keyword="femur">femur</span>`},
	})

	var buf bytes.Buffer
	require.NoError(t, s.Export(context.Background(), &buf, "Legs"))
	assert.Contains(t, buf.String(), "<title>Legs</title>")
	assert.NotContains(t, buf.String(), "data-keyword")
	assert.False(t, s.Exporting())
}
