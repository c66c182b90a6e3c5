package keyword

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/canvas/internal/glossary"
	"github.com/stateful/canvas/pkg/document"
)

type countingLookup struct {
	inner glossary.Lookup
	calls int
	err   error
}

func (l *countingLookup) Lookup(ctx context.Context, term string) (glossary.Entry, error) {
	l.calls++
	if l.err != nil {
		return glossary.Entry{}, l.err
	}
	return l.inner.Lookup(ctx, term)
}

func testResolver() *Resolver {
	return NewResolver(glossary.NewMemory(
		glossary.Entry{Term: "Femur", Definition: "Thigh bone", Mastery: glossary.MasteryLearning},
	), 0)
}

func TestMark(t *testing.T) {
	ctx := context.Background()
	r := testResolver()

	testCases := []struct {
		name       string
		content    string
		start, end int
		expected   string
		ok         bool
	}{
		{
			name:     "Known",
			content:  "The femur is long",
			start:    4,
			end:      9,
			expected: `The <span data-keyword="femur" data-mastery="learning">femur</span> is long`,
			ok:       true,
		},
		{
			name:     "Unknown",
			content:  "The tibia",
			start:    4,
			end:      9,
			expected: `The <span data-keyword="tibia" data-mastery="new">tibia</span>`,
			ok:       true,
		},
		{
			name:     "KeepsMarks",
			content:  "ab<b>cd</b>",
			start:    1,
			end:      3,
			expected: `a<span data-keyword="bc" data-mastery="new">b<b>c</b></span><b>d</b>`,
			ok:       true,
		},
		{
			name:     "TrimsTerm",
			content:  "the femur ",
			start:    3,
			end:      10,
			expected: `the <span data-keyword="femur" data-mastery="learning">femur</span> `,
			ok:       true,
		},
		{
			name:     "Reversed",
			content:  "The femur",
			start:    9,
			end:      4,
			expected: `The <span data-keyword="femur" data-mastery="learning">femur</span>`,
			ok:       true,
		},
		{
			name:     "ReversedPastEnd",
			content:  "The femur",
			start:    40,
			end:      3,
			expected: `The <span data-keyword="femur" data-mastery="learning">femur</span>`,
			ok:       true,
		},
		{
			name:     "Empty",
			content:  "text",
			start:    2,
			end:      2,
			expected: "text",
		},
		{
			name:     "Blank",
			content:  "a   b",
			start:    1,
			end:      4,
			expected: "a   b",
		},
		{
			name:     "AcrossBreak",
			content:  "one<br>two",
			start:    0,
			end:      7,
			expected: "one<br>two",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, ok := Mark(ctx, tc.content, tc.start, tc.end, r)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestMark_NilResolver(t *testing.T) {
	result, ok := Mark(context.Background(), "femur", 0, 5, nil)
	require.True(t, ok)
	assert.Equal(t, `<span data-keyword="femur" data-mastery="new">femur</span>`, result)
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	r := testResolver()

	tagged, ok := Toggle(ctx, "The femur is long", 4, 9, r)
	require.True(t, ok)
	assert.True(t, Tagged(tagged, 6))
	assert.False(t, Tagged(tagged, 2))

	t.Run("EitherDirection", func(t *testing.T) {
		backward, ok := Toggle(ctx, "The femur is long", 9, 4, r)
		require.True(t, ok)
		assert.Equal(t, tagged, backward)
	})

	t.Run("Caret", func(t *testing.T) {
		plain, ok := Toggle(ctx, tagged, 6, 6, r)
		require.True(t, ok)
		assert.Equal(t, "The femur is long", plain)
	})

	t.Run("Overlap", func(t *testing.T) {
		plain, ok := Toggle(ctx, tagged, 0, 5, r)
		require.True(t, ok)
		assert.Equal(t, "The femur is long", plain)
	})

	t.Run("OnlyTouchedTag", func(t *testing.T) {
		both, ok := Mark(ctx, tagged, 13, 17, r)
		require.True(t, ok)

		result, ok := Toggle(ctx, both, 14, 15, r)
		require.True(t, ok)
		assert.Equal(t, tagged, result)
	})

	t.Run("Untagged", func(t *testing.T) {
		result, ok := Unmark("plain text", 0, 5)
		assert.False(t, ok)
		assert.Equal(t, "plain text", result)
	})
}

func TestExtract(t *testing.T) {
	blocks := document.Blocks{
		{ID: "a", Type: document.TypeText, Content: `<span data-keyword="Femur">Femur</span> and <span data-keyword="tibia">tibia</span>`},
		{ID: "b", Type: document.TypeText, Content: `The <span data-keyword="femur" data-mastery="new">FEMUR</span> again`},
		{ID: "c", Type: document.TypeList, Content: `x<br><span data-keyword="Patella">Patella</span>`},
		{ID: "d", Type: document.TypeText, Content: "nothing tagged"},
	}

	assert.Equal(t, []string{"femur", "tibia", "patella"}, Extract(blocks))

	index := Index(blocks)
	ids, ok := index.Get("femur")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, ids)

	t.Run("Twice", func(t *testing.T) {
		blocks := document.Blocks{
			{ID: "a", Type: document.TypeText, Content: `<span data-keyword="Femur">Femur</span>`},
			{ID: "b", Type: document.TypeText, Content: `<span data-keyword="Femur">Femur</span>`},
		}
		assert.Equal(t, []string{"femur"}, Extract(blocks))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, Extract(nil))
	})
}

func TestRetag(t *testing.T) {
	ctx := context.Background()
	store := glossary.NewMemory(glossary.Entry{Term: "femur", Mastery: glossary.MasteryNew})
	r := NewResolver(store, 10)

	blocks := document.Blocks{
		{ID: "a", Type: document.TypeText, Content: `<span data-keyword="femur" data-mastery="new">femur</span>`},
		{ID: "b", Type: document.TypeText, Content: "plain"},
	}

	result, changed := Retag(ctx, blocks, r)
	assert.Equal(t, 0, changed)
	assert.Equal(t, blocks, result)

	require.NoError(t, store.Put(ctx, glossary.Entry{Term: "femur", Mastery: glossary.MasteryMastered}))
	r.Forget("Femur")

	result, changed = Retag(ctx, blocks, r)
	assert.Equal(t, 1, changed)
	assert.Equal(t, `<span data-keyword="femur" data-mastery="mastered">femur</span>`, result[0].Content)
	assert.Equal(t, "plain", result[1].Content)
	// Input is untouched.
	assert.Contains(t, blocks[0].Content, `data-mastery="new"`)

	assert.Equal(t, map[string]string{"femur": glossary.MasteryMastered}, Mastery(ctx, result, r))
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	lookup := &countingLookup{inner: glossary.NewMemory(glossary.Entry{
		Term:       "Femur",
		Definition: "Thigh bone",
		Mastery:    glossary.MasteryReview,
		Prompts:    []string{"Name the longest bone."},
	})}
	r := NewResolver(lookup, 2)

	detail := r.Resolve(ctx, "FEMUR")
	assert.Equal(t, Detail{
		Term:       "Femur",
		Definition: "Thigh bone",
		Mastery:    glossary.MasteryReview,
		Prompts:    []string{"Name the longest bone."},
		Found:      true,
	}, detail)

	_ = r.Resolve(ctx, "femur")
	assert.Equal(t, 1, lookup.calls)

	miss := r.Resolve(ctx, "Radius")
	assert.Equal(t, Detail{Term: "Radius", Mastery: DefaultMastery}, miss)
	_ = r.Resolve(ctx, "radius")
	assert.Equal(t, 2, lookup.calls)

	r.Reset()
	_ = r.Resolve(ctx, "femur")
	assert.Equal(t, 3, lookup.calls)

	t.Run("ErrorsAreNotCached", func(t *testing.T) {
		lookup := &countingLookup{inner: glossary.NewMemory(), err: errors.New("offline")}
		r := NewResolver(lookup, 2)

		assert.Equal(t, Detail{Term: "femur", Mastery: DefaultMastery}, r.Resolve(ctx, "femur"))
		_ = r.Resolve(ctx, "femur")
		assert.Equal(t, 2, lookup.calls)
	})

	t.Run("Nil", func(t *testing.T) {
		var r *Resolver
		assert.Equal(t, Detail{Term: "x", Mastery: DefaultMastery}, r.Resolve(ctx, "x"))
		r.Reset()
	})
}
