package tui

import (
	"context"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/canvas/internal/dbopen"
	"github.com/stateful/canvas/internal/persist"
	"github.com/stateful/canvas/internal/session"
	"github.com/stateful/canvas/internal/ulid"
	"github.com/stateful/canvas/pkg/document"
)

func TestMain(m *testing.M) {
	ulid.MockGenerator("tui")
	code := m.Run()
	ulid.ResetGenerator()
	os.Exit(code)
}

var testKey = persist.Key{Collection: "anatomy", Document: "legs"}

func newTestEditor(t *testing.T, blocks document.Blocks, opts ...EditorOption) (EditorModel, *session.Session) {
	t.Helper()

	p, err := persist.NewSQLite(context.Background(), dbopen.OpenMemory(t))
	require.NoError(t, err)

	s := session.New(testKey, p, blocks)
	return NewEditorModel(context.Background(), s, opts...), s
}

func textBlocks(contents ...string) document.Blocks {
	var result document.Blocks
	for i, c := range contents {
		result = append(result, document.Block{
			ID:      string(rune('a' + i)),
			Type:    document.TypeText,
			Content: c,
		})
	}
	return result
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m EditorModel, msgs ...tea.Msg) EditorModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(EditorModel)
	}
	return m
}

func TestEditorModel_Navigate(t *testing.T) {
	m, _ := newTestEditor(t, textBlocks("one", "two", "three"))
	assert.Equal(t, "a", m.focused())

	m = send(t, m, keys("j"), tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "c", m.focused())

	m = send(t, m, keys("j"))
	assert.Equal(t, "c", m.focused())

	m = send(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "b", m.focused())
	assert.False(t, m.Dirty())
}

func TestEditorModel_Structure(t *testing.T) {
	m, s := newTestEditor(t, textBlocks("one", "two"))

	m = send(t, m, keys("J"))
	assert.Equal(t, []string{"b", "a"}, s.Blocks().IDs())
	assert.True(t, m.Dirty())

	m = send(t, m, keys("d"))
	blocks := s.Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, "one", blocks[2].Content)
	assert.Equal(t, blocks[2].ID, m.focused())

	m = send(t, m, keys("x"))
	assert.Equal(t, []string{"b", "a"}, s.Blocks().IDs())

	m = send(t, m, keys("t"))
	b := s.Blocks()[1]
	assert.Equal(t, document.TypeImage, b.Type)
	require.NotNil(t, b.Meta.Image)

	m = send(t, m, keys("u"), keys("u"))
	blocks = s.Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, document.TypeText, blocks[1].Type)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, []string{"b", "a"}, s.Blocks().IDs())

	_ = send(t, m, keys("o"))
	assert.Len(t, s.Blocks(), 3)
}

func TestEditorModel_Columns(t *testing.T) {
	m, s := newTestEditor(t, textBlocks("one"))

	m = send(t, m, keys("b"))
	blocks := s.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, blocks[1].ID, m.focused())
	assert.Equal(t, 50.0, blocks[1].Meta.Column.Width)

	m = send(t, m, keys("+"), keys("+"))
	blocks = s.Blocks()
	assert.Equal(t, 60.0, blocks[1].Meta.Column.Width)
	assert.Equal(t, 40.0, blocks[0].Meta.Column.Width)

	m = send(t, m, keys("-"))
	assert.Equal(t, 55.0, s.Blocks()[1].Meta.Column.Width)

	// New blocks stay in the column of the focused block.
	m = send(t, m, keys("o"))
	blocks = s.Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, blocks[1].Group(), blocks[2].Group())

	m = send(t, m, keys("b"), keys("b"))
	assert.Equal(t, "no room for another column", m.status)

	m = send(t, m, keys("g"))
	for _, b := range s.Blocks() {
		assert.False(t, b.Grouped())
	}
}

func TestEditorModel_ResizeUndo(t *testing.T) {
	m, s := newTestEditor(t, textBlocks("one"))
	m = send(t, m, keys("b"), keys("+"), keys("+"))
	require.Equal(t, 60.0, s.Blocks()[1].Meta.Column.Width)

	// Each press is its own undo step.
	m = send(t, m, keys("u"))
	assert.Equal(t, 55.0, s.Blocks()[1].Meta.Column.Width)
	assert.Equal(t, 45.0, s.Blocks()[0].Meta.Column.Width)

	_ = send(t, m, keys("u"))
	assert.Equal(t, 50.0, s.Blocks()[1].Meta.Column.Width)
}

func TestEditorModel_Edit(t *testing.T) {
	m, s := newTestEditor(t, textBlocks("one"))

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.Capturing())
	assert.Equal(t, "one", m.input.Value())

	// Keys go to the prompt while it is open.
	m = send(t, m, keys(" <b>two</b>"), keys("q"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Capturing())
	assert.Equal(t, "one <b>two</b>q", s.Blocks()[0].Content)
	assert.True(t, m.Dirty())

	t.Run("Cancel", func(t *testing.T) {
		m, s := newTestEditor(t, textBlocks("one"))
		m = send(t, m, keys("e"), keys("!"), tea.KeyMsg{Type: tea.KeyEsc})
		assert.False(t, m.Capturing())
		assert.Equal(t, "one", s.Blocks()[0].Content)
		assert.False(t, m.Dirty())
	})

	t.Run("Unchanged", func(t *testing.T) {
		m, _ := newTestEditor(t, textBlocks("one"))
		m = send(t, m, keys("e"), tea.KeyMsg{Type: tea.KeyEnter})
		assert.False(t, m.Dirty())
	})
}

func TestEditorModel_Keyword(t *testing.T) {
	m, s := newTestEditor(t, textBlocks("The Femur bone"))

	m = send(t, m, keys("m"), keys("femur"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, `The <span data-keyword="Femur" data-mastery="new">Femur</span> bone`, s.Blocks()[0].Content)

	m = send(t, m, keys("m"), keys("FEMUR"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "The Femur bone", s.Blocks()[0].Content)

	m = send(t, m, keys("m"), keys("tibia"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, `"tibia" not found in the block`, m.status)
}

const threeParagraphs = "First paragraph\n\nSecond **bold** one\n\n- a\n- b"

func TestEditorModel_Paste(t *testing.T) {
	clip := func(text string) EditorOption {
		return WithClipboard(func() (string, error) { return text, nil })
	}

	t.Run("Smart", func(t *testing.T) {
		m, s := newTestEditor(t, textBlocks(""), clip(threeParagraphs))
		m = send(t, m, keys("v"))

		blocks := s.Blocks()
		require.Len(t, blocks, 3)
		assert.Equal(t, document.TypeList, blocks[2].Type)
		assert.Equal(t, "pasted 3 blocks", m.status)
	})

	t.Run("SingleParagraph", func(t *testing.T) {
		m, s := newTestEditor(t, textBlocks("one"), clip(" more"))
		_ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlV})
		assert.Equal(t, "one more", s.Blocks()[0].Content)
	})

	t.Run("WhileEditing", func(t *testing.T) {
		m, s := newTestEditor(t, textBlocks("one", "two"), clip(threeParagraphs))
		m = send(t, m, keys("e"), keys(" typed"), tea.KeyMsg{Type: tea.KeyCtrlV})
		assert.False(t, m.Capturing())

		blocks := s.Blocks()
		require.Len(t, blocks, 5)
		assert.Equal(t, "one typed", blocks[0].Content)
		assert.Equal(t, "b", blocks[4].ID)

		// The pending edit and the paste undo together.
		m = send(t, m, keys("u"))
		assert.Equal(t, textBlocks("one", "two"), s.Blocks())
	})

	t.Run("WhileEditingSingle", func(t *testing.T) {
		m, _ := newTestEditor(t, textBlocks("one"), clip("!"))
		m = send(t, m, keys("e"), tea.KeyMsg{Type: tea.KeyCtrlV})
		assert.True(t, m.Capturing())
		assert.Equal(t, "one!", m.input.Value())
	})

	t.Run("Unavailable", func(t *testing.T) {
		m, s := newTestEditor(t, textBlocks("one"), WithClipboard(func() (string, error) {
			return "", errors.New("no display")
		}))
		m = send(t, m, keys("v"))
		assert.Equal(t, "clipboard unavailable: no display", m.status)
		assert.Equal(t, "one", s.Blocks()[0].Content)
	})
}

func TestEditorModel_Save(t *testing.T) {
	m, s := newTestEditor(t, textBlocks("one"))
	m = send(t, m, keys("d"))
	require.True(t, m.Dirty())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(EditorModel)
	require.NotNil(t, cmd)
	assert.True(t, m.saving)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, "save already in progress", m.status)

	m = send(t, m, m.saveCmd()())
	assert.False(t, m.saving)
	assert.False(t, m.Dirty())
	assert.Equal(t, "saved version 1", m.status)
	assert.Equal(t, 1, s.Version())
}

func TestEditorModel_Quit(t *testing.T) {
	t.Run("Clean", func(t *testing.T) {
		m, _ := newTestEditor(t, textBlocks("one"))
		_, cmd := m.Update(keys("q"))
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})

	t.Run("Dirty", func(t *testing.T) {
		m, _ := newTestEditor(t, textBlocks("one"))
		m = send(t, m, keys("d"), keys("q"))
		require.True(t, m.Capturing())

		m = send(t, m, keys("n"))
		assert.False(t, m.Capturing())

		m = send(t, m, keys("q"))
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})
}

func TestEditorModel_View(t *testing.T) {
	m, _ := newTestEditor(t, textBlocks("one", "two"))

	view := m.View()
	assert.Contains(t, view, "legs")
	assert.Contains(t, view, "▌ one")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.NotContains(t, m.View(), "▌")

	m = send(t, m, keys("d"))
	assert.Contains(t, m.View(), "legs *")
}

func TestEditorModel_Damaged(t *testing.T) {
	ctx := context.Background()
	p, err := persist.NewSQLite(ctx, dbopen.OpenMemory(t))
	require.NoError(t, err)
	_, err = p.Save(ctx, testKey, persist.Payload{SerializedBlocks: []byte(`[{"id":"a","type":"bogus"}]`)})
	require.NoError(t, err)

	s, err := session.Open(ctx, testKey, p)
	require.NoError(t, err)
	require.Error(t, s.Damaged())

	m := NewEditorModel(ctx, s)
	assert.Contains(t, m.View(), "damaged")

	m = send(t, m, keys("o"), keys("d"))
	assert.Len(t, s.Blocks(), 1)
	assert.False(t, m.Dirty())
	assert.Equal(t, "document is damaged and read-only", m.status)

	_, cmd := m.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_Frame(t *testing.T) {
	child, _ := newTestEditor(t, textBlocks("one"))
	frame := NewModel(child, FrameKeyMap, DefaultStyles)

	next, _ := frame.Update(keys("?"))
	frame = next.(Model)
	assert.True(t, frame.help.ShowAll)

	// While the child captures keys the frame leaves them alone.
	next, _ = frame.Update(keys("e"))
	frame = next.(Model)
	next, _ = frame.Update(keys("?"))
	frame = next.(Model)
	assert.True(t, frame.help.ShowAll)
	assert.Equal(t, "one?", frame.Child.(EditorModel).input.Value())

	next, _ = frame.Update(ErrorMsg{Err: errors.New("boom")})
	frame = next.(Model)
	assert.Contains(t, frame.View(), "Error: boom")

	_, cmd := frame.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestFindTerm(t *testing.T) {
	start, end, ok := findTerm("Über die Femur", "femur")
	require.True(t, ok)
	assert.Equal(t, 9, start)
	assert.Equal(t, 14, end)

	_, _, ok = findTerm("text", " ")
	assert.False(t, ok)
}
