package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/canvas/internal/log"
	"github.com/stateful/canvas/internal/persist"
	"github.com/stateful/canvas/internal/session"
	"github.com/stateful/canvas/internal/surface"
	"github.com/stateful/canvas/internal/tui/prompt"
	"github.com/stateful/canvas/pkg/document"
	"github.com/stateful/canvas/pkg/document/editor"
	"github.com/stateful/canvas/pkg/document/inline"
	"github.com/stateful/canvas/pkg/document/keyword"
)

// ResizeStep is how much one key press widens or narrows a column.
const ResizeStep = 5.0

type mode int

const (
	modeNormal mode = iota
	modeEdit
	modeKeyword
	modeConfirmQuit
)

type EditorOption func(*EditorModel)

// WithClipboard replaces the system clipboard reader.
func WithClipboard(read func() (string, error)) EditorOption {
	return func(m *EditorModel) {
		m.readClipboard = read
	}
}

func WithEditorResolver(r *keyword.Resolver) EditorOption {
	return func(m *EditorModel) {
		m.resolver = r
	}
}

// EditorModel edits the document of a session block by block.
type EditorModel struct {
	ctx      context.Context
	session  *session.Session
	resolver *keyword.Resolver
	keyMap   *KeyMap
	styles   *Styles

	width   int
	preview bool
	mode    mode
	dirty   bool
	saving  bool
	status  string

	input    prompt.InputModel
	question prompt.QuestionModel
	spinner  spinner.Model

	readClipboard func() (string, error)
	log           *zap.Logger
}

func NewEditorModel(ctx context.Context, s *session.Session, opts ...EditorOption) EditorModel {
	sp := spinner.New()
	sp.Spinner = spinner.Line

	m := EditorModel{
		ctx:           ctx,
		session:       s,
		keyMap:        EditorKeyMap(),
		styles:        DefaultStyles,
		width:         surface.DefaultWidth,
		spinner:       sp,
		readClipboard: clipboard.ReadAll,
		log:           log.Get().Named("tui.EditorModel"),
	}

	for _, opt := range opts {
		opt(&m)
	}

	return m
}

// EditorKeyMap returns the bindings of the block editor.
func EditorKeyMap() *KeyMap {
	m := NewKeyMap()
	m.Add("up", key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous block")))
	m.Add("down", key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next block")))
	m.Add("edit", key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit")))
	m.Add("new", key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "new block")))
	m.Add("save", key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")))
	m.Add("exit", key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")))
	m.Add("move up", key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "move up")))
	m.Add("move down", key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "move down")))
	m.Add("beside", key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "add column")))
	m.Add("ungroup", key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "ungroup")))
	m.Add("wider", key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "wider column")))
	m.Add("narrower", key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "narrower column")))
	m.Add("type", key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "next type")))
	m.Add("duplicate", key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "duplicate")))
	m.Add("delete", key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")))
	m.Add("keyword", key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "toggle keyword")))
	m.Add("paste", key.NewBinding(key.WithKeys("ctrl+v", "v"), key.WithHelp("v", "paste")))
	m.Add("undo", key.NewBinding(key.WithKeys("u", "ctrl+z"), key.WithHelp("u", "undo")))
	m.Add("redo", key.NewBinding(key.WithKeys("ctrl+r", "ctrl+y"), key.WithHelp("ctrl+r", "redo")))
	m.Add("preview", key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "preview")))
	return m
}

func (m EditorModel) KeyMap() *KeyMap { return m.keyMap }

func (m EditorModel) Capturing() bool { return m.mode != modeNormal }

func (m EditorModel) Dirty() bool { return m.dirty }

func (m EditorModel) Init() tea.Cmd { return nil }

type savedMsg struct {
	record persist.Record
	err    error
}

func (m EditorModel) saveCmd() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		record, err := s.Save(ctx)
		return savedMsg{record: record, err: err}
	}
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = Width(msg.Width)
		return m, nil

	case spinner.TickMsg:
		if !m.saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.log.Info("save failed", zap.Error(msg.err))
			m.status = "save failed: " + msg.err.Error()
			if errors.Is(msg.err, session.ErrBusy) {
				m.status = "save already in progress"
			}
			return m, nil
		}
		m.dirty = false
		m.status = fmt.Sprintf("saved version %d", msg.record.Version)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeKeyword:
			return m.updateKeyword(msg)
		case modeConfirmQuit:
			return m.updateConfirmQuit(msg)
		default:
			return m.updateNormal(msg)
		}
	}

	return m, nil
}

func (m EditorModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	if err := m.session.Damaged(); err != nil {
		switch {
		case m.keyMap.Matches(msg, "exit"):
			return m, tea.Quit
		case m.keyMap.Matches(msg, "preview"):
			m.preview = !m.preview
		default:
			m.status = "document is damaged and read-only"
		}
		return m, nil
	}

	focused := m.focused()

	switch {
	case m.keyMap.Matches(msg, "up"):
		m.focusStep(-1)
	case m.keyMap.Matches(msg, "down"):
		m.focusStep(1)

	case m.keyMap.Matches(msg, "edit"):
		b, ok := m.block(focused)
		if !ok {
			break
		}
		m.input = prompt.NewInputModel(prompt.InputParams{
			Label: "Edit:",
			Value: b.Content,
			Width: m.width - 8,
		})
		m.mode = modeEdit

	case m.keyMap.Matches(msg, "keyword"):
		m.input = prompt.NewInputModel(prompt.InputParams{
			Label:       "Keyword:",
			PlaceHolder: "term in the focused block",
		})
		m.mode = modeKeyword

	case m.keyMap.Matches(msg, "new"):
		m.mutate(func(s *editor.Store) bool {
			b, _ := s.Block(focused)
			s.Create(s.Index(focused), document.TypeText, "", b.Meta.Column)
			return true
		})
	case m.keyMap.Matches(msg, "move up"):
		m.mutate(func(s *editor.Store) bool { return s.Move(focused, -1) })
	case m.keyMap.Matches(msg, "move down"):
		m.mutate(func(s *editor.Store) bool { return s.Move(focused, 1) })
	case m.keyMap.Matches(msg, "beside"):
		if !m.mutate(func(s *editor.Store) bool {
			_, ok := s.AddBeside(focused, 0)
			return ok
		}) {
			m.status = "no room for another column"
		}
	case m.keyMap.Matches(msg, "ungroup"):
		m.mutate(func(s *editor.Store) bool { return s.Ungroup(focused) })
	case m.keyMap.Matches(msg, "wider"):
		m.resize(focused, ResizeStep)
	case m.keyMap.Matches(msg, "narrower"):
		m.resize(focused, -ResizeStep)
	case m.keyMap.Matches(msg, "type"):
		m.mutate(func(s *editor.Store) bool {
			b, ok := s.Block(focused)
			return ok && s.ChangeType(focused, nextType(b.Type))
		})
	case m.keyMap.Matches(msg, "duplicate"):
		m.mutate(func(s *editor.Store) bool {
			_, ok := s.Duplicate(focused)
			return ok
		})
	case m.keyMap.Matches(msg, "delete"):
		m.mutate(func(s *editor.Store) bool { return s.Delete(focused) })
	case m.keyMap.Matches(msg, "paste"):
		m.paste(focused, nil)
	case m.keyMap.Matches(msg, "undo"):
		m.mutate(func(s *editor.Store) bool { return s.Undo() })
	case m.keyMap.Matches(msg, "redo"):
		m.mutate(func(s *editor.Store) bool { return s.Redo() })
	case m.keyMap.Matches(msg, "preview"):
		m.preview = !m.preview

	case m.keyMap.Matches(msg, "save"):
		if m.saving {
			m.status = "save already in progress"
			break
		}
		m.saving = true
		return m, tea.Batch(m.spinner.Tick, m.saveCmd())

	case m.keyMap.Matches(msg, "exit"):
		if !m.dirty {
			return m, tea.Quit
		}
		m.question = prompt.NewQuestionModel("Quit without saving?")
		m.mode = modeConfirmQuit
	}

	return m, nil
}

func (m EditorModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	focused := m.focused()

	// Only ctrl+v pastes here; "v" is text.
	if msg.Type == tea.KeyCtrlV {
		pending := inline.Sanitize(m.input.Value())
		if m.paste(focused, &pending) {
			m.mode = modeNormal
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	value, done, cancelled := m.input.Result()
	if !done {
		return m, cmd
	}
	m.mode = modeNormal
	if cancelled {
		return m, nil
	}

	content := inline.Sanitize(value)
	m.mutate(func(s *editor.Store) bool {
		b, ok := s.Block(focused)
		if !ok || b.Content == content {
			return false
		}
		return s.Update(focused, editor.Patch{Content: &content})
	})
	return m, nil
}

func (m EditorModel) updateKeyword(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	term, done, cancelled := m.input.Result()
	if !done {
		return m, cmd
	}
	m.mode = modeNormal
	if cancelled || strings.TrimSpace(term) == "" {
		return m, nil
	}

	focused := m.focused()
	ok := m.mutate(func(s *editor.Store) bool {
		b, ok := s.Block(focused)
		if !ok {
			return false
		}
		start, end, found := findTerm(inline.Parse(b.Content).PlainText(), term)
		if !found {
			return false
		}
		content, changed := keyword.Toggle(m.ctx, b.Content, start, end, m.resolver)
		return changed && s.Update(focused, editor.Patch{Content: &content})
	})
	if !ok {
		m.status = fmt.Sprintf("%q not found in the block", strings.TrimSpace(term))
	}
	return m, nil
}

func (m EditorModel) updateConfirmQuit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.question, cmd = m.question.Update(msg)

	confirmed, done := m.question.Answer()
	if !done {
		return m, cmd
	}
	m.mode = modeNormal
	if confirmed {
		return m, tea.Quit
	}
	return m, nil
}

// paste reads the clipboard and spreads it over several blocks if it
// has several paragraphs. Otherwise the text is appended to the block,
// or to the pending edit when one is open.
func (m *EditorModel) paste(id string, pending *string) bool {
	text, err := m.readClipboard()
	if err != nil {
		m.status = "clipboard unavailable: " + err.Error()
		return false
	}

	var result editor.PasteResult
	smart := m.mutate(func(s *editor.Store) bool {
		var ok bool
		result, ok = s.SmartPaste(id, text, pending)
		return ok
	})
	if smart {
		m.status = fmt.Sprintf("pasted %d blocks", len(result.Blocks))
		return true
	}

	addition := inline.FromPlainText(text).String()
	if pending != nil {
		m.input.SetValue(*pending + addition)
		return false
	}
	m.mutate(func(s *editor.Store) bool {
		b, ok := s.Block(id)
		if !ok {
			return false
		}
		content := inline.Canonical(b.Content + addition)
		return s.Update(id, editor.Patch{Content: &content})
	})
	return false
}

func (m *EditorModel) resize(id string, delta float64) {
	m.mutate(func(s *editor.Store) bool {
		b, ok := s.Block(id)
		if !ok || !b.Grouped() {
			return false
		}
		return s.ResizeColumn(id, b.Meta.Column.Width+delta)
	})
}

func (m *EditorModel) focusStep(step int) {
	m.session.Edit(func(s *editor.Store) {
		blocks := s.Blocks()
		idx := blocks.Index(s.Focused()) + step
		if idx >= 0 && idx < len(blocks) {
			s.Focus(blocks[idx].ID)
		}
	})
}

// mutate runs fn against the store and marks the document dirty when
// fn reports a change.
func (m *EditorModel) mutate(fn func(*editor.Store) bool) bool {
	var changed bool
	m.session.Edit(func(s *editor.Store) {
		changed = fn(s)
	})
	if changed {
		m.dirty = true
	}
	return changed
}

func (m EditorModel) focused() string {
	var id string
	m.session.Edit(func(s *editor.Store) { id = s.Focused() })
	return id
}

func (m EditorModel) block(id string) (document.Block, bool) {
	var (
		b  document.Block
		ok bool
	)
	m.session.Edit(func(s *editor.Store) { b, ok = s.Block(id) })
	return b, ok
}

func (m EditorModel) View() string {
	var b strings.Builder

	title := m.session.Key().Document
	if m.dirty {
		title += " *"
	}
	_, _ = b.WriteString(m.styles.Title.Render(title) + "\n\n")

	rows := surface.Build(m.ctx, m.session.Blocks(), m.resolver)
	if err := m.session.Damaged(); err != nil {
		rows = []surface.Row{surface.NoticeRow(err)}
	}
	if m.preview {
		_, _ = b.WriteString(surface.Preview(rows, m.width))
	} else {
		_, _ = b.WriteString(surface.Editor(rows, m.width, m.focused()))
	}
	_, _ = b.WriteString("\n\n")

	switch m.mode {
	case modeEdit, modeKeyword:
		_, _ = b.WriteString(m.input.View())
	case modeConfirmQuit:
		_, _ = b.WriteString(m.question.View())
	default:
		switch {
		case m.saving:
			_, _ = b.WriteString(m.spinner.View() + " saving")
		case strings.HasPrefix(m.status, "saved"):
			_, _ = b.WriteString(m.styles.Success.Render(m.status))
		case m.status != "":
			_, _ = b.WriteString(m.styles.Status.Render(m.status))
		}
	}

	return b.String()
}

func nextType(t document.Type) document.Type {
	types := document.Types()
	for i, candidate := range types {
		if candidate == t {
			return types[(i+1)%len(types)]
		}
	}
	return document.TypeText
}

// findTerm finds term in text case-insensitively and returns its rune
// offsets.
func findTerm(text, term string) (start, end int, ok bool) {
	needle := []rune(strings.ToLower(strings.TrimSpace(term)))
	haystack := []rune(strings.ToLower(text))
	if len(needle) == 0 {
		return 0, 0, false
	}

outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if haystack[i+j] != r {
				continue outer
			}
		}
		return i, i + len(needle), true
	}
	return 0, 0, false
}
