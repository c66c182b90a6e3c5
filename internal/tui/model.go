package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/elliotchance/orderedmap"
	"go.uber.org/zap"

	"github.com/stateful/canvas/internal/log"
)

const MaxWidth = 120

func Width(width int) int {
	if width > MaxWidth {
		return MaxWidth
	}
	return width
}

type Option func(*Model)

func WithoutHelp() Option {
	return func(m *Model) {
		m.disableHelp = true
	}
}

// Model frames a child model with an error line and key help.
type Model struct {
	Child  tea.Model
	KeyMap *KeyMap
	Styles *Styles

	disableHelp bool
	err         error
	help        help.Model
	log         *zap.Logger
}

func NewModel(child tea.Model, keyMap *KeyMap, styles *Styles, opts ...Option) Model {
	m := Model{
		Child:  child,
		KeyMap: keyMap,
		Styles: styles,
		help:   help.New(),
		log:    log.Get().Named("tui.Model"),
	}

	for _, opt := range opts {
		opt(&m)
	}

	return m
}

func (m Model) Init() tea.Cmd {
	return m.Child.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = Width(msg.Width)

	case tea.KeyMsg:
		if m.KeyMap.Matches(msg, "quit") {
			return m, tea.Quit
		}
		if m.capturing() {
			break
		}
		switch {
		case m.KeyMap.Matches(msg, "more"):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case ErrorMsg:
		m.log.Debug("received ErrorMsg", zap.Error(msg.Err))
		m.err = msg.Err
		if msg.Exit {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.Child, cmd = m.Child.Update(msg)
	return m, cmd
}

func (m Model) capturing() bool {
	c, ok := m.Child.(InputCapturer)
	return ok && c.Capturing()
}

func (m Model) View() string {
	var b strings.Builder

	_, _ = b.WriteString(m.Styles.Child.Render(m.Child.View()))
	if m.err != nil {
		_, _ = b.WriteString("\n" + m.Styles.Error.Render("Error: "+m.err.Error()))
	}

	if m.disableHelp {
		_, _ = b.WriteString("\n")
		return b.String()
	}

	kmap := m.KeyMap.Copy()
	if p, ok := m.Child.(KeyMapProvider); ok {
		kmap.Merge(p.KeyMap())
	}
	_, _ = b.WriteString("\n" + m.Styles.Help.Render(m.help.View(kmap)))

	return b.String()
}

// ErrorMsg reports an error to the frame. With Exit set the program quits.
type ErrorMsg struct {
	Err  error
	Exit bool
}

// InputCapturer is implemented by children that sometimes need every
// key, for example while a prompt is open.
type InputCapturer interface {
	Capturing() bool
}

type KeyMapProvider interface {
	KeyMap() *KeyMap
}

type Styles struct {
	Child   lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
	Status  lipgloss.Style
	Success lipgloss.Style
	Title   lipgloss.Style
}

var (
	ColorError   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF0000"})
	ColorSuccess = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "32", Dark: "42"})
	ColorHelp    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"})
)

var DefaultStyles = &Styles{
	Child:   lipgloss.NewStyle().Padding(1, 0, 0, 0),
	Error:   lipgloss.NewStyle().Inherit(ColorError),
	Help:    lipgloss.NewStyle().Padding(1, 0, 1, 2),
	Status:  lipgloss.NewStyle().Inherit(ColorHelp),
	Success: lipgloss.NewStyle().Inherit(ColorSuccess),
	Title: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#5d5dd2")).
		Padding(0, 1),
}

// FrameKeyMap holds the bindings the frame handles itself.
var FrameKeyMap = func() *KeyMap {
	m := NewKeyMap()
	m.Add("quit", key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	))
	m.Add("more", key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	))
	return m
}()

// KeyMap is an ordered set of named bindings. The order is the order
// in which help lists them.
type KeyMap struct {
	*orderedmap.OrderedMap
}

func NewKeyMap() *KeyMap {
	return &KeyMap{OrderedMap: orderedmap.NewOrderedMap()}
}

func (m *KeyMap) Add(name string, binding key.Binding) {
	m.Set(name, binding)
}

func (m KeyMap) Copy() *KeyMap {
	return &KeyMap{OrderedMap: m.OrderedMap.Copy()}
}

func (m *KeyMap) Merge(kmap *KeyMap) {
	for el := kmap.Front(); el != nil; el = el.Next() {
		m.Set(el.Key, el.Value)
	}
}

func (m KeyMap) Matches(msg tea.KeyMsg, name string) bool {
	v, ok := m.Get(name)
	if !ok {
		return false
	}
	return key.Matches(msg, v.(key.Binding))
}

var _ help.KeyMap = (*KeyMap)(nil)

// ShortHelp lists the frame bindings and the first few of the child.
func (m KeyMap) ShortHelp() []key.Binding {
	const limit = 8
	result := make([]key.Binding, 0, limit)
	for el := m.Front(); el != nil && len(result) < limit; el = el.Next() {
		result = append(result, el.Value.(key.Binding))
	}
	return result
}

func (m KeyMap) FullHelp() [][]key.Binding {
	const columns = 4
	result := make([][]key.Binding, columns)
	idx := 0
	for el := m.Front(); el != nil; el = el.Next() {
		result[idx%columns] = append(result[idx%columns], el.Value.(key.Binding))
		idx++
	}
	return result
}
