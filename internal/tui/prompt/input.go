package prompt

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/stateful/canvas/internal/log"
)

// InputModel is a single line prompt. Enter submits the value, Esc
// cancels it. The owner checks Result after every update.
type InputModel struct {
	Label string

	input     textinput.Model
	done      bool
	cancelled bool
	log       *zap.Logger
}

type InputParams struct {
	Label       string
	Value       string
	PlaceHolder string
	Width       int
}

func NewInputModel(ip InputParams) InputModel {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = ip.PlaceHolder
	input.Width = ip.Width
	input.SetValue(ip.Value)
	input.CursorEnd()
	_ = input.Focus()

	return InputModel{
		Label: ip.Label,
		input: input,
		log:   log.Get().Named("prompt.InputModel"),
	}
}

func (m InputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m InputModel) Value() string { return m.input.Value() }

// SetValue replaces the value and moves the cursor to its end.
func (m *InputModel) SetValue(v string) {
	m.input.SetValue(v)
	m.input.CursorEnd()
}

// Result reports the value once the prompt is finished.
func (m InputModel) Result() (value string, done, cancelled bool) {
	return m.input.Value(), m.done, m.cancelled
}

func (m InputModel) Update(msg tea.Msg) (InputModel, tea.Cmd) {
	if m.done {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			m.input.Blur()
			m.log.Debug("submitted", zap.Int("len", len(m.input.Value())))
			return m, nil
		case tea.KeyEsc:
			m.done = true
			m.cancelled = true
			m.input.Blur()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m InputModel) View() string {
	if m.Label == "" {
		return m.input.View()
	}
	return m.Label + " " + m.input.View()
}
