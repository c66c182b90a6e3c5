package prompt

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/stateful/canvas/internal/log"
)

// QuestionModel asks a yes/no question answered by a single key.
// Enter accepts the default, which is yes.
type QuestionModel struct {
	Text string

	input     textinput.Model
	done      bool
	confirmed bool
	log       *zap.Logger
}

func NewQuestionModel(text string) QuestionModel {
	input := textinput.New()
	input.CharLimit = 1
	input.Placeholder = "Y"
	input.Prompt = ""
	input.Width = 1
	_ = input.Focus()

	return QuestionModel{
		Text:  text,
		input: input,
		log:   log.Get().Named("prompt.QuestionModel"),
	}
}

func (m QuestionModel) Init() tea.Cmd {
	return textinput.Blink
}

// Answer reports whether the question was answered and how.
func (m QuestionModel) Answer() (confirmed, done bool) {
	return m.confirmed, m.done
}

func (m QuestionModel) Update(msg tea.Msg) (QuestionModel, tea.Cmd) {
	if m.done {
		return m, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	var val string
	switch key.Type {
	case tea.KeyEnter:
	case tea.KeyEsc:
		val = "n"
	case tea.KeyRunes:
		val = strings.ToLower(string(key.Runes))
	default:
		return m, nil
	}

	m.done = true
	m.confirmed = val == "" || val == "y"
	m.input.Blur()
	m.log.Debug("answered", zap.Bool("confirmed", m.confirmed))
	return m, nil
}

func (m QuestionModel) View() string {
	return m.Text + " [Y/n] " + m.input.View()
}
