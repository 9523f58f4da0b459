package prompt

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// textModel collects a free-text value. Single-line prompts use a text
// input and submit on Enter; multi-line prompts use a textarea and
// submit on Ctrl+D so Enter can insert newlines.
type textModel struct {
	title     string
	multiLine bool

	input textinput.Model
	area  textarea.Model

	done      bool
	cancelled bool
}

func newTextModel(name, message string, multiLine, sensitive bool) textModel {
	m := textModel{title: message, multiLine: multiLine}
	if m.title == "" {
		m.title = "Enter " + name
	}

	if multiLine {
		ta := textarea.New()
		ta.Placeholder = "Enter value..."
		ta.CharLimit = 0
		ta.SetWidth(60)
		ta.SetHeight(5)
		ta.ShowLineNumbers = false
		ta.Focus()
		m.area = ta
		return m
	}

	ti := textinput.New()
	ti.Placeholder = "Enter value..."
	ti.CharLimit = 4096
	ti.Width = 60
	if sensitive {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	ti.Focus()
	m.input = ti
	return m
}

func (m textModel) Init() tea.Cmd {
	if m.multiLine {
		return textarea.Blink
	}
	return textinput.Blink
}

func (m textModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			if !m.multiLine {
				m.done = true
				return m, tea.Quit
			}
		case "ctrl+d":
			if m.multiLine {
				m.done = true
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	if m.multiLine {
		m.area, cmd = m.area.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m textModel) Value() string {
	if m.multiLine {
		return m.area.Value()
	}
	return m.input.Value()
}

func (m textModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")

	if m.multiLine {
		b.WriteString(m.area.View())
		b.WriteString("\n")
		b.WriteString(keyBar("Ctrl+D", "submit", "Esc", "cancel"))
	} else {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(keyBar("Enter", "submit", "Esc", "cancel"))
	}
	b.WriteString("\n")
	return b.String()
}
