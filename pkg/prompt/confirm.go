package prompt

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// confirmModel asks a yes/no question. Anything but an explicit yes
// answers no; Enter takes the default.
type confirmModel struct {
	question string

	answer    bool
	done      bool
	cancelled bool
}

func newConfirmModel(question string) confirmModel {
	return confirmModel{question: question}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "y", "Y":
		m.answer = true
		m.done = true
		return m, tea.Quit
	case "n", "N", "enter":
		m.answer = false
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.question))
	b.WriteString(dimStyle.Render(" [y/N]"))
	b.WriteString("\n")
	b.WriteString(keyBar("y", "yes", "n", "no", "Enter", "no"))
	b.WriteString("\n")
	return b.String()
}
