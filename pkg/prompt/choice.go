package prompt

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

// selectModel renders a selection list for select prompts.
type selectModel struct {
	title   string
	options []string

	cursor int
	width  int

	done      bool
	cancelled bool
}

func newSelectModel(name, message string, options []string) selectModel {
	title := message
	if title == "" {
		title = "Select " + name
	}
	return selectModel{title: title, options: options, width: 80}
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			m.done = true
			return m, tea.Quit
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			idx := int(msg.String()[0] - '1')
			if idx < len(m.options) {
				m.cursor = idx
				m.done = true
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m selectModel) Value() string {
	if m.cursor < len(m.options) {
		return m.options[m.cursor]
	}
	return ""
}

func (m selectModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")

	for i, opt := range m.options {
		b.WriteString(m.renderItem(i, opt))
		b.WriteString("\n")
	}

	b.WriteString(keyBar("↑↓", "select", "Enter", "choose", "1-9", "quick select", "Esc", "cancel"))
	b.WriteString("\n")
	return b.String()
}

func (m selectModel) renderItem(idx int, opt string) string {
	prefix := "  "
	if idx == m.cursor {
		prefix = cursorStyle.Render("> ")
	}

	num := fmt.Sprintf("%d.", idx+1)

	// Keep long options on one line so the cursor row stays aligned.
	maxW := m.width - len(num) - 4
	if maxW > 10 {
		opt = runewidth.Truncate(opt, maxW, "…")
	}

	line := fmt.Sprintf("%s%s %s", prefix, keyStyle.Render(num), opt)
	if idx == m.cursor {
		return cursorStyle.Render(line)
	}
	return line
}
