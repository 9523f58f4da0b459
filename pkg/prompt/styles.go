// Package prompt implements the interactive variable prompts: free text
// (single or multi line, optionally masked), option selection, and yes/no
// confirmation. Each prompt is a small Bubble Tea model rendered inline;
// when standard input is not a terminal the prompts degrade to plain
// line reads so piped invocations stay scriptable.
package prompt

import "github.com/charmbracelet/lipgloss"

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorYellow = lipgloss.Color("214")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorYellow)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	keyStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	keyDescStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

func keyBar(pairs ...string) string {
	out := ""
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			out += "  "
		}
		out += keyStyle.Render(pairs[i]) + keyDescStyle.Render(":"+pairs[i+1])
	}
	return out
}
