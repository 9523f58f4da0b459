package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ormasoftchile/crank/pkg/resolver"
	"github.com/ormasoftchile/crank/pkg/schema"
)

var docsRaw bool

var docsCmd = &cobra.Command{
	Use:   "docs [command...]",
	Short: "Render documentation for the configured commands",
	Args:  cobra.ArbitraryArgs,
	RunE:  runDocs,
}

func runDocs(cmd *cobra.Command, args []string) error {
	cfg, source, err := requireConfig()
	if err != nil {
		return err
	}
	md, err := buildDocs(cfg, source, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if docsRaw || !isTerminal(out) {
		fmt.Fprint(out, md)
		return nil
	}
	fmt.Fprintln(out, renderMarkdown(md))
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// renderer is a package-level glamour renderer (auto style, no word-wrap).
var renderer *glamour.TermRenderer

func init() {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)
	if err == nil {
		renderer = r
	}
}

// renderMarkdown converts markdown to styled terminal output.
// Falls back to the raw input if glamour is unavailable or rendering fails.
func renderMarkdown(md string) string {
	if renderer == nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// buildDocs renders the command tree as a markdown document. A non-empty
// scope restricts the output to that command and its descendants;
// aliases in the scope resolve to canonical names.
func buildDocs(cfg *schema.Config, source string, scope []string) (string, error) {
	var prefix []string
	if len(scope) > 0 {
		res, err := resolver.Resolve(cfg, scope)
		if err != nil {
			return "", err
		}
		prefix = res.Path
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", filepath.Base(source))
	if cfg.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", cfg.Description)
	}

	_ = resolver.Walk(cfg, func(path []string, def *schema.CommandDefinition, visible schema.Variables) error {
		if !underPrefix(path, prefix) {
			return nil
		}
		writeCommandDocs(&b, path, def, visible)
		return nil
	})
	return b.String(), nil
}

// underPrefix reports whether path is prefix itself, one of its
// descendants, or one of its ancestors (ancestors keep the headings
// coherent when the scope is deep).
func underPrefix(path, prefix []string) bool {
	n := len(path)
	if len(prefix) < n {
		n = len(prefix)
	}
	for i := 0; i < n; i++ {
		if path[i] != prefix[i] {
			return false
		}
	}
	return true
}

func writeCommandDocs(b *strings.Builder, path []string, def *schema.CommandDefinition, visible schema.Variables) {
	fmt.Fprintf(b, "%s %s\n\n", strings.Repeat("#", min(len(path)+1, 6)), strings.Join(path, " "))
	if len(def.Aliases) > 0 {
		fmt.Fprintf(b, "Aliases: %s\n\n", strings.Join(def.Aliases, ", "))
	}
	if def.Description != "" {
		fmt.Fprintf(b, "%s\n\n", def.Description)
	}
	if !def.Runnable() {
		b.WriteString("Command group; invoke one of its subcommands.\n\n")
	}
	if len(visible) > 0 {
		b.WriteString(variableTable(visible))
		b.WriteString("\n")
	}
	if steps := def.ActionSteps(); len(steps) > 0 {
		b.WriteString("Actions:\n\n")
		writeActionList(b, steps)
	}
	if steps := def.DeferredSteps(); len(steps) > 0 {
		b.WriteString("Deferred (always run):\n\n")
		writeActionList(b, steps)
	}
}

// variableTable renders the visible variables as an aligned markdown
// table. Widths count display cells so wide glyphs keep columns straight.
func variableTable(vars schema.Variables) string {
	rows := [][4]string{{"Variable", "Flag", "Source", "Description"}}
	for _, nv := range vars {
		rows = append(rows, [4]string{
			nv.Name,
			"`--" + nv.FlagName() + "`",
			escapeCell(nv.Summary()),
			escapeCell(nv.Description),
		})
	}
	var w [4]int
	for _, r := range rows {
		for i, cell := range r {
			if n := runewidth.StringWidth(cell); n > w[i] {
				w[i] = n
			}
		}
	}
	var b strings.Builder
	for i, r := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			pad(r[0], w[0]), pad(r[1], w[1]), pad(r[2], w[2]), pad(r[3], w[3]))
		if i == 0 {
			fmt.Fprintf(&b, "|%s|%s|%s|%s|\n",
				dashes(w[0]+2), dashes(w[1]+2), dashes(w[2]+2), dashes(w[3]+2))
		}
	}
	return b.String()
}

func pad(s string, width int) string {
	return s + strings.Repeat(" ", width-runewidth.StringWidth(s))
}

func dashes(n int) string { return strings.Repeat("-", n) }

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func writeActionList(b *strings.Builder, actions []schema.Action) {
	for i, a := range actions {
		fmt.Fprintf(b, "%d. %s\n", i+1, describeDocAction(a))
	}
	b.WriteString("\n")
}

func describeDocAction(a schema.Action) string {
	var text string
	switch op := a.Op.(type) {
	case schema.ConfirmOp:
		text = "Ask for confirmation: " + op.Message
	case schema.ExecOp:
		if op.Command.Shell() {
			text = fmt.Sprintf("`bash -c %q`", op.Command.Bash)
		} else {
			text = "`" + op.Command.Run + "`"
		}
		if op.Command.WorkingDirectory != "" {
			text += " (in `" + op.Command.WorkingDirectory + "`)"
		}
	}
	if a.When != "" {
		text += " (when: `" + a.When + "`)"
	}
	return text
}
