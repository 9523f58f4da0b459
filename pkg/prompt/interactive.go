package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// ErrCancelled reports that the user abandoned a prompt (Esc or Ctrl+C).
var ErrCancelled = errors.New("prompt cancelled")

// Interactive collects variable values from the user. With a terminal on
// In it runs the Bubble Tea prompt models; otherwise it falls back to
// plain reads so values can be piped in.
type Interactive struct {
	In  io.Reader // defaults to os.Stdin
	Out io.Writer // defaults to os.Stderr

	reader *bufio.Reader
}

func (p *Interactive) Text(name, message string, multiLine, sensitive bool) (string, error) {
	if !p.terminal() {
		return p.readText(message, multiLine)
	}

	final, err := p.run(newTextModel(name, message, multiLine, sensitive))
	if err != nil {
		return "", err
	}
	m := final.(textModel)
	if m.cancelled {
		return "", ErrCancelled
	}
	return m.Value(), nil
}

func (p *Interactive) Select(name, message string, options []string) (string, error) {
	if !p.terminal() {
		return p.readSelection(message, options)
	}

	final, err := p.run(newSelectModel(name, message, options))
	if err != nil {
		return "", err
	}
	m := final.(selectModel)
	if m.cancelled {
		return "", ErrCancelled
	}
	return m.Value(), nil
}

func (p *Interactive) Confirm(message string) (bool, error) {
	if !p.terminal() {
		return p.readConfirmation(message)
	}

	final, err := p.run(newConfirmModel(message))
	if err != nil {
		return false, err
	}
	m := final.(confirmModel)
	if m.cancelled {
		return false, ErrCancelled
	}
	return m.answer, nil
}

func (p *Interactive) run(model tea.Model) (tea.Model, error) {
	return tea.NewProgram(model, tea.WithInput(p.in()), tea.WithOutput(p.out())).Run()
}

// terminal reports whether In is a real terminal. Anything else (a pipe,
// a file, an injected reader) takes the plain-read paths.
func (p *Interactive) terminal() bool {
	f, ok := p.in().(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// --- Plain-read fallbacks ---

func (p *Interactive) readText(message string, multiLine bool) (string, error) {
	if multiLine {
		fmt.Fprintf(p.out(), "%s (reading until EOF)\n", message)
		data, err := io.ReadAll(p.buf())
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return string(data), nil
	}

	fmt.Fprintf(p.out(), "%s: ", message)
	return p.readLine()
}

func (p *Interactive) readSelection(message string, options []string) (string, error) {
	fmt.Fprintln(p.out(), message)
	for i, opt := range options {
		fmt.Fprintf(p.out(), "  %d. %s\n", i+1, opt)
	}
	fmt.Fprintf(p.out(), "Selection (1-%d): ", len(options))

	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	line = strings.TrimSpace(line)

	if n, err := strconv.Atoi(line); err == nil {
		if n < 1 || n > len(options) {
			return "", fmt.Errorf("selection %d out of range 1-%d", n, len(options))
		}
		return options[n-1], nil
	}
	for _, opt := range options {
		if opt == line {
			return opt, nil
		}
	}
	return "", fmt.Errorf("invalid selection %q", line)
}

func (p *Interactive) readConfirmation(message string) (bool, error) {
	fmt.Fprintf(p.out(), "%s [y/N]: ", message)
	line, err := p.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// readLine returns one line without its terminator. EOF with pending
// text still yields that text.
func (p *Interactive) readLine() (string, error) {
	line, err := p.buf().ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *Interactive) buf() *bufio.Reader {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.in())
	}
	return p.reader
}

func (p *Interactive) in() io.Reader {
	if p.In != nil {
		return p.In
	}
	return os.Stdin
}

func (p *Interactive) out() io.Writer {
	if p.Out != nil {
		return p.Out
	}
	return os.Stderr
}
