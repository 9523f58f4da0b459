package prompt

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.Msg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func feed(t *testing.T, m tea.Model, keys ...string) tea.Model {
	t.Helper()
	for _, k := range keys {
		m, _ = m.Update(key(k))
	}
	return m
}

// --- Select model ---

// TestSelectModelNavigation checks cursor movement and Enter selection.
func TestSelectModelNavigation(t *testing.T) {
	m := tea.Model(newSelectModel("channel", "Release channel?", []string{"stable", "beta", "nightly"}))
	m = feed(t, m, "j", "down", "k", "enter")

	sm := m.(selectModel)
	if !sm.done {
		t.Fatal("expected selection to be submitted")
	}
	if got := sm.Value(); got != "beta" {
		t.Errorf("expected beta, got %q", got)
	}
}

// TestSelectModelCursorStaysInRange checks movement clamps at both ends.
func TestSelectModelCursorStaysInRange(t *testing.T) {
	m := tea.Model(newSelectModel("c", "", []string{"one", "two"}))
	m = feed(t, m, "k", "up")
	if sm := m.(selectModel); sm.cursor != 0 {
		t.Errorf("expected cursor pinned at 0, got %d", sm.cursor)
	}
	m = feed(t, m, "j", "j", "j")
	if sm := m.(selectModel); sm.cursor != 1 {
		t.Errorf("expected cursor pinned at 1, got %d", sm.cursor)
	}
}

// TestSelectModelQuickSelect checks number keys choose immediately.
func TestSelectModelQuickSelect(t *testing.T) {
	m := tea.Model(newSelectModel("c", "", []string{"stable", "beta", "nightly"}))
	m = feed(t, m, "2")

	sm := m.(selectModel)
	if !sm.done || sm.Value() != "beta" {
		t.Errorf("expected quick select of beta, got done=%v value=%q", sm.done, sm.Value())
	}
}

// TestSelectModelQuickSelectOutOfRange checks a number past the list is ignored.
func TestSelectModelQuickSelectOutOfRange(t *testing.T) {
	m := tea.Model(newSelectModel("c", "", []string{"one", "two"}))
	m = feed(t, m, "9")

	sm := m.(selectModel)
	if sm.done {
		t.Error("expected out-of-range number to be ignored")
	}
}

// TestSelectModelCancel checks Esc abandons the prompt.
func TestSelectModelCancel(t *testing.T) {
	m := tea.Model(newSelectModel("c", "", []string{"one"}))
	m = feed(t, m, "esc")
	if sm := m.(selectModel); !sm.cancelled {
		t.Error("expected cancellation")
	}
}

// TestSelectModelTruncatesLongOptions checks long options render on one line.
func TestSelectModelTruncatesLongOptions(t *testing.T) {
	m := tea.Model(newSelectModel("c", "", []string{strings.Repeat("x", 120)}))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})

	view := m.(selectModel).View()
	if !strings.Contains(view, "…") {
		t.Errorf("expected truncated option, got: %q", view)
	}
}

// --- Text model ---

// TestTextModelSubmit checks typed text comes back on Enter.
func TestTextModelSubmit(t *testing.T) {
	m := tea.Model(newTextModel("version", "Version to release?", false, false))
	m = feed(t, m, "1.2.3", "enter")

	tm := m.(textModel)
	if !tm.done {
		t.Fatal("expected submission")
	}
	if got := tm.Value(); got != "1.2.3" {
		t.Errorf("expected 1.2.3, got %q", got)
	}
}

// TestTextModelCancel checks Esc abandons the prompt.
func TestTextModelCancel(t *testing.T) {
	m := tea.Model(newTextModel("v", "", false, false))
	m = feed(t, m, "half-typed", "esc")
	if tm := m.(textModel); !tm.cancelled {
		t.Error("expected cancellation")
	}
}

// TestTextModelMultiLine checks Enter inserts a newline and Ctrl+D submits.
func TestTextModelMultiLine(t *testing.T) {
	m := tea.Model(newTextModel("notes", "Release notes", true, false))
	m = feed(t, m, "first", "enter", "second", "ctrl+d")

	tm := m.(textModel)
	if !tm.done {
		t.Fatal("expected submission")
	}
	if got := tm.Value(); got != "first\nsecond" {
		t.Errorf("expected two lines, got %q", got)
	}
}

// TestTextModelSensitiveMasksEcho checks masked input never shows the value.
func TestTextModelSensitiveMasksEcho(t *testing.T) {
	m := tea.Model(newTextModel("token", "API token", false, true))
	m = feed(t, m, "hunter2")

	tm := m.(textModel)
	if strings.Contains(tm.View(), "hunter2") {
		t.Error("sensitive value leaked into the view")
	}
	if got := tm.Value(); got != "hunter2" {
		t.Errorf("expected value kept, got %q", got)
	}
}

// --- Confirm model ---

// TestConfirmModelAnswers checks y/n handling with no as the default.
func TestConfirmModelAnswers(t *testing.T) {
	cases := []struct {
		key       string
		answer    bool
		cancelled bool
	}{
		{"y", true, false},
		{"Y", true, false},
		{"n", false, false},
		{"enter", false, false},
		{"esc", false, true},
	}
	for _, tc := range cases {
		m := tea.Model(newConfirmModel("Proceed?"))
		m = feed(t, m, tc.key)

		cm := m.(confirmModel)
		if cm.cancelled != tc.cancelled {
			t.Errorf("%s: expected cancelled=%v", tc.key, tc.cancelled)
			continue
		}
		if !tc.cancelled && (!cm.done || cm.answer != tc.answer) {
			t.Errorf("%s: expected done with answer=%v, got done=%v answer=%v", tc.key, tc.answer, cm.done, cm.answer)
		}
	}
}

// --- Plain-read fallbacks ---

// TestFallbackTextReadsLine checks the piped-input path for single-line text.
func TestFallbackTextReadsLine(t *testing.T) {
	var out bytes.Buffer
	p := &Interactive{In: strings.NewReader("blue\n"), Out: &out}

	got, err := p.Text("color", "Favorite color", false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "blue" {
		t.Errorf("expected blue, got %q", got)
	}
	if !strings.Contains(out.String(), "Favorite color") {
		t.Errorf("expected the question on the output, got: %q", out.String())
	}
}

// TestFallbackMultiLineReadsToEOF checks multi-line input is kept verbatim.
func TestFallbackMultiLineReadsToEOF(t *testing.T) {
	p := &Interactive{In: strings.NewReader("first\nsecond\n"), Out: io.Discard}

	got, err := p.Text("notes", "Notes", true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "first\nsecond\n" {
		t.Errorf("expected verbatim input, got %q", got)
	}
}

// TestFallbackSelect checks numeric and verbatim answers plus rejection.
func TestFallbackSelect(t *testing.T) {
	options := []string{"stable", "beta", "nightly"}

	cases := []struct {
		input   string
		want    string
		wantErr string
	}{
		{"2\n", "beta", ""},
		{"nightly\n", "nightly", ""},
		{"7\n", "", "out of range"},
		{"bogus\n", "", "invalid selection"},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		p := &Interactive{In: strings.NewReader(tc.input), Out: &out}

		got, err := p.Select("channel", "Release channel?", options)
		if tc.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("%q: expected error with %q, got %v", tc.input, tc.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: expected %q, got %q", tc.input, tc.want, got)
		}
		if !strings.Contains(out.String(), "1. stable") {
			t.Errorf("expected numbered options, got: %q", out.String())
		}
	}
}

// TestFallbackConfirm checks yes spellings and the no default, including EOF.
func TestFallbackConfirm(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"yes\n", true},
		{"Y\n", true},
		{"n\n", false},
		{"\n", false},
		{"whatever\n", false},
		{"", false},
	}
	for _, tc := range cases {
		p := &Interactive{In: strings.NewReader(tc.input), Out: io.Discard}
		got, err := p.Confirm("Proceed?")
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: expected %v, got %v", tc.input, tc.want, got)
		}
	}
}

// TestFallbackSequentialPrompts checks one reader serves several prompts
// without losing buffered input between them.
func TestFallbackSequentialPrompts(t *testing.T) {
	p := &Interactive{In: strings.NewReader("alice\n2\ny\n"), Out: io.Discard}

	name, err := p.Text("user", "User", false, false)
	if err != nil || name != "alice" {
		t.Fatalf("text: expected alice, got %q (%v)", name, err)
	}
	choice, err := p.Select("env", "Environment", []string{"dev", "prod"})
	if err != nil || choice != "prod" {
		t.Fatalf("select: expected prod, got %q (%v)", choice, err)
	}
	ok, err := p.Confirm("Continue?")
	if err != nil || !ok {
		t.Fatalf("confirm: expected yes, got %v (%v)", ok, err)
	}
}

// TestFallbackTextEOF checks a required prompt with no input fails.
func TestFallbackTextEOF(t *testing.T) {
	p := &Interactive{In: strings.NewReader(""), Out: io.Discard}
	if _, err := p.Text("v", "Value", false, false); err == nil {
		t.Error("expected error on empty input")
	}
}

// TestErrCancelledIsSentinel keeps the cancel error matchable.
func TestErrCancelledIsSentinel(t *testing.T) {
	wrapped := errors.New("outer")
	if errors.Is(wrapped, ErrCancelled) {
		t.Error("unrelated error must not match ErrCancelled")
	}
	if !errors.Is(ErrCancelled, ErrCancelled) {
		t.Error("ErrCancelled must match itself")
	}
}
