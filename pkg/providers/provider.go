// Package providers defines the CommandExecutor and Prompter interfaces
// behind which actions, variable captures, and confirmations run, plus
// the non-interactive implementations.
package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/ormasoftchile/crank/pkg/schema"
)

// CommandResult holds the outcome of a single command execution.
type CommandResult struct {
	Stdout   []byte        `json:"stdout,omitempty"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// CommandExecutor abstracts how commands run.
// Implementations: RealExecutor, DryRunExecutor.
type CommandExecutor interface {
	// Run executes spec with the executor's streams attached. The result
	// carries the exit code; Stdout stays empty.
	Run(ctx context.Context, spec schema.CommandSpec, extraEnv map[string]string) (*CommandResult, error)

	// Capture executes spec buffering its stdout for the caller. The
	// child's stderr still streams.
	Capture(ctx context.Context, spec schema.CommandSpec, extraEnv map[string]string) (*CommandResult, error)
}

// Prompter abstracts how variable prompts and confirmations reach the
// user. Implementations: prompt.Interactive, NonInteractivePrompter,
// DryRunPrompter.
type Prompter interface {
	Text(name, message string, multiLine, sensitive bool) (string, error)
	Select(name, message string, options []string) (string, error)
	Confirm(message string) (bool, error)
}

// NonInteractivePrompter refuses variable prompts and answers
// confirmations without a terminal. The MCP server and scripted runs use
// it; a declined confirmation surfaces as an action failure, not a hang.
type NonInteractivePrompter struct {
	AutoConfirm bool
}

func (p *NonInteractivePrompter) Text(name, message string, _, _ bool) (string, error) {
	return "", fmt.Errorf("variable %q requires interactive input (%s)", name, message)
}

func (p *NonInteractivePrompter) Select(name, message string, _ []string) (string, error) {
	return "", fmt.Errorf("variable %q requires an interactive selection (%s)", name, message)
}

func (p *NonInteractivePrompter) Confirm(string) (bool, error) {
	return p.AutoConfirm, nil
}

// DryRunPrompter supplies placeholder values so a dry run can display
// substituted commands without asking anything.
type DryRunPrompter struct{}

func (DryRunPrompter) Text(name, _ string, _, _ bool) (string, error) {
	return "<" + name + ">", nil
}

func (DryRunPrompter) Select(name, _ string, options []string) (string, error) {
	if len(options) > 0 {
		return options[0], nil
	}
	return "<" + name + ">", nil
}

func (DryRunPrompter) Confirm(string) (bool, error) { return true, nil }
