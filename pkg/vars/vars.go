// Package vars resolves variable definitions to concrete string values:
// literals pass through, exec sources capture command output, prompt
// sources ask the user. Resolution is all-or-nothing and runs before any
// action.
package vars

import (
	"context"
	"fmt"
	"strings"

	"github.com/ormasoftchile/crank/pkg/providers"
	"github.com/ormasoftchile/crank/pkg/schema"
)

// FailureKind classifies why a variable could not be resolved.
type FailureKind string

const (
	// ExecutionFailed: the source command could not be launched.
	ExecutionFailed FailureKind = "execution_failed"
	// NonZeroExit: the source command ran and exited nonzero.
	NonZeroExit FailureKind = "nonzero_exit"
	// PromptError: the user could not be asked or cancelled.
	PromptError FailureKind = "prompt_error"
)

// ResolutionError reports the variable that failed and why.
type ResolutionError struct {
	Name     string
	Kind     FailureKind
	ExitCode int // set for NonZeroExit
	Err      error
}

func (e *ResolutionError) Error() string {
	if e.Kind == NonZeroExit {
		return fmt.Sprintf("resolve variable %q: command exited with status %d", e.Name, e.ExitCode)
	}
	return fmt.Sprintf("resolve variable %q: %v", e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Resolver turns variable definitions into values through the injected
// executor and prompter.
type Resolver struct {
	Exec     providers.CommandExecutor
	Prompter providers.Prompter
}

// Resolve produces a value for every definition, in declaration order.
// An override keyed by variable name wins outright: its source is never
// consulted, so no command runs and no prompt fires. The first failure
// aborts the whole resolution.
func (r *Resolver) Resolve(ctx context.Context, defs schema.Variables, overrides map[string]string) (map[string]string, error) {
	values := make(map[string]string, len(defs))
	for _, nv := range defs {
		if v, ok := overrides[nv.Name]; ok {
			values[nv.Name] = v
			continue
		}
		v, err := r.resolveOne(ctx, nv)
		if err != nil {
			return nil, err
		}
		values[nv.Name] = v
	}
	return values, nil
}

func (r *Resolver) resolveOne(ctx context.Context, nv schema.NamedVariable) (string, error) {
	switch s := nv.Source.(type) {
	case schema.Literal:
		return s.Value, nil
	case schema.Exec:
		return r.capture(ctx, nv.Name, s.Command)
	case schema.TextPrompt:
		v, err := r.Prompter.Text(nv.Name, s.Message, s.MultiLine, s.Sensitive)
		if err != nil {
			return "", &ResolutionError{Name: nv.Name, Kind: PromptError, Err: err}
		}
		return v, nil
	case schema.SelectPrompt:
		return r.selectOne(ctx, nv.Name, s)
	default:
		return "", &ResolutionError{Name: nv.Name, Kind: PromptError, Err: fmt.Errorf("variable has no source")}
	}
}

// capture runs the source command and returns its stdout with trailing
// line terminators removed. Literals and prompt answers are never
// trimmed; captures are, the way $(...) substitution behaves.
func (r *Resolver) capture(ctx context.Context, name string, spec schema.CommandSpec) (string, error) {
	res, err := r.Exec.Capture(ctx, spec, nil)
	if err != nil {
		return "", &ResolutionError{Name: name, Kind: ExecutionFailed, Err: err}
	}
	if res.ExitCode != 0 {
		return "", &ResolutionError{
			Name:     name,
			Kind:     NonZeroExit,
			ExitCode: res.ExitCode,
			Err:      fmt.Errorf("command %q exited with status %d", spec.Text(), res.ExitCode),
		}
	}
	return strings.TrimRight(string(res.Stdout), "\r\n"), nil
}

func (r *Resolver) selectOne(ctx context.Context, name string, s schema.SelectPrompt) (string, error) {
	options := s.Options
	if s.OptionsExec != nil {
		out, err := r.capture(ctx, name, *s.OptionsExec)
		if err != nil {
			return "", err
		}
		options = splitOptions(out)
	}
	if len(options) == 0 {
		return "", &ResolutionError{Name: name, Kind: PromptError, Err: fmt.Errorf("select prompt has no options")}
	}
	v, err := r.Prompter.Select(name, s.Message, options)
	if err != nil {
		return "", &ResolutionError{Name: name, Kind: PromptError, Err: err}
	}
	return v, nil
}

// splitOptions turns captured output into selectable lines. Blank lines
// are dropped; a blank selection row means nothing to a user.
func splitOptions(out string) []string {
	var options []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		options = append(options, line)
	}
	return options
}
