package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/expr-lang/expr"

	"github.com/ormasoftchile/crank/pkg/providers"
	"github.com/ormasoftchile/crank/pkg/schema"
	"github.com/ormasoftchile/crank/pkg/template"
)

// Engine drives action execution for one command invocation.
type Engine struct {
	Executor providers.CommandExecutor
	Prompter providers.Prompter

	// Out receives progress chrome; defaults to stderr so command output
	// on stdout stays pipeable.
	Out io.Writer

	// Verbose adds the resolved variable values and durations.
	Verbose bool

	// AutoConfirm answers every confirmation with yes (--yes).
	AutoConfirm bool
}

// Run executes a command's primary actions, stopping at the first
// failure, then its deferred actions, which always run and aggregate
// their failures. The returned error combines both sequences.
func (e *Engine) Run(ctx context.Context, cmd *schema.CommandDefinition, values map[string]string) error {
	if e.Verbose {
		e.printValues(values)
	}

	_, primaryErr := e.runSequence(ctx, cmd.ActionSteps(), values, false, "action")

	var deferredErr error
	if steps := cmd.DeferredSteps(); len(steps) > 0 {
		_, err := e.runSequence(ctx, steps, values, true, "deferred action")
		if err != nil {
			deferredErr = fmt.Errorf("deferred actions: %w", err)
		}
	}

	return errors.Join(primaryErr, deferredErr)
}

// RunSequence executes one action sequence against values. With
// aggregate false the first failure stops it and later actions stay
// Pending; with aggregate true every action runs and the failures come
// back together. The states slice always has one entry per action.
func (e *Engine) RunSequence(ctx context.Context, actions []schema.Action, values map[string]string, aggregate bool) ([]ActionState, error) {
	return e.runSequence(ctx, actions, values, aggregate, "action")
}

func (e *Engine) runSequence(ctx context.Context, actions []schema.Action, values map[string]string, aggregate bool, stage string) ([]ActionState, error) {
	states := make([]ActionState, len(actions))
	for i := range states {
		states[i] = Pending
	}

	var failures []*ActionError
	fail := func(i int, ae *ActionError) error {
		states[i] = Failed
		e.printf("✗ %s %d/%d: %v\n", stage, i+1, len(actions), ae.failureDetail())
		if !aggregate {
			return ae
		}
		failures = append(failures, ae)
		return nil
	}

	for i, action := range actions {
		if action.When != "" {
			ok, err := evalGuard(action.When, values)
			if err != nil {
				if stop := fail(i, &ActionError{Index: i, Kind: GuardError, Err: err}); stop != nil {
					return states, stop
				}
				continue
			}
			if !ok {
				states[i] = Skipped
				e.printf("⊘ %s %d/%d skipped (when: %s)\n", stage, i+1, len(actions), action.When)
				continue
			}
		}

		states[i] = Running
		e.printf("▶ %s %d/%d: %s\n", stage, i+1, len(actions), describe(action, values))

		start := time.Now()
		ae := e.runAction(ctx, i, action, values)
		if ae != nil {
			if stop := fail(i, ae); stop != nil {
				return states, stop
			}
			continue
		}
		states[i] = Succeeded
		e.printf("✓ %s %d/%d (%s)\n", stage, i+1, len(actions), time.Since(start).Round(time.Millisecond))
	}

	if len(failures) > 0 {
		return states, &ActionFailures{Failures: failures}
	}
	return states, nil
}

func (e *Engine) runAction(ctx context.Context, idx int, action schema.Action, values map[string]string) *ActionError {
	switch op := action.Op.(type) {
	case schema.ConfirmOp:
		return e.confirm(idx, op, values)
	case schema.ExecOp:
		return e.exec(ctx, idx, op, values)
	default:
		return &ActionError{Index: idx, Kind: LaunchFailed, Err: fmt.Errorf("action has no operation")}
	}
}

// confirm asks the question with variables substituted. Anything but yes
// fails the action, and no process is ever spawned for it.
func (e *Engine) confirm(idx int, op schema.ConfirmOp, values map[string]string) *ActionError {
	message := template.Substitute(op.Message, values)
	if e.AutoConfirm {
		e.printf("auto-confirmed: %s\n", message)
		return nil
	}
	ok, err := e.Prompter.Confirm(message)
	if err != nil {
		return &ActionError{Index: idx, Kind: Declined, Err: err}
	}
	if !ok {
		return &ActionError{Index: idx, Kind: Declined}
	}
	return nil
}

func (e *Engine) exec(ctx context.Context, idx int, op schema.ExecOp, values map[string]string) *ActionError {
	spec := substituteSpec(op.Command, values)

	res, err := e.Executor.Run(ctx, spec, values)
	if err != nil {
		return &ActionError{Index: idx, Kind: LaunchFailed, Err: err}
	}
	if res.ExitCode != 0 {
		return &ActionError{Index: idx, Kind: ExitStatus, ExitCode: res.ExitCode}
	}
	return nil
}

// substituteSpec applies substitution the way each form needs it: raw
// command text before the argv split, shell text untouched (bash reads
// the variables from its environment), working directory on both paths.
func substituteSpec(spec schema.CommandSpec, values map[string]string) schema.CommandSpec {
	out := spec
	if !spec.Shell() {
		out.Run = template.Substitute(spec.Run, values)
	}
	out.WorkingDirectory = template.Substitute(spec.WorkingDirectory, values)
	return out
}

// describe renders the chrome line for an action: what will actually run.
func describe(action schema.Action, values map[string]string) string {
	switch op := action.Op.(type) {
	case schema.ConfirmOp:
		return "confirm: " + template.Substitute(op.Message, values)
	case schema.ExecOp:
		spec := substituteSpec(op.Command, values)
		text := spec.Run
		if spec.Shell() {
			text = "bash -c " + fmt.Sprintf("%q", spec.Bash)
		}
		if spec.WorkingDirectory != "" {
			return fmt.Sprintf("%s (in %s)", text, spec.WorkingDirectory)
		}
		return text
	default:
		return "?"
	}
}

// failureDetail renders the part of an ActionError after the marker; the
// chrome line already carries the index.
func (e *ActionError) failureDetail() string {
	switch e.Kind {
	case ExitStatus:
		return fmt.Sprintf("exited with status %d", e.ExitCode)
	case Declined:
		if e.Err != nil {
			return fmt.Sprintf("confirmation failed: %v", e.Err)
		}
		return "confirmation declined"
	default:
		return fmt.Sprint(e.Err)
	}
}

// evalGuard evaluates a when expression against the resolved variables.
// Each variable is addressable bare and through the "vars" map; a
// variable named vars wins over the map.
func evalGuard(src string, values map[string]string) (bool, error) {
	env := buildGuardEnv(values)
	program, err := expr.Compile(src, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compile condition %q: %w", src, err)
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval condition %q: %w", src, err)
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not return bool (got %T)", src, output)
	}
	return result, nil
}

func buildGuardEnv(values map[string]string) map[string]any {
	env := make(map[string]any, len(values)+1)
	env["vars"] = values
	for k, v := range values {
		env[k] = v
	}
	return env
}

func (e *Engine) printValues(values map[string]string) {
	if len(values) == 0 {
		return
	}
	e.printf("variables:\n")
	for _, nv := range sortedKeys(values) {
		e.printf("  %s=%s\n", nv, values[nv])
	}
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) printf(format string, args ...any) {
	out := e.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, format, args...)
}
