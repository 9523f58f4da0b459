// Package runtime executes the action sequences of a command: exec steps
// through a CommandExecutor, confirmations through a Prompter, guards
// through expr. The primary sequence stops at the first failure; the
// deferred sequence always runs and aggregates.
package runtime

import (
	"fmt"
	"strings"
)

// ActionState tracks one action through its lifecycle.
type ActionState string

const (
	Pending   ActionState = "pending"
	Running   ActionState = "running"
	Succeeded ActionState = "succeeded"
	Failed    ActionState = "failed"
	Skipped   ActionState = "skipped"
)

// FailureKind classifies why an action failed.
type FailureKind string

const (
	// LaunchFailed: the command could not be started.
	LaunchFailed FailureKind = "launch_failed"
	// ExitStatus: the command ran and exited nonzero.
	ExitStatus FailureKind = "exit_status"
	// Declined: a confirmation was answered with anything but yes.
	Declined FailureKind = "declined"
	// GuardError: the when expression could not be evaluated.
	GuardError FailureKind = "guard_error"
)

// ActionError reports a single failed action. Index is zero-based;
// messages render it one-based for humans.
type ActionError struct {
	Index    int
	Kind     FailureKind
	ExitCode int // set for ExitStatus
	Err      error
}

func (e *ActionError) Error() string {
	switch e.Kind {
	case ExitStatus:
		return fmt.Sprintf("action %d exited with status %d", e.Index+1, e.ExitCode)
	case Declined:
		return fmt.Sprintf("action %d: confirmation declined", e.Index+1)
	default:
		return fmt.Sprintf("action %d: %v", e.Index+1, e.Err)
	}
}

func (e *ActionError) Unwrap() error { return e.Err }

// ActionFailures aggregates the failures of a sequence that keeps going
// past them.
type ActionFailures struct {
	Failures []*ActionError
}

func (e *ActionFailures) Error() string {
	if len(e.Failures) == 1 {
		return e.Failures[0].Error()
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%d actions failed: %s", len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *ActionFailures) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f
	}
	return out
}
