package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/ormasoftchile/crank/pkg/schema"
)

// RealExecutor runs commands via os/exec. The zero value attaches the
// process streams and inherits the environment; tests inject buffers and
// a fixed BaseEnv.
type RealExecutor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// BaseEnv replaces the inherited environment when non-nil.
	BaseEnv []string
}

// Run executes spec streaming its output through the executor's writers.
func (r *RealExecutor) Run(ctx context.Context, spec schema.CommandSpec, extraEnv map[string]string) (*CommandResult, error) {
	cmd, err := r.command(ctx, spec, extraEnv)
	if err != nil {
		return nil, err
	}
	cmd.Stdin = r.stdin()
	cmd.Stdout = r.stdout()
	cmd.Stderr = r.stderr()
	return wait(cmd, spec)
}

// Capture executes spec buffering stdout; stderr streams as usual.
func (r *RealExecutor) Capture(ctx context.Context, spec schema.CommandSpec, extraEnv map[string]string) (*CommandResult, error) {
	cmd, err := r.command(ctx, spec, extraEnv)
	if err != nil {
		return nil, err
	}
	var stdout bytes.Buffer
	cmd.Stdin = r.stdin()
	cmd.Stdout = &stdout
	cmd.Stderr = r.stderr()
	res, err := wait(cmd, spec)
	if err != nil {
		return nil, err
	}
	res.Stdout = stdout.Bytes()
	return res, nil
}

func (r *RealExecutor) command(ctx context.Context, spec schema.CommandSpec, extraEnv map[string]string) (*exec.Cmd, error) {
	var cmd *exec.Cmd
	if spec.Shell() {
		cmd = exec.CommandContext(ctx, "bash", "-c", spec.Bash)
	} else {
		argv, err := SplitCommand(spec.Run)
		if err != nil {
			return nil, fmt.Errorf("split command %q: %w", spec.Run, err)
		}
		cmd = exec.CommandContext(ctx, argv[0], argv[1:]...)
	}
	cmd.Dir = spec.WorkingDirectory
	cmd.Env = mergeEnv(r.baseEnv(), extraEnv)
	return cmd, nil
}

// wait runs cmd and folds a nonzero exit into the result. Anything else
// (binary not found, bad working directory) is a launch error.
func wait(cmd *exec.Cmd, spec schema.CommandSpec) (*CommandResult, error) {
	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("execute command %q: %w", spec.Text(), err)
		}
		exitCode = exitErr.ExitCode()
	}
	return &CommandResult{ExitCode: exitCode, Duration: duration}, nil
}

func (r *RealExecutor) stdin() io.Reader {
	if r.Stdin != nil {
		return r.Stdin
	}
	return os.Stdin
}

func (r *RealExecutor) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *RealExecutor) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}

func (r *RealExecutor) baseEnv() []string {
	if r.BaseEnv != nil {
		return r.BaseEnv
	}
	return os.Environ()
}

// SplitCommand splits a raw command line into argv, honoring quotes the
// way a POSIX shell tokenizes them. No expansion happens here; variable
// substitution runs before the split.
func SplitCommand(line string) ([]string, error) {
	argv, err := shellwords.Parse(line)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return argv, nil
}

// mergeEnv overlays extra onto base. Existing names are replaced where
// they stand, duplicates of overridden names dropped, and new names
// appended in sorted order so child environments are deterministic.
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(extra))
	used := make(map[string]bool, len(extra))
	for _, kv := range base {
		name, _, ok := strings.Cut(kv, "=")
		if ok {
			if _, hit := extra[name]; hit {
				if used[name] {
					continue
				}
				out = append(out, name+"="+extra[name])
				used[name] = true
				continue
			}
		}
		out = append(out, kv)
	}
	var added []string
	for name := range extra {
		if !used[name] {
			added = append(added, name)
		}
	}
	sort.Strings(added)
	for _, name := range added {
		out = append(out, name+"="+extra[name])
	}
	return out
}

// DryRunExecutor prints what would run instead of spawning anything.
type DryRunExecutor struct {
	Out io.Writer
}

func (d *DryRunExecutor) Run(_ context.Context, spec schema.CommandSpec, _ map[string]string) (*CommandResult, error) {
	d.print(spec)
	return &CommandResult{}, nil
}

// Capture returns the command line as a shell-style placeholder so
// substituted previews stay readable.
func (d *DryRunExecutor) Capture(_ context.Context, spec schema.CommandSpec, _ map[string]string) (*CommandResult, error) {
	d.print(spec)
	return &CommandResult{Stdout: []byte("$(" + spec.Text() + ")")}, nil
}

func (d *DryRunExecutor) print(spec schema.CommandSpec) {
	out := d.Out
	if out == nil {
		out = os.Stderr
	}
	if spec.Shell() {
		fmt.Fprintf(out, "would run: bash -c %q", spec.Bash)
	} else {
		fmt.Fprintf(out, "would run: %s", spec.Run)
	}
	if spec.WorkingDirectory != "" {
		fmt.Fprintf(out, " (in %s)", spec.WorkingDirectory)
	}
	fmt.Fprintln(out)
}
