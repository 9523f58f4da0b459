package providers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ormasoftchile/crank/pkg/schema"
)

func TestRealExecutorCaptureEcho(t *testing.T) {
	r := &RealExecutor{}
	res, err := r.Capture(context.Background(), schema.CommandSpec{Run: "echo hello"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(res.Stdout); got != "hello\n" {
		t.Errorf("stdout = %q, want %q", got, "hello\n")
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode)
	}
}

// TestRealExecutorQuotedArgv checks quoted arguments survive the split as
// single argv entries.
func TestRealExecutorQuotedArgv(t *testing.T) {
	r := &RealExecutor{}
	spec := schema.CommandSpec{Run: `printf %s-%s one "two words"`}
	res, err := r.Capture(context.Background(), spec, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(res.Stdout); got != "one-two words" {
		t.Errorf("stdout = %q", got)
	}
}

// TestRealExecutorNonzeroExit folds the exit status into the result
// instead of returning an error.
func TestRealExecutorNonzeroExit(t *testing.T) {
	r := &RealExecutor{Stderr: &bytes.Buffer{}}
	res, err := r.Capture(context.Background(), schema.CommandSpec{Bash: "exit 3"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
}

// TestRealExecutorLaunchFailure reports a missing binary as an error, not
// an exit code.
func TestRealExecutorLaunchFailure(t *testing.T) {
	r := &RealExecutor{}
	_, err := r.Run(context.Background(), schema.CommandSpec{Run: "definitely-not-a-binary-zzz"}, nil)
	if err == nil {
		t.Fatal("expected launch error")
	}
	if !strings.Contains(err.Error(), "execute command") {
		t.Errorf("error = %v", err)
	}
}

// TestRealExecutorEnvOverlay checks extra variables replace inherited
// ones and new names get appended.
func TestRealExecutorEnvOverlay(t *testing.T) {
	r := &RealExecutor{
		BaseEnv: []string{"KEEP=old", "SWAP=before"},
		Stderr:  &bytes.Buffer{},
	}
	spec := schema.CommandSpec{Bash: `echo "$KEEP/$SWAP/$ADDED"`}
	res, err := r.Capture(context.Background(), spec, map[string]string{"SWAP": "after", "ADDED": "new"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(string(res.Stdout)); got != "old/after/new" {
		t.Errorf("stdout = %q", got)
	}
}

// TestRealExecutorWorkingDirectory runs the command inside the spec's
// directory.
func TestRealExecutorWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	r := &RealExecutor{}
	res, err := r.Capture(context.Background(), schema.CommandSpec{Run: "ls", WorkingDirectory: dir}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(res.Stdout), "marker.txt") {
		t.Errorf("stdout = %q, want marker.txt listed", res.Stdout)
	}
}

// TestRealExecutorRunStreams attaches the injected writers.
func TestRealExecutorRunStreams(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := &RealExecutor{Stdout: &stdout, Stderr: &stderr}
	spec := schema.CommandSpec{Bash: "echo out; echo err >&2"}
	res, err := r.Run(context.Background(), spec, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d", res.ExitCode)
	}
	if stdout.String() != "out\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
	if stderr.String() != "err\n" {
		t.Errorf("stderr = %q", stderr.String())
	}
	if len(res.Stdout) != 0 {
		t.Errorf("result stdout should stay empty for Run, got %q", res.Stdout)
	}
}

func TestSplitCommand(t *testing.T) {
	argv, err := SplitCommand(`docker run -e "NAME=a b" img`)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	want := []string{"docker", "run", "-e", "NAME=a b", "img"}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("argv = %q, want %q", argv, want)
	}

	if _, err := SplitCommand("   "); err == nil {
		t.Error("expected error for blank command")
	}
}

func TestMergeEnvOverlay(t *testing.T) {
	base := []string{"A=1", "B=2", "A=dup"}
	got := mergeEnv(base, map[string]string{"A": "9", "C": "3"})
	want := []string{"A=9", "B=2", "C=3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("merged = %v, want %v", got, want)
	}
	if out := mergeEnv(base, nil); !reflect.DeepEqual(out, base) {
		t.Errorf("empty overlay changed env: %v", out)
	}
}

// TestDryRunExecutorSpawnsNothing checks the dry-run path only narrates.
func TestDryRunExecutorSpawnsNothing(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "created.txt")
	var out bytes.Buffer
	d := &DryRunExecutor{Out: &out}

	if _, err := d.Run(context.Background(), schema.CommandSpec{Run: "touch " + target}, nil); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("dry run spawned a process")
	}
	if !strings.Contains(out.String(), "would run: touch") {
		t.Errorf("output = %q", out.String())
	}

	res, err := d.Capture(context.Background(), schema.CommandSpec{Run: "date +%Y"}, nil)
	if err != nil {
		t.Fatalf("dry capture: %v", err)
	}
	if got := string(res.Stdout); got != "$(date +%Y)" {
		t.Errorf("placeholder = %q", got)
	}
}

func TestNonInteractivePrompter(t *testing.T) {
	p := &NonInteractivePrompter{}
	if _, err := p.Text("token", "Paste it", false, true); err == nil || !strings.Contains(err.Error(), "token") {
		t.Errorf("text error = %v", err)
	}
	if _, err := p.Select("env", "Pick", []string{"a"}); err == nil || !strings.Contains(err.Error(), "env") {
		t.Errorf("select error = %v", err)
	}
	if ok, err := p.Confirm("sure?"); err != nil || ok {
		t.Errorf("confirm = %v, %v; want declined", ok, err)
	}
	p.AutoConfirm = true
	if ok, _ := p.Confirm("sure?"); !ok {
		t.Error("auto confirm should answer yes")
	}
}

func TestDryRunPrompter(t *testing.T) {
	var p DryRunPrompter
	if v, _ := p.Text("name", "msg", false, false); v != "<name>" {
		t.Errorf("text = %q", v)
	}
	if v, _ := p.Select("env", "msg", []string{"staging", "prod"}); v != "staging" {
		t.Errorf("select = %q", v)
	}
	if v, _ := p.Select("env", "msg", nil); v != "<env>" {
		t.Errorf("select fallback = %q", v)
	}
	if ok, _ := p.Confirm("proceed?"); !ok {
		t.Error("dry-run confirm should proceed")
	}
}
