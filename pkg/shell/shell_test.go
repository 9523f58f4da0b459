package shell

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ormasoftchile/crank/pkg/providers"
	"github.com/ormasoftchile/crank/pkg/schema"
)

const sessionConfig = `
variables:
  region: us-east-1
commands:
  deploy:
    description: Ship a service
    aliases: [d]
    variables:
      service:
        prompt:
          message: Which service?
          options: [api, worker]
    action: echo deploying $service to $region
  db:
    description: Database chores
    commands:
      migrate:
        action: echo migrating
`

func loadConfig(t *testing.T) *schema.Config {
	t.Helper()
	cfg, err := schema.Load(strings.NewReader(sessionConfig))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

// fakeExecutor records command texts and always succeeds.
type fakeExecutor struct {
	calls []string
	envs  []map[string]string
}

func (f *fakeExecutor) Run(_ context.Context, spec schema.CommandSpec, extraEnv map[string]string) (*providers.CommandResult, error) {
	f.calls = append(f.calls, spec.Text())
	f.envs = append(f.envs, extraEnv)
	return &providers.CommandResult{}, nil
}

func (f *fakeExecutor) Capture(ctx context.Context, spec schema.CommandSpec, extraEnv map[string]string) (*providers.CommandResult, error) {
	return f.Run(ctx, spec, extraEnv)
}

// fakePrompter answers selects with a fixed choice.
type fakePrompter struct {
	choice string
	asked  []string
}

func (f *fakePrompter) Text(name, message string, multiLine, sensitive bool) (string, error) {
	return "", errors.New("unexpected text prompt")
}

func (f *fakePrompter) Select(name, message string, options []string) (string, error) {
	f.asked = append(f.asked, name)
	return f.choice, nil
}

func (f *fakePrompter) Confirm(message string) (bool, error) {
	return false, nil
}

func newShell(t *testing.T) (*Shell, *fakeExecutor, *fakePrompter, *bytes.Buffer) {
	t.Helper()
	ex := &fakeExecutor{}
	pr := &fakePrompter{choice: "api"}
	out := &bytes.Buffer{}
	s := &Shell{Config: loadConfig(t), Source: "crank.yaml", Executor: ex, Prompter: pr, Out: out}
	return s, ex, pr, out
}

// TestSplitInvocation checks path and flag separation in both flag forms.
func TestSplitInvocation(t *testing.T) {
	path, flags, err := splitInvocation([]string{"deploy", "--region", "eu-west-1", "api", "--service=worker"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(path, []string{"deploy", "api"}) {
		t.Errorf("unexpected path: %v", path)
	}
	want := map[string]string{"region": "eu-west-1", "service": "worker"}
	if !reflect.DeepEqual(flags, want) {
		t.Errorf("unexpected flags: %v", flags)
	}
}

// TestSplitInvocationDanglingFlag checks a flag without a value is rejected.
func TestSplitInvocationDanglingFlag(t *testing.T) {
	_, _, err := splitInvocation([]string{"deploy", "--region"})
	if err == nil || !strings.Contains(err.Error(), "--region needs a value") {
		t.Errorf("expected dangling flag error, got: %v", err)
	}
}

// TestInvokeRunsCommand checks a full invocation: resolve, prompt, run.
func TestInvokeRunsCommand(t *testing.T) {
	s, ex, pr, _ := newShell(t)

	if err := s.invoke(context.Background(), []string{"deploy"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pr.asked) != 1 || pr.asked[0] != "service" {
		t.Errorf("expected one select for service, got %v", pr.asked)
	}
	if len(ex.calls) != 1 || ex.calls[0] != "echo deploying api to us-east-1" {
		t.Errorf("unexpected launches: %v", ex.calls)
	}
}

// TestInvokeFlagOverrideSuppressesPrompt checks an override wins and
// skips the prompt entirely.
func TestInvokeFlagOverrideSuppressesPrompt(t *testing.T) {
	s, ex, pr, _ := newShell(t)

	err := s.invoke(context.Background(), []string{"deploy", "--service", "worker", "--region=eu-west-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pr.asked) != 0 {
		t.Errorf("expected no prompts, got %v", pr.asked)
	}
	if len(ex.calls) != 1 || ex.calls[0] != "echo deploying worker to eu-west-1" {
		t.Errorf("unexpected launches: %v", ex.calls)
	}
}

// TestInvokeByAlias checks aliases resolve like canonical names.
func TestInvokeByAlias(t *testing.T) {
	s, ex, _, _ := newShell(t)

	if err := s.invoke(context.Background(), []string{"d", "--service", "api"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ex.calls) != 1 {
		t.Errorf("expected one launch, got %v", ex.calls)
	}
}

// TestInvokeUnknownFlag checks unknown flags name the command.
func TestInvokeUnknownFlag(t *testing.T) {
	s, _, _, _ := newShell(t)

	err := s.invoke(context.Background(), []string{"deploy", "--bogus", "x"})
	if err == nil || !strings.Contains(err.Error(), `unknown flag --bogus for "deploy"`) {
		t.Errorf("expected unknown flag error, got: %v", err)
	}
}

// TestInvokeRoutingNode checks invoking a group suggests its children.
func TestInvokeRoutingNode(t *testing.T) {
	s, ex, _, _ := newShell(t)

	err := s.invoke(context.Background(), []string{"db"})
	if err == nil || !strings.Contains(err.Error(), "has no actions") {
		t.Errorf("expected routing-node error, got: %v", err)
	}
	if len(ex.calls) != 0 {
		t.Errorf("expected no launches, got %v", ex.calls)
	}
}

// TestInvokeUnknownCommand checks resolution errors surface as-is.
func TestInvokeUnknownCommand(t *testing.T) {
	s, _, _, _ := newShell(t)

	err := s.invoke(context.Background(), []string{"deplyo"})
	if err == nil || !strings.Contains(err.Error(), `unknown command "deplyo"`) {
		t.Errorf("expected unknown command error, got: %v", err)
	}
}

// TestPrintCommandsListsTree checks list output covers nesting, aliases
// and groups.
func TestPrintCommandsListsTree(t *testing.T) {
	s, _, _, out := newShell(t)
	s.printCommands()

	text := out.String()
	for _, want := range []string{"deploy (d)", "Ship a service", "db migrate", "[group]"} {
		if !strings.Contains(text, want) {
			t.Errorf("list output missing %q: %s", want, text)
		}
	}
}

// TestPrintVariablesShowsMergedSet checks vars output includes inherited
// and local variables with their flags.
func TestPrintVariablesShowsMergedSet(t *testing.T) {
	s, _, _, out := newShell(t)
	s.printVariables([]string{"deploy"})

	text := out.String()
	if !strings.Contains(text, "region (--region)") {
		t.Errorf("vars output missing inherited variable: %s", text)
	}
	if !strings.Contains(text, "service (--service)") || !strings.Contains(text, "select (2 options)") {
		t.Errorf("vars output missing local variable summary: %s", text)
	}
}

// TestPrintHelpNamesBuiltins keeps the help text in step with the loop.
func TestPrintHelpNamesBuiltins(t *testing.T) {
	s, _, _, out := newShell(t)
	s.printHelp()

	text := out.String()
	for _, cmd := range []string{"list", "vars", "help", "exit"} {
		if !strings.Contains(text, cmd) {
			t.Errorf("help output missing %q", cmd)
		}
	}
}
