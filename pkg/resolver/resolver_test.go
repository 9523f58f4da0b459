package resolver

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ormasoftchile/crank/pkg/schema"
)

func load(t *testing.T, doc string) *schema.Config {
	t.Helper()
	cfg, err := schema.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

const tree = `
variables:
  region: us-east-1
  service: api
commands:
  db:
    aliases: [database]
    variables:
      dsn: local
    commands:
      migrate:
        variables:
          region: eu-west-1
          steps: all
        action: migrate -database $dsn up
  status:
    action: echo $service in $region
`

// TestResolveNestedPath follows aliases and reports the canonical path.
func TestResolveNestedPath(t *testing.T) {
	cfg := load(t, tree)
	rc, err := Resolve(cfg, []string{"database", "migrate"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(rc.Path, []string{"db", "migrate"}) {
		t.Errorf("path = %v", rc.Path)
	}
	if rc.Name() != "migrate" {
		t.Errorf("name = %q", rc.Name())
	}
	if len(rc.Command.ActionSteps()) != 1 {
		t.Errorf("command = %+v", rc.Command)
	}
}

// TestResolveShadowingMerge checks redefinitions replace in place while
// new names append, keeping first-declaration order.
func TestResolveShadowingMerge(t *testing.T) {
	cfg := load(t, tree)
	rc, err := Resolve(cfg, []string{"db", "migrate"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	var order []string
	for _, nv := range rc.Variables {
		order = append(order, nv.Name)
	}
	if !reflect.DeepEqual(order, []string{"region", "service", "dsn", "steps"}) {
		t.Errorf("variable order = %v", order)
	}
	if got := rc.Variables.Get("region").Source; got != (schema.Literal{Value: "eu-west-1"}) {
		t.Errorf("region = %#v, want shadowed literal", got)
	}
	if got := rc.Variables.Get("service").Source; got != (schema.Literal{Value: "api"}) {
		t.Errorf("service = %#v, want inherited literal", got)
	}
}

// TestResolveShadowingDoesNotLeakSideways confirms a sibling resolution
// still sees the unshadowed ancestors.
func TestResolveShadowingDoesNotLeakSideways(t *testing.T) {
	cfg := load(t, tree)
	if _, err := Resolve(cfg, []string{"db", "migrate"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	rc, err := Resolve(cfg, []string{"status"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := rc.Variables.Get("region").Source; got != (schema.Literal{Value: "us-east-1"}) {
		t.Errorf("region = %#v, want root literal", got)
	}
	if rc.Variables.Get("dsn") != nil {
		t.Error("dsn should not be visible outside db")
	}
}

// TestResolveUnknownToken reports the token, the level, and the siblings.
func TestResolveUnknownToken(t *testing.T) {
	cfg := load(t, tree)
	_, err := Resolve(cfg, []string{"db", "migrte"})
	if err == nil {
		t.Fatal("expected error")
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error type = %T", err)
	}
	if nf.Token != "migrte" {
		t.Errorf("token = %q", nf.Token)
	}
	if !reflect.DeepEqual(nf.Prefix, []string{"db"}) {
		t.Errorf("prefix = %v", nf.Prefix)
	}
	if !reflect.DeepEqual(nf.Available, []string{"migrate"}) {
		t.Errorf("available = %v", nf.Available)
	}
	if !strings.Contains(err.Error(), "migrte") || !strings.Contains(err.Error(), "migrate") {
		t.Errorf("message = %v", err)
	}
}

// TestResolvePastLeaf rejects tokens beyond a leaf command.
func TestResolvePastLeaf(t *testing.T) {
	cfg := load(t, tree)
	_, err := Resolve(cfg, []string{"status", "extra"})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v", err)
	}
	if len(nf.Available) != 0 {
		t.Errorf("available = %v, want none", nf.Available)
	}
	if !strings.Contains(err.Error(), "no subcommands") {
		t.Errorf("message = %v", err)
	}
}

// TestWalkPreorder visits parents before children in declaration order
// with the merged variables at each node.
func TestWalkPreorder(t *testing.T) {
	cfg := load(t, tree)
	var visited []string
	err := Walk(cfg, func(path []string, cmd *schema.CommandDefinition, visible schema.Variables) error {
		visited = append(visited, strings.Join(path, "/"))
		if strings.Join(path, "/") == "db/migrate" {
			if got := visible.Get("region").Source; got != (schema.Literal{Value: "eu-west-1"}) {
				t.Errorf("migrate region = %#v", got)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if !reflect.DeepEqual(visited, []string{"db", "db/migrate", "status"}) {
		t.Errorf("visit order = %v", visited)
	}
}

// TestWalkStopsOnError propagates the callback error.
func TestWalkStopsOnError(t *testing.T) {
	cfg := load(t, tree)
	boom := errors.New("stop here")
	count := 0
	err := Walk(cfg, func([]string, *schema.CommandDefinition, schema.Variables) error {
		count++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if count != 1 {
		t.Errorf("visits = %d, want 1", count)
	}
}

// TestMatchPrefersCanonicalName checks a name match beats an alias match.
func TestMatchPrefersCanonicalName(t *testing.T) {
	cfg := load(t, `
commands:
  one:
    action: echo one
  two:
    aliases: [one-more]
    action: echo two
`)
	if nc := Match(cfg.Commands, "one"); nc == nil || nc.Name != "one" {
		t.Errorf("match one = %+v", nc)
	}
	if nc := Match(cfg.Commands, "one-more"); nc == nil || nc.Name != "two" {
		t.Errorf("match alias = %+v", nc)
	}
	if nc := Match(cfg.Commands, "three"); nc != nil {
		t.Errorf("match three = %+v, want nil", nc)
	}
}
