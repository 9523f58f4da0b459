package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/crank/pkg/prompt"
	"github.com/ormasoftchile/crank/pkg/providers"
	"github.com/ormasoftchile/crank/pkg/resolver"
	"github.com/ormasoftchile/crank/pkg/runtime"
	"github.com/ormasoftchile/crank/pkg/schema"
	"github.com/ormasoftchile/crank/pkg/vars"
)

// The configuration backing the dynamic commands, loaded before cobra
// parses anything so registration can mount the tree.
var (
	loadedConfig  *schema.Config
	configSource  string
	configLoadErr error
)

// runFunc executes a resolved command invocation. The production
// implementation is invokeCommand; tests substitute a recorder.
type runFunc func(ctx context.Context, def *schema.CommandDefinition, visible schema.Variables, overrides map[string]string) error

// reservedFlags are claimed by crank itself. A variable flag with one of
// these names is skipped at registration; validate warns about it.
var reservedFlags = map[string]bool{
	"file": true, "verbose": true, "dry-run": true,
	"yes": true, "help": true, "version": true,
}

// loadConfiguration finds and fully validates the configuration that
// backs the dynamic commands. Findings with error severity keep the
// commands from registering; warnings do not.
func loadConfiguration(explicit string) (*schema.Config, string, error) {
	path := explicit
	if path == "" {
		found, err := schema.FindConfigFile(".")
		if err != nil {
			return nil, "", err
		}
		path = found
	}
	cfg, findings := schema.ValidateFile(path)
	if schema.HasErrors(findings) {
		n := 0
		for _, f := range findings {
			if f.Severity == "error" {
				n++
			}
		}
		return nil, "", fmt.Errorf("%s has %d validation error(s); run 'crank validate %s' for details", path, n, path)
	}
	return cfg, path, nil
}

func requireConfig() (*schema.Config, string, error) {
	if loadedConfig == nil {
		return nil, "", configLoadErr
	}
	return loadedConfig, configSource, nil
}

// configPathFromArgs pulls the --file/-f value out of raw arguments.
// Registration runs before cobra parses flags, so the path has to be
// scraped by hand.
func configPathFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		switch a := args[i]; {
		case strings.HasPrefix(a, "--file="):
			return strings.TrimPrefix(a, "--file=")
		case a == "--file" || a == "-f":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(a, "-f"):
			return strings.TrimPrefix(strings.TrimPrefix(a, "-f"), "=")
		}
	}
	return ""
}

// firstPositional returns the first non-flag argument, skipping the
// value of --file/-f. It decides whether an invocation targets a
// built-in before cobra parses anything.
func firstPositional(args []string) string {
	skip := false
	for _, a := range args {
		if skip {
			skip = false
			continue
		}
		switch {
		case a == "--file" || a == "-f":
			skip = true
		case strings.HasPrefix(a, "-"):
			// boolean or broken; cobra reports the broken ones
		default:
			return a
		}
	}
	return ""
}

func hasBuiltin(root *cobra.Command, name string) bool {
	if name == "help" || name == "completion" || strings.HasPrefix(name, "__complete") {
		return true
	}
	for _, c := range root.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

// registerConfigCommands mounts one cobra command per configured
// command, parents before children, with a string flag per visible
// variable. Top-level names that collide with built-ins are skipped so
// crank's own surface stays reachable.
func registerConfigCommands(root *cobra.Command, cfg *schema.Config, run runFunc) {
	taken := map[string]bool{"help": true, "completion": true}
	for _, c := range root.Commands() {
		taken[c.Name()] = true
		for _, a := range c.Aliases {
			taken[a] = true
		}
	}

	nodes := map[string]*cobra.Command{}
	_ = resolver.Walk(cfg, func(path []string, def *schema.CommandDefinition, visible schema.Variables) error {
		name := path[len(path)-1]
		parent := root
		if len(path) > 1 {
			p, ok := nodes[pathKey(path[:len(path)-1])]
			if !ok {
				return nil // under a skipped top-level name
			}
			parent = p
		} else if taken[name] {
			fmt.Fprintf(root.ErrOrStderr(), "Warning: command %q collides with a built-in and was not registered\n", name)
			return nil
		}

		cc := newConfigCommand(path, def, visible, taken, run)
		parent.AddCommand(cc)
		nodes[pathKey(path)] = cc
		return nil
	})
}

func newConfigCommand(path []string, def *schema.CommandDefinition, visible schema.Variables, taken map[string]bool, run runFunc) *cobra.Command {
	aliases := def.Aliases
	if len(path) == 1 {
		aliases = nil
		for _, a := range def.Aliases {
			if !taken[a] {
				aliases = append(aliases, a)
			}
		}
	}

	cc := &cobra.Command{
		Use:          path[len(path)-1],
		Aliases:      aliases,
		Short:        def.Description,
		SilenceUsage: def.Runnable(),
	}
	for _, nv := range visible {
		if reservedFlags[nv.FlagName()] {
			continue
		}
		usage := nv.Description
		if usage == "" {
			usage = "set variable " + nv.Name
		}
		cc.Flags().String(nv.FlagName(), "", usage)
	}

	joined := strings.Join(path, " ")
	cc.RunE = func(c *cobra.Command, args []string) error {
		if len(args) > 0 {
			return &resolver.NotFoundError{Token: args[0], Prefix: path, Available: subcommandNames(def)}
		}
		if !def.Runnable() {
			return fmt.Errorf("%q has no actions; pick one of its subcommands", joined)
		}
		overrides := map[string]string{}
		for _, nv := range visible {
			if f := c.Flags().Lookup(nv.FlagName()); f != nil && f.Changed {
				overrides[nv.Name] = f.Value.String()
			}
		}
		return run(c.Context(), def, visible, overrides)
	}
	return cc
}

func subcommandNames(def *schema.CommandDefinition) []string {
	out := make([]string, 0, len(def.Commands))
	for i := range def.Commands {
		out = append(out, def.Commands[i].Name)
	}
	return out
}

func pathKey(path []string) string { return strings.Join(path, " ") }

// invokeCommand resolves the visible variables, then hands the command
// to the runtime engine. Executor and prompter follow the global flags.
func invokeCommand(ctx context.Context, def *schema.CommandDefinition, visible schema.Variables, overrides map[string]string) error {
	var (
		executor providers.CommandExecutor
		prompter providers.Prompter
	)
	if flagDryRun {
		executor = &providers.DryRunExecutor{}
		prompter = providers.DryRunPrompter{}
	} else {
		executor = &providers.RealExecutor{}
		prompter = &prompt.Interactive{}
	}

	vr := &vars.Resolver{Exec: executor, Prompter: prompter}
	values, err := vr.Resolve(ctx, visible, overrides)
	if err != nil {
		return err
	}

	engine := &runtime.Engine{
		Executor:    executor,
		Prompter:    prompter,
		Verbose:     flagVerbose,
		AutoConfirm: flagYes || flagDryRun,
	}
	return engine.Run(ctx, def, values)
}
