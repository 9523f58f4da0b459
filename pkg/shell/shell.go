// Package shell implements the interactive REPL over a configuration's
// command tree: the same commands the CLI exposes, invoked repeatedly
// from one session with tab completion.
package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ormasoftchile/crank/pkg/providers"
	"github.com/ormasoftchile/crank/pkg/resolver"
	"github.com/ormasoftchile/crank/pkg/runtime"
	"github.com/ormasoftchile/crank/pkg/schema"
	"github.com/ormasoftchile/crank/pkg/vars"
)

// Shell is an interactive session over one loaded configuration.
type Shell struct {
	Config   *schema.Config
	Source   string // configuration file path, shown in the greeting
	Executor providers.CommandExecutor
	Prompter providers.Prompter
	Out      io.Writer

	// AutoConfirm answers confirmations with yes for the whole session.
	AutoConfirm bool
}

// Run starts the REPL loop. It returns when the user exits or input
// reaches EOF; command failures are printed and the loop continues.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "crank> ",
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(s.out(), "crank shell — %s, %d top-level commands\n", s.Source, len(s.Config.Commands))
	fmt.Fprintf(s.out(), "Type 'list' to see commands, 'help' for built-ins, 'exit' to leave.\n\n")

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		tokens, err := providers.SplitCommand(line)
		if err != nil {
			fmt.Fprintf(s.out(), "Error: %v\n", err)
			continue
		}

		switch tokens[0] {
		case "exit", "quit", "q":
			return nil
		case "help", "?":
			s.printHelp()
		case "list", "ls":
			s.printCommands()
		case "vars":
			s.printVariables(tokens[1:])
		default:
			if err := s.invoke(ctx, tokens); err != nil {
				fmt.Fprintf(s.out(), "Error: %v\n", err)
			}
		}
	}
}

// invoke resolves the tokens as a command path with flag overrides mixed
// in, resolves its variables, and runs it.
func (s *Shell) invoke(ctx context.Context, tokens []string) error {
	path, flags, err := splitInvocation(tokens)
	if err != nil {
		return err
	}

	res, err := resolver.Resolve(s.Config, path)
	if err != nil {
		return err
	}
	if !res.Command.Runnable() {
		return fmt.Errorf("command %q has no actions; pick one of its subcommands", strings.Join(res.Path, " "))
	}

	overrides, err := overridesByName(res, flags)
	if err != nil {
		return err
	}

	r := &vars.Resolver{Exec: s.Executor, Prompter: s.Prompter}
	values, err := r.Resolve(ctx, res.Variables, overrides)
	if err != nil {
		return err
	}

	eng := &runtime.Engine{
		Executor:    s.Executor,
		Prompter:    s.Prompter,
		Out:         s.out(),
		AutoConfirm: s.AutoConfirm,
	}
	return eng.Run(ctx, res.Command, values)
}

// splitInvocation separates path tokens from --flag overrides. Flags
// take --name=value or --name value form and may appear anywhere.
func splitInvocation(tokens []string) (path []string, flags map[string]string, err error) {
	flags = make(map[string]string)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "--") {
			path = append(path, tok)
			continue
		}
		name := strings.TrimPrefix(tok, "--")
		if name == "" {
			return nil, nil, fmt.Errorf("invalid flag %q", tok)
		}
		if cut := strings.IndexByte(name, '='); cut >= 0 {
			flags[name[:cut]] = name[cut+1:]
			continue
		}
		if i+1 >= len(tokens) {
			return nil, nil, fmt.Errorf("flag --%s needs a value", name)
		}
		i++
		flags[name] = tokens[i]
	}
	return path, flags, nil
}

// overridesByName maps flag names to the variable names they supply at
// this command. Unknown flags are an error, not a silent drop.
func overridesByName(res *resolver.ResolvedCommand, flags map[string]string) (map[string]string, error) {
	overrides := make(map[string]string, len(flags))
	for flag, value := range flags {
		nv, ok := variableForFlag(res.Variables, flag)
		if !ok {
			return nil, fmt.Errorf("unknown flag --%s for %q", flag, strings.Join(res.Path, " "))
		}
		overrides[nv] = value
	}
	return overrides, nil
}

func variableForFlag(visible schema.Variables, flag string) (string, bool) {
	for _, nv := range visible {
		if nv.FlagName() == flag {
			return nv.Name, true
		}
	}
	return "", false
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out(), `Built-ins:
  list               show every command with its description
  vars <command...>  show the variables a command would resolve
  help               this text
  exit               leave the shell

Anything else is run as a command path, optionally with --flag value
overrides, e.g.: deploy api --region eu-west-1
`)
}

func (s *Shell) printCommands() {
	err := resolver.Walk(s.Config, func(path []string, cmd *schema.CommandDefinition, _ schema.Variables) error {
		line := "  " + strings.Join(path, " ")
		if len(cmd.Aliases) > 0 {
			line += " (" + strings.Join(cmd.Aliases, ", ") + ")"
		}
		if cmd.Description != "" {
			line += " — " + cmd.Description
		}
		if !cmd.Runnable() {
			line += " [group]"
		}
		fmt.Fprintln(s.out(), line)
		return nil
	})
	if err != nil {
		fmt.Fprintf(s.out(), "Error: %v\n", err)
	}
}

func (s *Shell) printVariables(path []string) {
	if len(path) == 0 {
		fmt.Fprintln(s.out(), "Usage: vars <command...>")
		return
	}
	res, err := resolver.Resolve(s.Config, path)
	if err != nil {
		fmt.Fprintf(s.out(), "Error: %v\n", err)
		return
	}
	if len(res.Variables) == 0 {
		fmt.Fprintf(s.out(), "%q has no variables\n", strings.Join(res.Path, " "))
		return
	}
	for _, nv := range res.Variables {
		fmt.Fprintf(s.out(), "  %s (--%s): %s\n", nv.Name, nv.FlagName(), nv.Summary())
	}
}

// completer mirrors the command tree so tab completion follows the
// nesting, with the built-ins alongside the top level.
func (s *Shell) completer() *readline.PrefixCompleter {
	items := commandItems(s.Config.Commands)
	items = append(items,
		readline.PcItem("list"),
		readline.PcItem("vars", commandItems(s.Config.Commands)...),
		readline.PcItem("help"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
	return readline.NewPrefixCompleter(items...)
}

func commandItems(cmds schema.Commands) []readline.PrefixCompleterInterface {
	var items []readline.PrefixCompleterInterface
	for i := range cmds {
		items = append(items, readline.PcItem(cmds[i].Name, commandItems(cmds[i].Commands)...))
	}
	return items
}

func (s *Shell) out() io.Writer {
	if s.Out != nil {
		return s.Out
	}
	return os.Stdout
}
