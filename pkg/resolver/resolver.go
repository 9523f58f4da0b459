// Package resolver locates commands in a configuration tree and computes
// the variable set visible at each node: ancestor definitions first, with
// redefinitions along the path shadowing them.
package resolver

import (
	"fmt"
	"strings"

	"github.com/ormasoftchile/crank/pkg/schema"
)

// ResolvedCommand is a command located by path. Path holds the canonical
// names even when the lookup used aliases. Variables is the merged set
// visible at the node, in first-declaration order.
type ResolvedCommand struct {
	Path      []string
	Command   *schema.CommandDefinition
	Variables schema.Variables
}

// Name returns the canonical leaf name.
func (rc *ResolvedCommand) Name() string {
	return rc.Path[len(rc.Path)-1]
}

// NotFoundError reports a path token that matched no command name or
// alias at its level.
type NotFoundError struct {
	Token     string
	Prefix    []string // canonical path of the level searched
	Available []string // sibling names at that level
}

func (e *NotFoundError) Error() string {
	where := "top level"
	if len(e.Prefix) > 0 {
		where = fmt.Sprintf("%q", strings.Join(e.Prefix, " "))
	}
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown command %q: %s has no subcommands", e.Token, where)
	}
	return fmt.Sprintf("unknown command %q at %s (expected one of: %s)",
		e.Token, where, strings.Join(e.Available, ", "))
}

// Match finds the sibling whose canonical name or alias equals token.
// Canonical names win over aliases.
func Match(cmds schema.Commands, token string) *schema.NamedCommand {
	for i := range cmds {
		if cmds[i].Name == token {
			return &cmds[i]
		}
	}
	for i := range cmds {
		for _, alias := range cmds[i].Aliases {
			if alias == token {
				return &cmds[i]
			}
		}
	}
	return nil
}

// Resolve follows path from the root, merging variables level by level.
func Resolve(cfg *schema.Config, path []string) (*ResolvedCommand, error) {
	if len(path) == 0 {
		return nil, &NotFoundError{Available: names(cfg.Commands)}
	}
	visible := cfg.Variables.Clone()
	cmds := cfg.Commands
	var (
		canonical []string
		current   *schema.CommandDefinition
	)
	for _, token := range path {
		nc := Match(cmds, token)
		if nc == nil {
			return nil, &NotFoundError{
				Token:     token,
				Prefix:    canonical,
				Available: names(cmds),
			}
		}
		canonical = append(canonical, nc.Name)
		for _, nv := range nc.Variables {
			visible = visible.Put(nv.Name, nv.VariableDefinition)
		}
		current = &nc.CommandDefinition
		cmds = nc.Commands
	}
	return &ResolvedCommand{Path: canonical, Command: current, Variables: visible}, nil
}

// Walk visits every command in declaration order, parents before their
// children, passing the canonical path and the variables visible there.
// A non-nil error from fn stops the walk.
func Walk(cfg *schema.Config, fn func(path []string, cmd *schema.CommandDefinition, visible schema.Variables) error) error {
	return walk(cfg.Commands, nil, cfg.Variables, fn)
}

func walk(cmds schema.Commands, prefix []string, inherited schema.Variables, fn func([]string, *schema.CommandDefinition, schema.Variables) error) error {
	for i := range cmds {
		nc := &cmds[i]
		path := append(append([]string(nil), prefix...), nc.Name)
		visible := inherited.Clone()
		for _, nv := range nc.Variables {
			visible = visible.Put(nv.Name, nv.VariableDefinition)
		}
		if err := fn(path, &nc.CommandDefinition, visible); err != nil {
			return err
		}
		if err := walk(nc.Commands, path, visible, fn); err != nil {
			return err
		}
	}
	return nil
}

func names(cmds schema.Commands) []string {
	out := make([]string, 0, len(cmds))
	for i := range cmds {
		out = append(out, cmds[i].Name)
	}
	return out
}
