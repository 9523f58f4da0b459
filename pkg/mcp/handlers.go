package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/crank/pkg/providers"
	"github.com/ormasoftchile/crank/pkg/resolver"
	"github.com/ormasoftchile/crank/pkg/runtime"
	"github.com/ormasoftchile/crank/pkg/schema"
	"github.com/ormasoftchile/crank/pkg/vars"
)

// HandleList implements the crank/list MCP tool.
func HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, cfg, errResult := loadConfigArg(req)
	if errResult != nil {
		return errResult, nil
	}

	type entry struct {
		Path        string   `json:"path"`
		Aliases     []string `json:"aliases,omitempty"`
		Description string   `json:"description,omitempty"`
		Runnable    bool     `json:"runnable"`
	}

	var entries []entry
	_ = resolver.Walk(cfg, func(p []string, cmd *schema.CommandDefinition, _ schema.Variables) error {
		entries = append(entries, entry{
			Path:        strings.Join(p, " "),
			Aliases:     cmd.Aliases,
			Description: cmd.Description,
			Runnable:    cmd.Runnable(),
		})
		return nil
	})

	data, _ := json.MarshalIndent(map[string]any{
		"source":   path,
		"commands": entries,
	}, "", "  ")
	return textResult(string(data)), nil
}

// HandleShow implements the crank/show MCP tool.
func HandleShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, cfg, errResult := loadConfigArg(req)
	if errResult != nil {
		return errResult, nil
	}

	res, errResult := resolveCommandArg(req, cfg)
	if errResult != nil {
		return errResult, nil
	}

	type variable struct {
		Name        string `json:"name"`
		Flag        string `json:"flag"`
		Source      string `json:"source"`
		Description string `json:"description,omitempty"`
	}

	variables := make([]variable, 0, len(res.Variables))
	for _, nv := range res.Variables {
		variables = append(variables, variable{
			Name:        nv.Name,
			Flag:        nv.FlagName(),
			Source:      nv.Summary(),
			Description: nv.Description,
		})
	}

	var subcommands []string
	for i := range res.Command.Commands {
		subcommands = append(subcommands, res.Command.Commands[i].Name)
	}

	data, _ := json.MarshalIndent(map[string]any{
		"path":        strings.Join(res.Path, " "),
		"description": res.Command.Description,
		"aliases":     res.Command.Aliases,
		"runnable":    res.Command.Runnable(),
		"variables":   variables,
		"actions":     describeActions(res.Command.ActionSteps()),
		"deferred":    describeActions(res.Command.DeferredSteps()),
		"subcommands": subcommands,
	}, "", "  ")
	return textResult(string(data)), nil
}

// HandleValidate implements the crank/validate MCP tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, errResult := configPath(req)
	if errResult != nil {
		return errResult, nil
	}

	_, findings := schema.ValidateFile(path)

	data, _ := json.MarshalIndent(map[string]any{
		"path":     path,
		"valid":    !schema.HasErrors(findings),
		"findings": findings,
	}, "", "  ")

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: schema.HasErrors(findings),
	}, nil
}

// HandleRun implements the crank/run MCP tool. It never prompts: values
// for prompted variables must arrive in the variables argument, and
// confirmations follow the yes flag.
func HandleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, errResult := configPath(req)
	if errResult != nil {
		return errResult, nil
	}

	cfg, findings := schema.ValidateFile(path)
	if schema.HasErrors(findings) {
		return errorResult(formatFindings(findings)), nil
	}

	res, errResult := resolveCommandArg(req, cfg)
	if errResult != nil {
		return errResult, nil
	}
	if !res.Command.Runnable() {
		return errorResult(fmt.Sprintf("command %q has no actions; pick one of its subcommands", strings.Join(res.Path, " "))), nil
	}

	args := req.GetArguments()
	overrides := make(map[string]string)
	if raw, ok := args["variables"].(map[string]any); ok {
		for k, v := range raw {
			overrides[k] = fmt.Sprint(v)
		}
	}
	yes, _ := args["yes"].(bool)
	dryRun, _ := args["dry_run"].(bool)

	var out bytes.Buffer
	var executor providers.CommandExecutor
	var prompter providers.Prompter
	if dryRun {
		executor = &providers.DryRunExecutor{Out: &out}
		prompter = &providers.DryRunPrompter{}
	} else {
		executor = &providers.RealExecutor{Stdout: &out, Stderr: &out}
		prompter = &providers.NonInteractivePrompter{AutoConfirm: yes}
	}

	r := &vars.Resolver{Exec: executor, Prompter: prompter}
	values, err := r.Resolve(ctx, res.Variables, overrides)
	if err != nil {
		return errorResult(fmt.Sprintf("variable resolution: %s", err)), nil
	}

	eng := &runtime.Engine{
		Executor:    executor,
		Prompter:    prompter,
		Out:         &out,
		AutoConfirm: yes || dryRun,
	}

	start := time.Now()
	runErr := eng.Run(ctx, res.Command, values)

	response := map[string]any{
		"command":  strings.Join(res.Path, " "),
		"status":   "succeeded",
		"duration": time.Since(start).Round(time.Millisecond).String(),
		"dry_run":  dryRun,
	}
	if runErr != nil {
		response["status"] = "failed"
		response["error"] = runErr.Error()
	}
	if out.Len() > 0 {
		response["output"] = out.String()
	}

	data, _ := json.MarshalIndent(response, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: runErr != nil,
	}, nil
}

// configPath extracts the path argument, falling back to upward discovery.
func configPath(req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	args := req.GetArguments()
	if path, _ := args["path"].(string); path != "" {
		return path, nil
	}
	path, err := schema.FindConfigFile(".")
	if err != nil {
		return "", errorResult(err.Error())
	}
	return path, nil
}

func loadConfigArg(req mcp.CallToolRequest) (string, *schema.Config, *mcp.CallToolResult) {
	path, errResult := configPath(req)
	if errResult != nil {
		return "", nil, errResult
	}
	cfg, err := schema.LoadFile(path)
	if err != nil {
		return "", nil, errorResult(err.Error())
	}
	return path, cfg, nil
}

func resolveCommandArg(req mcp.CallToolRequest, cfg *schema.Config) (*resolver.ResolvedCommand, *mcp.CallToolResult) {
	args := req.GetArguments()
	command, _ := args["command"].(string)
	tokens := strings.Fields(command)
	if len(tokens) == 0 {
		return nil, errorResult("command argument is required")
	}
	res, err := resolver.Resolve(cfg, tokens)
	if err != nil {
		return nil, errorResult(err.Error())
	}
	return res, nil
}

func describeActions(actions []schema.Action) []map[string]any {
	out := make([]map[string]any, 0, len(actions))
	for _, a := range actions {
		m := make(map[string]any)
		if a.When != "" {
			m["when"] = a.When
		}
		switch op := a.Op.(type) {
		case schema.ExecOp:
			if op.Command.Shell() {
				m["bash"] = op.Command.Bash
			} else {
				m["run"] = op.Command.Run
			}
			if op.Command.WorkingDirectory != "" {
				m["working_directory"] = op.Command.WorkingDirectory
			}
		case schema.ConfirmOp:
			m["confirm"] = op.Message
		}
		out = append(out, m)
	}
	return out
}

func formatFindings(findings []*schema.ValidationError) string {
	var msgs []string
	for _, f := range findings {
		if f.Severity == "error" {
			msgs = append(msgs, fmt.Sprintf("[%s] %s: %s", f.Phase, f.Path, f.Message))
		}
	}
	return strings.Join(msgs, "; ")
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
