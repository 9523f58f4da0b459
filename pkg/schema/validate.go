package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/expr-lang/expr"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// ValidationError is a single finding with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // dotted location (e.g. "commands.deploy.variables.env")
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// HasErrors reports whether any finding has error severity.
func HasErrors(errs []*ValidationError) bool {
	for _, e := range errs {
		if e.Severity == "error" {
			return true
		}
	}
	return false
}

// reservedFlagNames collide with the root command's own flags.
var reservedFlagNames = map[string]bool{
	"file": true, "verbose": true, "dry-run": true,
	"yes": true, "help": true, "version": true,
}

// ValidateFile runs the full validation pipeline on a configuration file.
// Phase 1: structural (strict decode). Phase 2: semantic (JSON Schema).
// Phase 3: domain (tree rules). A structural failure short-circuits.
func ValidateFile(path string) (*Config, []*ValidationError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []*ValidationError{{
			Phase:    "structural",
			Message:  err.Error(),
			Severity: "error",
		}}
	}

	cfg, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, []*ValidationError{{
			Phase:    "structural",
			Message:  err.Error(),
			Severity: "error",
		}}
	}

	var all []*ValidationError
	all = append(all, validateSemantic(data)...)
	all = append(all, ValidateDomain(cfg)...)
	if len(all) > 0 {
		return cfg, all
	}
	return cfg, nil
}

// validateSemantic checks the raw document against the generated JSON
// Schema. The raw document is used, not the decoded Config, so alias
// spellings and shorthand forms are judged as written.
func validateSemantic(data []byte) []*ValidationError {
	fail := func(msg string) []*ValidationError {
		return []*ValidationError{{Phase: "semantic", Message: msg, Severity: "error"}}
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fail(fmt.Sprintf("parse for schema validation: %v", err))
	}
	jsonBytes, err := json.Marshal(jsonify(raw))
	if err != nil {
		return fail(fmt.Sprintf("marshal for schema validation: %v", err))
	}
	var doc any
	if err := json.Unmarshal(jsonBytes, &doc); err != nil {
		return fail(fmt.Sprintf("unmarshal document: %v", err))
	}

	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return fail(fmt.Sprintf("generate schema: %v", err))
	}
	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return fail(fmt.Sprintf("unmarshal schema: %v", err))
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("crank.schema.json", schemaDoc); err != nil {
		return fail(fmt.Sprintf("add schema resource: %v", err))
	}
	sch, err := c.Compile("crank.schema.json")
	if err != nil {
		return fail(fmt.Sprintf("compile schema: %v", err))
	}

	if err := sch.Validate(doc); err != nil {
		var errs []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				errs = append(errs, &ValidationError{
					Phase:    "semantic",
					Path:     strings.Join(cause.InstanceLocation, "/"),
					Message:  fmt.Sprintf("%v", cause.ErrorKind),
					Severity: "error",
				})
			}
		} else {
			errs = append(errs, &ValidationError{
				Phase:    "semantic",
				Message:  err.Error(),
				Severity: "error",
			})
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// jsonify converts a YAML-decoded tree into a JSON-compatible one.
func jsonify(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = jsonify(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = jsonify(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = jsonify(item)
		}
		return out
	default:
		return v
	}
}

// ValidateDomain applies the tree rules that the document shape alone
// cannot express. Returns findings; empty means valid.
func ValidateDomain(cfg *Config) []*ValidationError {
	var errs []*ValidationError

	if len(cfg.Commands) == 0 {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     "commands",
			Message:  "configuration declares no commands",
			Severity: "error",
		})
		return errs
	}

	rootFlags := map[string]string{}
	errs = append(errs, checkVariables(cfg.Variables, "variables", rootFlags)...)
	errs = append(errs, checkCommands(cfg.Commands, "commands", rootFlags)...)
	return errs
}

// checkCommands validates one sibling level and recurses, carrying the
// flag ownership map accumulated so far (the same shadowing rule the
// resolver applies: a redefined variable may retake its own flag, two
// different variables may not share one).
func checkCommands(cmds Commands, path string, inheritedFlags map[string]string) []*ValidationError {
	var errs []*ValidationError

	claimed := map[string]string{} // sibling name/alias → owner name
	for i := range cmds {
		nc := &cmds[i]
		cmdPath := path + "." + nc.Name

		if strings.ContainsAny(nc.Name, " \t") {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     cmdPath,
				Message:  fmt.Sprintf("command name %q must not contain whitespace", nc.Name),
				Severity: "error",
			})
		}
		if owner, ok := claimed[nc.Name]; ok {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     cmdPath,
				Message:  fmt.Sprintf("command name %q already used as an alias of sibling %q", nc.Name, owner),
				Severity: "error",
			})
		}
		claimed[nc.Name] = nc.Name
		for _, alias := range nc.Aliases {
			if owner, ok := claimed[alias]; ok {
				errs = append(errs, &ValidationError{
					Phase:    "domain",
					Path:     cmdPath + ".aliases",
					Message:  fmt.Sprintf("alias %q already in use by %q", alias, owner),
					Severity: "error",
				})
				continue
			}
			claimed[alias] = nc.Name
		}

		if !nc.Runnable() && len(nc.Commands) == 0 {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     cmdPath,
				Message:  "command has no action and no subcommands",
				Severity: "error",
			})
		}

		flags := make(map[string]string, len(inheritedFlags))
		for k, v := range inheritedFlags {
			flags[k] = v
		}
		errs = append(errs, checkVariables(nc.Variables, cmdPath+".variables", flags)...)
		errs = append(errs, checkActions(nc.ActionSteps(), cmdPath+".actions")...)
		errs = append(errs, checkActions(nc.DeferredSteps(), cmdPath+".deferred")...)
		errs = append(errs, checkCommands(nc.Commands, cmdPath+".commands", flags)...)
	}
	return errs
}

// checkVariables validates definitions and records their flag claims.
func checkVariables(vars Variables, path string, flags map[string]string) []*ValidationError {
	var errs []*ValidationError
	for _, nv := range vars {
		varPath := path + "." + nv.Name

		flag := nv.FlagName()
		if owner, ok := flags[flag]; ok && owner != nv.Name {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     varPath,
				Message:  fmt.Sprintf("flag --%s already belongs to variable %q", flag, owner),
				Severity: "error",
			})
		} else {
			flags[flag] = nv.Name
		}
		if reservedFlagNames[flag] {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     varPath,
				Message:  fmt.Sprintf("flag --%s shadows a global crank flag", flag),
				Severity: "warning",
			})
		}

		switch s := nv.Source.(type) {
		case Exec:
			errs = append(errs, checkSpec(s.Command, varPath+".exec")...)
		case SelectPrompt:
			if len(s.Options) == 0 && s.OptionsExec == nil {
				errs = append(errs, &ValidationError{
					Phase:    "domain",
					Path:     varPath + ".prompt.options",
					Message:  "select prompt has no options",
					Severity: "error",
				})
			}
			if s.OptionsExec != nil {
				errs = append(errs, checkSpec(*s.OptionsExec, varPath+".prompt.options.exec")...)
			}
		}
	}
	return errs
}

// checkActions validates exec specs and when guards of a sequence.
func checkActions(actions []Action, path string) []*ValidationError {
	var errs []*ValidationError
	for i, a := range actions {
		actPath := fmt.Sprintf("%s[%d]", path, i)
		if a.When != "" {
			if _, err := expr.Compile(a.When); err != nil {
				errs = append(errs, &ValidationError{
					Phase:    "domain",
					Path:     actPath + ".when",
					Message:  fmt.Sprintf("invalid when expression: %v", err),
					Severity: "error",
				})
			}
		}
		if op, ok := a.Op.(ExecOp); ok {
			errs = append(errs, checkSpec(op.Command, actPath)...)
		}
	}
	return errs
}

func checkSpec(spec CommandSpec, path string) []*ValidationError {
	if strings.TrimSpace(spec.Text()) == "" {
		return []*ValidationError{{
			Phase:    "domain",
			Path:     path,
			Message:  "command text is empty",
			Severity: "error",
		}}
	}
	return nil
}
