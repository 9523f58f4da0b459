package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// GenerateJSONSchema produces the JSON Schema Draft 2020-12 document for
// configuration files. The document is assembled by hand: the YAML format
// leans on shorthand scalars and key aliases that a reflected schema
// cannot describe.
func GenerateJSONSchema() ([]byte, error) {
	s := configSchema()
	s.Version = jsonschema.Version
	s.ID = "https://github.com/ormasoftchile/crank/crank.schema.json"
	s.Title = "crank configuration"
	s.Description = "Schema for crank command-runner YAML documents (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

func configSchema() *jsonschema.Schema {
	defs := jsonschema.Definitions{
		"commandSpec": commandSpecSchema(),
		"prompt":      promptSchema(),
		"variable":    variableSchema(),
		"variables":   variablesSchema(),
		"action":      actionSchema(),
		"actions":     actionsSchema(),
		"command":     commandSchema(),
		"commands":    commandsSchema(),
	}

	props := jsonschema.NewProperties()
	props.Set("description", &jsonschema.Schema{Type: "string"})
	props.Set("desc", &jsonschema.Schema{Type: "string"})
	props.Set("variables", ref("variables"))
	props.Set("vars", ref("variables"))
	props.Set("commands", ref("commands"))
	props.Set("cmds", ref("commands"))

	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		AdditionalProperties: jsonschema.FalseSchema,
		AnyOf: []*jsonschema.Schema{
			{Required: []string{"commands"}},
			{Required: []string{"cmds"}},
		},
		Definitions: defs,
	}
}

func ref(name string) *jsonschema.Schema {
	return &jsonschema.Schema{Ref: "#/$defs/" + name}
}

// scalar admits the YAML scalars that decode to a literal value.
func scalar() *jsonschema.Schema {
	return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
		{Type: "string"},
		{Type: "number"},
		{Type: "boolean"},
	}}
}

func commandSpecSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("run", &jsonschema.Schema{Type: "string"})
	props.Set("bash", &jsonschema.Schema{Type: "string"})
	props.Set("working_directory", &jsonschema.Schema{Type: "string"})

	return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
		{Type: "string"},
		{
			Type:                 "object",
			Properties:           props,
			AdditionalProperties: jsonschema.FalseSchema,
			OneOf: []*jsonschema.Schema{
				{Required: []string{"run"}},
				{Required: []string{"bash"}},
			},
		},
	}}
}

func promptSchema() *jsonschema.Schema {
	execProps := jsonschema.NewProperties()
	execProps.Set("exec", ref("commandSpec"))

	props := jsonschema.NewProperties()
	props.Set("message", &jsonschema.Schema{Type: "string"})
	props.Set("multi_line", &jsonschema.Schema{Type: "boolean"})
	props.Set("sensitive", &jsonschema.Schema{Type: "boolean"})
	props.Set("options", &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
		{Type: "array", Items: scalar()},
		{
			Type:                 "object",
			Properties:           execProps,
			Required:             []string{"exec"},
			AdditionalProperties: jsonschema.FalseSchema,
		},
	}})

	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{"message"},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

func variableSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("value", scalar())
	props.Set("exec", ref("commandSpec"))
	props.Set("prompt", ref("prompt"))
	props.Set("description", &jsonschema.Schema{Type: "string"})
	props.Set("desc", &jsonschema.Schema{Type: "string"})
	props.Set("arg", &jsonschema.Schema{Type: "string"})

	full := &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		AdditionalProperties: jsonschema.FalseSchema,
		OneOf: []*jsonschema.Schema{
			{Required: []string{"value"}},
			{Required: []string{"exec"}},
			{Required: []string{"prompt"}},
		},
	}

	return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{scalar(), full}}
}

func variablesSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:                 "object",
		PropertyNames:        &jsonschema.Schema{MinLength: uintPtr(1)},
		AdditionalProperties: ref("variable"),
	}
}

func actionSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("exec", ref("commandSpec"))
	props.Set("confirm", &jsonschema.Schema{Type: "string"})
	props.Set("when", &jsonschema.Schema{Type: "string"})

	return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
		{Type: "string"},
		{
			Type:                 "object",
			Properties:           props,
			AdditionalProperties: jsonschema.FalseSchema,
			OneOf: []*jsonschema.Schema{
				{Required: []string{"exec"}},
				{Required: []string{"confirm"}},
			},
		},
	}}
}

func actionsSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     "array",
		Items:    ref("action"),
		MinItems: uintPtr(1),
	}
}

func commandSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("description", &jsonschema.Schema{Type: "string"})
	props.Set("desc", &jsonschema.Schema{Type: "string"})
	props.Set("aliases", &jsonschema.Schema{
		Type:  "array",
		Items: &jsonschema.Schema{Type: "string"},
	})
	props.Set("variables", ref("variables"))
	props.Set("vars", ref("variables"))
	props.Set("commands", ref("commands"))
	props.Set("cmds", ref("commands"))
	// action/actions/deferred all take a single action or a list; the
	// spellings are interchangeable.
	sequence := func() *jsonschema.Schema {
		return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
			ref("action"),
			ref("actions"),
		}}
	}
	props.Set("action", sequence())
	props.Set("actions", sequence())
	props.Set("deferred", sequence())

	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

func commandsSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:                 "object",
		PropertyNames:        &jsonschema.Schema{MinLength: uintPtr(1)},
		AdditionalProperties: ref("command"),
	}
}

func uintPtr(v uint64) *uint64 { return &v }
