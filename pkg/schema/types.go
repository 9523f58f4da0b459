// Package schema defines the crank configuration model: a tree of named
// commands, each carrying variable definitions and actions, together with
// the YAML encoding for every shorthand the format allows.
package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root of a configuration document.
type Config struct {
	Description string
	Variables   Variables
	Commands    Commands
}

// CommandDefinition is one node of the command tree. A node with no action
// routes to its subcommands; a node may carry both and still run directly.
type CommandDefinition struct {
	Description string
	Aliases     []string
	Variables   Variables
	Commands    Commands
	Action      *ActionSpec
	Deferred    *ActionSpec
}

// Runnable reports whether invoking the command runs anything, as opposed
// to only routing to subcommands.
func (c *CommandDefinition) Runnable() bool {
	return (c.Action != nil && len(c.Action.Steps) > 0) ||
		(c.Deferred != nil && len(c.Deferred.Steps) > 0)
}

// ActionSteps returns the primary action sequence, nil-safe.
func (c *CommandDefinition) ActionSteps() []Action {
	if c.Action == nil {
		return nil
	}
	return c.Action.Steps
}

// DeferredSteps returns the deferred action sequence, nil-safe.
func (c *CommandDefinition) DeferredSteps() []Action {
	if c.Deferred == nil {
		return nil
	}
	return c.Deferred.Steps
}

// Commands is a name → CommandDefinition mapping that preserves the
// declaration order of the document.
type Commands []NamedCommand

// NamedCommand pairs a command with its canonical name.
type NamedCommand struct {
	Name string
	CommandDefinition
}

// Get returns the definition for the canonical name, or nil.
func (cs Commands) Get(name string) *CommandDefinition {
	for i := range cs {
		if cs[i].Name == name {
			return &cs[i].CommandDefinition
		}
	}
	return nil
}

// Variables is a name → VariableDefinition mapping that preserves the
// declaration order of the document.
type Variables []NamedVariable

// NamedVariable pairs a variable definition with its key.
type NamedVariable struct {
	Name string
	VariableDefinition
}

// FlagName returns the CLI flag that supplies or overrides this variable:
// the arg override when present, otherwise the variable's own key.
func (nv NamedVariable) FlagName() string {
	if nv.Flag != "" {
		return nv.Flag
	}
	return nv.Name
}

// Get returns the definition for name, or nil.
func (vs Variables) Get(name string) *VariableDefinition {
	for i := range vs {
		if vs[i].Name == name {
			return &vs[i].VariableDefinition
		}
	}
	return nil
}

// Put overlays a definition: an existing name is replaced in place, a new
// name is appended. This is the shadowing rule used down the command tree.
func (vs Variables) Put(name string, def VariableDefinition) Variables {
	for i := range vs {
		if vs[i].Name == name {
			vs[i].VariableDefinition = def
			return vs
		}
	}
	return append(vs, NamedVariable{Name: name, VariableDefinition: def})
}

// Clone returns an independent copy suitable for overlaying.
func (vs Variables) Clone() Variables {
	out := make(Variables, len(vs))
	copy(out, vs)
	return out
}

// VariableDefinition declares how a variable obtains its value.
type VariableDefinition struct {
	Description string
	Flag        string // YAML "arg": CLI flag name override
	Source      VariableSource
}

// Summary renders a short human description of the source for listings.
func (v *VariableDefinition) Summary() string {
	switch s := v.Source.(type) {
	case Literal:
		return fmt.Sprintf("literal %q", s.Value)
	case Exec:
		return fmt.Sprintf("exec `%s`", s.Command.Text())
	case TextPrompt:
		switch {
		case s.Sensitive:
			return "prompt (masked)"
		case s.MultiLine:
			return "prompt (multi-line)"
		default:
			return "prompt (text)"
		}
	case SelectPrompt:
		if s.OptionsExec != nil {
			return fmt.Sprintf("select from `%s`", s.OptionsExec.Text())
		}
		return fmt.Sprintf("select (%d options)", len(s.Options))
	default:
		return "unknown"
	}
}

// VariableSource is the closed set of ways a variable can be produced.
type VariableSource interface{ variableSource() }

// Literal is a fixed value.
type Literal struct {
	Value string
}

// Exec captures the stdout of a command, trailing line terminators trimmed.
type Exec struct {
	Command CommandSpec
}

// TextPrompt asks the user for a line (or block) of text.
type TextPrompt struct {
	Message   string
	MultiLine bool
	Sensitive bool
}

// SelectPrompt asks the user to pick one option. Options come from a
// literal list or from the line-split stdout of a command.
type SelectPrompt struct {
	Message     string
	Options     []string
	OptionsExec *CommandSpec
}

func (Literal) variableSource()      {}
func (Exec) variableSource()         {}
func (TextPrompt) variableSource()   {}
func (SelectPrompt) variableSource() {}

// ActionSpec is an ordered sequence of actions. The YAML form accepts a
// single action under "action" or a list under "actions"; both normalize
// to the same sequence.
type ActionSpec struct {
	Steps []Action
}

// Action is one executable step: a command to run or a confirmation to
// obtain, optionally guarded by a when expression.
type Action struct {
	When string
	Op   ActionOp
}

// ActionOp is the closed set of things an action can do.
type ActionOp interface{ actionOp() }

// ExecOp runs a command specification.
type ExecOp struct {
	Command CommandSpec
}

// ConfirmOp asks a yes/no question; anything but yes fails the action.
type ConfirmOp struct {
	Message string
}

func (ExecOp) actionOp()    {}
func (ConfirmOp) actionOp() {}

// CommandSpec is an execution target: either a raw command line, split
// into argv after substitution, or text handed to bash. Either form may
// set a working directory.
type CommandSpec struct {
	Run              string
	Bash             string
	WorkingDirectory string
}

// Shell reports whether the spec runs through bash.
func (s CommandSpec) Shell() bool { return s.Bash != "" }

// Text returns the command text regardless of form.
func (s CommandSpec) Text() string {
	if s.Shell() {
		return s.Bash
	}
	return s.Run
}

// --- YAML decoding ---
//
// Every polymorphic shape decodes through UnmarshalYAML against the raw
// node so that shorthand scalars, key aliases, and declaration order all
// survive. Unknown keys are rejected with the source line.

// aliasTracker detects a concept supplied twice, whether under one
// spelling or both.
type aliasTracker map[string]string

func (t aliasTracker) claim(node *yaml.Node, canonical, spelling string) error {
	if prior, ok := t[canonical]; ok {
		if prior == spelling {
			return fmt.Errorf("line %d: %q is set twice", node.Line, spelling)
		}
		return fmt.Errorf("line %d: both %q and %q are set", node.Line, prior, spelling)
	}
	t[canonical] = spelling
	return nil
}

func scalarString(node *yaml.Node, what string) (string, error) {
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return "", fmt.Errorf("line %d: %s must be a scalar", node.Line, what)
	}
	return node.Value, nil
}

func unknownKey(node *yaml.Node, key, where string) error {
	return fmt.Errorf("line %d: unknown key %q in %s", node.Line, key, where)
}

// UnmarshalYAML decodes the document root.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: configuration must be a mapping", node.Line)
	}
	seen := aliasTracker{}
	hasCommands := false
	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		key := keyNode.Value
		switch key {
		case "description", "desc":
			if err := seen.claim(keyNode, "description", key); err != nil {
				return err
			}
			s, err := scalarString(valNode, key)
			if err != nil {
				return err
			}
			c.Description = s
		case "variables", "vars":
			if err := seen.claim(keyNode, "variables", key); err != nil {
				return err
			}
			if err := valNode.Decode(&c.Variables); err != nil {
				return err
			}
		case "commands", "cmds":
			if err := seen.claim(keyNode, "commands", key); err != nil {
				return err
			}
			hasCommands = true
			if err := valNode.Decode(&c.Commands); err != nil {
				return err
			}
		default:
			return unknownKey(keyNode, key, "configuration")
		}
	}
	if !hasCommands {
		return fmt.Errorf("line %d: configuration requires a \"commands\" mapping", node.Line)
	}
	return nil
}

// UnmarshalYAML decodes an ordered command mapping.
func (cs *Commands) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: commands must be a mapping", node.Line)
	}
	out := make(Commands, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		name := keyNode.Value
		if name == "" {
			return fmt.Errorf("line %d: command name must not be empty", keyNode.Line)
		}
		if out.Get(name) != nil {
			return fmt.Errorf("line %d: duplicate command %q", keyNode.Line, name)
		}
		var def CommandDefinition
		if err := valNode.Decode(&def); err != nil {
			return err
		}
		out = append(out, NamedCommand{Name: name, CommandDefinition: def})
	}
	*cs = out
	return nil
}

// UnmarshalYAML decodes one command node.
func (c *CommandDefinition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: command must be a mapping", node.Line)
	}
	seen := aliasTracker{}
	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		key := keyNode.Value
		switch key {
		case "description", "desc":
			if err := seen.claim(keyNode, "description", key); err != nil {
				return err
			}
			s, err := scalarString(valNode, key)
			if err != nil {
				return err
			}
			c.Description = s
		case "aliases":
			if err := seen.claim(keyNode, "aliases", key); err != nil {
				return err
			}
			if err := valNode.Decode(&c.Aliases); err != nil {
				return err
			}
		case "variables", "vars":
			if err := seen.claim(keyNode, "variables", key); err != nil {
				return err
			}
			if err := valNode.Decode(&c.Variables); err != nil {
				return err
			}
		case "commands", "cmds":
			if err := seen.claim(keyNode, "commands", key); err != nil {
				return err
			}
			if err := valNode.Decode(&c.Commands); err != nil {
				return err
			}
		case "action", "actions":
			if err := seen.claim(keyNode, "action", key); err != nil {
				return err
			}
			c.Action = new(ActionSpec)
			if err := valNode.Decode(c.Action); err != nil {
				return err
			}
		case "deferred":
			if err := seen.claim(keyNode, "deferred", key); err != nil {
				return err
			}
			c.Deferred = new(ActionSpec)
			if err := valNode.Decode(c.Deferred); err != nil {
				return err
			}
		default:
			return unknownKey(keyNode, key, "command")
		}
	}
	return nil
}

// UnmarshalYAML decodes an ordered variable mapping.
func (vs *Variables) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: variables must be a mapping", node.Line)
	}
	out := make(Variables, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		name := keyNode.Value
		if name == "" {
			return fmt.Errorf("line %d: variable name must not be empty", keyNode.Line)
		}
		if out.Get(name) != nil {
			return fmt.Errorf("line %d: duplicate variable %q", keyNode.Line, name)
		}
		var def VariableDefinition
		if err := valNode.Decode(&def); err != nil {
			return err
		}
		out = append(out, NamedVariable{Name: name, VariableDefinition: def})
	}
	*vs = out
	return nil
}

// UnmarshalYAML decodes one variable definition: a bare scalar literal or
// a mapping with exactly one of value, exec, or prompt.
func (v *VariableDefinition) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return fmt.Errorf("line %d: variable needs a value, exec, or prompt", node.Line)
		}
		v.Source = Literal{Value: node.Value}
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: variable must be a scalar or a mapping", node.Line)
	}

	seen := aliasTracker{}
	var sources []string
	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		key := keyNode.Value
		switch key {
		case "value":
			s, err := scalarString(valNode, "value")
			if err != nil {
				return err
			}
			v.Source = Literal{Value: s}
			sources = append(sources, key)
		case "exec":
			var spec CommandSpec
			if err := valNode.Decode(&spec); err != nil {
				return err
			}
			v.Source = Exec{Command: spec}
			sources = append(sources, key)
		case "prompt":
			src, err := decodePrompt(valNode)
			if err != nil {
				return err
			}
			v.Source = src
			sources = append(sources, key)
		case "description", "desc":
			if err := seen.claim(keyNode, "description", key); err != nil {
				return err
			}
			s, err := scalarString(valNode, key)
			if err != nil {
				return err
			}
			v.Description = s
		case "arg":
			if err := seen.claim(keyNode, "arg", key); err != nil {
				return err
			}
			s, err := scalarString(valNode, "arg")
			if err != nil {
				return err
			}
			v.Flag = s
		default:
			return unknownKey(keyNode, key, "variable")
		}
	}
	switch len(sources) {
	case 0:
		return fmt.Errorf("line %d: variable needs one of value, exec, or prompt", node.Line)
	case 1:
	default:
		return fmt.Errorf("line %d: variable sets multiple sources (%s)", node.Line, strings.Join(sources, ", "))
	}
	return nil
}

// decodePrompt decodes the prompt mapping into a text or select source.
func decodePrompt(node *yaml.Node) (VariableSource, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: prompt must be a mapping", node.Line)
	}
	var (
		message    string
		multiLine  bool
		sensitive  bool
		hasText    bool
		hasOptions bool
		options    []string
		optExec    *CommandSpec
	)
	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		switch key := keyNode.Value; key {
		case "message":
			s, err := scalarString(valNode, "message")
			if err != nil {
				return nil, err
			}
			message = s
		case "multi_line":
			if err := valNode.Decode(&multiLine); err != nil {
				return nil, err
			}
			hasText = true
		case "sensitive":
			if err := valNode.Decode(&sensitive); err != nil {
				return nil, err
			}
			hasText = true
		case "options":
			hasOptions = true
			switch valNode.Kind {
			case yaml.SequenceNode:
				for _, item := range valNode.Content {
					s, err := scalarString(item, "option")
					if err != nil {
						return nil, err
					}
					options = append(options, s)
				}
			case yaml.MappingNode:
				spec, err := decodeOptionsExec(valNode)
				if err != nil {
					return nil, err
				}
				optExec = spec
			default:
				return nil, fmt.Errorf("line %d: options must be a list or an exec mapping", valNode.Line)
			}
		default:
			return nil, unknownKey(keyNode, key, "prompt")
		}
	}
	if message == "" {
		return nil, fmt.Errorf("line %d: prompt requires a message", node.Line)
	}
	if hasOptions {
		if hasText {
			return nil, fmt.Errorf("line %d: a select prompt does not accept multi_line or sensitive", node.Line)
		}
		return SelectPrompt{Message: message, Options: options, OptionsExec: optExec}, nil
	}
	return TextPrompt{Message: message, MultiLine: multiLine, Sensitive: sensitive}, nil
}

func decodeOptionsExec(node *yaml.Node) (*CommandSpec, error) {
	var spec *CommandSpec
	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		switch key := keyNode.Value; key {
		case "exec":
			spec = new(CommandSpec)
			if err := valNode.Decode(spec); err != nil {
				return nil, err
			}
		default:
			return nil, unknownKey(keyNode, key, "options")
		}
	}
	if spec == nil {
		return nil, fmt.Errorf("line %d: options mapping requires exec", node.Line)
	}
	return spec, nil
}

// UnmarshalYAML decodes a command spec: a bare scalar raw command line, or
// a mapping with exactly one of run or bash plus an optional
// working_directory.
func (s *CommandSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return fmt.Errorf("line %d: command must not be empty", node.Line)
		}
		s.Run = node.Value
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: command must be a scalar or a mapping", node.Line)
	}
	var forms []string
	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		switch key := keyNode.Value; key {
		case "run":
			v, err := scalarString(valNode, "run")
			if err != nil {
				return err
			}
			s.Run = v
			forms = append(forms, key)
		case "bash":
			v, err := scalarString(valNode, "bash")
			if err != nil {
				return err
			}
			s.Bash = v
			forms = append(forms, key)
		case "working_directory":
			v, err := scalarString(valNode, "working_directory")
			if err != nil {
				return err
			}
			s.WorkingDirectory = v
		default:
			return unknownKey(keyNode, key, "command spec")
		}
	}
	switch len(forms) {
	case 0:
		return fmt.Errorf("line %d: command spec needs run or bash", node.Line)
	case 1:
	default:
		return fmt.Errorf("line %d: command spec sets both run and bash", node.Line)
	}
	return nil
}

// UnmarshalYAML decodes an action sequence from a single action node or a
// list of them.
func (a *ActionSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		if len(node.Content) == 0 {
			return fmt.Errorf("line %d: action list must not be empty", node.Line)
		}
		steps := make([]Action, 0, len(node.Content))
		for _, item := range node.Content {
			var act Action
			if err := item.Decode(&act); err != nil {
				return err
			}
			steps = append(steps, act)
		}
		a.Steps = steps
		return nil
	}
	var act Action
	if err := node.Decode(&act); err != nil {
		return err
	}
	a.Steps = []Action{act}
	return nil
}

// UnmarshalYAML decodes one action: a bare scalar raw command, or a
// mapping with exactly one of exec or confirm plus an optional when guard.
func (a *Action) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return fmt.Errorf("line %d: action must not be empty", node.Line)
		}
		a.Op = ExecOp{Command: CommandSpec{Run: node.Value}}
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: action must be a scalar or a mapping", node.Line)
	}
	var ops []string
	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		switch key := keyNode.Value; key {
		case "exec":
			var spec CommandSpec
			if err := valNode.Decode(&spec); err != nil {
				return err
			}
			a.Op = ExecOp{Command: spec}
			ops = append(ops, key)
		case "confirm":
			msg, err := scalarString(valNode, "confirm")
			if err != nil {
				return err
			}
			if msg == "" {
				return fmt.Errorf("line %d: confirm requires a message", valNode.Line)
			}
			a.Op = ConfirmOp{Message: msg}
			ops = append(ops, key)
		case "when":
			v, err := scalarString(valNode, "when")
			if err != nil {
				return err
			}
			a.When = v
		default:
			return unknownKey(keyNode, key, "action")
		}
	}
	switch len(ops) {
	case 0:
		return fmt.Errorf("line %d: action needs exec or confirm", node.Line)
	case 1:
	default:
		return fmt.Errorf("line %d: action sets both exec and confirm", node.Line)
	}
	return nil
}

// --- YAML encoding ---
//
// Encoding emits the canonical spellings and collapses back to shorthand
// where the shorthand is lossless: a one-step sequence serializes under
// "action", a plain literal variable as a bare scalar, a raw command with
// no working directory as a bare string.

func strScalar(s string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if strings.Contains(s, "\n") {
		n.Style = yaml.LiteralStyle
	}
	return n
}

func boolScalar(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprintf("%t", b)}
}

func mapping(pairs ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: pairs}
}

func sequence(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: items}
}

// MarshalYAML encodes the document root.
func (c Config) MarshalYAML() (any, error) {
	doc := mapping()
	if c.Description != "" {
		doc.Content = append(doc.Content, strScalar("description"), strScalar(c.Description))
	}
	if len(c.Variables) > 0 {
		vn, err := c.Variables.marshalNode()
		if err != nil {
			return nil, err
		}
		doc.Content = append(doc.Content, strScalar("variables"), vn)
	}
	cn, err := c.Commands.marshalNode()
	if err != nil {
		return nil, err
	}
	doc.Content = append(doc.Content, strScalar("commands"), cn)
	return doc, nil
}

func (cs Commands) marshalNode() (*yaml.Node, error) {
	n := mapping()
	for _, nc := range cs {
		cn, err := nc.CommandDefinition.marshalNode()
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, strScalar(nc.Name), cn)
	}
	return n, nil
}

// MarshalYAML encodes an ordered command mapping.
func (cs Commands) MarshalYAML() (any, error) { return cs.marshalNode() }

func (c CommandDefinition) marshalNode() (*yaml.Node, error) {
	n := mapping()
	if c.Description != "" {
		n.Content = append(n.Content, strScalar("description"), strScalar(c.Description))
	}
	if len(c.Aliases) > 0 {
		seq := sequence()
		for _, a := range c.Aliases {
			seq.Content = append(seq.Content, strScalar(a))
		}
		n.Content = append(n.Content, strScalar("aliases"), seq)
	}
	if len(c.Variables) > 0 {
		vn, err := c.Variables.marshalNode()
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, strScalar("variables"), vn)
	}
	if len(c.Commands) > 0 {
		sub, err := c.Commands.marshalNode()
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, strScalar("commands"), sub)
	}
	if c.Action != nil && len(c.Action.Steps) > 0 {
		key, an, err := c.Action.marshalNode()
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, strScalar(key), an)
	}
	if c.Deferred != nil && len(c.Deferred.Steps) > 0 {
		_, dn, err := c.Deferred.marshalNode()
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, strScalar("deferred"), dn)
	}
	return n, nil
}

// MarshalYAML encodes one command node.
func (c CommandDefinition) MarshalYAML() (any, error) { return c.marshalNode() }

// marshalNode returns the key to use ("action" for a single step,
// "actions" for a sequence) together with the encoded node.
func (a ActionSpec) marshalNode() (string, *yaml.Node, error) {
	if len(a.Steps) == 1 {
		n, err := a.Steps[0].marshalNode()
		return "action", n, err
	}
	seq := sequence()
	for _, step := range a.Steps {
		sn, err := step.marshalNode()
		if err != nil {
			return "", nil, err
		}
		seq.Content = append(seq.Content, sn)
	}
	return "actions", seq, nil
}

func (a Action) marshalNode() (*yaml.Node, error) {
	switch op := a.Op.(type) {
	case ExecOp:
		if a.When == "" && !op.Command.Shell() && op.Command.WorkingDirectory == "" {
			return strScalar(op.Command.Run), nil
		}
		n := mapping(strScalar("exec"), op.Command.marshalNode())
		if a.When != "" {
			n.Content = append(n.Content, strScalar("when"), strScalar(a.When))
		}
		return n, nil
	case ConfirmOp:
		n := mapping(strScalar("confirm"), strScalar(op.Message))
		if a.When != "" {
			n.Content = append(n.Content, strScalar("when"), strScalar(a.When))
		}
		return n, nil
	default:
		return nil, fmt.Errorf("action has no operation")
	}
}

func (s CommandSpec) marshalNode() *yaml.Node {
	if !s.Shell() && s.WorkingDirectory == "" {
		return strScalar(s.Run)
	}
	n := mapping()
	if s.Shell() {
		n.Content = append(n.Content, strScalar("bash"), strScalar(s.Bash))
	} else {
		n.Content = append(n.Content, strScalar("run"), strScalar(s.Run))
	}
	if s.WorkingDirectory != "" {
		n.Content = append(n.Content, strScalar("working_directory"), strScalar(s.WorkingDirectory))
	}
	return n
}

func (vs Variables) marshalNode() (*yaml.Node, error) {
	n := mapping()
	for _, nv := range vs {
		vn, err := nv.VariableDefinition.marshalNode()
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, strScalar(nv.Name), vn)
	}
	return n, nil
}

// MarshalYAML encodes an ordered variable mapping.
func (vs Variables) MarshalYAML() (any, error) { return vs.marshalNode() }

func (v VariableDefinition) marshalNode() (*yaml.Node, error) {
	if lit, ok := v.Source.(Literal); ok && v.Description == "" && v.Flag == "" {
		return strScalar(lit.Value), nil
	}
	n := mapping()
	switch s := v.Source.(type) {
	case Literal:
		n.Content = append(n.Content, strScalar("value"), strScalar(s.Value))
	case Exec:
		n.Content = append(n.Content, strScalar("exec"), s.Command.marshalNode())
	case TextPrompt:
		p := mapping(strScalar("message"), strScalar(s.Message))
		if s.MultiLine {
			p.Content = append(p.Content, strScalar("multi_line"), boolScalar(true))
		}
		if s.Sensitive {
			p.Content = append(p.Content, strScalar("sensitive"), boolScalar(true))
		}
		n.Content = append(n.Content, strScalar("prompt"), p)
	case SelectPrompt:
		p := mapping(strScalar("message"), strScalar(s.Message))
		if s.OptionsExec != nil {
			p.Content = append(p.Content, strScalar("options"),
				mapping(strScalar("exec"), s.OptionsExec.marshalNode()))
		} else {
			opts := sequence()
			for _, o := range s.Options {
				opts.Content = append(opts.Content, strScalar(o))
			}
			p.Content = append(p.Content, strScalar("options"), opts)
		}
		n.Content = append(n.Content, strScalar("prompt"), p)
	default:
		return nil, fmt.Errorf("variable has no source")
	}
	if v.Description != "" {
		n.Content = append(n.Content, strScalar("description"), strScalar(v.Description))
	}
	if v.Flag != "" {
		n.Content = append(n.Content, strScalar("arg"), strScalar(v.Flag))
	}
	return n, nil
}

// MarshalYAML encodes one variable definition.
func (v VariableDefinition) MarshalYAML() (any, error) { return v.marshalNode() }
