package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/crank/pkg/resolver"
	"github.com/ormasoftchile/crank/pkg/schema"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cfg, source, err := loadConfiguration(configPathFromArgs(os.Args[1:]))
	if err == nil {
		loadedConfig, configSource = cfg, source
		registerConfigCommands(rootCmd, cfg, invokeCommand)
	} else {
		configLoadErr = err
		if tok := firstPositional(os.Args[1:]); tok != "" && !hasBuiltin(rootCmd, tok) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "crank",
	Short: "Configuration-driven command runner",
	Long:  "crank — turn a YAML tree of named commands, variables, and actions into a CLI.",
}

// --- validate ---

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate [config.yaml]",
	Short: "Validate a configuration file against the schema",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := flagFile
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		found, err := schema.FindConfigFile(".")
		if err != nil {
			return err
		}
		path = found
	}

	cfg, findings := schema.ValidateFile(path)
	if validateJSON {
		return writeValidateJSON(cmd, path, findings)
	}

	if len(findings) > 0 {
		var errs []*schema.ValidationError
		var warnings []*schema.ValidationError
		for _, f := range findings {
			if f.Severity == "warning" {
				warnings = append(warnings, f)
			} else {
				errs = append(errs, f)
			}
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "  ⚠ [%s] %s\n", w.Phase, w.Message)
			if w.Path != "" {
				fmt.Fprintf(os.Stderr, "    at: %s\n", w.Path)
			}
		}
		if len(errs) > 0 {
			fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n\n", len(errs))
			for i, e := range errs {
				fmt.Fprintf(os.Stderr, "  %d. [%s] %s\n", i+1, e.Phase, e.Message)
				if e.Path != "" {
					fmt.Fprintf(os.Stderr, "     at: %s\n", e.Path)
				}
			}
			return fmt.Errorf("validation failed with %d error(s)", len(errs))
		}
	}
	fmt.Printf("✓ %s is valid (%d commands)\n", path, countCommands(cfg))
	return nil
}

func writeValidateJSON(cmd *cobra.Command, path string, findings []*schema.ValidationError) error {
	if findings == nil {
		findings = []*schema.ValidationError{}
	}
	payload := struct {
		Path     string                    `json:"path"`
		Valid    bool                      `json:"valid"`
		Findings []*schema.ValidationError `json:"findings"`
	}{path, !schema.HasErrors(findings), findings}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	if schema.HasErrors(findings) {
		// The findings are already on stdout; keep stderr clean for
		// scripted callers.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("validation failed")
	}
	return nil
}

func countCommands(cfg *schema.Config) int {
	n := 0
	_ = resolver.Walk(cfg, func([]string, *schema.CommandDefinition, schema.Variables) error {
		n++
		return nil
	})
	return n
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the configuration JSON Schema to stdout",
	RunE:  runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	data, err := schema.GenerateJSONSchema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	// Pretty-print the JSON
	var out json.RawMessage = data
	formatted, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		// fallback to raw
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(formatted))
	return nil
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crank %s (build: %s)\n", version, commit)
	},
}

// --- global flags and wiring ---

var (
	flagFile    string
	flagVerbose bool
	flagDryRun  bool
	flagYes     bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "", "Configuration file (default: nearest crank.yaml, searching upward)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print resolved variables and timing detail")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "Print what would run without executing anything")
	rootCmd.PersistentFlags().BoolVar(&flagYes, "yes", false, "Answer yes to every confirmation")

	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Report findings as JSON on stdout")
	docsCmd.Flags().BoolVar(&docsRaw, "raw", false, "Emit raw markdown without terminal rendering")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}
