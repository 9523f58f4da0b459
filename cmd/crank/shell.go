package main

import (
	"github.com/spf13/cobra"

	"github.com/ormasoftchile/crank/pkg/prompt"
	"github.com/ormasoftchile/crank/pkg/providers"
	"github.com/ormasoftchile/crank/pkg/shell"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive session on the configured commands",
	RunE:  runShell,
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg, source, err := requireConfig()
	if err != nil {
		return err
	}
	var (
		executor providers.CommandExecutor = &providers.RealExecutor{}
		prompter providers.Prompter        = &prompt.Interactive{}
	)
	if flagDryRun {
		executor = &providers.DryRunExecutor{}
		prompter = providers.DryRunPrompter{}
	}
	sh := &shell.Shell{
		Config:      cfg,
		Source:      source,
		Executor:    executor,
		Prompter:    prompter,
		AutoConfirm: flagYes || flagDryRun,
	}
	return sh.Run(cmd.Context())
}
