package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"prama/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		network    bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check external tools, model files and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := preflight.BuildReport(cmd.Context(), cfg, network)
			if jsonOutput {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range dependencyLines(report.Dependencies, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range checkLines(report.Checks, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Ready: %s\n", yesNo(report.Ready()))
			fmt.Fprintf(out, "Speech (Coqui TTS): %s\n", yesNo(cfg.TTS.Enabled))
			fmt.Fprintf(out, "Notifications: %s\n", yesNo(cfg.Notifications.NtfyTopic != ""))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	cmd.Flags().BoolVar(&network, "network", false, "Also probe the translation endpoint")
	return cmd
}
