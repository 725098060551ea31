package main

import "github.com/spf13/cobra"

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "prama",
		Short:         "Talking-head videos, voice-cloned vodcasts and Hindi translation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(
		newServeCommand(ctx),
		newGenerateCommand(ctx),
		newSpeakCommand(ctx),
		newStudioCommand(ctx),
		newTranslateCommand(ctx),
		newJobsCommand(ctx),
		newStatusCommand(ctx),
		newTestNotifyCommand(ctx),
		newConfigCommand(ctx),
	)

	return rootCmd
}
