package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var flags globalFlags
	ctx := newCommandContext(&flags)

	var dryRun, jsonOutput bool
	rootCmd := &cobra.Command{
		Use:   "kodipack",
		Short: "Package a Kodi addon into a versioned zip and publish its index pages",
		Long: "kodipack zips the installed addon into <project>/packages, records its version,\n" +
			"copies the newest changelog entry, and rewrites the index pages linking the\n" +
			"package. Without an installed addon the pages are rebuilt from the recorded version.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, ctx, dryRun, jsonOutput)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.addon, "addon", "", "Addon to package (overrides config and KODIPACK_ADDON)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format (console, json)")
	addBuildFlags(rootCmd, &dryRun, &jsonOutput)

	rootCmd.AddCommand(newBuildCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
