package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"kodipack/internal/packager"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var dryRun, jsonOutput bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Package the addon and refresh the index pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, ctx, dryRun, jsonOutput)
		},
	}
	addBuildFlags(cmd, &dryRun, &jsonOutput)
	return cmd
}

func addBuildFlags(cmd *cobra.Command, dryRun, jsonOutput *bool) {
	cmd.Flags().BoolVar(dryRun, "dry-run", false, "Resolve inputs and report the plan without writing anything")
	cmd.Flags().BoolVar(jsonOutput, "json", false, "Print the run outcome as JSON")
}

func runBuild(cmd *cobra.Command, ctx *commandContext, dryRun, jsonOutput bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger(cmd)
	if err != nil {
		return err
	}

	outcome, err := packager.Run(cmd.Context(), cfg, logger, packager.Options{DryRun: dryRun})
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, outcome)
	}
	printOutcome(cmd.OutOrStdout(), outcome, shouldColorize(cmd.OutOrStdout()))
	return nil
}

func printOutcome(out io.Writer, o packager.Outcome, colorize bool) {
	title := "Build"
	if o.DryRun {
		title = "Build (dry run)"
	}
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}

	switch {
	case o.Built:
		fmt.Fprintln(out, renderStatusLine("Package", statusOK,
			fmt.Sprintf("%s (%d files, %s)", o.ArchivePath, o.Entries, humanize.IBytes(uint64(o.Size))), colorize))
		fmt.Fprintln(out, renderStatusLine("Version", statusOK, o.Version, colorize))
	case o.DryRun && o.ArchivePath != "":
		fmt.Fprintln(out, renderStatusLine("Package", statusInfo, "would write "+o.ArchivePath, colorize))
		fmt.Fprintln(out, renderStatusLine("Version", statusInfo, o.Version, colorize))
	case o.Package != "":
		fmt.Fprintln(out, renderStatusLine("Package", statusWarn,
			fmt.Sprintf("addon not installed; republishing %s", o.Package), colorize))
	default:
		fmt.Fprintln(out, renderStatusLine("Package", statusWarn,
			"addon not installed and no recorded version; index pages cleared", colorize))
	}

	switch {
	case o.ChangesWritten:
		fmt.Fprintln(out, renderStatusLine("Changes", statusOK, firstLine(o.Changes), colorize))
	case o.DryRun && o.Changes != "":
		fmt.Fprintln(out, renderStatusLine("Changes", statusInfo, firstLine(o.Changes), colorize))
	case o.Built:
		fmt.Fprintln(out, renderStatusLine("Changes", statusInfo, "no changelog", colorize))
	}

	indexMsg := o.Indexes.Root
	if o.Indexes.Href != "" {
		indexMsg = fmt.Sprintf("%s -> %s", o.Indexes.Root, o.Indexes.Href)
	}
	kind := statusOK
	if o.DryRun {
		kind = statusInfo
	}
	fmt.Fprintln(out, renderStatusLine("Index", kind, indexMsg, colorize))
	fmt.Fprintln(out, renderStatusLine("Run", statusInfo, o.RunID, colorize))
}
