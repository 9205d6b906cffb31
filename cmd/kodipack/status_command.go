package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"kodipack/internal/config"
	"kodipack/internal/history"
	"kodipack/internal/preflight"
	"kodipack/internal/publish"
)

type statusReport struct {
	ConfigPath     string             `json:"config_path"`
	ConfigFound    bool               `json:"config_found"`
	Addon          string             `json:"addon"`
	Checks         []preflight.Result `json:"checks"`
	Ready          bool               `json:"ready"`
	Version        string             `json:"sidecar_version,omitempty"`
	Package        string             `json:"package,omitempty"`
	Href           string             `json:"href,omitempty"`
	PackagePresent bool               `json:"package_present"`
	LastBuild      *history.Build     `json:"last_build,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show readiness checks and the currently published package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report, err := buildStatusReport(cmd, ctx, cfg)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, report)
			}
			renderStatus(cmd, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print status as JSON")
	return cmd
}

func buildStatusReport(cmd *cobra.Command, ctx *commandContext, cfg *config.Config) (statusReport, error) {
	report := statusReport{
		ConfigPath:  ctx.configPath,
		ConfigFound: ctx.configSeen,
		Addon:       cfg.Addon.Name,
		Checks:      preflight.RunAll(cfg),
	}
	report.Ready = !preflight.Failed(report.Checks)

	version, ok, err := publish.ReadVersion(cfg.Paths.OutputDir, cfg.Publish.VersionFile)
	if err != nil {
		return report, err
	}
	if ok {
		report.Version = version
		report.Package = publish.PackageName(cfg.Addon.Name, version)
		href, err := publish.RootHref(cfg.Paths.OutputDir, cfg.Paths.ProjectDir, report.Package)
		if err != nil {
			return report, err
		}
		report.Href = href
		if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, report.Package)); err == nil {
			report.PackagePresent = true
		}
	}

	if cfg.History.Enabled {
		if _, err := os.Stat(cfg.History.Path); err == nil {
			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return report, err
			}
			defer store.Close()
			last, err := store.Latest(cmd.Context(), cfg.Addon.Name)
			if err != nil {
				return report, err
			}
			report.LastBuild = last
		}
	}
	return report, nil
}

func renderStatus(cmd *cobra.Command, report statusReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Configuration", colorize) {
		fmt.Fprintln(out, line)
	}
	configMsg := report.ConfigPath
	if !report.ConfigFound {
		configMsg += " (not found; defaults in use)"
	}
	fmt.Fprintln(out, renderStatusLine("Config", statusInfo, configMsg, colorize))
	fmt.Fprintln(out, renderStatusLine("Addon", statusInfo, report.Addon, colorize))
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		kind := statusOK
		switch {
		case !check.Passed && check.Optional:
			kind = statusWarn
		case !check.Passed:
			kind = statusError
		}
		rows = append(rows, []string{check.Name, colorizeCell(kind, colorize), check.Detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Published", colorize) {
		fmt.Fprintln(out, line)
	}
	if report.Package == "" {
		fmt.Fprintln(out, renderStatusLine("Version", statusWarn, "no version recorded", colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Version", statusOK, report.Version, colorize))
		kind := statusOK
		msg := report.Href
		if !report.PackagePresent {
			kind = statusWarn
			msg += " (archive missing)"
		}
		fmt.Fprintln(out, renderStatusLine("Link", kind, msg, colorize))
	}
	if report.LastBuild != nil {
		b := report.LastBuild
		what := "republished " + b.Package
		if b.Built {
			what = "built " + b.Package
		}
		if b.Package == "" {
			what = "cleared index pages"
		}
		fmt.Fprintln(out, renderStatusLine("Last run", statusInfo,
			fmt.Sprintf("%s %s", what, humanize.Time(b.CreatedAt)), colorize))
	}
	readiness := renderStatusLine("Ready", statusOK, "", colorize)
	if !report.Ready {
		readiness = renderStatusLine("Ready", statusError, "required checks failed", colorize)
	}
	fmt.Fprintln(out, readiness)
}
