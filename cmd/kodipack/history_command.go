package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"kodipack/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var all, jsonOutput bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded packaging runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("build history is disabled (history.enabled = false in %s)", ctx.configPath)
			}

			var builds []history.Build
			if _, err := os.Stat(cfg.History.Path); err == nil {
				store, err := history.Open(cfg.History.Path)
				if err != nil {
					return err
				}
				defer store.Close()
				addon := cfg.Addon.Name
				if all {
					addon = ""
				}
				if builds, err = store.List(cmd.Context(), addon, limit); err != nil {
					return err
				}
			}

			if jsonOutput {
				if builds == nil {
					builds = []history.Build{}
				}
				return writeJSON(cmd, builds)
			}
			out := cmd.OutOrStdout()
			if len(builds) == 0 {
				fmt.Fprintln(out, "No builds recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(builds, all))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&all, "all", false, "Include every addon, not just the configured one")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	return cmd
}

func renderHistoryTable(builds []history.Build, withAddon bool) string {
	headers := []string{"ID", "When", "Version", "Package", "Built", "Files", "Size", "SHA-256"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
	if withAddon {
		headers = append([]string{"Addon"}, headers...)
		aligns = append([]columnAlignment{alignLeft}, aligns...)
	}

	var total int64
	rows := make([][]string, 0, len(builds))
	for _, b := range builds {
		size, files, sum := "-", "-", "-"
		if b.Built {
			size = humanize.IBytes(uint64(b.SizeBytes))
			files = strconv.Itoa(b.Entries)
			sum = shortDigest(b.SHA256)
			total += b.SizeBytes
		}
		pkg := b.Package
		if pkg == "" {
			pkg = "(none)"
		}
		row := []string{
			strconv.FormatInt(b.ID, 10),
			humanize.Time(b.CreatedAt),
			b.Version,
			pkg,
			yesNo(b.Built),
			files,
			size,
			sum,
		}
		if withAddon {
			row = append([]string{b.Addon}, row...)
		}
		rows = append(rows, row)
	}

	footer := make([]string, len(headers))
	footer[len(footer)-2] = humanize.IBytes(uint64(total))
	footer[0] = fmt.Sprintf("%d runs", len(builds))
	return renderTableWithFooter(headers, rows, footer, aligns)
}

func shortDigest(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
