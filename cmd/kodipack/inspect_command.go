package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"kodipack/internal/archive"
)

func newInspectCommand() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:         "inspect <zip>",
		Short:       "List the files stored in a package",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := archive.Entries(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, entries)
			}

			var size, packed uint64
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.Name,
					e.Method,
					humanize.IBytes(e.Size),
					humanize.IBytes(e.CompressedSize),
				})
				size += e.Size
				packed += e.CompressedSize
			}
			footer := []string{
				strconv.Itoa(len(entries)) + " files",
				"",
				humanize.IBytes(size),
				humanize.IBytes(packed),
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTableWithFooter(
				[]string{"Entry", "Method", "Size", "Packed"},
				rows,
				footer,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print entries as JSON")
	return cmd
}
