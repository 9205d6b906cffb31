package main

import (
	"encoding/json"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	return renderTableWithFooter(headers, rows, nil, aligns)
}

// renderTableWithFooter renders rows padded or truncated to len(headers)
// columns. A nil footer omits the footer row.
func renderTableWithFooter(headers []string, rows [][]string, footer []string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault

	tw.AppendHeader(toRow(headers, columns))
	for _, row := range rows {
		tw.AppendRow(toRow(row, columns))
	}
	if footer != nil {
		tw.AppendFooter(toRow(footer, columns))
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			AlignFooter: align,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func toRow(values []string, columns int) table.Row {
	row := make(table.Row, columns)
	for i := range columns {
		if i < len(values) {
			row[i] = values[i]
		} else {
			row[i] = ""
		}
	}
	return row
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
