package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderStatusTable lays out daemon status as field/value pairs.
func renderStatusTable(rows [][2]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Field", "Value"})
	for _, row := range rows {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	return tw.Render()
}

// historyRow is one resolved download formatted for display.
type historyRow struct {
	id       string
	resolved string
	length   string
	filename string
	url      string
}

// renderHistoryTable lays out resolved downloads newest first. ID and clip
// length are numeric and read better right-aligned.
func renderHistoryTable(rows []historyRow) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Resolved", "Length", "Filename", "URL"})
	for _, row := range rows {
		tw.AppendRow(table.Row{row.id, row.resolved, row.length, row.filename, row.url})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
