package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderStatusTable(t *testing.T) {
	out := renderStatusTable([][2]string{
		{"Running", "yes"},
		{"Records", "3"},
	})
	require.Contains(t, out, "Field")
	require.Contains(t, out, "Running")
	require.Contains(t, out, "yes")
	require.Contains(t, out, "Records")
}

func TestRenderHistoryTableRightAlignsNumericColumns(t *testing.T) {
	out := renderHistoryTable([]historyRow{
		{id: "7", resolved: "2026-08-01 12:00:00", length: "30.0s", filename: "a.mp4", url: "https://cdn.test/a.mp4"},
		{id: "100", resolved: "2026-08-01 12:01:00", length: "5.0s", filename: "b.mp4", url: "https://cdn.test/b.mp4"},
	})
	require.Contains(t, out, "Filename")
	// Short ids pad from the left when the column is right-aligned.
	require.Contains(t, out, "   7 ")
	require.Contains(t, out, " 100 ")
	require.Contains(t, out, " 30.0s ")

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 5)
}
