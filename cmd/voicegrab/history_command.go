package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"voicegrab/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently resolved downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("history archive is disabled in configuration")
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No resolved downloads recorded")
				return nil
			}

			rows := make([]historyRow, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, historyRow{
					id:       strconv.FormatInt(entry.ID, 10),
					resolved: entry.ResolvedAt.Local().Format(time.DateTime),
					length:   formatDuration(entry.DurationMs),
					filename: entry.SuggestedName,
					url:      truncate(entry.DownloadURL, 60),
				})
			}
			fmt.Fprintln(out, renderHistoryTable(rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit history as JSON")
	return cmd
}

func formatDuration(millis int64) string {
	d := time.Duration(millis) * time.Millisecond
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max-1] + "…"
}
