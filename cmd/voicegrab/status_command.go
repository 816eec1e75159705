package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and store statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.fetchStatus()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, status)
			}

			rows := [][2]string{
				{"Running", yesNo(status.Running)},
				{"PID", strconv.Itoa(status.PID)},
				{"Records", strconv.Itoa(status.Store.Total)},
				{"Pending records", strconv.Itoa(status.Store.Pending)},
				{"Resolvable records", strconv.Itoa(status.Store.Resolvable)},
				{"Retained requests", strconv.Itoa(status.RetainedRequests)},
				{"Seen handles", strconv.Itoa(status.SeenHandles)},
			}
			if status.HistoryDBPath != "" {
				rows = append(rows,
					[2]string{"History entries", strconv.Itoa(status.HistoryEntries)},
					[2]string{"History database", status.HistoryDBPath},
				)
			}
			rows = append(rows, [2]string{"Lock file", status.LockFilePath})

			fmt.Fprintln(out, renderStatusTable(rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	return cmd
}
