package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"triage/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				if errors.Is(err, api.ErrDaemonUnavailable) {
					return fmt.Errorf("daemon not reachable; start it with `triaged` (%v)", err)
				}
				return err
			}

			rows := [][]string{
				{"Running", strconv.FormatBool(status.Running)},
				{"PID", strconv.Itoa(status.PID)},
				{"Database", status.DBPath},
				{"Lock file", status.LockFilePath},
				{"Active runs", strconv.Itoa(status.ActiveRuns)},
				{"Total runs", strconv.Itoa(status.TotalRuns)},
			}
			renderTable(cmd.OutOrStdout(), []column{{name: "Field"}, {name: "Value"}}, rows)
			return nil
		},
	}
}
