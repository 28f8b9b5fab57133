package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var labelCaser = cases.Title(language.English)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List processing runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			runs, err := client.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				status := labelCaser.String(run.Status)
				if run.Cancelled {
					status += " (cancelled)"
				}
				rows = append(rows, []string{
					run.RunID,
					status,
					fmt.Sprintf("%d/%d", run.CompletedItems, run.TotalItems),
					strconv.Itoa(run.FallbackItems),
					run.CreatedAt,
				})
			}
			renderTable(cmd.OutOrStdout(), []column{
				{name: "Run"},
				{name: "Status"},
				{name: "Items", numeric: true},
				{name: "Fallbacks", numeric: true},
				{name: "Created"},
			}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 for all)")
	return cmd
}
