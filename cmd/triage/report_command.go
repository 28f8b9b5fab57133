package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"triage/internal/feedback"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report <run-id>",
		Short: "Show the full report for a run, including the confusion matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			view, err := client.Report(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			run := view.Run
			status := labelCaser.String(run.Status)
			if run.Cancelled {
				status += " (cancelled)"
			}
			fmt.Fprintf(out, "Run %s: %s, %d/%d items, %d fallbacks\n",
				run.RunID, status, run.CompletedItems, run.TotalItems, run.FallbackItems)
			if run.ErrorMessage != "" {
				fmt.Fprintf(out, "Error: %s\n", run.ErrorMessage)
			}

			if view.Report == nil {
				fmt.Fprintln(out, "Metrics not available yet.")
				return nil
			}
			renderMetrics(cmd, *view.Report)

			ev := view.Report.Evaluation
			if ev == nil || len(ev.Confusion) == 0 {
				return nil
			}

			// Render the confusion matrix with expected categories as rows
			// and actual categories as columns.
			actualSet := map[feedback.Category]struct{}{}
			for _, row := range ev.Confusion {
				for actual := range row {
					actualSet[actual] = struct{}{}
				}
			}
			var actuals []feedback.Category
			for _, category := range feedback.AllCategories() {
				if _, ok := actualSet[category]; ok {
					actuals = append(actuals, category)
				}
			}

			var expecteds []string
			for expected := range ev.Confusion {
				expecteds = append(expecteds, string(expected))
			}
			sort.Strings(expecteds)

			columns := []column{{name: "Expected \\ Actual"}}
			for _, actual := range actuals {
				columns = append(columns, column{name: string(actual), numeric: true})
			}
			rows := make([][]string, 0, len(expecteds))
			for _, expected := range expecteds {
				row := []string{expected}
				for _, actual := range actuals {
					row = append(row, fmt.Sprintf("%d", ev.Confusion[feedback.Category(expected)][actual]))
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(out, "Confusion matrix:")
			renderTable(out, columns, rows)

			if len(ev.UnmatchedExpected) > 0 {
				fmt.Fprintf(out, "Labels without tickets: %v\n", ev.UnmatchedExpected)
			}
			if len(ev.UnmatchedTickets) > 0 {
				fmt.Fprintf(out, "Tickets without labels: %v\n", ev.UnmatchedTickets)
			}
			return nil
		},
	}
}
