package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"triage/internal/feedback"
	"triage/internal/metrics"
)

func newMetricsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics <run-id>",
		Short: "Show metrics for a finished run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			report, err := client.Metrics(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderMetrics(cmd, report)
			return nil
		},
	}
}

func renderMetrics(cmd *cobra.Command, report metrics.Report) {
	out := cmd.OutOrStdout()
	summary := report.Summary

	fmt.Fprintf(out, "Run %s\n", summary.RunID)
	rows := [][]string{
		{"Tickets", strconv.Itoa(summary.TotalTickets)},
		{"Success", strconv.Itoa(summary.SuccessCount)},
		{"Fallback", strconv.Itoa(summary.FallbackCount)},
		{"Avg confidence", formatOptionalFloat(summary.AverageConfidence)},
		{"Processing time", fmt.Sprintf("%.1fs", summary.ProcessingSeconds)},
	}
	renderTable(out, []column{{name: "Metric"}, {name: "Value"}}, rows)

	if len(summary.CategoryCounts) > 0 {
		catRows := make([][]string, 0, len(summary.CategoryCounts))
		for _, category := range feedback.AllCategories() {
			if count, ok := summary.CategoryCounts[category]; ok {
				catRows = append(catRows, []string{string(category), strconv.Itoa(count)})
			}
		}
		renderTable(out, []column{{name: "Category"}, {name: "Tickets", numeric: true}}, catRows)
	}

	if report.Evaluation == nil {
		return
	}
	ev := report.Evaluation
	fmt.Fprintf(out, "Quality: %d compared, accuracy %s\n",
		ev.TotalCompared, formatOptionalFloat(ev.Accuracy))

	if len(ev.PerCategory) > 0 {
		categories := make([]string, 0, len(ev.PerCategory))
		for category := range ev.PerCategory {
			categories = append(categories, string(category))
		}
		sort.Strings(categories)

		rows := make([][]string, 0, len(categories))
		for _, category := range categories {
			score := ev.PerCategory[feedback.Category(category)]
			rows = append(rows, []string{
				category,
				formatOptionalFloat(score.Precision),
				formatOptionalFloat(score.Recall),
				formatOptionalFloat(score.F1),
				strconv.Itoa(score.Support),
			})
		}
		renderTable(out, []column{
			{name: "Category"},
			{name: "Precision", numeric: true},
			{name: "Recall", numeric: true},
			{name: "F1", numeric: true},
			{name: "Support", numeric: true},
		}, rows)
	}
}

// formatOptionalFloat prints "n/a" for undefined metrics instead of a
// misleading zero.
func formatOptionalFloat(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *value)
}
