package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"triage/internal/api"
	"triage/internal/feedback"
	"triage/internal/ingest"
	"triage/internal/logging"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		reviewsPath  string
		emailsPath   string
		expectedPath string
		useDataDir   bool
		groundTruth  bool
		workers      int
		wait         bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit feedback CSV files as a new run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if useDataDir {
				client, err := ctx.client()
				if err != nil {
					return err
				}
				runID, err := client.Submit(cmd.Context(), api.SubmitRequest{
					Source:      "csv",
					Workers:     workers,
					GroundTruth: groundTruth,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Submitted run %s from the daemon data directory\n", runID)
				if !wait {
					return nil
				}
				return waitForCompletion(cmd.Context(), client, runID, out)
			}

			if strings.TrimSpace(reviewsPath) == "" && strings.TrimSpace(emailsPath) == "" {
				return fmt.Errorf("at least one of --reviews, --emails, or --csv is required")
			}

			logger := logging.NewNop()
			var items []api.SubmitItem
			skipped := 0

			if reviewsPath != "" {
				result, err := ingest.LoadReviews(reviewsPath, logger)
				if err != nil {
					return err
				}
				items = append(items, toSubmitItems(result.Items)...)
				skipped += result.Skipped
			}
			if emailsPath != "" {
				result, err := ingest.LoadEmails(emailsPath, logger)
				if err != nil {
					return err
				}
				items = append(items, toSubmitItems(result.Items)...)
				skipped += result.Skipped
			}

			req := api.SubmitRequest{Items: items, Workers: workers}
			if expectedPath != "" {
				expected, expectedSkipped, err := ingest.LoadExpected(expectedPath, logger)
				if err != nil {
					return err
				}
				skipped += expectedSkipped
				for _, label := range expected {
					req.Expected = append(req.Expected, api.SubmitLabel{
						SourceID: label.SourceID,
						Category: string(label.Category),
					})
				}
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}
			runID, err := client.Submit(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Submitted run %s with %d items", runID, len(items))
			if skipped > 0 {
				fmt.Fprintf(out, " (%d rows skipped)", skipped)
			}
			fmt.Fprintln(out)

			if !wait {
				return nil
			}
			return waitForCompletion(cmd.Context(), client, runID, out)
		},
	}

	cmd.Flags().StringVar(&reviewsPath, "reviews", "", "Path to app store reviews CSV")
	cmd.Flags().StringVar(&emailsPath, "emails", "", "Path to support emails CSV")
	cmd.Flags().StringVar(&expectedPath, "expected", "", "Path to expected classifications CSV for quality evaluation")
	cmd.Flags().BoolVar(&useDataDir, "csv", false, "Ingest the CSVs from the daemon's data directory instead of local files")
	cmd.Flags().BoolVar(&groundTruth, "ground-truth", false, "With --csv, evaluate against expected_classifications.csv from the data directory")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker count override for this run")
	cmd.Flags().BoolVar(&wait, "wait", false, "Block until the run finishes")
	return cmd
}

func toSubmitItems(items []feedback.Item) []api.SubmitItem {
	out := make([]api.SubmitItem, 0, len(items))
	for _, item := range items {
		out = append(out, api.SubmitItem{
			ID:       item.ID,
			Source:   string(item.Source),
			Text:     item.Text,
			Metadata: item.Metadata,
		})
	}
	return out
}

func waitForCompletion(ctx context.Context, client *api.Client, runID string, out io.Writer) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		run, err := client.Run(ctx, runID)
		if err != nil {
			return err
		}
		if run.Status == "completed" || run.Status == "failed" {
			fmt.Fprintf(out, "Run %s %s: %d/%d items, %d fallbacks\n",
				runID, run.Status, run.CompletedItems, run.TotalItems, run.FallbackItems)
			if run.Status == "failed" {
				return fmt.Errorf("run failed: %s", run.ErrorMessage)
			}
			return nil
		}
	}
}
