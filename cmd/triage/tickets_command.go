package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"triage/internal/api"
)

func newTicketsCommand(ctx *commandContext) *cobra.Command {
	var (
		runID    string
		category string
		priority string
		status   string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "tickets [ticket-id]",
		Short: "List tickets or show one ticket",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				ticket, err := client.Ticket(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Ticket:     %s\n", ticket.TicketID)
				fmt.Fprintf(out, "Run:        %s\n", ticket.RunID)
				fmt.Fprintf(out, "Source:     %s (%s)\n", ticket.SourceID, ticket.Source)
				fmt.Fprintf(out, "Title:      %s\n", ticket.Title)
				fmt.Fprintf(out, "Category:   %s\n", ticket.Category)
				fmt.Fprintf(out, "Priority:   %s\n", ticket.Priority)
				fmt.Fprintf(out, "Status:     %s\n", ticket.Status)
				fmt.Fprintf(out, "Confidence: %.2f\n", ticket.Confidence)
				fmt.Fprintf(out, "Created:    %s\n", ticket.CreatedAt)
				fmt.Fprintf(out, "\n%s\n", ticket.Description)
				if ticket.TechnicalDetails != "" {
					fmt.Fprintf(out, "\n%s\n", ticket.TechnicalDetails)
				}
				return nil
			}

			tickets, err := client.Tickets(cmd.Context(), api.TicketQuery{
				RunID:    runID,
				Category: category,
				Priority: priority,
				Status:   status,
				Limit:    limit,
			})
			if err != nil {
				return err
			}
			if len(tickets) == 0 {
				fmt.Fprintln(out, "No tickets matched.")
				return nil
			}

			rows := make([][]string, 0, len(tickets))
			for _, ticket := range tickets {
				rows = append(rows, []string{
					ticket.TicketID,
					ticket.Category,
					ticket.Priority,
					ticket.Status,
					fmt.Sprintf("%.2f", ticket.Confidence),
					truncateCell(ticket.Title, 60),
				})
			}
			renderTable(out, []column{
				{name: "Ticket"},
				{name: "Category"},
				{name: "Priority"},
				{name: "Status"},
				{name: "Conf", numeric: true},
				{name: "Title"},
			}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Filter by run ID")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&priority, "priority", "", "Filter by priority")
	cmd.Flags().StringVar(&status, "status", "", "Filter by ticket status (success or fallback)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum tickets to list (0 for all)")
	return cmd
}

func truncateCell(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}
