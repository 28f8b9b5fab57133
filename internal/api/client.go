package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"triage/internal/metrics"
)

// ErrDaemonUnavailable indicates the daemon could not be reached.
var ErrDaemonUnavailable = errors.New("daemon unavailable")

// Client talks to a running daemon's HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for the given bind address, for example
// "127.0.0.1:7492".
func NewClient(bind, token string) *Client {
	bind = strings.TrimSpace(bind)
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	return &Client{
		baseURL: strings.TrimRight(bind, "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SubmitItem is one batch entry in a submit request.
type SubmitItem struct {
	ID       string            `json:"id"`
	Source   string            `json:"source"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SubmitLabel is one ground-truth label in a submit request.
type SubmitLabel struct {
	SourceID string `json:"source_id"`
	Category string `json:"expected_category"`
}

// SubmitRequest is the POST /api/runs payload. Setting Source to "csv"
// with no inline items asks the daemon to ingest the feedback CSVs from
// its configured data directory.
type SubmitRequest struct {
	Source      string        `json:"source,omitempty"`
	Items       []SubmitItem  `json:"items"`
	Workers     int           `json:"workers,omitempty"`
	GroundTruth bool          `json:"ground_truth,omitempty"`
	Expected    []SubmitLabel `json:"expected,omitempty"`
}

// Status fetches daemon status.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var status DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &status)
	return status, err
}

// Submit posts a batch and returns the run ID.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	var accepted struct {
		RunID string `json:"run_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/runs", req, &accepted); err != nil {
		return "", err
	}
	return accepted.RunID, nil
}

// Runs lists runs.
func (c *Client) Runs(ctx context.Context, limit int) ([]RunView, error) {
	path := "/api/runs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var payload struct {
		Runs []RunView `json:"runs"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Runs, nil
}

// Run fetches one run.
func (c *Client) Run(ctx context.Context, runID string) (RunView, error) {
	var run RunView
	err := c.do(ctx, http.MethodGet, "/api/runs/"+url.PathEscape(runID), nil, &run)
	return run, err
}

// Cancel requests cooperative cancellation of a run.
func (c *Client) Cancel(ctx context.Context, runID string) error {
	return c.do(ctx, http.MethodPost, "/api/runs/"+url.PathEscape(runID)+"/cancel", nil, nil)
}

// Tickets lists tickets matching the query.
func (c *Client) Tickets(ctx context.Context, query TicketQuery) ([]TicketView, error) {
	values := url.Values{}
	if query.RunID != "" {
		values.Set("run", query.RunID)
	}
	if query.Category != "" {
		values.Set("category", query.Category)
	}
	if query.Priority != "" {
		values.Set("priority", query.Priority)
	}
	if query.Status != "" {
		values.Set("status", query.Status)
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	path := "/api/tickets"
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var payload struct {
		Tickets []TicketView `json:"tickets"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Tickets, nil
}

// Ticket fetches one ticket.
func (c *Client) Ticket(ctx context.Context, ticketID string) (TicketView, error) {
	var ticket TicketView
	err := c.do(ctx, http.MethodGet, "/api/tickets/"+url.PathEscape(ticketID), nil, &ticket)
	return ticket, err
}

// Metrics fetches the metrics report for a run.
func (c *Client) Metrics(ctx context.Context, runID string) (metrics.Report, error) {
	var report metrics.Report
	err := c.do(ctx, http.MethodGet, "/api/runs/"+url.PathEscape(runID)+"/metrics", nil, &report)
	return report, err
}

// Report fetches the combined run and metrics view.
func (c *Client) Report(ctx context.Context, runID string) (ReportView, error) {
	var view ReportView
	err := c.do(ctx, http.MethodGet, "/api/runs/"+url.PathEscape(runID)+"/report", nil, &view)
	return view, err
}

func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var failure struct {
			Error string `json:"error"`
		}
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(payload, &failure) == nil && failure.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, failure.Error)
		}
		return fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}

	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
