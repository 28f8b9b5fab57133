package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"triage/internal/api"
	"triage/internal/config"
	"triage/internal/feedback"
	"triage/internal/ingest"
	"triage/internal/logging"
	"triage/internal/metrics"
	"triage/internal/runner"
	"triage/internal/services"
	"triage/internal/store"
)

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	service *api.Service

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:    bind,
		logger:  logger,
		daemon:  d,
		service: api.NewService(d.store),
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/runs", authMiddleware(token, srv.handleRuns))
	mux.HandleFunc("/api/runs/", authMiddleware(token, srv.handleRun))
	mux.HandleFunc("/api/tickets", authMiddleware(token, srv.handleTickets))
	mux.HandleFunc("/api/tickets/", authMiddleware(token, srv.handleTicket))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()).View())
}

// submitRequest is the POST /api/runs payload. Items may be inline, or
// source "csv" ingests the feedback files from the configured data dir.
type submitRequest struct {
	Source string `json:"source,omitempty"`
	Items  []struct {
		ID       string            `json:"id"`
		Source   string            `json:"source"`
		Text     string            `json:"text"`
		Metadata map[string]string `json:"metadata,omitempty"`
	} `json:"items"`
	Workers     int  `json:"workers,omitempty"`
	GroundTruth bool `json:"ground_truth,omitempty"`
	Expected    []struct {
		SourceID string `json:"source_id"`
		Category string `json:"expected_category"`
	} `json:"expected,omitempty"`
}

func (s *apiServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit, ok := parseLimit(r, w, s)
		if !ok {
			return
		}
		runs, err := s.service.Runs(r.Context(), limit)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
	case http.MethodPost:
		s.handleSubmit(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	items := make([]feedback.Item, 0, len(req.Items))
	for _, raw := range req.Items {
		source, _ := feedback.ParseSourceType(raw.Source)
		items = append(items, feedback.Item{
			ID:       raw.ID,
			Source:   source,
			Text:     raw.Text,
			Metadata: raw.Metadata,
		})
	}

	opts := runner.SubmitOptions{Workers: req.Workers}
	for _, label := range req.Expected {
		category, ok := feedback.ParseCategory(label.Category)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown expected category %q", label.Category))
			return
		}
		opts.Expected = append(opts.Expected, metrics.Expected{SourceID: label.SourceID, Category: category})
	}

	if len(items) == 0 && strings.EqualFold(strings.TrimSpace(req.Source), "csv") {
		loaded, expected, err := s.loadDataDir(req.GroundTruth)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		items = loaded
		if len(expected) > 0 {
			opts.Expected = expected
		}
	}

	runID, err := s.daemon.runner.Submit(r.Context(), items, opts)
	if err != nil {
		if errors.Is(err, services.ErrInvalidBatch) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

// loadDataDir ingests the feedback CSVs from the configured data directory.
// Missing files are skipped; an empty data dir surfaces as an empty batch at
// submit validation.
func (s *apiServer) loadDataDir(groundTruth bool) ([]feedback.Item, []metrics.Expected, error) {
	dataDir := s.daemon.cfg.Paths.DataDir
	var items []feedback.Item

	reviewsPath := filepath.Join(dataDir, "app_store_reviews.csv")
	if _, err := os.Stat(reviewsPath); err == nil {
		result, err := ingest.LoadReviews(reviewsPath, s.logger)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, result.Items...)
	}

	emailsPath := filepath.Join(dataDir, "support_emails.csv")
	if _, err := os.Stat(emailsPath); err == nil {
		result, err := ingest.LoadEmails(emailsPath, s.logger)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, result.Items...)
	}

	var expected []metrics.Expected
	if groundTruth {
		labelsPath := filepath.Join(dataDir, "expected_classifications.csv")
		labels, _, err := ingest.LoadExpected(labelsPath, s.logger)
		if err != nil {
			return nil, nil, err
		}
		expected = labels
	}
	return items, expected, nil
}

// handleRun serves /api/runs/{id} and its subresources.
func (s *apiServer) handleRun(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)
	runID := parts[0]
	if runID == "" {
		s.writeError(w, http.StatusNotFound, "run id required")
		return
	}

	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		run, err := s.service.Run(r.Context(), runID)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, run)
	case sub == "cancel" && r.Method == http.MethodPost:
		if err := s.daemon.runner.Cancel(r.Context(), runID); err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID, "cancelled": "true"})
	case sub == "metrics" && r.Method == http.MethodGet:
		report, err := s.service.Metrics(r.Context(), runID)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		if report == nil {
			s.writeError(w, http.StatusNotFound, "metrics not available yet")
			return
		}
		s.writeJSON(w, http.StatusOK, report)
	case sub == "report" && r.Method == http.MethodGet:
		view, err := s.service.Report(r.Context(), runID)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, view)
	default:
		s.writeError(w, http.StatusNotFound, "unknown run resource")
	}
}

func (s *apiServer) handleTickets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit, ok := parseLimit(r, w, s)
	if !ok {
		return
	}
	query := api.TicketQuery{
		RunID:    r.URL.Query().Get("run"),
		Category: r.URL.Query().Get("category"),
		Priority: r.URL.Query().Get("priority"),
		Status:   r.URL.Query().Get("status"),
		Limit:    limit,
	}
	tickets, err := s.service.Tickets(r.Context(), query)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tickets": tickets})
}

func (s *apiServer) handleTicket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ticketID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tickets/"), "/")
	if ticketID == "" {
		s.writeError(w, http.StatusNotFound, "ticket id required")
		return
	}
	ticket, err := s.service.Ticket(r.Context(), ticketID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ticket)
}

func parseLimit(r *http.Request, w http.ResponseWriter, s *apiServer) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		s.writeError(w, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	return limit, true
}

func (s *apiServer) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
