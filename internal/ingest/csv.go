package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"triage/internal/feedback"
	"triage/internal/logging"
	"triage/internal/metrics"
)

// Result reports what a loader read.
type Result struct {
	Items   []feedback.Item
	Skipped int
}

type header map[string]int

func (h header) get(record []string, name string) string {
	idx, ok := h[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func readHeader(reader *csv.Reader, required ...string) (header, error) {
	row, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := make(header, len(row))
	for i, name := range row {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := h[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return h, nil
}

// LoadReviews reads app store reviews. Required columns: review_id,
// review_text. Remaining columns land in item metadata.
func LoadReviews(path string, logger *slog.Logger) (Result, error) {
	return loadItems(path, logger, feedback.SourceReview, "review_id", "review_text",
		func(h header, record []string) (feedback.Item, bool) {
			id := h.get(record, "review_id")
			text := h.get(record, "review_text")
			if id == "" || text == "" {
				return feedback.Item{}, false
			}
			meta := map[string]string{}
			for _, key := range []string{"platform", "rating", "app_version", "user_name", "date"} {
				if value := h.get(record, key); value != "" {
					meta[key] = value
				}
			}
			return feedback.Item{ID: id, Source: feedback.SourceReview, Text: text, Metadata: meta}, true
		})
}

// LoadEmails reads support emails. Required columns: email_id, subject,
// body. Subject and body merge into the item text.
func LoadEmails(path string, logger *slog.Logger) (Result, error) {
	return loadItems(path, logger, feedback.SourceEmail, "email_id", "body",
		func(h header, record []string) (feedback.Item, bool) {
			id := h.get(record, "email_id")
			subject := h.get(record, "subject")
			body := h.get(record, "body")
			if id == "" || (subject == "" && body == "") {
				return feedback.Item{}, false
			}
			text := body
			if subject != "" {
				text = subject + "\n\n" + body
			}
			meta := map[string]string{}
			for _, key := range []string{"sender_email", "timestamp", "priority"} {
				if value := h.get(record, key); value != "" {
					meta[key] = value
				}
			}
			return feedback.Item{ID: id, Source: feedback.SourceEmail, Text: strings.TrimSpace(text), Metadata: meta}, true
		})
}

func loadItems(path string, logger *slog.Logger, source feedback.SourceType,
	idColumn, textColumn string,
	build func(header, []string) (feedback.Item, bool),
) (Result, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	file, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	h, err := readHeader(reader, idColumn, textColumn)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}

	var result Result
	line := 1
	for {
		line++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Skipped++
			logger.Warn("skipping malformed csv row",
				logging.String("path", path),
				logging.Int("line", line),
				logging.Error(err))
			continue
		}
		item, ok := build(h, record)
		if !ok || item.Validate() != nil {
			result.Skipped++
			logger.Warn("skipping incomplete csv row",
				logging.String("path", path),
				logging.Int("line", line),
				logging.String("source", string(source)))
			continue
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

// LoadExpected reads ground-truth labels for quality evaluation. Required
// columns: source_id, category. Extra columns such as source_type and
// priority are ignored.
func LoadExpected(path string, logger *slog.Logger) ([]metrics.Expected, int, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	h, err := readHeader(reader, "source_id", "category")
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}

	var (
		expected []metrics.Expected
		skipped  int
	)
	line := 1
	for {
		line++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			logger.Warn("skipping malformed csv row",
				logging.String("path", path),
				logging.Int("line", line),
				logging.Error(err))
			continue
		}
		sourceID := h.get(record, "source_id")
		category, ok := feedback.ParseCategory(h.get(record, "category"))
		if sourceID == "" || !ok {
			skipped++
			logger.Warn("skipping label row with unknown category",
				logging.String("path", path),
				logging.Int("line", line))
			continue
		}
		expected = append(expected, metrics.Expected{SourceID: sourceID, Category: category})
	}
	return expected, skipped, nil
}
