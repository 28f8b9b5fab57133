package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidBatch marks submission-time failures; nothing was processed.
	ErrInvalidBatch = errors.New("invalid batch")
	// ErrClassification marks classification port failures, including
	// below-threshold confidence. Retryable.
	ErrClassification = errors.New("classification error")
	// ErrAnalysis marks malformed specialization output. Retryable.
	ErrAnalysis = errors.New("analysis error")
	// ErrQuality marks a draft rejected by the review gate. Retryable.
	ErrQuality = errors.New("quality error")
	// ErrValidation marks invariant violations that retrying cannot fix.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or inconsistent configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTimeout marks an external call that exceeded its deadline. Retryable.
	ErrTimeout = errors.New("timeout")
	// ErrTransient marks failures with no better classification. Retryable.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the retry manager should re-run the pipeline
// after this failure. Validation and configuration faults are defects, not
// transient conditions, and re-running cannot change their outcome.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrInvalidBatch):
		return false
	default:
		return true
	}
}

// Kind returns a short stable label for the error marker, suitable for
// processing-log entries and fallback ticket details.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrClassification):
		return "classification"
	case errors.Is(err, ErrAnalysis):
		return "analysis"
	case errors.Is(err, ErrQuality):
		return "quality"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrInvalidBatch):
		return "invalid_batch"
	default:
		return "transient"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
