package feedback

import (
	"fmt"
	"strings"
	"time"
)

// SourceType identifies where a feedback item came from.
type SourceType string

const (
	SourceReview SourceType = "review"
	SourceEmail  SourceType = "email"
)

// ParseSourceType converts a string into a known SourceType.
func ParseSourceType(value string) (SourceType, bool) {
	switch SourceType(strings.ToLower(strings.TrimSpace(value))) {
	case SourceReview:
		return SourceReview, true
	case SourceEmail:
		return SourceEmail, true
	default:
		return "", false
	}
}

// Item is one unit of raw input to be turned into a ticket. Items are
// immutable once submitted; the run that processes an item owns it
// exclusively.
type Item struct {
	ID       string
	Source   SourceType
	Text     string
	Metadata map[string]string
}

// Validate checks the submission invariants for a single item.
func (i Item) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("item id is required")
	}
	if i.Source != SourceReview && i.Source != SourceEmail {
		return fmt.Errorf("item %s: unknown source type %q", i.ID, i.Source)
	}
	if strings.TrimSpace(i.Text) == "" {
		return fmt.Errorf("item %s: text is required", i.ID)
	}
	return nil
}

// Category is the classification outcome for a feedback item.
type Category string

const (
	CategoryBug            Category = "Bug"
	CategoryFeatureRequest Category = "Feature Request"
	CategoryPraise         Category = "Praise"
	CategoryComplaint      Category = "Complaint"
	CategorySpam           Category = "Spam"
	// CategoryFailed marks fallback tickets produced after retries exhaust.
	CategoryFailed Category = "Failed"
)

var allCategories = []Category{
	CategoryBug,
	CategoryFeatureRequest,
	CategoryPraise,
	CategoryComplaint,
	CategorySpam,
	CategoryFailed,
}

// AllCategories returns the ordered list of known categories.
func AllCategories() []Category {
	cp := make([]Category, len(allCategories))
	copy(cp, allCategories)
	return cp
}

// ParseCategory converts a string into a known Category. Matching tolerates
// case and surrounding whitespace.
func ParseCategory(value string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, cat := range allCategories {
		if strings.ToLower(string(cat)) == normalized {
			return cat, true
		}
	}
	// Common classifier spellings.
	switch normalized {
	case "feature", "featurerequest", "feature_request":
		return CategoryFeatureRequest, true
	}
	return "", false
}

// Priority ranks how urgently a ticket needs attention.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Rank returns the numeric order of a priority for tie-breaking; higher wins.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ParsePriority converts a string into a known Priority.
func ParsePriority(value string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "critical":
		return PriorityCritical, true
	case "high":
		return PriorityHigh, true
	case "medium":
		return PriorityMedium, true
	case "low":
		return PriorityLow, true
	default:
		return "", false
	}
}

// TicketStatus distinguishes genuinely classified tickets from fallbacks.
type TicketStatus string

const (
	TicketSuccess  TicketStatus = "success"
	TicketFallback TicketStatus = "fallback"
)

// Ticket is the structured output produced for exactly one feedback item.
type Ticket struct {
	TicketID         string
	RunID            string
	SourceID         string
	Source           SourceType
	Title            string
	Category         Category
	Priority         Priority
	Description      string
	TechnicalDetails string
	Confidence       float64
	CreatedAt        time.Time
	Status           TicketStatus
}

// LogEntry is one append-only audit record for a processing action.
type LogEntry struct {
	LogID      string
	RunID      string
	SourceID   string
	Stage      string
	Action     string
	Result     string
	Confidence *float64
	Attempt    int
	Timestamp  time.Time
}
