package pipeline

import (
	"strings"

	"triage/internal/config"
	"triage/internal/feedback"
)

// tier binds one escalation priority to its trigger keywords.
type tier struct {
	priority feedback.Priority
	keywords []string
}

// CategoryRules holds the default priority and keyword tiers for one category.
type CategoryRules struct {
	Default feedback.Priority
	tiers   []tier
}

// PriorityRules assigns priorities from per-category keyword tables. Matching
// is case-insensitive substring; when several tiers match, the highest
// priority wins (Critical over High over Medium over Low).
type PriorityRules struct {
	byCategory map[feedback.Category]CategoryRules
}

// NewPriorityRules compiles the configured keyword tables into a matcher.
func NewPriorityRules(cfg config.Priority) *PriorityRules {
	rules := &PriorityRules{byCategory: make(map[feedback.Category]CategoryRules, 5)}
	rules.byCategory[feedback.CategoryBug] = compileTiers(cfg.Bug)
	rules.byCategory[feedback.CategoryFeatureRequest] = compileTiers(cfg.FeatureRequest)
	rules.byCategory[feedback.CategoryPraise] = compileTiers(cfg.Praise)
	rules.byCategory[feedback.CategoryComplaint] = compileTiers(cfg.Complaint)
	rules.byCategory[feedback.CategorySpam] = compileTiers(cfg.Spam)
	return rules
}

func compileTiers(t config.KeywordTiers) CategoryRules {
	def, ok := feedback.ParsePriority(t.Default)
	if !ok {
		def = feedback.PriorityMedium
	}
	return CategoryRules{
		Default: def,
		tiers: []tier{
			{priority: feedback.PriorityCritical, keywords: lowered(t.CriticalKeywords)},
			{priority: feedback.PriorityHigh, keywords: lowered(t.HighKeywords)},
			{priority: feedback.PriorityMedium, keywords: lowered(t.MediumKeywords)},
			{priority: feedback.PriorityLow, keywords: lowered(t.LowKeywords)},
		},
	}
}

func lowered(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Assign returns the priority for a classified item. The category default
// applies unless a matched keyword tier outranks it.
func (r *PriorityRules) Assign(category feedback.Category, text string) feedback.Priority {
	rules, ok := r.byCategory[category]
	if !ok {
		return feedback.PriorityMedium
	}
	best := rules.Default
	haystack := strings.ToLower(text)
	for _, t := range rules.tiers {
		if t.priority.Rank() <= best.Rank() {
			continue
		}
		for _, kw := range t.keywords {
			if strings.Contains(haystack, kw) {
				best = t.priority
				break
			}
		}
	}
	return best
}
