package anthropic

import (
	"fmt"
	"sort"
	"strings"

	"triage/internal/feedback"
)

const classificationSystemPrompt = `You are a feedback triage classifier. Classify the feedback item into exactly one category:
- "Bug": something is broken or behaves incorrectly
- "Feature Request": a request for new or changed functionality
- "Praise": positive feedback with no action required
- "Complaint": dissatisfaction that is not a specific defect report
- "Spam": promotional, irrelevant, or nonsensical content

Respond with JSON only, no prose and no code fences:
{"category": "<category>", "confidence": <0.0-1.0>, "reasoning": "<one sentence>"}`

const bugAnalysisSystemPrompt = `You are a bug report analyst. Extract structured details from the feedback item.

Respond with JSON only, no prose and no code fences:
{"platform": "<platform or Unknown>", "steps_to_reproduce": "<steps or Unknown>", "severity": "<Critical|High|Medium|Low>", "affected_functionality": "<short description>"}`

const featureAnalysisSystemPrompt = `You are a product analyst. Summarize the feature being requested and its user impact.

Respond with JSON only, no prose and no code fences:
{"summary": "<one sentence summary>", "impact": "<High|Medium|Low>", "pain_point": "<what problem motivates the request>"}`

func buildClassifyPrompt(text string, source feedback.SourceType, context map[string]string) string {
	var b strings.Builder
	b.WriteString("Source: ")
	b.WriteString(string(source))
	b.WriteString("\n")
	if len(context) > 0 {
		keys := make([]string, 0, len(context))
		for k := range context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Context:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %s\n", k, context[k])
		}
	}
	b.WriteString("Feedback:\n")
	b.WriteString(text)
	return b.String()
}
