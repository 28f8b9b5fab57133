// Package anthropic implements the classification and specialization ports
// on top of the Anthropic Messages API. All prompts demand JSON-only output;
// responses are decoded defensively because models occasionally wrap payloads
// in code fences or prose.
package anthropic
