// Package feedback defines the domain model shared across the engine:
// feedback items, classification categories, ticket priorities, tickets,
// processing-log entries, and run lifecycle state.
package feedback
