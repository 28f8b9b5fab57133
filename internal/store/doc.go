// Package store persists runs, tickets, processing log entries, and run
// metrics in SQLite. It is the single serialization point for shared run
// state: workers never mutate a Run directly, they record outcomes through
// one transaction here.
package store
