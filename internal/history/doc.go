// Package history provides the append-only per-conversation message log.
// Entries are immutable once appended; the log preserves arrival order.
package history
