// Package conversation owns the per-correspondent conversation records:
// the authorized responder set and the history log. All mutations flow
// through the Registry so each conversation has a single write path.
package conversation
