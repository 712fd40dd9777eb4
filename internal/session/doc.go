// Package session implements the owner-facing management menus layered on
// reactions: a main menu per correspondent with add/remove/view-history
// drill-downs. Sessions are single-use; each reaction triggers exactly one
// transition.
package session
