// Package invite implements the responder-invitation workflow: a bounded
// prompt asking the owner for a candidate id, the invitation message sent
// to that candidate, and the accept/decline transitions driven by the
// candidate's reactions.
package invite
