// ABOUTME: Table of outstanding forwarded-message artifacts keyed by message id
// ABOUTME: Atomic claim/take transitions so concurrent resolutions cannot both win

package pending

import (
	"sync"

	"github.com/stormex-rc/courier/internal/platform"
)

// Kind distinguishes which copy of a forwarded message an artifact tracks.
type Kind int

const (
	// OwnerForward is the copy delivered to the owner. It carries the
	// manage/reject affordances and an optional companion confirmation.
	OwnerForward Kind = iota
	// ResponderForward is a copy delivered to an authorized responder.
	ResponderForward
)

// String returns a short label for logging.
func (k Kind) String() string {
	if k == ResponderForward {
		return "responder-forward"
	}
	return "owner-forward"
}

// Artifact is one delivered, not-yet-resolved forwarded message. It holds
// only ids into the conversation registry, never conversation state.
type Artifact struct {
	Ref           platform.MessageRef
	Kind          Kind
	Correspondent platform.UserID
	Responder     platform.UserID // set for responder-forward copies

	// Confirmation is the companion "your message was forwarded" notice
	// sent to the correspondent; deleted when the forward is rejected.
	Confirmation *platform.MessageRef

	claims int
}

// Table is the registry of outstanding artifacts. All transitions are
// atomic check-and-insert or check-and-remove under one lock: whichever
// resolution observes an artifact first wins, the other no-ops.
type Table struct {
	mu   sync.Mutex
	byID map[platform.MessageID]*Artifact
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{byID: make(map[platform.MessageID]*Artifact)}
}

// Put registers an artifact under its delivered-copy message id.
func (t *Table) Put(a *Artifact) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID[a.Ref.ID] = a
}

// Lookup returns the artifact for a message id without claiming it. Used for
// routing decisions that have no side effects.
func (t *Table) Lookup(id platform.MessageID) (*Artifact, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.byID[id]
	return a, ok
}

// Acquire takes a shared claim on an artifact for the duration of a reply
// resolution. Multiple replies may hold claims at once; a claimed artifact
// cannot be removed until every claim is released. Returns false if the
// artifact is not (or no longer) in the table.
func (t *Table) Acquire(id platform.MessageID) (*Artifact, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	a.claims++
	return a, true
}

// Release drops a claim taken by Acquire. Safe to call after the artifact
// has been removed.
func (t *Table) Release(id platform.MessageID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if a, ok := t.byID[id]; ok && a.claims > 0 {
		a.claims--
	}
}

// Take atomically removes an artifact. It fails if the artifact is absent or
// currently claimed by a reply resolution, in which case the caller must
// no-op: the other handler observed the artifact first.
func (t *Table) Take(id platform.MessageID) (*Artifact, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.byID[id]
	if !ok || a.claims > 0 {
		return nil, false
	}
	delete(t.byID, id)
	return a, true
}

// Len returns the number of outstanding artifacts.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}
