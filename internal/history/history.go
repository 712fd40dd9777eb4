// ABOUTME: Append-only conversation log with bounded recent reads
// ABOUTME: Entries are immutable after append; order is arrival order

package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stormex-rc/courier/internal/platform"
)

// Direction marks which way a relayed message flowed.
type Direction int

const (
	// Inbound is a message from the correspondent to the responders.
	Inbound Direction = iota
	// Outbound is a responder's reply relayed to the correspondent.
	Outbound
)

// String returns a short label for logging.
func (d Direction) String() string {
	if d == Outbound {
		return "outbound"
	}
	return "inbound"
}

// Entry is one relayed message. Immutable once appended.
type Entry struct {
	ID          string
	Sender      platform.UserID
	SenderName  string // responder display name, optional
	Content     string
	Attachments []string
	Direction   Direction
	At          time.Time
}

// Log is an append-only sequence of entries for one conversation.
// Timestamps are assigned at append time, so the sequence is monotonically
// non-decreasing and insertion order equals arrival order.
type Log struct {
	mu      sync.Mutex
	entries []Entry
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds an entry, assigning its id and timestamp. The stored entry is
// returned.
func (l *Log) Append(e Entry) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.ID = uuid.New().String()
	e.At = time.Now()
	l.entries = append(l.entries, e)
	return e
}

// Recent returns a copy of the last n entries in arrival order, fewer if the
// log is shorter.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n > len(l.entries) {
		n = len(l.entries)
	}
	if n <= 0 {
		return nil
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Len returns the number of entries appended so far.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
