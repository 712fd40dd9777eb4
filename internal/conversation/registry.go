// ABOUTME: Registry of conversations keyed by correspondent id
// ABOUTME: Owns authorized responder sets and history logs for the process lifetime

package conversation

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/stormex-rc/courier/internal/history"
	"github.com/stormex-rc/courier/internal/platform"
)

// Conversation holds the state for one correspondent: the set of authorized
// responders (the owner is implicit and never stored here) and the history
// log. Conversations are created lazily and never deleted.
type Conversation struct {
	Correspondent platform.UserID

	mu         sync.Mutex
	responders map[platform.UserID]struct{}
	log        *history.Log
}

// Registry maps correspondent ids to their conversations. It is the only
// owner of Conversation records; other components hold correspondent ids and
// come back through the registry to mutate state.
type Registry struct {
	mu     sync.Mutex
	convs  map[platform.UserID]*Conversation
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		convs:  make(map[platform.UserID]*Conversation),
		logger: logger.With("component", "conversation"),
	}
}

// GetOrCreate returns the conversation for a correspondent, creating it on
// first contact. Idempotent: repeated calls for the same id return the same
// record.
func (r *Registry) GetOrCreate(correspondent platform.UserID) *Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.convs[correspondent]
	if !ok {
		conv = &Conversation{
			Correspondent: correspondent,
			responders:    make(map[platform.UserID]struct{}),
			log:           history.NewLog(),
		}
		r.convs[correspondent] = conv
		r.logger.Debug("conversation created", "correspondent", correspondent)
	}
	return conv
}

// Authorize adds a responder to a correspondent's authorized set. Adding an
// already-authorized responder is a no-op.
func (r *Registry) Authorize(correspondent, responder platform.UserID) {
	conv := r.GetOrCreate(correspondent)

	conv.mu.Lock()
	defer conv.mu.Unlock()
	conv.responders[responder] = struct{}{}
}

// Revoke removes a responder from a correspondent's authorized set. Returns
// false if the responder was not authorized.
func (r *Registry) Revoke(correspondent, responder platform.UserID) bool {
	conv := r.lookup(correspondent)
	if conv == nil {
		return false
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()
	if _, ok := conv.responders[responder]; !ok {
		return false
	}
	delete(conv.responders, responder)
	return true
}

// ListAuthorized returns the authorized responders of a correspondent in a
// stable order.
func (r *Registry) ListAuthorized(correspondent platform.UserID) []platform.UserID {
	conv := r.lookup(correspondent)
	if conv == nil {
		return nil
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()
	out := make([]platform.UserID, 0, len(conv.responders))
	for id := range conv.responders {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsResponder reports whether a user is an authorized responder in any
// conversation.
func (r *Registry) IsResponder(user platform.UserID) bool {
	r.mu.Lock()
	convs := make([]*Conversation, 0, len(r.convs))
	for _, c := range r.convs {
		convs = append(convs, c)
	}
	r.mu.Unlock()

	for _, c := range convs {
		c.mu.Lock()
		_, ok := c.responders[user]
		c.mu.Unlock()
		if ok {
			return true
		}
	}
	return false
}

// AppendHistory appends an entry to a correspondent's log and returns the
// stored entry. This is the only write path into history.
func (r *Registry) AppendHistory(correspondent platform.UserID, entry history.Entry) history.Entry {
	conv := r.GetOrCreate(correspondent)
	return conv.log.Append(entry)
}

// RecentHistory returns the last n history entries in arrival order.
func (r *Registry) RecentHistory(correspondent platform.UserID, n int) []history.Entry {
	conv := r.lookup(correspondent)
	if conv == nil {
		return nil
	}
	return conv.log.Recent(n)
}

// HistoryLen returns the number of history entries for a correspondent.
func (r *Registry) HistoryLen(correspondent platform.UserID) int {
	conv := r.lookup(correspondent)
	if conv == nil {
		return 0
	}
	return conv.log.Len()
}

func (r *Registry) lookup(correspondent platform.UserID) *Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.convs[correspondent]
}
