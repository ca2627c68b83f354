package audit

import (
	"context"
	"sync"
)

type holdKey struct{}

type heldEntry struct {
	recorder Recorder
	entry    Entry
}

// Held queues entries recorded through Emit until the caller knows the surrounding
// transaction committed.
type Held struct {
	mu      sync.Mutex
	entries []heldEntry
}

// Hold returns a context under which Emit queues entries in the returned Held.
func Hold(ctx context.Context) (context.Context, *Held) {
	h := &Held{}
	return context.WithValue(ctx, holdKey{}, h), h
}

// Emit records entry on r, or queues it when ctx carries a Held.
func Emit(ctx context.Context, r Recorder, entry Entry) {
	if h, ok := ctx.Value(holdKey{}).(*Held); ok {
		h.mu.Lock()
		h.entries = append(h.entries, heldEntry{recorder: r, entry: entry})
		h.mu.Unlock()
		return
	}
	r.Record(ctx, entry)
}

// Flush emits queued entries in order under ctx and empties the queue. When ctx
// itself carries a Held the entries move to it.
func (h *Held) Flush(ctx context.Context) {
	h.mu.Lock()
	entries := h.entries
	h.entries = nil
	h.mu.Unlock()

	for _, e := range entries {
		Emit(ctx, e.recorder, e.entry)
	}
}

// Discard drops queued entries.
func (h *Held) Discard() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
}
