package model

import (
	"context"
	"sync"
	"time"
)

const (
	// MaxHistoryTurns bounds the stored transcript per user (10 exchanges).
	MaxHistoryTurns = 20
	// PromptHistoryTurns is how many stored turns are replayed to the model.
	PromptHistoryTurns = 10
)

// History maps user ids to their rolling transcript. It lives as long as the
// owning session and is never persisted.
type History struct {
	mu     sync.Mutex
	byUser map[string]*UserHistory
}

func NewHistory() *History {
	return &History{byUser: make(map[string]*UserHistory)}
}

// For returns the transcript of userID, creating it on first use. It marks
// the user active so a concurrent PruneIdle cannot drop the returned entry.
func (h *History) For(userID string) *UserHistory {
	h.mu.Lock()
	defer h.mu.Unlock()
	u, ok := h.byUser[userID]
	if !ok {
		u = &UserHistory{slot: make(chan struct{}, 1), turns: make([]Turn, 0, MaxHistoryTurns), lastUsed: time.Now()}
		h.byUser[userID] = u
		return u
	}
	u.mu.Lock()
	u.lastUsed = time.Now()
	u.mu.Unlock()
	return u
}

// Snapshot returns a copy of the stored turns of userID (nil when unknown).
func (h *History) Snapshot(userID string) []Turn {
	h.mu.Lock()
	u, ok := h.byUser[userID]
	h.mu.Unlock()
	if !ok {
		return nil
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]Turn, len(u.turns))
	copy(out, u.turns)
	return out
}

// Users returns the number of users with a transcript.
func (h *History) Users() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byUser)
}

// Clear drops every transcript.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byUser = make(map[string]*UserHistory)
}

// PruneIdle drops transcripts untouched since cutoff. Users with a request in
// flight are skipped.
func (h *History) PruneIdle(cutoff time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for id, u := range h.byUser {
		select {
		case u.slot <- struct{}{}:
		default:
			continue
		}
		u.mu.RLock()
		idle := u.lastUsed.Before(cutoff)
		u.mu.RUnlock()
		if idle {
			delete(h.byUser, id)
			n++
		}
		<-u.slot
	}
	return n
}

// UserHistory is the transcript of one user. Acquire serialises the request
// path of that user so exchanges never interleave.
type UserHistory struct {
	slot     chan struct{}
	mu       sync.RWMutex
	turns    []Turn
	lastUsed time.Time
}

// Acquire blocks until the caller owns the user's request path or ctx ends.
func (u *UserHistory) Acquire(ctx context.Context) error {
	select {
	case u.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (u *UserHistory) Release() { <-u.slot }

// Recent returns a copy of the last n turns in original order.
func (u *UserHistory) Recent(n int) []Turn {
	u.mu.RLock()
	defer u.mu.RUnlock()
	src := u.turns
	if n >= 0 && len(src) > n {
		src = src[len(src)-n:]
	}
	out := make([]Turn, len(src))
	copy(out, src)
	return out
}

func (u *UserHistory) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.turns)
}

// AppendExchange records a user turn and the assistant reply, then drops the
// oldest turns beyond MaxHistoryTurns.
func (u *UserHistory) AppendExchange(utterance, reply string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.turns = append(u.turns,
		Turn{Role: RoleUser, Content: utterance},
		Turn{Role: RoleAssistant, Content: reply},
	)
	u.lastUsed = time.Now()
	if over := len(u.turns) - MaxHistoryTurns; over > 0 {
		kept := make([]Turn, MaxHistoryTurns)
		copy(kept, u.turns[over:])
		u.turns = kept
	}
}
