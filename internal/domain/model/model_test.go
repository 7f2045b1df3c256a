package model

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestUserHistory_AppendExchangeTrimsOldestPairs(t *testing.T) {
	h := NewHistory()
	u := h.For("u1")
	for i := 0; i < 13; i++ {
		u.AppendExchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
		if n := u.Len(); n > MaxHistoryTurns || n%2 != 0 {
			t.Fatalf("after %d exchanges len=%d", i+1, n)
		}
	}
	turns := h.Snapshot("u1")
	if len(turns) != MaxHistoryTurns {
		t.Fatalf("len = %d", len(turns))
	}
	if turns[0] != (Turn{Role: RoleUser, Content: "q3"}) || turns[19] != (Turn{Role: RoleAssistant, Content: "a12"}) {
		t.Fatalf("unexpected window %+v ... %+v", turns[0], turns[19])
	}
}

func TestUserHistory_RecentReturnsCopy(t *testing.T) {
	u := NewHistory().For("u1")
	u.AppendExchange("q", "a")
	r := u.Recent(PromptHistoryTurns)
	r[0].Content = "mutated"
	if u.Recent(1)[0].Content != "a" || u.Recent(2)[0].Content != "q" {
		t.Fatal("Recent must not expose internal storage")
	}
}

func TestHistory_ForIsLazyAndStable(t *testing.T) {
	h := NewHistory()
	if h.Snapshot("nobody") != nil || h.Users() != 0 {
		t.Fatal("unknown user must have no history")
	}
	if h.For("u1") != h.For("u1") || h.Users() != 1 {
		t.Fatal("For must return the same bucket")
	}
	h.Clear()
	if h.Users() != 0 {
		t.Fatal("Clear must drop all users")
	}
}

func TestUserHistory_AcquireSerializes(t *testing.T) {
	u := NewHistory().For("u1")
	if err := u.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := u.Acquire(ctx); err == nil {
		t.Fatal("second Acquire must wait for Release")
	}
	u.Release()
	if err := u.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire after Release: %v", err)
	}
	u.Release()
}

func TestHistory_PruneIdleSkipsBusyUsers(t *testing.T) {
	h := NewHistory()
	h.For("idle").AppendExchange("q", "a")
	busy := h.For("busy")
	if err := busy.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer busy.Release()

	if n := h.PruneIdle(time.Now().Add(-time.Hour)); n != 0 {
		t.Fatalf("nothing is an hour old yet, pruned %d", n)
	}
	if n := h.PruneIdle(time.Now().Add(time.Second)); n != 1 {
		t.Fatalf("pruned=%d, want 1", n)
	}
	if h.Users() != 1 || h.Snapshot("idle") != nil {
		t.Fatalf("idle user should be gone, busy kept; users=%d", h.Users())
	}
}

func TestHistory_ForKeepsEntryAlivePastPrune(t *testing.T) {
	h := NewHistory()
	u := h.For("u1")
	u.AppendExchange("q", "a")
	u.mu.Lock()
	u.lastUsed = time.Now().Add(-2 * time.Hour)
	u.mu.Unlock()

	// a new request looks the user up, then a sweep runs before it acquires
	got := h.For("u1")
	if n := h.PruneIdle(time.Now().Add(-time.Hour)); n != 0 {
		t.Fatalf("active user pruned, n=%d", n)
	}
	got.AppendExchange("q2", "a2")
	if snap := h.Snapshot("u1"); len(snap) != 4 {
		t.Fatalf("exchange lost: %+v", snap)
	}
}

func TestDomainOf(t *testing.T) {
	cases := map[string]string{"light.kitchen": "light", "binary_sensor.door": "binary_sensor", "weird": "weird", ".x": ".x"}
	for in, want := range cases {
		if got := DomainOf(in); got != want {
			t.Errorf("DomainOf(%q) = %q, want %q", in, got, want)
		}
	}
}
