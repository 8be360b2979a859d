package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"moltmud.ai/internal/sim/worlddef"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "mud.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	w, err := worlddef.Compile(worlddef.Defaults())
	if err != nil {
		t.Fatalf("compile world: %v", err)
	}
	if err := s.SyncRooms(w); err != nil {
		t.Fatalf("sync rooms: %v", err)
	}
	return s
}

func TestEnsureAgentCreatesOnce(t *testing.T) {
	s := newTestStore(t)

	a, err := s.EnsureAgent("ada", "Ada", "first", "🦉", 10, 1000)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if a.Influence != 10 || !a.Active {
		t.Fatalf("new agent: %+v", a)
	}

	// Reconnect refreshes the profile but never the balance.
	a.Influence = 0
	b, err := s.EnsureAgent("ada", "Ada L.", "second", "🦉", 10, 2000)
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if b.Name != "Ada L." || b.Bio != "second" {
		t.Fatalf("profile not refreshed: %+v", b)
	}
	if b.Influence != 10 || b.CreatedAt != 1000 {
		t.Fatalf("identity mutated on reconnect: %+v", b)
	}

	if _, err := s.GetAgent("nobody"); !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.EnsureAgent("ada", "Ada", "", "", 10, 1000); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	s1, err := s.CreateSession("tok1", "ada", "tavern", 1000)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if !s1.Active || s1.RoomID != "tavern" {
		t.Fatalf("session: %+v", s1)
	}

	// A second connect invalidates the first session.
	if _, err := s.CreateSession("tok2", "ada", "tavern", 1100); err != nil {
		t.Fatalf("create second session: %v", err)
	}
	got, err := s.GetSession("tok1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Active {
		t.Fatalf("prior session still active")
	}

	if err := s.TouchSession("tok2", 1200); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, _ = s.GetSession("tok2")
	if got.LastAction != 1200 {
		t.Fatalf("touch not applied: %+v", got)
	}

	if err := s.MoveSession("tok2", "market", 1300); err != nil {
		t.Fatalf("move: %v", err)
	}
	got, _ = s.GetSession("tok2")
	if got.RoomID != "market" {
		t.Fatalf("move not applied: %+v", got)
	}

	// Deactivation is idempotent.
	if err := s.DeactivateSession("tok2"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := s.DeactivateSession("tok2"); err != nil {
		t.Fatalf("deactivate twice: %v", err)
	}
	if _, err := s.GetSession("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestExpireIdleSessionsAndOccupants(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.EnsureAgent(id, id, "", "", 10, 100); err != nil {
			t.Fatalf("ensure %s: %v", id, err)
		}
	}
	mustSession := func(tok, agent string, last int64) {
		t.Helper()
		if _, err := s.CreateSession(tok, agent, "tavern", last); err != nil {
			t.Fatalf("session %s: %v", tok, err)
		}
	}
	mustSession("ta", "a", 1000)
	mustSession("tb", "b", 5000)
	mustSession("tc", "c", 5000)
	if err := s.MoveSession("tc", "market", 5000); err != nil {
		t.Fatalf("move: %v", err)
	}

	// Occupants exclude idle sessions without mutating them.
	occ, err := s.Occupants("tavern", 2000)
	if err != nil {
		t.Fatalf("occupants: %v", err)
	}
	if len(occ) != 1 || occ[0].ID != "b" {
		t.Fatalf("occupants: %+v", occ)
	}

	n, err := s.ExpireIdleSessions(2000)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired %d sessions, want 1", n)
	}
	got, _ := s.GetSession("ta")
	if got.Active {
		t.Fatalf("idle session still active")
	}
}

func TestMessagesRetention(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.EnsureAgent("a", "A", "", "", 10, 100); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	for i := 0; i < 6; i++ {
		m := &Message{
			ID:        fmt.Sprintf("m%d", i),
			AgentID:   "a",
			RoomID:    "tavern",
			Content:   "hello",
			Kind:      "chat",
			CreatedAt: int64(1000 + i),
		}
		if err := s.InsertMessage(m, 4); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	n, err := s.MessageCount("tavern")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 4 {
		t.Fatalf("retention kept %d rows, want 4", n)
	}

	msgs, err := s.RecentMessages("tavern", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 2 || msgs[0].CreatedAt < msgs[1].CreatedAt {
		t.Fatalf("recent not newest-first: %+v", msgs)
	}
	if msgs[0].AgentName != "A" {
		t.Fatalf("author name not joined: %+v", msgs[0])
	}

	// Event rows carry no author.
	ev := &Message{ID: "ev1", RoomID: "tavern", Content: "A arrives.", Kind: "event", CreatedAt: 2000}
	if err := s.InsertMessage(ev, 0); err != nil {
		t.Fatalf("insert event: %v", err)
	}
	msgs, _ = s.RecentMessages("tavern", 1)
	if msgs[0].AgentID != "" || msgs[0].AgentName != "" {
		t.Fatalf("event row has author: %+v", msgs[0])
	}
}
