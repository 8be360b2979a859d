package world

import (
	"encoding/json"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"moltmud.ai/internal/protocol"
	"moltmud.ai/internal/sim/tuning"
	"moltmud.ai/internal/sim/worlddef"
	"moltmud.ai/internal/store"
)

// testClock is a settable clock so expiry and decay tests control time.
type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestWorld(t *testing.T) (*World, *testClock) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "mud.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	graph, err := worlddef.Compile(worlddef.Defaults())
	if err != nil {
		t.Fatalf("compile world: %v", err)
	}
	w, err := New(st, graph, tuning.Defaults(), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	clock := &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	w.now = clock.Now
	return w, clock
}

func mustConnect(t *testing.T, w *World, id, name string) protocol.ConnectResponse {
	t.Helper()
	resp, werr := w.Connect(protocol.ConnectRequest{AgentID: id, Name: name})
	if werr != nil {
		t.Fatalf("connect %s: %v", id, werr)
	}
	return resp
}

func mustAct(t *testing.T, w *World, token, action string, params any) protocol.ActResponse {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		raw = b
	}
	resp, werr := w.Act(token, action, raw)
	if werr != nil {
		t.Fatalf("act %s: %v", action, werr)
	}
	return resp
}

func actErr(t *testing.T, w *World, token, action string, params any) *Error {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		raw = b
	}
	_, werr := w.Act(token, action, raw)
	if werr == nil {
		t.Fatalf("act %s unexpectedly succeeded", action)
	}
	return werr
}
