package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"moltmud.ai/internal/sim/world"
)

func TestAuditLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewAuditLogger(dir)

	entries := []world.AuditEntry{
		{TS: 100, Event: world.EventConnect, AgentID: "a1", RoomID: "tavern"},
		{TS: 101, Event: world.EventPurchase, AgentID: "a2", RoomID: "tavern",
			Data: map[string]any{"amount": 1.5}},
	}
	for _, e := range entries {
		if err := l.WriteAudit(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "audit", "audit-*.jsonl.zst"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("glob: %v, matches %v", err, matches)
	}
	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	var got []world.AuditEntry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e world.AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("decode: %v", err)
		}
		got = append(got, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("decoded %d entries, want 2", len(got))
	}
	if got[0].Event != world.EventConnect || got[1].Event != world.EventPurchase {
		t.Fatalf("events = %s, %s", got[0].Event, got[1].Event)
	}
}
