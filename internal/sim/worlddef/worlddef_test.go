package worlddef

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsCompile(t *testing.T) {
	w, err := Compile(Defaults())
	if err != nil {
		t.Fatalf("compile defaults: %v", err)
	}
	if w.Room("tavern") == nil {
		t.Fatalf("default room missing")
	}
	if len(w.Exits("tavern")) != 3 {
		t.Fatalf("tavern exits: %+v", w.Exits("tavern"))
	}
}

func TestExitSymmetry(t *testing.T) {
	w, err := Compile(Defaults())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for _, r := range w.Rooms() {
		for _, e := range r.Exits {
			back := false
			for _, be := range w.Exits(e.To) {
				if be.To == r.ID {
					back = true
				}
			}
			if !back {
				t.Fatalf("no return path from %s to %s", e.To, r.ID)
			}
		}
	}
}

func TestCompileRejectsDanglingExit(t *testing.T) {
	cfg := Config{Rooms: []RoomSpec{
		{ID: "a", Name: "A", Exits: []ExitSpec{{Direction: "north", To: "nowhere"}}},
	}}
	if _, err := Compile(cfg); err == nil {
		t.Fatalf("expected dangling-exit error")
	}
}

func TestCompileRejectsOneWayExit(t *testing.T) {
	cfg := Config{Rooms: []RoomSpec{
		{ID: "a", Name: "A", Exits: []ExitSpec{{Direction: "north", To: "b"}}},
		{ID: "b", Name: "B"},
	}}
	if _, err := Compile(cfg); err == nil {
		t.Fatalf("expected return-path error")
	}
}

func TestCompileAcceptsAsymmetricLabels(t *testing.T) {
	// The return path does not need the literal opposite direction.
	cfg := Config{Rooms: []RoomSpec{
		{ID: "a", Name: "A", Exits: []ExitSpec{{Direction: "up", To: "b"}}},
		{ID: "b", Name: "B", Exits: []ExitSpec{{Direction: "out", To: "a"}}},
	}}
	if _, err := Compile(cfg); err != nil {
		t.Fatalf("compile: %v", err)
	}
}

func TestFindExitCaseInsensitive(t *testing.T) {
	w, _ := Compile(Defaults())
	if _, ok := w.FindExit("tavern", "NORTH"); !ok {
		t.Fatalf("case-insensitive lookup failed")
	}
	if _, ok := w.FindExit("tavern", "down"); ok {
		t.Fatalf("unexpected exit")
	}
}

func TestLoadFromFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "rooms.yaml")
	data := []byte(`name: test
rooms:
  - id: one
    name: One
    exits:
      - direction: east
        to: two
  - id: two
    name: Two
    exits:
      - direction: west
        to: one
`)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if e, ok := w.FindExit("one", "east"); !ok || e.To != "two" {
		t.Fatalf("exit lookup: %+v %v", e, ok)
	}
}
