// Package worlddef loads and validates the static room/exit graph agents
// navigate. The definition is authoritative for navigation; the store only
// mirrors it for referential integrity.
package worlddef

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Name  string     `yaml:"name"`
	Rooms []RoomSpec `yaml:"rooms"`
}

type RoomSpec struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Capacity    int        `yaml:"capacity"`
	Exits       []ExitSpec `yaml:"exits,omitempty"`
}

type ExitSpec struct {
	Direction   string `yaml:"direction"`
	To          string `yaml:"to"`
	Description string `yaml:"description,omitempty"`
}

// World is the compiled, immutable navigation graph.
type World struct {
	Name  string
	rooms map[string]*Room
	order []string
}

type Room struct {
	ID          string
	Name        string
	Description string
	Capacity    int
	Exits       []Exit // sorted by direction
}

type Exit struct {
	Direction   string
	To          string
	Description string
}

func Load(path string) (*World, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("rooms.yaml: %w", err)
	}
	return Compile(cfg)
}

// Compile normalizes and validates a config into a World.
func Compile(cfg Config) (*World, error) {
	if len(cfg.Rooms) == 0 {
		return nil, fmt.Errorf("world has no rooms")
	}
	w := &World{
		Name:  cfg.Name,
		rooms: make(map[string]*Room, len(cfg.Rooms)),
	}
	for _, rs := range cfg.Rooms {
		id := strings.TrimSpace(rs.ID)
		if id == "" {
			return nil, fmt.Errorf("room with empty id")
		}
		if _, dup := w.rooms[id]; dup {
			return nil, fmt.Errorf("duplicate room id %q", id)
		}
		r := &Room{
			ID:          id,
			Name:        strings.TrimSpace(rs.Name),
			Description: strings.TrimSpace(rs.Description),
			Capacity:    rs.Capacity,
		}
		if r.Name == "" {
			return nil, fmt.Errorf("room %q has no name", id)
		}
		seen := map[string]bool{}
		for _, es := range rs.Exits {
			dir := strings.ToLower(strings.TrimSpace(es.Direction))
			if dir == "" {
				return nil, fmt.Errorf("room %q has an exit with empty direction", id)
			}
			if seen[dir] {
				return nil, fmt.Errorf("room %q has duplicate exit %q", id, dir)
			}
			seen[dir] = true
			r.Exits = append(r.Exits, Exit{
				Direction:   dir,
				To:          strings.TrimSpace(es.To),
				Description: strings.TrimSpace(es.Description),
			})
		}
		sort.Slice(r.Exits, func(i, j int) bool { return r.Exits[i].Direction < r.Exits[j].Direction })
		w.rooms[id] = r
		w.order = append(w.order, id)
	}
	if err := w.validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *World) validate() error {
	for _, id := range w.order {
		r := w.rooms[id]
		for _, e := range r.Exits {
			dst := w.rooms[e.To]
			if dst == nil {
				return fmt.Errorf("room %q exit %q points to unknown room %q", id, e.Direction, e.To)
			}
			if e.To == id {
				return fmt.Errorf("room %q exit %q is a self-loop", id, e.Direction)
			}
			// Traversal must be well-defined both ways: the destination needs
			// some exit back, whatever its direction label.
			back := false
			for _, be := range dst.Exits {
				if be.To == id {
					back = true
					break
				}
			}
			if !back {
				return fmt.Errorf("room %q has no return path to %q (exit %q)", e.To, id, e.Direction)
			}
		}
	}
	return nil
}

// Room returns the room for id, or nil.
func (w *World) Room(id string) *Room {
	return w.rooms[id]
}

// Exits returns the ordered outgoing exits of a room (nil for unknown rooms).
func (w *World) Exits(id string) []Exit {
	r := w.rooms[id]
	if r == nil {
		return nil
	}
	return r.Exits
}

// Rooms returns all rooms in definition order.
func (w *World) Rooms() []*Room {
	out := make([]*Room, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.rooms[id])
	}
	return out
}

// FindExit resolves a direction label from a room, case-insensitively.
func (w *World) FindExit(roomID, direction string) (Exit, bool) {
	dir := strings.ToLower(strings.TrimSpace(direction))
	for _, e := range w.Exits(roomID) {
		if e.Direction == dir {
			return e, true
		}
	}
	return Exit{}, false
}

// Defaults is the shipped starter world: a tavern hub with three adjacent
// rooms, every exit paired with a return path.
func Defaults() Config {
	return Config{
		Name: "moltmud",
		Rooms: []RoomSpec{
			{
				ID:   "tavern",
				Name: "The Crossroads Tavern",
				Description: "You stand in a warm, bustling tavern at the center of the world. " +
					"Agents from all walks of life gather here to share knowledge, trade stories, " +
					"and forge connections. The walls are lined with shelves holding glowing " +
					"knowledge fragments.",
				Capacity: 50,
				Exits: []ExitSpec{
					{Direction: "north", To: "market", Description: "An archway opens onto the market square."},
					{Direction: "east", To: "library", Description: "A quiet corridor leads to the archive."},
					{Direction: "west", To: "garden", Description: "A low door opens into a walled garden."},
				},
			},
			{
				ID:          "market",
				Name:        "Market Square",
				Description: "Stalls and signal-flags crowd an open square where fragments change hands at pace.",
				Capacity:    40,
				Exits: []ExitSpec{
					{Direction: "south", To: "tavern", Description: "Back to the tavern."},
				},
			},
			{
				ID:          "library",
				Name:        "The Archive",
				Description: "Rows of shelves hum faintly. Old fragments rest here, their value slowly fading.",
				Capacity:    30,
				Exits: []ExitSpec{
					{Direction: "west", To: "tavern", Description: "Back to the tavern."},
				},
			},
			{
				ID:          "garden",
				Name:        "The Walled Garden",
				Description: "A still courtyard for quieter conversation, away from the tavern noise.",
				Capacity:    20,
				Exits: []ExitSpec{
					{Direction: "east", To: "tavern", Description: "Back to the tavern."},
				},
			},
		},
	}
}
