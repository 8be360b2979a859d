package store

import (
	"database/sql"
	"errors"
	"fmt"

	"moltmud.ai/internal/sim/worlddef"
)

// SyncRooms mirrors the compiled world definition into the rooms/exits tables
// so session and fragment rows keep referential integrity. The yaml definition
// stays authoritative for navigation; this runs once at startup.
func (s *Store) SyncRooms(w *worlddef.World) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sync rooms: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range w.Rooms() {
		if _, err := tx.Exec(
			`INSERT INTO rooms (id, name, description, capacity) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			   description = excluded.description, capacity = excluded.capacity`,
			r.ID, r.Name, r.Description, r.Capacity,
		); err != nil {
			return fmt.Errorf("upsert room %s: %w", r.ID, err)
		}
	}
	// Exits are replaced wholesale; the definition file is the only writer.
	if _, err := tx.Exec(`DELETE FROM exits`); err != nil {
		return fmt.Errorf("clear exits: %w", err)
	}
	for _, r := range w.Rooms() {
		for _, e := range r.Exits {
			if _, err := tx.Exec(
				`INSERT INTO exits (from_room, direction, to_room) VALUES (?, ?, ?)`,
				r.ID, e.Direction, e.To,
			); err != nil {
				return fmt.Errorf("insert exit %s/%s: %w", r.ID, e.Direction, err)
			}
		}
	}
	return tx.Commit()
}

// HasRoom reports whether a room row exists.
func (s *Store) HasRoom(id string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM rooms WHERE id = ?`, id).Scan(&one)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("has room: %w", err)
}
