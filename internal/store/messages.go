package store

import (
	"database/sql"
	"fmt"
)

// InsertMessage appends a room-log entry and prunes the room's log down to
// retain entries. AgentID may be empty for event/system rows.
func (s *Store) InsertMessage(m *Message, retain int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	agentID := sql.NullString{String: m.AgentID, Valid: m.AgentID != ""}
	if _, err := tx.Exec(
		`INSERT INTO messages (id, agent_id, room_id, content, kind, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, agentID, m.RoomID, m.Content, m.Kind, m.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if retain > 0 {
		if _, err := tx.Exec(
			`DELETE FROM messages WHERE room_id = ? AND id NOT IN (
			   SELECT id FROM messages WHERE room_id = ?
			   ORDER BY created_at DESC, id DESC LIMIT ?)`,
			m.RoomID, m.RoomID, retain,
		); err != nil {
			return fmt.Errorf("prune messages: %w", err)
		}
	}
	return tx.Commit()
}

// RecentMessages returns the newest limit entries for a room, newest first.
func (s *Store) RecentMessages(roomID string, limit int) ([]Message, error) {
	rows, err := s.db.Query(
		`SELECT m.id, COALESCE(m.agent_id, ''), COALESCE(a.name, ''), m.room_id,
		        m.content, m.kind, m.created_at
		 FROM messages m
		 LEFT JOIN agents a ON a.id = m.agent_id
		 WHERE m.room_id = ?
		 ORDER BY m.created_at DESC, m.id DESC LIMIT ?`,
		roomID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.AgentID, &m.AgentName, &m.RoomID, &m.Content,
			&m.Kind, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MessageCount reports how many log entries a room currently holds.
func (s *Store) MessageCount(roomID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE room_id = ?`, roomID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("message count: %w", err)
	}
	return n, nil
}
