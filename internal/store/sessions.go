package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// CreateSession inserts a fresh session for agentID rooted at roomID,
// deactivating any prior active session for the same agent in the same
// transaction (an agent has at most one active session).
func (s *Store) CreateSession(token, agentID, roomID string, now int64) (*Session, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`UPDATE sessions SET active = 0 WHERE agent_id = ? AND active = 1`, agentID,
	); err != nil {
		return nil, fmt.Errorf("invalidate prior sessions: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO sessions (token, agent_id, room_id, created_at, last_action, active)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		token, agentID, roomID, now, now,
	); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &Session{Token: token, AgentID: agentID, RoomID: roomID, CreatedAt: now, LastAction: now, Active: true}, nil
}

// GetSession returns the session for token whether active or not; the caller
// decides what an inactive or stale session means.
func (s *Store) GetSession(token string) (*Session, error) {
	sess := &Session{}
	var active int
	err := s.db.QueryRow(
		`SELECT token, agent_id, room_id, created_at, last_action, active
		 FROM sessions WHERE token = ?`, token,
	).Scan(&sess.Token, &sess.AgentID, &sess.RoomID, &sess.CreatedAt, &sess.LastAction, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess.Active = active == 1
	return sess, nil
}

// TouchSession refreshes last_action.
func (s *Store) TouchSession(token string, now int64) error {
	_, err := s.db.Exec(`UPDATE sessions SET last_action = ? WHERE token = ?`, now, token)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// DeactivateSession marks a session inactive. Idempotent.
func (s *Store) DeactivateSession(token string) error {
	_, err := s.db.Exec(`UPDATE sessions SET active = 0 WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	return nil
}

// MoveSession relocates a session and refreshes last_action.
func (s *Store) MoveSession(token, roomID string, now int64) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET room_id = ?, last_action = ? WHERE token = ?`,
		roomID, now, token,
	)
	if err != nil {
		return fmt.Errorf("move session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ExpireIdleSessions deactivates active sessions idle since before cutoff and
// returns how many were expired.
func (s *Store) ExpireIdleSessions(cutoff int64) (int, error) {
	res, err := s.db.Exec(
		`UPDATE sessions SET active = 0 WHERE active = 1 AND last_action < ?`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("expire sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Occupants lists agents with an active, non-idle session in roomID, most
// recently active first.
func (s *Store) Occupants(roomID string, idleCutoff int64) ([]Agent, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.name, a.bio, a.emoji, a.influence, a.influence_earned,
		        a.influence_spent, a.rating_sum, a.rating_count, a.active, a.created_at
		 FROM agents a
		 JOIN sessions s ON s.agent_id = a.id
		 WHERE s.room_id = ? AND s.active = 1 AND s.last_action >= ?
		 ORDER BY s.last_action DESC`,
		roomID, idleCutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("occupants: %w", err)
	}
	defer rows.Close()

	var out []Agent
	for rows.Next() {
		var a Agent
		var active int
		if err := rows.Scan(&a.ID, &a.Name, &a.Bio, &a.Emoji, &a.Influence,
			&a.InfluenceEarned, &a.InfluenceSpent, &a.RatingSum, &a.RatingCount,
			&active, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan occupant: %w", err)
		}
		a.Active = active == 1
		out = append(out, a)
	}
	return out, rows.Err()
}
