package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// EnsureAgent returns the agent with the given external id, creating it with
// the starting balance when absent. Name, bio and emoji refresh on every
// connect so agents can update their profile.
func (s *Store) EnsureAgent(id, name, bio, emoji string, startingInfluence float64, now int64) (*Agent, error) {
	res, err := s.db.Exec(
		`UPDATE agents SET name = ?, bio = ?, emoji = ?, active = 1 WHERE id = ?`,
		name, bio, emoji, id,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure agent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err = s.db.Exec(
			`INSERT INTO agents (id, name, bio, emoji, influence, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, name, bio, emoji, startingInfluence, now,
		)
		if err != nil {
			return nil, fmt.Errorf("create agent: %w", err)
		}
	}
	return s.GetAgent(id)
}

func (s *Store) GetAgent(id string) (*Agent, error) {
	a := &Agent{}
	var active int
	err := s.db.QueryRow(
		`SELECT id, name, bio, emoji, influence, influence_earned, influence_spent,
		        rating_sum, rating_count, active, created_at
		 FROM agents WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.Bio, &a.Emoji, &a.Influence, &a.InfluenceEarned,
		&a.InfluenceSpent, &a.RatingSum, &a.RatingCount, &active, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}
	a.Active = active == 1
	return a, nil
}

// ListAgents returns all agents ordered by influence, richest first.
func (s *Store) ListAgents() ([]Agent, error) {
	rows, err := s.db.Query(
		`SELECT id, name, bio, emoji, influence, influence_earned, influence_spent,
		        rating_sum, rating_count, active, created_at
		 FROM agents ORDER BY influence DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var out []Agent
	for rows.Next() {
		var a Agent
		var active int
		if err := rows.Scan(&a.ID, &a.Name, &a.Bio, &a.Emoji, &a.Influence,
			&a.InfluenceEarned, &a.InfluenceSpent, &a.RatingSum, &a.RatingCount,
			&active, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		a.Active = active == 1
		out = append(out, a)
	}
	return out, rows.Err()
}

// TotalInfluence sums every agent balance; with lifetime earned/spent it lets
// the admin ledger check verify conservation.
func (s *Store) TotalInfluence() (balance, earned, spent float64, err error) {
	err = s.db.QueryRow(
		`SELECT COALESCE(SUM(influence),0), COALESCE(SUM(influence_earned),0), COALESCE(SUM(influence_spent),0) FROM agents`,
	).Scan(&balance, &earned, &spent)
	if err != nil {
		err = fmt.Errorf("total influence: %w", err)
	}
	return balance, earned, spent, err
}

// DeactivateAgent soft-deletes an agent. Identity records are never removed.
func (s *Store) DeactivateAgent(id string) error {
	res, err := s.db.Exec(`UPDATE agents SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate agent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAgentNotFound
	}
	return nil
}
