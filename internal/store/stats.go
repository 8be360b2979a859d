package store

// Stats is a point-in-time runtime summary used by /metrics and the admin
// tooling.
type Stats struct {
	Agents         int
	ActiveSessions int
	Fragments      int
	Purchases      int
	Messages       int
	TotalInfluence float64
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	row := s.db.QueryRow(`SELECT
		(SELECT COUNT(*) FROM agents),
		(SELECT COUNT(*) FROM sessions WHERE active = 1),
		(SELECT COUNT(*) FROM knowledge_fragments),
		(SELECT COUNT(*) FROM fragment_purchases),
		(SELECT COUNT(*) FROM messages),
		(SELECT COALESCE(SUM(influence), 0) FROM agents)`)
	if err := row.Scan(&st.Agents, &st.ActiveSessions, &st.Fragments,
		&st.Purchases, &st.Messages, &st.TotalInfluence); err != nil {
		return Stats{}, err
	}
	return st, nil
}
