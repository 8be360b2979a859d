package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// CreateFragment inserts a new fragment with zero counters. The caller
// validates content and topics; the store only persists.
func (s *Store) CreateFragment(f *Fragment) error {
	topics, err := json.Marshal(f.Topics)
	if err != nil {
		return fmt.Errorf("encode topics: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO knowledge_fragments
		   (id, agent_id, room_id, content, topics, base_value, current_value, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.AgentID, f.RoomID, f.Content, string(topics), f.BaseValue, f.BaseValue, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create fragment: %w", err)
	}
	f.CurrentValue = f.BaseValue
	return nil
}

const fragmentCols = `id, agent_id, room_id, content, topics, base_value, current_value,
	purchase_count, total_earned, rating_sum, rating_count, created_at,
	COALESCE(last_purchased_at, 0)`

func scanFragment(row interface{ Scan(...any) error }) (*Fragment, error) {
	f := &Fragment{}
	var topics string
	err := row.Scan(&f.ID, &f.AgentID, &f.RoomID, &f.Content, &topics, &f.BaseValue,
		&f.CurrentValue, &f.PurchaseCount, &f.TotalEarned, &f.RatingSum, &f.RatingCount,
		&f.CreatedAt, &f.LastPurchasedAt)
	if err != nil {
		return nil, err
	}
	if topics != "" {
		if err := json.Unmarshal([]byte(topics), &f.Topics); err != nil {
			return nil, fmt.Errorf("decode topics: %w", err)
		}
	}
	return f, nil
}

func (s *Store) GetFragment(id string) (*Fragment, error) {
	f, err := scanFragment(s.db.QueryRow(
		`SELECT `+fragmentCols+` FROM knowledge_fragments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFragmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get fragment: %w", err)
	}
	return f, nil
}

// FragmentsInRoom lists the room wall, most valuable first (by cached value;
// callers recompute the displayed valuation).
func (s *Store) FragmentsInRoom(roomID string, limit int) ([]Fragment, error) {
	rows, err := s.db.Query(
		`SELECT `+fragmentCols+` FROM knowledge_fragments
		 WHERE room_id = ? ORDER BY current_value DESC, created_at DESC LIMIT ?`,
		roomID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fragments in room: %w", err)
	}
	defer rows.Close()

	var out []Fragment
	for rows.Next() {
		f, err := scanFragment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// ListFragments returns every fragment, newest first.
func (s *Store) ListFragments() ([]Fragment, error) {
	rows, err := s.db.Query(
		`SELECT ` + fragmentCols + ` FROM knowledge_fragments ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list fragments: %w", err)
	}
	defer rows.Close()

	var out []Fragment
	for rows.Next() {
		f, err := scanFragment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// PurchaseFragment runs the whole purchase as one transaction: load the
// fragment, reject self-purchase, price it with value (computed from the row
// read inside the transaction), verify and debit the buyer, credit the
// seller, bump the fragment counters and record the immutable purchase row.
// Either every step commits or none does.
func (s *Store) PurchaseFragment(purchaseID, fragmentID, buyerID string, now int64, value func(Fragment) float64) (*PurchaseReceipt, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("purchase: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	f, err := scanFragment(tx.QueryRow(
		`SELECT `+fragmentCols+` FROM knowledge_fragments WHERE id = ?`, fragmentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFragmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("purchase: load fragment: %w", err)
	}
	if f.AgentID == buyerID {
		return nil, ErrSelfPurchase
	}

	amount := value(*f)

	var balance float64
	err = tx.QueryRow(`SELECT influence FROM agents WHERE id = ?`, buyerID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("purchase: load buyer: %w", err)
	}
	if balance < amount {
		return nil, ErrInsufficientInfluence
	}

	if _, err := tx.Exec(
		`UPDATE agents SET influence = influence - ?, influence_spent = influence_spent + ? WHERE id = ?`,
		amount, amount, buyerID,
	); err != nil {
		return nil, fmt.Errorf("purchase: debit buyer: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE agents SET influence = influence + ?, influence_earned = influence_earned + ? WHERE id = ?`,
		amount, amount, f.AgentID,
	); err != nil {
		return nil, fmt.Errorf("purchase: credit seller: %w", err)
	}
	// current_value is refreshed as a display cache; the committed amount is
	// the valuation computed above, not this column.
	if _, err := tx.Exec(
		`UPDATE knowledge_fragments SET
		   purchase_count = purchase_count + 1,
		   total_earned = total_earned + ?,
		   last_purchased_at = ?,
		   current_value = ?
		 WHERE id = ?`,
		amount, now, amount, fragmentID,
	); err != nil {
		return nil, fmt.Errorf("purchase: update fragment: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO fragment_purchases (id, fragment_id, buyer_id, seller_id, amount, purchased_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		purchaseID, fragmentID, buyerID, f.AgentID, amount, now,
	); err != nil {
		return nil, fmt.Errorf("purchase: record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("purchase: commit: %w", err)
	}
	return &PurchaseReceipt{
		PurchaseID:      purchaseID,
		FragmentID:      fragmentID,
		BuyerID:         buyerID,
		SellerID:        f.AgentID,
		Amount:          amount,
		NewBuyerBalance: balance - amount,
	}, nil
}

func (s *Store) GetPurchase(id string) (*Purchase, error) {
	p := &Purchase{}
	var rating, ratedAt sql.NullInt64
	err := s.db.QueryRow(
		`SELECT id, fragment_id, buyer_id, seller_id, amount, rating, purchased_at, rated_at
		 FROM fragment_purchases WHERE id = ?`, id,
	).Scan(&p.ID, &p.FragmentID, &p.BuyerID, &p.SellerID, &p.Amount, &rating, &p.PurchasedAt, &ratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	p.Rating = int(rating.Int64)
	p.RatedAt = ratedAt.Int64
	return p, nil
}

// ListPurchases returns all purchases, newest first.
func (s *Store) ListPurchases() ([]Purchase, error) {
	rows, err := s.db.Query(
		`SELECT id, fragment_id, buyer_id, seller_id, amount, rating, purchased_at, rated_at
		 FROM fragment_purchases ORDER BY purchased_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var out []Purchase
	for rows.Next() {
		var p Purchase
		var rating, ratedAt sql.NullInt64
		if err := rows.Scan(&p.ID, &p.FragmentID, &p.BuyerID, &p.SellerID, &p.Amount,
			&rating, &p.PurchasedAt, &ratedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		p.Rating = int(rating.Int64)
		p.RatedAt = ratedAt.Int64
		out = append(out, p)
	}
	return out, rows.Err()
}

// RatePurchase attaches a one-time rating to a purchase. Only the buyer may
// rate, only once; the fragment and its author aggregate in the same
// transaction so the valuation inputs never drift from the recorded ratings.
func (s *Store) RatePurchase(purchaseID, raterID string, rating int, now int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("rate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var buyerID, fragmentID string
	var existing sql.NullInt64
	err = tx.QueryRow(
		`SELECT buyer_id, fragment_id, rating FROM fragment_purchases WHERE id = ?`, purchaseID,
	).Scan(&buyerID, &fragmentID, &existing)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPurchaseNotFound
	}
	if err != nil {
		return fmt.Errorf("rate: load purchase: %w", err)
	}
	if buyerID != raterID {
		return ErrNotBuyer
	}
	if existing.Valid {
		return ErrDuplicateRating
	}

	if _, err := tx.Exec(
		`UPDATE fragment_purchases SET rating = ?, rated_at = ? WHERE id = ?`,
		rating, now, purchaseID,
	); err != nil {
		return fmt.Errorf("rate: update purchase: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE knowledge_fragments SET rating_sum = rating_sum + ?, rating_count = rating_count + 1
		 WHERE id = ?`,
		rating, fragmentID,
	); err != nil {
		return fmt.Errorf("rate: update fragment: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE agents SET rating_sum = rating_sum + ?, rating_count = rating_count + 1
		 WHERE id = (SELECT agent_id FROM knowledge_fragments WHERE id = ?)`,
		rating, fragmentID,
	); err != nil {
		return fmt.Errorf("rate: update author: %w", err)
	}
	return tx.Commit()
}
