// Package store is the authoritative SQLite store for agents, sessions,
// fragments, purchases and messages. All writes go through a single
// connection, so transactions serialize; the purchase transaction relies on
// this for its atomicity contract.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Sentinel errors mapped to protocol codes by the engine.
var (
	ErrAgentNotFound         = errors.New("agent not found")
	ErrSessionNotFound       = errors.New("session not found")
	ErrRoomNotFound          = errors.New("room not found")
	ErrFragmentNotFound      = errors.New("fragment not found")
	ErrPurchaseNotFound      = errors.New("purchase not found")
	ErrSelfPurchase          = errors.New("cannot purchase own fragment")
	ErrInsufficientInfluence = errors.New("insufficient influence")
	ErrNotBuyer              = errors.New("rater is not the buyer of this purchase")
	ErrDuplicateRating       = errors.New("purchase already rated")
)

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and initializes the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Single connection: SQLite serializes writers anyway, and one shared
	// connection keeps every transaction on the same journal.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma: %w", err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			capacity INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS exits (
			from_room TEXT NOT NULL REFERENCES rooms(id),
			direction TEXT NOT NULL,
			to_room TEXT NOT NULL REFERENCES rooms(id),
			PRIMARY KEY (from_room, direction)
		);`,
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			bio TEXT NOT NULL DEFAULT '',
			emoji TEXT NOT NULL DEFAULT '',
			influence REAL NOT NULL,
			influence_earned REAL NOT NULL DEFAULT 0,
			influence_spent REAL NOT NULL DEFAULT 0,
			rating_sum INTEGER NOT NULL DEFAULT 0,
			rating_count INTEGER NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL,
			CHECK (influence >= 0)
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL REFERENCES agents(id),
			room_id TEXT NOT NULL REFERENCES rooms(id),
			created_at INTEGER NOT NULL,
			last_action INTEGER NOT NULL,
			active INTEGER NOT NULL DEFAULT 1
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_agent ON sessions(agent_id, active);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_room ON sessions(room_id, active, last_action);`,
		`CREATE TABLE IF NOT EXISTS knowledge_fragments (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL REFERENCES agents(id),
			room_id TEXT NOT NULL REFERENCES rooms(id),
			content TEXT NOT NULL,
			topics TEXT NOT NULL,
			base_value REAL NOT NULL,
			current_value REAL NOT NULL,
			purchase_count INTEGER NOT NULL DEFAULT 0,
			total_earned REAL NOT NULL DEFAULT 0,
			rating_sum INTEGER NOT NULL DEFAULT 0,
			rating_count INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			last_purchased_at INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_fragments_room_value ON knowledge_fragments(room_id, current_value DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_fragments_agent ON knowledge_fragments(agent_id);`,
		`CREATE TABLE IF NOT EXISTS fragment_purchases (
			id TEXT PRIMARY KEY,
			fragment_id TEXT NOT NULL REFERENCES knowledge_fragments(id),
			buyer_id TEXT NOT NULL REFERENCES agents(id),
			seller_id TEXT NOT NULL REFERENCES agents(id),
			amount REAL NOT NULL,
			rating INTEGER CHECK (rating BETWEEN 1 AND 5),
			purchased_at INTEGER NOT NULL,
			rated_at INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_buyer ON fragment_purchases(buyer_id, purchased_at);`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_fragment ON fragment_purchases(fragment_id);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			agent_id TEXT REFERENCES agents(id),
			room_id TEXT NOT NULL REFERENCES rooms(id),
			content TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT 'chat',
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id, created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	return nil
}
