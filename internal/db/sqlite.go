package db

import (
	"fmt"

	"clicker_empire/internal/logger"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS players (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tg_id INTEGER NOT NULL UNIQUE,
	username TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	balance INTEGER NOT NULL DEFAULT 0,
	total_earned INTEGER NOT NULL DEFAULT 0,
	level INTEGER NOT NULL DEFAULT 1,
	energy INTEGER NOT NULL DEFAULT 0,
	max_energy INTEGER NOT NULL DEFAULT 0,
	last_energy_at INTEGER NOT NULL DEFAULT 0,
	is_premium INTEGER NOT NULL DEFAULT 0,
	item_levels TEXT NOT NULL DEFAULT '{}',
	boost_ends_at INTEGER,
	last_active_at INTEGER NOT NULL DEFAULT 0,
	last_seen_at INTEGER NOT NULL DEFAULT 0,
	offline_pending INTEGER NOT NULL DEFAULT 0,
	combo_count INTEGER NOT NULL DEFAULT 0,
	last_tap_at INTEGER,
	taps_total INTEGER NOT NULL DEFAULT 0,
	refill_day TEXT NOT NULL DEFAULT '',
	refills_used INTEGER NOT NULL DEFAULT 0,
	version INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES players(id),
	type TEXT NOT NULL,
	amount INTEGER NOT NULL,
	meta TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, id);
`

// OpenSQLite opens (or creates) a SQLite database and applies the schema.
func OpenSQLite(path string) (*sqlx.DB, error) {
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer keeps SQLITE_BUSY away from concurrent saves
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	logger.Info("database connected", "driver", "sqlite", "path", path)
	return conn, nil
}
