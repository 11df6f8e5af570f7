package capture

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/calyptra/gatepatch/internal/errx"
)

// Migration is a single versioned schema step. Versions must be unique
// and are applied in ascending order.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errx.Wrap(ErrOpenStore, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, errx.Wrap(ErrOpenStore, err)
	}
	if err := migrate(db, migrations()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB, steps []Migration) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at TEXT NOT NULL DEFAULT (datetime('now'))
)`); err != nil {
		return errx.Wrap(ErrMigrate, err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return errx.Wrap(ErrMigrate, err)
	}

	for _, m := range steps {
		if m.Version <= current {
			continue
		}
		if _, err := db.Exec(m.SQL); err != nil {
			return errx.With(ErrMigrate, fmt.Sprintf(": %s: %v", m.Name, err))
		}
		if _, err := db.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name); err != nil {
			return errx.Wrap(ErrMigrate, err)
		}
	}
	return nil
}

func migrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_records",
			SQL: `
CREATE TABLE IF NOT EXISTS records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL,
  at TEXT NOT NULL,
  kind TEXT NOT NULL,
  direction TEXT,
  op INTEGER,
  event TEXT,
  method TEXT,
  route TEXT,
  status INTEGER,
  body_bytes INTEGER NOT NULL DEFAULT 0,
  summary TEXT
);
CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id);
CREATE INDEX IF NOT EXISTS idx_records_at ON records(at);
`,
		},
	}
}
