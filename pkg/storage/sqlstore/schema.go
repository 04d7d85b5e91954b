package sqlstore

import (
	"context"
	"fmt"
)

// Schema bootstrap statements per dialect. Each statement is idempotent so
// Bootstrap can run at every start.
var schemaStatements = map[Dialect][]string{
	Postgres: {
		`CREATE TABLE IF NOT EXISTS profiles (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL,
			full_name     TEXT NOT NULL,
			handle        TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'user',
			active        BOOLEAN NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT profiles_handle_key UNIQUE (handle),
			CONSTRAINT profiles_role_check CHECK (role IN ('user', 'admin', 'superadmin'))
		)`,
		`CREATE INDEX IF NOT EXISTS profiles_active_idx ON profiles (active)`,
	},
	SQLite: {
		`CREATE TABLE IF NOT EXISTS profiles (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL,
			full_name     TEXT NOT NULL,
			handle        TEXT NOT NULL UNIQUE,
			role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin', 'superadmin')),
			active        BOOLEAN NOT NULL DEFAULT 1,
			created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS profiles_active_idx ON profiles (active)`,
	},
}

// Bootstrap creates the profiles table and its indexes if they do not exist
func (s *Store) Bootstrap(ctx context.Context) error {
	statements, ok := schemaStatements[s.conns.Dialect()]
	if !ok {
		return fmt.Errorf("unsupported dialect: %s", s.conns.Dialect())
	}
	for i, stmt := range statements {
		if _, err := s.conns.Primary().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
