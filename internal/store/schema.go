package store

import "context"

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS priorart_checks (
		id TEXT PRIMARY KEY,
		idea TEXT NOT NULL,
		summary TEXT,
		verdict TEXT NOT NULL,
		turns INT NOT NULL,
		embedding vector(1536),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS priorart_check_matches (
		id TEXT PRIMARY KEY,
		check_id TEXT NOT NULL REFERENCES priorart_checks(id) ON DELETE CASCADE,
		source TEXT NOT NULL,
		title TEXT NOT NULL,
		snippet TEXT,
		link TEXT,
		similarity DOUBLE PRECISION NOT NULL,
		position INT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_check_matches_check_id
		ON priorart_check_matches(check_id)`,
}

func (s *Store) migrate(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	for _, stmt := range migrations {
		if _, err := s.conn(ctx).Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
