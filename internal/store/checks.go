package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/noveltylab/priorart/internal/agent"
	"github.com/noveltylab/priorart/shared/id"
)

// CheckRecord is one audited check session.
type CheckRecord struct {
	ID        string
	Idea      string
	Summary   string
	Verdict   string
	Turns     int
	CreatedAt time.Time
}

// MatchRecord is one stored match of a check.
type MatchRecord struct {
	ID         string
	CheckID    string
	Source     string
	Title      string
	Snippet    string
	Link       string
	Similarity float64
	Position   int
}

// SaveCheck persists a finished session and its matches. It returns the new
// check id.
func (s *Store) SaveCheck(ctx context.Context, st *agent.State) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	checkID := id.NewCheck()
	query := `
		INSERT INTO priorart_checks (
			id, idea, summary, verdict, turns, embedding, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW()
		)`

	_, err := s.conn(ctx).Exec(ctx, query,
		checkID,
		st.OriginalIdea,
		st.Summary(),
		st.Verdict,
		st.Turns,
		ideaVector(st),
	)
	if err != nil {
		return "", err
	}

	for i, m := range st.Matches {
		query := `
			INSERT INTO priorart_check_matches (
				id, check_id, source, title, snippet, link, similarity, position
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8
			)`
		_, err := s.conn(ctx).Exec(ctx, query,
			id.NewMatch(),
			checkID,
			m.Source,
			m.Details.Title,
			m.Details.Snippet,
			m.Details.Link,
			m.Similarity,
			i,
		)
		if err != nil {
			return "", err
		}
	}
	return checkID, nil
}

// GetCheck loads one audited check without its matches.
func (s *Store) GetCheck(ctx context.Context, checkID string) (*CheckRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, idea, summary, verdict, turns, created_at
		FROM priorart_checks
		WHERE id = $1`

	var rec CheckRecord
	err := s.conn(ctx).QueryRow(ctx, query, checkID).Scan(
		&rec.ID, &rec.Idea, &rec.Summary, &rec.Verdict, &rec.Turns, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}
	return &rec, nil
}

// GetMatches loads the stored matches of a check in stored order.
func (s *Store) GetMatches(ctx context.Context, checkID string) ([]*MatchRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, check_id, source, title, snippet, link, similarity, position
		FROM priorart_check_matches
		WHERE check_id = $1
		ORDER BY position ASC`

	rows, err := s.conn(ctx).Query(ctx, query, checkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*MatchRecord
	for rows.Next() {
		var m MatchRecord
		err := rows.Scan(
			&m.ID, &m.CheckID, &m.Source, &m.Title,
			&m.Snippet, &m.Link, &m.Similarity, &m.Position,
		)
		if err != nil {
			return nil, err
		}
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

// ListRecent returns the newest audited checks, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*CheckRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, idea, summary, verdict, turns, created_at
		FROM priorart_checks
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.conn(ctx).Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*CheckRecord
	for rows.Next() {
		var rec CheckRecord
		err := rows.Scan(&rec.ID, &rec.Idea, &rec.Summary, &rec.Verdict, &rec.Turns, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// ideaVector converts the session embedding for storage; a missing embedding
// stores NULL.
func ideaVector(st *agent.State) any {
	if !st.EmbeddingSet || len(st.Embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(st.Embedding)
}
