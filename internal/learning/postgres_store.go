package learning

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps patterns in industry_patterns and feedback in ai_feedback.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("learning: pgx pool required")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) UpsertPattern(ctx context.Context, industry, patternType, key, value string, at time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO industry_patterns (industry, pattern_type, pattern_key, pattern_value, success_count, last_used, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, $5, $5, $5)
		ON CONFLICT (industry, pattern_type, pattern_key) DO UPDATE SET
			success_count = industry_patterns.success_count + 1,
			pattern_value = EXCLUDED.pattern_value,
			last_used = EXCLUDED.last_used,
			updated_at = EXCLUDED.updated_at`,
		industry, patternType, key, value, at,
	)
	if err != nil {
		return fmt.Errorf("learning: upsert pattern: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPatterns(ctx context.Context) ([]*Pattern, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, industry, pattern_type, pattern_key, pattern_value, success_count, last_used, created_at, updated_at
		FROM industry_patterns
		ORDER BY success_count DESC, updated_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("learning: list patterns: %w", err)
	}
	defer rows.Close()

	out := make([]*Pattern, 0)
	for rows.Next() {
		var p Pattern
		if err := rows.Scan(&p.ID, &p.Industry, &p.Type, &p.Key, &p.Value, &p.SuccessCount, &p.LastUsed, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("learning: scan pattern: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("learning: list patterns: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SaveFeedback(ctx context.Context, text string) (*Feedback, error) {
	f := &Feedback{Text: text}
	err := s.db.QueryRow(ctx, `INSERT INTO ai_feedback (feedback) VALUES ($1) RETURNING id, created_at`, text).
		Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("learning: save feedback: %w", err)
	}
	return f, nil
}
