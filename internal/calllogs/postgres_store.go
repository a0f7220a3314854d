package calllogs

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

const selectColumns = `SELECT id, lead_id, call_status, transcript, duration, call_sid, created_at FROM call_logs`

// PostgresStore stores call logs in the call_logs table.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("calllogs: pgx pool required")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, log *CallLog) (*CallLog, error) {
	out := *log
	err := s.db.QueryRow(ctx, `
		INSERT INTO call_logs (lead_id, call_status, transcript, duration, call_sid)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		log.LeadID, log.CallStatus, log.Transcript, log.Duration, log.CallSID,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("calllogs: insert: %w", err)
	}
	return &out, nil
}

func (s *PostgresStore) ListByLead(ctx context.Context, leadID int64) ([]*CallLog, error) {
	return s.list(ctx, selectColumns+` WHERE lead_id = $1 ORDER BY created_at DESC, id DESC`, leadID)
}

func (s *PostgresStore) Thread(ctx context.Context, leadID int64) ([]*CallLog, error) {
	return s.list(ctx, selectColumns+` WHERE lead_id = $1 ORDER BY created_at ASC, id ASC`, leadID)
}

func (s *PostgresStore) ListSince(ctx context.Context, since time.Time) ([]*CallLog, error) {
	if since.IsZero() {
		return s.list(ctx, selectColumns+` ORDER BY created_at ASC, id ASC`)
	}
	return s.list(ctx, selectColumns+` WHERE created_at >= $1 ORDER BY created_at ASC, id ASC`, since)
}

func (s *PostgresStore) DeleteByLead(ctx context.Context, leadIDs []int64) error {
	if len(leadIDs) == 0 {
		return nil
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM call_logs WHERE lead_id = ANY($1)`, leadIDs); err != nil {
		return fmt.Errorf("calllogs: delete by lead: %w", err)
	}
	return nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*CallLog, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("calllogs: query: %w", err)
	}
	defer rows.Close()

	out := make([]*CallLog, 0)
	for rows.Next() {
		var l CallLog
		if err := rows.Scan(&l.ID, &l.LeadID, &l.CallStatus, &l.Transcript, &l.Duration, &l.CallSID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("calllogs: scan: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}
