package followups

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

const selectFollowUps = `
	SELECT f.id, f.lead_id, f.scheduled_time, f.priority, f.reason, f.notes, f.status, f.created_at, f.updated_at,
		COALESCE(l.name, ''), COALESCE(l.phone, '')
	FROM follow_ups f LEFT JOIN leads l ON l.id = f.lead_id`

// PostgresStore provides CRUD operations for follow_ups.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a new follow-up store.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, f *FollowUp) (*FollowUp, error) {
	out := *f
	if out.Status == "" {
		out.Status = StatusPending
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO follow_ups (lead_id, scheduled_time, priority, reason, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		out.LeadID, out.ScheduledTime, out.Priority, out.Reason, out.Notes, out.Status,
	).Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("followups: create: %w", err)
	}
	return &out, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*FollowUp, error) {
	f, err := scanFollowUp(s.db.QueryRow(ctx, selectFollowUps+` WHERE f.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("followups: get: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*FollowUp, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("f.status = $%d", len(args)))
	}
	if filter.LeadID != 0 {
		args = append(args, filter.LeadID)
		where = append(where, fmt.Sprintf("f.lead_id = $%d", len(args)))
	}
	query := selectFollowUps
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY f.scheduled_time ASC, f.id ASC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("followups: list: %w", err)
	}
	defer rows.Close()
	return scanFollowUps(rows)
}

func (s *PostgresStore) Update(ctx context.Context, id int64, p Patch) (*FollowUp, error) {
	cols := p.columns()
	if len(cols) == 0 {
		return nil, ErrNoFieldsToUpdate
	}
	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		args = append(args, c.value)
		sets = append(sets, fmt.Sprintf("%s = $%d", c.name, len(args)))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	tag, err := s.db.Exec(ctx, fmt.Sprintf(`UPDATE follow_ups SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("followups: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// ClaimDue picks the best due follow-up per lead, keeps the top limit and flips
// them to In Progress in one statement so concurrent dispatchers cannot double-claim.
func (s *PostgresStore) ClaimDue(ctx context.Context, asOf time.Time, limit int) ([]*FollowUp, error) {
	rows, err := s.db.Query(ctx, `
		WITH best AS (
			SELECT DISTINCT ON (lead_id) id, priority, scheduled_time
			FROM follow_ups
			WHERE status = $1 AND scheduled_time <= $2
			ORDER BY lead_id, priority DESC, scheduled_time ASC, id ASC
		), picked AS (
			SELECT id FROM best ORDER BY priority DESC, scheduled_time ASC, id ASC LIMIT $3
		)
		UPDATE follow_ups f SET status = $4, updated_at = now()
		FROM picked
		WHERE f.id = picked.id AND f.status = $1
		RETURNING f.id, f.lead_id, f.scheduled_time, f.priority, f.reason, f.notes, f.status, f.created_at, f.updated_at,
			'' AS lead_name, '' AS lead_phone`,
		StatusPending, asOf, limit, StatusInProgress,
	)
	if err != nil {
		return nil, fmt.Errorf("followups: claim due: %w", err)
	}
	defer rows.Close()
	out, err := scanFollowUps(rows)
	if err != nil {
		return nil, err
	}
	SortForDispatch(out)
	return out, nil
}

func (s *PostgresStore) CompleteInProgress(ctx context.Context, leadID int64) (int64, error) {
	tag, err := s.db.Exec(ctx, `UPDATE follow_ups SET status = $3, updated_at = now() WHERE lead_id = $1 AND status = $2`,
		leadID, StatusInProgress, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("followups: complete in progress: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) DeleteByLead(ctx context.Context, leadIDs []int64) error {
	if len(leadIDs) == 0 {
		return nil
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM follow_ups WHERE lead_id = ANY($1)`, leadIDs); err != nil {
		return fmt.Errorf("followups: delete by lead: %w", err)
	}
	return nil
}

func scanFollowUps(rows pgx.Rows) ([]*FollowUp, error) {
	out := []*FollowUp{}
	for rows.Next() {
		f, err := scanFollowUp(rows)
		if err != nil {
			return nil, fmt.Errorf("followups: scan: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("followups: rows: %w", err)
	}
	return out, nil
}

func scanFollowUp(row pgx.Row) (*FollowUp, error) {
	var f FollowUp
	if err := row.Scan(
		&f.ID,
		&f.LeadID,
		&f.ScheduledTime,
		&f.Priority,
		&f.Reason,
		&f.Notes,
		&f.Status,
		&f.CreatedAt,
		&f.UpdatedAt,
		&f.LeadName,
		&f.LeadPhone,
	); err != nil {
		return nil, err
	}
	return &f, nil
}
