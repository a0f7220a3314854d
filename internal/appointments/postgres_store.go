package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the store needs; pgxmock satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const appointmentColumns = `a.id, a.lead_id, a.date, a.time, a.status, a.medium, a.notes, a.zoho_event_id, a.created_at,
	COALESCE(l.name, ''), COALESCE(l.phone, '')`

// PostgresStore persists appointments in Postgres.
type PostgresStore struct {
	db DB
}

// NewPostgresStore wires a pgx-backed store.
func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, req *CreateRequest) (*Appointment, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a := &Appointment{
		LeadID: req.LeadID,
		Date:   req.Date,
		Time:   req.Time,
		Status: req.Status,
		Medium: req.Medium,
		Notes:  req.Notes,
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO appointments (lead_id, date, time, status, medium, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		a.LeadID, a.Date, a.Time, a.Status, a.Medium, a.Notes,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments a LEFT JOIN leads l ON l.id = a.lead_id
		WHERE a.id = $1`
	a, err := scanAppointment(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	var (
		where []string
		args  []any
	)
	if filter.LeadID != 0 {
		args = append(args, filter.LeadID)
		where = append(where, fmt.Sprintf("a.lead_id = $%d", len(args)))
	}
	if filter.Date != "" {
		args = append(args, filter.Date)
		where = append(where, fmt.Sprintf("a.date = $%d", len(args)))
	}
	query := `SELECT ` + appointmentColumns + ` FROM appointments a LEFT JOIN leads l ON l.id = a.lead_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.date, a.time, a.id"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, id int64, req *UpdateRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cols := req.columns()
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		args = append(args, c.value)
		sets = append(sets, fmt.Sprintf("%s = $%d", c.name, len(args)))
	}
	args = append(args, id)

	tag, err := s.db.Exec(ctx, fmt.Sprintf(`UPDATE appointments SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *PostgresStore) SetZohoEventID(ctx context.Context, id int64, eventID string) error {
	tag, err := s.db.Exec(ctx, `UPDATE appointments SET zoho_event_id = $2 WHERE id = $1`, id, eventID)
	if err != nil {
		return fmt.Errorf("appointments: set zoho event id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) BookedTimes(ctx context.Context, date string) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT a.time FROM appointments a WHERE a.date = $1 AND a.status <> $2 ORDER BY a.time`, date, StatusCanceled)
	if err != nil {
		return nil, fmt.Errorf("appointments: booked times: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("appointments: scan booked time: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteByLead(ctx context.Context, leadIDs []int64) error {
	if len(leadIDs) == 0 {
		return nil
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM appointments WHERE lead_id = ANY($1)`, leadIDs); err != nil {
		return fmt.Errorf("appointments: delete by lead: %w", err)
	}
	return nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	if err := row.Scan(
		&a.ID,
		&a.LeadID,
		&a.Date,
		&a.Time,
		&a.Status,
		&a.Medium,
		&a.Notes,
		&a.ZohoEventID,
		&a.CreatedAt,
		&a.LeadName,
		&a.LeadPhone,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
