package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const leadColumns = `id, name, phone, category, address, website, city, state, industry,
	employee_count, uses_mobile_devices, status, qualification_status,
	appointment_date, appointment_time, notes, zoho_id, created_at, updated_at`

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO leads (name, phone, category, address, website, city, state, industry,
			employee_count, uses_mobile_devices, status, qualification_status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + leadColumns
	row := r.db.QueryRow(ctx, query,
		req.Name,
		req.Phone,
		req.Category,
		req.Address,
		req.Website,
		req.City,
		req.State,
		req.Industry,
		req.EmployeeCount,
		req.UsesMobileDevices,
		req.Status,
		QualificationUnknown,
		req.Notes,
	)
	lead, err := scanLead(row)
	if err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}
	return lead, nil
}

// GetByID fetches a single lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	lead, err := scanLead(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Qualification != "" {
		args = append(args, filter.Qualification)
		where = append(where, fmt.Sprintf("qualification_status = $%d", len(args)))
	}
	if len(filter.IDs) > 0 {
		args = append(args, filter.IDs)
		where = append(where, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	if filter.UnsyncedOnly {
		where = append(where, "zoho_id = ''")
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list rows: %w", err)
	}
	return out, nil
}

// Update writes only the fields set on req.
func (r *PostgresRepository) Update(ctx context.Context, id int64, req *UpdateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cols := req.columns()
	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		args = append(args, c.value)
		sets = append(sets, fmt.Sprintf("%s = $%d", c.name, len(args)))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE leads SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), leadColumns)
	lead, err := scanLead(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: update failed: %w", err)
	}
	return lead, nil
}

func (r *PostgresRepository) TransitionStatus(ctx context.Context, id int64, from, to string) (bool, error) {
	query := `UPDATE leads SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`
	tag, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("leads: transition status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) SetZohoID(ctx context.Context, id int64, zohoID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE leads SET zoho_id = $2, updated_at = now() WHERE id = $1`, id, zohoID)
	if err != nil {
		return fmt.Errorf("leads: set zoho id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// Delete removes leads; call logs, appointments and follow-ups cascade.
func (r *PostgresRepository) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("leads: delete failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	if err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Phone,
		&l.Category,
		&l.Address,
		&l.Website,
		&l.City,
		&l.State,
		&l.Industry,
		&l.EmployeeCount,
		&l.UsesMobileDevices,
		&l.Status,
		&l.QualificationStatus,
		&l.AppointmentDate,
		&l.AppointmentTime,
		&l.Notes,
		&l.ZohoID,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &l, nil
}
