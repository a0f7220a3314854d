package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var appointmentRowColumns = []string{
	"id", "lead_id", "date", "time", "status", "medium", "notes", "zoho_event_id", "created_at", "lead_name", "lead_phone",
}

func TestPostgresStore_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(int64(3), "2026-05-04", "14:00", StatusScheduled, MediumPhone, "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(8), now))

	a, err := NewPostgresStore(mock).Create(context.Background(), &CreateRequest{LeadID: 3, Date: "2026-05-04", Time: "14:00"})
	require.NoError(t, err)
	assert.Equal(t, int64(8), a.ID)
	assert.Equal(t, StatusScheduled, a.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateUnknownLead(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(int64(3), "2026-05-04", "14:00", StatusScheduled, MediumPhone, "").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err = NewPostgresStore(mock).Create(context.Background(), &CreateRequest{LeadID: 3, Date: "2026-05-04", Time: "14:00"})
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestPostgresStore_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM appointments WHERE id").
		WithArgs(int64(8)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM appointments WHERE id").
		WithArgs(int64(9)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	store := NewPostgresStore(mock)
	require.NoError(t, store.Delete(context.Background(), 8))
	assert.ErrorIs(t, store.Delete(context.Background(), 9), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListJoinsLeads(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	rows := pgxmock.NewRows(appointmentRowColumns).
		AddRow(int64(1), int64(3), "2026-05-04", "10:00", StatusScheduled, MediumPhone, "", "", now, "Acme", "555-1234")
	mock.ExpectQuery("LEFT JOIN leads l ON l.id = a.lead_id WHERE a.date = \\$1 ORDER BY a.date, a.time").
		WithArgs("2026-05-04").
		WillReturnRows(rows)

	list, err := NewPostgresStore(mock).List(context.Background(), ListFilter{Date: "2026-05-04"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Acme", list[0].LeadName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	d, tm := "2026-05-06", "11:00"
	mock.ExpectExec("UPDATE appointments SET date = \\$1, time = \\$2 WHERE id = \\$3").
		WithArgs(d, tm, int64(4)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	_, err = NewPostgresStore(mock).Update(context.Background(), 4, &UpdateRequest{Date: &d, Time: &tm})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_BookedTimes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT a.time FROM appointments a WHERE a.date = \\$1 AND a.status <> \\$2").
		WithArgs("2026-05-04", StatusCanceled).
		WillReturnRows(pgxmock.NewRows([]string{"time"}).AddRow("09:00").AddRow("14:30"))

	times, err := NewPostgresStore(mock).BookedTimes(context.Background(), "2026-05-04")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "14:30"}, times)
	assert.NoError(t, mock.ExpectationsWereMet())
}
