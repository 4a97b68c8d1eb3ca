package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*Repository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewRepository(db), mock, db
}

func TestInsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	hours := 8.0
	mock.ExpectQuery(`INSERT INTO attendance_records`).
		WithArgs(sqlmock.AnyArg(), "u-1", sqlmock.AnyArg(), "present", 8.0, nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(time.Now(), time.Now()))

	rec, err := repo.Insert(context.Background(), Record{
		UserID: "u-1", Status: StatusPresent, TotalHours: &hours,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.OccurredOn.IsZero())
}

func TestInsert_DuplicateDay(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO attendance_records`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Insert(context.Background(), Record{UserID: "u-1", Status: StatusLate})
	assert.ErrorIs(t, err, ErrDuplicateDay)
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE attendance_records`).
		WithArgs("missing", "absent", nil).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), "missing", StatusAbsent, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM attendance_records WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_WindowFilter(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "occurred_on", "status", "total_hours", "created_by", "created_at", "updated_at",
	}).AddRow("r-1", "u-1", from, "present", nil, nil, time.Now(), time.Now())

	mock.ExpectQuery(`SELECT .+ FROM attendance_records WHERE user_id = \$1 AND occurred_on >= \$2 AND occurred_on <= \$3 ORDER BY occurred_on DESC LIMIT \$4 OFFSET \$5`).
		WithArgs("u-1", from, to, 50, 0).
		WillReturnRows(rows)

	recs, err := repo.List(context.Background(), ListFilter{UserID: "u-1", From: from, To: to})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, StatusPresent, recs[0].Status)
}

func TestSummarize_AllUsers(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\),`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{
			"count", "present", "absent", "late", "half_day", "sum", "avg",
		}).AddRow(12, 9, 1, 1, 1, 90.5, 7.5))

	sum, err := repo.Summarize(context.Background(), "", from, to)
	require.NoError(t, err)
	assert.Equal(t, 12, sum.Total)
	assert.Equal(t, 9, sum.Present)
	assert.Equal(t, 90.5, sum.TotalHours)
	assert.Equal(t, 7.5, sum.AvgHours)
}

func TestCountsByDay_SingleUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	from := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT occurred_on, status, COUNT\(\*\)`).
		WithArgs(from, to, "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"occurred_on", "status", "count"}).
			AddRow(from, "present", 1).
			AddRow(to, "late", 1))

	counts, err := repo.CountsByDay(context.Background(), from, to, "u-1")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, StatusLate, counts[1].Status)
}
