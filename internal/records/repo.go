package records

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const recordColumns = `id, user_id, occurred_on, status, total_hours, created_by, created_at, updated_at`

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.UserID, &rec.OccurredOn, &rec.Status,
		&rec.TotalHours, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

// Insert writes a new record. The (user_id, occurred_on) unique
// constraint carries the one-record-per-day invariant.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.OccurredOn.IsZero() {
		rec.OccurredOn = time.Now().UTC()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, user_id, occurred_on, status, total_hours, created_by)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at
	`, rec.ID, rec.UserID, rec.OccurredOn, rec.Status, rec.TotalHours, rec.CreatedBy)
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, ErrDuplicateDay
		}
		return Record{}, err
	}
	return rec, nil
}

// Get returns a single record by id.
func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance_records WHERE id = $1
	`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// Update sets status and hours for a record.
func (r *Repository) Update(ctx context.Context, id string, status Status, totalHours *float64) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE attendance_records
		SET status = $2, total_hours = COALESCE($3, total_hours), updated_at = NOW()
		WHERE id = $1
		RETURNING `+recordColumns+`
	`, id, status, totalHours)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// Delete removes a record.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFilter scopes record listings.
type ListFilter struct {
	UserID string
	From   time.Time
	To     time.Time
	Limit  int
	Page   int
}

// List returns records with basic filters, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Record, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page < 1 {
		f.Page = 1
	}
	query := `SELECT ` + recordColumns + ` FROM attendance_records`
	args := []any{}
	clauses := []string{}
	if f.UserID != "" {
		clauses = append(clauses, "user_id = $"+strconv.Itoa(len(args)+1))
		args = append(args, f.UserID)
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "occurred_on >= $"+strconv.Itoa(len(args)+1))
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "occurred_on <= $"+strconv.Itoa(len(args)+1))
		args = append(args, f.To)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY occurred_on DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// CountsByDay groups records by (calendar day, status) inside a window.
// userID narrows to one user when non-empty.
func (r *Repository) CountsByDay(ctx context.Context, from, to time.Time, userID string) ([]DayStatusCount, error) {
	query := `
		SELECT occurred_on, status, COUNT(*)
		FROM attendance_records
		WHERE occurred_on >= $1 AND occurred_on <= $2`
	args := []any{from, to}
	if userID != "" {
		query += ` AND user_id = $3`
		args = append(args, userID)
	}
	query += ` GROUP BY occurred_on, status ORDER BY occurred_on`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []DayStatusCount
	for rows.Next() {
		var dc DayStatusCount
		if err := rows.Scan(&dc.Day, &dc.Status, &dc.Count); err != nil {
			return nil, err
		}
		res = append(res, dc)
	}
	return res, rows.Err()
}

// Summarize computes per-status counts and hour aggregates for a window.
// userID narrows to one user when non-empty.
func (r *Repository) Summarize(ctx context.Context, userID string, from, to time.Time) (Summary, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'present'),
			COUNT(*) FILTER (WHERE status = 'absent'),
			COUNT(*) FILTER (WHERE status = 'late'),
			COUNT(*) FILTER (WHERE status = 'half-day'),
			COALESCE(SUM(total_hours), 0),
			COALESCE(AVG(total_hours), 0)
		FROM attendance_records
		WHERE occurred_on >= $1 AND occurred_on <= $2`
	args := []any{from, to}
	if userID != "" {
		query += ` AND user_id = $3`
		args = append(args, userID)
	}

	var s Summary
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&s.Total, &s.Present, &s.Absent, &s.Late, &s.HalfDay, &s.TotalHours, &s.AvgHours); err != nil {
		return Summary{}, err
	}
	return s, nil
}
