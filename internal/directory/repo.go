package directory

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const userColumns = `id, external_id, email, first_name, last_name, role, department, employee_id, phone, avatar_url, status, created_at, updated_at`

// Repository persists user records in Postgres.
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

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.FirstName, &u.LastName,
		&u.Role, &u.Department, &u.EmployeeID, &u.Phone, &u.AvatarURL,
		&u.Status, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// FindByExternalID returns the user linked to a provider id, or nil when absent.
func (r *Repository) FindByExternalID(ctx context.Context, externalID string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE external_id = $1
	`, externalID)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmail returns the user holding an email, or nil when absent.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1
	`, email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Get returns a user by local id.
func (r *Repository) Get(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user record. The unique indexes on email and
// external_id reject duplicates; callers inspect the error for the
// email race.
func (r *Repository) Create(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleEmployee
	}
	if u.Department == "" {
		u.Department = "General"
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, external_id, email, first_name, last_name, role, department, employee_id, phone, avatar_url, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at
	`, u.ID, u.ExternalID, u.Email, u.FirstName, u.LastName, u.Role, u.Department, u.EmployeeID, u.Phone, u.AvatarURL, u.Status)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}

// Backfill fills only currently-unset fields of a record from the
// principal: external id, department, role, first and last name.
// Populated fields are left untouched so admin-curated values survive.
func (r *Repository) Backfill(ctx context.Context, id string, p Principal) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users SET
			external_id = COALESCE(external_id, $2),
			department  = CASE WHEN department = '' THEN $3 ELSE department END,
			role        = CASE WHEN role = '' THEN $4 ELSE role END,
			first_name  = CASE WHEN first_name = '' THEN $5 ELSE first_name END,
			last_name   = CASE WHEN last_name = '' THEN $6 ELSE last_name END,
			updated_at  = NOW()
		WHERE id = $1
		RETURNING `+userColumns+`
	`, id, nullable(p.ExternalID), defaultString(p.Hint(MetaDepartment), "General"),
		string(ParseRole(p.Hint(MetaRole))), defaultString(p.FirstName, "Unknown"), defaultString(p.LastName, "User"))
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// UpdateRole sets a user's role. Used by admin role updates only.
func (r *Repository) UpdateRole(ctx context.Context, id string, role Role) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1
	`, id, role)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// UpdateProfile applies a self-service update. Nil fields are left unchanged.
func (r *Repository) UpdateProfile(ctx context.Context, id string, firstName, lastName, phone, avatarURL *string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			phone      = COALESCE($4, phone),
			avatar_url = COALESCE($5, avatar_url),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns+`
	`, id, firstName, lastName, phone, avatarURL)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// Deactivate flips a record to inactive instead of deleting it.
func (r *Repository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, StatusInactive)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// ListFilter scopes directory listings.
type ListFilter struct {
	Role       Role
	Department string
	Limit      int
	Page       int
}

// List returns users with basic filters, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]User, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page < 1 {
		f.Page = 1
	}
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	clauses := []string{}
	if f.Role != "" {
		clauses = append(clauses, "role = $"+strconv.Itoa(len(args)+1))
		args = append(args, f.Role)
	}
	if f.Department != "" {
		clauses = append(clauses, "department = $"+strconv.Itoa(len(args)+1))
		args = append(args, f.Department)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// CountActiveByRole counts active users per role.
func (r *Repository) CountActiveByRole(ctx context.Context) (map[Role]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT role, COUNT(*) FROM users WHERE status = 'active' GROUP BY role
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[Role]int)
	for rows.Next() {
		var role Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}
	return counts, rows.Err()
}

// DepartmentCount is one row of the department breakdown.
type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// DepartmentBreakdown counts active employees and students per department.
func (r *Repository) DepartmentBreakdown(ctx context.Context) ([]DepartmentCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT department, COUNT(*) FROM users
		WHERE status = 'active' AND role IN ('employee', 'student')
		GROUP BY department
		ORDER BY department
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []DepartmentCount
	for rows.Next() {
		var dc DepartmentCount
		if err := rows.Scan(&dc.Department, &dc.Count); err != nil {
			return nil, err
		}
		res = append(res, dc)
	}
	return res, rows.Err()
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
