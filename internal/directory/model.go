package directory

import (
	"errors"
	"fmt"
	"time"
)

// Metadata keys the identity provider may carry as hints. Hints seed a
// record on first sight and never overwrite fields already set locally.
const (
	MetaRole       = "role"
	MetaDepartment = "department"
	MetaEmployeeID = "employee_id"
)

// Principal is the authenticated identity supplied by the provider for
// the current request. It is input to resolution, never persisted as-is.
type Principal struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	Phone      string
	AvatarURL  string
	Metadata   map[string]string
}

// Hint returns a provider metadata value or "".
func (p Principal) Hint(key string) string {
	return p.Metadata[key]
}

// User is the local directory record for a person, keyed uniquely by
// email and by non-null external id.
type User struct {
	ID         string    `json:"id"`
	ExternalID *string   `json:"external_id,omitempty"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       Role      `json:"role"`
	Department string    `json:"department"`
	EmployeeID *string   `json:"employee_id,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	AvatarURL  *string   `json:"avatar_url,omitempty"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var (
	// ErrUnauthenticated means no user record could be resolved for the
	// request. Resolution failures collapse into this: fail closed.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound means a referenced user record does not exist.
	ErrNotFound = errors.New("user not found")
)

// AccessError reports a resolved role outside an operation's allow-list.
type AccessError struct {
	Required []Role
	Actual   Role
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("access denied: requires one of %v, have %s", e.Required, e.Actual)
}
