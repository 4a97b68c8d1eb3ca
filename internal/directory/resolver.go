package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"attendhub/internal/queue"
)

// Resolver reconciles a provider principal with the local directory,
// provisioning a record on first sight. Results are never cached: every
// protected operation re-resolves so directory changes take effect
// within a session.
type Resolver struct {
	repo   *Repository
	events queue.Queue // nil disables sync events
	log    *zap.Logger
}

// NewResolver creates a resolver. events may be nil.
func NewResolver(repo *Repository, events queue.Queue, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{repo: repo, events: events, log: log}
}

// Resolve returns the user record for a principal, creating it if
// absent. A duplicate-email rejection on create is recovered by adopting
// the existing record and backfilling only its unset fields; any other
// failure is surfaced so callers treat the principal as unauthenticated.
func (r *Resolver) Resolve(ctx context.Context, p Principal) (User, error) {
	if p.ExternalID == "" {
		return User{}, ErrUnauthenticated
	}

	existing, err := r.repo.FindByExternalID(ctx, p.ExternalID)
	if err != nil {
		return User{}, fmt.Errorf("lookup %s: %w", p.ExternalID, err)
	}
	if existing != nil {
		return *existing, nil
	}

	created, createErr := r.repo.Create(ctx, newUserFrom(p))
	if createErr == nil {
		r.publish(ctx, queue.TypeUserProvisioned, created.ID)
		return created, nil
	}
	if !isUniqueViolation(createErr) {
		return User{}, fmt.Errorf("provision %s: %w", p.ExternalID, createErr)
	}

	// Lost the first-login race, or the email was registered before the
	// provider link existed. Adopt the record holding the email and fill
	// in whatever it is still missing.
	byEmail, lookupErr := r.repo.FindByEmail(ctx, p.Email)
	if lookupErr != nil || byEmail == nil {
		return User{}, fmt.Errorf("provision %s: %w", p.ExternalID, createErr)
	}
	merged, mergeErr := r.repo.Backfill(ctx, byEmail.ID, p)
	if mergeErr != nil {
		return User{}, fmt.Errorf("backfill %s: %w", byEmail.ID, mergeErr)
	}
	r.log.Info("adopted existing directory record",
		zap.String("user_id", merged.ID), zap.String("external_id", p.ExternalID))
	return merged, nil
}

// newUserFrom builds a fresh record from provider state. Hints only seed
// defaults here; once persisted the directory is authoritative.
func newUserFrom(p Principal) User {
	return User{
		ExternalID: nullable(p.ExternalID),
		Email:      p.Email,
		FirstName:  defaultString(p.FirstName, "Unknown"),
		LastName:   defaultString(p.LastName, "User"),
		Role:       ParseRole(p.Hint(MetaRole)),
		Department: defaultString(p.Hint(MetaDepartment), "General"),
		EmployeeID: nullable(p.Hint(MetaEmployeeID)),
		Phone:      nullable(p.Phone),
		AvatarURL:  nullable(p.AvatarURL),
		Status:     StatusActive,
	}
}

func (r *Resolver) publish(ctx context.Context, eventType, userID string) {
	if r.events == nil {
		return
	}
	if err := r.events.Publish(ctx, queue.Message{Type: eventType, Body: []byte(userID)}); err != nil {
		r.log.Warn("sync event publish failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// isUniqueViolation reports the Postgres unique-constraint rejection the
// resolver relies on to detect the email race.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
