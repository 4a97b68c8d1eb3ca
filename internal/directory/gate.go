package directory

import (
	"context"

	"go.uber.org/zap"
)

// userResolver is the slice of Resolver the gate needs.
type userResolver interface {
	Resolve(ctx context.Context, p Principal) (User, error)
}

// Gate authorizes protected operations against explicit role allow-lists.
// Each invocation re-resolves the principal and ends in exactly one of
// two outcomes: the resolved user, or a denial.
type Gate struct {
	resolver userResolver
	log      *zap.Logger
}

// NewGate creates a gate over a resolver.
func NewGate(r userResolver, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{resolver: r, log: log}
}

// Require resolves the principal and checks membership in allowed.
// Resolution failures deny access; there is no guest fallback. The
// returned error names roles only, never other user data.
func (g *Gate) Require(ctx context.Context, p Principal, allowed ...Role) (User, error) {
	user, err := g.resolver.Resolve(ctx, p)
	if err != nil {
		g.log.Warn("resolution failed, denying request",
			zap.String("external_id", p.ExternalID), zap.Error(err))
		return User{}, ErrUnauthenticated
	}
	for _, role := range allowed {
		if user.Role == role {
			return user, nil
		}
	}
	return User{}, &AccessError{Required: allowed, Actual: user.Role}
}
