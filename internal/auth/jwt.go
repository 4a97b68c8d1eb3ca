package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"attendhub/internal/directory"
)

// SessionClaims is the payload of a provider-issued session token. The
// subject is the provider's stable external id; the metadata map carries
// role/department/employee-id hints.
type SessionClaims struct {
	Email     string            `json:"email,omitempty"`
	FirstName string            `json:"first_name,omitempty"`
	LastName  string            `json:"last_name,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	AvatarURL string            `json:"avatar_url,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	jwt.RegisteredClaims
}

// Principal maps the claims to the shape the directory resolves.
func (c SessionClaims) Principal() directory.Principal {
	return directory.Principal{
		ExternalID: c.Subject,
		Email:      c.Email,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Phone:      c.Phone,
		AvatarURL:  c.AvatarURL,
		Metadata:   c.Metadata,
	}
}

// Issue signs a session token for a principal. Production deployments
// receive tokens from the identity provider; this path backs the
// dev-mode mint endpoint.
func Issue(p directory.Principal, issuer, key string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := SessionClaims{
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		AvatarURL: p.AvatarURL,
		Metadata:  p.Metadata,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.ExternalID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Parse validates a token and returns claims.
func Parse(tokenStr, key, issuer string) (SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return SessionClaims{}, err
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return SessionClaims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return SessionClaims{}, errors.New("issuer mismatch")
	}
	return *claims, nil
}
