package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendhub/internal/directory"
)

func testPrincipal() directory.Principal {
	return directory.Principal{
		ExternalID: "ext_42",
		Email:      "jane@example.com",
		FirstName:  "Jane",
		LastName:   "Doe",
		Metadata:   map[string]string{directory.MetaRole: "hr", directory.MetaDepartment: "People"},
	}
}

func TestIssueAndParse(t *testing.T) {
	token, exp, err := Issue(testPrincipal(), "attendhub", "secret", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := Parse(token, "secret", "attendhub")
	require.NoError(t, err)
	assert.Equal(t, "ext_42", claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "hr", claims.Metadata[directory.MetaRole])
}

func TestParse_WrongKey(t *testing.T) {
	token, _, err := Issue(testPrincipal(), "attendhub", "secret", time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, "other", "attendhub")
	assert.Error(t, err)
}

func TestParse_IssuerMismatch(t *testing.T) {
	token, _, err := Issue(testPrincipal(), "someone-else", "secret", time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, "secret", "attendhub")
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	token, _, err := Issue(testPrincipal(), "attendhub", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, "secret", "attendhub")
	assert.Error(t, err)
}

func TestPrincipalFromClaims(t *testing.T) {
	token, _, err := Issue(testPrincipal(), "attendhub", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(token, "secret", "attendhub")
	require.NoError(t, err)

	p := claims.Principal()
	assert.Equal(t, "ext_42", p.ExternalID)
	assert.Equal(t, "Jane", p.FirstName)
	assert.Equal(t, "People", p.Metadata[directory.MetaDepartment])
}
