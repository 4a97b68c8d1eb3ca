package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"attendhub/internal/directory"
)

const principalKey = "principal"

// SessionAuth enforces bearer session tokens signed with HS256 and
// places the extracted principal in the request context. Handlers take
// it from there explicitly; nothing downstream reads the token again.
func SessionAuth(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(principalKey, claims.Principal())
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by SessionAuth.
func PrincipalFrom(c *gin.Context) (directory.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return directory.Principal{}, false
	}
	p, ok := v.(directory.Principal)
	return p, ok
}
