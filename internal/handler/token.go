package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendhub/internal/auth"
	"attendhub/internal/directory"
)

type mintTokenRequest struct {
	ExternalID string            `json:"external_id" binding:"required"`
	Email      string            `json:"email"`
	FirstName  string            `json:"first_name"`
	LastName   string            `json:"last_name"`
	Phone      string            `json:"phone"`
	AvatarURL  string            `json:"avatar_url"`
	Metadata   map[string]string `json:"metadata"`
}

// MintToken signs a session token locally. Dev convenience only: real
// deployments get tokens from the identity provider, and the route is
// config-gated off in production.
func (h *Handler) MintToken(c *gin.Context) {
	if !h.cfg.DevTokenMint {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	var req mintTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := directory.Principal{
		ExternalID: req.ExternalID,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		AvatarURL:  req.AvatarURL,
		Metadata:   req.Metadata,
	}
	token, exp, err := auth.Issue(p, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.SessionTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "expires_at": exp.Unix()})
}
