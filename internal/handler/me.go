package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Me resolves the caller's principal against the directory, provisioning
// a record on first login.
func (h *Handler) Me(c *gin.Context) {
	user, ok := h.require(c, allRoles...)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateMeRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatar_url"`
}

// UpdateMe applies a self-service profile update. Omitted fields stay
// unchanged; role and department are not self-serviceable.
func (h *Handler) UpdateMe(c *gin.Context) {
	user, ok := h.require(c, allRoles...)
	if !ok {
		return
	}
	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.users.UpdateProfile(c.Request.Context(), user.ID, req.FirstName, req.LastName, req.Phone, req.AvatarURL)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
