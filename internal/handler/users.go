package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"attendhub/internal/directory"
	"attendhub/internal/queue"
)

// ListUsers returns directory records with role/department filters.
func (h *Handler) ListUsers(c *gin.Context) {
	if _, ok := h.require(c, directory.RoleAdmin, directory.RoleHR); !ok {
		return
	}
	filter := directory.ListFilter{
		Department: c.Query("department"),
		Limit:      intQuery(c, "limit", 50),
		Page:       intQuery(c, "page", 1),
	}
	if v := c.Query("role"); v != "" {
		role := directory.Role(v)
		if !role.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role filter"})
			return
		}
		filter.Role = role
	}
	users, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "page": filter.Page, "limit": filter.Limit})
}

// GetUser returns a single directory record.
func (h *Handler) GetUser(c *gin.Context) {
	if _, ok := h.require(c, staffRoles...); !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if user == nil {
		h.respondErr(c, directory.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateUserRole sets a user's role. The directory value becomes
// authoritative; a sync event pushes the new hint back to the provider.
func (h *Handler) UpdateUserRole(c *gin.Context) {
	caller, ok := h.require(c, directory.RoleAdmin)
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role := directory.Role(req.Role)
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	id := c.Param("id")
	if id == caller.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot change own role"})
		return
	}
	if err := h.users.UpdateRole(c.Request.Context(), id, role); err != nil {
		h.respondErr(c, err)
		return
	}
	h.publish(c, queue.TypeRoleChanged, id)
	c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
}

// DeactivateUser flips a record to inactive. Nothing is hard-deleted.
func (h *Handler) DeactivateUser(c *gin.Context) {
	caller, ok := h.require(c, directory.RoleAdmin)
	if !ok {
		return
	}
	id := c.Param("id")
	if id == caller.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot deactivate self"})
		return
	}
	if err := h.users.Deactivate(c.Request.Context(), id); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": directory.StatusInactive})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}
