package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"attendhub/internal/directory"
	"attendhub/internal/records"
)

type createRecordRequest struct {
	UserID     string   `json:"user_id"`
	OccurredOn string   `json:"occurred_on"`
	Status     string   `json:"status" binding:"required"`
	TotalHours *float64 `json:"total_hours"`
}

// CreateRecord marks attendance. Anyone may record their own day; only
// staff may record for another user.
func (h *Handler) CreateRecord(c *gin.Context) {
	caller, ok := h.require(c, allRoles...)
	if !ok {
		return
	}
	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := records.Status(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	target := req.UserID
	if target == "" {
		target = caller.ID
	}
	if target != caller.ID && !isStaff(caller.Role) {
		h.respondErr(c, &directory.AccessError{Required: staffRoles, Actual: caller.Role})
		return
	}
	rec := records.Record{
		UserID:     target,
		Status:     status,
		TotalHours: req.TotalHours,
		CreatedBy:  &caller.ID,
	}
	if req.OccurredOn != "" {
		day, err := time.Parse("2006-01-02", req.OccurredOn)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "occurred_on must be YYYY-MM-DD"})
			return
		}
		rec.OccurredOn = day
	}
	created, err := h.records.Insert(c.Request.Context(), rec)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetRecord returns a single record. Non-staff callers only see their own.
func (h *Handler) GetRecord(c *gin.Context) {
	caller, ok := h.require(c, allRoles...)
	if !ok {
		return
	}
	rec, err := h.records.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if rec.UserID != caller.ID && !isStaff(caller.Role) {
		h.respondErr(c, &directory.AccessError{Required: staffRoles, Actual: caller.Role})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ListRecords returns attendance records. Non-staff callers only see
// their own.
func (h *Handler) ListRecords(c *gin.Context) {
	caller, ok := h.require(c, allRoles...)
	if !ok {
		return
	}
	target := c.Query("user_id")
	if target == "" && !isStaff(caller.Role) {
		target = caller.ID
	}
	if target != caller.ID && !isStaff(caller.Role) {
		h.respondErr(c, &directory.AccessError{Required: staffRoles, Actual: caller.Role})
		return
	}
	filter := records.ListFilter{
		UserID: target,
		Limit:  intQuery(c, "limit", 50),
		Page:   intQuery(c, "page", 1),
	}
	var err error
	if filter.From, err = dayQuery(c, "from"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return
	}
	if filter.To, err = dayQuery(c, "to"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
		return
	}
	recs, err := h.records.List(c.Request.Context(), filter)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs, "page": filter.Page, "limit": filter.Limit})
}

type updateRecordRequest struct {
	Status     string   `json:"status" binding:"required"`
	TotalHours *float64 `json:"total_hours"`
}

// UpdateRecord corrects a record's status or hours.
func (h *Handler) UpdateRecord(c *gin.Context) {
	if _, ok := h.require(c, staffRoles...); !ok {
		return
	}
	var req updateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := records.Status(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	rec, err := h.records.Update(c.Request.Context(), c.Param("id"), status, req.TotalHours)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeleteRecord removes a record.
func (h *Handler) DeleteRecord(c *gin.Context) {
	if _, ok := h.require(c, directory.RoleAdmin); !ok {
		return
	}
	if err := h.records.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func dayQuery(c *gin.Context, key string) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", v)
}
