package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"attendhub/internal/directory"
	"attendhub/internal/reports"
)

var (
	errInvalidMonth = errors.New("month must be between 1 and 12")
	errInvalidYear  = errors.New("year out of range")
	errInvalidDays  = errors.New("days must be between 1 and 366")
)

const snapshotCacheKey = "dashboard:snapshot"

// Trend returns the daily attendance series for a trailing window.
func (h *Handler) Trend(c *gin.Context) {
	if _, ok := h.require(c, staffRoles...); !ok {
		return
	}
	days := intQuery(c, "days", 7)
	if days <= 0 || days > 366 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 366"})
		return
	}
	points, err := h.reports.DailyTrend(c.Request.Context(), days, c.Query("user_id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "trend": points})
}

// Stats summarizes a window for one user. Callers without a staff role
// may only query themselves.
func (h *Handler) Stats(c *gin.Context) {
	caller, ok := h.require(c, allRoles...)
	if !ok {
		return
	}
	target := c.Query("user_id")
	if target == "" {
		target = caller.ID
	}
	if target != caller.ID && caller.Role != directory.RoleAdmin && caller.Role != directory.RoleHR {
		h.respondErr(c, &directory.AccessError{
			Required: []directory.Role{directory.RoleAdmin, directory.RoleHR},
			Actual:   caller.Role,
		})
		return
	}

	from, to, err := h.statsWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	summary, err := h.reports.PeriodStats(c.Request.Context(), target, from, to)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": target,
		"from":    from.Format("2006-01-02"),
		"to":      to.Format("2006-01-02"),
		"stats":   summary,
	})
}

// Dashboard returns the snapshot, served from a short-lived Redis cache
// when available. Resolver results are never cached; only this composed
// read-only view is.
func (h *Handler) Dashboard(c *gin.Context) {
	if _, ok := h.require(c, staffRoles...); !ok {
		return
	}
	ctx := c.Request.Context()

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, snapshotCacheKey).Bytes(); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			return
		}
	}

	snap, err := h.reports.BuildSnapshot(ctx)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if h.cache != nil {
		if body, err := json.Marshal(snap); err == nil {
			h.cache.Set(ctx, snapshotCacheKey, body, h.cfg.SnapshotTTL)
		}
	}
	c.JSON(http.StatusOK, snap)
}

// statsWindow derives the stats window from either days or month/year
// query parameters, defaulting to the trailing 7 days.
func (h *Handler) statsWindow(c *gin.Context) (time.Time, time.Time, error) {
	month := intQuery(c, "month", 0)
	year := intQuery(c, "year", 0)
	if month != 0 || year != 0 {
		if month < 1 || month > 12 {
			return time.Time{}, time.Time{}, errInvalidMonth
		}
		if year < 2000 || year > 2200 {
			return time.Time{}, time.Time{}, errInvalidYear
		}
		from, to := reports.MonthWindow(time.Month(month), year)
		return from, to, nil
	}
	days := intQuery(c, "days", 7)
	if days <= 0 || days > 366 {
		return time.Time{}, time.Time{}, errInvalidDays
	}
	from, to := h.reports.DaysWindow(days)
	return from, to, nil
}
