package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"attendhub/internal/auth"
	"attendhub/internal/config"
	"attendhub/internal/directory"
	"attendhub/internal/queue"
	"attendhub/internal/records"
	"attendhub/internal/reports"
)

// Gate authorizes a principal for an operation's role allow-list.
type Gate interface {
	Require(ctx context.Context, p directory.Principal, allowed ...directory.Role) (directory.User, error)
}

// UserStore is the slice of the directory repository the handlers use.
type UserStore interface {
	Get(ctx context.Context, id string) (*directory.User, error)
	List(ctx context.Context, f directory.ListFilter) ([]directory.User, error)
	UpdateRole(ctx context.Context, id string, role directory.Role) error
	UpdateProfile(ctx context.Context, id string, firstName, lastName, phone, avatarURL *string) (directory.User, error)
	Deactivate(ctx context.Context, id string) error
}

// RecordStore is the slice of the records repository the handlers use.
type RecordStore interface {
	Insert(ctx context.Context, rec records.Record) (records.Record, error)
	Get(ctx context.Context, id string) (records.Record, error)
	Update(ctx context.Context, id string, status records.Status, totalHours *float64) (records.Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f records.ListFilter) ([]records.Record, error)
}

// Reporter computes the aggregations behind the reporting endpoints.
type Reporter interface {
	DailyTrend(ctx context.Context, days int, userID string) ([]reports.TrendPoint, error)
	PeriodStats(ctx context.Context, userID string, from, to time.Time) (records.Summary, error)
	DaysWindow(days int) (time.Time, time.Time)
	BuildSnapshot(ctx context.Context) (reports.Snapshot, error)
}

// Handler wires the gate, stores, and aggregator to the HTTP surface.
type Handler struct {
	gate    Gate
	users   UserStore
	records RecordStore
	reports Reporter
	events  queue.Queue   // nil disables sync events
	cache   *redis.Client // nil disables snapshot caching
	log     *zap.Logger
	cfg     config.App
}

// New creates a handler. events and cache may be nil.
func New(gate Gate, users UserStore, recs RecordStore, rep Reporter, events queue.Queue, cache *redis.Client, log *zap.Logger, cfg config.App) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{gate: gate, users: users, records: recs, reports: rep, events: events, cache: cache, log: log, cfg: cfg}
}

// allRoles is the allow-list for operations open to any resolved user.
var allRoles = []directory.Role{
	directory.RoleAdmin, directory.RoleHR, directory.RoleManager,
	directory.RoleEmployee, directory.RoleStudent,
}

// staffRoles may view and mutate other users' attendance.
var staffRoles = []directory.Role{
	directory.RoleAdmin, directory.RoleHR, directory.RoleManager,
}

func isStaff(r directory.Role) bool {
	return r == directory.RoleAdmin || r == directory.RoleHR || r == directory.RoleManager
}

// respondErr maps the error taxonomy to HTTP statuses. Internal details
// are logged, never returned in the body.
func (h *Handler) respondErr(c *gin.Context, err error) {
	var accessErr *directory.AccessError
	switch {
	case errors.Is(err, directory.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	case errors.As(err, &accessErr):
		c.JSON(http.StatusForbidden, gin.H{"error": accessErr.Error()})
	case errors.Is(err, directory.ErrNotFound), errors.Is(err, records.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, records.ErrDuplicateDay):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// require runs the gate for the request's principal. A missing principal
// means the auth middleware did not run or the token carried no subject.
func (h *Handler) require(c *gin.Context, allowed ...directory.Role) (directory.User, bool) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		h.respondErr(c, directory.ErrUnauthenticated)
		return directory.User{}, false
	}
	user, err := h.gate.Require(c.Request.Context(), p, allowed...)
	if err != nil {
		h.respondErr(c, err)
		return directory.User{}, false
	}
	return user, true
}

func (h *Handler) publish(c *gin.Context, eventType, userID string) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(c.Request.Context(), queue.Message{Type: eventType, Body: []byte(userID)}); err != nil {
		h.log.Warn("sync event publish failed", zap.String("user_id", userID), zap.Error(err))
	}
}
