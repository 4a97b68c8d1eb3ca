package reports

import (
	"context"
	"math"
	"sync"
	"time"

	"attendhub/internal/directory"
	"attendhub/internal/records"
)

// RecordStore is the slice of the records repository the aggregator reads.
type RecordStore interface {
	CountsByDay(ctx context.Context, from, to time.Time, userID string) ([]records.DayStatusCount, error)
	Summarize(ctx context.Context, userID string, from, to time.Time) (records.Summary, error)
}

// DirectoryStore supplies the user counts for the dashboard snapshot.
type DirectoryStore interface {
	CountActiveByRole(ctx context.Context) (map[directory.Role]int, error)
	DepartmentBreakdown(ctx context.Context) ([]directory.DepartmentCount, error)
}

// Aggregator computes attendance statistics over date windows.
type Aggregator struct {
	records   RecordStore
	directory DirectoryStore
	now       func() time.Time
}

// NewAggregator creates an aggregator.
func NewAggregator(rec RecordStore, dir DirectoryStore) *Aggregator {
	return &Aggregator{records: rec, directory: dir, now: time.Now}
}

// TrendPoint is one calendar day of the trend series. Late and half-day
// count toward the rate numerator: only full absence penalizes it.
type TrendPoint struct {
	Date           string  `json:"date"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Late           int     `json:"late"`
	HalfDay        int     `json:"half_day"`
	Total          int     `json:"total"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// DailyTrend returns one point per calendar day for the window ending
// today. The series is dense: days without records appear zero-filled.
// userID narrows to one user when non-empty.
func (a *Aggregator) DailyTrend(ctx context.Context, days int, userID string) ([]TrendPoint, error) {
	if days <= 0 {
		days = 7
	}
	today := dayOf(a.now().UTC())
	start := today.AddDate(0, 0, -(days - 1))

	counts, err := a.records.CountsByDay(ctx, start, today, userID)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, days)
	index := make(map[string]*TrendPoint, days)
	for i := range points {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		points[i].Date = date
		index[date] = &points[i]
	}

	for _, c := range counts {
		p, ok := index[dayOf(c.Day).Format("2006-01-02")]
		if !ok {
			continue
		}
		switch c.Status {
		case records.StatusPresent:
			p.Present += c.Count
		case records.StatusAbsent:
			p.Absent += c.Count
		case records.StatusLate:
			p.Late += c.Count
		case records.StatusHalfDay:
			p.HalfDay += c.Count
		}
	}

	for i := range points {
		p := &points[i]
		p.Total = p.Present + p.Absent + p.Late + p.HalfDay
		p.AttendanceRate = rate(p.Present+p.Late+p.HalfDay, p.Total)
	}
	return points, nil
}

// PeriodStats summarizes a window for one user (or everyone when userID
// is empty). An empty window yields a zero summary, not an error.
func (a *Aggregator) PeriodStats(ctx context.Context, userID string, from, to time.Time) (records.Summary, error) {
	return a.records.Summarize(ctx, userID, dayOf(from), dayOf(to))
}

// DaysWindow derives the [from, to] day pair for a trailing day count.
func (a *Aggregator) DaysWindow(days int) (time.Time, time.Time) {
	if days <= 0 {
		days = 7
	}
	today := dayOf(a.now().UTC())
	return today.AddDate(0, 0, -(days - 1)), today
}

// MonthWindow derives the [from, to] day pair for a calendar month.
func MonthWindow(month time.Month, year int) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, -1)
}

// Snapshot combines today's counts, directory-wide role counts, the
// department breakdown, and the month-to-date attendance rate.
type Snapshot struct {
	Date        string                      `json:"date"`
	Today       records.Summary             `json:"today"`
	UsersByRole map[directory.Role]int      `json:"users_by_role"`
	Departments []directory.DepartmentCount `json:"departments"`
	MonthlyRate float64                     `json:"monthly_attendance_rate"`
}

// BuildSnapshot assembles the dashboard snapshot. The four queries touch
// disjoint data and run concurrently.
func (a *Aggregator) BuildSnapshot(ctx context.Context) (Snapshot, error) {
	today := dayOf(a.now().UTC())
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	var (
		wg       sync.WaitGroup
		todaySum records.Summary
		monthSum records.Summary
		byRole   map[directory.Role]int
		byDept   []directory.DepartmentCount
		errs     [4]error
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		todaySum, errs[0] = a.records.Summarize(ctx, "", today, today)
	}()
	go func() {
		defer wg.Done()
		monthSum, errs[1] = a.records.Summarize(ctx, "", monthStart, today)
	}()
	go func() {
		defer wg.Done()
		byRole, errs[2] = a.directory.CountActiveByRole(ctx)
	}()
	go func() {
		defer wg.Done()
		byDept, errs[3] = a.directory.DepartmentBreakdown(ctx)
	}()
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return Snapshot{}, err
		}
	}

	return Snapshot{
		Date:        today.Format("2006-01-02"),
		Today:       todaySum,
		UsersByRole: byRole,
		Departments: byDept,
		MonthlyRate: rate(monthSum.Present+monthSum.Late+monthSum.HalfDay, monthSum.Total),
	}, nil
}

// rate returns attended/total as a percentage rounded to one decimal.
func rate(attended, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(attended)/float64(total)*1000) / 10
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
