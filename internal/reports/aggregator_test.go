package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendhub/internal/directory"
	"attendhub/internal/records"
)

type fakeRecordStore struct {
	counts    []records.DayStatusCount
	countsErr error

	summaries map[string]records.Summary // keyed by from date
	sumErr    error
}

func (f *fakeRecordStore) CountsByDay(ctx context.Context, from, to time.Time, userID string) ([]records.DayStatusCount, error) {
	return f.counts, f.countsErr
}

func (f *fakeRecordStore) Summarize(ctx context.Context, userID string, from, to time.Time) (records.Summary, error) {
	if f.sumErr != nil {
		return records.Summary{}, f.sumErr
	}
	return f.summaries[from.Format("2006-01-02")], nil
}

type fakeDirectoryStore struct {
	byRole map[directory.Role]int
	byDept []directory.DepartmentCount
	err    error
}

func (f *fakeDirectoryStore) CountActiveByRole(ctx context.Context) (map[directory.Role]int, error) {
	return f.byRole, f.err
}

func (f *fakeDirectoryStore) DepartmentBreakdown(ctx context.Context) ([]directory.DepartmentCount, error) {
	return f.byDept, f.err
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)
}

func newTestAggregator(rec RecordStore, dir DirectoryStore) *Aggregator {
	a := NewAggregator(rec, dir)
	a.now = fixedNow
	return a
}

// The trend series is dense: every calendar day in the window appears,
// zero-filled when no records exist.
func TestDailyTrend_DenseWindow(t *testing.T) {
	a := newTestAggregator(&fakeRecordStore{}, &fakeDirectoryStore{})

	points, err := a.DailyTrend(context.Background(), 7, "")
	require.NoError(t, err)
	require.Len(t, points, 7)
	assert.Equal(t, "2026-08-25", points[0].Date)
	assert.Equal(t, "2026-08-31", points[6].Date)
	for _, p := range points {
		assert.Zero(t, p.Total)
		assert.Zero(t, p.AttendanceRate)
	}
}

func TestDailyTrend_RateFormula(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	a := newTestAggregator(&fakeRecordStore{counts: []records.DayStatusCount{
		{Day: day, Status: records.StatusPresent, Count: 5},
		{Day: day, Status: records.StatusLate, Count: 2},
		{Day: day, Status: records.StatusAbsent, Count: 1},
	}}, &fakeDirectoryStore{})

	points, err := a.DailyTrend(context.Background(), 7, "")
	require.NoError(t, err)

	p := points[5]
	require.Equal(t, "2026-08-30", p.Date)
	assert.Equal(t, 8, p.Total)
	assert.Equal(t, 87.5, p.AttendanceRate)
}

func TestDailyTrend_DefaultDays(t *testing.T) {
	a := newTestAggregator(&fakeRecordStore{}, &fakeDirectoryStore{})

	points, err := a.DailyTrend(context.Background(), 0, "")
	require.NoError(t, err)
	assert.Len(t, points, 7)
}

func TestDailyTrend_StoreError(t *testing.T) {
	a := newTestAggregator(&fakeRecordStore{countsErr: errors.New("boom")}, &fakeDirectoryStore{})

	_, err := a.DailyTrend(context.Background(), 7, "")
	assert.Error(t, err)
}

func TestPeriodStats_EmptyWindowIsZero(t *testing.T) {
	a := newTestAggregator(&fakeRecordStore{}, &fakeDirectoryStore{})

	sum, err := a.PeriodStats(context.Background(), "u-1",
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, records.Summary{}, sum)
}

func TestMonthWindow(t *testing.T) {
	from, to := MonthWindow(time.February, 2026)
	assert.Equal(t, "2026-02-01", from.Format("2006-01-02"))
	assert.Equal(t, "2026-02-28", to.Format("2006-01-02"))
}

func TestBuildSnapshot(t *testing.T) {
	rec := &fakeRecordStore{summaries: map[string]records.Summary{
		// today's counts
		"2026-08-31": {Total: 10, Present: 8, Absent: 1, Late: 1},
		// month-to-date: 90 of 100 recorded days attended
		"2026-08-01": {Total: 100, Present: 80, Late: 6, HalfDay: 4, Absent: 10},
	}}
	dir := &fakeDirectoryStore{
		byRole: map[directory.Role]int{directory.RoleAdmin: 1, directory.RoleEmployee: 30},
		byDept: []directory.DepartmentCount{{Department: "General", Count: 20}},
	}
	a := newTestAggregator(rec, dir)

	snap, err := a.BuildSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-08-31", snap.Date)
	assert.Equal(t, 10, snap.Today.Total)
	assert.Equal(t, 30, snap.UsersByRole[directory.RoleEmployee])
	require.Len(t, snap.Departments, 1)
	assert.Equal(t, 90.0, snap.MonthlyRate)
}

func TestBuildSnapshot_StoreError(t *testing.T) {
	a := newTestAggregator(&fakeRecordStore{sumErr: errors.New("down")}, &fakeDirectoryStore{})

	_, err := a.BuildSnapshot(context.Background())
	assert.Error(t, err)
}
