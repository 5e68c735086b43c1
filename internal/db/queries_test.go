package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(filepath.Join(t.TempDir(), "portfolio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var now = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

func TestResumeDownloads(t *testing.T) {
	db := openTestDB(t)

	times := []time.Time{
		now.AddDate(0, -2, 0),
		now.AddDate(0, 0, -20), // February 23rd
		time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		now.Add(-time.Hour),
	}
	var total int64
	for i, at := range times {
		d, n, err := RecordResumeDownload(db, ResumeDownload{DownloadedAt: at, UserAgent: "test-agent"})
		require.NoError(t, err)
		require.NotEmpty(t, d.ID)
		require.Equal(t, int64(i+1), n)
		total = n
	}
	require.Equal(t, int64(4), total)

	recent, err := CountResumeDownloads(db, MonthStart(now))
	require.NoError(t, err)
	require.Equal(t, int64(2), recent)

	all, err := CountResumeDownloads(db, time.Time{})
	require.NoError(t, err)
	require.Equal(t, int64(4), all)
}

func TestRecordResumeDownload_Defaults(t *testing.T) {
	db := openTestDB(t)

	d, n, err := RecordResumeDownload(db, ResumeDownload{})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.NotEmpty(t, d.ID)
	require.False(t, d.DownloadedAt.IsZero())
}

func TestMonthStart(t *testing.T) {
	require.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), MonthStart(now))
	loc := time.FixedZone("UTC+10", 10*3600)
	// 2025-04-01 05:00 in UTC+10 is still March 31st in UTC.
	require.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		MonthStart(time.Date(2025, time.April, 1, 5, 0, 0, 0, loc)))
}

func TestStatusChecks(t *testing.T) {
	db := openTestDB(t)

	empty, err := ListStatusChecks(db, 1000)
	require.NoError(t, err)
	require.Empty(t, empty)
	require.NotNil(t, empty)

	first, err := InsertStatusCheck(db, "alpha", now)
	require.NoError(t, err)
	_, err = InsertStatusCheck(db, "beta", now.Add(time.Second))
	require.NoError(t, err)

	checks, err := ListStatusChecks(db, 1000)
	require.NoError(t, err)
	require.Len(t, checks, 2)
	require.Equal(t, first, checks[0])
	require.Equal(t, "beta", checks[1].ClientName)
}

func TestVisitorsAndStats(t *testing.T) {
	db := openTestDB(t)

	visits := []Visitor{
		{HashedIP: "aaaa", Path: "/", Timestamp: now.Add(-time.Hour)},
		{HashedIP: "aaaa", Path: "/ideas", Timestamp: now.Add(-2 * time.Hour)},
		{HashedIP: "bbbb", Path: "/", UserAgent: "curl", Timestamp: now.AddDate(0, 0, -3)},
		{HashedIP: "cccc", Path: "/", Timestamp: now.AddDate(0, 0, -30)},
		{HashedIP: "dddd", Path: "/", Timestamp: now.AddDate(-2, 0, 0)},
	}
	for _, v := range visits {
		require.NoError(t, RecordVisitor(db, v))
	}
	_, _, err := RecordResumeDownload(db, ResumeDownload{DownloadedAt: now})
	require.NoError(t, err)

	stats, err := GetStats(db, now)
	require.NoError(t, err)
	require.Equal(t, int64(5), stats.TotalVisitors)
	require.Equal(t, int64(4), stats.UniqueVisitors)
	require.Equal(t, int64(2), stats.VisitorsToday)
	require.Equal(t, int64(3), stats.VisitorsThisWeek)
	require.Equal(t, int64(1), stats.TotalDownloads)
	require.Equal(t, int64(1), stats.RecentDownloads)
	require.Len(t, stats.RecentVisitors, 5)
	require.Equal(t, "/", stats.RecentVisitors[0].Path)
	require.Equal(t, now.Add(-time.Hour), stats.RecentVisitors[0].Timestamp)
	require.Equal(t, "curl", stats.RecentVisitors[2].UserAgent)

	removed, err := CleanupVisitors(db, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	recent, err := RecentVisitors(db, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
}
