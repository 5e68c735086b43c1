package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/harishcmuthyala/portfolio/internal/errors"
)

// VisitorRetention is how long visitor rows are kept.
const VisitorRetention = 12

// Visitor is one tracked page view. The client IP is only ever stored hashed.
type Visitor struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

type ResumeDownload struct {
	ID           string    `json:"id"`
	DownloadedAt time.Time `json:"downloaded_at"`
	UserAgent    string    `json:"user_agent,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
}

type StatusCheck struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalVisitors    int64     `json:"total_visitors"`
	UniqueVisitors   int64     `json:"unique_visitors"`
	VisitorsToday    int64     `json:"visitors_today"`
	VisitorsThisWeek int64     `json:"visitors_this_week"`
	TotalDownloads   int64     `json:"total_downloads"`
	RecentDownloads  int64     `json:"recent_downloads"`
	RecentVisitors   []Visitor `json:"recent_visitors"`
}

// RecordVisitor inserts a page view.
func RecordVisitor(db *sql.DB, v Visitor) error {
	_, err := db.Exec(`
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, v.HashedIP, toNullString(v.UserAgent), toNullString(v.Path), v.Timestamp.UnixMilli())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// RecentVisitors returns the latest page views, newest first.
func RecentVisitors(db *sql.DB, limit int) ([]Visitor, error) {
	rows, err := db.Query(`
		SELECT id, hashed_ip, user_agent, path, timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []Visitor
	for rows.Next() {
		var (
			v         Visitor
			userAgent sql.NullString
			path      sql.NullString
			ts        int64
		)
		if err := rows.Scan(&v.ID, &v.HashedIP, &userAgent, &path, &ts); err != nil {
			return nil, errors.NewInternal(err)
		}
		v.UserAgent = userAgent.String
		v.Path = path.String
		v.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// CleanupVisitors deletes page views older than VisitorRetention months before now and returns
// how many were removed.
func CleanupVisitors(db *sql.DB, now time.Time) (int64, error) {
	cutoff := now.AddDate(0, -VisitorRetention, 0)
	res, err := db.Exec(`DELETE FROM visitors WHERE timestamp < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RecordResumeDownload stores a download event and returns the new total.
func RecordResumeDownload(db *sql.DB, d ResumeDownload) (ResumeDownload, int64, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.DownloadedAt.IsZero() {
		d.DownloadedAt = time.Now()
	}
	_, err := db.Exec(`
		INSERT INTO resume_downloads (id, downloaded_at, user_agent, ip_address)
		VALUES (?, ?, ?, ?)
	`, d.ID, d.DownloadedAt.UnixMilli(), toNullString(d.UserAgent), toNullString(d.IPAddress))
	if err != nil {
		return ResumeDownload{}, 0, errors.NewInternal(err)
	}

	total, err := CountResumeDownloads(db, time.Time{})
	if err != nil {
		return ResumeDownload{}, 0, err
	}
	return d, total, nil
}

// CountResumeDownloads counts downloads at or after since; a zero since counts all of them.
func CountResumeDownloads(db *sql.DB, since time.Time) (int64, error) {
	var n int64
	var err error
	if since.IsZero() {
		err = db.QueryRow(`SELECT COUNT(*) FROM resume_downloads`).Scan(&n)
	} else {
		err = db.QueryRow(`SELECT COUNT(*) FROM resume_downloads WHERE downloaded_at >= ?`,
			since.UnixMilli()).Scan(&n)
	}
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// MonthStart returns midnight UTC on the first day of now's month.
func MonthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// InsertStatusCheck stores a status check for clientName.
func InsertStatusCheck(db *sql.DB, clientName string, now time.Time) (StatusCheck, error) {
	sc := StatusCheck{ID: uuid.NewString(), ClientName: clientName, Timestamp: now.UTC()}
	_, err := db.Exec(`INSERT INTO status_checks (id, client_name, timestamp) VALUES (?, ?, ?)`,
		sc.ID, sc.ClientName, sc.Timestamp.UnixMilli())
	if err != nil {
		return StatusCheck{}, errors.NewInternal(err)
	}
	sc.Timestamp = time.UnixMilli(sc.Timestamp.UnixMilli()).UTC()
	return sc, nil
}

// ListStatusChecks returns up to limit status checks, oldest first.
func ListStatusChecks(db *sql.DB, limit int) ([]StatusCheck, error) {
	rows, err := db.Query(`
		SELECT id, client_name, timestamp FROM status_checks
		ORDER BY timestamp ASC, rowid ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := []StatusCheck{}
	for rows.Next() {
		var sc StatusCheck
		var ts int64
		if err := rows.Scan(&sc.ID, &sc.ClientName, &ts); err != nil {
			return nil, errors.NewInternal(err)
		}
		sc.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// GetStats gathers the dashboard figures as of now.
func GetStats(db *sql.DB, now time.Time) (*Stats, error) {
	stats := &Stats{}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	week := now.AddDate(0, 0, -7)

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{today.UnixMilli()}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{week.UnixMilli()}},
	}
	for _, c := range counts {
		if err := db.QueryRow(c.query, c.args...).Scan(c.dst); err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	var err error
	if stats.TotalDownloads, err = CountResumeDownloads(db, time.Time{}); err != nil {
		return nil, err
	}
	if stats.RecentDownloads, err = CountResumeDownloads(db, MonthStart(now)); err != nil {
		return nil, err
	}
	if stats.RecentVisitors, err = RecentVisitors(db, 50); err != nil {
		return nil, err
	}
	return stats, nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
