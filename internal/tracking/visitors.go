package tracking

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/harishcmuthyala/portfolio/internal/db"
)

// untracked path prefixes: assets, the admin area, APIs and HTMX fragments.
var untracked = []string{
	"/static/", "/images/", "/admin/", "/favicon", "/privacy", "/api/", "/view/", "/healthz",
}

// Recorder stores page views with the client IP hashed.
type Recorder struct {
	db   *sql.DB
	salt string
	log  logrus.FieldLogger
	now  func() time.Time
	wg   sync.WaitGroup
}

func NewRecorder(database *sql.DB, salt string, logger logrus.FieldLogger) *Recorder {
	return &Recorder{db: database, salt: salt, log: logger, now: time.Now}
}

// NewSalt returns 32 random bytes, hex encoded.
func NewSalt() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashIP returns a salted, truncated hash that is stable per IP for the process lifetime.
func (r *Recorder) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + r.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// Middleware records page views in the background. Requests with DNT: 1 and untracked paths
// are skipped.
func (r *Recorder) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if Tracked(path) && c.GetHeader("DNT") != "1" && c.Request.Method == "GET" {
			r.record(c.ClientIP(), c.GetHeader("User-Agent"), path)
		}
		c.Next()
	}
}

// Tracked reports whether page views of path are recorded.
func Tracked(path string) bool {
	for _, p := range untracked {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	return true
}

func (r *Recorder) record(ip, userAgent, path string) {
	v := db.Visitor{HashedIP: r.HashIP(ip), UserAgent: userAgent, Path: path, Timestamp: r.now()}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := db.RecordVisitor(r.db, v); err != nil {
			r.log.WithError(err).Warn("recording visitor")
		}
	}()
}

// Cleanup removes page views past the retention period.
func (r *Recorder) Cleanup() (int64, error) {
	n, err := db.CleanupVisitors(r.db, r.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.log.WithField("removed", n).Infof("privacy cleanup: removed visitor records older than %d months", db.VisitorRetention)
	}
	return n, nil
}

// Wait blocks until background inserts finish.
func (r *Recorder) Wait() { r.wg.Wait() }
