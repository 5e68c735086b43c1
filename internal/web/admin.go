// admin.go - privacy-conscious admin area
package web

import (
	"crypto/subtle"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/harishcmuthyala/portfolio/internal/config"
	"github.com/harishcmuthyala/portfolio/internal/db"
	perrors "github.com/harishcmuthyala/portfolio/internal/errors"
	"github.com/harishcmuthyala/portfolio/internal/tracking"
)

const adminCookie = "admin_token"

type admin struct {
	token    string
	username string
	password string
	db       *sql.DB
	recorder *tracking.Recorder
	log      logrus.FieldLogger
}

func newAdmin(cfg config.AdminConfig, database *sql.DB, rec *tracking.Recorder, log logrus.FieldLogger) (*admin, error) {
	token, err := tracking.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("generating admin token: %w", err)
	}
	if gin.Mode() == gin.DebugMode {
		log.Debugf("Admin token (dev only): %s", token)
		if cfg.Username == "admin" || cfg.Password == "admin123" {
			log.Warn("Using default admin credentials. Set ADMIN_USERNAME and ADMIN_PASSWORD.")
		}
	}
	return &admin{
		token:    token,
		username: cfg.Username,
		password: cfg.Password,
		db:       database,
		recorder: rec,
		log:      log,
	}, nil
}

// authMiddleware sends requests without a valid token cookie to the login page. JSON endpoints
// get a 401 instead.
func (a *admin) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err == nil && equal(token, a.token) {
			c.Next()
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, "/admin/api/") {
			e := perrors.NewUnauthorized()
			c.AbortWithStatusJSON(e.Status, gin.H{"error": e.Message})
			return
		}
		c.Redirect(http.StatusFound, "/admin/login")
		c.Abort()
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (a *admin) routes(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title":     "Privacy Policy",
			"retention": db.VisitorRetention,
		})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{"title": "Admin Login"})
	})
	r.POST("/admin/login", a.handleLogin)
	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		a.log.Infof("Admin logout from %s", a.recorder.HashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/login")
	})

	group := r.Group("/admin")
	group.Use(a.authMiddleware())

	group.GET("/dashboard", func(c *gin.Context) {
		stats, err := db.GetStats(a.db, time.Now())
		if err != nil {
			a.log.WithError(err).Error("Error loading admin stats")
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{"stats": stats})
	})

	group.GET("/api/stats", func(c *gin.Context) {
		stats, err := db.GetStats(a.db, time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	group.POST("/privacy/cleanup", func(c *gin.Context) {
		n, err := a.recorder.Cleanup()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Privacy cleanup failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup complete", "removed": n})
	})

	group.GET("/export/stats", func(c *gin.Context) {
		stats, err := db.GetStats(a.db, time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		a.log.Infof("Admin stats exported by %s", a.recorder.HashIP(c.ClientIP()))
		c.JSON(http.StatusOK, stats)
	})
}

func (a *admin) handleLogin(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	if equal(username, a.username) && equal(password, a.password) {
		// 24 hours
		c.SetCookie(adminCookie, a.token, 3600*24, "/admin", "", false, true)
		a.log.Infof("Admin login successful from %s", a.recorder.HashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/dashboard")
		return
	}
	a.log.Warnf("Failed admin login attempt from %s", a.recorder.HashIP(c.ClientIP()))
	c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
		"title": "Admin Login",
		"error": "Invalid credentials",
	})
}
