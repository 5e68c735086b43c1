package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harishcmuthyala/portfolio/internal/db"
)

type statusCheckCreate struct {
	ClientName string `json:"client_name" binding:"required"`
}

func (s *Server) handleAPIRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello World"})
}

func (s *Server) handleCreateStatus(c *gin.Context) {
	var in statusCheckCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	sc, err := db.InsertStatusCheck(s.db, in.ClientName, time.Now())
	if err != nil {
		s.log.WithError(err).Error("storing status check")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to store status check"})
		return
	}
	c.JSON(http.StatusOK, sc)
}

func (s *Server) handleListStatus(c *gin.Context) {
	checks, err := db.ListStatusChecks(s.db, 1000)
	if err != nil {
		s.log.WithError(err).Error("listing status checks")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list status checks"})
		return
	}
	c.JSON(http.StatusOK, checks)
}

func (s *Server) handleTrackDownload(c *gin.Context) {
	_, total, err := db.RecordResumeDownload(s.db, db.ResumeDownload{
		DownloadedAt: time.Now(),
		UserAgent:    c.Query("user_agent"),
	})
	if err != nil {
		s.log.WithError(err).Error("Error tracking resume download")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to track download"})
		return
	}
	s.log.WithField("total_downloads", total).Info("Resume downloaded")
	c.JSON(http.StatusOK, gin.H{"message": "Download tracked", "total_downloads": total})
}

func (s *Server) handleDownloadStats(c *gin.Context) {
	total, err := db.CountResumeDownloads(s.db, time.Time{})
	if err != nil {
		s.statsFailed(c, err)
		return
	}
	recent, err := db.CountResumeDownloads(s.db, db.MonthStart(time.Now()))
	if err != nil {
		s.statsFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_downloads": total, "recent_downloads": recent})
}

func (s *Server) statsFailed(c *gin.Context, err error) {
	s.log.WithError(err).Error("Error getting resume stats")
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to get stats"})
}
