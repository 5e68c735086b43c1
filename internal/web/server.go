package web

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/harishcmuthyala/portfolio/internal/config"
	"github.com/harishcmuthyala/portfolio/internal/content"
	"github.com/harishcmuthyala/portfolio/internal/page"
	"github.com/harishcmuthyala/portfolio/internal/session"
	"github.com/harishcmuthyala/portfolio/internal/tracking"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Deps is everything the server is built from.
type Deps struct {
	Config  *config.Config
	Content *content.Store
	DB      *sql.DB
	Log     *logrus.Logger
	// Clock drives contact resets and session expiry; the wall clock when nil.
	Clock clock.Clock
}

// Server is the portfolio HTTP surface.
type Server struct {
	cfg       *config.Config
	content   *content.Store
	db        *sql.DB
	log       *logrus.Logger
	sessions  *session.Store
	notifier  *tracking.Notifier
	recorder  *tracking.Recorder
	admin     *admin
	engine    *gin.Engine
	resumeURL string
	htmxSrc   string
}

// New wires the server. It does not start listening.
func New(d Deps) (*Server, error) {
	if d.Config == nil || d.Content == nil || d.DB == nil || d.Log == nil {
		return nil, errors.New("web: config, content, db and logger are required")
	}
	clk := d.Clock
	if clk == nil {
		clk = clock.New()
	}
	cfg := d.Config

	s := &Server{
		cfg:     cfg,
		content: d.Content,
		db:      d.DB,
		log:     d.Log,
	}

	s.resumeURL = resumeTarget(cfg.ResumeURL, d.Content.Profile(), staticFS)
	if s.resumeURL != cfg.ResumeURL && s.resumeURL != d.Content.Profile().ResumeURL {
		d.Log.WithField("resume_url", d.Content.Profile().ResumeURL).
			Warn("Resume file is not embedded; /resume redirects to the profile instead. Set resume_url.")
	}

	factory := func(kind page.Kind) *page.View {
		deps := page.Deps{
			Content:    d.Content,
			Reveal:     cfg.RevealEnabled,
			Recipient:  cfg.Contact.Recipient,
			Clock:      clk,
			ResetDelay: cfg.Contact.ResetDelay,
			OnReveal: func(kind page.Kind, section string) {
				d.Log.WithFields(logrus.Fields{"view": kind, "section": section}).Debug("section revealed")
			},
		}
		if kind == page.KindIdeas {
			return page.NewIdeas(deps)
		}
		return page.NewHome(deps)
	}
	s.sessions = session.New(cfg.Session.TTL, factory, session.WithClock(clk), session.WithLogger(d.Log))

	collector := cfg.CollectorURL
	if collector == "" {
		collector = selfCollectorURL(cfg)
	}
	s.notifier = tracking.NewNotifier(collector, cfg.Tracking.RetryMax, cfg.Tracking.Timeout, d.Log)

	salt, err := tracking.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("generating hashing salt: %w", err)
	}
	s.recorder = tracking.NewRecorder(d.DB, salt, d.Log)

	s.admin, err = newAdmin(cfg.Admin, d.DB, s.recorder, d.Log)
	if err != nil {
		return nil, err
	}

	s.htmxSrc = htmxSource(staticFS, cfg.HTMXURL)

	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// vendoredHTMX is the embedded htmx copy served in preference to htmx_url.
const vendoredHTMX = "static/js/htmx.min.js"

// htmxSource returns the script URL for htmx: the embedded copy when one was built in, else
// fallback.
func htmxSource(fsys fs.FS, fallback string) string {
	if _, err := fs.Stat(fsys, vendoredHTMX); err == nil {
		return "/" + vendoredHTMX
	}
	return fallback
}

// resumeTarget picks where /resume redirects: the configured URL, else the profile's resume when
// it is external or embedded under /static, else the profile's LinkedIn page.
func resumeTarget(configured string, p content.Profile, fsys fs.FS) string {
	if configured != "" {
		return configured
	}
	if u := p.ResumeURL; u != "" {
		if !strings.HasPrefix(u, "/static/") {
			return u
		}
		if _, err := fs.Stat(fsys, strings.TrimPrefix(u, "/")); err == nil {
			return u
		}
	}
	if p.LinkedIn != "" {
		return p.LinkedIn
	}
	return "/"
}

// selfCollectorURL points notifications at this server's own collector API.
func selfCollectorURL(cfg *config.Config) string {
	host := cfg.Bind
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d/api/resume/download", host, cfg.Port)
}

func (s *Server) routes() error {
	if s.cfg.GinMode != "" {
		gin.SetMode(s.cfg.GinMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log), corsMiddleware(s.cfg.CORSOrigins), s.recorder.Middleware())

	tmpl, err := parseTemplates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return fmt.Errorf("static sub-FS: %w", err)
	}
	r.StaticFS("/static", http.FS(staticSub))

	r.GET("/healthz", s.handleHealth)

	// Pages
	r.GET("/", s.handleHome)
	r.GET("/ideas", s.handleIdeas)
	r.GET("/resume", s.handleResume)

	// HTMX fragments
	v := r.Group("/view")
	v.POST("/sections/:id/intersect", s.handleIntersect)
	v.POST("/experience/select", s.handleExperienceSelect)
	v.POST("/projects/filter", s.handleProjectsFilter)
	v.POST("/ideas/toggle", s.handleIdeaToggle)
	v.POST("/menu/toggle", s.handleMenuToggle)
	v.POST("/navigate", s.handleNavigate)
	v.POST("/contact", s.handleContactSubmit)
	v.GET("/contact/form", s.handleContactForm)

	// Download collector
	api := r.Group("/api")
	api.GET("/", s.handleAPIRoot)
	api.POST("/status", s.handleCreateStatus)
	api.GET("/status", s.handleListStatus)
	api.POST("/resume/download", s.handleTrackDownload)
	api.GET("/resume/stats", s.handleDownloadStats)

	s.admin.routes(r)

	s.engine = r
	return nil
}

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return tmpl, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Sessions exposes the per-visitor view store.
func (s *Server) Sessions() *session.Store { return s.sessions }

// Run serves on the configured address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go s.sessions.Run(janitorCtx, s.cfg.Session.JanitorInterval)

	go func() {
		if _, err := s.recorder.Cleanup(); err != nil {
			s.log.WithError(err).Warn("visitor cleanup failed")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Infof("Portfolio running at http://%s", srv.Addr)
	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		s.log.Warn("Server is binding to all interfaces and may be accessible from the network")
	}
	s.log.Info("Admin access available at: /admin/login")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.notifier.Wait()
		s.recorder.Wait()
		return err
	}
}
