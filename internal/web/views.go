package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harishcmuthyala/portfolio/internal/contact"
	perrors "github.com/harishcmuthyala/portfolio/internal/errors"
	"github.com/harishcmuthyala/portfolio/internal/nav"
	"github.com/harishcmuthyala/portfolio/internal/page"
	"github.com/harishcmuthyala/portfolio/internal/selection"
	"github.com/harishcmuthyala/portfolio/internal/session"
)

// Client events delivered through the HX-Trigger response header.
const (
	eventScroll = "portfolio:scroll"
	eventMailto = "portfolio:mailto"
	eventToast  = "portfolio:toast"
)

const (
	toastSuccess = "Opening your email client. Please send the message."
	toastFailure = "Failed to send message. Please try again."
)

// events collects client instructions for one response.
type events map[string]any

func (e events) toast(level, message string) {
	e[eventToast] = gin.H{"level": level, "message": message}
}

func (e events) write(c *gin.Context) {
	if len(e) == 0 {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("HX-Trigger", string(b))
}

// scrollEvents turns recorded scroll requests into the client's scroll event.
func scrollEvents(r *nav.Requests) events {
	ev := events{}
	if targets := r.Targets(); len(targets) > 0 {
		last := targets[len(targets)-1]
		ev[eventScroll] = gin.H{"target": last.ID, "behavior": "smooth", "block": string(nav.AlignTop)}
	}
	return ev
}

// mount replaces the visitor's view of kind and returns it.
func (s *Server) mount(c *gin.Context, kind page.Kind) *page.View {
	cookie, _ := c.Cookie(session.CookieName)
	id, v := s.sessions.Mount(cookie, kind)
	s.setSessionCookie(c, cookie, id)
	return v
}

// view returns the visitor's current view of kind, mounting one for unknown or expired sessions.
func (s *Server) view(c *gin.Context, kind page.Kind) *page.View {
	cookie, _ := c.Cookie(session.CookieName)
	id, v, fresh := s.sessions.View(cookie, kind)
	if fresh {
		s.log.WithField("view", kind).Debug("mounted view for fragment request")
	}
	s.setSessionCookie(c, cookie, id)
	return v
}

func (s *Server) setSessionCookie(c *gin.Context, old, id string) {
	if old == id {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, id, int(s.cfg.Session.TTL.Seconds()), "/", "", false, true)
}

func (s *Server) handleHome(c *gin.Context) {
	v := s.mount(c, page.KindHome)
	c.HTML(http.StatusOK, "index.html", s.data(v))
}

func (s *Server) handleIdeas(c *gin.Context) {
	v := s.mount(c, page.KindIdeas)
	c.HTML(http.StatusOK, "ideas.html", s.data(v))
}

func (s *Server) handleResume(c *gin.Context) {
	s.notifier.ResumeDownloaded(c.GetHeader("User-Agent"))
	c.Redirect(http.StatusFound, s.resumeURL)
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.db.PingContext(c.Request.Context()); err != nil {
		s.log.WithError(err).Error("health check: database")
		e := perrors.NewUnavailable("database")
		c.JSON(e.Status, gin.H{"status": e.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "content_version": s.content.Version()})
}

func (s *Server) handleIntersect(c *gin.Context) {
	id := c.Param("id")
	kind := page.KindHome
	if id == "ideas" {
		kind = page.KindIdeas
	}
	ratio, err := strconv.ParseFloat(c.PostForm("ratio"), 64)
	if err != nil || ratio < 0 || ratio > 1 {
		s.fail(c, perrors.NewInvalidField("ratio", c.PostForm("ratio")))
		return
	}

	v := s.view(c, kind)
	sec, ok := v.Report(id, ratio)
	if !ok {
		s.fail(c, perrors.NewNotFound("section "+id))
		return
	}
	if !sec.Revealed() {
		c.Status(http.StatusNoContent)
		return
	}
	c.HTML(http.StatusOK, "section-"+id, s.data(v))
}

func (s *Server) handleExperienceSelect(c *gin.Context) {
	index, err := strconv.Atoi(c.PostForm("index"))
	if err != nil {
		s.fail(c, perrors.NewInvalidField("index", c.PostForm("index")))
		return
	}
	v := s.view(c, page.KindHome)
	if _, err := v.SelectExperience(index); err != nil {
		s.fail(c, selectionError("index", c.PostForm("index"), err))
		return
	}
	c.HTML(http.StatusOK, "experience-panel", s.data(v))
}

func (s *Server) handleProjectsFilter(c *gin.Context) {
	category := c.PostForm("category")
	v := s.view(c, page.KindHome)
	if _, err := v.FilterProjects(category); err != nil {
		s.fail(c, selectionError("category", category, err))
		return
	}
	c.HTML(http.StatusOK, "projects-panel", s.data(v))
}

func (s *Server) handleIdeaToggle(c *gin.Context) {
	id, err := strconv.Atoi(c.PostForm("id"))
	if err != nil {
		s.fail(c, perrors.NewInvalidField("id", c.PostForm("id")))
		return
	}
	v := s.view(c, page.KindIdeas)
	if err := v.ToggleIdea(id); err != nil {
		s.fail(c, selectionError("id", c.PostForm("id"), err))
		return
	}
	c.HTML(http.StatusOK, "ideas-grid", s.data(v))
}

func (s *Server) handleMenuToggle(c *gin.Context) {
	kind, err := viewKind(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	v := s.view(c, kind)
	v.Menu().Toggle()
	c.HTML(http.StatusOK, "mobile-menu", s.data(v))
}

func (s *Server) handleNavigate(c *gin.Context) {
	kind, err := viewKind(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	v := s.view(c, kind)
	var requests nav.Requests
	target := c.PostForm("target")

	if c.PostForm("source") == "mobile" {
		v.Navigator().MenuNavigateTo(&requests, target)
		scrollEvents(&requests).write(c)
		c.HTML(http.StatusOK, "mobile-menu", s.data(v))
		return
	}
	v.Navigator().NavigateTo(&requests, target)
	scrollEvents(&requests).write(c)
	c.Status(http.StatusOK)
}

// viewKind picks the view a shared fragment (menu, navigation) belongs to. Home when unset.
func viewKind(c *gin.Context) (page.Kind, error) {
	switch k := page.Kind(c.PostForm("view")); k {
	case "", page.KindHome:
		return page.KindHome, nil
	case page.KindIdeas:
		return page.KindIdeas, nil
	default:
		return "", perrors.NewInvalidRequest("unknown view " + string(k))
	}
}

// mailOpener hands the mailto URI to the browser as a client event.
type mailOpener struct {
	ev events
}

func (o mailOpener) Open(uri string) error {
	o.ev[eventMailto] = gin.H{"uri": uri}
	return nil
}

func (s *Server) handleContactSubmit(c *gin.Context) {
	v := s.view(c, page.KindHome)
	composer := v.Contact()
	draft := contact.Draft{
		Name:    c.PostForm("name"),
		Email:   c.PostForm("email"),
		Subject: c.PostForm("subject"),
		Message: c.PostForm("message"),
	}

	ev := events{}
	_, err := composer.SubmitDraft(draft, mailOpener{ev: ev})
	data := s.data(v)
	switch {
	case err == nil:
		ev.toast("success", toastSuccess)
	case errors.Is(err, contact.ErrBusy), errors.Is(err, contact.ErrClosed):
		// Duplicate submission; nothing to hand off.
	default:
		s.log.WithError(err).Info("contact handoff failed")
		delete(ev, eventMailto)
		ev.toast("error", toastFailure)
		data.Contact.Draft = draft
		data.Contact.Error = err.Error()
	}
	ev.write(c)
	c.HTML(http.StatusOK, "contact-form", data)
}

func (s *Server) handleContactForm(c *gin.Context) {
	v := s.view(c, page.KindHome)
	c.HTML(http.StatusOK, "contact-form", s.data(v))
}

func selectionError(field, value string, err error) error {
	if errors.Is(err, selection.ErrUnknownMember) {
		return perrors.NewInvalidField(field, value)
	}
	return perrors.NewInternal(err)
}

// fail answers a fragment request with the error's status and a plain message.
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	if perrors.Is(err, perrors.ErrInternal) {
		s.log.WithError(err).Error("fragment failed")
	}
	c.String(perrors.StatusOf(err), err.Error())
}
