package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harishcmuthyala/portfolio/internal/config"
	"github.com/harishcmuthyala/portfolio/internal/content"
	"github.com/harishcmuthyala/portfolio/internal/db"
	"github.com/harishcmuthyala/portfolio/internal/logging"
	"github.com/harishcmuthyala/portfolio/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	database, err := db.Init(filepath.Join(t.TempDir(), "portfolio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	store, err := content.Default()
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.GinMode = gin.TestMode
	// Nothing listens on port 1.
	cfg.CollectorURL = "http://127.0.0.1:1/api/resume/download"
	cfg.Tracking.RetryMax = 0
	cfg.Tracking.Timeout = 200 * time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}

	s, err := New(Deps{Config: cfg, Content: store, DB: database, Log: logging.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() {
		s.sessions.Close()
		s.notifier.Wait()
		s.recorder.Wait()
	})
	return s
}

// visitor replays requests with the session cookie the server handed out.
type visitor struct {
	t      *testing.T
	s      *Server
	cookie *http.Cookie
}

func newVisitor(t *testing.T, s *Server) *visitor {
	return &visitor{t: t, s: s}
}

func (v *visitor) do(req *http.Request) *httptest.ResponseRecorder {
	v.t.Helper()
	if v.cookie != nil {
		req.AddCookie(v.cookie)
	}
	w := httptest.NewRecorder()
	v.s.Handler().ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			v.cookie = c
		}
	}
	return w
}

func (v *visitor) get(path string) *httptest.ResponseRecorder {
	return v.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (v *visitor) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return v.do(req)
}

func parse(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	return doc
}

func trigger(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	h := w.Header().Get("HX-Trigger")
	if h == "" {
		return nil
	}
	var ev map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(h), &ev))
	return ev
}

func TestHome_RendersSectionsInOrder(t *testing.T) {
	s := newTestServer(t, nil)
	v := newVisitor(t, s)

	w := v.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, v.cookie, "session cookie")
	assert.True(t, v.cookie.HttpOnly)

	doc := parse(t, w)
	ids := doc.Find("main > section").Map(func(_ int, sel *goquery.Selection) string {
		id, _ := sel.Attr("id")
		return id
	})
	assert.Equal(t, []string{"home", "about", "experience", "projects", "skills", "education", "contact"}, ids)

	home := doc.Find("#home")
	assert.Equal(t, "true", home.AttrOr("data-revealed", ""))
	_, watched := home.Attr("hx-post")
	assert.False(t, watched, "home is visible from the start")

	about := doc.Find("#about")
	assert.Equal(t, "false", about.AttrOr("data-revealed", ""))
	assert.Equal(t, "/view/sections/about/intersect", about.AttrOr("hx-post", ""))
	assert.Equal(t, "intersect once threshold:0.2", about.AttrOr("hx-trigger", ""))
	assert.Equal(t, "intersect once threshold:0.1", doc.Find("#experience").AttrOr("hx-trigger", ""))
	assert.True(t, about.Find(".reveal").First().HasClass("opacity-0"))
}

func TestHome_RevealDisabled(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.RevealEnabled = false })
	doc := parse(t, newVisitor(t, s).get("/"))

	doc.Find("main > section").Each(func(_ int, sel *goquery.Selection) {
		assert.Equal(t, "true", sel.AttrOr("data-revealed", ""), sel.AttrOr("id", ""))
		_, watched := sel.Attr("hx-trigger")
		assert.False(t, watched)
	})
}

func TestIdeasPage(t *testing.T) {
	s := newTestServer(t, nil)
	w := newVisitor(t, s).get("/ideas")
	require.Equal(t, http.StatusOK, w.Code)

	doc := parse(t, w)
	assert.Equal(t, 1, doc.Find("main > section#ideas").Length())
	assert.Equal(t, len(s.content.Ideas()), doc.Find("#ideas-grid .idea").Length())
	assert.Equal(t, 0, doc.Find(".idea-body").Length(), "all ideas start collapsed")
	assert.Equal(t, "/#about", doc.Find(".desktop-nav a").Eq(1).AttrOr("href", ""))
}

func TestIntersect(t *testing.T) {
	s := newTestServer(t, nil)
	v := newVisitor(t, s)
	v.get("/")

	w := v.post("/view/sections/about/intersect", url.Values{"ratio": {"0.1"}})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = v.post("/view/sections/about/intersect", url.Values{"ratio": {"0.2"}})
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)
	about := doc.Find("section#about")
	assert.Equal(t, "true", about.AttrOr("data-revealed", ""))
	_, watched := about.Attr("hx-post")
	assert.False(t, watched)
	assert.True(t, about.Find(".reveal").First().HasClass("opacity-100"))

	// Scrolling away never hides it again.
	w = v.post("/view/sections/about/intersect", url.Values{"ratio": {"0"}})
	assert.Equal(t, http.StatusOK, w.Code)

	_, sessionView, _ := s.Sessions().View(v.cookie.Value, "home")
	sec, ok := sessionView.Section("about")
	require.True(t, ok)
	assert.True(t, sec.Revealed())
}

func TestIntersect_Errors(t *testing.T) {
	s := newTestServer(t, nil)
	v := newVisitor(t, s)
	v.get("/")

	assert.Equal(t, http.StatusBadRequest, v.post("/view/sections/about/intersect", url.Values{"ratio": {"lots"}}).Code)
	assert.Equal(t, http.StatusBadRequest, v.post("/view/sections/about/intersect", url.Values{"ratio": {"1.5"}}).Code)
	assert.Equal(t, http.StatusNotFound, v.post("/view/sections/nope/intersect", url.Values{"ratio": {"1"}}).Code)
}

func TestExperienceSelect(t *testing.T) {
	s := newTestServer(t, nil)
	v := newVisitor(t, s)
	v.get("/")
	jobs := s.content.Jobs()
	require.GreaterOrEqual(t, len(jobs), 3)

	w := v.post("/view/experience/select", url.Values{"index": {"2"}})
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)
	assert.Equal(t, 1, doc.Find("#experience-panel").Length())
	assert.Equal(t, "2", doc.Find(".tab.is-active").AttrOr("data-index", ""))
	assert.Contains(t, doc.Find(".job h3").Text(), jobs[2].Role)

	// Same index again keeps the panel as is.
	w = v.post("/view/experience/select", url.Values{"index": {"2"}})
	assert.Contains(t, parse(t, w).Find(".job h3").Text(), jobs[2].Role)

	assert.Equal(t, http.StatusBadRequest, v.post("/view/experience/select", url.Values{"index": {"99"}}).Code)
	assert.Equal(t, http.StatusBadRequest, v.post("/view/experience/select", url.Values{"index": {"x"}}).Code)
}

func TestProjectsFilter(t *testing.T) {
	s := newTestServer(t, nil)
	v := newVisitor(t, s)
	v.get("/")

	w := v.post("/view/projects/filter", url.Values{"category": {"GenAI"}})
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)
	cards := doc.Find(".project")
	require.Equal(t, 1, cards.Length())
	assert.Equal(t, "3", cards.AttrOr("data-project-id", ""))
	assert.Equal(t, "GenAI", strings.TrimSpace(doc.Find(".filter.is-active").Text()))

	w = v.post("/view/projects/filter", url.Values{"category": {content.AllCategory}})
	assert.Equal(t, len(s.content.Projects()), parse(t, w).Find(".project").Length())

	assert.Equal(t, http.StatusBadRequest, v.post("/view/projects/filter", url.Values{"category": {"Cooking"}}).Code)
}

func TestIdeaToggle(t *testing.T) {
	s := newTestServer(t, nil)
	v := newVisitor(t, s)
	v.get("/ideas")

	w := v.post("/view/ideas/toggle", url.Values{"id": {"2"}})
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)
	assert.Equal(t, 1, doc.Find(".idea.is-open").Length())
	assert.Equal(t, "2", doc.Find(".idea.is-open").AttrOr("data-idea-id", ""))

	w = v.post("/view/ideas/toggle", url.Values{"id": {"1"}})
	doc = parse(t, w)
	assert.Equal(t, "1", doc.Find(".idea.is-open").AttrOr("data-idea-id", ""))
	assert.Equal(t, 1, doc.Find(".idea-body").Length())

	w = v.post("/view/ideas/toggle", url.Values{"id": {"1"}})
	assert.Equal(t, 0, parse(t, w).Find(".idea.is-open").Length())

	assert.Equal(t, http.StatusBadRequest, v.post("/view/ideas/toggle", url.Values{"id": {"404"}}).Code)
}

func TestMenuToggle(t *testing.T) {
	s := newTestServer(t, nil)
	v := newVisitor(t, s)
	v.get("/")

	w := v.post("/view/menu/toggle", url.Values{"view": {"home"}})
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)
	assert.True(t, doc.Find("#mobile-menu").HasClass("is-open"))
	assert.Equal(t, 1, doc.Find(".mobile-nav").Length())

	w = v.post("/view/menu/toggle", url.Values{"view": {"home"}})
	assert.False(t, parse(t, w).Find("#mobile-menu").HasClass("is-open"))
}

func TestNavigate(t *testing.T) {
	s := newTestServer(t, nil)
	v := newVisitor(t, s)
	v.get("/")

	w := v.post("/view/navigate", url.Values{"target": {"#projects"}, "source": {"desktop"}, "view": {"home"}})
	require.Equal(t, http.StatusOK, w.Code)
	ev := trigger(t, w)
	require.Contains(t, ev, eventScroll)
	var scroll struct {
		Target   string `json:"target"`
		Behavior string `json:"behavior"`
		Block    string `json:"block"`
	}
	require.NoError(t, json.Unmarshal(ev[eventScroll], &scroll))
	assert.Equal(t, "projects", scroll.Target)
	assert.Equal(t, "smooth", scroll.Behavior)
	assert.Equal(t, "start", scroll.Block)

	w = v.post("/view/navigate", url.Values{"target": {"#nonexistent"}, "source": {"desktop"}, "view": {"home"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("HX-Trigger"))
}

func TestSharedFragments_UnknownView(t *testing.T) {
	s := newTestServer(t, nil)
	v := newVisitor(t, s)
	assert.Equal(t, http.StatusBadRequest, v.post("/view/menu/toggle", url.Values{"view": {"blog"}}).Code)
	assert.Equal(t, http.StatusBadRequest, v.post("/view/navigate", url.Values{"target": {"#about"}, "view": {"blog"}}).Code)

	w := v.post("/view/menu/toggle", url.Values{"view": {"ideas"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, parse(t, w).Find("#mobile-menu").HasClass("is-open"))
}

func TestNavigate_MobileClosesMenu(t *testing.T) {
	s := newTestServer(t, nil)
	v := newVisitor(t, s)
	v.get("/")
	v.post("/view/menu/toggle", url.Values{"view": {"home"}})

	w := v.post("/view/navigate", url.Values{"target": {"#contact"}, "source": {"mobile"}, "view": {"home"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, trigger(t, w), eventScroll)
	assert.False(t, parse(t, w).Find("#mobile-menu").HasClass("is-open"))

	// An unknown target still closes the menu.
	v.post("/view/menu/toggle", url.Values{"view": {"home"}})
	w = v.post("/view/navigate", url.Values{"target": {"#nonexistent"}, "source": {"mobile"}, "view": {"home"}})
	assert.Empty(t, w.Header().Get("HX-Trigger"))
	assert.False(t, parse(t, w).Find("#mobile-menu").HasClass("is-open"))
}

func contactForm() url.Values {
	return url.Values{
		"name":    {"Ada Lovelace"},
		"email":   {"ada@example.com"},
		"subject": {"Hello there"},
		"message": {"Let's build something & ship it."},
	}
}

func TestContactSubmit(t *testing.T) {
	s := newTestServer(t, nil)
	v := newVisitor(t, s)
	v.get("/")

	w := v.post("/view/contact", contactForm())
	require.Equal(t, http.StatusOK, w.Code)

	ev := trigger(t, w)
	require.Contains(t, ev, eventMailto)
	var mailto struct{ URI string }
	require.NoError(t, json.Unmarshal(ev[eventMailto], &mailto))
	assert.True(t, strings.HasPrefix(mailto.URI, "mailto:harishcmuthyala@gmail.com?subject=Hello%20there&body="), mailto.URI)
	assert.Contains(t, mailto.URI, "Let's%20build%20something%20%26%20ship%20it.")

	var toast struct{ Level, Message string }
	require.NoError(t, json.Unmarshal(ev[eventToast], &toast))
	assert.Equal(t, "success", toast.Level)
	assert.Equal(t, toastSuccess, toast.Message)

	doc := parse(t, w)
	form := doc.Find("#contact-form")
	assert.Equal(t, "submitted", form.AttrOr("data-state", ""))
	assert.Equal(t, "load delay:3000ms", form.Find(".contact-success").AttrOr("hx-trigger", ""))

	// A second submission while the confirmation shows is ignored.
	w = v.post("/view/contact", contactForm())
	assert.NotContains(t, trigger(t, w), eventMailto)
}

func TestContactSubmit_Invalid(t *testing.T) {
	s := newTestServer(t, nil)
	v := newVisitor(t, s)
	v.get("/")

	form := contactForm()
	form.Set("email", "not-an-email")
	w := v.post("/view/contact", form)
	require.Equal(t, http.StatusOK, w.Code)

	ev := trigger(t, w)
	assert.NotContains(t, ev, eventMailto)
	var toast struct{ Level, Message string }
	require.NoError(t, json.Unmarshal(ev[eventToast], &toast))
	assert.Equal(t, "error", toast.Level)
	assert.Equal(t, toastFailure, toast.Message)

	doc := parse(t, w)
	assert.Equal(t, "idle", doc.Find("#contact-form").AttrOr("data-state", ""))
	assert.Contains(t, doc.Find(".form-error").Text(), "email")
	assert.Equal(t, "Ada Lovelace", doc.Find(`input[name="name"]`).AttrOr("value", ""))
}

func TestContactForm_ResetsAfterDelay(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Contact.ResetDelay = 20 * time.Millisecond })
	v := newVisitor(t, s)
	v.get("/")
	require.Equal(t, http.StatusOK, v.post("/view/contact", contactForm()).Code)

	require.Eventually(t, func() bool {
		doc := parse(t, v.get("/view/contact/form"))
		return doc.Find("#contact-form").AttrOr("data-state", "") == "idle"
	}, 2*time.Second, 10*time.Millisecond)

	doc := parse(t, v.get("/view/contact/form"))
	assert.Equal(t, "", doc.Find(`input[name="name"]`).AttrOr("value", "x"))
}

func TestResume_RedirectsWhenCollectorDown(t *testing.T) {
	s := newTestServer(t, nil)
	w := newVisitor(t, s).get("/resume")
	assert.Equal(t, http.StatusFound, w.Code)
	// The resume PDF is not embedded, so the profile page stands in.
	assert.Equal(t, s.content.Profile().LinkedIn, w.Header().Get("Location"))
}

func TestResumeTarget(t *testing.T) {
	embedded := fstest.MapFS{"static/cv.pdf": &fstest.MapFile{Data: []byte("%PDF")}}
	p := content.Profile{ResumeURL: "/static/cv.pdf", LinkedIn: "https://linkedin.example/in/me"}

	assert.Equal(t, "https://cv.example/me.pdf", resumeTarget("https://cv.example/me.pdf", p, embedded))
	assert.Equal(t, "/static/cv.pdf", resumeTarget("", p, embedded))
	assert.Equal(t, "https://linkedin.example/in/me", resumeTarget("", p, fstest.MapFS{}))

	p.ResumeURL = "https://drive.example/cv"
	assert.Equal(t, "https://drive.example/cv", resumeTarget("", p, fstest.MapFS{}))

	assert.Equal(t, "/", resumeTarget("", content.Profile{}, fstest.MapFS{}))
}

func TestResume_NotifiesCollector(t *testing.T) {
	got := make(chan string, 1)
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.URL.Query().Get("user_agent")
	}))
	defer collector.Close()

	s := newTestServer(t, func(c *config.Config) {
		c.CollectorURL = collector.URL + "/api/resume/download"
		c.ResumeURL = "https://example.com/cv.pdf"
	})
	req := httptest.NewRequest(http.MethodGet, "/resume", nil)
	req.Header.Set("User-Agent", "resume-test")
	w := newVisitor(t, s).do(req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/cv.pdf", w.Header().Get("Location"))
	select {
	case ua := <-got:
		assert.Equal(t, "resume-test", ua)
	case <-time.After(2 * time.Second):
		t.Fatal("collector was not notified")
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := newVisitor(t, s).get("/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","content_version":`+jsonInt(s.content.Version())+`}`, w.Body.String())
}

func TestHealth_DatabaseDown(t *testing.T) {
	s := newTestServer(t, nil)
	require.NoError(t, s.db.Close())
	w := newVisitor(t, s).get("/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"database unavailable"}`, w.Body.String())
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestStatic(t *testing.T) {
	s := newTestServer(t, nil)
	w := newVisitor(t, s).get("/static/js/portfolio.js")
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "portfolio:scroll")
}

func TestHome_HTMXSourceAndFallbacks(t *testing.T) {
	s := newTestServer(t, nil)
	doc := parse(t, newVisitor(t, s).get("/"))
	script := doc.Find(`head script[src*="htmx"]`)
	require.Equal(t, 1, script.Length())
	assert.Equal(t, "https://unpkg.com/htmx.org@1.9.12", script.AttrOr("src", ""))
	assert.Contains(t, script.AttrOr("onerror", ""), "no-htmx")

	s = newTestServer(t, func(c *config.Config) { c.HTMXURL = "/static/js/htmx.min.js" })
	doc = parse(t, newVisitor(t, s).get("/ideas"))
	assert.Equal(t, "/static/js/htmx.min.js", doc.Find(`head script[src*="htmx"]`).AttrOr("src", ""))
}

func TestHTMXSource(t *testing.T) {
	vendored := fstest.MapFS{"static/js/htmx.min.js": &fstest.MapFile{Data: []byte("//")}}
	assert.Equal(t, "/static/js/htmx.min.js", htmxSource(vendored, "https://cdn.example/htmx"))
	assert.Equal(t, "https://cdn.example/htmx", htmxSource(fstest.MapFS{}, "https://cdn.example/htmx"))
}

func TestStatic_RevealFallbacks(t *testing.T) {
	s := newTestServer(t, nil)
	v := newVisitor(t, s)

	js := v.get("/static/js/portfolio.js").Body.String()
	for _, hook := range []string{"no-htmx", "htmx:responseError", "htmx:sendError", "htmx:timeout", "force-reveal"} {
		assert.Contains(t, js, hook)
	}
	css := v.get("/static/css/site.css").Body.String()
	assert.Contains(t, css, ".no-htmx .reveal")
	assert.Contains(t, css, ".force-reveal .reveal")
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, nil)
	w := newVisitor(t, s).get("/healthz")
	assert.Len(t, w.Header().Get(requestIDHeader), 26)
}
