package web

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/harishcmuthyala/portfolio/internal/contact"
	"github.com/harishcmuthyala/portfolio/internal/content"
	"github.com/harishcmuthyala/portfolio/internal/page"
	"github.com/harishcmuthyala/portfolio/internal/reveal"
)

var funcMap = template.FuncMap{
	"add":   func(a, b int) int { return a + b },
	"delay": delay,
	"join":  strings.Join,
	"statusClass": func(status string) string {
		switch status {
		case content.StatusReadyToBuild:
			return "badge-ready"
		case content.StatusConceptual:
			return "badge-conceptual"
		case content.StatusResearch:
			return "badge-research"
		}
		return "badge-default"
	},
}

// delay is the transition-delay of the index-th element of a staggered group, in milliseconds.
func delay(index, offsetMs, stepMs int) template.CSS {
	d := reveal.Stagger(index, time.Duration(offsetMs)*time.Millisecond, time.Duration(stepMs)*time.Millisecond)
	return template.CSS(fmt.Sprintf("transition-delay: %dms", d.Milliseconds()))
}

// contactData is the contact form's render state.
type contactData struct {
	State   string
	Draft   contact.Draft
	Error   string
	ResetMs int64
}

// viewData is what every page and fragment template renders from.
type viewData struct {
	Kind           page.Kind
	Profile        content.Profile
	About          content.About
	Nav            []content.NavLink
	Jobs           []content.Job
	ActiveJob      int
	Categories     []string
	ActiveCategory string
	Projects       []content.Project
	Skills         content.Skills
	Education      []content.Education
	Certifications []content.Certification
	Ideas          []content.Idea
	MenuOpen       bool
	Contact        contactData
	ResumeURL      string
	HTMXSrc        string
	Year           int

	view *page.View
}

func (s *Server) data(v *page.View) viewData {
	cs := s.content
	d := viewData{
		Kind:           v.Kind(),
		Profile:        cs.Profile(),
		Nav:            cs.Nav(),
		MenuOpen:       v.Menu().IsOpen(),
		ResumeURL:      "/resume",
		HTMXSrc:        s.htmxSrc,
		Year:           time.Now().Year(),
		view:           v,
		ActiveCategory: content.AllCategory,
	}
	switch v.Kind() {
	case page.KindHome:
		d.About = cs.About()
		d.Jobs = cs.Jobs()
		d.ActiveJob = v.ActiveExperience()
		d.Categories = cs.ProjectCategories()
		d.ActiveCategory = v.ActiveCategory()
		d.Projects = v.VisibleProjects()
		d.Skills = cs.Skills()
		d.Education = cs.Education()
		d.Certifications = cs.Certifications()
		d.Contact = contactState(v.Contact())
	case page.KindIdeas:
		d.Ideas = cs.Ideas()
	}
	return d
}

func contactState(c *contact.Composer) contactData {
	if c == nil {
		return contactData{State: contact.Idle.String()}
	}
	return contactData{
		State:   c.State().String(),
		Draft:   c.Draft(),
		ResetMs: c.ResetDelay().Milliseconds(),
	}
}

// Revealed reports a section's Visibility Flag.
func (d viewData) Revealed(id string) bool {
	s, ok := d.view.Section(id)
	return !ok || s.Revealed()
}

// RevealAttrs asks the browser to report when a hidden section scrolls into view.
func (d viewData) RevealAttrs(id string) template.HTMLAttr {
	s, ok := d.view.Section(id)
	if !ok || s.Revealed() {
		return ""
	}
	th := strconv.FormatFloat(s.Trigger.Region().Threshold, 'f', -1, 64)
	return template.HTMLAttr(fmt.Sprintf(
		`hx-post="/view/sections/%s/intersect" hx-trigger="intersect once threshold:%s" hx-vals='{"ratio": "%s"}' hx-swap="outerHTML"`,
		id, th, th))
}

// Anim returns the reveal classes for an element of section id.
func (d viewData) Anim(id, variant string) string {
	return reveal.Classes(reveal.Variant(variant), d.Revealed(id))
}

func (d viewData) Job() content.Job {
	if d.ActiveJob < 0 || d.ActiveJob >= len(d.Jobs) {
		return content.Job{}
	}
	return d.Jobs[d.ActiveJob]
}

func (d viewData) IdeaOpen(id int) bool { return d.view.IdeaExpanded(id) }

// Submitted reports whether the contact form shows its confirmation.
func (d viewData) Submitted() bool { return d.Contact.State == contact.Submitted.String() }
