// Package page composes the per-visitor state of a rendered page: one reveal trigger per
// section, the selections, the mobile menu, the navigator and the contact composer.
package page

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/harishcmuthyala/portfolio/internal/contact"
	"github.com/harishcmuthyala/portfolio/internal/content"
	"github.com/harishcmuthyala/portfolio/internal/nav"
	"github.com/harishcmuthyala/portfolio/internal/reveal"
	"github.com/harishcmuthyala/portfolio/internal/selection"
)

type Kind string

const (
	KindHome  Kind = "home"
	KindIdeas Kind = "ideas"
)

// SectionSpec is a section's anchor id and the visible ratio that reveals it. A zero threshold
// means the section is shown on mount.
type SectionSpec struct {
	ID        string
	Threshold float64
}

// HomeSections lists the root view in display order.
var HomeSections = []SectionSpec{
	{ID: "home"},
	{ID: "about", Threshold: reveal.ThresholdHigh},
	{ID: "experience", Threshold: reveal.ThresholdLow},
	{ID: "projects", Threshold: reveal.ThresholdLow},
	{ID: "skills", Threshold: reveal.ThresholdHigh},
	{ID: "education", Threshold: reveal.ThresholdHigh},
	{ID: "contact", Threshold: reveal.ThresholdLow},
}

var IdeasSections = []SectionSpec{
	{ID: "ideas", Threshold: reveal.ThresholdLow},
}

// Deps is what a view is built from.
type Deps struct {
	Content *content.Store
	// Reveal false renders every section revealed, as for clients without intersection support.
	Reveal bool
	// Recipient of the contact handoff; the profile email when empty.
	Recipient  string
	Clock      clock.Clock
	ResetDelay time.Duration
	// OnReveal, if set, is called once per section that reveals by scrolling.
	OnReveal func(kind Kind, section string)
}

type Section struct {
	ID      string
	Trigger *reveal.Trigger
}

func (s *Section) Revealed() bool { return s.Trigger.Revealed() }

// View is one mounted page.
type View struct {
	kind    Kind
	content *content.Store
	reports *reveal.Reports

	sections []*Section
	byID     map[string]*Section

	experience *selection.Exclusive[int]
	categories *selection.Exclusive[string]
	ideas      *selection.Toggle[int]
	menu       *nav.Menu
	navigator  *nav.Navigator
	composer   *contact.Composer

	closeOnce sync.Once
}

// NewHome mounts the root view.
func NewHome(d Deps) *View {
	v := newView(KindHome, d, HomeSections)

	if n := len(d.Content.Jobs()); n > 0 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		v.experience = selection.NewExclusive(idx)
	}
	v.categories = selection.NewExclusive(d.Content.ProjectCategories())

	recipient := d.Recipient
	if recipient == "" {
		recipient = d.Content.Profile().Email
	}
	var opts []contact.Option
	if d.Clock != nil {
		opts = append(opts, contact.WithClock(d.Clock))
	}
	opts = append(opts, contact.WithResetDelay(d.ResetDelay))
	v.composer = contact.New(recipient, opts...)
	return v
}

// NewIdeas mounts the hidden ideas view.
func NewIdeas(d Deps) *View {
	v := newView(KindIdeas, d, IdeasSections)
	v.ideas = selection.NewToggle(d.Content.IdeaIDs())
	return v
}

func newView(kind Kind, d Deps, specs []SectionSpec) *View {
	v := &View{
		kind:    kind,
		content: d.Content,
		byID:    make(map[string]*Section, len(specs)),
		menu:    &nav.Menu{},
	}

	var obs reveal.Observer
	if d.Reveal {
		v.reports = reveal.NewReports()
		obs = v.reports
	}

	ids := make([]string, 0, len(specs))
	for _, spec := range specs {
		region := reveal.Region{ID: spec.ID, Threshold: spec.Threshold}
		s := &Section{ID: spec.ID}
		if spec.Threshold == 0 {
			s.Trigger = reveal.Revealed(region)
		} else {
			id := spec.ID
			s.Trigger = reveal.Subscribe(obs, region, func() {
				if d.OnReveal != nil {
					d.OnReveal(kind, id)
				}
			})
		}
		v.sections = append(v.sections, s)
		v.byID[spec.ID] = s
		ids = append(ids, spec.ID)
	}
	v.navigator = nav.NewNavigator(nav.NewAnchors(ids...), v.menu)
	return v
}

func (v *View) Kind() Kind { return v.kind }

func (v *View) Content() *content.Store { return v.content }

func (v *View) Sections() []*Section { return v.sections }

func (v *View) Section(id string) (*Section, bool) {
	s, ok := v.byID[id]
	return s, ok
}

// Report feeds a visible ratio for a section from the client. It returns the section, if the
// view has it.
func (v *View) Report(id string, ratio float64) (*Section, bool) {
	s, ok := v.byID[id]
	if !ok {
		return nil, false
	}
	if v.reports != nil {
		v.reports.Report(id, ratio)
	}
	return s, true
}

// SelectExperience activates the experience entry at index.
func (v *View) SelectExperience(index int) (bool, error) {
	if v.experience == nil {
		return false, fmt.Errorf("%w: experience %d", selection.ErrUnknownMember, index)
	}
	return v.experience.Select(index)
}

// ActiveExperience is the index of the shown experience entry.
func (v *View) ActiveExperience() int {
	if v.experience == nil {
		return 0
	}
	return v.experience.Active()
}

func (v *View) FilterProjects(category string) (bool, error) {
	if v.categories == nil {
		return false, fmt.Errorf("%w: category %q", selection.ErrUnknownMember, category)
	}
	return v.categories.Select(category)
}

func (v *View) ActiveCategory() string {
	if v.categories == nil {
		return content.AllCategory
	}
	return v.categories.Active()
}

// VisibleProjects derives the filtered project list from the active category.
func (v *View) VisibleProjects() []content.Project {
	return v.content.ProjectsIn(v.ActiveCategory())
}

func (v *View) ToggleIdea(id int) error {
	if v.ideas == nil {
		return fmt.Errorf("%w: idea %d", selection.ErrUnknownMember, id)
	}
	return v.ideas.Toggle(id)
}

func (v *View) IdeaExpanded(id int) bool {
	return v.ideas != nil && v.ideas.IsActive(id)
}

func (v *View) Menu() *nav.Menu { return v.menu }

func (v *View) Navigator() *nav.Navigator { return v.navigator }

// Contact is nil on views without a contact section.
func (v *View) Contact() *contact.Composer { return v.composer }

// Close tears the view down: no trigger reveals afterwards and a pending contact reset is
// cancelled.
func (v *View) Close() {
	v.closeOnce.Do(func() {
		for _, s := range v.sections {
			s.Trigger.Unsubscribe()
		}
		if v.composer != nil {
			v.composer.Close()
		}
	})
}
