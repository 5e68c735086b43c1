// Package nav turns symbolic section anchors into smooth-scroll requests and owns the mobile
// menu state.
package nav

import (
	"strings"
	"sync"
)

// Align is where the target ends up in the viewport.
type Align string

const AlignTop Align = "start"

// Target is a located scroll destination.
type Target struct {
	ID string
}

// Locator finds the element rendered for an anchor id.
type Locator interface {
	Locate(id string) (Target, bool)
}

// Scroller receives animated scroll requests.
type Scroller interface {
	ScrollTo(t Target, align Align)
}

// Anchors is a Locator over the section ids a view rendered.
type Anchors map[string]struct{}

func NewAnchors(ids ...string) Anchors {
	a := make(Anchors, len(ids))
	for _, id := range ids {
		a[id] = struct{}{}
	}
	return a
}

func (a Anchors) Locate(id string) (Target, bool) {
	if _, ok := a[id]; !ok {
		return Target{}, false
	}
	return Target{ID: id}, true
}

// Normalize strips the leading '#' of an anchor href.
func Normalize(target string) string {
	return strings.TrimPrefix(strings.TrimSpace(target), "#")
}

// Menu is the mobile navigation menu's open state.
type Menu struct {
	mu   sync.Mutex
	open bool
}

// Toggle flips the menu and returns the new state.
func (m *Menu) Toggle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = !m.open
	return m.open
}

func (m *Menu) Close() {
	m.mu.Lock()
	m.open = false
	m.mu.Unlock()
}

func (m *Menu) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Navigator scrolls to sections of one view.
type Navigator struct {
	locator Locator
	menu    *Menu
}

func NewNavigator(locator Locator, menu *Menu) *Navigator {
	return &Navigator{locator: locator, menu: menu}
}

// NavigateTo requests a smooth scroll to target ("#about" or "about"). A target that is not on
// the page is ignored. It reports whether a scroll was requested.
func (n *Navigator) NavigateTo(s Scroller, target string) bool {
	t, ok := n.locator.Locate(Normalize(target))
	if !ok {
		return false
	}
	s.ScrollTo(t, AlignTop)
	return true
}

// MenuNavigateTo is NavigateTo from the mobile menu: the menu ends up closed whatever its prior
// state and whether or not the target exists.
func (n *Navigator) MenuNavigateTo(s Scroller, target string) bool {
	if n.menu != nil {
		n.menu.Close()
	}
	return n.NavigateTo(s, target)
}

// Menu returns the menu the navigator closes.
func (n *Navigator) Menu() *Menu { return n.menu }

// Requests is a Scroller that records requests so they can be handed to the browser.
type Requests struct {
	mu      sync.Mutex
	targets []Target
}

func (r *Requests) ScrollTo(t Target, _ Align) {
	r.mu.Lock()
	r.targets = append(r.targets, t)
	r.mu.Unlock()
}

func (r *Requests) Targets() []Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Target(nil), r.targets...)
}
