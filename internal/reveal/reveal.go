// Package reveal implements the one-way "hidden until scrolled into view" flag each page
// section carries.
//
// A Trigger subscribes to an Observer for its region and flips to revealed the first time the
// reported visible ratio reaches the region threshold. It never flips back, it stops observing
// right after revealing, and when no observer is available it starts out revealed so content is
// never hidden for good.
package reveal

import (
	"errors"
	"sync"
)

// Common thresholds used by the page sections.
const (
	ThresholdLow  = 0.1
	ThresholdHigh = 0.2
)

// ErrUnsupported is returned by observers that cannot watch a region.
var ErrUnsupported = errors.New("reveal: observation unsupported")

// Region identifies the watched part of the page.
type Region struct {
	ID        string
	Threshold float64
}

// Observer reports how much of a region is visible. onChange may be called any number of times
// until stop is called; calls after stop must be harmless.
type Observer interface {
	Observe(region Region, onChange func(ratio float64)) (stop func(), err error)
}

// Trigger owns one Visibility Flag.
type Trigger struct {
	mu       sync.Mutex
	region   Region
	revealed bool
	closed   bool
	stop     func()
	onFirst  func()
}

// Subscribe starts watching region and calls onFirstEnter at most once, when the region first
// reaches its threshold. A nil observer or an observer error yields a Trigger that is already
// revealed; onFirstEnter is not called in that case.
func Subscribe(obs Observer, region Region, onFirstEnter func()) *Trigger {
	t := &Trigger{region: region, onFirst: onFirstEnter}
	if obs == nil {
		t.revealed = true
		return t
	}

	stop, err := obs.Observe(region, t.report)
	if err != nil {
		t.mu.Lock()
		t.revealed = true
		t.mu.Unlock()
		return t
	}

	t.mu.Lock()
	if t.revealed {
		// Revealed synchronously during Observe.
		t.mu.Unlock()
		stop()
		return t
	}
	t.stop = stop
	t.mu.Unlock()
	return t
}

// Revealed returns a Trigger for content shown from the moment it is mounted.
func Revealed(region Region) *Trigger {
	return &Trigger{region: region, revealed: true}
}

// Region returns the watched region.
func (t *Trigger) Region() Region { return t.region }

// Revealed reports the current Visibility Flag.
func (t *Trigger) Revealed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.revealed
}

// Unsubscribe stops observation. It is safe to call more than once and after reveal.
func (t *Trigger) Unsubscribe() {
	t.mu.Lock()
	t.closed = true
	stop := t.stop
	t.stop = nil
	t.onFirst = nil
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
}

func (t *Trigger) report(ratio float64) {
	t.mu.Lock()
	if t.revealed || t.closed || ratio < t.region.Threshold {
		t.mu.Unlock()
		return
	}
	t.revealed = true
	stop := t.stop
	t.stop = nil
	onFirst := t.onFirst
	t.onFirst = nil
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
	if onFirst != nil {
		onFirst()
	}
}
