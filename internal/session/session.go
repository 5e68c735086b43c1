// Package session keeps each visitor's mounted views, keyed by an opaque cookie id.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harishcmuthyala/portfolio/internal/page"
)

// CookieName carries the session id.
const CookieName = "portfolio_session"

// Factory mounts a fresh view of kind.
type Factory func(kind page.Kind) *page.View

type Option func(*Store)

func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

type entry struct {
	views    map[page.Kind]*page.View
	lastSeen time.Time
}

// Store is an in-memory session table. Sessions idle for longer than the TTL are evicted and
// their views closed.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	factory  Factory
	clock    clock.Clock
	log      logrus.FieldLogger
	sessions map[string]*entry
}

func New(ttl time.Duration, factory Factory, opts ...Option) *Store {
	s := &Store{
		ttl:      ttl,
		factory:  factory,
		clock:    clock.New(),
		log:      logrus.New(),
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount mounts a fresh view of kind for the session id, closing the one it replaces. An empty,
// unknown or expired id gets a new session; the id in use is returned.
func (s *Store) Mount(id string, kind page.Kind) (string, *page.View) {
	v := s.factory(kind)

	s.mu.Lock()
	id, e := s.lookup(id)
	old := e.views[kind]
	e.views[kind] = v
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return id, v
}

// View returns the session's view of kind, mounting one when there is none. fresh reports
// whether a view was mounted.
func (s *Store) View(id string, kind page.Kind) (sid string, v *page.View, fresh bool) {
	for {
		s.mu.Lock()
		sid, e := s.lookup(id)
		cur, ok := e.views[kind]
		s.mu.Unlock()
		if ok {
			return sid, cur, false
		}

		v = s.factory(kind)
		s.mu.Lock()
		if s.sessions[sid] != e {
			// Evicted while the view was built; start over under a new session.
			s.mu.Unlock()
			v.Close()
			id = sid
			continue
		}
		if cur, ok := e.views[kind]; ok {
			// Lost a race with a concurrent request of the same visitor.
			s.mu.Unlock()
			v.Close()
			return sid, cur, false
		}
		e.views[kind] = v
		s.mu.Unlock()
		return sid, v, true
	}
}

// lookup returns the live entry for id, creating one under a new id when needed. Callers hold mu.
func (s *Store) lookup(id string) (string, *entry) {
	now := s.clock.Now()
	if e, ok := s.sessions[id]; ok && id != "" && now.Sub(e.lastSeen) < s.ttl {
		e.lastSeen = now
		return id, e
	}
	if e, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		closeAll(e.list())
	}
	id = uuid.NewString()
	e := &entry{views: make(map[page.Kind]*page.View), lastSeen: now}
	s.sessions[id] = e
	return id, e
}

// Sweep evicts expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.clock.Now()
	var views []*page.View
	n := 0

	s.mu.Lock()
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) >= s.ttl {
			views = append(views, e.list()...)
			delete(s.sessions, id)
			n++
		}
	}
	s.mu.Unlock()

	closeAll(views)
	return n
}

// Run sweeps every interval until ctx is done, then closes every session.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	t := s.clock.Ticker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				s.log.WithField("evicted", n).Debug("expired sessions closed")
			}
		}
	}
}

// Close drops every session.
func (s *Store) Close() {
	var views []*page.View
	s.mu.Lock()
	for _, e := range s.sessions {
		views = append(views, e.list()...)
	}
	s.sessions = make(map[string]*entry)
	s.mu.Unlock()

	closeAll(views)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// list returns the entry's views. Callers hold the store lock.
func (e *entry) list() []*page.View {
	out := make([]*page.View, 0, len(e.views))
	for _, v := range e.views {
		out = append(out, v)
	}
	return out
}

func closeAll(views []*page.View) {
	for _, v := range views {
		v.Close()
	}
}
