package reveal

import "sync"

// Reports is an Observer fed from outside: the browser posts intersection ratios for region ids
// and Report dispatches them to whoever observes that region.
type Reports struct {
	mu       sync.Mutex
	next     int
	watchers map[string]map[int]func(float64)
}

func NewReports() *Reports {
	return &Reports{watchers: make(map[string]map[int]func(float64))}
}

// Observe implements Observer.
func (r *Reports) Observe(region Region, onChange func(ratio float64)) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.next
	r.next++
	if r.watchers[region.ID] == nil {
		r.watchers[region.ID] = make(map[int]func(float64))
	}
	r.watchers[region.ID][id] = onChange

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.watchers[region.ID], id)
			if len(r.watchers[region.ID]) == 0 {
				delete(r.watchers, region.ID)
			}
		})
	}, nil
}

// Report delivers a visible ratio for region id. It returns false when nobody watches the id,
// which is the case for unknown ids and for regions that already revealed.
func (r *Reports) Report(id string, ratio float64) bool {
	r.mu.Lock()
	callbacks := make([]func(float64), 0, len(r.watchers[id]))
	for _, cb := range r.watchers[id] {
		callbacks = append(callbacks, cb)
	}
	r.mu.Unlock()

	for _, cb := range callbacks {
		cb(ratio)
	}
	return len(callbacks) > 0
}

// Watching returns the number of regions with an active watcher.
func (r *Reports) Watching() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watchers)
}

// Unavailable is an Observer for clients that cannot report intersections.
type Unavailable struct{}

func (Unavailable) Observe(Region, func(float64)) (func(), error) {
	return nil, ErrUnsupported
}
