package alarm

import (
	"sync"

	"github.com/manav03panchal/alarmd/internal/model"
)

// Registry holds the outstanding alarms in insertion order. Lookups compare
// time specs and labels as exact strings.
type Registry struct {
	mu     sync.RWMutex
	alarms []*model.Alarm
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// IsSet reports whether an alarm with exactly this time spec is present.
func (r *Registry) IsSet(timeSpec string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexLocked(func(a *model.Alarm) bool { return a.TimeSpec == timeSpec }) >= 0
}

// Add appends a. It does not check for duplicates; callers guard with IsSet.
func (r *Registry) Add(a *model.Alarm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alarms = append(r.alarms, a)
}

// FindByLabel returns the first alarm carrying label.
func (r *Registry) FindByLabel(label string) (*model.Alarm, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexLocked(func(a *model.Alarm) bool { return a.Label == label }); i >= 0 {
		return r.alarms[i], true
	}
	return nil, false
}

// FindByTimeSpec returns the alarm keyed by timeSpec.
func (r *Registry) FindByTimeSpec(timeSpec string) (*model.Alarm, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexLocked(func(a *model.Alarm) bool { return a.TimeSpec == timeSpec }); i >= 0 {
		return r.alarms[i], true
	}
	return nil, false
}

// RemoveByLabel removes and returns the first alarm carrying label.
func (r *Registry) RemoveByLabel(label string) (*model.Alarm, bool) {
	return r.remove(func(a *model.Alarm) bool { return a.Label == label })
}

// RemoveByTimeSpec removes and returns the alarm keyed by timeSpec.
func (r *Registry) RemoveByTimeSpec(timeSpec string) (*model.Alarm, bool) {
	return r.remove(func(a *model.Alarm) bool { return a.TimeSpec == timeSpec })
}

// RemoveByHandle removes and returns the alarm whose timer handle is h.
// The scheduler's fire path uses it.
func (r *Registry) RemoveByHandle(h string) (*model.Alarm, bool) {
	return r.remove(func(a *model.Alarm) bool { return a.Handle == h })
}

func (r *Registry) remove(match func(*model.Alarm) bool) (*model.Alarm, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(match)
	if i < 0 {
		return nil, false
	}
	a := r.alarms[i]
	r.alarms = append(r.alarms[:i], r.alarms[i+1:]...)
	return a, true
}

func (r *Registry) indexLocked(match func(*model.Alarm) bool) int {
	for i, a := range r.alarms {
		if match(a) {
			return i
		}
	}
	return -1
}

// List returns a copy of every alarm in insertion order.
func (r *Registry) List() []model.Alarm {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Alarm, len(r.alarms))
	for i, a := range r.alarms {
		out[i] = *a
	}
	return out
}

// Len returns the number of outstanding alarms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.alarms)
}
