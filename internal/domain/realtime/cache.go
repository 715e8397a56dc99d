package realtime

import (
	"sort"
	"sync"

	"salonbooking/internal/domain/appointment"
)

// Diff describes how one snapshot differs from the previous one.
type Diff struct {
	Added   []appointment.Appointment
	Updated []appointment.Appointment
	Removed []appointment.Appointment
}

func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Touches reports whether any appointment in the diff belongs to the customer.
func (d Diff) Touches(customerID string) bool {
	for _, group := range [][]appointment.Appointment{d.Added, d.Updated, d.Removed} {
		for _, a := range group {
			if a.CustomerID == customerID {
				return true
			}
		}
	}
	return false
}

// Cache keeps the last delivered appointment snapshot. Each delivery is
// diffed against it and listeners only run when something changed.
type Cache struct {
	mu        sync.RWMutex
	items     map[string]appointment.Appointment
	version   uint64
	listeners []func(Diff)
}

func NewCache() *Cache {
	return &Cache{items: make(map[string]appointment.Appointment)}
}

// Apply replaces the cached set with snapshot. It matches the
// func([]appointment.Appointment) signature of Store.Subscribe.
func (c *Cache) Apply(snapshot []appointment.Appointment) {
	c.Diff(snapshot)
}

// Diff is Apply that also returns what changed.
func (c *Cache) Diff(snapshot []appointment.Appointment) Diff {
	c.mu.Lock()

	var d Diff
	next := make(map[string]appointment.Appointment, len(snapshot))
	for _, a := range snapshot {
		next[a.ID] = a
		prev, ok := c.items[a.ID]
		switch {
		case !ok:
			d.Added = append(d.Added, a)
		case !prev.Equal(a):
			d.Updated = append(d.Updated, a)
		}
	}
	for id, a := range c.items {
		if _, ok := next[id]; !ok {
			d.Removed = append(d.Removed, a)
		}
	}

	if d.Empty() {
		c.mu.Unlock()
		return d
	}

	c.items = next
	c.version++
	listeners := append([]func(Diff){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(d)
	}
	return d
}

// Snapshot returns the cached set in chronological order.
func (c *Cache) Snapshot() []appointment.Appointment {
	c.mu.RLock()
	out := make([]appointment.Appointment, 0, len(c.items))
	for _, a := range c.items {
		out = append(out, a)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Version increases by one for every snapshot that changed something.
func (c *Cache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// OnChange registers fn to run after every non-empty diff.
func (c *Cache) OnChange(fn func(Diff)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}
