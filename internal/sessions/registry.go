// Package sessions keeps one Contact-MP wizard per browser session. Wizards
// live only in memory; an idle session is treated as the user having
// navigated away and its wizard is closed.
package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hostcampaign/site/internal/mpcontact"
	"github.com/hostcampaign/site/internal/pkg/logger"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("sessions: not found")

// Factory builds a fresh wizard for a new session.
type Factory func() *mpcontact.Wizard

type entry struct {
	wizard   *mpcontact.Wizard
	lastSeen time.Time
}

// Registry maps session ids to wizards.
type Registry struct {
	factory Factory
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry creates a registry whose sessions expire after ttl idle.
func NewRegistry(factory Factory, ttl time.Duration) *Registry {
	return &Registry{
		factory: factory,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Create starts a new wizard and returns its session id.
func (r *Registry) Create() (string, *mpcontact.Wizard) {
	id := uuid.NewString()
	w := r.factory()

	r.mu.Lock()
	r.entries[id] = &entry{wizard: w, lastSeen: r.now()}
	r.mu.Unlock()

	logger.Debug("sessions: created", "session", id)
	return id, w
}

// Get returns the wizard for id and refreshes its idle timer.
func (r *Registry) Get(id string) (*mpcontact.Wizard, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.expired(e) {
		r.remove(id, e)
		return nil, ErrNotFound
	}
	e.lastSeen = r.now()
	return e.wizard, nil
}

// GetOrCreate returns the wizard for id, or a new session when id is
// unknown. The returned id is the one to hand back to the client.
func (r *Registry) GetOrCreate(id string) (string, *mpcontact.Wizard) {
	if w, err := r.Get(id); err == nil {
		return id, w
	}
	return r.Create()
}

// Delete closes the wizard and forgets the session.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	r.remove(id, e)
	return true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep closes and removes every expired session, returning how many.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.entries {
		if r.expired(e) {
			r.remove(id, e)
			n++
		}
	}
	return n
}

// Run sweeps on every tick until ctx is cancelled, then closes all
// remaining wizards.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logger.Info("sessions: swept idle wizards", "count", n, "live", r.Len())
			}
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		r.remove(id, e)
	}
}

func (r *Registry) expired(e *entry) bool {
	return r.ttl > 0 && r.now().Sub(e.lastSeen) > r.ttl
}

// remove closes the wizard so any in-flight result is discarded. Caller
// holds r.mu.
func (r *Registry) remove(id string, e *entry) {
	e.wizard.Close()
	delete(r.entries, id)
}
