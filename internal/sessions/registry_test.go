package sessions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hostcampaign/site/internal/mpcontact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(ttl time.Duration) (*Registry, *clock) {
	c := &clock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	r := NewRegistry(func() *mpcontact.Wizard { return mpcontact.New(nil, nil) }, ttl)
	r.now = c.Now
	return r, c
}

func TestCreateAndGet(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)
	id, w := r.Create()

	got, err := r.Get(id)
	require.NoError(t, err)
	assert.Same(t, w, got)
	assert.Equal(t, 1, r.Len())

	_, err = r.Get("not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get("7f1c5b7e-1f1e-4a8e-9a53-6d9d2d3b9c11")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIdleSessionsExpireAndClose(t *testing.T) {
	r, c := newTestRegistry(time.Minute)
	idA, wA := r.Create()
	idB, wB := r.Create()

	c.Advance(40 * time.Second)
	_, err := r.Get(idB) // touch B
	require.NoError(t, err)

	c.Advance(40 * time.Second)
	assert.Equal(t, 1, r.Sweep())
	assert.True(t, wA.Closed())
	assert.False(t, wB.Closed())

	_, err = r.Get(idA)
	assert.ErrorIs(t, err, ErrNotFound)

	c.Advance(2 * time.Minute)
	_, err = r.Get(idB)
	assert.ErrorIs(t, err, ErrNotFound, "expired on read even before a sweep")
	assert.True(t, wB.Closed())
	assert.Zero(t, r.Len())
}

func TestGetOrCreate(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)
	id, w := r.GetOrCreate("")
	require.NotEmpty(t, id)

	again, w2 := r.GetOrCreate(id)
	assert.Equal(t, id, again)
	assert.Same(t, w, w2)
}

func TestDeleteClosesWizard(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)
	id, w := r.Create()
	assert.True(t, r.Delete(id))
	assert.True(t, w.Closed())
	assert.False(t, r.Delete(id))
}

func TestRunClosesEverythingOnShutdown(t *testing.T) {
	r, _ := newTestRegistry(time.Hour)
	_, w := r.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	assert.True(t, w.Closed())
	assert.Zero(t, r.Len())
}
