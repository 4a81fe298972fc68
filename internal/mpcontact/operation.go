package mpcontact

import (
	"context"
	"sync"
)

// OpKind names the remote call behind an Operation.
type OpKind string

const (
	OpLookup   OpKind = "lookup"
	OpGenerate OpKind = "generate"
)

// OpStatus is the observable result of an Operation.
type OpStatus int

const (
	OpPending OpStatus = iota
	OpSucceeded
	OpFailed
	// OpDiscarded means the call finished after the wizard restarted or was
	// closed; its result was dropped.
	OpDiscarded
)

func (s OpStatus) String() string {
	switch s {
	case OpPending:
		return "pending"
	case OpSucceeded:
		return "succeeded"
	case OpFailed:
		return "failed"
	case OpDiscarded:
		return "discarded"
	}
	return "unknown"
}

// Operation tracks one in-flight lookup or generation.
type Operation struct {
	kind OpKind
	done chan struct{}

	mu     sync.Mutex
	status OpStatus
	err    error
}

func newOperation(kind OpKind) *Operation {
	return &Operation{kind: kind, done: make(chan struct{})}
}

// Kind returns which call this operation tracks.
func (o *Operation) Kind() OpKind { return o.kind }

// Done is closed once the operation leaves OpPending.
func (o *Operation) Done() <-chan struct{} { return o.done }

// Status returns the current status without blocking.
func (o *Operation) Status() OpStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Err returns the failure cause for OpFailed and ErrDiscarded for
// OpDiscarded.
func (o *Operation) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Wait blocks until the operation finishes or ctx is done. A ctx error is
// returned with OpPending; the operation itself keeps running.
func (o *Operation) Wait(ctx context.Context) (OpStatus, error) {
	select {
	case <-o.done:
		return o.Status(), o.Err()
	case <-ctx.Done():
		return OpPending, ctx.Err()
	}
}

func (o *Operation) finish(status OpStatus, err error) {
	o.mu.Lock()
	o.status = status
	o.err = err
	o.mu.Unlock()
	close(o.done)
}
