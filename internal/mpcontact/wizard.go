// Package mpcontact implements the Contact-Your-MP wizard: resolve a
// postcode to an MP, collect the constituent's concerns, request a drafted
// letter and present it for copying or sending.
//
// A Wizard serves one user. Remote calls run as Operations on their own
// goroutine; a single-slot guard keeps at most one in flight, and results
// that arrive after a restart or close are discarded.
package mpcontact

import (
	"context"
	"strings"
	"sync"

	"github.com/hostcampaign/site/internal/pkg/distlock"
	"github.com/hostcampaign/site/internal/pkg/logger"
)

// Wizard is the three-step Contact-MP flow.
type Wizard struct {
	directory Directory
	generator Generator
	guard     distlock.DistLock

	mu      sync.Mutex
	state   State
	pending *Operation
	epoch   uint64
	closed  bool
}

// Option customises a Wizard.
type Option func(*Wizard)

// WithGuard replaces the in-process in-flight guard.
func WithGuard(g distlock.DistLock) Option {
	return func(w *Wizard) { w.guard = g }
}

// New returns a wizard at the lookup step.
func New(directory Directory, generator Generator, opts ...Option) *Wizard {
	w := &Wizard{
		directory: directory,
		generator: generator,
		guard:     distlock.NewLocalLock(),
		state:     &LookupState{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns a copy of the current state.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.clone()
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Step()
}

// Busy reports whether a remote call is in flight.
func (w *Wizard) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending != nil
}

// Pending returns the in-flight operation, or nil.
func (w *Wizard) Pending() *Operation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// Snapshot returns a read-only view of the wizard.
func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return snapshotOf(w.state, w.pending != nil)
}

// SetPostcode records the postcode as typed, upper-cased.
func (w *Wizard) SetPostcode(postcode string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	st, err := w.lookupState()
	if err != nil {
		return err
	}
	st.Postcode = strings.ToUpper(postcode)
	return nil
}

// SubmitPostcode starts the directory lookup for the current postcode.
// A blank postcode fails with a *ValidationError and no call is made.
func (w *Wizard) SubmitPostcode(ctx context.Context) (*Operation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	st, err := w.lookupState()
	if err != nil {
		return nil, err
	}
	postcode := strings.TrimSpace(st.Postcode)
	if postcode == "" {
		st.Err = MsgEmptyPostcode
		return nil, &ValidationError{Field: "postcode", Message: MsgEmptyPostcode}
	}

	op, epoch, err := w.begin(ctx, OpLookup)
	if err != nil {
		return nil, err
	}
	st.Err = ""

	go func(ctx context.Context) {
		rep, err := w.directory.Lookup(ctx, postcode)
		w.finish(op, epoch, func() error {
			st, ok := w.state.(*LookupState)
			if !ok {
				return ErrWrongStep
			}
			if err != nil {
				st.Err = UserMessage(err)
				return err
			}
			w.state = &ComposeState{Representative: rep}
			return nil
		})
	}(context.WithoutCancel(ctx))

	return op, nil
}

// ToggleConcern adds or removes a concern from the selection.
func (w *Wizard) ToggleConcern(c Concern) error {
	if !c.Valid() {
		return ErrUnknownConcern
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	st, err := w.composeState()
	if err != nil {
		return err
	}
	st.Selected.Toggle(c)
	return nil
}

// SetNarrative records the optional personal story.
func (w *Wizard) SetNarrative(narrative string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	st, err := w.composeState()
	if err != nil {
		return err
	}
	st.Narrative = narrative
	return nil
}

// CanGenerate reports whether generation is allowed: the compose step with
// at least one concern selected and nothing in flight.
func (w *Wizard) CanGenerate() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	st, ok := w.state.(*ComposeState)
	return ok && !w.closed && !st.Selected.Empty() && w.pending == nil
}

// GenerateMessage starts drafting the letter. An empty selection fails with
// a *ValidationError and no call is made.
func (w *Wizard) GenerateMessage(ctx context.Context) (*Operation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	st, err := w.composeState()
	if err != nil {
		return nil, err
	}
	if st.Selected.Empty() {
		st.Err = MsgNoConcerns
		return nil, &ValidationError{Field: "concerns", Message: MsgNoConcerns}
	}

	op, epoch, err := w.begin(ctx, OpGenerate)
	if err != nil {
		return nil, err
	}
	st.Err = ""

	rep := st.Representative
	req := GenerateRequest{
		RepresentativeName: rep.Name,
		Constituency:       rep.Constituency,
		Concerns:           st.Selected.List(),
		Narrative:          st.Narrative,
	}

	go func(ctx context.Context) {
		msg, err := w.generator.Generate(ctx, req)
		w.finish(op, epoch, func() error {
			st, ok := w.state.(*ComposeState)
			if !ok {
				return ErrWrongStep
			}
			if err != nil {
				st.Err = UserMessage(err)
				return err
			}
			w.state = &PresentState{Representative: st.Representative, Message: msg}
			return nil
		})
	}(context.WithoutCancel(ctx))

	return op, nil
}

// CopyField returns the literal text of f and places it on the clipboard.
// Clipboard failures are ignored; cb may be nil.
func (w *Wizard) CopyField(f Field, cb Clipboard) (string, error) {
	f, err := ParseField(string(f))
	if err != nil {
		return "", err
	}
	msg, err := w.message()
	if err != nil {
		return "", err
	}
	text := msg.Value(f)
	if cb != nil {
		if err := cb.WriteText(text); err != nil {
			logger.Debug("mpcontact: clipboard write failed", "field", f, "error", err)
		}
	}
	return text, nil
}

// MailtoURL returns the mail-compose link for the generated message.
func (w *Wizard) MailtoURL() (string, error) {
	msg, err := w.message()
	if err != nil {
		return "", err
	}
	return msg.MailtoURL(), nil
}

// OpenInEmailClient asks the platform to open the mail-compose link. It does
// not wait for the mail client and ignores opener failures.
func (w *Wizard) OpenInEmailClient(opener URLOpener) (string, error) {
	link, err := w.MailtoURL()
	if err != nil {
		return "", err
	}
	if opener != nil {
		if err := opener.OpenURL(link); err != nil {
			logger.Debug("mpcontact: no mail handler", "error", err)
		}
	}
	return link, nil
}

// Restart clears everything and returns to the lookup step. A call still in
// flight keeps the busy slot until it finishes, but its result is dropped.
func (w *Wizard) Restart() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.epoch++
	w.state = &LookupState{}
	return nil
}

// Close abandons the wizard. Late results are discarded and every further
// action fails with ErrClosed.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.epoch++
}

// Closed reports whether Close has been called.
func (w *Wizard) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// begin claims the in-flight slot. Caller holds w.mu.
func (w *Wizard) begin(ctx context.Context, kind OpKind) (*Operation, uint64, error) {
	ok, err := w.guard.Acquire(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, ErrBusy
	}
	op := newOperation(kind)
	w.pending = op
	return op, w.epoch, nil
}

// finish releases the slot and applies the result if the wizard is still in
// the state the call was started from.
func (w *Wizard) finish(op *Operation, epoch uint64, apply func() error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending == op {
		w.pending = nil
	}
	if err := w.guard.Release(context.Background()); err != nil {
		logger.Warn("mpcontact: release in-flight guard", "error", err)
	}

	if w.closed || epoch != w.epoch {
		logger.Debug("mpcontact: discarding late result", "operation", op.kind)
		op.finish(OpDiscarded, ErrDiscarded)
		return
	}
	if err := apply(); err != nil {
		op.finish(OpFailed, err)
		return
	}
	op.finish(OpSucceeded, nil)
}

func (w *Wizard) lookupState() (*LookupState, error) {
	if w.closed {
		return nil, ErrClosed
	}
	st, ok := w.state.(*LookupState)
	if !ok {
		return nil, ErrWrongStep
	}
	return st, nil
}

func (w *Wizard) composeState() (*ComposeState, error) {
	if w.closed {
		return nil, ErrClosed
	}
	st, ok := w.state.(*ComposeState)
	if !ok {
		return nil, ErrWrongStep
	}
	return st, nil
}

func (w *Wizard) message() (GeneratedMessage, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return GeneratedMessage{}, ErrClosed
	}
	st, ok := w.state.(*PresentState)
	if !ok {
		return GeneratedMessage{}, ErrWrongStep
	}
	return st.Message, nil
}
