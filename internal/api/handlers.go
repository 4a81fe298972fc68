package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hostcampaign/site/internal/mpcontact"
	"github.com/hostcampaign/site/internal/pages"
	"github.com/hostcampaign/site/internal/pkg/httputil"
	"github.com/hostcampaign/site/internal/pkg/logger"
	"github.com/hostcampaign/site/internal/sessions"
)

const defaultWait = 35 * time.Second

// Handlers contains the Contact-MP HTTP handlers
type Handlers struct {
	sessions     *sessions.Registry
	pages        *pages.Renderer
	wait         time.Duration
	cookieSecure bool
}

// NewHandlers creates a new Handlers instance. wait bounds how long lookup
// and generate requests block before answering with the pending snapshot.
func NewHandlers(registry *sessions.Registry, renderer *pages.Renderer, wait time.Duration) *Handlers {
	if wait <= 0 {
		wait = defaultWait
	}
	return &Handlers{
		sessions: registry,
		pages:    renderer,
		wait:     wait,
	}
}

// SetCookieSecure marks the wizard session cookie Secure (HTTPS deployments)
func (h *Handlers) SetCookieSecure(secure bool) {
	h.cookieSecure = secure
}

// sessionResponse is a wizard snapshot tagged with its session id.
type sessionResponse struct {
	ID string `json:"id"`
	mpcontact.Snapshot
}

// wizard resolves the {id} URL parameter, writing a 404 when unknown.
func (h *Handlers) wizard(w http.ResponseWriter, r *http.Request) (string, *mpcontact.Wizard, bool) {
	id := chi.URLParam(r, "id")
	wiz, err := h.sessions.Get(id)
	if err != nil {
		httputil.ErrorCode(w, http.StatusNotFound, "unknown_session", "session not found")
		return "", nil, false
	}
	return id, wiz, true
}

// await blocks until op finishes, the wait budget runs out or the client
// goes away. The call itself is never cancelled by the caller.
func (h *Handlers) await(r *http.Request, op *mpcontact.Operation) bool {
	if op == nil || r.URL.Query().Get("wait") == "false" {
		return op == nil
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.wait)
	defer cancel()
	status, _ := op.Wait(ctx)
	return status != mpcontact.OpPending
}

func respondSnapshot(w http.ResponseWriter, status int, id string, wiz *mpcontact.Wizard) {
	httputil.JSON(w, status, sessionResponse{ID: id, Snapshot: wiz.Snapshot()})
}

// respondWizardError maps wizard errors onto HTTP statuses. Service and
// transport failures are not errors here: they live in the snapshot.
func respondWizardError(w http.ResponseWriter, err error) {
	var verr *mpcontact.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.ErrorCode(w, http.StatusUnprocessableEntity, "validation", verr.Message)
	case errors.Is(err, mpcontact.ErrUnknownConcern):
		httputil.ErrorCode(w, http.StatusUnprocessableEntity, "unknown_concern", mpcontact.UserMessage(err))
	case errors.Is(err, mpcontact.ErrUnknownField):
		httputil.ErrorCode(w, http.StatusNotFound, "unknown_field", "no such message field")
	case errors.Is(err, mpcontact.ErrBusy):
		httputil.ErrorCode(w, http.StatusConflict, "busy", mpcontact.UserMessage(err))
	case errors.Is(err, mpcontact.ErrWrongStep):
		httputil.ErrorCode(w, http.StatusConflict, "wrong_step", "that action is not available at this step")
	case errors.Is(err, mpcontact.ErrClosed):
		httputil.ErrorCode(w, http.StatusNotFound, "unknown_session", "session not found")
	default:
		httputil.InternalError(w, err)
	}
}

// ListConcerns returns the fixed concern options in display order
// GET /api/contact-mp/concerns
func (h *Handlers) ListConcerns(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{"concerns": mpcontact.Concerns()})
}

// CreateSession starts a wizard at the lookup step
// POST /api/contact-mp/sessions
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, wiz := h.sessions.Create()
	httputil.Created(w, sessionResponse{ID: id, Snapshot: wiz.Snapshot()})
}

// GetSession returns the wizard snapshot
// GET /api/contact-mp/sessions/{id}
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id, wiz, ok := h.wizard(w, r)
	if !ok {
		return
	}
	respondSnapshot(w, http.StatusOK, id, wiz)
}

// DeleteSession abandons the wizard; a call still in flight is discarded
// DELETE /api/contact-mp/sessions/{id}
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(chi.URLParam(r, "id")) {
		httputil.ErrorCode(w, http.StatusNotFound, "unknown_session", "session not found")
		return
	}
	httputil.NoContent(w)
}

type postcodeRequest struct {
	Postcode string `json:"postcode"`
}

// SetPostcode records the postcode as typed
// PUT /api/contact-mp/sessions/{id}/postcode
func (h *Handlers) SetPostcode(w http.ResponseWriter, r *http.Request) {
	id, wiz, ok := h.wizard(w, r)
	if !ok {
		return
	}
	var req postcodeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := wiz.SetPostcode(req.Postcode); err != nil {
		respondWizardError(w, err)
		return
	}
	respondSnapshot(w, http.StatusOK, id, wiz)
}

// Lookup resolves the postcode to an MP. An optional {"postcode"} body is
// recorded first. With ?wait=false it answers 202 immediately.
// POST /api/contact-mp/sessions/{id}/lookup
func (h *Handlers) Lookup(w http.ResponseWriter, r *http.Request) {
	id, wiz, ok := h.wizard(w, r)
	if !ok {
		return
	}
	if r.ContentLength != 0 {
		var req postcodeRequest
		if !httputil.Decode(w, r, &req) {
			return
		}
		if err := wiz.SetPostcode(req.Postcode); err != nil {
			respondWizardError(w, err)
			return
		}
	}

	op, err := wiz.SubmitPostcode(r.Context())
	if err != nil {
		respondWizardError(w, err)
		return
	}
	h.respondOperation(w, r, id, wiz, op)
}

// ToggleConcern adds or removes one concern
// POST /api/contact-mp/sessions/{id}/concerns/{concern}/toggle
func (h *Handlers) ToggleConcern(w http.ResponseWriter, r *http.Request) {
	id, wiz, ok := h.wizard(w, r)
	if !ok {
		return
	}
	c, err := mpcontact.ParseConcern(chi.URLParam(r, "concern"))
	if err != nil {
		respondWizardError(w, err)
		return
	}
	if err := wiz.ToggleConcern(c); err != nil {
		respondWizardError(w, err)
		return
	}
	respondSnapshot(w, http.StatusOK, id, wiz)
}

type narrativeRequest struct {
	Narrative string `json:"narrative"`
}

// SetNarrative records the optional personal story
// PUT /api/contact-mp/sessions/{id}/narrative
func (h *Handlers) SetNarrative(w http.ResponseWriter, r *http.Request) {
	id, wiz, ok := h.wizard(w, r)
	if !ok {
		return
	}
	var req narrativeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := wiz.SetNarrative(req.Narrative); err != nil {
		respondWizardError(w, err)
		return
	}
	respondSnapshot(w, http.StatusOK, id, wiz)
}

// Generate drafts the letter. With ?wait=false it answers 202 immediately.
// POST /api/contact-mp/sessions/{id}/generate
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	id, wiz, ok := h.wizard(w, r)
	if !ok {
		return
	}
	op, err := wiz.GenerateMessage(r.Context())
	if err != nil {
		respondWizardError(w, err)
		return
	}
	h.respondOperation(w, r, id, wiz, op)
}

func (h *Handlers) respondOperation(w http.ResponseWriter, r *http.Request, id string, wiz *mpcontact.Wizard, op *mpcontact.Operation) {
	if !h.await(r, op) {
		httputil.Accepted(w, sessionResponse{ID: id, Snapshot: wiz.Snapshot()})
		return
	}
	if op.Status() == mpcontact.OpFailed {
		logger.Info("contact-mp: call failed", "session", id, "operation", op.Kind(), "error", op.Err())
	}
	respondSnapshot(w, http.StatusOK, id, wiz)
}

// CopyField returns the literal text of one message field
// GET /api/contact-mp/sessions/{id}/fields/{field}
func (h *Handlers) CopyField(w http.ResponseWriter, r *http.Request) {
	_, wiz, ok := h.wizard(w, r)
	if !ok {
		return
	}
	text, err := wiz.CopyField(mpcontact.Field(chi.URLParam(r, "field")), nil)
	if err != nil {
		respondWizardError(w, err)
		return
	}
	httputil.Text(w, http.StatusOK, text)
}

// Mailto returns the mail-compose link for the generated message
// GET /api/contact-mp/sessions/{id}/mailto
func (h *Handlers) Mailto(w http.ResponseWriter, r *http.Request) {
	_, wiz, ok := h.wizard(w, r)
	if !ok {
		return
	}
	link, err := wiz.MailtoURL()
	if err != nil {
		respondWizardError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"mailto_url": link})
}

// Restart clears the wizard back to the lookup step
// POST /api/contact-mp/sessions/{id}/restart
func (h *Handlers) Restart(w http.ResponseWriter, r *http.Request) {
	id, wiz, ok := h.wizard(w, r)
	if !ok {
		return
	}
	if err := wiz.Restart(); err != nil {
		respondWizardError(w, err)
		return
	}
	respondSnapshot(w, http.StatusOK, id, wiz)
}
