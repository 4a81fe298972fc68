package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hostcampaign/site/internal/mpcontact"
	"github.com/hostcampaign/site/internal/pkg/httputil"
	"github.com/hostcampaign/site/internal/pkg/logger"
)

const (
	sessionCookie = "contact_mp_session"
	pagePath      = "/contact-mp"
)

// pageWizard returns the wizard bound to the session cookie, starting a new
// one (and setting the cookie) when there is none or it has expired.
func (h *Handlers) pageWizard(w http.ResponseWriter, r *http.Request) *mpcontact.Wizard {
	var current string
	if c, err := r.Cookie(sessionCookie); err == nil {
		current = c.Value
	}
	id, wiz := h.sessions.GetOrCreate(current)
	if id != current {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     pagePath,
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return wiz
}

func seeOther(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, pagePath, http.StatusSeeOther)
}

// waitPage gives a just-started call the wait budget to finish so the
// redirected GET usually shows the result. The page refreshes while busy.
func (h *Handlers) waitPage(r *http.Request, op *mpcontact.Operation) {
	if op == nil {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.wait)
	defer cancel()
	op.Wait(ctx)
}

// pageActionError handles errors from a form post. Validation failures are
// already recorded on the wizard state and shown on the next render.
func pageActionError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *mpcontact.ValidationError
	if !errors.As(err, &verr) {
		logger.Debug("contact-mp page: action rejected", "error", err)
	}
	seeOther(w, r)
}

// Page renders the wizard for the current step
// GET /contact-mp
func (h *Handlers) Page(w http.ResponseWriter, r *http.Request) {
	wiz := h.pageWizard(w, r)

	var buf bytes.Buffer
	if err := h.pages.ContactMP(&buf, wiz.Snapshot()); err != nil {
		httputil.InternalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// PageLookup submits the postcode form
// POST /contact-mp/lookup
func (h *Handlers) PageLookup(w http.ResponseWriter, r *http.Request) {
	wiz := h.pageWizard(w, r)
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "invalid form")
		return
	}
	if err := wiz.SetPostcode(r.PostFormValue("postcode")); err != nil {
		pageActionError(w, r, err)
		return
	}
	op, err := wiz.SubmitPostcode(r.Context())
	if err != nil {
		pageActionError(w, r, err)
		return
	}
	h.waitPage(r, op)
	seeOther(w, r)
}

// PageGenerate syncs the ticked concerns and narrative, then drafts the
// letter
// POST /contact-mp/generate
func (h *Handlers) PageGenerate(w http.ResponseWriter, r *http.Request) {
	wiz := h.pageWizard(w, r)
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "invalid form")
		return
	}
	if err := syncConcerns(wiz, r.PostForm["concern"]); err != nil {
		pageActionError(w, r, err)
		return
	}
	if err := wiz.SetNarrative(r.PostFormValue("narrative")); err != nil {
		pageActionError(w, r, err)
		return
	}
	op, err := wiz.GenerateMessage(r.Context())
	if err != nil {
		pageActionError(w, r, err)
		return
	}
	h.waitPage(r, op)
	seeOther(w, r)
}

// syncConcerns toggles the wizard selection until it matches the ticked
// checkboxes. Unknown ids are ignored.
func syncConcerns(wiz *mpcontact.Wizard, ticked []string) error {
	want := mpcontact.NewSelection()
	for _, s := range ticked {
		c, err := mpcontact.ParseConcern(s)
		if err != nil {
			logger.Debug("contact-mp page: ignoring concern", "concern", s)
			continue
		}
		if !want.Has(c) {
			want.Toggle(c)
		}
	}

	have := mpcontact.NewSelection(wiz.Snapshot().Concerns...)
	for _, c := range have.List() {
		if !want.Has(c) {
			if err := wiz.ToggleConcern(c); err != nil {
				return err
			}
		}
	}
	for _, c := range want.List() {
		if !have.Has(c) {
			if err := wiz.ToggleConcern(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// PageRestart starts over
// POST /contact-mp/restart
func (h *Handlers) PageRestart(w http.ResponseWriter, r *http.Request) {
	wiz := h.pageWizard(w, r)
	if err := wiz.Restart(); err != nil {
		pageActionError(w, r, err)
		return
	}
	seeOther(w, r)
}

// PageMailto hands the browser the mail-compose link
// GET /contact-mp/mailto
func (h *Handlers) PageMailto(w http.ResponseWriter, r *http.Request) {
	wiz := h.pageWizard(w, r)
	link, err := wiz.MailtoURL()
	if err != nil {
		pageActionError(w, r, err)
		return
	}
	http.Redirect(w, r, link, http.StatusSeeOther)
}

// PageCopy returns one message field as plain text
// GET /contact-mp/copy/{field}
func (h *Handlers) PageCopy(w http.ResponseWriter, r *http.Request) {
	wiz := h.pageWizard(w, r)
	text, err := wiz.CopyField(mpcontact.Field(chi.URLParam(r, "field")), nil)
	switch {
	case errors.Is(err, mpcontact.ErrUnknownField):
		http.NotFound(w, r)
	case err != nil:
		seeOther(w, r)
	default:
		httputil.Text(w, http.StatusOK, text)
	}
}
