// Package mpservice serves the two collaborator endpoints the Contact-MP
// wizard talks to: postcode lookup and letter generation.
package mpservice

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hostcampaign/site/internal/directory"
	"github.com/hostcampaign/site/internal/drafting"
	"github.com/hostcampaign/site/internal/mpclient"
	"github.com/hostcampaign/site/internal/pkg/httputil"
	"github.com/hostcampaign/site/internal/pkg/logger"
)

// Error texts returned to callers.
const (
	msgEmptyPostcode    = "Please enter a postcode"
	msgPostcodeNotFound = "Postcode not found"
	msgLookupUpstream   = "The MP lookup service is temporarily unavailable"
	msgGenerateFailed   = "Failed to generate email"
)

// Resolver resolves postcodes to sitting MPs.
type Resolver interface {
	Lookup(ctx context.Context, postcode string) (directory.Member, error)
	EmailFor(ctx context.Context, name string) (string, bool)
}

// Handlers serves the MP endpoints.
type Handlers struct {
	resolver Resolver
	drafter  drafting.Drafter
}

// NewHandlers creates the MP endpoint handlers.
func NewHandlers(resolver Resolver, drafter drafting.Drafter) *Handlers {
	return &Handlers{resolver: resolver, drafter: drafter}
}

// Lookup resolves a postcode to its MP
// POST /api/mp/lookup
func (h *Handlers) Lookup(w http.ResponseWriter, r *http.Request) {
	var req mpclient.LookupRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	m, err := h.resolver.Lookup(r.Context(), req.Postcode)
	if err != nil {
		var nomem *directory.NoMemberError
		switch {
		case errors.Is(err, directory.ErrEmptyPostcode):
			httputil.BadRequest(w, msgEmptyPostcode)
		case errors.As(err, &nomem):
			httputil.NotFound(w, "No sitting MP found for "+nomem.Constituency)
		case errors.Is(err, directory.ErrPostcodeNotFound):
			httputil.NotFound(w, msgPostcodeNotFound)
		default:
			logger.Error("mpservice: lookup failed", "postcode", req.Postcode, "error", err)
			httputil.Error(w, http.StatusBadGateway, msgLookupUpstream)
		}
		return
	}

	email := m.Email
	if email == "" {
		email = drafting.GuessEmail(m.Name)
	}
	httputil.OK(w, mpclient.LookupResponse{
		MP:           &mpclient.MP{Name: m.Name, Party: m.Party, Email: email},
		Constituency: m.Constituency,
		Postcode:     m.Postcode,
	})
}

// GenerateEmail drafts the constituent's letter
// POST /api/mp/generate-email
func (h *Handlers) GenerateEmail(w http.ResponseWriter, r *http.Request) {
	var req mpclient.GenerateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	issues, err := drafting.ParseIssues(req.Issues)
	if err != nil {
		httputil.BadRequest(w, publicMessage(err))
		return
	}
	dreq := drafting.Request{
		MPName:         req.MPName,
		Constituency:   req.Constituency,
		Issues:         issues,
		PersonalImpact: req.PersonalImpact,
	}
	if err := dreq.Validate(); err != nil {
		httputil.BadRequest(w, publicMessage(err))
		return
	}

	letter, err := h.drafter.Draft(r.Context(), dreq)
	if err != nil {
		logger.Error("mpservice: drafting failed", "constituency", req.Constituency, "error", err)
		httputil.Error(w, http.StatusBadGateway, msgGenerateFailed)
		return
	}

	email, ok := h.resolver.EmailFor(r.Context(), req.MPName)
	if !ok {
		email = drafting.GuessEmail(req.MPName)
	}

	logger.Info("mpservice: letter generated",
		"constituency", req.Constituency, "issues", len(issues), "personal_impact", req.PersonalImpact)
	httputil.OK(w, mpclient.GenerateResponse{
		MPEmail: email,
		Subject: letter.Subject,
		Body:    letter.Body,
	})
}

// publicMessage turns a drafting validation error into caller-facing text.
func publicMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), drafting.ErrInvalidRequest.Error()+": ")
	if msg == "" {
		return "Invalid request"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
