// Package mpclient talks to the MP directory and message generation
// services over JSON-over-HTTP. It implements mpcontact.Directory and
// mpcontact.Generator and never retries: the user resubmits by hand.
package mpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hostcampaign/site/internal/config"
	"github.com/hostcampaign/site/internal/mpcontact"
	"github.com/hostcampaign/site/internal/pkg/logger"
)

const (
	lookupPath   = "/api/mp/lookup"
	generatePath = "/api/mp/generate-email"

	maxResponseBytes = 1 << 20
)

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the collaborator endpoints.
type Config struct {
	DirectoryURL string
	GeneratorURL string
	APIKey       string
	Timeout      time.Duration
}

// Client implements mpcontact.Directory and mpcontact.Generator.
type Client struct {
	directoryURL string
	generatorURL string
	apiKey       string
	http         HTTPDoer
}

var (
	_ mpcontact.Directory = (*Client)(nil)
	_ mpcontact.Generator = (*Client)(nil)
)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(d HTTPDoer) Option {
	return func(c *Client) { c.http = d }
}

// New creates a client. An empty GeneratorURL reuses DirectoryURL.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.GeneratorURL == "" {
		cfg.GeneratorURL = cfg.DirectoryURL
	}
	c := &Client{
		directoryURL: strings.TrimRight(cfg.DirectoryURL, "/"),
		generatorURL: strings.TrimRight(cfg.GeneratorURL, "/"),
		apiKey:       cfg.APIKey,
		http:         &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a client from the contact_mp config section.
func NewFromConfig(cfg config.ContactMPConfig, opts ...Option) *Client {
	return New(Config{
		DirectoryURL: cfg.DirectoryURL,
		GeneratorURL: cfg.GeneratorURL,
		APIKey:       cfg.APIKey,
		Timeout:      cfg.Timeout(),
	}, opts...)
}

// DirectoryURL returns the directory base URL.
func (c *Client) DirectoryURL() string { return c.directoryURL }

// GeneratorURL returns the generator base URL.
func (c *Client) GeneratorURL() string { return c.generatorURL }

// LookupRequest is the directory request body.
type LookupRequest struct {
	Postcode string `json:"postcode"`
}

// LookupResponse is the directory response body.
type LookupResponse struct {
	MP           *MP    `json:"mp,omitempty"`
	Constituency string `json:"constituency,omitempty"`
	Postcode     string `json:"postcode,omitempty"`
	Error        string `json:"error,omitempty"`
}

// MP is the representative block of a LookupResponse.
type MP struct {
	Name  string `json:"name"`
	Party string `json:"party"`
	Email string `json:"email,omitempty"`
}

// GenerateRequest is the generation request body.
type GenerateRequest struct {
	MPName         string   `json:"mp_name"`
	Constituency   string   `json:"constituency"`
	Issues         []string `json:"issues"`
	PersonalImpact string   `json:"personal_impact"`
}

// GenerateResponse is the generation response body.
type GenerateResponse struct {
	MPEmail string `json:"mp_email,omitempty"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Lookup resolves a postcode to its MP.
func (c *Client) Lookup(ctx context.Context, postcode string) (mpcontact.Representative, error) {
	var out LookupResponse
	status, err := c.post(ctx, c.directoryURL+lookupPath, LookupRequest{Postcode: postcode}, &out)
	if err != nil {
		return mpcontact.Representative{}, classify(string(mpcontact.OpLookup), status, err, out.Error,
			mpcontact.MsgLookupFailed, mpcontact.MsgLookupUnreachable)
	}
	if out.MP == nil || strings.TrimSpace(out.MP.Name) == "" {
		return mpcontact.Representative{}, &mpcontact.ServiceError{
			Operation: string(mpcontact.OpLookup), Status: status, Message: fallback(out.Error, mpcontact.MsgLookupFailed),
		}
	}

	rep := mpcontact.Representative{
		Name:         out.MP.Name,
		Party:        out.MP.Party,
		Constituency: out.Constituency,
		Postcode:     out.Postcode,
		Email:        out.MP.Email,
	}
	if rep.Postcode == "" {
		rep.Postcode = postcode
	}
	logger.Info("mpclient: lookup resolved", "postcode", postcode, "constituency", rep.Constituency)
	return rep, nil
}

// Generate requests a drafted letter.
func (c *Client) Generate(ctx context.Context, req mpcontact.GenerateRequest) (mpcontact.GeneratedMessage, error) {
	issues := make([]string, 0, len(req.Concerns))
	for _, concern := range req.Concerns {
		issues = append(issues, string(concern))
	}
	body := GenerateRequest{
		MPName:         req.RepresentativeName,
		Constituency:   req.Constituency,
		Issues:         issues,
		PersonalImpact: req.Narrative,
	}

	var out GenerateResponse
	status, err := c.post(ctx, c.generatorURL+generatePath, body, &out)
	if err != nil {
		return mpcontact.GeneratedMessage{}, classify(string(mpcontact.OpGenerate), status, err, out.Error,
			mpcontact.MsgGenerateFailed, mpcontact.MsgDraftUnreachable)
	}
	if out.Subject == "" || out.Body == "" {
		return mpcontact.GeneratedMessage{}, &mpcontact.ServiceError{
			Operation: string(mpcontact.OpGenerate), Status: status, Message: fallback(out.Error, mpcontact.MsgGenerateFailed),
		}
	}

	logger.Info("mpclient: message generated", "constituency", req.Constituency, "issues", len(issues))
	return mpcontact.GeneratedMessage{
		RecipientEmail: out.MPEmail,
		Subject:        out.Subject,
		Body:           out.Body,
	}, nil
}

// errTransport and errStatus separate "no response" from "bad response"
// inside post; classify turns them into mpcontact errors.
type errTransport struct{ err error }

func (e errTransport) Error() string { return e.err.Error() }

type errStatus struct{ status int }

func (e errStatus) Error() string { return fmt.Sprintf("status %d", e.status) }

func (c *Client) post(ctx context.Context, url string, in, out any) (int, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, errTransport{err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errTransport{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, errTransport{err: err}
	}

	decodeErr := json.Unmarshal(data, out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, errStatus{status: resp.StatusCode}
	}
	if decodeErr != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", decodeErr)
	}
	return resp.StatusCode, nil
}

func classify(op string, status int, err error, serviceMsg, fallbackMsg, unreachableMsg string) error {
	if te, ok := err.(errTransport); ok {
		logger.Warn("mpclient: request failed", "operation", op, "error", te.err)
		return &mpcontact.TransportError{Operation: op, Message: unreachableMsg, Err: te.err}
	}
	logger.Warn("mpclient: service error", "operation", op, "status", status, "error", err)
	return &mpcontact.ServiceError{Operation: op, Status: status, Message: fallback(serviceMsg, fallbackMsg)}
}

func fallback(msg, def string) string {
	if msg = strings.TrimSpace(msg); msg != "" {
		return msg
	}
	return def
}
