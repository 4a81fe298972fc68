// Package drafting writes the constituent's letter to their MP from the
// selected concerns and optional personal story.
package drafting

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hostcampaign/site/internal/mpcontact"
)

// ErrInvalidRequest is returned for requests that cannot produce a letter.
var ErrInvalidRequest = errors.New("drafting: invalid request")

// Request carries everything a letter is written from.
type Request struct {
	MPName         string
	Constituency   string
	Issues         []mpcontact.Concern
	PersonalImpact string
}

// Letter is a drafted subject and body.
type Letter struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Drafter produces a letter.
type Drafter interface {
	Draft(ctx context.Context, req Request) (Letter, error)
}

// ParseIssues validates wire identifiers, dropping duplicates and keeping
// order. At least one known issue is required.
func ParseIssues(ids []string) ([]mpcontact.Concern, error) {
	sel := mpcontact.NewSelection()
	for _, id := range ids {
		c, err := mpcontact.ParseConcern(strings.TrimSpace(id))
		if err != nil {
			return nil, fmt.Errorf("%w: unknown issue %q", ErrInvalidRequest, id)
		}
		if !sel.Has(c) {
			sel.Toggle(c)
		}
	}
	if sel.Empty() {
		return nil, fmt.Errorf("%w: at least one issue is required", ErrInvalidRequest)
	}
	return sel.List(), nil
}

// Validate checks the fields every drafter relies on.
func (r Request) Validate() error {
	if strings.TrimSpace(r.MPName) == "" {
		return fmt.Errorf("%w: MP name is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Constituency) == "" {
		return fmt.Errorf("%w: constituency is required", ErrInvalidRequest)
	}
	if len(r.Issues) == 0 {
		return fmt.Errorf("%w: at least one issue is required", ErrInvalidRequest)
	}
	return nil
}

var titles = regexp.MustCompile(`(?i)^(sir|dame|dr|mr|mrs|ms|miss|rt hon|the rt hon)\.?\s+`)

// GuessEmail derives the usual Commons address firstname.lastname.mp@parliament.uk
// from a display name, ignoring honorifics and post-nominals.
func GuessEmail(name string) string {
	n := strings.TrimSpace(name)
	for {
		stripped := titles.ReplaceAllString(n, "")
		if stripped == n {
			break
		}
		n = stripped
	}
	if i := strings.Index(n, " MP"); i > 0 {
		n = n[:i]
	}
	if i := strings.Index(n, ","); i > 0 {
		n = n[:i]
	}

	parts := strings.Fields(strings.ToLower(n))
	if len(parts) == 0 {
		return ""
	}
	clean := func(s string) string {
		var b strings.Builder
		for _, r := range s {
			if (r >= 'a' && r <= 'z') || r == '-' {
				b.WriteRune(r)
			}
		}
		return b.String()
	}
	first, last := clean(parts[0]), clean(parts[len(parts)-1])
	if len(parts) == 1 || first == "" {
		return last + ".mp@parliament.uk"
	}
	return first + "." + last + ".mp@parliament.uk"
}
