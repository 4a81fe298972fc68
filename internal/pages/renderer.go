// Package pages renders the server-side Contact-MP wizard with the Liquid
// template language, so the flow works without JavaScript.
package pages

import (
	"embed"
	"fmt"
	"html"
	"io"
	"path"
	"strings"

	"github.com/hostcampaign/site/internal/mpcontact"
	"github.com/osteele/liquid"
)

//go:embed templates/*.liquid
var templateFS embed.FS

// Renderer holds parsed page templates.
type Renderer struct {
	engine    *liquid.Engine
	templates map[string]*liquid.Template
	campaign  string
}

// New parses every embedded template.
func New(campaign string) (*Renderer, error) {
	r := &Renderer{
		engine:    liquid.NewEngine(),
		templates: make(map[string]*liquid.Template),
		campaign:  campaign,
	}
	r.registerFilters()

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		src, err := templateFS.ReadFile(path.Join("templates", e.Name()))
		if err != nil {
			return nil, err
		}
		tpl, perr := r.engine.ParseTemplate(src)
		if perr != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), perr)
		}
		r.templates[strings.TrimSuffix(e.Name(), ".liquid")] = tpl
	}
	return r, nil
}

func (r *Renderer) registerFilters() {
	// HTML escape every user-provided value: {{ postcode | escape }}
	r.engine.RegisterFilter("escape", func(s interface{}) string {
		if s == nil {
			return ""
		}
		return html.EscapeString(fmt.Sprintf("%v", s))
	})
}

// ContactMP renders the wizard page for snap.
func (r *Renderer) ContactMP(w io.Writer, snap mpcontact.Snapshot) error {
	return r.render(w, "contact_mp", contactMPBindings(snap, r.campaign))
}

func (r *Renderer) render(w io.Writer, name string, bindings map[string]interface{}) error {
	tpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("pages: unknown template %q", name)
	}
	out, err := tpl.Render(bindings)
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, werr := w.Write(out)
	return werr
}

func contactMPBindings(snap mpcontact.Snapshot, campaign string) map[string]interface{} {
	b := map[string]interface{}{
		"campaign":       campaign,
		"step":           int(snap.Step),
		"busy":           snap.Busy,
		"error":          snap.Error,
		"postcode":       snap.Postcode,
		"narrative":      snap.Narrative,
		"selected_count": len(snap.Concerns),
	}

	if snap.Representative != nil {
		b["rep"] = map[string]interface{}{
			"name":         snap.Representative.Name,
			"party":        snap.Representative.Party,
			"constituency": snap.Representative.Constituency,
			"postcode":     snap.Representative.Postcode,
		}
	}

	selected := mpcontact.NewSelection(snap.Concerns...)
	concerns := make([]map[string]interface{}, 0, 5)
	for _, opt := range mpcontact.Concerns() {
		concerns = append(concerns, map[string]interface{}{
			"id":      string(opt.ID),
			"label":   opt.Label,
			"checked": selected.Has(opt.ID),
		})
	}
	b["concerns"] = concerns

	if snap.Message != nil {
		b["message"] = map[string]interface{}{
			"recipient": snap.Message.RecipientEmail,
			"subject":   snap.Message.Subject,
			"body":      snap.Message.Body,
		}
	}
	return b
}
