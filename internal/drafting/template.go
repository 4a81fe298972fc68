package drafting

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hostcampaign/site/internal/mpcontact"
	"github.com/osteele/liquid"
)

const subjectTemplate = `Short-term rental concerns in {{ constituency }}`

const bodyTemplate = `Dear {{ mp_name }},

I am writing to you as a constituent in {{ constituency }} about the growing number of homes in our area being turned into short-term holiday lets, and the effect this is having on our community.

The issues that concern me most are:
{% for issue in issues %}- {{ issue | sentence }}
{% endfor %}
{% if personal_impact != "" %}
{{ personal_impact }}

{% endif %}
I would be grateful if you could tell me what you are doing to support stronger regulation of short-term rentals, including a registration scheme and planning controls that give local authorities the powers they need, so that homes in {{ constituency }} stay available for the people who live and work here.

Thank you for your time. I look forward to your reply.

{{ sign_off }}
A constituent in {{ constituency }}
{% if campaign != "" %}
Sent via the {{ campaign }} campaign
{% endif %}`

var blankLines = regexp.MustCompile(`\n{3,}`)

// TemplateDrafter renders a fixed letter with Liquid. It never calls out
// and is used whenever the model is disabled or fails.
type TemplateDrafter struct {
	engine   *liquid.Engine
	subject  *liquid.Template
	body     *liquid.Template
	campaign string
	signOff  string
}

// NewTemplateDrafter parses the letter templates.
func NewTemplateDrafter(campaign, signOff string) (*TemplateDrafter, error) {
	engine := liquid.NewEngine()

	// Lower-case the first letter so a label reads inside a sentence: {{ issue | sentence }}
	engine.RegisterFilter("sentence", func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToLower(s[:1]) + s[1:]
	})

	subject, err := engine.ParseString(subjectTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse subject template: %w", err)
	}
	body, err := engine.ParseString(bodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse body template: %w", err)
	}
	if signOff == "" {
		signOff = "Yours sincerely,"
	}
	return &TemplateDrafter{
		engine:   engine,
		subject:  subject,
		body:     body,
		campaign: campaign,
		signOff:  signOff,
	}, nil
}

// Draft renders the letter for req.
func (d *TemplateDrafter) Draft(ctx context.Context, req Request) (Letter, error) {
	if err := req.Validate(); err != nil {
		return Letter{}, err
	}

	bindings := map[string]interface{}{
		"mp_name":         strings.TrimSpace(req.MPName),
		"constituency":    strings.TrimSpace(req.Constituency),
		"issues":          labels(req.Issues),
		"personal_impact": strings.TrimSpace(req.PersonalImpact),
		"sign_off":        d.signOff,
		"campaign":        d.campaign,
	}

	subject, err := d.subject.RenderString(bindings)
	if err != nil {
		return Letter{}, fmt.Errorf("render subject: %w", err)
	}
	body, err := d.body.RenderString(bindings)
	if err != nil {
		return Letter{}, fmt.Errorf("render body: %w", err)
	}
	body = blankLines.ReplaceAllString(strings.TrimSpace(body), "\n\n")

	return Letter{Subject: strings.TrimSpace(subject), Body: body}, nil
}

var _ Drafter = (*TemplateDrafter)(nil)

func labels(issues []mpcontact.Concern) []string {
	out := make([]string, 0, len(issues))
	for _, c := range issues {
		out = append(out, c.Label())
	}
	return out
}
