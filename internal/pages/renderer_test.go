package pages

import (
	"bytes"
	"testing"

	"github.com/hostcampaign/site/internal/mpcontact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, snap mpcontact.Snapshot) string {
	t.Helper()
	r, err := New("HOST")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.ContactMP(&buf, snap))
	return buf.String()
}

func TestLookupStepEscapesInput(t *testing.T) {
	out := render(t, mpcontact.Snapshot{
		Step:     mpcontact.StepLookup,
		Postcode: `"><SCRIPT>`,
		Error:    mpcontact.MsgEmptyPostcode,
	})
	assert.Contains(t, out, `action="/contact-mp/lookup"`)
	assert.Contains(t, out, "&#34;&gt;&lt;SCRIPT&gt;")
	assert.NotContains(t, out, "<SCRIPT>")
	assert.Contains(t, out, "Please enter a postcode")
	assert.Contains(t, out, "Find My MP")
	assert.NotContains(t, out, "Select Your Concerns")
}

func TestLookupStepBusy(t *testing.T) {
	out := render(t, mpcontact.Snapshot{Step: mpcontact.StepLookup, Busy: true})
	assert.Contains(t, out, "Looking up...")
	assert.Contains(t, out, " disabled")
}

func TestComposeStepListsConcernsInFixedOrder(t *testing.T) {
	out := render(t, mpcontact.Snapshot{
		Step: mpcontact.StepCompose,
		Representative: &mpcontact.Representative{
			Name: "Jane Doe", Party: "X", Constituency: "Cityborough", Postcode: "SW1A 1AA",
		},
		Concerns:  []mpcontact.Concern{mpcontact.SafetyConcerns},
		Narrative: "Tom & Jerry next door",
	})

	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "Cityborough")
	assert.Contains(t, out, "Tom &amp; Jerry next door")
	assert.Contains(t, out, `value="safety_concerns" checked`)
	assert.NotContains(t, out, `value="housing_shortage" checked`)
	assert.NotContains(t, out, "Please select at least one concern")
	assert.Contains(t, out, `<button type="submit" id="generate">Generate Email</button>`)

	prev := -1
	for _, opt := range mpcontact.Concerns() {
		i := bytes.Index([]byte(out), []byte(opt.ID))
		require.Greater(t, i, prev, "concern %s out of order", opt.ID)
		prev = i
	}
}

func TestComposeStepHintWhenNothingSelected(t *testing.T) {
	out := render(t, mpcontact.Snapshot{
		Step:           mpcontact.StepCompose,
		Representative: &mpcontact.Representative{Name: "Jane Doe"},
	})
	assert.Contains(t, out, "Please select at least one concern")
	assert.Contains(t, out, `<button type="submit" id="generate" disabled>Generate Email</button>`)
	assert.Contains(t, out, "<noscript><button type=\"submit\">Generate Email</button></noscript>")
}

func TestComposeStepBusyHidesFallbackButton(t *testing.T) {
	out := render(t, mpcontact.Snapshot{
		Step:           mpcontact.StepCompose,
		Busy:           true,
		Representative: &mpcontact.Representative{Name: "Jane Doe"},
		Concerns:       []mpcontact.Concern{mpcontact.NoiseAntisocial},
	})
	assert.Contains(t, out, `<button type="submit" id="generate" disabled>Generating Email...</button>`)
	assert.NotContains(t, out, "<noscript>")
}

func TestPresentStepShowsMessage(t *testing.T) {
	out := render(t, mpcontact.Snapshot{
		Step:           mpcontact.StepPresent,
		Representative: &mpcontact.Representative{Name: "Jane Doe"},
		Message: &mpcontact.GeneratedMessage{
			RecipientEmail: "jane.doe@parliament.uk",
			Subject:        "Short-term rental concerns",
			Body:           "Dear Jane Doe,\n\n<b>hi</b>",
		},
	})
	assert.Contains(t, out, `value="jane.doe@parliament.uk"`)
	assert.Contains(t, out, "Short-term rental concerns")
	assert.Contains(t, out, "&lt;b&gt;hi&lt;/b&gt;")
	assert.Contains(t, out, `href="/contact-mp/mailto"`)
	assert.Contains(t, out, `href="/contact-mp/copy/body"`)
	assert.Contains(t, out, "Start Over")
}
