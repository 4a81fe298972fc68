package terminal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hostcampaign/site/internal/mpcontact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServices struct {
	mu        sync.Mutex
	lookupErr error
	requests  []mpcontact.GenerateRequest
}

func (f *fakeServices) Lookup(ctx context.Context, postcode string) (mpcontact.Representative, error) {
	if f.lookupErr != nil {
		return mpcontact.Representative{}, f.lookupErr
	}
	return mpcontact.Representative{Name: "Jane Doe", Party: "X", Constituency: "Cityborough", Postcode: postcode}, nil
}

func (f *fakeServices) Generate(ctx context.Context, req mpcontact.GenerateRequest) (mpcontact.GeneratedMessage, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return mpcontact.GeneratedMessage{
		RecipientEmail: "jane.doe@parliament.uk",
		Subject:        "Short-term rental concerns",
		Body:           "Dear Jane Doe",
	}, nil
}

type recordingClipboard struct{ texts []string }

func (c *recordingClipboard) WriteText(text string) error {
	c.texts = append(c.texts, text)
	return nil
}

type recordingOpener struct {
	urls []string
	err  error
}

func (o *recordingOpener) OpenURL(u string) error {
	o.urls = append(o.urls, u)
	return o.err
}

func run(t *testing.T, svc *fakeServices, input string, cb mpcontact.Clipboard, opener mpcontact.URLOpener) (*mpcontact.Wizard, string) {
	t.Helper()
	wiz := mpcontact.New(svc, svc)
	var out bytes.Buffer
	s := NewSession(wiz, strings.NewReader(input), &out, cb, opener)
	require.NoError(t, s.Run(context.Background()))
	return wiz, out.String()
}

func TestSessionFullFlow(t *testing.T) {
	svc := &fakeServices{}
	cb := &recordingClipboard{}
	opener := &recordingOpener{err: errors.New("no handler")}

	input := strings.Join([]string{
		"sw1a 1aa",
		"1",
		"3",
		"s Our street is now mostly holiday lets",
		"g",
		"c subject",
		"c signature",
		"o",
		"q",
	}, "\n") + "\n"

	wiz, out := run(t, svc, input, cb, opener)

	assert.Contains(t, out, "Your MP is Jane Doe (X), Cityborough")
	assert.Contains(t, out, "[x] Loss of affordable rental properties")
	assert.Contains(t, out, "Subject: Short-term rental concerns")
	assert.Contains(t, out, "? copy recipient, subject or body")
	assert.Contains(t, out, "mailto:jane.doe%40parliament.uk?subject=Short-term%20rental%20concerns&body=Dear%20Jane%20Doe")
	assert.Equal(t, mpcontact.StepPresent, wiz.Step())

	require.Len(t, svc.requests, 1)
	assert.Equal(t, []mpcontact.Concern{mpcontact.HousingShortage, mpcontact.NoiseAntisocial}, svc.requests[0].Concerns)
	assert.Equal(t, "Our street is now mostly holiday lets", svc.requests[0].Narrative)
	assert.Equal(t, []string{"Short-term rental concerns"}, cb.texts)
	assert.Len(t, opener.urls, 1)
}

func TestSessionValidationMessages(t *testing.T) {
	svc := &fakeServices{}
	wiz, out := run(t, svc, "\nSW1A 1AA\ng\nq\n", nil, nil)

	assert.Contains(t, out, "! "+mpcontact.MsgEmptyPostcode)
	assert.Contains(t, out, "! "+mpcontact.MsgNoConcerns)
	assert.Empty(t, svc.requests)
	assert.Equal(t, mpcontact.StepCompose, wiz.Step())
}

func TestSessionLookupFailureStaysOnFirstStep(t *testing.T) {
	svc := &fakeServices{lookupErr: &mpcontact.ServiceError{Operation: "lookup", Status: 404, Message: "Postcode not found"}}
	wiz, out := run(t, svc, "ZZ99 9ZZ\nq\n", nil, nil)

	assert.Contains(t, out, "! Postcode not found")
	assert.Equal(t, mpcontact.StepLookup, wiz.Step())
}

func TestSessionRestartAndEOF(t *testing.T) {
	svc := &fakeServices{}
	wiz, out := run(t, svc, "SW1A 1AA\n9\nr\n", nil, nil)

	assert.Contains(t, out, "? unrecognised command")
	assert.Equal(t, mpcontact.StepLookup, wiz.Step())
}

func TestSystemClipboard(t *testing.T) {
	var got []string
	c := &SystemClipboard{write: func(text string) error {
		got = append(got, text)
		return nil
	}}
	require.NoError(t, c.WriteText("Short-term rental concerns"))
	assert.Equal(t, []string{"Short-term rental concerns"}, got)

	c.unsupported = true
	assert.ErrorIs(t, c.WriteText("x"), ErrNoClipboard)
	assert.Len(t, got, 1)
}

// A failing clipboard does not stop the copy from reporting the text.
func TestSessionCopyIgnoresClipboardFailure(t *testing.T) {
	svc := &fakeServices{}
	cb := &SystemClipboard{unsupported: true}
	wiz, out := run(t, svc, "SW1A 1AA\n1\ng\nc body\nq\n", cb, nil)

	assert.Contains(t, out, "Copied 13 characters")
	assert.Equal(t, mpcontact.StepPresent, wiz.Step())
}
