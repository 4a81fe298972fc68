package mpservice

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hostcampaign/site/internal/config"
	"github.com/hostcampaign/site/internal/directory"
	"github.com/hostcampaign/site/internal/drafting"
	"github.com/hostcampaign/site/internal/mpclient"
	"github.com/hostcampaign/site/internal/mpcontact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	members map[string]directory.Member
	err     error
	emails  map[string]string
}

func (f *fakeResolver) Lookup(ctx context.Context, postcode string) (directory.Member, error) {
	if f.err != nil {
		return directory.Member{}, f.err
	}
	if strings.TrimSpace(postcode) == "" {
		return directory.Member{}, directory.ErrEmptyPostcode
	}
	m, ok := f.members[directory.NormalizePostcode(postcode)]
	if !ok {
		return directory.Member{}, directory.ErrPostcodeNotFound
	}
	return m, nil
}

func (f *fakeResolver) EmailFor(ctx context.Context, name string) (string, bool) {
	e, ok := f.emails[name]
	return e, ok
}

type failingDrafter struct{}

func (failingDrafter) Draft(context.Context, drafting.Request) (drafting.Letter, error) {
	return drafting.Letter{}, drafting.ErrBadModelOutput
}

func newResolver() *fakeResolver {
	return &fakeResolver{
		members: map[string]directory.Member{
			"SW1A 1AA": {Name: "Jane Doe", Party: "X", Email: "jane.doe@parliament.uk", Constituency: "Cityborough", Postcode: "SW1A 1AA"},
			"M1 1AE":   {Name: "Sir John Roe", Party: "Y", Constituency: "Townsville", Postcode: "M1 1AE"},
		},
		emails: map[string]string{"Jane Doe": "jane.doe@parliament.uk"},
	}
}

func newService(t *testing.T, resolver Resolver, drafter drafting.Drafter, apiKey string) *httptest.Server {
	t.Helper()
	if drafter == nil {
		d, err := drafting.NewTemplateDrafter("HOST", "")
		require.NoError(t, err)
		drafter = d
	}
	router := NewRouter(config.MPServiceConfig{APIKey: apiKey, AllowedOrigins: []string{"http://localhost:5173"}}, NewHandlers(resolver, drafter))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body, key string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestLookupEndpoint(t *testing.T) {
	srv := newService(t, newResolver(), nil, "")

	resp, body := post(t, srv.URL+"/api/mp/lookup", `{"postcode":"sw1a1aa"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.JSONEq(t, `{"mp":{"name":"Jane Doe","party":"X","email":"jane.doe@parliament.uk"},"constituency":"Cityborough","postcode":"SW1A 1AA"}`, body)

	resp, body = post(t, srv.URL+"/api/mp/lookup", `{"postcode":"M1 1AE"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"email":"john.roe.mp@parliament.uk"`)
}

func TestLookupEndpointErrors(t *testing.T) {
	tests := []struct {
		name     string
		resolver *fakeResolver
		body     string
		status   int
		message  string
	}{
		{"empty", newResolver(), `{"postcode":"  "}`, http.StatusBadRequest, "Please enter a postcode"},
		{"unknown", newResolver(), `{"postcode":"ZZ99 9ZZ"}`, http.StatusNotFound, "Postcode not found"},
		{"vacant seat", &fakeResolver{err: &directory.NoMemberError{Constituency: "Cityborough"}}, `{"postcode":"SW1A 1AA"}`, http.StatusNotFound, "No sitting MP found for Cityborough"},
		{"upstream", &fakeResolver{err: &directory.UpstreamError{Service: "postcodes.io", Status: 503}}, `{"postcode":"SW1A 1AA"}`, http.StatusBadGateway, msgLookupUpstream},
		{"bad json", newResolver(), `{"postcode":`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newService(t, tt.resolver, nil, "")
			resp, body := post(t, srv.URL+"/api/mp/lookup", tt.body, "")
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.message != "" {
				assert.JSONEq(t, `{"error":"`+tt.message+`"}`, body)
			}
		})
	}
}

func TestGenerateEndpoint(t *testing.T) {
	srv := newService(t, newResolver(), nil, "")

	resp, body := post(t, srv.URL+"/api/mp/generate-email",
		`{"mp_name":"Jane Doe","constituency":"Cityborough","issues":["noise_antisocial"],"personal_impact":""}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"mp_email":"jane.doe@parliament.uk"`)
	assert.Contains(t, body, `"subject":"Short-term rental concerns in Cityborough"`)

	resp, body = post(t, srv.URL+"/api/mp/generate-email",
		`{"mp_name":"Dame Ann Lee","constituency":"Townsville","issues":["safety_concerns"]}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"mp_email":"ann.lee.mp@parliament.uk"`)
}

func TestGenerateEndpointValidation(t *testing.T) {
	srv := newService(t, newResolver(), nil, "")
	tests := []struct {
		body    string
		message string
	}{
		{`{"mp_name":"Jane Doe","constituency":"Cityborough","issues":[]}`, "At least one issue is required"},
		{`{"mp_name":"Jane Doe","constituency":"Cityborough","issues":["parking"]}`, "Unknown issue"},
		{`{"mp_name":"","constituency":"Cityborough","issues":["safety_concerns"]}`, "MP name is required"},
		{`{"mp_name":"Jane Doe","constituency":" ","issues":["safety_concerns"]}`, "Constituency is required"},
	}
	for _, tt := range tests {
		resp, body := post(t, srv.URL+"/api/mp/generate-email", tt.body, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, tt.body)
		assert.Contains(t, body, tt.message)
	}
}

func TestGenerateEndpointDrafterFailure(t *testing.T) {
	srv := newService(t, newResolver(), failingDrafter{}, "")
	resp, body := post(t, srv.URL+"/api/mp/generate-email",
		`{"mp_name":"Jane Doe","constituency":"Cityborough","issues":["noise_antisocial"]}`, "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Failed to generate email"}`, body)
}

func TestAPIKeyRequired(t *testing.T) {
	srv := newService(t, newResolver(), nil, "s3cret")

	resp, _ := post(t, srv.URL+"/api/mp/lookup", `{"postcode":"SW1A 1AA"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = post(t, srv.URL+"/api/mp/lookup", `{"postcode":"SW1A 1AA"}`, "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = post(t, srv.URL+"/api/mp/lookup", `{"postcode":"SW1A 1AA"}`, "s3cret")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

// The site's client and this service agree on the wire format.
func TestClientRoundTrip(t *testing.T) {
	srv := newService(t, newResolver(), nil, "s3cret")
	client := mpclient.New(mpclient.Config{DirectoryURL: srv.URL, APIKey: "s3cret", Timeout: 2 * time.Second})
	ctx := context.Background()

	rep, err := client.Lookup(ctx, "SW1A 1AA")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", rep.Name)
	assert.Equal(t, "Cityborough", rep.Constituency)

	_, err = client.Lookup(ctx, "ZZ99 9ZZ")
	assert.Equal(t, "Postcode not found", mpcontact.UserMessage(err))

	msg, err := client.Generate(ctx, mpcontact.GenerateRequest{
		RepresentativeName: rep.Name,
		Constituency:       rep.Constituency,
		Concerns:           []mpcontact.Concern{mpcontact.CommunityBreakdown},
	})
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@parliament.uk", msg.RecipientEmail)
	assert.Contains(t, msg.Body, "- community breakdown and isolation")
}
