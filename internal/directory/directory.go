// Package directory resolves a UK postcode to its sitting MP using the
// public postcodes.io and UK Parliament Members APIs.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hostcampaign/site/internal/config"
	"github.com/hostcampaign/site/internal/pkg/httpretry"
	"github.com/hostcampaign/site/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrEmptyPostcode is returned for blank input.
	ErrEmptyPostcode = errors.New("directory: empty postcode")
	// ErrPostcodeNotFound is returned for malformed or unknown postcodes.
	ErrPostcodeNotFound = errors.New("directory: postcode not found")
	// ErrNoMember is returned when a constituency has no sitting MP.
	ErrNoMember = errors.New("directory: no sitting member")
)

// UpstreamError wraps a failure talking to a public data API.
type UpstreamError struct {
	Service string
	Status  int
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("directory: %s returned %d", e.Service, e.Status)
	}
	return fmt.Sprintf("directory: %s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NoMemberError names the constituency that has no sitting MP, for example
// during a by-election.
type NoMemberError struct {
	Constituency string
}

func (e *NoMemberError) Error() string {
	return "directory: no sitting member for " + e.Constituency
}

func (e *NoMemberError) Is(target error) bool { return target == ErrNoMember }

// Member is a sitting MP and the constituency a postcode falls in.
type Member struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Party        string `json:"party"`
	Email        string `json:"email,omitempty"`
	Constituency string `json:"constituency"`
	Postcode     string `json:"postcode"`
}

// Directory looks up MPs by postcode.
type Directory struct {
	postcodesURL string
	membersURL   string
	http         httpretry.HTTPDoer
	cache        *Cache
	group        singleflight.Group
}

// Option customises a Directory.
type Option func(*Directory)

// WithHTTPClient replaces the retrying HTTP client.
func WithHTTPClient(d httpretry.HTTPDoer) Option {
	return func(dir *Directory) { dir.http = d }
}

// WithCache enables the Redis lookup cache.
func WithCache(c *Cache) Option {
	return func(dir *Directory) { dir.cache = c }
}

// New creates a Directory from configuration.
func New(cfg config.DirectoryConfig, opts ...Option) *Directory {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	d := &Directory{
		postcodesURL: strings.TrimRight(cfg.PostcodesBaseURL, "/"),
		membersURL:   strings.TrimRight(cfg.MembersBaseURL, "/"),
		http:         httpretry.NewRetryClient(&http.Client{Timeout: timeout}, cfg.MaxRetries),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Lookup resolves postcode to its sitting MP. Results are served from the
// cache when present; concurrent lookups of one postcode share a call.
func (d *Directory) Lookup(ctx context.Context, postcode string) (Member, error) {
	if strings.TrimSpace(postcode) == "" {
		return Member{}, ErrEmptyPostcode
	}
	pc := NormalizePostcode(postcode)
	if !ValidPostcode(pc) {
		return Member{}, ErrPostcodeNotFound
	}

	if m, ok := d.cache.Get(ctx, pc); ok {
		logger.Debug("directory: cache hit", "postcode", pc)
		return m, nil
	}

	v, err, shared := d.group.Do(pc, func() (interface{}, error) {
		return d.fill(ctx, pc)
	})
	if shared {
		logger.Debug("directory: coalesced lookup", "postcode", pc)
	}
	if err != nil {
		return Member{}, err
	}
	return v.(Member), nil
}

// EmailFor returns a cached contact address for an MP by display name.
func (d *Directory) EmailFor(ctx context.Context, name string) (string, bool) {
	return d.cache.EmailFor(ctx, name)
}

// fill resolves pc upstream under the cache-fill lock. When another
// instance holds the lock it waits briefly for that instance's result.
func (d *Directory) fill(ctx context.Context, pc string) (Member, error) {
	unlock, held := d.cache.LockFill(ctx, pc)
	if !held {
		if m, ok := d.cache.WaitFor(ctx, pc); ok {
			return m, nil
		}
	}
	defer unlock()

	m, err := d.resolve(ctx, pc)
	if err != nil {
		return Member{}, err
	}
	d.cache.Put(ctx, m)
	return m, nil
}

func (d *Directory) resolve(ctx context.Context, pc string) (Member, error) {
	constituency, canonical, err := d.constituency(ctx, pc)
	if err != nil {
		return Member{}, err
	}
	m, err := d.member(ctx, constituency)
	if err != nil {
		return Member{}, err
	}
	m.Postcode = canonical
	m.Constituency = constituency

	email, err := d.contactEmail(ctx, m.ID)
	if err != nil {
		logger.Warn("directory: contact lookup failed", "member_id", m.ID, "error", err)
	}
	m.Email = email

	logger.Info("directory: resolved postcode", "postcode", pc, "constituency", constituency, "member", m.Name)
	return m, nil
}

type postcodeResponse struct {
	Status int `json:"status"`
	Result *struct {
		Postcode                  string `json:"postcode"`
		ParliamentaryConstituency string `json:"parliamentary_constituency"`
		// Present while the 2024 boundary rollout is reflected separately.
		ParliamentaryConstituency2024 string `json:"parliamentary_constituency_2024"`
	} `json:"result"`
	Error string `json:"error"`
}

func (d *Directory) constituency(ctx context.Context, pc string) (string, string, error) {
	var resp postcodeResponse
	status, err := d.getJSON(ctx, "postcodes.io", d.postcodesURL+"/postcodes/"+url.PathEscape(pc), &resp)
	if status == http.StatusNotFound {
		return "", "", ErrPostcodeNotFound
	}
	if err != nil {
		return "", "", err
	}
	if resp.Result == nil {
		return "", "", ErrPostcodeNotFound
	}

	name := resp.Result.ParliamentaryConstituency2024
	if name == "" {
		name = resp.Result.ParliamentaryConstituency
	}
	if name == "" {
		return "", "", ErrPostcodeNotFound
	}
	canonical := resp.Result.Postcode
	if canonical == "" {
		canonical = pc
	}
	return name, canonical, nil
}

type constituencySearchResponse struct {
	Items []struct {
		Value struct {
			ID                    int    `json:"id"`
			Name                  string `json:"name"`
			CurrentRepresentation *struct {
				Member struct {
					Value struct {
						ID            int    `json:"id"`
						NameDisplayAs string `json:"nameDisplayAs"`
						LatestParty   struct {
							Name string `json:"name"`
						} `json:"latestParty"`
					} `json:"value"`
				} `json:"member"`
			} `json:"currentRepresentation"`
		} `json:"value"`
	} `json:"items"`
}

func (d *Directory) member(ctx context.Context, constituency string) (Member, error) {
	q := url.Values{}
	q.Set("searchText", constituency)
	q.Set("skip", "0")
	q.Set("take", "5")

	var resp constituencySearchResponse
	if _, err := d.getJSON(ctx, "members-api", d.membersURL+"/api/Location/Constituency/Search?"+q.Encode(), &resp); err != nil {
		return Member{}, err
	}

	for _, item := range resp.Items {
		if !strings.EqualFold(item.Value.Name, constituency) || item.Value.CurrentRepresentation == nil {
			continue
		}
		v := item.Value.CurrentRepresentation.Member.Value
		return Member{ID: v.ID, Name: v.NameDisplayAs, Party: v.LatestParty.Name}, nil
	}
	return Member{}, &NoMemberError{Constituency: constituency}
}

type contactResponse struct {
	Value []struct {
		Type  string `json:"type"`
		Email string `json:"email"`
	} `json:"value"`
}

// contactEmail prefers the parliamentary office address.
func (d *Directory) contactEmail(ctx context.Context, memberID int) (string, error) {
	var resp contactResponse
	if _, err := d.getJSON(ctx, "members-api", d.membersURL+"/api/Members/"+strconv.Itoa(memberID)+"/Contact", &resp); err != nil {
		return "", err
	}
	var first string
	for _, c := range resp.Value {
		if c.Email == "" {
			continue
		}
		if strings.Contains(strings.ToLower(c.Type), "parliamentary") {
			return c.Email, nil
		}
		if first == "" {
			first = c.Email
		}
	}
	return first, nil
}

func (d *Directory) getJSON(ctx context.Context, service, rawURL string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build %s request: %w", service, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return 0, &UpstreamError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, &UpstreamError{Service: service, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &UpstreamError{Service: service, Status: resp.StatusCode}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, &UpstreamError{Service: service, Err: fmt.Errorf("decode: %w", err)}
	}
	return resp.StatusCode, nil
}

// RedisFromURL builds a Redis client from a redis:// URL or a bare
// host:port. An empty value yields nil.
func RedisFromURL(raw string) (*redis.Client, error) {
	if raw == "" {
		return nil, nil
	}
	if !strings.Contains(raw, "://") {
		return redis.NewClient(&redis.Options{Addr: raw}), nil
	}
	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
