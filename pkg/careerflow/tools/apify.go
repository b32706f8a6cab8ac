package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
	cferrors "github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/errors"
)

// Apify defaults.
const (
	DefaultApifyBaseURL = "https://api.apify.com/v2"
	DefaultApifyActor   = "2SyF0bVxmgGr8IVCZ"
	ProfileSource       = "LinkedIn"
)

// Apify scrapes profiles with an Apify actor through the synchronous
// run-sync-get-dataset-items endpoint.
type Apify struct {
	token   string
	actor   string
	baseURL string
	http    *http.Client
	retry   cferrors.RetryConfig
	now     func() time.Time
}

// ApifyOption configures Apify.
type ApifyOption func(*Apify)

// NewApify creates an Apify scraper authenticated with token.
func NewApify(token string, opts ...ApifyOption) *Apify {
	a := &Apify{
		token:   token,
		actor:   DefaultApifyActor,
		baseURL: DefaultApifyBaseURL,
		http:    &http.Client{Timeout: 5 * time.Minute},
		retry:   cferrors.DefaultRetry,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// WithApifyActor selects another actor ID.
func WithApifyActor(id string) ApifyOption {
	return func(a *Apify) {
		if id != "" {
			a.actor = id
		}
	}
}

// WithApifyBaseURL points the scraper at another API root.
func WithApifyBaseURL(u string) ApifyOption {
	return func(a *Apify) {
		if u != "" {
			a.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithApifyHTTPClient replaces the HTTP client.
func WithApifyHTTPClient(c *http.Client) ApifyOption {
	return func(a *Apify) {
		if c != nil {
			a.http = c
		}
	}
}

// WithApifyRetry sets the retry policy for transient failures.
func WithApifyRetry(cfg cferrors.RetryConfig) ApifyOption {
	return func(a *Apify) { a.retry = cfg }
}

// Scrape implements Scraper.
func (a *Apify) Scrape(ctx context.Context, url string) ScrapeOutcome {
	if f := ValidateProfileURL(url); f != nil {
		return ScrapeOutcome{Failure: f}
	}
	if a.token == "" {
		return Failed(FailureUpstream, "Failed to scrape LinkedIn profile %s. Details: scraper API token is not configured.", url)
	}

	body, err := json.Marshal(map[string][]string{"profileUrls": {url}})
	if err != nil {
		return Failed(FailureUpstream, "Failed to scrape LinkedIn profile %s. Details: %v", url, err)
	}

	res := cferrors.WithRetryContext(ctx, a.retry, func(ctx context.Context) ([]json.RawMessage, error) {
		return a.run(ctx, body)
	})
	if res.Err != nil {
		return Failed(FailureUpstream, "Failed to scrape LinkedIn profile %s. Details: %v", url, res.Err)
	}

	items := nonEmpty(res.Value)
	if len(items) == 0 {
		return Failed(FailureEmpty, "No data returned from LinkedIn scraper for URL: %s.", url)
	}

	return ScrapeOutcome{Profile: &conversation.Profile{
		URL:       url,
		Source:    ProfileSource,
		Items:     items,
		FetchedAt: a.now(),
	}}
}

func (a *Apify) run(ctx context.Context, body []byte) ([]json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/acts/%s/run-sync-get-dataset-items", a.baseURL, a.actor)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &cferrors.TimeoutError{Operation: "apify run: " + err.Error(), Duration: a.http.Timeout.String()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, &cferrors.HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data)), Endpoint: "run-sync-get-dataset-items"}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, cferrors.Permanent(&cferrors.JSONParseError{Input: string(data), Message: err.Error()}, "apify dataset")
	}
	return items, nil
}

// nonEmpty drops null and {} records some actors emit for missing profiles.
func nonEmpty(items []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		s := strings.TrimSpace(string(it))
		if s == "" || s == "null" || s == "{}" {
			continue
		}
		out = append(out, it)
	}
	return out
}

var _ Scraper = (*Apify)(nil)
