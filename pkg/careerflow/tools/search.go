package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	cferrors "github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/errors"
	"golang.org/x/net/html"
)

// Searcher runs a web search and returns a text digest for prompts.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// DefaultDuckDuckGoURL is the JavaScript-free results endpoint.
const DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

// SearchResult is one parsed hit.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// DuckDuckGo searches the DuckDuckGo HTML endpoint.
type DuckDuckGo struct {
	endpoint   string
	maxResults int
	userAgent  string
	http       *http.Client
}

// DuckDuckGoOption configures DuckDuckGo.
type DuckDuckGoOption func(*DuckDuckGo)

// NewDuckDuckGo creates a searcher.
func NewDuckDuckGo(opts ...DuckDuckGoOption) *DuckDuckGo {
	d := &DuckDuckGo{
		endpoint:   DefaultDuckDuckGoURL,
		maxResults: 5,
		userAgent:  "Mozilla/5.0 (compatible; careerguide/1.0)",
		http:       &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithSearchEndpoint overrides the results endpoint.
func WithSearchEndpoint(u string) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		if u != "" {
			d.endpoint = u
		}
	}
}

// WithMaxResults caps the number of results in the digest.
func WithMaxResults(n int) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		if n > 0 {
			d.maxResults = n
		}
	}
}

// WithSearchHTTPClient replaces the HTTP client.
func WithSearchHTTPClient(c *http.Client) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		if c != nil {
			d.http = c
		}
	}
}

// Search implements Searcher.
func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	results, err := d.Results(ctx, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", fmt.Errorf("search %q: no results", query)
	}
	return FormatResults(results), nil
}

// Results runs query and returns the parsed hits.
func (d *DuckDuckGo) Results(ctx context.Context, query string) ([]SearchResult, error) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &cferrors.HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg)), Endpoint: "duckduckgo"}
	}

	results, err := ParseResults(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("search %q: parse results: %w", query, err)
	}
	if len(results) > d.maxResults {
		results = results[:d.maxResults]
	}
	return results, nil
}

// ParseResults extracts hits from a DuckDuckGo HTML results page.
func ParseResults(r io.Reader) ([]SearchResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "result__a") {
			results = append(results, SearchResult{
				Title: textOf(n),
				URL:   resolveRedirect(attr(n, "href")),
			})
		}
		if n.Type == html.ElementNode && hasClass(n, "result__snippet") && len(results) > 0 {
			last := &results[len(results)-1]
			if last.Snippet == "" {
				last.Snippet = textOf(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results, nil
}

// FormatResults renders hits as a numbered plain-text list.
func FormatResults(results []SearchResult) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s", i+1, r.Title)
		if r.URL != "" {
			fmt.Fprintf(&b, " (%s)", r.URL)
		}
		b.WriteString("\n")
		if r.Snippet != "" {
			b.WriteString("   ")
			b.WriteString(r.Snippet)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=<target> links.
func resolveRedirect(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

var _ Searcher = (*DuckDuckGo)(nil)
