package tools

import (
	"context"
	"fmt"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
)

// Scraper fetches a structured profile document for a profile URL.
type Scraper interface {
	Scrape(ctx context.Context, url string) ScrapeOutcome
}

// FailureKind classifies a failed scrape.
type FailureKind string

// Failure kinds.
const (
	FailureInvalidURL FailureKind = "invalid_url"
	FailureEmpty      FailureKind = "empty"
	FailureUpstream   FailureKind = "upstream"
)

// ScrapeFailure describes why no profile was produced.
type ScrapeFailure struct {
	Kind   FailureKind
	Reason string
}

// ScrapeOutcome is the result of a scrape: exactly one of Profile and
// Failure is non-nil.
type ScrapeOutcome struct {
	Profile *conversation.Profile
	Failure *ScrapeFailure
}

// OK reports whether the scrape produced a profile.
func (o ScrapeOutcome) OK() bool {
	return o.Profile != nil && o.Failure == nil
}

// Failed builds a failed outcome.
func Failed(kind FailureKind, format string, args ...any) ScrapeOutcome {
	return ScrapeOutcome{Failure: &ScrapeFailure{Kind: kind, Reason: fmt.Sprintf(format, args...)}}
}

// ValidateProfileURL checks that url is a public LinkedIn profile URL.
func ValidateProfileURL(url string) *ScrapeFailure {
	if !conversation.HasProfileURLPrefix(url) {
		return &ScrapeFailure{
			Kind:   FailureInvalidURL,
			Reason: fmt.Sprintf("Invalid LinkedIn profile URL provided: %q. Must start with %q.", url, conversation.ProfileURLPrefix),
		}
	}
	return nil
}
