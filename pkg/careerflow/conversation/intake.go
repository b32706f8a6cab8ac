package conversation

import (
	"regexp"
	"strings"
)

// ProfileURLPrefix is the required prefix of a LinkedIn profile URL.
const ProfileURLPrefix = "https://www.linkedin.com/in/"

var (
	profileURLPattern = regexp.MustCompile(`https://www\.linkedin\.com/in/[^\s<>"'()\[\],]+`)

	targetRolePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)target\s+(?:job\s+)?role\s*(?:is|:|-|=)?\s*['"“]([^'"”\n]+)['"”]`),
		regexp.MustCompile(`(?i)target\s+(?:job\s+)?role\s*(?:is|:|-|=)\s*([^.\n,;!?]+)`),
		regexp.MustCompile(`(?i)(?:^|\s)role\s*:\s*([^.\n,;!?]+)`),
	}

	// looseRolePattern guesses a role from phrasing like "become a ...".
	looseRolePattern = regexp.MustCompile(`(?i)\b(?:become|becoming|transition(?:ing)?\s+(?:in)?to|apply(?:ing)?\s+(?:for|to))\s+(?:an?\s+)?([A-Za-z][A-Za-z0-9 /+#&-]{2,60}?)(?:\s+(?:role|position|job))?(?:[.\n,;!?]|$)`)
)

// ExtractProfileURL returns the first LinkedIn profile URL in text, or ""
// when there is none. Trailing sentence punctuation is not part of the URL.
func ExtractProfileURL(text string) string {
	m := profileURLPattern.FindString(text)
	return strings.TrimRight(m, ".;:!?")
}

// ExtractTargetRole returns the target job role mentioned in text, or ""
// when none can be recognized. explicit is false when the role was only
// guessed from loose phrasing such as "become a ...".
func ExtractTargetRole(text string) (role string, explicit bool) {
	for _, p := range targetRolePatterns {
		if role := matchRole(p, text); role != "" {
			return role, true
		}
	}
	return matchRole(looseRolePattern, text), false
}

func matchRole(p *regexp.Regexp, text string) string {
	m := p.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(m[1]), ".;:!?'\"")
}

// HasProfileURLPrefix reports whether url starts with ProfileURLPrefix.
func HasProfileURLPrefix(url string) bool {
	return strings.HasPrefix(url, ProfileURLPrefix)
}
