package conversation

import (
	"strings"
)

// Stage is one of the three domain tasks a conversation works through.
type Stage string

// Stages in priority order.
const (
	StageProfileAnalysis Stage = "profile_analysis"
	StageJobFit          Stage = "job_fit"
	StageCareerGuidance  Stage = "career_guidance"
)

// Stages returns all stages in their fixed priority order.
func Stages() []Stage {
	return []Stage{StageProfileAnalysis, StageJobFit, StageCareerGuidance}
}

// Title returns a human readable stage name.
func (s Stage) Title() string {
	switch s {
	case StageProfileAnalysis:
		return "Profile analysis"
	case StageJobFit:
		return "Job fit assessment"
	case StageCareerGuidance:
		return "Career guidance"
	}
	return string(s)
}

// Flags records which stages have produced a result in a conversation.
type Flags map[Stage]bool

// NewFlags returns flags with every stage set to false.
func NewFlags() Flags {
	f := make(Flags, 3)
	for _, s := range Stages() {
		f[s] = false
	}
	return f
}

// Done reports whether stage s is complete.
func (f Flags) Done(s Stage) bool {
	return f[s]
}

// AllDone reports whether every stage is complete.
func (f Flags) AllDone() bool {
	for _, s := range Stages() {
		if !f[s] {
			return false
		}
	}
	return true
}

// FirstIncomplete returns the first incomplete stage in priority order.
func (f Flags) FirstIncomplete() (Stage, bool) {
	for _, s := range Stages() {
		if !f[s] {
			return s, true
		}
	}
	return "", false
}

// Clone returns an independent copy.
func (f Flags) Clone() Flags {
	c := make(Flags, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}

// Fingerprint encodes the flags as a stable string, e.g. "110".
// Two fingerprints are equal exactly when no flag changed between them.
func (f Flags) Fingerprint() string {
	var b strings.Builder
	for _, s := range Stages() {
		if f[s] {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
