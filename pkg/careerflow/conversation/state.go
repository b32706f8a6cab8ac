package conversation

import (
	"encoding/json"
	"time"
)

// Profile is the structured document returned by the profile scraper.
// Items holds the raw dataset records exactly as the scraper produced them.
type Profile struct {
	URL       string            `json:"url"`
	Source    string            `json:"source"`
	Items     []json.RawMessage `json:"items"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// RouteRecord is one entry of the supervisor's loop guard window.
type RouteRecord struct {
	Node  Node   `json:"node"`
	Flags string `json:"flags"`
}

// State is the unit of persistence for one conversation.
//
// Transcript only grows: use Append, never assign or reorder it. A State
// is owned by a single writer for the duration of a turn.
type State struct {
	ID         string        `json:"id"`
	Transcript []Message     `json:"transcript"`
	Completed  Flags         `json:"completed"`
	NextNode   Node          `json:"next_node,omitempty"`
	Profile    *Profile      `json:"profile,omitempty"`
	ProfileURL string        `json:"profile_url,omitempty"`
	TargetRole string        `json:"target_role,omitempty"`
	Routes     []RouteRecord `json:"routes,omitempty"`
	Turn       int           `json:"turn"`
	TurnStart  int           `json:"turn_start"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// New returns an empty state for conversation id with every flag false.
func New(id string) *State {
	now := time.Now().UTC()
	return &State{
		ID:         id,
		Transcript: []Message{},
		Completed:  NewFlags(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Append adds m to the end of the transcript.
func (s *State) Append(m Message) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.Transcript = append(s.Transcript, m)
	s.UpdatedAt = m.CreatedAt
}

// BeginTurn records a new user message, refreshes the intake fields and
// clears the routing window. It returns the index of the user message.
func (s *State) BeginTurn(input string) int {
	if s.Completed == nil {
		s.Completed = NewFlags()
	}
	s.Turn++
	s.TurnStart = len(s.Transcript)
	s.Routes = nil
	s.NextNode = ""
	s.Append(UserMessage(input))

	if url := ExtractProfileURL(input); url != "" {
		s.ProfileURL = url
	}
	// A guessed role never replaces a known one.
	if role, explicit := ExtractTargetRole(input); role != "" && (explicit || s.TargetRole == "") {
		s.TargetRole = role
	}
	return s.TurnStart
}

// Complete marks stage as done.
func (s *State) Complete(stage Stage) {
	if s.Completed == nil {
		s.Completed = NewFlags()
	}
	s.Completed[stage] = true
}

// Done reports whether stage is complete.
func (s *State) Done(stage Stage) bool {
	return s.Completed.Done(stage)
}

// HasIntake reports whether both required inputs are known.
func (s *State) HasIntake() bool {
	return s.ProfileURL != "" && s.TargetRole != ""
}

// Clone returns a deep copy of s. Message values are shared by value, so
// the copy can be appended to without affecting s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Transcript = append([]Message(nil), s.Transcript...)
	c.Completed = s.Completed.Clone()
	c.Routes = append([]RouteRecord(nil), s.Routes...)
	if s.Profile != nil {
		p := *s.Profile
		p.Items = append([]json.RawMessage(nil), s.Profile.Items...)
		c.Profile = &p
	}
	return &c
}

// LatestAssistant returns the most recent assistant message.
func (s *State) LatestAssistant() (Message, bool) {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Role == RoleAssistant {
			return s.Transcript[i], true
		}
	}
	return Message{}, false
}

// RepliedThisTurn reports whether an assistant message was appended after
// the current turn's user message.
func (s *State) RepliedThisTurn() bool {
	for i := len(s.Transcript) - 1; i >= s.TurnStart && i >= 0; i-- {
		if s.Transcript[i].Role == RoleAssistant {
			return true
		}
	}
	return false
}

// CounselledThisTurn reports whether the latest assistant message of the
// current turn came from the Counsellor.
func (s *State) CounselledThisTurn() bool {
	for i := len(s.Transcript) - 1; i >= s.TurnStart && i >= 0; i-- {
		if s.Transcript[i].Role == RoleAssistant {
			return s.Transcript[i].Speaker == string(NodeCounsellor)
		}
	}
	return false
}

// StageResult returns the latest result message produced for stage.
func (s *State) StageResult(stage Stage) (Message, bool) {
	speaker := string(WorkerFor(stage))
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		m := s.Transcript[i]
		if m.Speaker == speaker && m.Kind == KindResult {
			return m, true
		}
	}
	return Message{}, false
}

// LatestFrom returns the latest message attributed to speaker.
func (s *State) LatestFrom(speaker string) (Message, bool) {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Speaker == speaker {
			return s.Transcript[i], true
		}
	}
	return Message{}, false
}

// Tail returns the last n messages of the transcript.
func (s *State) Tail(n int) []Message {
	if n <= 0 || n >= len(s.Transcript) {
		return s.Transcript
	}
	return s.Transcript[len(s.Transcript)-n:]
}
