package store

import (
	"encoding/json"
	"fmt"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
)

// Version is the current document format version.
// Increment when making breaking changes to conversation.State.
const Version = 1

type document struct {
	Version int                 `json:"version"`
	State   *conversation.State `json:"state"`
}

// Marshal encodes state as a versioned document.
func Marshal(state *conversation.State) ([]byte, error) {
	return json.Marshal(document{Version: Version, State: state})
}

// Unmarshal decodes a versioned document.
func Unmarshal(data []byte) (*conversation.State, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("decode conversation: unsupported version %d", doc.Version)
	}
	if doc.State == nil {
		return nil, fmt.Errorf("decode conversation: missing state")
	}
	if doc.State.Completed == nil {
		doc.State.Completed = conversation.NewFlags()
	}
	return doc.State, nil
}
