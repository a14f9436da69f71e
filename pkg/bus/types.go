package bus

import "time"

// FrameKind separates raw text lines from typed event payloads.
type FrameKind string

const (
	FrameText  FrameKind = "text"
	FrameEvent FrameKind = "event"
)

// Frame is one decoded message from the game server. Text frames carry only
// Raw; event frames additionally carry the payload map and its type tag.
type Frame struct {
	Kind       FrameKind      `json:"kind"`
	Raw        string         `json:"raw"`
	Type       string         `json:"type,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	ReceivedAt time.Time      `json:"received_at"`
}

// Command is one outbound player command headed for the server.
type Command struct {
	Text     string    `json:"text"`
	IssuedAt time.Time `json:"issued_at"`
}
