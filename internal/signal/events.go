// internal/signal/events.go
package signal

import "encoding/json"

// Event is one fan-out delivery: a JSON-marshalable payload plus an
// optional target. A set Target does not narrow the fan-out itself; every
// subscribed connection receives the event and drops it at the edge when
// its own identity does not match.
type Event struct {
	Payload any
	Target  string
}

// ParticipantJoinedEvent announces a new live connection in the room.
type ParticipantJoinedEvent struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participant_id"`
	Message       string `json:"message"`
}

// ParticipantLeftEvent announces a closed connection.
type ParticipantLeftEvent struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participant_id"`
	Message       string `json:"message"`
}

// ChatMessageEvent carries a chat line with the resolved sender name.
type ChatMessageEvent struct {
	Type       string `json:"type"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

// TranslationResultEvent republishes an inference result to the room.
type TranslationResultEvent struct {
	Type        string  `json:"type"`
	RequesterID string  `json:"requester_id"`
	Prediction  string  `json:"prediction,omitempty"`
	Confidence  float64 `json:"confidence"`
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	Timestamp   string  `json:"timestamp"`
}

// WebRTCSignalEvent relays negotiation metadata. Targeted delivery is
// expressed through Event.Target, not the payload shape.
type WebRTCSignalEvent struct {
	Type       string          `json:"type"`
	SignalType string          `json:"signal_type"`
	SignalData json.RawMessage `json:"signal_data"`
	SenderID   string          `json:"sender_id"`
}

// ParticipantStatusUpdateEvent announces a media-capability change.
type ParticipantStatusUpdateEvent struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participant_id"`
	HasCamera     bool   `json:"has_camera"`
	HasMicrophone bool   `json:"has_microphone"`
}

// ErrorEvent is sent back to a single connection, never broadcast.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
