// internal/signal/message.go
package signal

import (
	"encoding/json"
	"fmt"
)

// Inbound message types accepted over the live channel. The set is closed:
// anything else is dropped with a warning and the connection stays open.
const (
	TypeTranslationRequest = "translation_request"
	TypeChatMessage        = "chat_message"
	TypeWebRTCSignal       = "webrtc_signal"
	TypeParticipantStatus  = "participant_status"
)

// Outbound event types delivered to room subscribers.
const (
	TypeParticipantJoined       = "participant_joined"
	TypeParticipantLeft         = "participant_left"
	TypeTranslationResult       = "translation_result"
	TypeParticipantStatusUpdate = "participant_status_update"
	TypeError                   = "error"
)

// Inbound is the decoded form of one live-channel message: the type
// discriminator plus exactly one non-nil payload field matching it.
type Inbound struct {
	Type string

	Translation *TranslationRequest
	Chat        *ChatMessage
	WebRTC      *WebRTCSignal
	Status      *ParticipantStatus
}

// TranslationRequest asks the translation bridge to classify a captured
// landmark sequence.
type TranslationRequest struct {
	Landmarks     []Frame `json:"landmarks"`
	ParticipantID string  `json:"participant_id"`
}

// ChatMessage is a plain text message to the whole room.
type ChatMessage struct {
	Message       string `json:"message"`
	ParticipantID string `json:"participant_id"`
}

// WebRTCSignal relays connection-negotiation metadata between peers. When
// TargetParticipant is set the signal is still fanned out to the whole
// group and filtered at each receiving connection.
type WebRTCSignal struct {
	SignalType        string          `json:"signal_type"`
	SignalData        json.RawMessage `json:"signal_data"`
	SenderID          string          `json:"sender_id"`
	TargetParticipant string          `json:"target_participant,omitempty"`
}

// ParticipantStatus is a partial media-capability update: nil fields are
// untouched, explicit values (including false) are applied.
type ParticipantStatus struct {
	ParticipantID string `json:"participant_id"`
	HasCamera     *bool  `json:"has_camera,omitempty"`
	HasMicrophone *bool  `json:"has_microphone,omitempty"`
}

type envelope struct {
	Type string `json:"type"`
}

// Decode parses a raw live-channel message into its typed variant. It
// returns an error for malformed JSON, a missing discriminator, a type
// outside the closed set, or a payload that does not match its type.
func Decode(raw []byte) (*Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid message envelope: %w", err)
	}

	in := &Inbound{Type: env.Type}
	switch env.Type {
	case TypeTranslationRequest:
		in.Translation = &TranslationRequest{}
		if err := json.Unmarshal(raw, in.Translation); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", env.Type, err)
		}
	case TypeChatMessage:
		in.Chat = &ChatMessage{}
		if err := json.Unmarshal(raw, in.Chat); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", env.Type, err)
		}
	case TypeWebRTCSignal:
		in.WebRTC = &WebRTCSignal{}
		if err := json.Unmarshal(raw, in.WebRTC); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", env.Type, err)
		}
	case TypeParticipantStatus:
		in.Status = &ParticipantStatus{}
		if err := json.Unmarshal(raw, in.Status); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", env.Type, err)
		}
	case "":
		return nil, fmt.Errorf("message missing type field")
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
	return in, nil
}
