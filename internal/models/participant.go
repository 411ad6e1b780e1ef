// internal/models/participant.go
package models

import "time"

// Participant is a session-bound identity occupying a room. Participants are
// never deleted; disconnects only flip Connected and stamp DisconnectedAt so
// the room history stays auditable. (RoomID, SessionID) is unique.
type Participant struct {
	SessionID string `json:"id"`
	RoomID    string `json:"-"`
	Name      string `json:"name"`

	Connected bool `json:"-"`

	HasCamera     bool `json:"has_camera"`
	HasMicrophone bool `json:"has_microphone"`

	// Accessibility traits: deaf participants need visual translation,
	// mute participants need sign-to-text translation.
	IsDeaf bool `json:"is_deaf"`
	IsMute bool `json:"is_mute"`

	JoinedAt       time.Time  `json:"joined_at"`
	DisconnectedAt *time.Time `json:"-"`
}

// DefaultParticipantName is used when a join request omits a display name.
const DefaultParticipantName = "Participant"
