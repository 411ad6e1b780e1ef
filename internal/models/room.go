// internal/models/room.go
package models

import "time"

// RoomStatus is the lifecycle state of a room. Transitions are one-way:
// waiting -> active -> ended. Ended is terminal.
type RoomStatus string

const (
	RoomWaiting RoomStatus = "waiting"
	RoomActive  RoomStatus = "active"
	RoomEnded   RoomStatus = "ended"
)

// Room is a bounded video-call session container. RoomID is the 6-character
// uppercase alphanumeric code users share to join; it is assigned at creation
// and globally unique.
type Room struct {
	RoomID          string     `json:"room_id"`
	Status          RoomStatus `json:"status"`
	Name            string     `json:"name,omitempty"`
	MaxParticipants int        `json:"max_participants"`

	// Accessibility feature toggles for the session.
	TranslationEnabled bool `json:"translation_enabled"`
	STTEnabled         bool `json:"stt_enabled"`
	TTSEnabled         bool `json:"tts_enabled"`

	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// DisplayName returns the room name, falling back to a generated one.
func (r *Room) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return "Room " + r.RoomID
}

// Features returns the feature-flag payload used by the API responses.
func (r *Room) Features() map[string]bool {
	return map[string]bool{
		"translation_enabled": r.TranslationEnabled,
		"stt_enabled":         r.STTEnabled,
		"tts_enabled":         r.TTSEnabled,
	}
}
