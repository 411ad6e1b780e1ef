// internal/store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/hellohand/backend/internal/models"
)

// Sentinel errors shared by all Store implementations.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrRoomIDConflict      = errors.New("room id already taken")
)

// Store is the durable persistence contract for rooms and participants.
// All methods are safe for concurrent use from many connection handlers.
type Store interface {
	// CreateRoom inserts a new room. Returns ErrRoomIDConflict if the
	// generated RoomID is already taken so the caller can resample.
	CreateRoom(ctx context.Context, room *models.Room) error

	// GetRoom fetches a room by its 6-character code.
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)

	// ListRooms returns up to limit rooms, newest first, optionally
	// filtered by status ("" means all).
	ListRooms(ctx context.Context, status models.RoomStatus, limit int) ([]models.Room, error)

	// TransitionRoomStatus applies a compare-and-swap status transition,
	// stamping StartedAt/EndedAt as appropriate. It reports whether the
	// transition applied; a false return with nil error means the room was
	// not in the expected `from` state (idempotent no-op for the caller).
	TransitionRoomStatus(ctx context.Context, roomID string, from, to models.RoomStatus, at time.Time) (bool, error)

	// CreateParticipant inserts a new participant membership row.
	CreateParticipant(ctx context.Context, p *models.Participant) error

	// GetParticipant fetches one participant by (roomID, sessionID).
	GetParticipant(ctx context.Context, roomID, sessionID string) (*models.Participant, error)

	// ListConnectedParticipants returns the currently connected
	// participants of a room, oldest join first.
	ListConnectedParticipants(ctx context.Context, roomID string) ([]models.Participant, error)

	// CountConnectedParticipants returns the live participant count.
	CountConnectedParticipants(ctx context.Context, roomID string) (int, error)

	// SetParticipantConnected flips the connection flag, stamping or
	// clearing DisconnectedAt, and returns the room's connected count
	// after the change. The count and the flag change are applied
	// atomically so concurrent disconnects observe distinct counts.
	SetParticipantConnected(ctx context.Context, roomID, sessionID string, connected bool, at time.Time) (int, error)

	// UpdateParticipantMedia applies a partial media-capability update.
	// Nil fields are left untouched; non-nil values (including false) are
	// applied. Returns the participant after the update.
	UpdateParticipantMedia(ctx context.Context, roomID, sessionID string, hasCamera, hasMicrophone *bool) (*models.Participant, error)

	// LastDisconnectedAt returns the most recent DisconnectedAt in the
	// room, or ok=false if nobody has disconnected yet.
	LastDisconnectedAt(ctx context.Context, roomID string) (time.Time, bool, error)
}
