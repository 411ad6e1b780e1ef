// internal/room/lifecycle.go
package room

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hellohand/backend/internal/models"
	"github.com/hellohand/backend/internal/store"
)

const (
	roomIDLength  = 6
	roomIDCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	MinParticipants = 2
	MaxParticipants = 50

	// Lazy expiration policy: a room that never activated expires after
	// 2h; an active room with nobody connected expires 1h after the last
	// disconnect.
	waitingExpiry = 2 * time.Hour
	idleExpiry    = 1 * time.Hour
)

// Join-refusal reasons returned by CanJoin.
const (
	ReasonFull  = "full"
	ReasonEnded = "ended"
)

var ErrInvalidMaxParticipants = fmt.Errorf("max_participants must be between %d and %d", MinParticipants, MaxParticipants)

// CreateConfig carries the caller-supplied room settings.
type CreateConfig struct {
	Name               string
	MaxParticipants    int
	TranslationEnabled bool
	STTEnabled         bool
	TTSEnabled         bool
}

// Manager enforces the room state machine and capacity/expiration policy
// on top of the durable store.
type Manager struct {
	store  store.Store
	logger *logrus.Logger
}

func NewManager(s store.Store, logger *logrus.Logger) *Manager {
	return &Manager{store: s, logger: logger}
}

// Create validates the config and inserts a room with a freshly sampled
// 6-character code, resampling on conflict until the store accepts it.
func (m *Manager) Create(ctx context.Context, cfg CreateConfig) (*models.Room, error) {
	if cfg.MaxParticipants < MinParticipants || cfg.MaxParticipants > MaxParticipants {
		return nil, ErrInvalidMaxParticipants
	}

	for {
		room := &models.Room{
			RoomID:             generateRoomID(),
			Status:             models.RoomWaiting,
			Name:               cfg.Name,
			MaxParticipants:    cfg.MaxParticipants,
			TranslationEnabled: cfg.TranslationEnabled,
			STTEnabled:         cfg.STTEnabled,
			TTSEnabled:         cfg.TTSEnabled,
			CreatedAt:          time.Now().UTC(),
		}
		err := m.store.CreateRoom(ctx, room)
		if errors.Is(err, store.ErrRoomIDConflict) {
			m.logger.Warnf("room id %s collided, resampling", room.RoomID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create room: %w", err)
		}
		m.logger.Infof("room %s created (max %d)", room.RoomID, room.MaxParticipants)
		return room, nil
	}
}

// CanJoin reports whether a new participant may join right now. On refusal
// the reason is "ended" or "full"; the connected count is returned either
// way for the refusal payload.
func (m *Manager) CanJoin(ctx context.Context, room *models.Room) (bool, string, int, error) {
	count, err := m.store.CountConnectedParticipants(ctx, room.RoomID)
	if err != nil {
		return false, "", 0, fmt.Errorf("failed to count participants: %w", err)
	}
	if room.Status == models.RoomEnded {
		return false, ReasonEnded, count, nil
	}
	if count >= room.MaxParticipants {
		return false, ReasonFull, count, nil
	}
	return true, "", count, nil
}

// Activate moves a waiting room to active. Idempotent: a no-op unless the
// room is currently waiting.
func (m *Manager) Activate(ctx context.Context, roomID string) error {
	applied, err := m.store.TransitionRoomStatus(ctx, roomID, models.RoomWaiting, models.RoomActive, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to activate room %s: %w", roomID, err)
	}
	if applied {
		m.logger.Infof("room %s activated", roomID)
	}
	return nil
}

// End moves an active room to ended. Idempotent: a no-op unless the room
// is currently active, so concurrent disconnects cannot double-end.
func (m *Manager) End(ctx context.Context, roomID string) error {
	applied, err := m.store.TransitionRoomStatus(ctx, roomID, models.RoomActive, models.RoomEnded, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to end room %s: %w", roomID, err)
	}
	if applied {
		m.logger.Infof("room %s ended", roomID)
	}
	return nil
}

// DisconnectResult describes the room after a participant disconnect.
type DisconnectResult struct {
	ConnectedCount int
	RoomEnded      bool
}

// Disconnect marks the participant disconnected and ends the room when the
// connected count reaches zero.
func (m *Manager) Disconnect(ctx context.Context, roomID, sessionID string) (*DisconnectResult, error) {
	count, err := m.store.SetParticipantConnected(ctx, roomID, sessionID, false, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to mark participant %s disconnected: %w", sessionID, err)
	}
	res := &DisconnectResult{ConnectedCount: count}
	if count == 0 {
		if err := m.End(ctx, roomID); err != nil {
			return res, err
		}
		res.RoomEnded = true
	}
	return res, nil
}

// Reconnect marks the participant connected again, reactivating the room
// if it had fallen back to waiting.
func (m *Manager) Reconnect(ctx context.Context, roomID, sessionID string) (int, error) {
	count, err := m.store.SetParticipantConnected(ctx, roomID, sessionID, true, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to mark participant %s connected: %w", sessionID, err)
	}
	if err := m.Activate(ctx, roomID); err != nil {
		return count, err
	}
	return count, nil
}

// ExpireIfIdle applies the lazy expiration policy to the room, ending it
// when it has been idle past policy. Returns the room's current status.
func (m *Manager) ExpireIfIdle(ctx context.Context, room *models.Room) (models.RoomStatus, error) {
	count, err := m.store.CountConnectedParticipants(ctx, room.RoomID)
	if err != nil {
		return room.Status, err
	}
	lastDisconnect, hasDisconnect, err := m.store.LastDisconnectedAt(ctx, room.RoomID)
	if err != nil {
		return room.Status, err
	}
	if !Expired(room, count, lastDisconnect, hasDisconnect, time.Now().UTC()) {
		return room.Status, nil
	}

	// Waiting rooms skip straight to ended; active ones take the normal
	// active -> ended edge.
	if room.Status == models.RoomWaiting {
		if _, err := m.store.TransitionRoomStatus(ctx, room.RoomID, models.RoomWaiting, models.RoomEnded, time.Now().UTC()); err != nil {
			return room.Status, err
		}
		m.logger.Infof("room %s expired while waiting", room.RoomID)
		return models.RoomEnded, nil
	}
	if err := m.End(ctx, room.RoomID); err != nil {
		return room.Status, err
	}
	return models.RoomEnded, nil
}

// Expired is the pure expiration policy: waiting rooms expire 2h after
// creation without ever activating; active rooms with nobody connected
// expire 1h after the last disconnect.
func Expired(room *models.Room, connectedCount int, lastDisconnect time.Time, hasDisconnect bool, now time.Time) bool {
	switch room.Status {
	case models.RoomEnded:
		return true
	case models.RoomWaiting:
		return now.Sub(room.CreatedAt) > waitingExpiry
	case models.RoomActive:
		if connectedCount > 0 {
			return false
		}
		return hasDisconnect && now.Sub(lastDisconnect) > idleExpiry
	}
	return false
}

// generateRoomID samples a 6-character uppercase alphanumeric code.
// Uniqueness is enforced by the store; Create resamples on conflict.
func generateRoomID() string {
	b := make([]byte, roomIDLength)
	max := big.NewInt(int64(len(roomIDCharset)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken.
			panic(fmt.Sprintf("room id generation: %v", err))
		}
		b[i] = roomIDCharset[n.Int64()]
	}
	return string(b)
}
