// internal/store/memory.go
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hellohand/backend/internal/models"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs the test suite
// and local development runs without a database.
type MemoryStore struct {
	mu           sync.Mutex
	rooms        map[string]*models.Room
	participants map[string][]*models.Participant // roomID -> members, join order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:        make(map[string]*models.Room),
		participants: make(map[string][]*models.Participant),
	}
}

func (s *MemoryStore) CreateRoom(_ context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.RoomID]; exists {
		return ErrRoomIDConflict
	}
	cp := *room
	s.rooms[room.RoomID] = &cp
	return nil
}

func (s *MemoryStore) GetRoom(_ context.Context, roomID string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) ListRooms(_ context.Context, status models.RoomStatus, limit int) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Room
	for _, r := range s.rooms {
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) TransitionRoomStatus(_ context.Context, roomID string, from, to models.RoomStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return false, ErrRoomNotFound
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	switch to {
	case models.RoomActive:
		t := at
		r.StartedAt = &t
	case models.RoomEnded:
		t := at
		r.EndedAt = &t
	}
	return true, nil
}

func (s *MemoryStore) CreateParticipant(_ context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[p.RoomID]; !ok {
		return ErrRoomNotFound
	}
	cp := *p
	s.participants[p.RoomID] = append(s.participants[p.RoomID], &cp)
	return nil
}

func (s *MemoryStore) GetParticipant(_ context.Context, roomID, sessionID string) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findLocked(roomID, sessionID)
	if p == nil {
		return nil, ErrParticipantNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) ListConnectedParticipants(_ context.Context, roomID string) ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Participant
	for _, p := range s.participants[roomID] {
		if p.Connected {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *MemoryStore) CountConnectedParticipants(_ context.Context, roomID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked(roomID), nil
}

func (s *MemoryStore) SetParticipantConnected(_ context.Context, roomID, sessionID string, connected bool, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findLocked(roomID, sessionID)
	if p == nil {
		return 0, ErrParticipantNotFound
	}
	p.Connected = connected
	if connected {
		p.DisconnectedAt = nil
	} else {
		t := at
		p.DisconnectedAt = &t
	}
	return s.countLocked(roomID), nil
}

func (s *MemoryStore) UpdateParticipantMedia(_ context.Context, roomID, sessionID string, hasCamera, hasMicrophone *bool) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findLocked(roomID, sessionID)
	if p == nil {
		return nil, ErrParticipantNotFound
	}
	if hasCamera != nil {
		p.HasCamera = *hasCamera
	}
	if hasMicrophone != nil {
		p.HasMicrophone = *hasMicrophone
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) LastDisconnectedAt(_ context.Context, roomID string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last time.Time
	found := false
	for _, p := range s.participants[roomID] {
		if p.DisconnectedAt != nil && p.DisconnectedAt.After(last) {
			last = *p.DisconnectedAt
			found = true
		}
	}
	return last, found, nil
}

func (s *MemoryStore) findLocked(roomID, sessionID string) *models.Participant {
	for _, p := range s.participants[roomID] {
		if p.SessionID == sessionID {
			return p
		}
	}
	return nil
}

func (s *MemoryStore) countLocked(roomID string) int {
	n := 0
	for _, p := range s.participants[roomID] {
		if p.Connected {
			n++
		}
	}
	return n
}
