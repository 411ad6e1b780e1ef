// internal/store/memory_test.go
package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hellohand/backend/internal/models"
)

func seedRoom(t *testing.T, s *MemoryStore, roomID string) {
	t.Helper()
	err := s.CreateRoom(context.Background(), &models.Room{
		RoomID:          roomID,
		Status:          models.RoomActive,
		MaxParticipants: 10,
		CreatedAt:       time.Now().UTC(),
	})
	require.NoError(t, err)
}

func seedParticipant(t *testing.T, s *MemoryStore, roomID, sessionID string) {
	t.Helper()
	err := s.CreateParticipant(context.Background(), &models.Participant{
		SessionID:     sessionID,
		RoomID:        roomID,
		Name:          "Tester",
		Connected:     true,
		HasCamera:     true,
		HasMicrophone: true,
		JoinedAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestCreateRoomConflict(t *testing.T) {
	s := NewMemoryStore()
	seedRoom(t, s, "AAAAAA")
	err := s.CreateRoom(context.Background(), &models.Room{RoomID: "AAAAAA"})
	require.ErrorIs(t, err, ErrRoomIDConflict)
}

func TestGetRoomNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetRoom(context.Background(), "NOPE99")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestTransitionRoomStatusCAS(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreateRoom(ctx, &models.Room{
		RoomID: "CAS001", Status: models.RoomWaiting, CreatedAt: time.Now(),
	}))

	applied, err := s.TransitionRoomStatus(ctx, "CAS001", models.RoomActive, models.RoomEnded, time.Now())
	require.NoError(t, err)
	require.False(t, applied, "wrong from-state must not apply")

	applied, err = s.TransitionRoomStatus(ctx, "CAS001", models.RoomWaiting, models.RoomActive, time.Now())
	require.NoError(t, err)
	require.True(t, applied)

	r, err := s.GetRoom(ctx, "CAS001")
	require.NoError(t, err)
	require.Equal(t, models.RoomActive, r.Status)
	require.NotNil(t, r.StartedAt)

	// Only one of many concurrent enders can win the CAS.
	var wg sync.WaitGroup
	wins := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			applied, err := s.TransitionRoomStatus(ctx, "CAS001", models.RoomActive, models.RoomEnded, time.Now())
			require.NoError(t, err)
			wins <- applied
		}()
	}
	wg.Wait()
	close(wins)
	applyCount := 0
	for won := range wins {
		if won {
			applyCount++
		}
	}
	require.Equal(t, 1, applyCount)
}

func TestPartialMediaUpdate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedRoom(t, s, "ROOM01")
	seedParticipant(t, s, "ROOM01", "p1")

	camOff := false
	p, err := s.UpdateParticipantMedia(ctx, "ROOM01", "p1", &camOff, nil)
	require.NoError(t, err)
	require.False(t, p.HasCamera)
	require.True(t, p.HasMicrophone, "absent field must stay untouched")

	micOff := false
	p, err = s.UpdateParticipantMedia(ctx, "ROOM01", "p1", nil, &micOff)
	require.NoError(t, err)
	require.False(t, p.HasCamera, "previous update must persist")
	require.False(t, p.HasMicrophone)

	camOn := true
	p, err = s.UpdateParticipantMedia(ctx, "ROOM01", "p1", &camOn, nil)
	require.NoError(t, err)
	require.True(t, p.HasCamera)
	require.False(t, p.HasMicrophone)

	_, err = s.UpdateParticipantMedia(ctx, "ROOM01", "ghost", &camOn, nil)
	require.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestSetParticipantConnectedCounts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedRoom(t, s, "ROOM02")
	seedParticipant(t, s, "ROOM02", "p1")
	seedParticipant(t, s, "ROOM02", "p2")

	count, err := s.SetParticipantConnected(ctx, "ROOM02", "p1", false, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	p, err := s.GetParticipant(ctx, "ROOM02", "p1")
	require.NoError(t, err)
	require.False(t, p.Connected)
	require.NotNil(t, p.DisconnectedAt)

	count, err = s.SetParticipantConnected(ctx, "ROOM02", "p1", true, time.Now())
	require.NoError(t, err)
	require.Equal(t, 2, count)
	p, _ = s.GetParticipant(ctx, "ROOM02", "p1")
	require.True(t, p.Connected)
	require.Nil(t, p.DisconnectedAt)
}

func TestConcurrentDisconnectsLeaveZeroCount(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedRoom(t, s, "ROOM03")
	ids := []string{"p1", "p2", "p3", "p4", "p5"}
	for _, id := range ids {
		seedParticipant(t, s, "ROOM03", id)
	}

	var wg sync.WaitGroup
	zeroes := make(chan struct{}, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			count, err := s.SetParticipantConnected(ctx, "ROOM03", id, false, time.Now())
			require.NoError(t, err)
			if count == 0 {
				zeroes <- struct{}{}
			}
		}(id)
	}
	wg.Wait()
	close(zeroes)

	// Exactly one disconnect observes the count hitting zero, so room
	// ending cannot double-trigger.
	n := 0
	for range zeroes {
		n++
	}
	require.Equal(t, 1, n)

	count, err := s.CountConnectedParticipants(ctx, "ROOM03")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestLastDisconnectedAt(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedRoom(t, s, "ROOM04")
	seedParticipant(t, s, "ROOM04", "p1")
	seedParticipant(t, s, "ROOM04", "p2")

	_, ok, err := s.LastDisconnectedAt(ctx, "ROOM04")
	require.NoError(t, err)
	require.False(t, ok)

	early := time.Now().UTC().Add(-time.Hour)
	late := time.Now().UTC()
	_, err = s.SetParticipantConnected(ctx, "ROOM04", "p1", false, late)
	require.NoError(t, err)
	_, err = s.SetParticipantConnected(ctx, "ROOM04", "p2", false, early)
	require.NoError(t, err)

	got, ok, err := s.LastDisconnectedAt(ctx, "ROOM04")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, late, got)
}

func TestListRoomsFilterAndLimit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i, status := range []models.RoomStatus{models.RoomWaiting, models.RoomActive, models.RoomEnded, models.RoomActive} {
		require.NoError(t, s.CreateRoom(ctx, &models.Room{
			RoomID:    string(rune('A'+i)) + "00000",
			Status:    status,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}))
	}

	active, err := s.ListRooms(ctx, models.RoomActive, 10)
	require.NoError(t, err)
	require.Len(t, active, 2)

	all, err := s.ListRooms(ctx, "", 3)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	require.True(t, all[0].CreatedAt.After(all[1].CreatedAt))
}
