// internal/handlers/room.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hellohand/backend/internal/cache"
	"github.com/hellohand/backend/internal/models"
	"github.com/hellohand/backend/internal/room"
	"github.com/hellohand/backend/internal/store"
)

const maxParticipantNameLen = 50

// roomInfoPayload builds the shared room_info block of the API responses.
func roomInfoPayload(r *models.Room, count int) map[string]interface{} {
	info := map[string]interface{}{
		"name":               r.DisplayName(),
		"status":             r.Status,
		"participants_count": count,
		"max_participants":   r.MaxParticipants,
		"features":           r.Features(),
		"created_at":         r.CreatedAt.Format(time.RFC3339),
	}
	if r.StartedAt != nil {
		info["started_at"] = r.StartedAt.Format(time.RFC3339)
	}
	if r.EndedAt != nil {
		info["ended_at"] = r.EndedAt.Format(time.RFC3339)
	}
	return info
}

func participantPayload(p models.Participant) map[string]interface{} {
	return map[string]interface{}{
		"id":             p.SessionID,
		"name":           p.Name,
		"has_camera":     p.HasCamera,
		"has_microphone": p.HasMicrophone,
		"is_deaf":        p.IsDeaf,
		"is_mute":        p.IsMute,
		"joined_at":      p.JoinedAt.Format(time.RFC3339),
	}
}

// CreateRoomHandler handles POST /api/rooms/create. All body fields are
// optional; feature flags default to enabled.
func CreateRoomHandler(s *Server) http.HandlerFunc {
	type createRequest struct {
		Name               string `json:"name"`
		MaxParticipants    *int   `json:"max_participants"`
		TranslationEnabled *bool  `json:"translation_enabled"`
		STTEnabled         *bool  `json:"stt_enabled"`
		TTSEnabled         *bool  `json:"tts_enabled"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		cfg := room.CreateConfig{
			Name:               req.Name,
			MaxParticipants:    10,
			TranslationEnabled: true,
			STTEnabled:         true,
			TTSEnabled:         true,
		}
		if req.MaxParticipants != nil {
			cfg.MaxParticipants = *req.MaxParticipants
		}
		if req.TranslationEnabled != nil {
			cfg.TranslationEnabled = *req.TranslationEnabled
		}
		if req.STTEnabled != nil {
			cfg.STTEnabled = *req.STTEnabled
		}
		if req.TTSEnabled != nil {
			cfg.TTSEnabled = *req.TTSEnabled
		}

		newRoom, err := s.Rooms.Create(r.Context(), cfg)
		if errors.Is(err, room.ErrInvalidMaxParticipants) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			s.Logger.Errorf("create room failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to create room")
			return
		}

		s.Journal.Publish(r.Context(), cache.RoomEventRecord{
			RoomID:    newRoom.RoomID,
			EventType: "room_created",
		})

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"room_id":            newRoom.RoomID,
			"status":             "created",
			"participants_count": 0,
			"room_name":          newRoom.DisplayName(),
			"max_participants":   newRoom.MaxParticipants,
			"features":           newRoom.Features(),
			"created_at":         newRoom.CreatedAt.Format(time.RFC3339),
		})
	}
}

// JoinRoomHandler handles POST /api/rooms/{room_id}/join. It creates the
// Participant membership record that the websocket gateway later
// authenticates against, and activates a waiting room on first join.
func JoinRoomHandler(s *Server) http.HandlerFunc {
	type joinRequest struct {
		ParticipantName string `json:"participant_name"`
		HasCamera       *bool  `json:"has_camera"`
		HasMicrophone   *bool  `json:"has_microphone"`
		IsDeaf          bool   `json:"is_deaf"`
		IsMute          bool   `json:"is_mute"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := normalizeRoomID(r.PathValue("room_id"))

		rm, err := s.Store.GetRoom(r.Context(), roomID)
		if errors.Is(err, store.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "room "+roomID+" not found")
			return
		}
		if err != nil {
			s.Logger.Errorf("join room %s: store error: %v", roomID, err)
			writeError(w, http.StatusInternalServerError, "failed to join room")
			return
		}

		ok, reason, count, err := s.Rooms.CanJoin(r.Context(), rm)
		if err != nil {
			s.Logger.Errorf("join room %s: %v", roomID, err)
			writeError(w, http.StatusInternalServerError, "failed to join room")
			return
		}
		if !ok {
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"error":              "room is " + reason,
				"reason":             reason,
				"room_status":        rm.Status,
				"participants_count": count,
			})
			return
		}

		var req joinRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		name := strings.TrimSpace(req.ParticipantName)
		if name == "" {
			name = models.DefaultParticipantName
		}
		if len(name) > maxParticipantNameLen {
			name = name[:maxParticipantNameLen]
		}

		p := &models.Participant{
			SessionID:     uuid.NewString(),
			RoomID:        roomID,
			Name:          name,
			Connected:     true,
			HasCamera:     true,
			HasMicrophone: true,
			IsDeaf:        req.IsDeaf,
			IsMute:        req.IsMute,
			JoinedAt:      time.Now().UTC(),
		}
		if req.HasCamera != nil {
			p.HasCamera = *req.HasCamera
		}
		if req.HasMicrophone != nil {
			p.HasMicrophone = *req.HasMicrophone
		}

		if err := s.Store.CreateParticipant(r.Context(), p); err != nil {
			s.Logger.Errorf("join room %s: create participant: %v", roomID, err)
			writeError(w, http.StatusInternalServerError, "failed to join room")
			return
		}

		if rm.Status == models.RoomWaiting {
			if err := s.Rooms.Activate(r.Context(), roomID); err != nil {
				s.Logger.Warnf("join room %s: activate: %v", roomID, err)
			}
		}

		participants, err := s.Store.ListConnectedParticipants(r.Context(), roomID)
		if err != nil {
			s.Logger.Warnf("join room %s: list participants: %v", roomID, err)
		}
		list := make([]map[string]interface{}, 0, len(participants))
		for _, member := range participants {
			list = append(list, participantPayload(member))
		}

		// Re-read so the response reflects the post-activation status.
		if refreshed, err := s.Store.GetRoom(r.Context(), roomID); err == nil {
			rm = refreshed
		}

		s.Journal.Publish(r.Context(), cache.RoomEventRecord{
			RoomID:        roomID,
			EventType:     "participant_joined",
			ParticipantID: p.SessionID,
		})

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":         "joined",
			"room_id":        roomID,
			"participant_id": p.SessionID,
			"room_info":      roomInfoPayload(rm, len(participants)),
			"participants":   list,
		})
	}
}

// RoomStatusHandler handles GET /api/rooms/{room_id}/status. Expiration is
// applied lazily here: an idle room past policy is ended before the status
// is reported.
func RoomStatusHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := normalizeRoomID(r.PathValue("room_id"))

		rm, err := s.Store.GetRoom(r.Context(), roomID)
		if errors.Is(err, store.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "room "+roomID+" not found")
			return
		}
		if err != nil {
			s.Logger.Errorf("room status %s: %v", roomID, err)
			writeError(w, http.StatusInternalServerError, "failed to load room")
			return
		}

		status, err := s.Rooms.ExpireIfIdle(r.Context(), rm)
		if err != nil {
			s.Logger.Warnf("room status %s: expiry check: %v", roomID, err)
		}
		if status != rm.Status {
			if refreshed, err := s.Store.GetRoom(r.Context(), roomID); err == nil {
				rm = refreshed
			}
		}

		participants, err := s.Store.ListConnectedParticipants(r.Context(), roomID)
		if err != nil {
			s.Logger.Errorf("room status %s: list participants: %v", roomID, err)
			writeError(w, http.StatusInternalServerError, "failed to load room")
			return
		}
		list := make([]map[string]interface{}, 0, len(participants))
		for _, member := range participants {
			list = append(list, participantPayload(member))
		}

		canJoin, _, _, err := s.Rooms.CanJoin(r.Context(), rm)
		if err != nil {
			s.Logger.Warnf("room status %s: can_join: %v", roomID, err)
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"room_id":            rm.RoomID,
			"status":             rm.Status,
			"participants_count": len(participants),
			"max_participants":   rm.MaxParticipants,
			"room_info":          roomInfoPayload(rm, len(participants)),
			"participants":       list,
			"can_join":           canJoin,
		})
	}
}

// LeaveRoomHandler handles POST /api/rooms/{room_id}/leave. Leaving marks
// the participant disconnected and ends the room when it empties; the
// participant record itself is retained.
func LeaveRoomHandler(s *Server) http.HandlerFunc {
	type leaveRequest struct {
		ParticipantID string `json:"participant_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := normalizeRoomID(r.PathValue("room_id"))

		var req leaveRequest
		if err := decodeBody(r, &req); err != nil || req.ParticipantID == "" {
			writeError(w, http.StatusBadRequest, "participant_id is required")
			return
		}

		p, err := s.Store.GetParticipant(r.Context(), roomID, req.ParticipantID)
		if errors.Is(err, store.ErrRoomNotFound) || errors.Is(err, store.ErrParticipantNotFound) {
			writeError(w, http.StatusNotFound, "participant not found")
			return
		}
		if err != nil {
			s.Logger.Errorf("leave room %s: %v", roomID, err)
			writeError(w, http.StatusInternalServerError, "failed to leave room")
			return
		}
		if !p.Connected {
			writeError(w, http.StatusNotFound, "participant already disconnected")
			return
		}

		res, err := s.Rooms.Disconnect(r.Context(), roomID, req.ParticipantID)
		if err != nil {
			s.Logger.Errorf("leave room %s: disconnect: %v", roomID, err)
			writeError(w, http.StatusInternalServerError, "failed to leave room")
			return
		}

		roomStatus := models.RoomActive
		if res.RoomEnded {
			roomStatus = models.RoomEnded
		} else if rm, err := s.Store.GetRoom(r.Context(), roomID); err == nil {
			roomStatus = rm.Status
		}

		s.Journal.Publish(r.Context(), cache.RoomEventRecord{
			RoomID:        roomID,
			EventType:     "participant_left",
			ParticipantID: req.ParticipantID,
		})

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":             "left",
			"room_id":            roomID,
			"participants_count": res.ConnectedCount,
			"room_status":        roomStatus,
		})
	}
}

// ListRoomsHandler handles GET /api/rooms/list?status=&limit= for
// debugging and administration.
func ListRoomsHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status models.RoomStatus
		switch models.RoomStatus(r.URL.Query().Get("status")) {
		case models.RoomWaiting:
			status = models.RoomWaiting
		case models.RoomActive:
			status = models.RoomActive
		case models.RoomEnded:
			status = models.RoomEnded
		}

		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		if limit > 100 {
			limit = 100
		}

		rooms, err := s.Store.ListRooms(r.Context(), status, limit)
		if err != nil {
			s.Logger.Errorf("list rooms: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to list rooms")
			return
		}

		list := make([]map[string]interface{}, 0, len(rooms))
		for i := range rooms {
			rm := &rooms[i]
			count, err := s.Store.CountConnectedParticipants(r.Context(), rm.RoomID)
			if err != nil {
				s.Logger.Warnf("list rooms: count for %s: %v", rm.RoomID, err)
			}
			entry := map[string]interface{}{
				"room_id":            rm.RoomID,
				"name":               rm.DisplayName(),
				"status":             rm.Status,
				"participants_count": count,
				"max_participants":   rm.MaxParticipants,
				"features":           rm.Features(),
				"created_at":         rm.CreatedAt.Format(time.RFC3339),
			}
			if rm.StartedAt != nil {
				entry["started_at"] = rm.StartedAt.Format(time.RFC3339)
			}
			list = append(list, entry)
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"rooms":          list,
			"returned_count": len(list),
		})
	}
}

// normalizeRoomID uppercases a user-supplied room code so lookups are
// case-insensitive.
func normalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// shortTimeout derives a bounded context for store calls made outside a
// request scope (disconnect cleanup, async handlers).
func shortTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
