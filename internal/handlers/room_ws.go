// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/hellohand/backend/internal/cache"
	"github.com/hellohand/backend/internal/hub"
	"github.com/hellohand/backend/internal/models"
	"github.com/hellohand/backend/internal/signal"
	"github.com/hellohand/backend/internal/store"
)

// RoomWSHandler is the live-channel gateway at /ws/rooms/{room_id}. The
// connection carries its identity in the participant_id query parameter
// and authenticates against membership created by a prior join request;
// the gateway never creates membership itself.
func RoomWSHandler(logger *logrus.Logger, s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		roomID := normalizeRoomID(r.PathValue("room_id"))
		participantID := r.URL.Query().Get("participant_id")

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if participantID == "" {
			c.Close(websocket.StatusPolicyViolation, "missing participant_id")
			return
		}

		// Admission: room must exist, participant must hold a connected
		// membership record. Store failures on this path fail closed.
		if _, err := s.Store.GetRoom(r.Context(), roomID); err != nil {
			if errors.Is(err, store.ErrRoomNotFound) {
				c.Close(StatusRoomNotFound, "room not found")
			} else {
				logger.Errorf("room %s: admission check failed: %v", roomID, err)
				c.Close(websocket.StatusInternalError, "store unavailable")
			}
			return
		}
		p, err := s.Store.GetParticipant(r.Context(), roomID, participantID)
		if err != nil || !p.Connected {
			if err != nil && !errors.Is(err, store.ErrParticipantNotFound) {
				logger.Errorf("room %s: admission check failed: %v", roomID, err)
				c.Close(websocket.StatusInternalError, "store unavailable")
				return
			}
			c.Close(StatusParticipantNotFound, "participant not found or not connected")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		conn := hub.NewConn(roomID, participantID, cancel, logger)

		s.Hub.Join(conn)

		// A participant reconnecting while the room idles in waiting
		// reactivates it.
		if err := s.Rooms.Activate(ctx, roomID); err != nil {
			logger.Warnf("room %s: activate on connect: %v", roomID, err)
		}

		s.Hub.Broadcast(roomID, signal.Event{Payload: signal.ParticipantJoinedEvent{
			Type:          signal.TypeParticipantJoined,
			ParticipantID: participantID,
			Message:       fmt.Sprintf("participant %s connected", participantID),
		}})
		s.Journal.Publish(ctx, cache.RoomEventRecord{
			RoomID:        roomID,
			EventType:     "connection_opened",
			ParticipantID: participantID,
		})
		logger.Infof("participant %s (%s) connected to room %s", participantID, remoteAddr, roomID)

		go writePump(ctx, c, conn, logger)

		// Blocks until the connection closes or errors.
		readPump(ctx, c, s, conn, logger)

		s.cleanupConnection(conn)
		cancel()
		logger.Infof("participant %s disconnected from room %s", participantID, roomID)
	}
}

// cleanupConnection runs the disconnect path: notify the group, leave it,
// mark the participant disconnected and end the room if it emptied.
// Notification failures never block the local cleanup, and the store work
// runs on a fresh context because the request context is already dead.
func (s *Server) cleanupConnection(conn *hub.Conn) {
	s.Hub.Broadcast(conn.RoomID, signal.Event{Payload: signal.ParticipantLeftEvent{
		Type:          signal.TypeParticipantLeft,
		ParticipantID: conn.ParticipantID,
		Message:       fmt.Sprintf("participant %s disconnected", conn.ParticipantID),
	}})
	s.Hub.Leave(conn)

	ctx, cancel := shortTimeout()
	defer cancel()

	res, err := s.Rooms.Disconnect(ctx, conn.RoomID, conn.ParticipantID)
	if err != nil {
		s.Logger.Errorf("room %s: disconnect cleanup for %s: %v", conn.RoomID, conn.ParticipantID, err)
		return
	}
	s.Journal.Publish(ctx, cache.RoomEventRecord{
		RoomID:        conn.RoomID,
		EventType:     "connection_closed",
		ParticipantID: conn.ParticipantID,
	})
	if res.RoomEnded {
		s.Journal.Publish(ctx, cache.RoomEventRecord{
			RoomID:    conn.RoomID,
			EventType: "room_ended",
			Detail:    "last participant disconnected",
		})
	}
}

// readPump processes inbound messages strictly in receipt order for this
// connection. A malformed or failing message is logged and dropped; it
// never terminates the connection.
func readPump(ctx context.Context, c *websocket.Conn, s *Server, conn *hub.Conn, logger *logrus.Logger) {
	for {
		typ, raw, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			switch {
			case closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway:
				logger.Infof("room %s: websocket closed normally for %s", conn.RoomID, conn.ParticipantID)
			case strings.Contains(err.Error(), "context canceled"):
			default:
				logger.Warnf("room %s: read error for %s: %v", conn.RoomID, conn.ParticipantID, err)
			}
			return
		}
		if typ != websocket.MessageText {
			logger.Warnf("room %s: ignoring non-text message from %s", conn.RoomID, conn.ParticipantID)
			continue
		}
		s.handleSignal(ctx, conn, raw)
	}
}

// writePump drains the connection's outbound queue and keeps the
// connection alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *hub.Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-conn.Out:
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				logger.Warnf("room %s: failed to marshal outgoing event for %s: %v", conn.RoomID, conn.ParticipantID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("room %s: write failed for %s: %v", conn.RoomID, conn.ParticipantID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("room %s: ping failed for %s, assuming disconnect", conn.RoomID, conn.ParticipantID)
				return
			}
		}
	}
}

// participantName resolves a display name from the store, falling back to
// the default when the lookup fails. Chat must not break because the store
// hiccuped.
func (s *Server) participantName(ctx context.Context, roomID, sessionID string) string {
	p, err := s.Store.GetParticipant(ctx, roomID, sessionID)
	if err != nil {
		return models.DefaultParticipantName
	}
	return p.Name
}
