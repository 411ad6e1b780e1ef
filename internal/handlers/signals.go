// internal/handlers/signals.go
package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/hellohand/backend/internal/hub"
	"github.com/hellohand/backend/internal/signal"
	"github.com/hellohand/backend/internal/translator"
)

// handleSignal routes one inbound live-channel message to its handler.
// The message set is closed; unknown or malformed messages are dropped
// with a warning. A panicking handler is contained here so one bad
// message can never take the connection down.
func (s *Server) handleSignal(ctx context.Context, conn *hub.Conn, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Errorf("room %s: signal handler panic for %s: %v", conn.RoomID, conn.ParticipantID, r)
		}
	}()

	in, err := signal.Decode(raw)
	if err != nil {
		s.Logger.Warnf("room %s: dropping message from %s: %v", conn.RoomID, conn.ParticipantID, err)
		return
	}

	switch in.Type {
	case signal.TypeTranslationRequest:
		s.handleTranslationRequest(conn, in.Translation)
	case signal.TypeChatMessage:
		s.handleChatMessage(ctx, conn, in.Chat)
	case signal.TypeWebRTCSignal:
		s.handleWebRTCSignal(conn, in.WebRTC)
	case signal.TypeParticipantStatus:
		s.handleParticipantStatus(ctx, conn, in.Status)
	}
}

// handleTranslationRequest hands the landmark sequence to the bridge and
// broadcasts the result whenever it completes. The requester may be gone
// by then; the result still goes out to whoever remains subscribed.
func (s *Server) handleTranslationRequest(conn *hub.Conn, req *signal.TranslationRequest) {
	if len(req.Landmarks) == 0 {
		return
	}
	requesterID := req.ParticipantID
	if requesterID == "" {
		requesterID = conn.ParticipantID
	}

	roomID := conn.RoomID
	s.Bridge.Submit(req.Landmarks, translator.DefaultMinConfidence, func(res translator.Result) {
		s.Hub.Broadcast(roomID, signal.Event{Payload: signal.TranslationResultEvent{
			Type:        signal.TypeTranslationResult,
			RequesterID: requesterID,
			Prediction:  res.Prediction,
			Confidence:  res.Confidence,
			Success:     res.Success,
			Message:     res.Message,
			Timestamp:   timestamp(),
		}})
	})
}

// handleChatMessage trims and broadcasts a chat line with the sender's
// resolved display name.
func (s *Server) handleChatMessage(ctx context.Context, conn *hub.Conn, msg *signal.ChatMessage) {
	text := strings.TrimSpace(msg.Message)
	if text == "" {
		return
	}
	senderID := msg.ParticipantID
	if senderID == "" {
		senderID = conn.ParticipantID
	}

	s.Hub.Broadcast(conn.RoomID, signal.Event{Payload: signal.ChatMessageEvent{
		Type:       signal.TypeChatMessage,
		SenderID:   senderID,
		SenderName: s.participantName(ctx, conn.RoomID, senderID),
		Message:    text,
		Timestamp:  timestamp(),
	}})
}

// handleWebRTCSignal relays negotiation metadata. Without a target it goes
// to the whole group, sender included. With a target the envelope is still
// fanned out to the whole group and filtered at each receiving edge.
func (s *Server) handleWebRTCSignal(conn *hub.Conn, sig *signal.WebRTCSignal) {
	senderID := sig.SenderID
	if senderID == "" {
		senderID = conn.ParticipantID
	}

	s.Hub.Broadcast(conn.RoomID, signal.Event{
		Payload: signal.WebRTCSignalEvent{
			Type:       signal.TypeWebRTCSignal,
			SignalType: sig.SignalType,
			SignalData: sig.SignalData,
			SenderID:   senderID,
		},
		Target: sig.TargetParticipant,
	})
}

// handleParticipantStatus applies a partial media-capability update and
// announces the resulting state. Absent fields stay untouched; explicit
// values, including false, are applied. Store failures fail soft: the
// update is dropped, the connection lives on.
func (s *Server) handleParticipantStatus(ctx context.Context, conn *hub.Conn, st *signal.ParticipantStatus) {
	participantID := st.ParticipantID
	if participantID == "" {
		participantID = conn.ParticipantID
	}

	p, err := s.Store.UpdateParticipantMedia(ctx, conn.RoomID, participantID, st.HasCamera, st.HasMicrophone)
	if err != nil {
		s.Logger.Warnf("room %s: status update for %s failed: %v", conn.RoomID, participantID, err)
		return
	}

	s.Hub.Broadcast(conn.RoomID, signal.Event{Payload: signal.ParticipantStatusUpdateEvent{
		Type:          signal.TypeParticipantStatusUpdate,
		ParticipantID: participantID,
		HasCamera:     p.HasCamera,
		HasMicrophone: p.HasMicrophone,
	}})
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
