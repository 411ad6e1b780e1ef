// internal/signal/message_test.go
package signal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeTranslationRequest(t *testing.T) {
	raw := []byte(`{
		"type": "translation_request",
		"participant_id": "p1",
		"landmarks": [
			{"pose": {"right_wrist": {"x": 0.5, "y": 0.4, "z": 0.1}}},
			{"left_hand": [{"x": 0.1, "y": 0.2, "z": 0.3}]}
		]
	}`)

	in, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, TypeTranslationRequest, in.Type)
	require.NotNil(t, in.Translation)
	require.Equal(t, "p1", in.Translation.ParticipantID)
	require.Len(t, in.Translation.Landmarks, 2)
	require.InDelta(t, 0.5, in.Translation.Landmarks[0].Pose["right_wrist"].X, 1e-9)
	require.Len(t, in.Translation.Landmarks[1].LeftHand, 1)
}

func TestDecodeChatMessage(t *testing.T) {
	in, err := Decode([]byte(`{"type":"chat_message","message":"hola","participant_id":"p2"}`))
	require.NoError(t, err)
	require.Equal(t, TypeChatMessage, in.Type)
	require.NotNil(t, in.Chat)
	require.Equal(t, "hola", in.Chat.Message)
	require.Equal(t, "p2", in.Chat.ParticipantID)
}

func TestDecodeWebRTCSignal(t *testing.T) {
	raw := []byte(`{
		"type": "webrtc_signal",
		"signal_type": "offer",
		"signal_data": {"sdp": "v=0"},
		"sender_id": "p1",
		"target_participant": "p2"
	}`)

	in, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, TypeWebRTCSignal, in.Type)
	require.NotNil(t, in.WebRTC)
	require.Equal(t, "offer", in.WebRTC.SignalType)
	require.Equal(t, "p2", in.WebRTC.TargetParticipant)
	require.JSONEq(t, `{"sdp":"v=0"}`, string(in.WebRTC.SignalData))
}

func TestDecodeParticipantStatus(t *testing.T) {
	in, err := Decode([]byte(`{"type":"participant_status","participant_id":"p1","has_camera":false}`))
	require.NoError(t, err)
	require.Equal(t, TypeParticipantStatus, in.Type)
	require.NotNil(t, in.Status)
	require.NotNil(t, in.Status.HasCamera)
	require.False(t, *in.Status.HasCamera)
	require.Nil(t, in.Status.HasMicrophone, "absent field must stay nil")
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"mystery","payload":1}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown message type")
}

func TestDecodeRejectsMissingType(t *testing.T) {
	_, err := Decode([]byte(`{"message":"untyped"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing type")
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{"type": "chat_message",`))
	require.Error(t, err)
}
