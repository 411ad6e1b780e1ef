// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the room gateway. These give
// clients a specific rejection reason beyond the standard codes.
const (
	// StatusRoomNotFound rejects a connection to a room id that does not exist.
	StatusRoomNotFound websocket.StatusCode = 4404
	// StatusParticipantNotFound rejects a connection whose participant_id has
	// no connected membership record in the room.
	StatusParticipantNotFound websocket.StatusCode = 4403
)
