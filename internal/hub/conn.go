// internal/hub/conn.go
package hub

import (
	"github.com/sirupsen/logrus"

	"github.com/hellohand/backend/internal/signal"
)

// Conn is one participant's live presence in a room's broadcast group.
// Out is drained by the connection's write pump; Cancel stops the pumps.
type Conn struct {
	RoomID        string
	ParticipantID string

	Out    chan signal.Event
	Cancel func()

	logger *logrus.Logger
}

// NewConn builds a connection with a buffered outbound queue.
func NewConn(roomID, participantID string, cancel func(), logger *logrus.Logger) *Conn {
	return &Conn{
		RoomID:        roomID,
		ParticipantID: participantID,
		Out:           make(chan signal.Event, 16),
		Cancel:        cancel,
		logger:        logger,
	}
}

// Send queues an event for delivery without blocking. Targeted events
// addressed to somebody else are dropped here, at the edge: the fan-out
// primitive itself never filters. A full or closed queue drops the event
// with a warning; delivery is at-most-once by design.
func (c *Conn) Send(ev signal.Event) {
	if ev.Target != "" && ev.Target != c.ParticipantID {
		return
	}
	select {
	case c.Out <- ev:
	default:
		c.logger.Warnf("room %s: outbound queue full for participant %s, dropping event", c.RoomID, c.ParticipantID)
	}
}
