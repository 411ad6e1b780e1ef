// internal/hub/hub_test.go
package hub

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/hellohand/backend/internal/signal"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func drain(c *Conn) []signal.Event {
	var out []signal.Event
	for {
		select {
		case ev := <-c.Out:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	h := New(testLogger())
	logger := testLogger()

	a := NewConn("ROOM01", "alice", func() {}, logger)
	b := NewConn("ROOM01", "bob", func() {}, logger)
	other := NewConn("ROOM02", "carol", func() {}, logger)
	h.Join(a)
	h.Join(b)
	h.Join(other)

	h.Broadcast("ROOM01", signal.Event{Payload: "hello"})

	require.Len(t, drain(a), 1)
	require.Len(t, drain(b), 1)
	require.Empty(t, drain(other), "other rooms must not observe the event")
}

func TestTargetedEventFilteredAtEdge(t *testing.T) {
	h := New(testLogger())
	logger := testLogger()

	target := NewConn("ROOM01", "bob", func() {}, logger)
	conns := []*Conn{
		NewConn("ROOM01", "alice", func() {}, logger),
		target,
		NewConn("ROOM01", "carol", func() {}, logger),
		NewConn("ROOM01", "dave", func() {}, logger),
	}
	for _, c := range conns {
		h.Join(c)
	}

	h.Broadcast("ROOM01", signal.Event{Payload: "offer", Target: "bob"})

	for _, c := range conns {
		got := drain(c)
		if c == target {
			require.Len(t, got, 1, "target must receive the event")
		} else {
			require.Empty(t, got, "participant %s must not receive a targeted event", c.ParticipantID)
		}
	}
}

func TestJoinLeaveIdempotent(t *testing.T) {
	h := New(testLogger())
	c := NewConn("ROOM01", "alice", func() {}, testLogger())

	h.Join(c)
	h.Join(c)
	require.Equal(t, 1, h.GroupSize("ROOM01"))

	h.Leave(c)
	h.Leave(c)
	require.Zero(t, h.GroupSize("ROOM01"))

	// Leaving a room that never existed is a no-op too.
	h.Leave(NewConn("GHOST1", "bob", func() {}, testLogger()))
}

func TestNoDeliveryAfterLeave(t *testing.T) {
	h := New(testLogger())
	c := NewConn("ROOM01", "alice", func() {}, testLogger())
	h.Join(c)
	h.Leave(c)

	h.Broadcast("ROOM01", signal.Event{Payload: "late"})
	require.Empty(t, drain(c), "events sent after leave must not be observed")
}

func TestSendDropsWhenQueueFull(t *testing.T) {
	c := NewConn("ROOM01", "alice", func() {}, testLogger())
	for i := 0; i < cap(c.Out)+5; i++ {
		c.Send(signal.Event{Payload: i})
	}
	require.Len(t, drain(c), cap(c.Out), "overflow must drop, not block")
}
