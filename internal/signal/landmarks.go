// internal/signal/landmarks.go
package signal

// Point is a single normalized landmark coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Frame is one captured landmark frame: face and hand landmarks as ordered
// point lists, pose as named joints. Any part may be missing when the
// capture pipeline loses tracking.
type Frame struct {
	Face      []Point          `json:"face,omitempty"`
	Pose      map[string]Point `json:"pose,omitempty"`
	LeftHand  []Point          `json:"left_hand,omitempty"`
	RightHand []Point          `json:"right_hand,omitempty"`
}
