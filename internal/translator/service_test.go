// internal/translator/service_test.go
package translator

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/hellohand/backend/internal/signal"
)

// stubModel returns a fixed prediction.
type stubModel struct {
	label      string
	confidence float64
	gotWidth   int
}

func (m *stubModel) Predict(features []float64) (string, float64, error) {
	m.gotWidth = len(features)
	return m.label, m.confidence, nil
}

func (m *stubModel) Labels() []string { return []string{m.label} }

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func makeFrames(n int) []signal.Frame {
	frames := make([]signal.Frame, n)
	for i := range frames {
		frames[i] = signal.Frame{
			Pose: map[string]signal.Point{
				"right_wrist": {X: 0.5, Y: 0.5, Z: 0.1},
			},
		}
	}
	return frames
}

func TestPredictUnloadedModel(t *testing.T) {
	svc := NewService(nil, testLogger())
	require.False(t, svc.Loaded())

	res := svc.PredictFromLandmarks(makeFrames(10), 0)
	require.False(t, res.Success)
	require.Empty(t, res.Prediction)
	require.Contains(t, res.Message, "not loaded")
}

func TestPredictShortSequence(t *testing.T) {
	svc := NewService(&stubModel{label: "hello", confidence: 0.9}, testLogger())

	res := svc.PredictFromLandmarks(makeFrames(3), 0)
	require.False(t, res.Success)
	require.Empty(t, res.Prediction)
	require.Contains(t, res.Message, "too short")
	require.Contains(t, res.Message, "5")
}

func TestPredictAboveThreshold(t *testing.T) {
	model := &stubModel{label: "hello", confidence: 0.9}
	svc := NewService(model, testLogger())

	res := svc.PredictFromLandmarks(makeFrames(10), 0)
	require.True(t, res.Success)
	require.Equal(t, "hello", res.Prediction)
	require.InDelta(t, 0.9, res.Confidence, 1e-9)
	require.Equal(t, 16*FeaturesPerFrame, model.gotWidth, "feature vector must have fixed width")
}

func TestPredictBelowThresholdKeepsLabel(t *testing.T) {
	svc := NewService(&stubModel{label: "maybe", confidence: 0.25}, testLogger())

	res := svc.PredictFromLandmarks(makeFrames(10), 0)
	require.False(t, res.Success)
	require.Equal(t, "maybe", res.Prediction, "low-confidence results still carry the label")
	require.InDelta(t, 0.25, res.Confidence, 1e-9)
	require.Contains(t, res.Message, "confidence too low")
}

func TestPredictCustomThreshold(t *testing.T) {
	svc := NewService(&stubModel{label: "hi", confidence: 0.5}, testLogger())

	require.True(t, svc.PredictFromLandmarks(makeFrames(10), 0.45).Success)
	require.False(t, svc.PredictFromLandmarks(makeFrames(10), 0.6).Success)
}

func TestResampleFrames(t *testing.T) {
	frames := makeFrames(5)
	out := resampleFrames(frames, 16)
	require.Len(t, out, 16)

	long := makeFrames(40)
	out = resampleFrames(long, 16)
	require.Len(t, out, 16)

	exact := makeFrames(16)
	require.Len(t, resampleFrames(exact, 16), 16)
}

func TestFrameToFeaturesZeroFillsMissingParts(t *testing.T) {
	features := frameToFeatures(signal.Frame{})
	require.Len(t, features, FeaturesPerFrame)
	for _, f := range features {
		require.Zero(t, f)
	}

	full := signal.Frame{
		Face:      make([]signal.Point, 20),
		LeftHand:  make([]signal.Point, 21),
		RightHand: make([]signal.Point, 21),
		Pose: map[string]signal.Point{
			"right_shoulder": {X: 1},
		},
	}
	features = frameToFeatures(full)
	require.Len(t, features, FeaturesPerFrame)
	require.Equal(t, 1.0, features[faceFeatures], "first pose joint x must follow the face block")
}

func TestInfo(t *testing.T) {
	require.Equal(t, Info{}, NewService(nil, testLogger()).Info())

	svc := NewService(&stubModel{label: "hello"}, testLogger())
	info := svc.Info()
	require.True(t, info.Loaded)
	require.Equal(t, 1, info.SignsCount)
	require.Equal(t, []string{"hello"}, info.Signs)
}
