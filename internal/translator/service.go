// internal/translator/service.go
package translator

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hellohand/backend/internal/signal"
)

const (
	// MinFrames is the shortest landmark sequence worth classifying.
	MinFrames = 5
	// targetFrames is the fixed sequence length the model was trained on.
	targetFrames = 16

	// DefaultMinConfidence is the acceptance threshold applied to model
	// output when the caller does not override it.
	DefaultMinConfidence = 0.4

	faceFeatures = 20 * 3 // first 20 face points, x/y/z each
	poseFeatures = 6 * 3  // shoulders, elbows, wrists
	handFeatures = 21 * 3 // per hand
	// FeaturesPerFrame is the flattened feature width of one frame.
	FeaturesPerFrame = faceFeatures + poseFeatures + 2*handFeatures
)

// poseJoints are the named pose landmarks used for featurization, in
// feature-vector order.
var poseJoints = []string{
	"right_shoulder", "left_shoulder",
	"right_elbow", "left_elbow",
	"right_wrist", "left_wrist",
}

// Model is the sign-language inference collaborator: it scores one
// flattened feature sequence and returns the best label. Implementations
// live outside this service; tests inject stubs.
type Model interface {
	Predict(features []float64) (label string, confidence float64, err error)
	Labels() []string
}

// Result is the outcome of one translation attempt. Below-threshold
// predictions keep their label and confidence with Success=false rather
// than being suppressed, so clients can still surface tentative output.
type Result struct {
	Prediction string  `json:"prediction,omitempty"`
	Confidence float64 `json:"confidence"`
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
}

// Info describes the loaded model for the status endpoint.
type Info struct {
	Loaded     bool     `json:"loaded"`
	SignsCount int      `json:"signs_count"`
	Signs      []string `json:"signs"`
}

// Service turns landmark sequences into feature vectors and applies the
// confidence policy around the inference collaborator. A nil model means
// "not loaded"; every call then fails gracefully.
type Service struct {
	model  Model
	logger *logrus.Logger
}

func NewService(model Model, logger *logrus.Logger) *Service {
	return &Service{model: model, logger: logger}
}

// Loaded reports whether an inference model is available.
func (s *Service) Loaded() bool {
	return s.model != nil
}

// Info returns the model status payload.
func (s *Service) Info() Info {
	if s.model == nil {
		return Info{}
	}
	labels := s.model.Labels()
	return Info{Loaded: true, SignsCount: len(labels), Signs: labels}
}

// PredictFromLandmarks classifies a landmark sequence. minConfidence <= 0
// falls back to DefaultMinConfidence.
func (s *Service) PredictFromLandmarks(frames []signal.Frame, minConfidence float64) Result {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	if s.model == nil {
		return Result{Message: "translation model not loaded"}
	}
	if len(frames) < MinFrames {
		return Result{Message: fmt.Sprintf("sequence too short (minimum %d frames)", MinFrames)}
	}

	features := sequenceToFeatures(frames)
	label, confidence, err := s.model.Predict(features)
	if err != nil {
		s.logger.Warnf("translation predict failed: %v", err)
		return Result{Message: "prediction failed"}
	}

	if confidence < minConfidence {
		return Result{
			Prediction: label,
			Confidence: confidence,
			Message:    fmt.Sprintf("confidence too low (%.2f < %.2f)", confidence, minConfidence),
		}
	}
	return Result{
		Prediction: label,
		Confidence: confidence,
		Success:    true,
		Message:    "prediction successful",
	}
}

// sequenceToFeatures resamples the sequence to targetFrames and flattens
// each frame into its fixed-width feature block.
func sequenceToFeatures(frames []signal.Frame) []float64 {
	normalized := resampleFrames(frames, targetFrames)
	features := make([]float64, 0, targetFrames*FeaturesPerFrame)
	for _, f := range normalized {
		features = append(features, frameToFeatures(f)...)
	}
	return features
}

// resampleFrames maps the sequence onto n frames by nearest original
// index, duplicating or skipping frames as needed.
func resampleFrames(frames []signal.Frame, n int) []signal.Frame {
	if len(frames) == n {
		return frames
	}
	out := make([]signal.Frame, n)
	for i := 0; i < n; i++ {
		pos := float64(i) * float64(len(frames)-1) / float64(n-1)
		idx := int(pos + 0.5)
		if idx > len(frames)-1 {
			idx = len(frames) - 1
		}
		out[i] = frames[idx]
	}
	return out
}

// frameToFeatures flattens one frame. Missing parts contribute zeros so
// the vector keeps its fixed width.
func frameToFeatures(f signal.Frame) []float64 {
	features := make([]float64, 0, FeaturesPerFrame)

	for i := 0; i < faceFeatures/3; i++ {
		if i < len(f.Face) {
			features = append(features, f.Face[i].X, f.Face[i].Y, f.Face[i].Z)
		} else {
			features = append(features, 0, 0, 0)
		}
	}

	for _, joint := range poseJoints {
		if p, ok := f.Pose[joint]; ok {
			features = append(features, p.X, p.Y, p.Z)
		} else {
			features = append(features, 0, 0, 0)
		}
	}

	for _, hand := range [][]signal.Point{f.LeftHand, f.RightHand} {
		for i := 0; i < handFeatures/3; i++ {
			if i < len(hand) {
				features = append(features, hand[i].X, hand[i].Y, hand[i].Z)
			} else {
				features = append(features, 0, 0, 0)
			}
		}
	}

	return features
}
