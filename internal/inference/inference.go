// Package inference adapts externally hosted emotion classifiers to the
// mood pipeline.
//
// Analyzers never fail the caller. When a model is not loaded yet, a payload
// cannot be decoded, or the classifier errors, the analyzer returns the
// FallbackLabel together with an Outcome describing what went wrong.
package inference

import (
	"context"
	"errors"
	"image"
)

// FallbackLabel is returned whenever classification degrades.
const FallbackLabel = "neutral"

// VoiceSampleRate is the sample rate voice payloads are recorded at.
const VoiceSampleRate = 16000

// Sentinel errors.
var (
	// ErrModelNotReady is returned while a model is still loading or failed to load.
	ErrModelNotReady = errors.New("model not ready")

	// ErrDecode wraps payload decoding failures.
	ErrDecode = errors.New("decode failed")

	// ErrNoPredictions is returned when a classifier answers with no labels.
	ErrNoPredictions = errors.New("classifier returned no predictions")
)

// Prediction is one label scored by a classifier.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ImageClassifier classifies a still image.
type ImageClassifier interface {
	ClassifyImage(ctx context.Context, img image.Image) ([]Prediction, error)
}

// AudioClassifier classifies mono float PCM audio.
type AudioClassifier interface {
	ClassifyAudio(ctx context.Context, samples []float32, sampleRate int) ([]Prediction, error)
}

// Outcome describes how a classification ended.
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeModelNotReady   Outcome = "model_not_ready"
	OutcomeDecodeFailed    Outcome = "decode_failed"
	OutcomeInferenceFailed Outcome = "inference_failed"
)

// Result is the outcome of one analysis. Label is always set.
type Result struct {
	Label   string
	Score   float64
	Outcome Outcome
	Err     error // nil when Outcome is OutcomeOK
}

// Degraded reports whether the label is the fallback rather than a model answer.
func (r Result) Degraded() bool {
	return r.Outcome != OutcomeOK
}

func success(p Prediction) Result {
	return Result{Label: p.Label, Score: p.Score, Outcome: OutcomeOK}
}

func degraded(outcome Outcome, err error) Result {
	return Result{Label: FallbackLabel, Outcome: outcome, Err: err}
}

// Top returns the highest scored prediction. Equal scores keep the
// classifier's order.
func Top(predictions []Prediction) (Prediction, error) {
	if len(predictions) == 0 {
		return Prediction{}, ErrNoPredictions
	}
	best := predictions[0]
	for _, p := range predictions[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	if best.Label == "" {
		return Prediction{}, ErrNoPredictions
	}
	return best, nil
}
