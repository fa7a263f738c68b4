package inference

import (
	"context"
	"log/slog"
)

// DefaultMaxImageDim bounds the longest side of images sent to the face model.
const DefaultMaxImageDim = 512

// FaceAnalyzer detects the emotion shown on a face image.
type FaceAnalyzer struct {
	model  *Model[ImageClassifier]
	maxDim int
	logger *slog.Logger
}

// NewFaceAnalyzer creates a FaceAnalyzer backed by model.
func NewFaceAnalyzer(model *Model[ImageClassifier], logger *slog.Logger) *FaceAnalyzer {
	return &FaceAnalyzer{
		model:  model,
		maxDim: DefaultMaxImageDim,
		logger: logger,
	}
}

// Ready reports whether the face model is loaded.
func (a *FaceAnalyzer) Ready() bool {
	return a.model.Ready()
}

// Analyze classifies a base64 encoded image. It never returns an error:
// failures are reported through Result.Outcome with the fallback label.
func (a *FaceAnalyzer) Analyze(ctx context.Context, payload string) Result {
	classifier, err := a.model.Get()
	if err != nil {
		return a.report(degraded(OutcomeModelNotReady, err))
	}

	img, err := DecodeImage(payload, a.maxDim)
	if err != nil {
		return a.report(degraded(OutcomeDecodeFailed, err))
	}

	predictions, err := classifier.ClassifyImage(ctx, img)
	if err != nil {
		return a.report(degraded(OutcomeInferenceFailed, err))
	}

	top, err := Top(predictions)
	if err != nil {
		return a.report(degraded(OutcomeInferenceFailed, err))
	}

	return a.report(success(top))
}

func (a *FaceAnalyzer) report(r Result) Result {
	return logResult(a.logger, "face", r)
}

// VoiceAnalyzer detects the emotion in a short voice recording.
type VoiceAnalyzer struct {
	model      *Model[AudioClassifier]
	sampleRate int
	logger     *slog.Logger
}

// NewVoiceAnalyzer creates a VoiceAnalyzer backed by model.
func NewVoiceAnalyzer(model *Model[AudioClassifier], logger *slog.Logger) *VoiceAnalyzer {
	return &VoiceAnalyzer{
		model:      model,
		sampleRate: VoiceSampleRate,
		logger:     logger,
	}
}

// Ready reports whether the voice model is loaded.
func (a *VoiceAnalyzer) Ready() bool {
	return a.model.Ready()
}

// Analyze classifies base64 encoded float32 PCM audio. Like
// FaceAnalyzer.Analyze, it never returns an error.
func (a *VoiceAnalyzer) Analyze(ctx context.Context, payload string) Result {
	classifier, err := a.model.Get()
	if err != nil {
		return a.report(degraded(OutcomeModelNotReady, err))
	}

	samples, err := DecodePCM(payload)
	if err != nil {
		return a.report(degraded(OutcomeDecodeFailed, err))
	}

	predictions, err := classifier.ClassifyAudio(ctx, samples, a.sampleRate)
	if err != nil {
		return a.report(degraded(OutcomeInferenceFailed, err))
	}

	top, err := Top(predictions)
	if err != nil {
		return a.report(degraded(OutcomeInferenceFailed, err))
	}

	return a.report(success(top))
}

func (a *VoiceAnalyzer) report(r Result) Result {
	return logResult(a.logger, "voice", r)
}

func logResult(logger *slog.Logger, kind string, r Result) Result {
	if r.Degraded() {
		logger.Warn("Emotion analysis degraded to fallback",
			"kind", kind,
			"outcome", r.Outcome,
			"label", r.Label,
			"error", r.Err,
		)
		return r
	}

	logger.Info("Emotion detected", "kind", kind, "label", r.Label, "score", r.Score)
	return r
}
