// Package huggingface provides a client for the Hugging Face Inference API
// image- and audio-classification tasks.
package huggingface

import "time"

const (
	// DefaultBaseURL is the hosted inference endpoint; the model ID is appended.
	DefaultBaseURL = "https://router.huggingface.co/hf-inference/models"

	// DefaultFaceModel classifies facial expressions in still images.
	DefaultFaceModel = "dima806/facial_emotions_image_detection"

	// DefaultVoiceModel classifies emotion in 16 kHz speech.
	DefaultVoiceModel = "ehcalabres/wav2vec2-lg-xlsr-en-speech-emotion-recognition"

	defaultTimeout = 30 * time.Second
)

// Config holds Inference API configuration for a single model.
type Config struct {
	BaseURL string
	Token   string // Optional; anonymous calls are heavily rate limited
	Model   string
	Timeout time.Duration
}
