package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/justestif/go-ai-music-player/internal/inference"
)

const userAgent = "go-ai-music-player/1.0"

// Sentinel errors.
var (
	// ErrModelLoading is returned while the hosted model is being loaded.
	ErrModelLoading = errors.New("model is loading")

	// ErrRateLimited is returned when the API rate limit is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUnauthorized is returned when the API token is missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")
)

// Client calls one hosted classification model.
type Client struct {
	token      string
	model      string
	baseURL    string
	httpClient *http.Client

	// Waits between attempts when the API is rate limited or loading.
	retryDelays []time.Duration
}

// NewClient creates a new Inference API client from the provided configuration.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		token:   cfg.Token,
		model:   cfg.Model,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryDelays: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// Model returns the model ID the client calls.
func (c *Client) Model() string {
	return c.model
}

// ClassifyImage uploads img as JPEG and returns the ranked labels.
func (c *Client) ClassifyImage(ctx context.Context, img image.Image) ([]inference.Prediction, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return c.classify(ctx, "image/jpeg", buf.Bytes(), false)
}

// ClassifyAudio uploads mono samples as a 16-bit WAV file and returns the
// ranked labels.
func (c *Client) ClassifyAudio(ctx context.Context, samples []float32, sampleRate int) ([]inference.Prediction, error) {
	return c.classify(ctx, "audio/wav", EncodeWAV(samples, sampleRate), false)
}

// WarmupImage sends a tiny image and waits until the model has loaded.
func (c *Client) WarmupImage(ctx context.Context) error {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return fmt.Errorf("encoding warmup image: %w", err)
	}
	return c.warmup(ctx, "image/jpeg", buf.Bytes())
}

// WarmupAudio sends half a second of silence and waits until the model has loaded.
func (c *Client) WarmupAudio(ctx context.Context, sampleRate int) error {
	return c.warmup(ctx, "audio/wav", EncodeWAV(make([]float32, sampleRate/2), sampleRate))
}

// warmup repeats a classification until the model answers, the error is
// permanent, or ctx is done.
func (c *Client) warmup(ctx context.Context, contentType string, body []byte) error {
	for {
		_, err := c.classify(ctx, contentType, body, true)
		if err == nil {
			return nil
		}

		var loading *loadingError
		if !errors.As(err, &loading) && !errors.Is(err, ErrRateLimited) {
			return err
		}

		wait := 5 * time.Second
		if loading != nil && loading.estimated > 0 {
			wait = min(loading.estimated, 30*time.Second)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for model %s: %w", c.model, ctx.Err())
		case <-time.After(wait):
		}
	}
}

// classify performs a request with retry on rate limit.
func (c *Client) classify(ctx context.Context, contentType string, body []byte, waitForModel bool) ([]inference.Prediction, error) {
	var lastErr error

	for attempt := 0; attempt <= len(c.retryDelays); attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelays[attempt-1]):
			}
		}

		predictions, err := c.doSingleRequest(ctx, contentType, body, waitForModel)
		if err == nil {
			return predictions, nil
		}

		if errors.Is(err, ErrRateLimited) {
			lastErr = err
			continue
		}

		// Non-retryable error
		return nil, err
	}

	return nil, lastErr
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, contentType string, body []byte, waitForModel bool) ([]inference.Prediction, error) {
	reqURL := c.baseURL + "/" + c.model

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if waitForModel {
		req.Header.Set("X-Wait-For-Model", "true")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, respBody)
	}

	var predictions []inference.Prediction
	if err := json.Unmarshal(respBody, &predictions); err != nil {
		return nil, fmt.Errorf("parsing classification response: %w", err)
	}

	return predictions, nil
}

// loadingError reports a model that is still loading on the provider side.
type loadingError struct {
	estimated time.Duration
}

func (e *loadingError) Error() string {
	return fmt.Sprintf("%s (estimated %s)", ErrModelLoading, e.estimated)
}

func (e *loadingError) Unwrap() error {
	return ErrModelLoading
}

// statusError maps a non-200 response to an error.
func statusError(status int, body []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)

	switch status {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusServiceUnavailable:
		if apiErr.EstimatedTime > 0 || strings.Contains(strings.ToLower(apiErr.Error), "loading") {
			secs := math.Ceil(apiErr.EstimatedTime)
			return &loadingError{estimated: time.Duration(secs) * time.Second}
		}
	}

	if apiErr.Error != "" {
		return fmt.Errorf("API error %d: %s", status, apiErr.Error)
	}
	return fmt.Errorf("API error %d", status)
}
