package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/justestif/go-ai-music-player/internal/config"
	"github.com/justestif/go-ai-music-player/internal/huggingface"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	shared := filepath.Join(dir, ".env")
	if err := os.WriteFile(local, []byte("MP_TEST_A=local\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(shared, []byte("MP_TEST_A=shared\nMP_TEST_B=shared\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MP_TEST_A", "")
	t.Setenv("MP_TEST_B", "")
	os.Unsetenv("MP_TEST_A")
	os.Unsetenv("MP_TEST_B")

	if err := loadDotEnv(local, filepath.Join(dir, "missing.env"), shared); err != nil {
		t.Fatalf("loadDotEnv() error = %v", err)
	}

	if got := os.Getenv("MP_TEST_A"); got != "local" {
		t.Errorf("MP_TEST_A = %q, want local", got)
	}
	if got := os.Getenv("MP_TEST_B"); got != "shared" {
		t.Errorf("MP_TEST_B = %q, want shared", got)
	}
}

func TestNewModels_FailedWarmupLeavesModelsNotReady(t *testing.T) {
	cfg := config.Default().Inference
	cfg.BaseURL = "http://127.0.0.1:1"
	cfg.Timeout = time.Second

	face, voice := newModels(cfg)
	if face.Name() != cfg.FaceModel || voice.Name() != cfg.VoiceModel {
		t.Errorf("names = %q, %q", face.Name(), voice.Name())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := face.Load(ctx); err == nil {
		t.Error("face Load() should fail")
	}
	if err := voice.Load(ctx); err == nil {
		t.Error("voice Load() should fail")
	}
	if face.Ready() || voice.Ready() {
		t.Error("models should not be ready")
	}
}

// flakyInference answers status to the first failures requests, then a
// valid prediction list.
func flakyInference(status int, failures int32, calls *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= failures {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":"upstream unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{{"label": "neutral", "score": 1}})
	}))
}

func TestModelLoader_RecoversFromTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := flakyInference(http.StatusBadGateway, 1, &calls)
	defer server.Close()

	cfg := config.Default().Inference
	cfg.BaseURL = server.URL
	cfg.LoadTimeout = 5 * time.Second
	face, _ := newModels(cfg)

	// A single failed attempt leaves the model not ready.
	if err := face.Load(context.Background()); err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("first Load() error = %v, want API error 502", err)
	}
	if face.Ready() {
		t.Fatal("face should not be ready after a 502")
	}

	loader := modelLoader(cfg, discardLogger())
	loader.MinRetryDelay = time.Millisecond
	loader.MaxRetryDelay = 5 * time.Millisecond

	select {
	case <-loader.LoadAll(context.Background(), face):
	case <-time.After(5 * time.Second):
		t.Fatal("loader did not finish")
	}

	if !face.Ready() {
		t.Error("face should be ready once the upstream recovers")
	}
}

func TestModelLoader_StopsOnRejectedToken(t *testing.T) {
	var calls atomic.Int32
	server := flakyInference(http.StatusUnauthorized, 1000, &calls)
	defer server.Close()

	cfg := config.Default().Inference
	cfg.BaseURL = server.URL
	face, _ := newModels(cfg)

	loader := modelLoader(cfg, discardLogger())
	loader.MinRetryDelay = time.Millisecond

	select {
	case <-loader.LoadAll(context.Background(), face):
	case <-time.After(5 * time.Second):
		t.Fatal("loader kept retrying a rejected token")
	}

	if face.Ready() {
		t.Error("face should not be ready")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestModelLoader_Permanent(t *testing.T) {
	loader := modelLoader(config.Default().Inference, discardLogger())

	tests := []struct {
		err  error
		want bool
	}{
		{huggingface.ErrUnauthorized, true},
		{errors.New("API error 502"), false},
		{huggingface.ErrRateLimited, false},
	}
	for _, tt := range tests {
		if got := loader.Permanent(tt.err); got != tt.want {
			t.Errorf("Permanent(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
