package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/justestif/go-ai-music-player/internal/chat"
	"github.com/justestif/go-ai-music-player/internal/history"
	"github.com/justestif/go-ai-music-player/internal/inference"
	"github.com/justestif/go-ai-music-player/internal/library"
	"github.com/justestif/go-ai-music-player/internal/mood"
)

const (
	// Version is reported by the status endpoint.
	Version = "3.0"

	statusRunning = "AI Music Player Running"

	// maxPayloadBytes bounds base64 image and audio request bodies.
	maxPayloadBytes = 16 << 20
)

// Analyzer classifies one base64 payload. Failures come back as a degraded
// Result, never as an error.
type Analyzer interface {
	Ready() bool
	Analyze(ctx context.Context, payload string) inference.Result
}

// Responder answers a chat message under a persona.
type Responder interface {
	Respond(ctx context.Context, message, mode string) chat.Reply
}

type (
	ModelStatus struct {
		Face  bool `json:"face" doc:"Face emotion model is loaded"`
		Voice bool `json:"voice" doc:"Voice emotion model is loaded"`
	}

	StatusOutput struct {
		Body struct {
			Status  string      `json:"status"`
			Version string      `json:"version"`
			Ready   bool        `json:"ready" doc:"Both models are loaded"`
			Models  ModelStatus `json:"models"`
		}
	}

	ReadinessOutput struct {
		Status int
		Body   struct {
			Ready  bool        `json:"ready"`
			Models ModelStatus `json:"models"`
		}
	}
)

type (
	AnalyzeFaceInput struct {
		Body struct {
			Image string `json:"image" doc:"Base64 image, optionally with a data URI header"`
		}
	}

	AnalyzeFaceOutput struct {
		Body struct {
			FaceEmotion string `json:"face_emotion"`
			Degraded    bool   `json:"degraded,omitempty" doc:"The label is the neutral fallback"`
		}
	}

	AnalyzeVoiceInput struct {
		Body struct {
			Audio string `json:"audio" doc:"Base64 little-endian float32 mono PCM at 16 kHz"`
		}
	}

	AnalyzeVoiceOutput struct {
		Body struct {
			VoiceEmotion string `json:"voice_emotion"`
			Degraded     bool   `json:"degraded,omitempty" doc:"The label is the neutral fallback"`
		}
	}
)

type (
	GetMoodInput struct {
		Body struct {
			FaceEmotion  string `json:"face_emotion"`
			VoiceEmotion string `json:"voice_emotion"`
		}
	}

	GetMoodOutput struct {
		Body struct {
			Mood mood.Mood `json:"mood" enum:"high,neutral,low"`
		}
	}

	GetSongsInput struct {
		Mood string `query:"mood" default:"mixed" doc:"Mood folder to list"`
	}

	GetSongsOutput struct {
		Body struct {
			Songs []library.Song `json:"songs"`
			Mood  string         `json:"mood"`
		}
	}

	MoodHistoryOutput struct {
		Body struct {
			Stats   history.Stats         `json:"stats"`
			History []history.Observation `json:"history"`
		}
	}
)

type (
	ChatInput struct {
		Body struct {
			Message string `json:"message"`
			Mode    string `json:"mode,omitempty" doc:"roast, bollywood, advice or normal"`
		}
	}

	ChatOutput struct {
		Body struct {
			Response string `json:"response"`
		}
	}
)

// Handlers serves the JSON API.
type Handlers struct {
	face    Analyzer
	voice   Analyzer
	chat    Responder
	history *history.Log
	library *library.Library
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(face, voice Analyzer, chat Responder, log *history.Log, lib *library.Library, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		face:    face,
		voice:   voice,
		chat:    chat,
		history: log,
		library: lib,
		logger:  logger,
	}
}

// Register adds every operation to api.
func (h *Handlers) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Service status",
		Tags:        []string{"status"},
	}, h.Status)

	huma.Register(api, huma.Operation{
		OperationID: "readiness",
		Method:      http.MethodGet,
		Path:        "/readyz",
		Summary:     "Model readiness",
		Tags:        []string{"status"},
		Responses: map[string]*huma.Response{
			"503": {Description: "At least one model is still loading"},
		},
	}, h.Readiness)

	huma.Register(api, huma.Operation{
		OperationID:   "analyze-face",
		Method:        http.MethodPost,
		Path:          "/analyze-face",
		Summary:       "Classify the emotion of a face image",
		Tags:          []string{"mood"},
		DefaultStatus: http.StatusOK,
		MaxBodyBytes:  maxPayloadBytes,
	}, h.AnalyzeFace)

	huma.Register(api, huma.Operation{
		OperationID:   "analyze-voice",
		Method:        http.MethodPost,
		Path:          "/analyze-voice",
		Summary:       "Classify the emotion of a voice sample",
		Tags:          []string{"mood"},
		DefaultStatus: http.StatusOK,
		MaxBodyBytes:  maxPayloadBytes,
	}, h.AnalyzeVoice)

	huma.Register(api, huma.Operation{
		OperationID:   "get-mood",
		Method:        http.MethodPost,
		Path:          "/get-mood",
		Summary:       "Derive a mood from face and voice emotions and record it",
		Tags:          []string{"mood"},
		DefaultStatus: http.StatusOK,
	}, h.GetMood)

	huma.Register(api, huma.Operation{
		OperationID: "get-songs",
		Method:      http.MethodGet,
		Path:        "/get-songs",
		Summary:     "List songs for a mood",
		Tags:        []string{"songs"},
	}, h.GetSongs)

	huma.Register(api, huma.Operation{
		OperationID: "mood-history",
		Method:      http.MethodGet,
		Path:        "/mood-history",
		Summary:     "Mood history with statistics",
		Tags:        []string{"mood"},
	}, h.MoodHistory)

	huma.Register(api, huma.Operation{
		OperationID:   "chat",
		Method:        http.MethodPost,
		Path:          "/chat",
		Summary:       "Chat with a persona",
		Tags:          []string{"chat"},
		DefaultStatus: http.StatusOK,
	}, h.Chat)
}

func (h *Handlers) models() ModelStatus {
	return ModelStatus{Face: h.face.Ready(), Voice: h.voice.Ready()}
}

// Status handles GET /.
func (h *Handlers) Status(ctx context.Context, _ *struct{}) (*StatusOutput, error) {
	out := &StatusOutput{}
	out.Body.Status = statusRunning
	out.Body.Version = Version
	out.Body.Models = h.models()
	out.Body.Ready = out.Body.Models.Face && out.Body.Models.Voice
	return out, nil
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(ctx context.Context, _ *struct{}) (*ReadinessOutput, error) {
	out := &ReadinessOutput{Status: http.StatusOK}
	out.Body.Models = h.models()
	out.Body.Ready = out.Body.Models.Face && out.Body.Models.Voice
	if !out.Body.Ready {
		out.Status = http.StatusServiceUnavailable
	}
	return out, nil
}

// AnalyzeFace handles POST /analyze-face.
func (h *Handlers) AnalyzeFace(ctx context.Context, input *AnalyzeFaceInput) (*AnalyzeFaceOutput, error) {
	result := h.face.Analyze(ctx, input.Body.Image)

	out := &AnalyzeFaceOutput{}
	out.Body.FaceEmotion = result.Label
	out.Body.Degraded = result.Degraded()
	return out, nil
}

// AnalyzeVoice handles POST /analyze-voice.
func (h *Handlers) AnalyzeVoice(ctx context.Context, input *AnalyzeVoiceInput) (*AnalyzeVoiceOutput, error) {
	result := h.voice.Analyze(ctx, input.Body.Audio)

	out := &AnalyzeVoiceOutput{}
	out.Body.VoiceEmotion = result.Label
	out.Body.Degraded = result.Degraded()
	return out, nil
}

// GetMood handles POST /get-mood. Every call appends to the history.
func (h *Handlers) GetMood(ctx context.Context, input *GetMoodInput) (*GetMoodOutput, error) {
	face, voice := input.Body.FaceEmotion, input.Body.VoiceEmotion
	m := mood.Classify(face, voice)

	obs := h.history.Record(history.Observation{
		Mood:         m,
		FaceEmotion:  face,
		VoiceEmotion: voice,
	})
	h.logger.Debug("Mood recorded", "id", obs.ID, "mood", m, "total", h.history.Len())

	out := &GetMoodOutput{}
	out.Body.Mood = m
	return out, nil
}

// GetSongs handles GET /get-songs. Unknown moods yield an empty list.
func (h *Handlers) GetSongs(ctx context.Context, input *GetSongsInput) (*GetSongsOutput, error) {
	tag := library.ResolveMood(input.Mood)

	songs, err := h.library.Songs(tag)
	if err != nil {
		h.logger.Error("Failed to list songs", "mood", tag, "error", err)
	}

	out := &GetSongsOutput{}
	out.Body.Songs = songs
	out.Body.Mood = tag
	return out, nil
}

// MoodHistory handles GET /mood-history.
func (h *Handlers) MoodHistory(ctx context.Context, _ *struct{}) (*MoodHistoryOutput, error) {
	out := &MoodHistoryOutput{}
	out.Body.Stats = h.history.Stats()
	out.Body.History = h.history.Entries()
	return out, nil
}

// Chat handles POST /chat. Generation failures still answer 200 with an apology.
func (h *Handlers) Chat(ctx context.Context, input *ChatInput) (*ChatOutput, error) {
	reply := h.chat.Respond(ctx, input.Body.Message, input.Body.Mode)

	out := &ChatOutput{}
	out.Body.Response = reply.Text
	return out, nil
}
