// Command music-player runs the AI music player backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/justestif/go-ai-music-player/internal/chat"
	"github.com/justestif/go-ai-music-player/internal/config"
	"github.com/justestif/go-ai-music-player/internal/history"
	"github.com/justestif/go-ai-music-player/internal/huggingface"
	"github.com/justestif/go-ai-music-player/internal/inference"
	"github.com/justestif/go-ai-music-player/internal/library"
	"github.com/justestif/go-ai-music-player/internal/logger"
	"github.com/justestif/go-ai-music-player/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := loadDotEnv(".env.local", ".env"); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Env,
		logger.WithLevel(cfg.LogLevel()),
		logger.WithLogToFile(cfg.Log.File != ""),
		logger.WithLogFile(cfg.Log.File),
	)
	slog.SetDefault(log)
	log.Info("Config loaded", "config", cfg.String())

	songs := library.New(cfg.SongsDir)
	if err := songs.EnsureRoot(); err != nil {
		return fmt.Errorf("preparing song library: %w", err)
	}

	generator, err := chat.NewOpenAIGenerator(chat.OpenAIConfig{
		BaseURL:        cfg.Chat.BaseURL,
		APIKey:         cfg.Chat.APIKey,
		Model:          cfg.Chat.Model,
		RequestTimeout: cfg.Chat.Timeout,
	})
	if err != nil {
		return fmt.Errorf("creating chat generator: %w", err)
	}
	log.Info("Chat generator ready", "model", generator.Model(), "base_url", cfg.Chat.BaseURL)

	if cfg.Inference.Token == "" {
		log.Warn("HF_API_TOKEN is not set, the hosted emotion models may refuse requests")
	}
	faceModel, voiceModel := newModels(cfg.Inference)

	// Models keep retrying in the background for the life of the process.
	loadCtx, cancelLoad := context.WithCancel(context.Background())
	defer cancelLoad()

	loader := modelLoader(cfg.Inference, log)
	loaded := loader.LoadAll(loadCtx, faceModel, voiceModel)

	if cfg.Inference.BlockStartup {
		log.Info("Waiting for models before serving", "timeout", cfg.Inference.LoadTimeout)
		select {
		case <-loaded:
		case <-time.After(cfg.Inference.LoadTimeout):
			log.Warn("Models not ready in time, serving with fallback labels")
		}
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:        cfg.Addr,
		CORSOrigins: cfg.CORSOrigins,
		Face:        inference.NewFaceAnalyzer(faceModel, log),
		Voice:       inference.NewVoiceAnalyzer(voiceModel, log),
		Chat:        chat.NewRouter(generator, log),
		History:     history.NewLog(),
		Library:     songs,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}

// newModels returns the face and voice models. Loading a model warms up its
// hosted endpoint so the first user request does not wait for a cold start.
func newModels(cfg config.InferenceConfig) (*inference.Model[inference.ImageClassifier], *inference.Model[inference.AudioClassifier]) {
	face := huggingface.NewClient(huggingface.Config{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		Model:   cfg.FaceModel,
		Timeout: cfg.Timeout,
	})
	voice := huggingface.NewClient(huggingface.Config{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		Model:   cfg.VoiceModel,
		Timeout: cfg.Timeout,
	})

	faceModel := inference.NewModel[inference.ImageClassifier](face.Model(), func(ctx context.Context) (inference.ImageClassifier, error) {
		if err := face.WarmupImage(ctx); err != nil {
			return nil, err
		}
		return face, nil
	})
	voiceModel := inference.NewModel[inference.AudioClassifier](voice.Model(), func(ctx context.Context) (inference.AudioClassifier, error) {
		if err := voice.WarmupAudio(ctx, inference.VoiceSampleRate); err != nil {
			return nil, err
		}
		return voice, nil
	})

	return faceModel, voiceModel
}

// modelLoader retries failed model loads until they succeed. A rejected
// token is not retried.
func modelLoader(cfg config.InferenceConfig, log *slog.Logger) inference.Loader {
	return inference.Loader{
		Logger:         log,
		AttemptTimeout: cfg.LoadTimeout,
		Permanent: func(err error) bool {
			return errors.Is(err, huggingface.ErrUnauthorized)
		},
	}
}

// loadDotEnv loads each file that exists. Variables already set in the
// environment are not overridden.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}
