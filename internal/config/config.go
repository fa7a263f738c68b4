// Package config loads runtime configuration from an optional YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/justestif/go-ai-music-player/internal/chat"
	"github.com/justestif/go-ai-music-player/internal/huggingface"
)

// ErrMissingAPIKey is returned when GEMINI_API_KEY is not set.
var ErrMissingAPIKey = errors.New("missing GEMINI_API_KEY environment variable")

// FileEnv names the environment variable pointing at an optional YAML config file.
const FileEnv = "MUSIC_PLAYER_CONFIG"

// Config holds all runtime configuration.
type Config struct {
	Env         string   `yaml:"env"`
	Addr        string   `yaml:"addr"`
	SongsDir    string   `yaml:"songs_dir"`
	CORSOrigins []string `yaml:"cors_origins"`

	Log       LogConfig       `yaml:"log"`
	Chat      ChatConfig      `yaml:"chat"`
	Inference InferenceConfig `yaml:"inference"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // Empty disables file logging
}

// ChatConfig configures the text generation endpoint.
// The API key is only read from the environment.
type ChatConfig struct {
	APIKey  string        `yaml:"-"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// InferenceConfig configures the hosted emotion classifiers.
type InferenceConfig struct {
	Token        string        `yaml:"-"`
	BaseURL      string        `yaml:"base_url"`
	FaceModel    string        `yaml:"face_model"`
	VoiceModel   string        `yaml:"voice_model"`
	Timeout      time.Duration `yaml:"timeout"`
	BlockStartup bool          `yaml:"block_startup"` // Wait for both models before serving
	LoadTimeout  time.Duration `yaml:"load_timeout"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Env:         "development",
		Addr:        "0.0.0.0:8000",
		SongsDir:    "songs",
		CORSOrigins: []string{"*"},
		Log: LogConfig{
			Level: "info",
		},
		Chat: ChatConfig{
			BaseURL: chat.DefaultBaseURL,
			Model:   chat.DefaultModel,
			Timeout: chat.DefaultRequestTimeout,
		},
		Inference: InferenceConfig{
			BaseURL:     huggingface.DefaultBaseURL,
			FaceModel:   huggingface.DefaultFaceModel,
			VoiceModel:  huggingface.DefaultVoiceModel,
			Timeout:     30 * time.Second,
			LoadTimeout: 5 * time.Minute,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// MUSIC_PLAYER_CONFIG (if set), then environment variables.
// Returns ErrMissingAPIKey if GEMINI_API_KEY is not set.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(&cfg)

	if cfg.Chat.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

// LogLevel parses Log.Level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func applyEnv(cfg *Config) {
	cfg.Env = envStr("APP_ENV", cfg.Env)
	cfg.Addr = envStr("HTTP_ADDR", cfg.Addr)
	cfg.SongsDir = envStr("SONGS_DIR", cfg.SongsDir)
	cfg.CORSOrigins = envList("CORS_ALLOWED_ORIGINS", cfg.CORSOrigins)

	cfg.Log.Level = envStr("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = envStr("LOG_FILE", cfg.Log.File)

	cfg.Chat.APIKey = envStr("GEMINI_API_KEY", cfg.Chat.APIKey)
	cfg.Chat.BaseURL = envStr("CHAT_BASE_URL", cfg.Chat.BaseURL)
	cfg.Chat.Model = envStr("CHAT_MODEL", cfg.Chat.Model)
	cfg.Chat.Timeout = envDuration("CHAT_TIMEOUT", cfg.Chat.Timeout)

	cfg.Inference.Token = envStr("HF_API_TOKEN", cfg.Inference.Token)
	cfg.Inference.BaseURL = envStr("HF_INFERENCE_URL", cfg.Inference.BaseURL)
	cfg.Inference.FaceModel = envStr("FACE_MODEL", cfg.Inference.FaceModel)
	cfg.Inference.VoiceModel = envStr("VOICE_MODEL", cfg.Inference.VoiceModel)
	cfg.Inference.Timeout = envDuration("HF_TIMEOUT", cfg.Inference.Timeout)
	cfg.Inference.BlockStartup = envBool("MODELS_BLOCK_STARTUP", cfg.Inference.BlockStartup)
	cfg.Inference.LoadTimeout = envDuration("MODELS_LOAD_TIMEOUT", cfg.Inference.LoadTimeout)
}

func envStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// String renders the configuration for startup logs without credentials.
func (c *Config) String() string {
	return fmt.Sprintf("env=%s addr=%s songs=%s chat_model=%s face_model=%s voice_model=%s block_startup=%t",
		c.Env, c.Addr, c.SongsDir, c.Chat.Model, c.Inference.FaceModel, c.Inference.VoiceModel, c.Inference.BlockStartup)
}
