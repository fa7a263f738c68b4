package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Apology is the reply sent when the text generator fails.
const Apology = "Sorry, I couldn't come up with a reply right now. Please try again in a moment."

// ErrEmptyResponse is returned by generators that produced no text.
var ErrEmptyResponse = errors.New("empty response from text generator")

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Reply is the router's answer to one message.
type Reply struct {
	Text     string
	Persona  string
	Degraded bool  // Text is the Apology
	Err      error // Cause of degradation
}

// Router picks a persona and forwards the composed prompt to a Generator.
type Router struct {
	generator Generator
	logger    *slog.Logger
}

// NewRouter creates a new Router.
func NewRouter(generator Generator, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		generator: generator,
		logger:    logger,
	}
}

// Respond answers message in the persona selected by mode. It always
// returns some text: generator errors and empty output become Apology.
func (r *Router) Respond(ctx context.Context, message, mode string) Reply {
	persona := PersonaFor(mode)

	text, err := r.generator.Generate(ctx, persona.Prompt(message))
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		r.logger.Warn("Chat generation failed, sending apology", "persona", persona.Mode, "error", err)
		return Reply{Text: Apology, Persona: persona.Mode, Degraded: true, Err: err}
	}

	return Reply{Text: strings.TrimSpace(text), Persona: persona.Mode}
}
