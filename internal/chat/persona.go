// Package chat answers free-text messages in one of a few fixed personas.
package chat

import "strings"

// Persona modes.
const (
	ModeRoast     = "roast"
	ModeBollywood = "bollywood"
	ModeAdvice    = "advice"
	ModeNormal    = "normal"
)

// Persona is a named instruction template.
type Persona struct {
	Mode        string
	Instruction string
}

var personas = map[string]Persona{
	ModeRoast: {
		Mode: ModeRoast,
		Instruction: "You are a savage but friendly roasting bot.\n" +
			"- The user will tell you their mood or situation.\n" +
			"- Reply ONLY with 2-4 short, spicy roast lines in Hinglish.\n" +
			"- No explanation, no advice, no emoji lists, no generic talk.\n" +
			"- Keep every line short, a little savage but funny.",
	},
	ModeBollywood: {
		Mode: ModeBollywood,
		Instruction: "You are a Bollywood dialogue generator.\n" +
			"- The user will tell you their mood or situation.\n" +
			"- Reply ONLY with 2-4 Bollywood-style dialogues in Hindi/Hinglish.\n" +
			"- Put every dialogue on its own line.\n" +
			"- Never name an actual film, keep only the filmy style.\n" +
			"- No explanation, advice or normal conversation.",
	},
	ModeAdvice: {
		Mode: ModeAdvice,
		Instruction: "You are a life-advice coach.\n" +
			"- The user will share feelings like sad, stressed or overthinking.\n" +
			"- Reply ONLY with 3-5 short bullet-point life advice lines.\n" +
			"- Each point is one line, in simple Hindi/Hinglish.\n" +
			"- No roasts, jokes, Bollywood dialogues or extra chit-chat.",
	},
	ModeNormal: {
		Mode: ModeNormal,
		Instruction: "You are a helpful general AI assistant.\n" +
			"- The user can ask anything.\n" +
			"- Give a clear, concise answer.\n" +
			"- Use bullet points when useful.",
	},
}

// PersonaFor returns the persona for mode. Unknown or empty modes get the
// general assistant persona.
func PersonaFor(mode string) Persona {
	if p, ok := personas[strings.ToLower(strings.TrimSpace(mode))]; ok {
		return p
	}
	return personas[ModeNormal]
}

// Prompt composes the single prompt sent to the text generator.
func (p Persona) Prompt(message string) string {
	return p.Instruction + "\n\nUser message (mood / question): " + message
}
