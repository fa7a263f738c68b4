package chat

import (
	"strings"
	"testing"
)

func TestPersonaFor(t *testing.T) {
	tests := []struct {
		mode string
		want string
	}{
		{mode: "roast", want: ModeRoast},
		{mode: "bollywood", want: ModeBollywood},
		{mode: "advice", want: ModeAdvice},
		{mode: "normal", want: ModeNormal},
		{mode: " Roast ", want: ModeRoast},
		{mode: "", want: ModeNormal},
		{mode: "unknown-mode", want: ModeNormal},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			if got := PersonaFor(tt.mode).Mode; got != tt.want {
				t.Errorf("PersonaFor(%q).Mode = %q, want %q", tt.mode, got, tt.want)
			}
		})
	}
}

func TestPersona_Prompt(t *testing.T) {
	p := PersonaFor(ModeAdvice)
	prompt := p.Prompt("I am stressed about exams")

	if !strings.HasPrefix(prompt, p.Instruction) {
		t.Error("prompt should start with the persona instruction")
	}
	if !strings.HasSuffix(prompt, "\n\nUser message (mood / question): I am stressed about exams") {
		t.Errorf("prompt has wrong message suffix: %q", prompt)
	}
	if !strings.Contains(prompt, "3-5 short bullet-point") {
		t.Error("advice prompt should ask for bullet points")
	}
}
