// Package mood maps detected face and voice emotions to a coarse mood bucket.
package mood

import "strings"

// Mood is one of the three coarse listener moods.
type Mood string

const (
	High    Mood = "high"
	Neutral Mood = "neutral"
	Low     Mood = "low"
)

// All lists every mood in tie-break priority order.
var All = []Mood{High, Neutral, Low}

// Emotion labels that pull the mood down or up. Labels are matched lower-cased.
var (
	lowEmotions = map[string]bool{
		"sad":     true,
		"angry":   true,
		"fear":    true,
		"disgust": true,
	}
	highEmotions = map[string]bool{
		"happy":    true,
		"surprise": true,
	}
)

// Classify derives a mood from a face emotion label and a voice emotion label.
//
// Rules, checked in order:
//   - either label is sad, angry, fear or disgust = Low
//   - either label is happy or surprise           = High
//   - anything else                               = Neutral
//
// Low wins over High when one label is negative and the other positive.
func Classify(face, voice string) Mood {
	face = strings.ToLower(face)
	voice = strings.ToLower(voice)

	switch {
	case lowEmotions[face] || lowEmotions[voice]:
		return Low
	case highEmotions[face] || highEmotions[voice]:
		return High
	default:
		return Neutral
	}
}

// String returns the mood literal.
func (m Mood) String() string {
	return string(m)
}
