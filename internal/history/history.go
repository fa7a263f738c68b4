// Package history keeps the in-memory log of mood observations.
//
// The log lives for the lifetime of the process. Nothing is persisted and
// nothing is evicted.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-ai-music-player/internal/mood"
)

// RecentLimit is the number of observations reported in Stats.Last7Moods.
const RecentLimit = 7

// Observation is a single mood classification.
type Observation struct {
	ID           uuid.UUID `json:"id"`
	Mood         mood.Mood `json:"mood"`
	Timestamp    time.Time `json:"timestamp"`
	FaceEmotion  string    `json:"face_emotion"`
	VoiceEmotion string    `json:"voice_emotion"`
}

// Counts holds the number of observations per mood bucket.
type Counts struct {
	High    int `json:"high"`
	Neutral int `json:"neutral"`
	Low     int `json:"low"`
}

// Get returns the count for m. Unknown moods count zero.
func (c Counts) Get(m mood.Mood) int {
	switch m {
	case mood.High:
		return c.High
	case mood.Neutral:
		return c.Neutral
	case mood.Low:
		return c.Low
	}
	return 0
}

// Sum returns the total across all buckets.
func (c Counts) Sum() int {
	return c.High + c.Neutral + c.Low
}

func (c *Counts) add(m mood.Mood) {
	switch m {
	case mood.High:
		c.High++
	case mood.Neutral:
		c.Neutral++
	case mood.Low:
		c.Low++
	}
}

// Stats summarizes the log. It is derived on demand and never stored.
type Stats struct {
	Total          int           `json:"total"`
	MostCommonMood *mood.Mood    `json:"most_common_mood"`
	MoodCounts     Counts        `json:"mood_counts"`
	Last7Moods     []Observation `json:"last_7_moods"`
}

// Log is an append-only sequence of observations.
// The mood endpoint is its only writer; readers take a snapshot.
type Log struct {
	mu      sync.RWMutex
	entries []Observation
	now     func() time.Time
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// Record appends o and returns the stored value. A zero ID or Timestamp is
// filled in before appending.
func (l *Log) Record(o Observation) Observation {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = l.now()
	}

	l.mu.Lock()
	l.entries = append(l.entries, o)
	l.mu.Unlock()

	return o
}

// Len returns the number of recorded observations.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns a copy of every observation in arrival order.
func (l *Log) Entries() []Observation {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Observation, len(l.entries))
	copy(out, l.entries)
	return out
}

// Stats computes summary statistics over the whole log.
//
// Ties for the most common mood resolve in mood.All order (high, neutral,
// low). MostCommonMood is nil when the log is empty.
func (l *Log) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := Stats{
		Total:      len(l.entries),
		Last7Moods: []Observation{},
	}
	if len(l.entries) == 0 {
		return stats
	}

	for _, e := range l.entries {
		stats.MoodCounts.add(e.Mood)
	}

	if stats.MoodCounts.Sum() > 0 {
		best := mood.All[0]
		for _, m := range mood.All[1:] {
			if stats.MoodCounts.Get(m) > stats.MoodCounts.Get(best) {
				best = m
			}
		}
		stats.MostCommonMood = &best
	}

	start := max(0, len(l.entries)-RecentLimit)
	stats.Last7Moods = make([]Observation, len(l.entries)-start)
	copy(stats.Last7Moods, l.entries[start:])

	return stats
}
