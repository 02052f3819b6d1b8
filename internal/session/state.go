// Package session holds the connection-scoped learner state and the
// adaptation policy evaluated against it.
//
// A State is owned by exactly one connection task and is not safe for
// concurrent use.
package session

import (
	"slices"
	"time"

	"github.com/gosuda/kairos/internal/domain"
)

const (
	DefaultEmotionRetention    = 20
	DefaultAdaptationRetention = 20
)

// State is the mutable context of one tutoring session.
type State struct {
	emotionLimit    int
	adaptationLimit int

	profile          domain.Profile
	emotions         []domain.EmotionObservation
	adaptations      []domain.AdaptationEvent
	lastAdaptationAt time.Time
	usage            map[domain.Capability]int
	tally            domain.Tally
}

// NewState returns a State with default preferences. Non-positive limits
// fall back to the defaults.
func NewState(emotionLimit, adaptationLimit int) *State {
	if emotionLimit <= 0 {
		emotionLimit = DefaultEmotionRetention
	}
	if adaptationLimit <= 0 {
		adaptationLimit = DefaultAdaptationRetention
	}
	return &State{
		emotionLimit:    emotionLimit,
		adaptationLimit: adaptationLimit,
		profile:         domain.DefaultProfile(),
		usage:           make(map[domain.Capability]int),
	}
}

// Snapshot is a read-only copy of a State.
type Snapshot struct {
	Profile          domain.Profile
	Emotions         []domain.EmotionObservation
	Adaptations      []domain.AdaptationEvent
	LastAdaptationAt time.Time
	Usage            map[domain.Capability]int
}

func (s *State) Load() Snapshot {
	return Snapshot{
		Profile:          s.profile,
		Emotions:         slices.Clone(s.emotions),
		Adaptations:      slices.Clone(s.adaptations),
		LastAdaptationAt: s.lastAdaptationAt,
		Usage:            s.Usage(),
	}
}

func (s *State) Profile() domain.Profile { return s.profile }

// ApplyStartLesson overwrites all preference fields at once. Empty fields
// take their defaults rather than keeping the previous value.
func (s *State) ApplyStartLesson(p domain.Profile) {
	s.profile = p.WithDefaults()
}

// RecordEmotion appends obs and trims the history to the retention window.
func (s *State) RecordEmotion(obs domain.EmotionObservation) {
	s.emotions = append(s.emotions, obs)
	if n := len(s.emotions) - s.emotionLimit; n > 0 {
		s.emotions = slices.Delete(s.emotions, 0, n)
	}
	s.tally.Observe(obs)
}

// RecordAdaptation appends ev, trims the history and moves the cooldown
// anchor to ev.Timestamp.
func (s *State) RecordAdaptation(ev domain.AdaptationEvent) {
	s.adaptations = append(s.adaptations, ev)
	if n := len(s.adaptations) - s.adaptationLimit; n > 0 {
		s.adaptations = slices.Delete(s.adaptations, 0, n)
	}
	s.lastAdaptationAt = ev.Timestamp
	s.tally.Adaptations++
}

func (s *State) IncrementUsage(c domain.Capability) {
	s.usage[c]++
}

// Usage returns a copy of the per-capability invocation counters.
func (s *State) Usage() map[domain.Capability]int {
	out := make(map[domain.Capability]int, len(s.usage))
	for k, v := range s.usage {
		out[k] = v
	}
	return out
}

// EmotionTail returns up to n of the most recent observations, oldest first.
func (s *State) EmotionTail(n int) []domain.EmotionObservation {
	if n <= 0 {
		return nil
	}
	start := max(len(s.emotions)-n, 0)
	return slices.Clone(s.emotions[start:])
}

// Emotions returns the retained emotion history, oldest first.
func (s *State) Emotions() []domain.EmotionObservation {
	return slices.Clone(s.emotions)
}

func (s *State) Adaptations() []domain.AdaptationEvent {
	return slices.Clone(s.adaptations)
}

// LastAdaptationAt reports when the last adaptation was committed.
func (s *State) LastAdaptationAt() (time.Time, bool) {
	return s.lastAdaptationAt, !s.lastAdaptationAt.IsZero()
}

// Analytics summarizes every observation since the last reset, including
// those already trimmed from the history.
func (s *State) Analytics() domain.Analytics {
	return s.tally.Analytics()
}

// Reset clears histories, counters and preferences.
func (s *State) Reset() {
	s.profile = domain.DefaultProfile()
	s.emotions = nil
	s.adaptations = nil
	s.lastAdaptationAt = time.Time{}
	s.usage = make(map[domain.Capability]int)
	s.tally = domain.Tally{}
}
