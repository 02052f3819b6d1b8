package domain

import (
	"strings"
	"time"
)

type Emotion string

const (
	EmotionEngaged    Emotion = "engaged"
	EmotionConfused   Emotion = "confused"
	EmotionBored      Emotion = "bored"
	EmotionFrustrated Emotion = "frustrated"
	EmotionNeutral    Emotion = "neutral"
)

// ParseEmotion normalizes a classifier label. Unknown labels report false.
func ParseEmotion(s string) (Emotion, bool) {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	return e, e.Valid()
}

func (e Emotion) Valid() bool {
	switch e {
	case EmotionEngaged, EmotionConfused, EmotionBored, EmotionFrustrated, EmotionNeutral:
		return true
	}
	return false
}

// Negative reports whether the emotion signals the learner is struggling.
func (e Emotion) Negative() bool {
	return e == EmotionConfused || e == EmotionBored || e == EmotionFrustrated
}

// EmotionObservation is one classified reading of the learner. Attention and
// stress are 1-10 when the classifier reports them.
type EmotionObservation struct {
	Emotion        Emotion   `json:"emotion"`
	Confidence     float64   `json:"confidence"`
	AttentionLevel *int      `json:"attention_level,omitempty"`
	StressLevel    *int      `json:"stress_level,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type Strategy string

const (
	StrategyVisualExplanation Strategy = "visual_explanation"
	StrategyGamification      Strategy = "gamification"
	StrategySimplification    Strategy = "simplification"
	StrategyMaintain          Strategy = "maintain"
	StrategyChallenge         Strategy = "challenge"
)

// StrategyFor maps an emotion to the adaptation strategy used when content is
// escalated. A physiological override on a non-negative emotion simplifies.
func StrategyFor(e Emotion, override bool) Strategy {
	switch e {
	case EmotionConfused:
		return StrategyVisualExplanation
	case EmotionBored:
		return StrategyGamification
	case EmotionFrustrated:
		return StrategySimplification
	}
	if override {
		return StrategySimplification
	}
	if e == EmotionEngaged {
		return StrategyChallenge
	}
	return StrategyMaintain
}

// AdaptationEvent records an escalation that was acted upon.
type AdaptationEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Emotion   Emotion   `json:"emotion"`
	Strategy  Strategy  `json:"strategy"`
	Escalated bool      `json:"escalated"`
}
