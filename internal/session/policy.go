package session

import (
	"time"

	"github.com/gosuda/kairos/internal/domain"
)

const (
	DefaultStreakLength   = 3
	DefaultCooldown       = 10 * time.Second
	DefaultAttentionFloor = 4
	DefaultStressCeiling  = 7
)

// Reasons reported by Policy.Decide.
const (
	ReasonNone     = "no_signal"
	ReasonStreak   = "negative_streak"
	ReasonOverride = "physiological_override"
	ReasonCooldown = "cooldown"
)

// History is the view of a session the policy needs.
type History interface {
	EmotionTail(n int) []domain.EmotionObservation
	LastAdaptationAt() (time.Time, bool)
}

// Policy decides when content generation should escalate toward more
// simplification. It never mutates the history it reads.
type Policy struct {
	StreakLength   int
	Cooldown       time.Duration
	AttentionFloor int
	StressCeiling  int
}

func DefaultPolicy() Policy {
	return Policy{
		StreakLength:   DefaultStreakLength,
		Cooldown:       DefaultCooldown,
		AttentionFloor: DefaultAttentionFloor,
		StressCeiling:  DefaultStressCeiling,
	}
}

// Decision is the outcome of one policy evaluation.
type Decision struct {
	Escalate    bool
	Reason      string
	Strategy    domain.Strategy
	Streak      bool
	Override    bool
	CoolingDown bool
}

// Decide evaluates latest against h. The latest observation is expected to
// be recorded in h already; a streak needs StreakLength retained
// observations that are all negative, the latest included.
//
// A physiological override (attention below the floor or stress above the
// ceiling) escalates even inside the cooldown window.
func (p Policy) Decide(h History, latest domain.EmotionObservation, now time.Time) Decision {
	n := p.StreakLength
	if n <= 0 {
		n = DefaultStreakLength
	}

	d := Decision{
		Streak:   streak(h.EmotionTail(n), n) && latest.Emotion.Negative(),
		Override: p.override(latest),
	}
	if last, ok := h.LastAdaptationAt(); ok && now.Sub(last) < p.Cooldown {
		d.CoolingDown = true
	}

	switch {
	case d.Override:
		d.Escalate = true
		d.Reason = ReasonOverride
	case d.Streak && d.CoolingDown:
		d.Reason = ReasonCooldown
	case d.Streak:
		d.Escalate = true
		d.Reason = ReasonStreak
	default:
		d.Reason = ReasonNone
	}
	if d.Escalate {
		d.Strategy = domain.StrategyFor(latest.Emotion, d.Override)
	}
	return d
}

func (p Policy) override(obs domain.EmotionObservation) bool {
	if obs.AttentionLevel != nil && *obs.AttentionLevel < p.AttentionFloor {
		return true
	}
	return obs.StressLevel != nil && *obs.StressLevel > p.StressCeiling
}

func streak(tail []domain.EmotionObservation, n int) bool {
	if len(tail) < n {
		return false
	}
	for _, obs := range tail {
		if !obs.Emotion.Negative() {
			return false
		}
	}
	return true
}
