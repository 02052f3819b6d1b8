package domain

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

// DefaultAttention stands in for a missing attention reading when averaging.
const DefaultAttention = 5

// Analytics summarizes the emotion readings of a session.
type Analytics struct {
	TotalDetections     int             `json:"total_detections"`
	TotalAdaptations    int             `json:"total_adaptations"`
	EmotionDistribution map[Emotion]int `json:"emotion_distribution"`
	AvgAttention        float64         `json:"avg_attention"`
	EngagementRate      float64         `json:"engagement_rate"`
}

// Tally accumulates observations for Analytics. Unlike the bounded
// history it is never trimmed.
type Tally struct {
	Detections     int
	Adaptations    int
	Distribution   map[Emotion]int
	AttentionTotal int
}

func (t *Tally) Observe(obs EmotionObservation) {
	if t.Distribution == nil {
		t.Distribution = make(map[Emotion]int)
	}
	t.Detections++
	t.Distribution[obs.Emotion]++
	if obs.AttentionLevel != nil {
		t.AttentionTotal += *obs.AttentionLevel
	} else {
		t.AttentionTotal += DefaultAttention
	}
}

// Analytics renders the tally. Averages and rates are rounded to one decimal.
func (t *Tally) Analytics() Analytics {
	a := Analytics{
		TotalDetections:     t.Detections,
		TotalAdaptations:    t.Adaptations,
		EmotionDistribution: make(map[Emotion]int, len(t.Distribution)),
	}
	for e, n := range t.Distribution {
		a.EmotionDistribution[e] = n
	}
	if t.Detections == 0 {
		return a
	}
	total := float64(t.Detections)
	a.AvgAttention = round1(float64(t.AttentionTotal) / total)
	a.EngagementRate = round1(float64(t.Distribution[EmotionEngaged]) / total * 100)
	return a
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// SessionRecord is the persisted end-of-session summary of one connection.
type SessionRecord struct {
	ID        uuid.UUID          `json:"id"`
	SessionID uuid.UUID          `json:"session_id"`
	Topic     string             `json:"topic"`
	Language  string             `json:"language"`
	Analytics Analytics          `json:"analytics"`
	Usage     map[Capability]int `json:"usage"`
	StartedAt time.Time          `json:"started_at"`
	EndedAt   time.Time          `json:"ended_at"`
}

// SessionRecordRepository stores end-of-session records.
type SessionRecordRepository interface {
	Save(ctx context.Context, rec *SessionRecord) error
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*SessionRecord, error)
	List(ctx context.Context, limit, offset int) ([]*SessionRecord, error)
}
