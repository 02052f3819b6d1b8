package capability

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/gosuda/kairos/internal/domain"
)

// Fallback values are deterministic for a given input. Text is written in
// Spanish for "es*" profiles and English otherwise.

func spanish(p domain.Profile) bool {
	return strings.HasPrefix(strings.ToLower(p.Language), "es")
}

func topicOf(p domain.Profile) string {
	if t := strings.TrimSpace(p.Topic); t != "" {
		return t
	}
	return "General"
}

// FallbackEmotion is a neutral reading with zero confidence.
func FallbackEmotion(at time.Time) domain.EmotionObservation {
	return domain.EmotionObservation{
		Emotion:    domain.EmotionNeutral,
		Confidence: 0,
		Timestamp:  at,
	}
}

func FallbackContent(req ContentRequest) []domain.ContentUnit {
	topic := topicOf(req.Profile)
	var msg string
	switch {
	case spanish(req.Profile) && req.Escalate:
		msg = fmt.Sprintf("Vamos paso a paso con %s. Tomemos una idea a la vez.", topic)
	case spanish(req.Profile):
		msg = fmt.Sprintf("Sigamos explorando %s. Tómate tu tiempo con cada idea.", topic)
	case req.Escalate:
		msg = fmt.Sprintf("Let's slow down and take %s one small step at a time.", topic)
	default:
		msg = fmt.Sprintf("Let's keep exploring %s. Take your time with each idea.", topic)
	}
	return []domain.ContentUnit{domain.TextUnit(msg)}
}

func FallbackAnswer(p domain.Profile) string {
	if spanish(p) {
		return "No pude responder eso ahora mismo. ¿Puedes volver a preguntar en un momento?"
	}
	return "I couldn't answer that right now. Could you ask again in a moment?"
}

// FallbackPath is one active node on the current topic, followed by
// locked numbered parts when more nodes are requested. The next lesson is
// the first one offered.
func FallbackPath(req PathRequest) domain.LearningPath {
	p := req.Profile
	topic := topicOf(p)
	title, part := "Introduction to "+topic, "Part"
	if spanish(p) {
		title, part = "Introducción a "+topic, "Parte"
	}

	nodes := []domain.PathNode{{ID: 1, Title: title, Status: "active"}}
	for i := 2; i <= req.Count; i++ {
		nodes = append(nodes, domain.PathNode{
			ID:     i,
			Title:  fmt.Sprintf("%s: %s %d", topic, part, i),
			Status: "locked",
		})
	}

	path := domain.LearningPath{
		Topic:             topic,
		EstimatedDuration: "15 min",
		Modality:          p.Style,
		Pacing:            "moderate",
		Nodes:             nodes,
	}
	if len(req.Available) > 0 {
		next := req.Available[0]
		path.NextLesson = &next
	}
	return path
}

func FallbackSummary(p domain.Profile) domain.LessonSummary {
	topic := topicOf(p)
	if spanish(p) {
		return domain.LessonSummary{
			Topic:          topic,
			Summary:        fmt.Sprintf("Hoy repasamos %s.", topic),
			ClosingMessage: "¡Buen trabajo hoy! Sigue practicando y nos vemos en la próxima lección.",
		}
	}
	return domain.LessonSummary{
		Topic:          topic,
		Summary:        fmt.Sprintf("Today we covered %s.", topic),
		ClosingMessage: "Great work today! Keep practicing and see you next lesson.",
	}
}

// FallbackAssessment echoes the client summary as stats with no score.
func FallbackAssessment(req AssessmentRequest) domain.SessionAssessment {
	stats := make(map[string]any, len(req.Summary)+2)
	maps.Copy(stats, req.Summary)
	if req.TimeSpent > 0 {
		stats["time_spent"] = int(req.TimeSpent / time.Second)
	}
	if len(req.Responses) > 0 {
		stats["responses"] = len(req.Responses)
	}
	return domain.SessionAssessment{
		SessionID: req.SessionID,
		Stats:     stats,
		Usage:     copyUsage(req.Usage),
	}
}

// FallbackTone returns the texts unchanged.
func FallbackTone(req ToneRequest) []string {
	return slices.Clone(req.Texts)
}

func copyUsage(u map[domain.Capability]int) map[domain.Capability]int {
	out := make(map[domain.Capability]int, len(u))
	maps.Copy(out, u)
	return out
}
