package capability

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gosuda/kairos/internal/domain"
)

// MaxAnswerWords caps a free-text tutor answer.
const MaxAnswerWords = 100

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOutput, fmt.Sprintf(format, args...))
}

func checkEmotion(obs domain.EmotionObservation, at time.Time) (domain.EmotionObservation, error) {
	if !obs.Emotion.Valid() {
		return obs, invalid("emotion %q", obs.Emotion)
	}
	if math.IsNaN(obs.Confidence) || obs.Confidence < 0 || obs.Confidence > 1 {
		return obs, invalid("confidence %v", obs.Confidence)
	}
	if !inScale(obs.AttentionLevel) {
		return obs, invalid("attention_level %d", *obs.AttentionLevel)
	}
	if !inScale(obs.StressLevel) {
		return obs, invalid("stress_level %d", *obs.StressLevel)
	}
	if obs.Timestamp.IsZero() {
		obs.Timestamp = at
	}
	return obs, nil
}

func inScale(v *int) bool {
	return v == nil || (*v >= 1 && *v <= 10)
}

func checkContent(units []domain.ContentUnit) ([]domain.ContentUnit, error) {
	if len(units) == 0 {
		return nil, invalid("no content units")
	}
	out := make([]domain.ContentUnit, 0, len(units))
	for i, u := range units {
		if !u.Valid() {
			return nil, invalid("content unit %d of type %q", i, u.Type)
		}
		out = append(out, u.Normalize())
	}
	return out, nil
}

func checkAnswer(answer string) (string, error) {
	words := strings.Fields(answer)
	if len(words) == 0 {
		return "", invalid("empty answer")
	}
	if len(words) > MaxAnswerWords {
		words = words[:MaxAnswerWords]
	}
	return strings.Join(words, " "), nil
}

// checkPath keeps at most Count nodes and pins NextLesson to one of the
// offered lessons, defaulting to the first.
func checkPath(p domain.LearningPath, req PathRequest) (domain.LearningPath, error) {
	if len(p.Nodes) == 0 {
		return p, invalid("learning path has no nodes")
	}
	if strings.TrimSpace(p.Topic) == "" {
		p.Topic = topicOf(req.Profile)
	}
	if req.Count > 0 && len(p.Nodes) > req.Count {
		p.Nodes = p.Nodes[:req.Count]
	}

	if len(req.Available) == 0 {
		p.NextLesson = nil
		return p, nil
	}
	next := req.Available[0]
	if p.NextLesson != nil {
		for _, l := range req.Available {
			if l.ID == p.NextLesson.ID {
				next = l
				break
			}
		}
	}
	p.NextLesson = &next
	return p, nil
}

func checkSummary(s domain.LessonSummary, profile domain.Profile) (domain.LessonSummary, error) {
	if strings.TrimSpace(s.ClosingMessage) == "" {
		return s, invalid("empty closing message")
	}
	if strings.TrimSpace(s.Topic) == "" {
		s.Topic = topicOf(profile)
	}
	return s, nil
}

// checkAssessment pins the session id and usage to the request so the
// assessment always describes the session that asked for it.
func checkAssessment(a domain.SessionAssessment, req AssessmentRequest) (domain.SessionAssessment, error) {
	if a.ComprehensionScore != nil && (*a.ComprehensionScore < 0 || *a.ComprehensionScore > 100) {
		return a, invalid("comprehension_score %d", *a.ComprehensionScore)
	}
	a.SessionID = req.SessionID
	a.Usage = copyUsage(req.Usage)
	return a, nil
}

func checkTone(out []string, want int) ([]string, error) {
	if len(out) != want {
		return nil, invalid("refined %d texts, want %d", len(out), want)
	}
	for i, s := range out {
		if strings.TrimSpace(s) == "" {
			return nil, invalid("refined text %d is empty", i)
		}
	}
	return out, nil
}
