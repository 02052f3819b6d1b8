// Package capability defines the model-backed capabilities a tutoring
// session depends on and the Gateway that makes every call to them total.
package capability

import (
	"context"
	"time"

	"github.com/gosuda/kairos/internal/domain"
)

// EmotionInput is one captured frame of the learner.
type EmotionInput struct {
	Frame     string // opaque image payload, usually base64 or a data URL
	Timestamp time.Time
}

// ContentRequest asks for lesson content. Escalate biases generation toward
// simpler, more visual material; Strategy names how. When Block is set the
// generator rewrites that unit instead of continuing the lesson.
type ContentRequest struct {
	Profile  domain.Profile
	Text     string
	Emotion  domain.EmotionObservation
	Escalate bool
	Strategy domain.Strategy
	Block    *domain.ContentUnit
	Exclude  []string // subtopics to stay away from
}

type AnswerRequest struct {
	Question string
	Context  []domain.Turn
	Profile  domain.Profile
}

// PathRequest carries the learner profile and the emotion trend so far.
// Available lessons ask the planner to pick NextLesson among them; Count
// asks for that many nodes.
type PathRequest struct {
	Profile   domain.Profile
	Trend     domain.Analytics
	Completed []string
	Current   string
	Available []domain.LessonRef
	Count     int
}

type SummaryRequest struct {
	Profile  domain.Profile
	Text     string
	Emotions []domain.EmotionObservation
}

// AssessmentRequest describes what to assess: a whole session through its
// client summary, or one completed block through Covered and Responses.
type AssessmentRequest struct {
	SessionID string
	Summary   map[string]any
	Usage     map[domain.Capability]int
	Emotions  []domain.EmotionObservation
	Profile   domain.Profile

	Covered   string
	Responses []string
	TimeSpent time.Duration
}

// ToneRequest carries the text units of one response, in order.
type ToneRequest struct {
	Texts   []string
	Profile domain.Profile
	Emotion domain.Emotion
}

type EmotionClassifier interface {
	Classify(ctx context.Context, in EmotionInput) (domain.EmotionObservation, error)
}

type ContentGenerator interface {
	Generate(ctx context.Context, req ContentRequest) ([]domain.ContentUnit, error)
	Answer(ctx context.Context, req AnswerRequest) (string, error)
}

type PathPlanner interface {
	Plan(ctx context.Context, req PathRequest) (domain.LearningPath, error)
}

type Assessor interface {
	Summarize(ctx context.Context, req SummaryRequest) (domain.LessonSummary, error)
	Assess(ctx context.Context, req AssessmentRequest) (domain.SessionAssessment, error)
}

type ToneRefiner interface {
	Refine(ctx context.Context, req ToneRequest) ([]string, error)
}

// Set bundles one implementation per capability. A nil member always
// produces its fallback.
type Set struct {
	Emotion  EmotionClassifier
	Content  ContentGenerator
	Path     PathPlanner
	Assessor Assessor
	Tone     ToneRefiner
}
