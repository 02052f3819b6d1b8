package stream

import (
	"github.com/gosuda/kairos/internal/domain"
	"github.com/gosuda/kairos/internal/tutor"
)

// Outbound message types.
const (
	TypeConnectionEstablished = "connection_established"
	TypeEmotionResult         = "emotion_result"
	TypeLearningPath          = "learning_path"
	TypeLessonContent         = "lesson_content"
	TypeLessonSummary         = "lesson_summary"
	TypeSessionAssessment     = "session_assessment"
	TypeBlockCompletedResult  = "block_completed_result"
	TypeAnalytics             = "analytics"
	TypeSessionReset          = "session_reset"
	TypeError                 = "error"
)

// Message is one frame on the wire.
type Message struct {
	Type       string                     `json:"type"`
	SessionID  string                     `json:"session_id,omitempty"`
	Emotion    *domain.EmotionObservation `json:"emotion,omitempty"`
	Data       any                        `json:"data,omitempty"`
	Content    []domain.ContentUnit       `json:"content,omitempty"`
	Assessment *domain.SessionAssessment  `json:"assessment,omitempty"`
	NextLesson *domain.LessonRef          `json:"next_lesson,omitempty"`
	Analytics  *domain.Analytics          `json:"analytics,omitempty"`
	Message    string                     `json:"message,omitempty"`
}

func Welcome(sessionID string) Message {
	return Message{
		Type:      TypeConnectionEstablished,
		SessionID: sessionID,
		Message:   "Connected to KAIROS adaptive learning session",
	}
}

func ErrorMessage(msg string) Message {
	return Message{Type: TypeError, Message: msg}
}

// Frames splits a response into wire messages in delivery order: the
// learning path, one lesson_content per unit with the emotion on the
// first, then summary, assessment, block result, analytics, reset and error. The emotion
// travels alone when there is no content.
func Frames(resp tutor.Response) []Message {
	var out []Message

	if resp.LearningPath != nil {
		out = append(out, Message{Type: TypeLearningPath, Data: resp.LearningPath})
	}
	for i, u := range resp.Content {
		m := Message{Type: TypeLessonContent, Content: []domain.ContentUnit{u}}
		if i == 0 {
			m.Emotion = resp.Emotion
		}
		out = append(out, m)
	}
	if resp.Emotion != nil && len(resp.Content) == 0 {
		out = append(out, Message{Type: TypeEmotionResult, Emotion: resp.Emotion})
	}
	if resp.LessonSummary != nil {
		out = append(out, Message{Type: TypeLessonSummary, Data: resp.LessonSummary})
	}
	if resp.Assessment != nil {
		out = append(out, Message{
			Type:       TypeSessionAssessment,
			SessionID:  resp.Assessment.SessionID,
			Assessment: resp.Assessment,
		})
	}
	if resp.Block != nil {
		out = append(out, Message{
			Type:       TypeBlockCompletedResult,
			SessionID:  resp.Block.Assessment.SessionID,
			Assessment: &resp.Block.Assessment,
			NextLesson: resp.Block.NextLesson,
		})
	}
	if resp.Analytics != nil {
		out = append(out, Message{Type: TypeAnalytics, Analytics: resp.Analytics})
	}
	if resp.Reset != "" {
		out = append(out, Message{Type: TypeSessionReset, Message: resp.Reset})
	}
	if resp.Error != "" {
		out = append(out, ErrorMessage(resp.Error))
	}
	return out
}
