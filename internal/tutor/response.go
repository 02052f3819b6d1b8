package tutor

import "github.com/gosuda/kairos/internal/domain"

// Response is the outcome of handling one inbound message. Only the fields
// that apply to the message are populated.
type Response struct {
	Emotion       *domain.EmotionObservation `json:"emotion,omitempty"`
	LearningPath  *domain.LearningPath       `json:"learning_path,omitempty"`
	Content       []domain.ContentUnit       `json:"content,omitempty"`
	LessonSummary *domain.LessonSummary      `json:"lesson_summary,omitempty"`
	Assessment    *domain.SessionAssessment  `json:"session_assessment,omitempty"`
	Block         *BlockResult               `json:"block_result,omitempty"`
	Analytics     *domain.Analytics          `json:"analytics,omitempty"`
	Reset         string                     `json:"reset,omitempty"`
	Error         string                     `json:"error,omitempty"`
}

// Empty reports whether no field is populated.
func (r Response) Empty() bool {
	return r.Emotion == nil && r.LearningPath == nil && len(r.Content) == 0 &&
		r.LessonSummary == nil && r.Assessment == nil && r.Block == nil && r.Analytics == nil &&
		r.Reset == "" && r.Error == ""
}

// BlockResult answers a completed block: how well it was understood and,
// when the client offered lessons, which one to take next.
type BlockResult struct {
	Assessment domain.SessionAssessment `json:"assessment"`
	NextLesson *domain.LessonRef        `json:"next_lesson"`
}
