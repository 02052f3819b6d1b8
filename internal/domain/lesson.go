package domain

// PathNode is one step of a learning path.
type PathNode struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"` // "active", "locked", "done"
}

// LessonRef names a lesson the client can offer next.
type LessonRef struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Topic string `json:"topic,omitempty"`
}

type LearningPath struct {
	Topic             string     `json:"topic"`
	EstimatedDuration string     `json:"estimated_duration"`
	Modality          string     `json:"learning_modality,omitempty"`
	Pacing            string     `json:"pacing,omitempty"`
	Nodes             []PathNode `json:"nodes"`
	Reasoning         string     `json:"reasoning,omitempty"`
	NextLesson        *LessonRef `json:"next_lesson,omitempty"`
}

// LessonSummary closes a lesson when the learner asks to finish.
type LessonSummary struct {
	Topic          string   `json:"topic"`
	Summary        string   `json:"summary"`
	KeyPoints      []string `json:"key_points,omitempty"`
	ClosingMessage string   `json:"closing_message"`
}

// SessionAssessment evaluates a completed session. ComprehensionScore is nil
// when no assessment could be produced.
type SessionAssessment struct {
	SessionID          string             `json:"session_id"`
	ComprehensionScore *int               `json:"comprehension_score"`
	ConfidenceLevel    string             `json:"confidence_level,omitempty"`
	Strengths          []string           `json:"strengths,omitempty"`
	KnowledgeGaps      []string           `json:"knowledge_gaps,omitempty"`
	Recommendations    []string           `json:"recommendations,omitempty"`
	Stats              map[string]any     `json:"stats,omitempty"`
	Usage              map[Capability]int `json:"usage"`
}
