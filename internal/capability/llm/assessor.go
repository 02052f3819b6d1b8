package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gosuda/kairos/internal/capability"
	"github.com/gosuda/kairos/internal/capability/model"
	"github.com/gosuda/kairos/internal/domain"
)

type Assessor struct {
	model model.Model
}

func (a *Assessor) Summarize(ctx context.Context, req capability.SummaryRequest) (domain.LessonSummary, error) {
	var b strings.Builder
	b.WriteString("Learner:\n")
	b.WriteString(describeLearner(req.Profile))
	if req.Text != "" {
		fmt.Fprintf(&b, "\nThe student's last message: %q\n", req.Text)
	}
	if len(req.Emotions) > 0 {
		fmt.Fprintf(&b, "Emotions observed: %s\n", emotionTrail(req.Emotions))
	}
	fmt.Fprintf(&b, "Write in %s.", languageName(req.Profile))

	raw, err := a.model.Generate(ctx, model.Prompt{
		System: `The student is finishing the lesson. Summarize it warmly.
Respond ONLY with JSON: {"topic": "...", "summary": "...", "key_points": ["..."], "closing_message": "..."}`,
		Text:        b.String(),
		Temperature: 0.5,
		MaxTokens:   600,
		JSON:        true,
	})
	if err != nil {
		return domain.LessonSummary{}, fmt.Errorf("llm.Assessor.Summarize: %w", err)
	}

	var s domain.LessonSummary
	if err := model.DecodeJSON(raw, &s); err != nil {
		return domain.LessonSummary{}, fmt.Errorf("llm.Assessor.Summarize: %w", err)
	}
	return s, nil
}

type assessmentReply struct {
	ComprehensionScore *int     `json:"comprehension_score"`
	ConfidenceLevel    string   `json:"confidence_level"`
	Strengths          []string `json:"strengths"`
	KnowledgeGaps      []string `json:"knowledge_gaps"`
	Recommendations    []string `json:"recommendations"`
}

func (a *Assessor) Assess(ctx context.Context, req capability.AssessmentRequest) (domain.SessionAssessment, error) {
	summary, err := json.Marshal(req.Summary)
	if err != nil {
		return domain.SessionAssessment{}, fmt.Errorf("llm.Assessor.Assess: %w", err)
	}
	usage, err := json.Marshal(req.Usage)
	if err != nil {
		return domain.SessionAssessment{}, fmt.Errorf("llm.Assessor.Assess: %w", err)
	}

	var b strings.Builder
	b.WriteString("Learner:\n")
	b.WriteString(describeLearner(req.Profile))
	fmt.Fprintf(&b, "\nSession statistics: %s\n", summary)
	fmt.Fprintf(&b, "Tutor activity: %s\n", usage)
	if req.Covered != "" {
		fmt.Fprintf(&b, "Content covered: %s\n", req.Covered)
	}
	if len(req.Responses) > 0 {
		fmt.Fprintf(&b, "Student responses: %s\n", strings.Join(req.Responses, " | "))
	}
	if req.TimeSpent > 0 {
		fmt.Fprintf(&b, "Time spent: %d seconds\n", int(req.TimeSpent.Seconds()))
	}
	if len(req.Emotions) > 0 {
		fmt.Fprintf(&b, "Emotions observed: %s\n", emotionTrail(req.Emotions))
	}
	fmt.Fprintf(&b, "Write in %s.", languageName(req.Profile))

	raw, err := a.model.Generate(ctx, model.Prompt{
		System: `Assess the student's comprehension for this session.
Respond ONLY with JSON: {"comprehension_score": 0-100, "confidence_level": "low|medium|high",
"strengths": ["..."], "knowledge_gaps": ["..."], "recommendations": ["..."]}`,
		Text:        b.String(),
		Temperature: 0.3,
		MaxTokens:   800,
		JSON:        true,
	})
	if err != nil {
		return domain.SessionAssessment{}, fmt.Errorf("llm.Assessor.Assess: %w", err)
	}

	var reply assessmentReply
	if err := model.DecodeJSON(raw, &reply); err != nil {
		return domain.SessionAssessment{}, fmt.Errorf("llm.Assessor.Assess: %w", err)
	}
	return domain.SessionAssessment{
		SessionID:          req.SessionID,
		ComprehensionScore: reply.ComprehensionScore,
		ConfidenceLevel:    reply.ConfidenceLevel,
		Strengths:          reply.Strengths,
		KnowledgeGaps:      reply.KnowledgeGaps,
		Recommendations:    reply.Recommendations,
		Stats:              req.Summary,
		Usage:              req.Usage,
	}, nil
}

func emotionTrail(obs []domain.EmotionObservation) string {
	names := make([]string, len(obs))
	for i, o := range obs {
		names[i] = string(o.Emotion)
	}
	return strings.Join(names, ", ")
}
