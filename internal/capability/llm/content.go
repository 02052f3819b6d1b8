package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosuda/kairos/internal/capability"
	"github.com/gosuda/kairos/internal/capability/model"
	"github.com/gosuda/kairos/internal/domain"
)

const contentSystem = `You are KAIROS, a patient adaptive tutor.
Produce the next short piece of a lesson as a JSON object:
{"content": [{"type": "text", "content": "..."}, {"type": "image_prompt", "content": "...", "image_url": "...", "alt_text": "..."}, {"type": "video_url", "content": "...", "caption": "..."}]}
Use 2 to 4 items. Text items are at most three sentences. Respond ONLY with JSON.`

//nolint:gochecknoglobals // read-only lookup
var strategyHints = map[domain.Strategy]string{
	domain.StrategyVisualExplanation: "The student is confused: explain with a concrete visual example and one simple analogy.",
	domain.StrategyGamification:      "The student is bored: turn the next step into a quick challenge or game.",
	domain.StrategySimplification:    "The student is struggling: use very short sentences and one idea at a time.",
}

type ContentGenerator struct {
	model model.Model
}

type contentReply struct {
	Content []domain.ContentUnit `json:"content"`
}

func (g *ContentGenerator) Generate(ctx context.Context, req capability.ContentRequest) ([]domain.ContentUnit, error) {
	var b strings.Builder
	b.WriteString("Learner:\n")
	b.WriteString(describeLearner(req.Profile))
	if req.Emotion.Emotion != "" {
		fmt.Fprintf(&b, "- Current emotion: %s\n", req.Emotion.Emotion)
	}
	switch {
	case req.Block != nil:
		fmt.Fprintf(&b, "\nRewrite this %s block for the student's current state: %q\n", req.Block.Type, req.Block.Content)
	case req.Text != "":
		fmt.Fprintf(&b, "\nThe student said: %q\n", req.Text)
	default:
		b.WriteString("\nStart the lesson with an engaging introduction.\n")
	}
	if len(req.Exclude) > 0 {
		fmt.Fprintf(&b, "Avoid these subtopics: %s\n", strings.Join(req.Exclude, ", "))
	}
	if req.Escalate {
		hint, ok := strategyHints[req.Strategy]
		if !ok {
			hint = strategyHints[domain.StrategySimplification]
		}
		b.WriteString(hint + "\n")
	}
	fmt.Fprintf(&b, "Write in %s.", languageName(req.Profile))

	raw, err := g.model.Generate(ctx, model.Prompt{
		System:      contentSystem,
		Text:        b.String(),
		Temperature: 0.7,
		MaxTokens:   1024,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("llm.ContentGenerator.Generate: %w", err)
	}

	var reply contentReply
	if err := model.DecodeJSON(raw, &reply); err == nil && len(reply.Content) > 0 {
		return reply.Content, nil
	}
	var units []domain.ContentUnit
	if err := model.DecodeJSON(raw, &units); err != nil {
		return nil, fmt.Errorf("llm.ContentGenerator.Generate: %w", err)
	}
	return units, nil
}

func (g *ContentGenerator) Answer(ctx context.Context, req capability.AnswerRequest) (string, error) {
	var b strings.Builder
	b.WriteString("Learner:\n")
	b.WriteString(describeLearner(req.Profile))
	if len(req.Context) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, turn := range req.Context {
			fmt.Fprintf(&b, "%s: %s\n", orDefault(turn.Role, "user"), turn.Content)
		}
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", req.Question)
	fmt.Fprintf(&b, "Answer in %s in at most %d words.", languageName(req.Profile), capability.MaxAnswerWords)

	raw, err := g.model.Generate(ctx, model.Prompt{
		System:      "You are KAIROS, a friendly tutor. Answer the student's question clearly and briefly in plain prose.",
		Text:        b.String(),
		Temperature: 0.5,
		MaxTokens:   400,
	})
	if err != nil {
		return "", fmt.Errorf("llm.ContentGenerator.Answer: %w", err)
	}
	return strings.TrimSpace(raw), nil
}
