package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gosuda/kairos/internal/capability"
	"github.com/gosuda/kairos/internal/capability/model"
)

// ToneRefiner rewrites all text units of a response in one call.
type ToneRefiner struct {
	model model.Model
}

type toneReply struct {
	Texts []string `json:"texts"`
}

func (r *ToneRefiner) Refine(ctx context.Context, req capability.ToneRequest) ([]string, error) {
	in, err := json.Marshal(toneReply{Texts: req.Texts})
	if err != nil {
		return nil, fmt.Errorf("llm.ToneRefiner.Refine: %w", err)
	}

	text := fmt.Sprintf("Learner:\n%s\nCurrent emotion: %s\n\nTexts:\n%s\n\nKeep the meaning and %s language.",
		describeLearner(req.Profile), orDefault(string(req.Emotion), "neutral"), in, languageName(req.Profile))

	raw, err := r.model.Generate(ctx, model.Prompt{
		System: `Rewrite each text so it sounds warm and encouraging for this learner, matching their age.
Return the same number of texts in the same order.
Respond ONLY with JSON: {"texts": ["..."]}`,
		Text:        text,
		Temperature: 0.6,
		MaxTokens:   1024,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("llm.ToneRefiner.Refine: %w", err)
	}

	var reply toneReply
	if err := model.DecodeJSON(raw, &reply); err != nil {
		return nil, fmt.Errorf("llm.ToneRefiner.Refine: %w", err)
	}
	return reply.Texts, nil
}
