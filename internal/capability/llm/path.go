package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosuda/kairos/internal/capability"
	"github.com/gosuda/kairos/internal/capability/model"
	"github.com/gosuda/kairos/internal/domain"
)

const pathSystem = `You design short learning paths for an adaptive tutor.
Respond ONLY with JSON:
{"topic": "...", "estimated_duration": "20 min", "learning_modality": "visual", "pacing": "moderate",
 "nodes": [{"id": 1, "title": "...", "status": "active"}, {"id": 2, "title": "...", "status": "locked"}],
 "reasoning": "..."}
Use 3 to 6 nodes unless told otherwise; only the first is active.
When lessons are offered, also include "next_lesson": {"id": "..."} naming the best one.`

type PathPlanner struct {
	model model.Model
}

func (p *PathPlanner) Plan(ctx context.Context, req capability.PathRequest) (domain.LearningPath, error) {
	var b strings.Builder
	b.WriteString("Learner:\n")
	b.WriteString(describeLearner(req.Profile))
	if req.Trend.TotalDetections > 0 {
		b.WriteString("\nEmotional pattern so far:\n")
		fmt.Fprintf(&b, "- Average attention: %.1f/10\n", req.Trend.AvgAttention)
		fmt.Fprintf(&b, "- Engagement rate: %.1f%%\n", req.Trend.EngagementRate)
		fmt.Fprintf(&b, "- Dominant emotion: %s\n", dominant(req.Trend.EmotionDistribution))
	}
	if len(req.Completed) > 0 {
		fmt.Fprintf(&b, "\nAlready covered: %s\n", strings.Join(req.Completed, "; "))
	}
	if req.Current != "" {
		fmt.Fprintf(&b, "Current lesson: %s\n", req.Current)
	}
	if len(req.Available) > 0 {
		b.WriteString("Lessons on offer:\n")
		for _, l := range req.Available {
			fmt.Fprintf(&b, "- id=%s %s\n", l.ID, orDefault(l.Title, l.Topic))
		}
	}
	if req.Count > 0 {
		fmt.Fprintf(&b, "Use exactly %d nodes that do not repeat covered material.\n", req.Count)
	}
	fmt.Fprintf(&b, "\nNode titles in %s.", languageName(req.Profile))

	raw, err := p.model.Generate(ctx, model.Prompt{
		System:      pathSystem,
		Text:        b.String(),
		Temperature: 0.4,
		MaxTokens:   800,
		JSON:        true,
	})
	if err != nil {
		return domain.LearningPath{}, fmt.Errorf("llm.PathPlanner.Plan: %w", err)
	}

	var path domain.LearningPath
	if err := model.DecodeJSON(raw, &path); err != nil {
		return domain.LearningPath{}, fmt.Errorf("llm.PathPlanner.Plan: %w", err)
	}
	return path, nil
}

// dominant picks the most frequent emotion, breaking ties by name.
func dominant(dist map[domain.Emotion]int) domain.Emotion {
	best := domain.EmotionNeutral
	bestN := 0
	for e, n := range dist {
		if n > bestN || (n == bestN && e < best) {
			best, bestN = e, n
		}
	}
	return best
}
