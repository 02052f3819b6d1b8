package llm

import (
	"context"
	"fmt"

	"github.com/gosuda/kairos/internal/capability"
	"github.com/gosuda/kairos/internal/capability/model"
	"github.com/gosuda/kairos/internal/domain"
)

const emotionSystem = `You analyze a webcam frame of a student during an online lesson.
Classify the dominant learning emotion as one of: engaged, confused, bored, frustrated, neutral.
Estimate attention_level and stress_level on a 1-10 scale.
Respond ONLY with JSON: {"emotion": "...", "confidence": 0.0, "attention_level": 5, "stress_level": 5}`

type EmotionClassifier struct {
	model model.Model
}

type emotionReply struct {
	Emotion        string  `json:"emotion"`
	Confidence     float64 `json:"confidence"`
	AttentionLevel *int    `json:"attention_level"`
	StressLevel    *int    `json:"stress_level"`
}

func (c *EmotionClassifier) Classify(ctx context.Context, in capability.EmotionInput) (domain.EmotionObservation, error) {
	img, mime, err := model.DecodeImage(in.Frame)
	if err != nil {
		return domain.EmotionObservation{}, fmt.Errorf("llm.EmotionClassifier.Classify: %w", err)
	}

	raw, err := c.model.Generate(ctx, model.Prompt{
		System:      emotionSystem,
		Text:        "Classify the student's emotion in this frame.",
		Image:       img,
		ImageMIME:   mime,
		Temperature: 0.2,
		MaxTokens:   200,
		JSON:        true,
	})
	if err != nil {
		return domain.EmotionObservation{}, fmt.Errorf("llm.EmotionClassifier.Classify: %w", err)
	}

	var reply emotionReply
	if err := model.DecodeJSON(raw, &reply); err != nil {
		return domain.EmotionObservation{}, fmt.Errorf("llm.EmotionClassifier.Classify: %w", err)
	}

	emotion, _ := domain.ParseEmotion(reply.Emotion)
	return domain.EmotionObservation{
		Emotion:        emotion,
		Confidence:     reply.Confidence,
		AttentionLevel: reply.AttentionLevel,
		StressLevel:    reply.StressLevel,
		Timestamp:      in.Timestamp,
	}, nil
}
