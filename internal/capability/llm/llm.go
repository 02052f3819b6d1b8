// Package llm implements the tutoring capabilities on top of a generative
// model. Each capability builds a prompt, calls the model once and decodes
// the JSON it returns; validation and fallback are left to the gateway.
package llm

import (
	"fmt"
	"strings"

	"github.com/gosuda/kairos/internal/capability"
	"github.com/gosuda/kairos/internal/capability/model"
	"github.com/gosuda/kairos/internal/domain"
)

// New builds a capability set. The fast model serves emotion classification
// and tone refinement, the quality model everything else. Either may be nil,
// in which case the other is used for both.
func New(fast, quality model.Model) capability.Set {
	if fast == nil {
		fast = quality
	}
	if quality == nil {
		quality = fast
	}
	if fast == nil {
		return capability.Set{}
	}

	return capability.Set{
		Emotion:  &EmotionClassifier{model: fast},
		Content:  &ContentGenerator{model: quality},
		Path:     &PathPlanner{model: quality},
		Assessor: &Assessor{model: quality},
		Tone:     &ToneRefiner{model: fast},
	}
}

func languageName(p domain.Profile) string {
	if strings.HasPrefix(strings.ToLower(p.Language), "es") {
		return "Spanish"
	}
	if p.Language == "" || strings.HasPrefix(strings.ToLower(p.Language), "en") {
		return "English"
	}
	return p.Language
}

func describeLearner(p domain.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Topic: %s\n", orDefault(p.Topic, "general knowledge"))
	fmt.Fprintf(&b, "- Level: %s\n", orDefault(p.Level, domain.DefaultLevel))
	fmt.Fprintf(&b, "- Learning style: %s\n", orDefault(p.Style, domain.DefaultStyle))
	fmt.Fprintf(&b, "- Language: %s\n", languageName(p))
	if p.Age > 0 {
		fmt.Fprintf(&b, "- Age: %d\n", p.Age)
	}
	if p.Alias != "" {
		fmt.Fprintf(&b, "- Name: %s\n", p.Alias)
	}
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
