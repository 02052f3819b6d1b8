package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gosuda/kairos/internal/domain"
)

func TestContentUnit_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		unit domain.ContentUnit
		want bool
	}{
		{"text", domain.TextUnit("hello"), true},
		{"answer", domain.TutorAnswerUnit("because"), true},
		{"image", domain.ImagePromptUnit("a leaf", "https://img", "leaf"), true},
		{"video", domain.VideoUnit("https://v", "clip"), true},
		{"blank content", domain.TextUnit("   "), false},
		{"unknown type", domain.ContentUnit{Type: "quiz", Content: "q"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.unit.Valid())
		})
	}
}

func TestContentUnit_Normalize(t *testing.T) {
	t.Parallel()

	u := domain.ContentUnit{
		Type:     domain.ContentText,
		Content:  "hi",
		ImageURL: "https://img",
		Caption:  "stray",
	}
	assert.Equal(t, domain.TextUnit("hi"), u.Normalize())

	v := domain.ContentUnit{Type: domain.ContentVideoURL, Content: "https://v", Caption: "c", AltText: "x"}
	assert.Equal(t, domain.VideoUnit("https://v", "c"), v.Normalize())
}

func TestContentUnit_WordCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, domain.TextUnit("").WordCount())
	assert.Equal(t, 4, domain.TextUnit("  one two\tthree\nfour ").WordCount())
}

func TestProfile_WithDefaultsAndOverlay(t *testing.T) {
	t.Parallel()

	p := domain.Profile{Topic: "Photosynthesis"}.WithDefaults()
	assert.Equal(t, domain.Profile{
		Language: "en",
		Level:    "beginner",
		Style:    "visual",
		Topic:    "Photosynthesis",
	}, p)

	got := p.Overlay(domain.Profile{Language: "es", Age: 12})
	assert.Equal(t, "es", got.Language)
	assert.Equal(t, 12, got.Age)
	assert.Equal(t, "Photosynthesis", got.Topic)
	assert.Equal(t, "visual", got.Style)

	// The receiver is a value; overlay never mutates it.
	assert.Equal(t, "en", p.Language)
}
