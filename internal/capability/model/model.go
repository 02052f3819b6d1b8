// Package model is the provider-neutral contract for a generative model
// call. Provider adapters live under providers/.
package model

import (
	"context"
	"errors"
	"time"
)

//nolint:gochecknoglobals // sentinel errors
var (
	ErrEmptyResponse = errors.New("model: empty response")
	ErrNoJSON        = errors.New("model: no JSON found in response")
)

// Prompt is a single-turn request. Image, when set, is sent alongside Text.
type Prompt struct {
	System      string
	Text        string
	Image       []byte
	ImageMIME   string
	Temperature float32
	MaxTokens   int
	JSON        bool // ask the provider for a JSON-only response
}

// Model generates text for a prompt.
type Model interface {
	Generate(ctx context.Context, p Prompt) (string, error)
	Name() string
}

// Config selects and configures one provider model.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}
