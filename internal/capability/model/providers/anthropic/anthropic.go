// Package anthropic adapts the Anthropic Messages API to model.Model.
package anthropic

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/gosuda/kairos/internal/capability/model"
)

const (
	DefaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 1024
)

type Provider struct {
	client anthropic.Client
	model  string
}

func New(_ context.Context, cfg model.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic.New: api key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}
	return &Provider{client: anthropic.NewClient(opts...), model: name}, nil
}

func (p *Provider) Name() string { return "anthropic/" + p.model }

func (p *Provider) Generate(ctx context.Context, prompt model.Prompt) (string, error) {
	blocks := []anthropic.ContentBlockParamUnion{}
	if len(prompt.Image) > 0 {
		blocks = append(blocks, anthropic.NewImageBlockBase64(prompt.ImageMIME, base64.StdEncoding.EncodeToString(prompt.Image)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt.Text))

	maxTokens := prompt.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if prompt.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: prompt.System}}
	}
	if prompt.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(prompt.Temperature))
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic.Provider.Generate: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic.Provider.Generate: %w", model.ErrEmptyResponse)
	}
	return b.String(), nil
}
