// Package gemini adapts the Google Gen AI SDK to model.Model.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/gosuda/kairos/internal/capability/model"
)

const DefaultModel = "gemini-2.5-flash"

type Provider struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg model.Config) (*Provider, error) {
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini.New: %w", err)
	}

	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}
	return &Provider{client: client, model: name}, nil
}

func (p *Provider) Name() string { return "gemini/" + p.model }

func (p *Provider) Generate(ctx context.Context, prompt model.Prompt) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt.Text)}
	if len(prompt.Image) > 0 {
		parts = append(parts, genai.NewPartFromBytes(prompt.Image, prompt.ImageMIME))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{}
	if prompt.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}
	if prompt.Temperature > 0 {
		cfg.Temperature = genai.Ptr(prompt.Temperature)
	}
	if prompt.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(prompt.MaxTokens) //nolint:gosec // bounded by caller
	}
	if prompt.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini.Provider.Generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini.Provider.Generate: %w", model.ErrEmptyResponse)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini.Provider.Generate: %w", model.ErrEmptyResponse)
	}
	return b.String(), nil
}
