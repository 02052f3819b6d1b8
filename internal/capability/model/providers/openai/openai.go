// Package openai adapts any OpenAI-compatible chat completion endpoint to
// model.Model.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/gosuda/kairos/internal/capability/model"
)

const DefaultModel = openai.GPT4oMini

type Provider struct {
	client *openai.Client
	model  string
}

func New(_ context.Context, cfg model.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai.New: api key is required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}
	return &Provider{client: openai.NewClientWithConfig(oc), model: name}, nil
}

func (p *Provider) Name() string { return "openai/" + p.model }

func (p *Provider) Generate(ctx context.Context, prompt model.Prompt) (string, error) {
	var messages []openai.ChatCompletionMessage
	if prompt.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt.System,
		})
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(prompt.Image) > 0 {
		dataURL := "data:" + prompt.ImageMIME + ";base64," + base64.StdEncoding.EncodeToString(prompt.Image)
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt.Text},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
		}
	} else {
		user.Content = prompt.Text
	}
	messages = append(messages, user)

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
	}
	if prompt.JSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai.Provider.Generate: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("openai.Provider.Generate: %w", model.ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
