package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/kairos/internal/capability/model"
	"github.com/gosuda/kairos/internal/capability/model/providers/openai"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type contentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

// newServer serves /chat/completions with reply and records the decoded
// request into got.
func newServer(t *testing.T, reply string, got *chatRequest) *openai.Provider {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	p, err := openai.New(context.Background(), model.Config{APIKey: "test-key", BaseURL: srv.URL + "/", Model: "test-model"})
	require.NoError(t, err)
	return p
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":     "cmpl-1",
		"object": "chat.completion",
		"model":  "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := openai.New(context.Background(), model.Config{})
	require.Error(t, err)

	p, err := openai.New(context.Background(), model.Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai/"+openai.DefaultModel, p.Name())
}

// ---------------------------------------------------------------------------
// Generate
// ---------------------------------------------------------------------------

func TestProvider_Generate_Text(t *testing.T) {
	t.Parallel()

	var got chatRequest
	p := newServer(t, completion("hello"), &got)

	out, err := p.Generate(context.Background(), model.Prompt{System: "be brief", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)

	var text string
	require.NoError(t, json.Unmarshal(got.Messages[1].Content, &text))
	assert.Equal(t, "hi", text)
	assert.Nil(t, got.ResponseFormat)
}

func TestProvider_Generate_ImageAsDataURL(t *testing.T) {
	t.Parallel()

	var got chatRequest
	p := newServer(t, completion("a face"), &got)

	_, err := p.Generate(context.Background(), model.Prompt{
		Text:      "describe",
		Image:     []byte("abc"),
		ImageMIME: "image/jpeg",
	})
	require.NoError(t, err)

	require.Len(t, got.Messages, 1)
	var parts []contentPart
	require.NoError(t, json.Unmarshal(got.Messages[0].Content, &parts))
	require.Len(t, parts, 2)

	assert.Equal(t, "text", parts[0].Type)
	assert.Equal(t, "describe", parts[0].Text)
	assert.Equal(t, "image_url", parts[1].Type)
	require.NotNil(t, parts[1].ImageURL)
	assert.Equal(t, "data:image/jpeg;base64,YWJj", parts[1].ImageURL.URL)
}

func TestProvider_Generate_JSONFormat(t *testing.T) {
	t.Parallel()

	var got chatRequest
	p := newServer(t, completion(`{"ok":true}`), &got)

	out, err := p.Generate(context.Background(), model.Prompt{Text: "give json", JSON: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, out)

	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestProvider_Generate_EmptyResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply string
	}{
		{name: "no_choices", reply: `{"id":"cmpl-1","object":"chat.completion","choices":[]}`},
		{name: "blank_content", reply: completion("   ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got chatRequest
			p := newServer(t, tt.reply, &got)

			_, err := p.Generate(context.Background(), model.Prompt{Text: "hi"})
			require.ErrorIs(t, err, model.ErrEmptyResponse)
		})
	}
}

func TestProvider_Generate_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	t.Cleanup(srv.Close)

	p, err := openai.New(context.Background(), model.Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), model.Prompt{Text: "hi"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrEmptyResponse)
}
