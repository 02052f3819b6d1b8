package model_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/kairos/internal/capability/model"
)

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type reading struct {
		Emotion    string  `json:"emotion"`
		Confidence float64 `json:"confidence"`
	}

	tests := []struct {
		name string
		raw  string
		want reading
	}{
		{"plain", `{"emotion":"bored","confidence":0.4}`, reading{"bored", 0.4}},
		{"fenced", "```json\n{\"emotion\":\"engaged\",\"confidence\":1}\n```", reading{"engaged", 1}},
		{"prose around", `Sure! Here it is: {"emotion":"confused","confidence":0.7} Hope that helps.`, reading{"confused", 0.7}},
		{"brace in string", `note {"emotion":"neu}tral","confidence":0.1} trailing }`, reading{"neu}tral", 0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got reading
			require.NoError(t, model.DecodeJSON(tt.raw, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSON_Array(t *testing.T) {
	t.Parallel()

	var got []string
	require.NoError(t, model.DecodeJSON("```\n[\"a\", \"b\"]\n```", &got))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestDecodeJSON_Errors(t *testing.T) {
	t.Parallel()

	var v map[string]any
	require.ErrorIs(t, model.DecodeJSON("   ", &v), model.ErrEmptyResponse)
	require.ErrorIs(t, model.DecodeJSON("no json here", &v), model.ErrNoJSON)
	require.Error(t, model.DecodeJSON(`{"a": }`, &v))
}

func TestDecodeImage(t *testing.T) {
	t.Parallel()

	raw := []byte{0x89, 'P', 'N', 'G'}
	enc := base64.StdEncoding.EncodeToString(raw)

	b, mime, err := model.DecodeImage("data:image/png;base64," + enc)
	require.NoError(t, err)
	assert.Equal(t, raw, b)
	assert.Equal(t, "image/png", mime)

	b, mime, err = model.DecodeImage(enc)
	require.NoError(t, err)
	assert.Equal(t, raw, b)
	assert.Equal(t, "image/jpeg", mime)

	_, _, err = model.DecodeImage("data:image/png;base64")
	require.Error(t, err)

	_, _, err = model.DecodeImage("%%%")
	require.Error(t, err)
}
