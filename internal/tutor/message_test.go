package tutor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/kairos/internal/domain"
	"github.com/gosuda/kairos/internal/tutor"
)

func TestDecode_Precedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want tutor.Kind
	}{
		{"question beats everything", `{"question":"why?","type":"session_complete","frame":"x","start_lesson":true}`, tutor.KindUserQuestion},
		{"user_question alias", `{"user_question":"why?"}`, tutor.KindUserQuestion},
		{"blank question ignored", `{"question":"  ","frame":"x"}`, tutor.KindFrame},
		{"session_complete beats frame", `{"type":"session_complete","frame":"x"}`, tutor.KindSessionComplete},
		{"block_completed beats frame", `{"type":"block_completed","frame":""}`, tutor.KindBlockCompleted},
		{"null frame is absent", `{"frame":null,"start_lesson":true}`, tutor.KindStartLesson},
		{"reset", `{"type":"reset_session"}`, tutor.KindReset},
		{"analytics", `{"type":"get_analytics","frame":"x"}`, tutor.KindAnalytics},
		{"frame beats start_lesson", `{"frame":"x","start_lesson":true}`, tutor.KindFrame},
		{"empty frame still a frame", `{"frame":""}`, tutor.KindFrame},
		{"start_lesson", `{"start_lesson":true,"topic":"Gravity"}`, tutor.KindStartLesson},
		{"start_lesson string", `{"start_lesson":"true"}`, tutor.KindStartLesson},
		{"start_lesson false", `{"start_lesson":false}`, tutor.KindUnrecognized},
		{"unknown type", `{"type":"emotion_frame"}`, tutor.KindUnrecognized},
		{"empty object", `{}`, tutor.KindUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := tutor.Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Kind)
		})
	}
}

func TestDecode_Fields(t *testing.T) {
	t.Parallel()

	m, err := tutor.Decode([]byte(`{
		"start_lesson": true,
		"topic": " Photosynthesis ",
		"style": "Visual",
		"difficulty": "advanced",
		"language": "es",
		"age": "12",
		"user_alias": "Ana"
	}`))
	require.NoError(t, err)

	assert.Equal(t, domain.Profile{
		Language: "es",
		Age:      12,
		Alias:    "Ana",
		Level:    "advanced",
		Style:    "Visual",
		Topic:    "Photosynthesis",
	}, m.Profile)

	m, err = tutor.Decode([]byte(`{"frame":"abc","text":"hola","age":9,"level":"beginner","difficulty":"advanced"}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", m.Frame)
	assert.Equal(t, "hola", m.Text)
	assert.Equal(t, 9, m.Profile.Age)
	assert.Equal(t, "beginner", m.Profile.Level, "level wins over difficulty")

	m, err = tutor.Decode([]byte(`{"type":"session_complete","sessionId":"abc123","summary":{"duration":300,"totalChunks":4}}`))
	require.NoError(t, err)
	assert.Equal(t, "abc123", m.SessionID)
	assert.InDelta(t, 300.0, m.Summary["duration"], 1e-9)

	m, err = tutor.Decode([]byte(`{"question":"q","context":[{"role":"user","content":"hi"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []domain.Turn{{Role: "user", Content: "hi"}}, m.Context)
}

func TestDecode_ScalarTolerance(t *testing.T) {
	t.Parallel()

	m, err := tutor.Decode([]byte(`{"start_lesson":true,"topic":"X","level":2,"language":["es"],"style":null}`))
	require.NoError(t, err)
	assert.Equal(t, tutor.KindStartLesson, m.Kind)
	assert.Equal(t, "X", m.Profile.Topic)
	assert.Equal(t, "2", m.Profile.Level)
	assert.Empty(t, m.Profile.Language)
	assert.Empty(t, m.Profile.Style)

	m, err = tutor.Decode([]byte(`{"type":"session_complete","sessionId":"abc123","summary":"done"}`))
	require.NoError(t, err)
	assert.Equal(t, tutor.KindSessionComplete, m.Kind)
	assert.Equal(t, map[string]any{"summary": "done"}, m.Summary)

	m, err = tutor.Decode([]byte(`{"question":"q","context":[{"role":"user","content":42},"junk",{"role":"assistant","content":"ok"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []domain.Turn{{Role: "user", Content: "42"}, {Role: "assistant", Content: "ok"}}, m.Context)
}

func TestDecode_BlockCompleted(t *testing.T) {
	t.Parallel()

	m, err := tutor.Decode([]byte(`{
		"type": "block_completed",
		"topic": "Fractions",
		"content_summary": "Halves",
		"responses": ["1/2", {"q": 1}, null],
		"time_spent": "45",
		"completed_lessons": ["f-1", {"id": "f-2"}, {"title": "no id"}],
		"current_lesson": {"id": "f-3"},
		"available_lessons": ["d-1", {"id": "p-1", "title": "Percent", "topic": "Math"}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, tutor.KindBlockCompleted, m.Kind)
	assert.Equal(t, "Fractions", m.Profile.Topic)
	assert.Equal(t, tutor.BlockProgress{
		Covered:   "Halves",
		Responses: []string{"1/2", `{"q": 1}`},
		TimeSpent: 45 * time.Second,
		Completed: []string{"f-1", "f-2"},
		Current:   "f-3",
		Available: []domain.LessonRef{{ID: "d-1"}, {ID: "p-1", Title: "Percent", Topic: "Math"}},
	}, m.Block)
}

func TestDecode_BadAgeIgnored(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`{"age":"twelve"}`, `{"age":-3}`, `{"age":null}`, `{"age":true}`} {
		m, err := tutor.Decode([]byte(raw))
		require.NoError(t, err, raw)
		assert.Zero(t, m.Profile.Age, raw)
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`not json`, `{"frame":`} {
		_, err := tutor.Decode([]byte(raw))
		require.ErrorIs(t, err, domain.ErrDecode, raw)
		require.NotErrorIs(t, err, domain.ErrMalformed, raw)
	}
	for _, raw := range []string{`[1,2]`, `"text"`, `42`} {
		_, err := tutor.Decode([]byte(raw))
		require.ErrorIs(t, err, domain.ErrDecode, raw)
		require.ErrorIs(t, err, domain.ErrMalformed, raw)
	}
}
