package stream_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/kairos/internal/domain"
	"github.com/gosuda/kairos/internal/stream"
	"github.com/gosuda/kairos/internal/tutor"
)

// --- fakes ---

// fakeSink records messages and can be closed after a number of sends.
type fakeSink struct {
	mu        sync.Mutex
	sent      []stream.Message
	closeAt   int // close after this many sends; 0 never
	sendErr   error
	closed    bool
	aliveHits int
}

func (f *fakeSink) Send(_ context.Context, msg stream.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	if f.closeAt > 0 && len(f.sent) >= f.closeAt {
		f.closed = true
	}
	return nil
}

func (f *fakeSink) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aliveHits++
	return !f.closed
}

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

// ---------------------------------------------------------------------------
// Delay
// ---------------------------------------------------------------------------

func TestDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		unit domain.ContentUnit
		want time.Duration
	}{
		{"short text floors at 2s", domain.TextUnit(words(3)), 2 * time.Second},
		{"text 15 words", domain.TextUnit(words(15)), 5 * time.Second},
		{"long text caps at 8s", domain.TextUnit(words(60)), 8 * time.Second},
		{"long answer caps at 10s", domain.TutorAnswerUnit(words(60)), 10 * time.Second},
		{"answer 27 words", domain.TutorAnswerUnit(words(27)), 9 * time.Second},
		{"image", domain.ImagePromptUnit("leaf", "https://i", "alt"), 2 * time.Second},
		{"video", domain.VideoUnit("https://v", "clip"), 2 * time.Second},
		{"unknown", domain.ContentUnit{Type: "quiz", Content: "q"}, 1500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, stream.Delay(tt.unit))
		})
	}
}

// ---------------------------------------------------------------------------
// Framing
// ---------------------------------------------------------------------------

func TestFrames_Order(t *testing.T) {
	t.Parallel()

	emo := &domain.EmotionObservation{Emotion: domain.EmotionEngaged, Confidence: 0.9}
	resp := tutor.Response{
		Emotion:       emo,
		LearningPath:  &domain.LearningPath{Topic: "Gravity", Nodes: []domain.PathNode{{ID: 1}}},
		Content:       []domain.ContentUnit{domain.TextUnit("a"), domain.TextUnit("b")},
		LessonSummary: &domain.LessonSummary{ClosingMessage: "bye"},
	}

	frames := stream.Frames(resp)

	require.Len(t, frames, 4)
	assert.Equal(t, stream.TypeLearningPath, frames[0].Type)
	assert.Equal(t, stream.TypeLessonContent, frames[1].Type)
	assert.Same(t, emo, frames[1].Emotion)
	assert.Nil(t, frames[2].Emotion, "emotion rides only on the first unit")
	assert.Equal(t, "b", frames[2].Content[0].Content)
	assert.Equal(t, stream.TypeLessonSummary, frames[3].Type)
}

func TestFrames_EmotionAlone(t *testing.T) {
	t.Parallel()

	frames := stream.Frames(tutor.Response{Emotion: &domain.EmotionObservation{Emotion: domain.EmotionBored}})

	require.Len(t, frames, 1)
	assert.Equal(t, stream.TypeEmotionResult, frames[0].Type)
}

func TestFrames_AssessmentAndError(t *testing.T) {
	t.Parallel()

	frames := stream.Frames(tutor.Response{
		Assessment: &domain.SessionAssessment{SessionID: "abc123"},
	})
	require.Len(t, frames, 1)
	assert.Equal(t, stream.TypeSessionAssessment, frames[0].Type)
	assert.Equal(t, "abc123", frames[0].SessionID)

	frames = stream.Frames(tutor.Response{Error: "invalid JSON format"})
	require.Len(t, frames, 1)
	assert.Equal(t, stream.ErrorMessage("invalid JSON format"), frames[0])
}

func TestFrames_BlockResult(t *testing.T) {
	t.Parallel()

	next := &domain.LessonRef{ID: "decimals-1", Title: "Decimals"}
	frames := stream.Frames(tutor.Response{Block: &tutor.BlockResult{
		Assessment: domain.SessionAssessment{SessionID: "sess-1"},
		NextLesson: next,
	}})

	require.Len(t, frames, 1)
	assert.Equal(t, stream.TypeBlockCompletedResult, frames[0].Type)
	assert.Equal(t, "sess-1", frames[0].SessionID)
	require.NotNil(t, frames[0].Assessment)
	assert.Equal(t, next, frames[0].NextLesson)
}

// ---------------------------------------------------------------------------
// Deliver
// ---------------------------------------------------------------------------

func TestDeliver_OrderAndPacing(t *testing.T) {
	t.Parallel()

	sleeper := &recordingSleeper{}
	s := stream.New(stream.WithSleeper(sleeper.Sleep))
	sink := &fakeSink{}

	units := []domain.ContentUnit{
		domain.TextUnit(words(15)),
		domain.ImagePromptUnit("leaf", "https://i", "alt"),
		domain.TutorAnswerUnit(words(3)),
		domain.TextUnit("last"),
	}
	n, err := s.Deliver(context.Background(), sink, tutor.Response{Content: units})

	require.NoError(t, err)
	assert.Equal(t, len(units), n)
	require.Len(t, sink.sent, len(units))
	for i, m := range sink.sent {
		assert.Equal(t, units[i], m.Content[0], "unit %d out of order", i)
	}
	// No pause after the final unit.
	assert.Equal(t, []time.Duration{5 * time.Second, 2 * time.Second, 2 * time.Second}, sleeper.delays)
	assert.Equal(t, len(units), sink.aliveHits)
}

func TestDeliver_PacingScale(t *testing.T) {
	t.Parallel()

	sleeper := &recordingSleeper{}
	s := stream.New(stream.WithSleeper(sleeper.Sleep), stream.WithPacingScale(0.5))

	_, err := s.Deliver(context.Background(), &fakeSink{}, tutor.Response{
		Content: []domain.ContentUnit{domain.TextUnit(words(15)), domain.TextUnit("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2500 * time.Millisecond}, sleeper.delays)

	sleeper.delays = nil
	s = stream.New(stream.WithSleeper(sleeper.Sleep), stream.WithPacingScale(0))
	_, err = s.Deliver(context.Background(), &fakeSink{}, tutor.Response{
		Content: []domain.ContentUnit{domain.TextUnit("a"), domain.TextUnit("b")},
	})
	require.NoError(t, err)
	assert.Empty(t, sleeper.delays)
}

func TestDeliver_AbortsWhenSinkCloses(t *testing.T) {
	t.Parallel()

	s := stream.New(stream.WithPacingScale(0))
	sink := &fakeSink{closeAt: 2}

	units := []domain.ContentUnit{domain.TextUnit("a"), domain.TextUnit("b"), domain.TextUnit("c"), domain.TextUnit("d")}
	n, err := s.Deliver(context.Background(), sink, tutor.Response{Content: units})

	require.ErrorIs(t, err, stream.ErrAborted)
	assert.Equal(t, 2, n)
	assert.Len(t, sink.sent, 2)
}

func TestDeliver_SendError(t *testing.T) {
	t.Parallel()

	boom := errors.New("broken pipe")
	s := stream.New()

	n, err := s.Deliver(context.Background(), &fakeSink{sendErr: boom}, tutor.Response{Error: "x"})

	require.ErrorIs(t, err, stream.ErrAborted)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, n)
}

func TestDeliver_ContextCancelledDuringPause(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := stream.New() // real sleeper
	sink := &fakeSink{}

	done := make(chan error, 1)
	go func() {
		_, err := s.Deliver(ctx, sink, tutor.Response{
			Content: []domain.ContentUnit{domain.TextUnit("a"), domain.TextUnit("b")},
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, stream.ErrAborted)
	case <-time.After(5 * time.Second):
		t.Fatal("delivery did not stop after cancellation")
	}
}
