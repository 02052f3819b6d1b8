package capability_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/kairos/internal/capability"
	"github.com/gosuda/kairos/internal/domain"
)

// --- func-field fakes ---

type fakeEmotion struct {
	classifyFn func(context.Context, capability.EmotionInput) (domain.EmotionObservation, error)
}

func (f *fakeEmotion) Classify(ctx context.Context, in capability.EmotionInput) (domain.EmotionObservation, error) {
	return f.classifyFn(ctx, in)
}

type fakeContent struct {
	generateFn func(context.Context, capability.ContentRequest) ([]domain.ContentUnit, error)
	answerFn   func(context.Context, capability.AnswerRequest) (string, error)
}

func (f *fakeContent) Generate(ctx context.Context, req capability.ContentRequest) ([]domain.ContentUnit, error) {
	return f.generateFn(ctx, req)
}

func (f *fakeContent) Answer(ctx context.Context, req capability.AnswerRequest) (string, error) {
	return f.answerFn(ctx, req)
}

type fakePath struct {
	planFn func(context.Context, capability.PathRequest) (domain.LearningPath, error)
}

func (f *fakePath) Plan(ctx context.Context, req capability.PathRequest) (domain.LearningPath, error) {
	return f.planFn(ctx, req)
}

type fakeAssessor struct {
	summarizeFn func(context.Context, capability.SummaryRequest) (domain.LessonSummary, error)
	assessFn    func(context.Context, capability.AssessmentRequest) (domain.SessionAssessment, error)
}

func (f *fakeAssessor) Summarize(ctx context.Context, req capability.SummaryRequest) (domain.LessonSummary, error) {
	return f.summarizeFn(ctx, req)
}

func (f *fakeAssessor) Assess(ctx context.Context, req capability.AssessmentRequest) (domain.SessionAssessment, error) {
	return f.assessFn(ctx, req)
}

type fakeTone struct {
	refineFn func(context.Context, capability.ToneRequest) ([]string, error)
}

func (f *fakeTone) Refine(ctx context.Context, req capability.ToneRequest) ([]string, error) {
	return f.refineFn(ctx, req)
}

type recordingObserver struct {
	mu    sync.Mutex
	calls map[domain.Capability][]bool
}

func (o *recordingObserver) ObserveCall(c domain.Capability, _ time.Duration, fellBack bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.calls == nil {
		o.calls = make(map[domain.Capability][]bool)
	}
	o.calls[c] = append(o.calls[c], fellBack)
}

func ptr(v int) *int { return &v }

var errProvider = errors.New("provider down")

// ---------------------------------------------------------------------------
// Emotion classifier
// ---------------------------------------------------------------------------

func TestGateway_Classify(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		result   domain.EmotionObservation
		err      error
		fellBack bool
	}{
		{"valid", domain.EmotionObservation{Emotion: domain.EmotionBored, Confidence: 0.8, AttentionLevel: ptr(6)}, nil, false},
		{"provider error", domain.EmotionObservation{}, errProvider, true},
		{"unknown label", domain.EmotionObservation{Emotion: "sleepy", Confidence: 0.8}, nil, true},
		{"confidence out of range", domain.EmotionObservation{Emotion: domain.EmotionBored, Confidence: 1.5}, nil, true},
		{"attention out of range", domain.EmotionObservation{Emotion: domain.EmotionBored, Confidence: 0.5, AttentionLevel: ptr(11)}, nil, true},
		{"stress out of range", domain.EmotionObservation{Emotion: domain.EmotionBored, Confidence: 0.5, StressLevel: ptr(0)}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := capability.NewGateway(capability.Set{Emotion: &fakeEmotion{
				classifyFn: func(context.Context, capability.EmotionInput) (domain.EmotionObservation, error) {
					return tt.result, tt.err
				},
			}})

			out := g.Classify(context.Background(), capability.EmotionInput{Frame: "abc", Timestamp: at})

			assert.Equal(t, tt.fellBack, out.FellBack)
			assert.Equal(t, at, out.Value.Timestamp)
			if tt.fellBack {
				require.Error(t, out.Cause)
				assert.Equal(t, capability.FallbackEmotion(at), out.Value)
			} else {
				require.NoError(t, out.Cause)
				assert.Equal(t, domain.EmotionBored, out.Value.Emotion)
			}
		})
	}
}

func TestGateway_Unconfigured(t *testing.T) {
	t.Parallel()

	g := capability.NewGateway(capability.Set{})
	profile := domain.Profile{Language: "es", Topic: "Fotosíntesis"}

	emo := g.Classify(context.Background(), capability.EmotionInput{})
	assert.True(t, emo.FellBack)
	require.ErrorIs(t, emo.Cause, capability.ErrUnconfigured)
	assert.Equal(t, domain.EmotionNeutral, emo.Value.Emotion)
	assert.Zero(t, emo.Value.Confidence)

	content := g.Generate(context.Background(), capability.ContentRequest{Profile: profile})
	assert.True(t, content.FellBack)
	require.Len(t, content.Value, 1)
	assert.Equal(t, domain.ContentText, content.Value[0].Type)
	assert.Contains(t, content.Value[0].Content, "Fotosíntesis")

	path := g.Plan(context.Background(), capability.PathRequest{Profile: profile})
	assert.True(t, path.FellBack)
	assert.Equal(t, "Fotosíntesis", path.Value.Topic)
	require.Len(t, path.Value.Nodes, 1)

	summary := g.Summarize(context.Background(), capability.SummaryRequest{Profile: profile})
	assert.True(t, summary.FellBack)
	assert.NotEmpty(t, summary.Value.ClosingMessage)

	answer := g.Answer(context.Background(), capability.AnswerRequest{Profile: profile})
	assert.True(t, answer.FellBack)
	assert.NotEmpty(t, answer.Value)
}

// ---------------------------------------------------------------------------
// Failure isolation
// ---------------------------------------------------------------------------

func TestGateway_RecoversPanic(t *testing.T) {
	t.Parallel()

	g := capability.NewGateway(capability.Set{Path: &fakePath{
		planFn: func(context.Context, capability.PathRequest) (domain.LearningPath, error) {
			panic("nil map write")
		},
	}})

	out := g.Plan(context.Background(), capability.PathRequest{Profile: domain.Profile{Topic: "Gravity"}})

	assert.True(t, out.FellBack)
	require.Error(t, out.Cause)
	assert.Contains(t, out.Cause.Error(), "panic")
	assert.Equal(t, capability.FallbackPath(capability.PathRequest{Profile: domain.Profile{Topic: "Gravity"}}), out.Value)
}

func TestGateway_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	g := capability.NewGateway(capability.Set{Content: &fakeContent{
		generateFn: func(context.Context, capability.ContentRequest) ([]domain.ContentUnit, error) {
			<-release // ignores cancellation
			return nil, nil
		},
	}}, capability.WithTimeout(20*time.Millisecond))

	start := time.Now()
	out := g.Generate(context.Background(), capability.ContentRequest{})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, out.FellBack)
	require.ErrorIs(t, out.Cause, context.DeadlineExceeded)
}

func TestGateway_ObserverSeesEveryCall(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	g := capability.NewGateway(capability.Set{Tone: &fakeTone{
		refineFn: func(_ context.Context, req capability.ToneRequest) ([]string, error) {
			if req.Texts[0] == "fail" {
				return nil, errProvider
			}
			return req.Texts, nil
		},
	}}, capability.WithObserver(obs))

	g.Refine(context.Background(), capability.ToneRequest{Texts: []string{"ok"}})
	g.Refine(context.Background(), capability.ToneRequest{Texts: []string{"fail"}})

	assert.Equal(t, []bool{false, true}, obs.calls[domain.CapabilityTone])
}

// ---------------------------------------------------------------------------
// Output validation
// ---------------------------------------------------------------------------

func TestGateway_Plan_NextLesson(t *testing.T) {
	t.Parallel()

	available := []domain.LessonRef{
		{ID: "fractions-2", Title: "Comparing fractions"},
		{ID: "decimals-1", Title: "Decimals"},
	}

	tests := []struct {
		name      string
		next      *domain.LessonRef
		available []domain.LessonRef
		want      *domain.LessonRef
	}{
		{"picks offered lesson", &domain.LessonRef{ID: "decimals-1"}, available, &available[1]},
		{"unknown id defaults to first", &domain.LessonRef{ID: "geometry"}, available, &available[0]},
		{"missing choice defaults to first", nil, available, &available[0]},
		{"nothing offered clears choice", &domain.LessonRef{ID: "decimals-1"}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := capability.NewGateway(capability.Set{Path: &fakePath{
				planFn: func(context.Context, capability.PathRequest) (domain.LearningPath, error) {
					return domain.LearningPath{
						Topic:      "Fractions",
						Nodes:      []domain.PathNode{{ID: 1, Title: "Halves", Status: "active"}},
						NextLesson: tt.next,
					}, nil
				},
			}})

			out := g.Plan(context.Background(), capability.PathRequest{Available: tt.available})

			assert.False(t, out.FellBack)
			assert.Equal(t, tt.want, out.Value.NextLesson)
		})
	}
}

func TestGateway_Plan_Count(t *testing.T) {
	t.Parallel()

	nodes := make([]domain.PathNode, 8)
	for i := range nodes {
		nodes[i] = domain.PathNode{ID: i + 1, Title: "step", Status: "locked"}
	}
	g := capability.NewGateway(capability.Set{Path: &fakePath{
		planFn: func(context.Context, capability.PathRequest) (domain.LearningPath, error) {
			return domain.LearningPath{Topic: "Fractions", Nodes: nodes}, nil
		},
	}})

	out := g.Plan(context.Background(), capability.PathRequest{Count: 3})
	assert.Len(t, out.Value.Nodes, 3)

	fallback := capability.NewGateway(capability.Set{}).Plan(context.Background(), capability.PathRequest{
		Profile:   domain.Profile{Topic: "Fracciones", Language: "es"},
		Count:     4,
		Available: []domain.LessonRef{{ID: "next"}},
	})
	assert.True(t, fallback.FellBack)
	require.Len(t, fallback.Value.Nodes, 4)
	assert.Equal(t, "active", fallback.Value.Nodes[0].Status)
	assert.Equal(t, "Fracciones: Parte 4", fallback.Value.Nodes[3].Title)
	require.NotNil(t, fallback.Value.NextLesson)
	assert.Equal(t, "next", fallback.Value.NextLesson.ID)
}

func TestGateway_Generate_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		units    []domain.ContentUnit
		fellBack bool
	}{
		{"valid mixed", []domain.ContentUnit{domain.TextUnit("a"), domain.ImagePromptUnit("leaf", "https://i", "alt")}, false},
		{"empty list", nil, true},
		{"blank unit", []domain.ContentUnit{domain.TextUnit("a"), domain.TextUnit(" ")}, true},
		{"unknown type", []domain.ContentUnit{{Type: "quiz", Content: "q"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := capability.NewGateway(capability.Set{Content: &fakeContent{
				generateFn: func(context.Context, capability.ContentRequest) ([]domain.ContentUnit, error) {
					return tt.units, nil
				},
			}})

			out := g.Generate(context.Background(), capability.ContentRequest{})
			assert.Equal(t, tt.fellBack, out.FellBack)
			if tt.fellBack {
				require.ErrorIs(t, out.Cause, capability.ErrInvalidOutput)
			} else {
				assert.Equal(t, tt.units, out.Value)
			}
		})
	}
}

func TestGateway_Answer_TruncatesTo100Words(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 150)
	g := capability.NewGateway(capability.Set{Content: &fakeContent{
		answerFn: func(context.Context, capability.AnswerRequest) (string, error) {
			return long, nil
		},
	}})

	out := g.Answer(context.Background(), capability.AnswerRequest{Question: "?"})

	assert.False(t, out.FellBack)
	assert.Len(t, strings.Fields(out.Value), capability.MaxAnswerWords)
}

func TestGateway_Refine(t *testing.T) {
	t.Parallel()

	t.Run("length mismatch falls back to identity", func(t *testing.T) {
		t.Parallel()

		g := capability.NewGateway(capability.Set{Tone: &fakeTone{
			refineFn: func(context.Context, capability.ToneRequest) ([]string, error) {
				return []string{"only one"}, nil
			},
		}})

		in := []string{"first", "second"}
		out := g.Refine(context.Background(), capability.ToneRequest{Texts: in})

		assert.True(t, out.FellBack)
		assert.Equal(t, in, out.Value)
	})

	t.Run("empty input skips the call", func(t *testing.T) {
		t.Parallel()

		g := capability.NewGateway(capability.Set{Tone: &fakeTone{
			refineFn: func(context.Context, capability.ToneRequest) ([]string, error) {
				t.Fatal("refiner must not be called")
				return nil, nil
			},
		}})

		out := g.Refine(context.Background(), capability.ToneRequest{})
		assert.False(t, out.FellBack)
		assert.Empty(t, out.Value)
	})
}

func TestGateway_Assess(t *testing.T) {
	t.Parallel()

	usage := map[domain.Capability]int{domain.CapabilityEmotion: 4, domain.CapabilityAssessor: 1}
	req := capability.AssessmentRequest{
		SessionID: "abc123",
		Summary:   map[string]any{"duration": 600, "questionsAsked": 2},
		Usage:     usage,
	}

	t.Run("success pins session and usage", func(t *testing.T) {
		t.Parallel()

		g := capability.NewGateway(capability.Set{Assessor: &fakeAssessor{
			assessFn: func(context.Context, capability.AssessmentRequest) (domain.SessionAssessment, error) {
				return domain.SessionAssessment{SessionID: "other", ComprehensionScore: ptr(82)}, nil
			},
		}})

		out := g.Assess(context.Background(), req)
		assert.False(t, out.FellBack)
		assert.Equal(t, "abc123", out.Value.SessionID)
		assert.Equal(t, usage, out.Value.Usage)
		assert.Equal(t, 82, *out.Value.ComprehensionScore)
	})

	t.Run("score out of range falls back to stats echo", func(t *testing.T) {
		t.Parallel()

		g := capability.NewGateway(capability.Set{Assessor: &fakeAssessor{
			assessFn: func(context.Context, capability.AssessmentRequest) (domain.SessionAssessment, error) {
				return domain.SessionAssessment{ComprehensionScore: ptr(140)}, nil
			},
		}})

		out := g.Assess(context.Background(), req)
		assert.True(t, out.FellBack)
		assert.Nil(t, out.Value.ComprehensionScore)
		assert.Equal(t, "abc123", out.Value.SessionID)
		assert.Equal(t, req.Summary, out.Value.Stats)
		assert.Equal(t, usage, out.Value.Usage)
	})
}
