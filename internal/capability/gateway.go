package capability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/kairos/internal/domain"
)

// DefaultTimeout bounds a single provider round trip.
const DefaultTimeout = 20 * time.Second

// Outcome is the result of one gateway call. Value is always usable; when
// FellBack is true it is the capability's fallback and Cause says why.
type Outcome[T any] struct {
	Value    T
	FellBack bool
	Cause    error
}

// Observer receives one notification per gateway call.
type Observer interface {
	ObserveCall(c domain.Capability, elapsed time.Duration, fellBack bool)
}

type Option func(*Gateway)

func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

func WithObserver(o Observer) Option {
	return func(g *Gateway) { g.observer = o }
}

// Gateway wraps a Set so that no call ever returns an error. Provider
// errors, panics, timeouts and invalid outputs are replaced by a
// deterministic per-capability fallback. Calls are never retried.
type Gateway struct {
	set      Set
	timeout  time.Duration
	observer Observer
}

func NewGateway(set Set, opts ...Option) *Gateway {
	g := &Gateway{set: set, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Classify(ctx context.Context, in EmotionInput) Outcome[domain.EmotionObservation] {
	var call func(context.Context) (domain.EmotionObservation, error)
	if g.set.Emotion != nil {
		call = func(ctx context.Context) (domain.EmotionObservation, error) {
			return g.set.Emotion.Classify(ctx, in)
		}
	}
	return invoke(ctx, g, domain.CapabilityEmotion, call,
		func(obs domain.EmotionObservation) (domain.EmotionObservation, error) {
			return checkEmotion(obs, in.Timestamp)
		},
		func() domain.EmotionObservation { return FallbackEmotion(in.Timestamp) },
	)
}

func (g *Gateway) Generate(ctx context.Context, req ContentRequest) Outcome[[]domain.ContentUnit] {
	var call func(context.Context) ([]domain.ContentUnit, error)
	if g.set.Content != nil {
		call = func(ctx context.Context) ([]domain.ContentUnit, error) {
			return g.set.Content.Generate(ctx, req)
		}
	}
	return invoke(ctx, g, domain.CapabilityContent, call, checkContent,
		func() []domain.ContentUnit { return FallbackContent(req) },
	)
}

// Answer is accounted to the content generator.
func (g *Gateway) Answer(ctx context.Context, req AnswerRequest) Outcome[string] {
	var call func(context.Context) (string, error)
	if g.set.Content != nil {
		call = func(ctx context.Context) (string, error) {
			return g.set.Content.Answer(ctx, req)
		}
	}
	return invoke(ctx, g, domain.CapabilityContent, call, checkAnswer,
		func() string { return FallbackAnswer(req.Profile) },
	)
}

func (g *Gateway) Plan(ctx context.Context, req PathRequest) Outcome[domain.LearningPath] {
	var call func(context.Context) (domain.LearningPath, error)
	if g.set.Path != nil {
		call = func(ctx context.Context) (domain.LearningPath, error) {
			return g.set.Path.Plan(ctx, req)
		}
	}
	return invoke(ctx, g, domain.CapabilityPath, call,
		func(p domain.LearningPath) (domain.LearningPath, error) {
			return checkPath(p, req)
		},
		func() domain.LearningPath { return FallbackPath(req) },
	)
}

func (g *Gateway) Summarize(ctx context.Context, req SummaryRequest) Outcome[domain.LessonSummary] {
	var call func(context.Context) (domain.LessonSummary, error)
	if g.set.Assessor != nil {
		call = func(ctx context.Context) (domain.LessonSummary, error) {
			return g.set.Assessor.Summarize(ctx, req)
		}
	}
	return invoke(ctx, g, domain.CapabilityAssessor, call,
		func(s domain.LessonSummary) (domain.LessonSummary, error) {
			return checkSummary(s, req.Profile)
		},
		func() domain.LessonSummary { return FallbackSummary(req.Profile) },
	)
}

func (g *Gateway) Assess(ctx context.Context, req AssessmentRequest) Outcome[domain.SessionAssessment] {
	var call func(context.Context) (domain.SessionAssessment, error)
	if g.set.Assessor != nil {
		call = func(ctx context.Context) (domain.SessionAssessment, error) {
			return g.set.Assessor.Assess(ctx, req)
		}
	}
	return invoke(ctx, g, domain.CapabilityAssessor, call,
		func(a domain.SessionAssessment) (domain.SessionAssessment, error) {
			return checkAssessment(a, req)
		},
		func() domain.SessionAssessment { return FallbackAssessment(req) },
	)
}

func (g *Gateway) Refine(ctx context.Context, req ToneRequest) Outcome[[]string] {
	if len(req.Texts) == 0 {
		return Outcome[[]string]{Value: []string{}}
	}
	var call func(context.Context) ([]string, error)
	if g.set.Tone != nil {
		call = func(ctx context.Context) ([]string, error) {
			return g.set.Tone.Refine(ctx, req)
		}
	}
	return invoke(ctx, g, domain.CapabilityTone, call,
		func(out []string) ([]string, error) {
			return checkTone(out, len(req.Texts))
		},
		func() []string { return FallbackTone(req) },
	)
}

// invoke runs call under the gateway timeout and validates its result.
// Any failure, including a panic in call, yields fallback().
func invoke[T any](
	ctx context.Context,
	g *Gateway,
	c domain.Capability,
	call func(context.Context) (T, error),
	check func(T) (T, error),
	fallback func() T,
) Outcome[T] {
	start := time.Now()

	value, err := run(ctx, g.timeout, call)
	if err == nil {
		value, err = check(value)
	}

	elapsed := time.Since(start)
	if g.observer != nil {
		g.observer.ObserveCall(c, elapsed, err != nil)
	}

	if err != nil {
		log.Warn().Err(err).
			Str("capability", string(c)).
			Dur("duration", elapsed).
			Msg("capability call failed, using fallback")
		return Outcome[T]{Value: fallback(), FellBack: true, Cause: err}
	}

	log.Debug().Str("capability", string(c)).Dur("duration", elapsed).Msg("capability call ok")
	return Outcome[T]{Value: value}
}

type result[T any] struct {
	value T
	err   error
}

// run returns when call does or when ctx ends, whichever comes first, so a
// provider that ignores cancellation cannot stall the session.
func run[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	var zero T
	if call == nil {
		return zero, ErrUnconfigured
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan result[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result[T]{err: fmt.Errorf("capability: panic: %v", r)}
			}
		}()
		v, err := call(ctx)
		done <- result[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return zero, fmt.Errorf("capability: %w", ctx.Err())
	}
}
