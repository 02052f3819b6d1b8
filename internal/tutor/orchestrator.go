// Package tutor coordinates one tutoring session: it decodes inbound
// events, consults the adaptation policy, calls the capability gateway and
// assembles the response to stream back.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/kairos/internal/capability"
	"github.com/gosuda/kairos/internal/domain"
	"github.com/gosuda/kairos/internal/session"
)

// Capabilities is the total call contract the orchestrator depends on.
// *capability.Gateway implements it.
type Capabilities interface {
	Classify(ctx context.Context, in capability.EmotionInput) capability.Outcome[domain.EmotionObservation]
	Generate(ctx context.Context, req capability.ContentRequest) capability.Outcome[[]domain.ContentUnit]
	Answer(ctx context.Context, req capability.AnswerRequest) capability.Outcome[string]
	Plan(ctx context.Context, req capability.PathRequest) capability.Outcome[domain.LearningPath]
	Summarize(ctx context.Context, req capability.SummaryRequest) capability.Outcome[domain.LessonSummary]
	Assess(ctx context.Context, req capability.AssessmentRequest) capability.Outcome[domain.SessionAssessment]
	Refine(ctx context.Context, req capability.ToneRequest) capability.Outcome[[]string]
}

// Phase is the lifecycle state of an Orchestrator.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	}
	return "closed"
}

const (
	DefaultQuestionWindow = 5

	msgInvalidJSON   = "invalid JSON format"
	msgMalformed     = "malformed message"
	msgSessionClosed = "session closed"
	msgReset         = "Session state reset successfully"
)

// Config tunes one orchestrator.
type Config struct {
	Policy              session.Policy
	EmotionRetention    int
	AdaptationRetention int
	TerminationPhrases  []string
	QuestionWindow      int
}

func DefaultConfig() Config {
	return Config{
		Policy:              session.DefaultPolicy(),
		EmotionRetention:    session.DefaultEmotionRetention,
		AdaptationRetention: session.DefaultAdaptationRetention,
		TerminationPhrases:  []string{"terminar", "finish"},
		QuestionWindow:      DefaultQuestionWindow,
	}
}

type Option func(*Orchestrator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator owns the state of one connection. It must be driven by a
// single goroutine; messages are handled strictly one at a time.
type Orchestrator struct {
	id      string
	caps    Capabilities
	cfg     Config
	state   *session.State
	phrases []string
	now     func() time.Time

	phase     Phase
	startedAt time.Time
}

func New(id string, caps Capabilities, cfg Config, opts ...Option) *Orchestrator {
	if cfg.QuestionWindow <= 0 {
		cfg.QuestionWindow = DefaultQuestionWindow
	}
	o := &Orchestrator{
		id:    id,
		caps:  caps,
		cfg:   cfg,
		state: session.NewState(cfg.EmotionRetention, cfg.AdaptationRetention),
		now:   time.Now,
	}
	for _, p := range cfg.TerminationPhrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			o.phrases = append(o.phrases, p)
		}
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) ID() string   { return o.id }
func (o *Orchestrator) Phase() Phase { return o.phase }

// Snapshot returns a copy of the session state.
func (o *Orchestrator) Snapshot() session.Snapshot { return o.state.Load() }

// HandleRaw decodes data and handles it. Malformed payloads produce an
// error response; they never end the session.
func (o *Orchestrator) HandleRaw(ctx context.Context, data []byte) Response {
	msg, err := Decode(data)
	if err != nil {
		log.Debug().Err(err).Str("session_id", o.id).Msg("inbound decode failed")
		if errors.Is(err, domain.ErrMalformed) {
			return Response{Error: msgMalformed}
		}
		return Response{Error: msgInvalidJSON}
	}
	return o.Handle(ctx, msg)
}

// Handle dispatches one decoded message. It never panics on capability
// failure and always returns a well-formed response.
func (o *Orchestrator) Handle(ctx context.Context, msg Message) Response {
	switch o.phase {
	case PhaseClosed:
		log.Debug().Err(domain.ErrSessionClosed).Str("session_id", o.id).Msg("message after close")
		return Response{Error: msgSessionClosed}
	case PhaseIdle:
		o.phase = PhaseActive
		o.startedAt = o.now()
	}

	log.Debug().Str("session_id", o.id).Stringer("kind", msg.Kind).Msg("handling message")

	switch msg.Kind {
	case KindStartLesson:
		return o.handleStartLesson(ctx, msg)
	case KindFrame:
		return o.handleFrame(ctx, msg)
	case KindUserQuestion:
		return o.handleQuestion(ctx, msg)
	case KindSessionComplete:
		return o.handleSessionComplete(ctx, msg)
	case KindBlockCompleted:
		return o.handleBlockCompleted(ctx, msg)
	case KindReset:
		o.state.Reset()
		return Response{Reset: msgReset}
	case KindAnalytics:
		a := o.state.Analytics()
		return Response{Analytics: &a}
	}
	err := unrecognized(msg)
	log.Debug().Err(err).Str("session_id", o.id).Msg("unrecognized message")
	return Response{Error: strings.TrimPrefix(err.Error(), domain.ErrUnrecognized.Error()+": ")}
}

func unrecognized(msg Message) error {
	if msg.Type != "" {
		return fmt.Errorf("%w: unknown message type: %s", domain.ErrUnrecognized, msg.Type)
	}
	return fmt.Errorf("%w: unrecognized message", domain.ErrUnrecognized)
}

func (o *Orchestrator) handleStartLesson(ctx context.Context, msg Message) Response {
	o.state.ApplyStartLesson(msg.Profile)
	profile := o.state.Profile()

	o.state.IncrementUsage(domain.CapabilityPath)
	path := o.caps.Plan(ctx, capability.PathRequest{Profile: profile, Trend: o.state.Analytics()})

	o.state.IncrementUsage(domain.CapabilityContent)
	content := o.caps.Generate(ctx, capability.ContentRequest{Profile: profile})

	units := o.refine(ctx, content.Value, profile, o.currentEmotion())
	return Response{LearningPath: &path.Value, Content: units}
}

func (o *Orchestrator) handleFrame(ctx context.Context, msg Message) Response {
	now := o.now()

	// 1. Classify and record the reading before consulting the policy.
	o.state.IncrementUsage(domain.CapabilityEmotion)
	obs := o.caps.Classify(ctx, capability.EmotionInput{Frame: msg.Frame, Timestamp: now}).Value
	o.state.RecordEmotion(obs)

	decision := o.cfg.Policy.Decide(o.state, obs, now)
	resp := Response{Emotion: &obs}
	if msg.Text == "" {
		return resp
	}

	// 2. Generate content for the learner's text. Preference fields on a
	// frame apply to this turn only.
	profile := o.state.Profile().Overlay(msg.Profile)
	o.state.IncrementUsage(domain.CapabilityContent)
	units := o.caps.Generate(ctx, capability.ContentRequest{
		Profile:  profile,
		Text:     msg.Text,
		Emotion:  obs,
		Escalate: decision.Escalate,
		Strategy: decision.Strategy,
	}).Value

	if decision.Escalate {
		o.state.RecordAdaptation(domain.AdaptationEvent{
			Timestamp: now,
			Emotion:   obs.Emotion,
			Strategy:  decision.Strategy,
			Escalated: true,
		})
		log.Info().
			Str("session_id", o.id).
			Str("emotion", string(obs.Emotion)).
			Str("strategy", string(decision.Strategy)).
			Str("reason", decision.Reason).
			Msg("adaptation committed")
	}

	// 3. Close the lesson when asked; the closing text is refined with the rest.
	if o.terminates(msg.Text) {
		o.state.IncrementUsage(domain.CapabilityAssessor)
		summary := o.caps.Summarize(ctx, capability.SummaryRequest{
			Profile:  profile,
			Text:     msg.Text,
			Emotions: o.state.Emotions(),
		}).Value
		units = append(units, domain.TextUnit(summary.ClosingMessage))
		resp.LessonSummary = &summary
	}

	resp.Content = o.refine(ctx, units, profile, obs.Emotion)
	return resp
}

func (o *Orchestrator) handleQuestion(ctx context.Context, msg Message) Response {
	window := msg.Context
	if n := len(window) - o.cfg.QuestionWindow; n > 0 {
		window = window[n:]
	}

	o.state.IncrementUsage(domain.CapabilityContent)
	answer := o.caps.Answer(ctx, capability.AnswerRequest{
		Question: msg.Question,
		Context:  window,
		Profile:  o.state.Profile().Overlay(msg.Profile),
	})
	return Response{Content: []domain.ContentUnit{domain.TutorAnswerUnit(answer.Value)}}
}

func (o *Orchestrator) handleSessionComplete(ctx context.Context, msg Message) Response {
	id := msg.SessionID
	if id == "" {
		id = o.id
	}

	o.state.IncrementUsage(domain.CapabilityAssessor)
	a := o.caps.Assess(ctx, capability.AssessmentRequest{
		SessionID: id,
		Summary:   msg.Summary,
		Usage:     o.state.Usage(),
		Emotions:  o.state.Emotions(),
		Profile:   o.state.Profile(),
	}).Value
	return Response{Assessment: &a}
}

// handleBlockCompleted assesses the finished block against the emotions
// seen so far and, when lessons are offered, asks the planner for the next.
func (o *Orchestrator) handleBlockCompleted(ctx context.Context, msg Message) Response {
	profile := o.state.Profile().Overlay(msg.Profile)

	o.state.IncrementUsage(domain.CapabilityAssessor)
	a := o.caps.Assess(ctx, capability.AssessmentRequest{
		SessionID: o.id,
		Usage:     o.state.Usage(),
		Emotions:  o.state.Emotions(),
		Profile:   profile,
		Covered:   msg.Block.Covered,
		Responses: msg.Block.Responses,
		TimeSpent: msg.Block.TimeSpent,
	}).Value

	result := &BlockResult{Assessment: a}
	if len(msg.Block.Available) > 0 {
		o.state.IncrementUsage(domain.CapabilityPath)
		path := o.caps.Plan(ctx, capability.PathRequest{
			Profile:   profile,
			Trend:     o.state.Analytics(),
			Completed: msg.Block.Completed,
			Current:   msg.Block.Current,
			Available: msg.Block.Available,
		}).Value
		result.NextLesson = path.NextLesson
	}
	return Response{Block: result}
}

// refine passes the text units through the tone refiner in one call and
// leaves every other unit untouched.
func (o *Orchestrator) refine(ctx context.Context, units []domain.ContentUnit, p domain.Profile, e domain.Emotion) []domain.ContentUnit {
	var idx []int
	var texts []string
	for i, u := range units {
		if u.Type == domain.ContentText {
			idx = append(idx, i)
			texts = append(texts, u.Content)
		}
	}
	if len(idx) == 0 {
		return units
	}

	o.state.IncrementUsage(domain.CapabilityTone)
	refined := o.caps.Refine(ctx, capability.ToneRequest{Texts: texts, Profile: p, Emotion: e}).Value

	out := make([]domain.ContentUnit, len(units))
	copy(out, units)
	for j, i := range idx {
		out[i].Content = refined[j]
	}
	return out
}

func (o *Orchestrator) terminates(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range o.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) currentEmotion() domain.Emotion {
	if tail := o.state.EmotionTail(1); len(tail) == 1 {
		return tail[0].Emotion
	}
	return domain.EmotionNeutral
}

// Report summarizes a closed session.
type Report struct {
	SessionID string
	Profile   domain.Profile
	Analytics domain.Analytics
	Usage     map[domain.Capability]int
	StartedAt time.Time
	EndedAt   time.Time
}

// Close ends the session and reports its analytics. Later calls to Handle
// answer with an error; Close itself is idempotent.
func (o *Orchestrator) Close() Report {
	r := Report{
		SessionID: o.id,
		Profile:   o.state.Profile(),
		Analytics: o.state.Analytics(),
		Usage:     o.state.Usage(),
		StartedAt: o.startedAt,
		EndedAt:   o.now(),
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = r.EndedAt
	}
	o.phase = PhaseClosed
	return r
}
