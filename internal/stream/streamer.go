// Package stream delivers tutor responses to a client one message at a
// time, pacing lesson content so it can be read as it arrives.
package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gosuda/kairos/internal/domain"
	"github.com/gosuda/kairos/internal/tutor"
)

// ErrAborted is returned when the client went away mid-delivery.
var ErrAborted = errors.New("stream: delivery aborted") //nolint:gochecknoglobals // sentinel error

const (
	wordsPerSecond     = 3.0
	minTextDelay       = 2 * time.Second
	maxTextDelay       = 8 * time.Second
	maxAnswerDelay     = 10 * time.Second
	mediaDelay         = 2 * time.Second
	defaultDelay       = 1500 * time.Millisecond
	DefaultPacingScale = 1.0
)

// Sink is the transport side of a connection.
type Sink interface {
	Send(ctx context.Context, msg Message) error
	Alive() bool
}

// Sleeper pauses for d or until ctx ends.
type Sleeper func(ctx context.Context, d time.Duration) error

// Observer is notified of delivered units and aborted deliveries.
type Observer interface {
	ObserveUnit(t domain.ContentType)
	ObserveAbort()
}

type Option func(*Streamer)

// WithPacingScale multiplies every delay. Zero disables pacing.
func WithPacingScale(scale float64) Option {
	return func(s *Streamer) { s.scale = max(scale, 0) }
}

func WithSleeper(fn Sleeper) Option {
	return func(s *Streamer) { s.sleep = fn }
}

func WithObserver(o Observer) Option {
	return func(s *Streamer) { s.observer = o }
}

type Streamer struct {
	scale    float64
	sleep    Sleeper
	observer Observer
}

func New(opts ...Option) *Streamer {
	s := &Streamer{scale: DefaultPacingScale, sleep: sleepCtx}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delay is the reading time granted after u before the next unit.
func Delay(u domain.ContentUnit) time.Duration {
	switch u.Type {
	case domain.ContentText:
		return readingTime(u.WordCount(), maxTextDelay)
	case domain.ContentTutorAnswer:
		return readingTime(u.WordCount(), maxAnswerDelay)
	case domain.ContentImagePrompt, domain.ContentVideoURL:
		return mediaDelay
	}
	return defaultDelay
}

func readingTime(words int, ceiling time.Duration) time.Duration {
	d := time.Duration(float64(words) / wordsPerSecond * float64(time.Second))
	return min(max(d, minTextDelay), ceiling)
}

// Deliver sends resp to sink in order and returns how many messages were
// sent. Liveness is checked before every send; a closed sink stops the
// delivery with ErrAborted. There is no pause after the last content unit.
func (s *Streamer) Deliver(ctx context.Context, sink Sink, resp tutor.Response) (int, error) {
	frames := Frames(resp)
	last := lastContentIndex(frames)

	for i, msg := range frames {
		if !sink.Alive() {
			return i, s.abort(nil)
		}
		if err := sink.Send(ctx, msg); err != nil {
			return i, s.abort(err)
		}
		if msg.Type != TypeLessonContent {
			continue
		}
		if s.observer != nil {
			s.observer.ObserveUnit(msg.Content[0].Type)
		}
		if i == last || s.scale == 0 {
			continue
		}
		pause := time.Duration(float64(Delay(msg.Content[0])) * s.scale)
		if err := s.sleep(ctx, pause); err != nil {
			return i + 1, s.abort(err)
		}
	}
	return len(frames), nil
}

func (s *Streamer) abort(cause error) error {
	if s.observer != nil {
		s.observer.ObserveAbort()
	}
	if cause == nil {
		return ErrAborted
	}
	return fmt.Errorf("%w: %w", ErrAborted, cause)
}

func lastContentIndex(frames []Message) int {
	last := -1
	for i, m := range frames {
		if m.Type == TypeLessonContent {
			last = i
		}
	}
	return last
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
