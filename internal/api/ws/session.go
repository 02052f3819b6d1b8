package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gosuda/kairos/internal/domain"
	"github.com/gosuda/kairos/internal/server/middleware"
	"github.com/gosuda/kairos/internal/stream"
	"github.com/gosuda/kairos/internal/tutor"
)

const (
	DefaultQueueSize = 16
	// Frames carry base64 camera images.
	DefaultReadLimit = 8 << 20

	writeTimeout  = 10 * time.Second
	finishTimeout = 5 * time.Second
)

// OrchestratorFactory builds the orchestrator for a new session.
type OrchestratorFactory func(sessionID string) *tutor.Orchestrator

// Recorder persists end-of-session records.
type Recorder interface {
	Save(ctx context.Context, rec *domain.SessionRecord) error
}

// Mirror receives a copy of every outbound message.
type Mirror interface {
	Mirror(ctx context.Context, sessionID uuid.UUID, msg stream.Message) error
}

// Tracker counts open sessions.
type Tracker interface {
	SessionOpened()
	SessionClosed(a domain.Analytics)
}

type SessionOption func(*SessionHandler)

func WithRecorder(r Recorder) SessionOption {
	return func(h *SessionHandler) { h.recorder = r }
}

func WithMirror(m Mirror) SessionOption {
	return func(h *SessionHandler) { h.mirror = m }
}

func WithTracker(t Tracker) SessionOption {
	return func(h *SessionHandler) { h.tracker = t }
}

// WithQueueSize bounds the inbound messages buffered while the previous one
// is still being processed. The reader blocks when the queue is full.
func WithQueueSize(n int) SessionOption {
	return func(h *SessionHandler) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

func WithReadLimit(n int64) SessionOption {
	return func(h *SessionHandler) {
		if n > 0 {
			h.readLimit = n
		}
	}
}

func WithOriginPatterns(patterns []string) SessionOption {
	return func(h *SessionHandler) { h.originPatterns = patterns }
}

// SessionHandler serves tutoring sessions, one orchestrator per connection.
type SessionHandler struct {
	newOrchestrator OrchestratorFactory
	streamer        *stream.Streamer
	recorder        Recorder
	mirror          Mirror
	tracker         Tracker
	queueSize       int
	readLimit       int64
	originPatterns  []string
}

func NewSessionHandler(factory OrchestratorFactory, streamer *stream.Streamer, opts ...SessionOption) *SessionHandler {
	h := &SessionHandler{
		newOrchestrator: factory,
		streamer:        streamer,
		queueSize:       DefaultQueueSize,
		readLimit:       DefaultReadLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeSession upgrades the request and runs the session until the client
// disconnects. The optional {sessionID} URL parameter resumes an id chosen
// by the client; otherwise a new one is assigned.
func (h *SessionHandler) ServeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.New()
	if raw := chi.URLParam(r, "sessionID"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}
		sessionID = parsed
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(h.readLimit)

	learner, _ := middleware.LearnerFromContext(r.Context())
	logger := log.With().Str("session_id", sessionID.String()).Str("learner", learner).Logger()
	logger.Info().Msg("session connected")

	if h.tracker != nil {
		h.tracker.SessionOpened()
	}

	orch := h.newOrchestrator(sessionID.String())
	sink := newConnSink(conn, sessionID, h.mirror)

	err = h.run(r.Context(), conn, sink, orch)

	report := orch.Close()
	h.finish(report, sessionID)

	switch {
	case err == nil, isClientClose(err):
		logger.Info().Dur("duration", report.EndedAt.Sub(report.StartedAt)).Msg("session closed")
		_ = conn.Close(websocket.StatusNormalClosure, "")
	case errors.Is(err, stream.ErrAborted), errors.Is(err, context.Canceled):
		logger.Debug().Err(err).Msg("session aborted")
	default:
		logger.Warn().Err(err).Msg("session ended with error")
		_ = conn.Close(websocket.StatusInternalError, "internal error")
	}
}

// run is the connection actor: a reader feeding a bounded FIFO queue and a
// processor that handles one message at a time. The processor is the only
// goroutine touching orch.
func (h *SessionHandler) run(ctx context.Context, conn *websocket.Conn, sink *connSink, orch *tutor.Orchestrator) error {
	if err := sink.Send(ctx, stream.Welcome(orch.ID())); err != nil {
		return err
	}

	inbound := make(chan []byte, h.queueSize)
	g, gctx := errgroup.WithContext(ctx)

	// 1. Reader: pull frames off the socket in arrival order.
	g.Go(func() error {
		defer close(inbound)
		for {
			_, data, err := conn.Read(gctx)
			if err != nil {
				sink.markClosed()
				return fmt.Errorf("ws.SessionHandler.read: %w", err)
			}
			select {
			case inbound <- data:
			case <-gctx.Done():
				return nil
			}
		}
	})

	// 2. Processor: handle and deliver each message before taking the next.
	g.Go(func() error {
		for data := range inbound {
			resp := orch.HandleRaw(gctx, data)
			if _, err := h.streamer.Deliver(gctx, sink, resp); err != nil {
				return fmt.Errorf("ws.SessionHandler.deliver: %w", err)
			}
		}
		return nil
	})

	return g.Wait()
}

// finish records the closed session. It runs after the request context is
// gone, so it gets its own deadline.
func (h *SessionHandler) finish(report tutor.Report, sessionID uuid.UUID) {
	if h.tracker != nil {
		h.tracker.SessionClosed(report.Analytics)
	}

	rec := &domain.SessionRecord{
		ID:        uuid.New(),
		SessionID: sessionID,
		Topic:     report.Profile.Topic,
		Language:  report.Profile.Language,
		Analytics: report.Analytics,
		Usage:     report.Usage,
		StartedAt: report.StartedAt,
		EndedAt:   report.EndedAt,
	}

	if h.recorder == nil {
		log.Info().
			Str("session_id", sessionID.String()).
			Int("detections", rec.Analytics.TotalDetections).
			Int("adaptations", rec.Analytics.TotalAdaptations).
			Float64("engagement_rate", rec.Analytics.EngagementRate).
			Msg("session analytics")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()
	if err := h.recorder.Save(ctx, rec); err != nil {
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("save session record")
	}
}

func isClientClose(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway, websocket.StatusNoStatusRcvd:
		return true
	}
	return false
}

// connSink adapts a websocket connection to stream.Sink.
type connSink struct {
	conn      *websocket.Conn
	sessionID uuid.UUID
	mirror    Mirror
	closed    atomic.Bool
}

func newConnSink(conn *websocket.Conn, sessionID uuid.UUID, mirror Mirror) *connSink {
	return &connSink{conn: conn, sessionID: sessionID, mirror: mirror}
}

func (s *connSink) Send(ctx context.Context, msg stream.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("ws.connSink.Send: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := s.conn.Write(writeCtx, websocket.MessageText, payload); err != nil {
		s.markClosed()
		return fmt.Errorf("ws.connSink.Send: %w", err)
	}

	if s.mirror != nil {
		if err := s.mirror.Mirror(ctx, s.sessionID, msg); err != nil {
			log.Debug().Err(err).Str("session_id", s.sessionID.String()).Msg("mirror publish")
		}
	}
	return nil
}

func (s *connSink) Alive() bool { return !s.closed.Load() }

func (s *connSink) markClosed() { s.closed.Store(true) }
