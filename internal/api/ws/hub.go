package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/kairos/internal/stream"
	redisstore "github.com/gosuda/kairos/internal/store/redis"
)

// Broker is the pub/sub backend the hub relays through.
// *redisstore.PubSub implements it.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Event is one outbound session message as seen by observers.
type Event struct {
	SessionID uuid.UUID      `json:"session_id"`
	Message   stream.Message `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
}

// Hub mirrors session traffic to a broker and serves observer connections.
type Hub struct {
	broker         Broker
	originPatterns []string
}

// NewHub creates a new WebSocket hub.
func NewHub(broker Broker, originPatterns []string) *Hub {
	return &Hub{broker: broker, originPatterns: originPatterns}
}

// Mirror publishes msg on the session's channel.
func (h *Hub) Mirror(ctx context.Context, sessionID uuid.UUID, msg stream.Message) error {
	payload, err := json.Marshal(Event{SessionID: sessionID, Message: msg, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("ws.Hub.Mirror: %w", err)
	}
	if err := h.broker.Publish(ctx, redisstore.SessionChannel(sessionID), payload); err != nil {
		return fmt.Errorf("ws.Hub.Mirror: %w", err)
	}
	return nil
}

// ServeObserve handles read-only WebSocket connections that follow a live
// session. Subscribes to Redis channel "session:<sessionID>".
func (h *Hub) ServeObserve(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// Observers never send; CloseRead handles control frames and cancels
	// ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())
	channel := redisstore.SessionChannel(sessionID)

	messages, cleanup, err := h.broker.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
