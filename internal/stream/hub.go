package stream

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/matthewbaird/waypoint/internal/auth"
	"github.com/matthewbaird/waypoint/internal/event"
	"github.com/matthewbaird/waypoint/internal/metrics"
)

// subscriberBuffer is how many undelivered events a connection may queue
// before new ones are dropped for it.
const subscriberBuffer = 32

type subscriber struct {
	actorID string
	events  chan event.DomainEvent
}

// Hub fans domain events out to the WebSocket connections of the actor they
// belong to. It is an eventbus subscriber and an http.Handler.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*subscriber]struct{}
	origins []string
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewHub creates a Hub. origins are the accepted Origin patterns; nil
// accepts same-origin requests only.
func NewHub(m *metrics.Metrics, logger *slog.Logger, origins ...string) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:    make(map[string]map[*subscriber]struct{}),
		origins: origins,
		metrics: m,
		logger:  logger,
	}
}

// HandleEvent queues evt for every connection of evt.ActorID. Slow
// connections lose events rather than block the bus.
func (h *Hub) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[evt.ActorID] {
		select {
		case s.events <- evt:
		default:
			h.logger.Warn("stream: subscriber buffer full, dropping event",
				"actor_id", evt.ActorID, "event_type", evt.EventType)
		}
	}
	return nil
}

func (h *Hub) subscribe(actorID string) *subscriber {
	s := &subscriber{actorID: actorID, events: make(chan event.DomainEvent, subscriberBuffer)}
	h.mu.Lock()
	if h.subs[actorID] == nil {
		h.subs[actorID] = make(map[*subscriber]struct{})
	}
	h.subs[actorID][s] = struct{}{}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.StreamClients.Inc()
	}
	return s
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	delete(h.subs[s.actorID], s)
	if len(h.subs[s.actorID]) == 0 {
		delete(h.subs, s.actorID)
	}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.StreamClients.Dec()
	}
}

// Connections returns the number of open connections for actorID.
func (h *Hub) Connections(actorID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[actorID])
}

// ServeHTTP upgrades to WebSocket and streams the caller's events until the
// client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actorID := auth.ActorFrom(r.Context())
	if actorID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.logger.Warn("stream: websocket accept", "error", err)
		return
	}
	defer conn.CloseNow()

	sub := h.subscribe(actorID)
	defer h.unsubscribe(sub)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.send(ctx, conn, ServerMessage{
		Type: "session",
		Data: SessionData{ActorID: actorID},
	})

	go func() {
		defer cancel()
		h.readLoop(ctx, conn)
	}()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case evt := <-sub.events:
			h.send(ctx, conn, ServerMessage{Type: "event", Data: EventData(evt)})
		}
	}
}

func (h *Hub) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var msg ClientMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("stream: connection closed", "status", websocket.CloseStatus(err))
			}
			return
		}

		switch msg.Type {
		case "ping":
			h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
		default:
			h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

func (h *Hub) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil && ctx.Err() == nil {
		h.logger.Warn("stream: write error", "error", err)
	}
}

func (h *Hub) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data: ErrorData{
			Code:    code,
			Message: message,
		},
	})
}
