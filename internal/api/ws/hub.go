package ws

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/gosuda/tenantry/internal/domain"
	"github.com/gosuda/tenantry/internal/server/middleware"
	redisstore "github.com/gosuda/tenantry/internal/store/redis"
)

// EventSubscriber streams decoded events from a pub/sub channel.
// *redis.PubSub satisfies it.
type EventSubscriber interface {
	SubscribeEvents(ctx context.Context, channel string) (<-chan domain.Event, func(), error)
}

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	events EventSubscriber
}

// NewHub creates a new WebSocket hub.
func NewHub(events EventSubscriber) *Hub {
	return &Hub{events: events}
}

// ServeCompany streams every event of the caller's company. Mount it behind
// RequireAdmin.
func (h *Hub) ServeCompany(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing company", http.StatusBadRequest)
		return
	}

	h.stream(w, r, redisstore.CompanyChannel(companyID))
}

// ServeSelf streams events about the calling user, such as role changes or
// deactivation.
func (h *Hub) ServeSelf(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing company", http.StatusBadRequest)
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusBadRequest)
		return
	}

	h.stream(w, r, redisstore.UserChannel(companyID, userID))
}

func (h *Hub) stream(w http.ResponseWriter, r *http.Request, channel string) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// Clients only receive; CloseRead handles pings and cancels ctx when the
	// peer goes away.
	ctx := conn.CloseRead(r.Context())

	events, cleanup, err := h.events.SubscribeEvents(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case ev, evOK := <-events:
			if !evOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := wsjson.Write(ctx, conn, ev); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
