package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/samuelsuu/subuzz/internal/identity"
	"github.com/samuelsuu/subuzz/internal/observability"
	"github.com/samuelsuu/subuzz/internal/telemetry"
)

const wsRoutingKey = "ws_events.relay"

// Handler owns the websocket endpoint: it authenticates the handshake,
// registers the connection and dispatches inbound events until the
// connection closes.
type Handler struct {
	hub        *Hub
	verifier   identity.Verifier
	membership *Membership
	router     *Router
	audit      *telemetry.AuditEmitter
	logger     zerolog.Logger

	authTimeout time.Duration
}

// NewHandler constructs a Handler.
func NewHandler(hub *Hub, verifier identity.Verifier, membership *Membership, router *Router, audit *telemetry.AuditEmitter, logger zerolog.Logger, authTimeout time.Duration) *Handler {
	return &Handler{
		hub:         hub,
		verifier:    verifier,
		membership:  membership,
		router:      router,
		audit:       audit,
		logger:      logger,
		authTimeout: authTimeout,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates the bearer token and upgrades the connection. A
// token that fails verification never reaches the websocket layer.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("subuzz/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)

	authCtx, cancel := context.WithTimeout(ctx, h.authTimeout)
	defer cancel()

	user, err := h.verifier.VerifyToken(authCtx, token)
	if err != nil {
		observability.IncWSEvent("auth_failed")
		h.audit.Emit(ctx, "warn", "websocket auth failed", observability.RequestIDFromRequest(c.Request), nil)
		if errors.Is(err, identity.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "identity provider unavailable"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      user.ID,
		Username:    user.Username,
		IP:          observability.IPFromRequest(c.Request),
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	wc := newWSConn(conn)
	h.hub.Register(wc, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishLifecycle(ctx, info, "ws_connect", "")

	// The handshake request finishes here; the read loop owns the
	// connection from now on.
	go h.readLoop(context.WithoutCancel(ctx), wc, info)
}

func (h *Handler) readLoop(ctx context.Context, wc *wsConn, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.Unregister(wc)
		_ = wc.Close()
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.publishLifecycle(ctx, info, "ws_disconnect", closeReason)
	}()

	for {
		_, payload, err := wc.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				h.publishLifecycle(ctx, info, "ws_error", closeReason)
			}
			return
		}

		var event InboundEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			h.logger.Debug().Err(err).Str("conn_id", info.ConnID).Msg("malformed frame dropped")
			continue
		}
		h.dispatch(ctx, wc, info, event)
	}
}

func (h *Handler) dispatch(ctx context.Context, wc *wsConn, info ConnInfo, event InboundEvent) {
	switch event.Event {
	case EventJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return
		}
		h.membership.Join(ctx, wc, info, data.RoomID)

	case EventPrivateMessage:
		var data SendMessageData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return
		}
		h.router.HandleSend(ctx, wc, info, data)

	case EventDeleteMessage:
		var data DeleteMessageData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return
		}
		h.router.HandleDelete(wc, info, data)

	case EventGetOnlineUsers:
		h.hub.Send(wc, Event{Event: EventOnlineUsers, Data: OnlineUsersData{Users: h.hub.OnlineUsers()}})

	default:
		h.logger.Debug().Str("event", event.Event).Str("conn_id", info.ConnID).Msg("unknown event dropped")
	}
}

func (h *Handler) publishLifecycle(ctx context.Context, info ConnInfo, name, reason string) {
	payload := map[string]any{
		"ws": map[string]any{
			"event":       name,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]any{
			"user_id":   info.UserID,
			"ip":        info.IP,
			"device_id": info.DeviceID,
		},
	}
	_ = observability.PublishEvent(ctx, wsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}
