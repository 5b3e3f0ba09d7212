package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/samuelsuu/subuzz/internal/observability"
)

// Hub maintains the room broadcast sets and the presence registry. Rooms
// exist only as the set of connections currently joined to them; a
// connection's memberships are torn down as a unit when it unregisters.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[Conn]bool
	clients map[Conn]*clientState

	presence *Presence
	logger   zerolog.Logger
}

type clientState struct {
	info  ConnInfo
	rooms map[string]bool
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:    make(map[string]map[Conn]bool),
		clients:  make(map[Conn]*clientState),
		presence: NewPresence(),
		logger:   logger,
	}
}

// Register adds an authenticated connection, auto-joins its personal channel
// and broadcasts user_online when this is the user's first connection.
func (h *Hub) Register(conn Conn, info ConnInfo) {
	h.mu.Lock()
	h.clients[conn] = &clientState{info: info, rooms: make(map[string]bool)}
	h.joinLocked(conn, UserRoomID(info.UserID))
	h.mu.Unlock()

	cameOnline := h.presence.Register(info.UserID, info.ConnID)
	observability.SetOnlineUsers(h.presence.OnlineCount())
	if cameOnline {
		h.BroadcastAll(Event{Event: EventUserOnline, Data: PresenceData{UserID: info.UserID}})
	}
}

// Unregister removes a connection from every room it joined and broadcasts
// user_offline when the user's last connection closes.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	state, ok := h.clients[conn]
	if !ok {
		h.mu.Unlock()
		return
	}
	for roomID := range state.rooms {
		if conns, ok := h.rooms[roomID]; ok {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	delete(h.clients, conn)
	h.mu.Unlock()

	wentOffline := h.presence.Unregister(state.info.UserID, state.info.ConnID)
	observability.SetOnlineUsers(h.presence.OnlineCount())
	if wentOffline {
		h.BroadcastAll(Event{Event: EventUserOffline, Data: PresenceData{UserID: state.info.UserID}})
	}
}

// JoinRoom adds the connection to a room's broadcast set. Join is silent:
// no event is sent to other room members.
func (h *Hub) JoinRoom(conn Conn, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; !ok {
		return
	}
	h.joinLocked(conn, roomID)
}

func (h *Hub) joinLocked(conn Conn, roomID string) {
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[Conn]bool)
	}
	h.rooms[roomID][conn] = true
	h.clients[conn].rooms[roomID] = true
}

// InRoom reports whether the connection has joined the room.
func (h *Hub) InRoom(conn Conn, roomID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	state, ok := h.clients[conn]
	return ok && state.rooms[roomID]
}

// Info returns the identity bound to a registered connection.
func (h *Hub) Info(conn Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	state, ok := h.clients[conn]
	if !ok {
		return ConnInfo{}, false
	}
	return state.info, true
}

// BroadcastRoom sends the event to every connection joined to the room.
func (h *Hub) BroadcastRoom(roomID string, event Event) {
	h.broadcastRoom(roomID, nil, event)
}

// BroadcastRoomExcept sends the event to every room member except one
// connection, typically the originator.
func (h *Hub) BroadcastRoomExcept(roomID string, except Conn, event Event) {
	h.broadcastRoom(roomID, except, event)
}

func (h *Hub) broadcastRoom(roomID string, except Conn, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event.Event).Msg("marshal broadcast event")
		return
	}

	h.mu.RLock()
	conns := make([]Conn, 0, len(h.rooms[roomID]))
	for conn := range h.rooms[roomID] {
		if conn != except {
			conns = append(conns, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.write(conn, payload)
	}
}

// BroadcastAll sends the event to every registered connection. Used for
// global presence transitions.
func (h *Hub) BroadcastAll(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event.Event).Msg("marshal broadcast event")
		return
	}

	h.mu.RLock()
	conns := make([]Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.write(conn, payload)
	}
}

// SendToUser unicasts the event to every connection on the user's personal
// channel.
func (h *Hub) SendToUser(userID string, event Event) {
	h.BroadcastRoom(UserRoomID(userID), event)
}

// Send unicasts the event to a single connection.
func (h *Hub) Send(conn Conn, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event.Event).Msg("marshal unicast event")
		return
	}
	h.write(conn, payload)
}

func (h *Hub) write(conn Conn, payload []byte) {
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		h.logger.Warn().Err(err).Msg("websocket write failed, dropping connection")
		_ = conn.Close()
		h.Unregister(conn)
	}
}

// OnlineUsers returns a snapshot of currently online user ids.
func (h *Hub) OnlineUsers() []string {
	return h.presence.OnlineUsers()
}

// IsOnline reports whether a user has at least one open connection.
func (h *Hub) IsOnline(userID string) bool {
	return h.presence.IsOnline(userID)
}
