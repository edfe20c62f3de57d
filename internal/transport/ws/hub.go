package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Presence mirrors live room membership into an external store so REST
// lookups can report viewer counts (optional collaborator).
type Presence interface {
	Add(ctx context.Context, roomCode, connID, username string) error
	Remove(ctx context.Context, roomCode, connID string) error
}

// Connection represents one WebSocket client known to the hub. RoomCode is
// the room it currently belongs to ("" before the first join) and is guarded
// by the hub's mutex.
type Connection struct {
	ID       string
	Username string

	// CreatorRoom is the room code a verified creator token was presented
	// for at the handshake, "" otherwise.
	CreatorRoom string

	RoomCode string
	Send     chan []byte
}

// NewConnection builds a hub connection with a buffered send channel.
func NewConnection(username, creatorRoom string, sendBuf int) *Connection {
	if sendBuf <= 0 {
		sendBuf = 256
	}
	return &Connection{
		ID:          "c_" + uuid.New().String()[:8],
		Username:    username,
		CreatorRoom: creatorRoom,
		Send:        make(chan []byte, sendBuf),
	}
}

// Hub is the sync coordinator: it owns the room membership table and routes
// playback-control events among connections sharing a room. All sends are
// non-blocking; a slow member gets its message dropped, never stalls others.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Connection]bool
	rooms   map[string]map[*Connection]bool

	log      *zap.Logger
	presence Presence        // optional
	ctx      context.Context // app context for presence writes
}

// NewHub creates a new hub. Each instance is fully isolated; nothing is
// shared at package level.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Connection]bool),
		rooms:   make(map[string]map[*Connection]bool),
		log:     log,
	}
}

// SetPresence sets the optional presence mirror.
func (h *Hub) SetPresence(p Presence) { h.presence = p }

// SetContext sets the app context used for presence writes (shutdown propagation).
func (h *Hub) SetContext(ctx context.Context) { h.ctx = ctx }

// Register adds a connection to the hub. It belongs to no room until it
// sends a join event.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	activeConnections.Inc()
	h.log.Info("client connected",
		zap.String("conn_id", conn.ID),
		zap.String("username", conn.Username))
}

// Unregister removes a connection from the hub and purges it from its room's
// membership set, so no later broadcast can reach it.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, conn)
	roomCode := conn.RoomCode
	h.removeFromRoomLocked(conn)
	close(conn.Send)
	h.mu.Unlock()

	activeConnections.Dec()
	if h.presence != nil && roomCode != "" {
		if err := h.presence.Remove(h.presenceCtx(), roomCode, conn.ID); err != nil {
			h.log.Warn("presence remove failed", zap.Error(err))
		}
	}
	h.log.Info("client disconnected",
		zap.String("conn_id", conn.ID),
		zap.String("room_code", roomCode))
}

// Dispatch routes one inbound message from a connection. Malformed payloads
// fail closed: an error goes back to the sender and nothing is broadcast.
func (h *Hub) Dispatch(conn *Connection, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.sendError(conn, "invalid message")
		return
	}

	switch msg.Type {
	case MsgJoin:
		var p RoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.RoomCode == "" {
			h.sendError(conn, "room_code is required")
			return
		}
		h.Join(conn, p.RoomCode)

	case MsgPlayVideo, MsgPauseVideo:
		var p RoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.RoomCode == "" {
			h.sendError(conn, "room_code is required")
			return
		}
		h.broadcast(p.RoomCode, &Message{Type: msg.Type})

	case MsgSeekVideo:
		var p RoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.RoomCode == "" {
			h.sendError(conn, "room_code is required")
			return
		}
		// Echo the full payload so playback-position fields pass through.
		h.broadcast(p.RoomCode, &Message{Type: MsgSeekVideo, Payload: msg.Payload})

	case MsgControl:
		h.control(conn, msg.Payload)

	default:
		h.log.Debug("ignoring unknown event",
			zap.String("type", string(msg.Type)),
			zap.String("conn_id", conn.ID))
	}
}

// Join moves the connection into roomCode's membership set. Joining a new
// room implicitly leaves the previous one; re-joining the same room is a
// no-op apart from the user_joined broadcast. Room existence is not checked
// here: the REST join already resolved the code against the registry.
func (h *Hub) Join(conn *Connection, roomCode string) {
	h.mu.Lock()
	prev := conn.RoomCode
	if prev != roomCode {
		h.removeFromRoomLocked(conn)
	}
	if h.rooms[roomCode] == nil {
		h.rooms[roomCode] = make(map[*Connection]bool)
	}
	h.rooms[roomCode][conn] = true
	conn.RoomCode = roomCode
	h.mu.Unlock()

	if h.presence != nil {
		if prev != "" && prev != roomCode {
			if err := h.presence.Remove(h.presenceCtx(), prev, conn.ID); err != nil {
				h.log.Warn("presence remove failed", zap.Error(err))
			}
		}
		if err := h.presence.Add(h.presenceCtx(), roomCode, conn.ID, conn.Username); err != nil {
			h.log.Warn("presence add failed", zap.Error(err))
		}
	}

	h.log.Info("client joined room",
		zap.String("conn_id", conn.ID),
		zap.String("room_code", roomCode))

	payload, _ := json.Marshal(&RoomPayload{RoomCode: roomCode})
	h.broadcast(roomCode, &Message{Type: MsgUserJoined, Payload: payload})
}

// control enforces the single-writer rule: only the room's creator may play
// or pause through control_video. A connection that presented a valid
// creator token for the room passes outright; otherwise the client-declared
// usernames are compared, per the wire contract.
func (h *Hub) control(conn *Connection, raw json.RawMessage) {
	var p ControlPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.RoomCode == "" {
		h.sendError(conn, "room_code is required")
		return
	}

	var evt MessageType
	switch p.Action {
	case ActionPlay:
		evt = MsgPlayVideo
	case ActionPause:
		evt = MsgPauseVideo
	default:
		h.sendError(conn, "unknown action")
		return
	}

	if conn.CreatorRoom != p.RoomCode && p.CurrentUsername != p.CreatorUsername {
		h.sendError(conn, PermissionDeniedMessage)
		return
	}

	h.broadcast(p.RoomCode, &Message{Type: evt})
}

// BroadcastToRoom sends a message to all members of a room (implements
// service.Broadcaster).
func (h *Hub) BroadcastToRoom(roomCode string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast(roomCode, &Message{Type: MessageType(msgType), Payload: data})
}

// DisconnectRoom drops every member of a room (implements service.Broadcaster).
// Used when the creator closes the room.
func (h *Hub) DisconnectRoom(roomCode string) {
	h.mu.Lock()
	members := h.rooms[roomCode]
	delete(h.rooms, roomCode)
	for conn := range members {
		delete(h.clients, conn)
		conn.RoomCode = ""
		close(conn.Send)
	}
	h.mu.Unlock()

	for conn := range members {
		activeConnections.Dec()
		if h.presence != nil {
			if err := h.presence.Remove(h.presenceCtx(), roomCode, conn.ID); err != nil {
				h.log.Warn("presence remove failed", zap.Error(err))
			}
		}
	}
	h.log.Info("room disconnected", zap.String("room_code", roomCode))
}

// RoomSize returns the number of connections in a room.
func (h *Hub) RoomSize(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}

// Close drops every connection; used on server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		delete(h.clients, conn)
		h.removeFromRoomLocked(conn)
		close(conn.Send)
		activeConnections.Dec()
	}
}

// broadcast delivers msg to the set of connections recorded for roomCode at
// call time. Sends stay under the read lock: Send channels are only closed
// under the write lock together with their map removal, so every connection
// visible here is open. Sends are non-blocking, a full buffer drops the
// message for that member only, so holding the lock never stalls on a slow
// member.
func (h *Hub) broadcast(roomCode string, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.rooms[roomCode] {
		select {
		case conn.Send <- data:
		default:
			droppedSends.Inc()
			h.log.Warn("send buffer full, dropping message",
				zap.String("conn_id", conn.ID),
				zap.String("type", string(msg.Type)))
		}
	}
	if len(h.rooms[roomCode]) > 0 {
		eventsBroadcast.WithLabelValues(string(msg.Type)).Inc()
	}
}

// sendError notifies the originating connection only. The read lock plus the
// registration check guard against a concurrent unregister closing the
// channel mid-send.
func (h *Hub) sendError(conn *Connection, message string) {
	payload, _ := json.Marshal(&ErrorPayload{Message: message})
	data, _ := json.Marshal(&Message{Type: MsgError, Payload: payload})

	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[conn] {
		return
	}
	select {
	case conn.Send <- data:
	default:
		droppedSends.Inc()
	}
}

// removeFromRoomLocked purges conn from its current room. Caller holds h.mu.
func (h *Hub) removeFromRoomLocked(conn *Connection) {
	if conn.RoomCode == "" {
		return
	}
	if room, ok := h.rooms[conn.RoomCode]; ok {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.rooms, conn.RoomCode)
		}
	}
	conn.RoomCode = ""
}

func (h *Hub) presenceCtx() context.Context {
	if h.ctx != nil {
		return h.ctx
	}
	return context.Background()
}
