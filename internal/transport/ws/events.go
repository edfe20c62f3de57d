package ws

import "encoding/json"

// MessageType defines the type of WebSocket message
type MessageType string

// Inbound event types
const (
	MsgJoin    MessageType = "join"
	MsgControl MessageType = "control_video"
)

// Event types that flow both ways: a member sends them with a room_code
// payload, every member of that room receives them back.
const (
	MsgPlayVideo  MessageType = "play_video"
	MsgPauseVideo MessageType = "pause_video"
	MsgSeekVideo  MessageType = "seek_video"
)

// Outbound event types
const (
	MsgUserJoined MessageType = "user_joined"
	MsgRoomClosed MessageType = "room_closed"
	MsgError      MessageType = "error"
)

// Control actions accepted by control_video
const (
	ActionPlay  = "play"
	ActionPause = "pause"
)

// PermissionDeniedMessage is sent back to a connection that tries to control
// playback without being the room's creator.
const PermissionDeniedMessage = "You do not have permission to control the video."

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RoomPayload is the minimal payload carried by join/play/pause/seek events.
// Seek events carry extra playback-position fields which are echoed verbatim,
// so only room_code is decoded here.
type RoomPayload struct {
	RoomCode string `json:"room_code"`
}

// ControlPayload is the payload of the access-controlled control_video event.
type ControlPayload struct {
	RoomCode        string `json:"room_code"`
	Action          string `json:"action"`
	CurrentUsername string `json:"current_username"`
	CreatorUsername string `json:"creator_username"`
}

// ErrorPayload is sent back to the originating connection only.
type ErrorPayload struct {
	Message string `json:"message"`
}
