package ws

import "encoding/json"

// Client-to-server event names.
const (
	EventJoinRoom       = "join_room"
	EventPrivateMessage = "private_message"
	EventDeleteMessage  = "delete_message"
	EventGetOnlineUsers = "get_online_users"
)

// Server-to-client event names.
const (
	EventReceiveMessage = "receive_message"
	EventMessageError   = "message_error"
	EventMessageDeleted = "message_deleted"
	EventUserOnline     = "user_online"
	EventUserOffline    = "user_offline"
	EventOnlineUsers    = "online_users"
	EventNotification   = "notification"
)

// InboundEvent is the envelope decoded from every client frame.
type InboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Event is the envelope for every server frame.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// JoinRoomData carries a join_room request.
type JoinRoomData struct {
	RoomID string `json:"roomId"`
}

// SendMessageData carries a private_message envelope. Exactly one of
// ReceiverID and GroupID is expected; GroupID wins when both are present.
type SendMessageData struct {
	RoomID         string `json:"roomId"`
	Message        string `json:"message"`
	MessageType    string `json:"messageType"`
	AttachmentURL  string `json:"attachmentUrl"`
	AttachmentName string `json:"attachmentName"`
	AttachmentSize int64  `json:"attachmentSize"`
	SenderID       string `json:"senderId"`
	ReceiverID     string `json:"receiverId"`
	GroupID        string `json:"groupId"`
}

// DeleteMessageData carries a delete_message relay request.
type DeleteMessageData struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
}

// ErrorData is unicast to a sender whose request failed.
type ErrorData struct {
	Error string `json:"error"`
}

// PresenceData carries a user_online / user_offline broadcast.
type PresenceData struct {
	UserID string `json:"userId"`
}

// OnlineUsersData answers get_online_users.
type OnlineUsersData struct {
	Users []string `json:"users"`
}
