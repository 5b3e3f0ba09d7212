package ws

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/samuelsuu/subuzz/internal/models"
	"github.com/samuelsuu/subuzz/internal/observability"
	"github.com/samuelsuu/subuzz/internal/store"
	"github.com/samuelsuu/subuzz/internal/telemetry"
)

// Router processes send and delete requests: authorize, persist, broadcast,
// then hand off to the notifier.
type Router struct {
	hub      *Hub
	messages store.MessageStore
	notifier *Notifier
	audit    *telemetry.AuditEmitter
	logger   zerolog.Logger

	sendTimeout time.Duration
}

// NewRouter constructs a Router.
func NewRouter(hub *Hub, messages store.MessageStore, notifier *Notifier, audit *telemetry.AuditEmitter, logger zerolog.Logger, sendTimeout time.Duration) *Router {
	return &Router{
		hub:         hub,
		messages:    messages,
		notifier:    notifier,
		audit:       audit,
		logger:      logger,
		sendTimeout: sendTimeout,
	}
}

// HandleSend runs the send pipeline for one inbound envelope.
//
// Order matters: the message is broadcast only after the insert returns the
// authoritative record, so room delivery order follows persistence order.
// Notification fan-out runs detached and can never undo the broadcast.
func (r *Router) HandleSend(ctx context.Context, conn Conn, info ConnInfo, data SendMessageData) {
	if data.SenderID != info.UserID {
		r.logger.Warn().
			Str("user_id", info.UserID).
			Str("claimed_sender", data.SenderID).
			Msg("sender mismatch, dropping message")
		observability.IncWSEvent("sender_refused")
		r.audit.Emit(ctx, "warn", "message dropped: sender id does not match connection identity", info.RequestID, &info.UserID)
		return
	}

	msg, ok := r.resolveEnvelope(data)
	if !ok {
		r.hub.Send(conn, Event{Event: EventMessageError, Data: ErrorData{Error: "No receiver or group specified"}})
		return
	}

	// The caller supplies the broadcast room id, but only rooms this
	// connection has actually joined are valid targets. Checked before the
	// insert so a refused send leaves no record behind.
	if !r.hub.InRoom(conn, data.RoomID) {
		r.logger.Warn().
			Str("user_id", info.UserID).
			Str("room_id", data.RoomID).
			Msg("send into unjoined room refused")
		observability.IncWSEvent("send_room_refused")
		return
	}

	insertCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
	defer cancel()

	stored, err := r.messages.InsertMessage(insertCtx, msg)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", info.UserID).Msg("message insert failed")
		observability.IncWSEvent("send_failed")
		r.hub.Send(conn, Event{Event: EventMessageError, Data: ErrorData{Error: err.Error()}})
		return
	}

	r.hub.BroadcastRoom(data.RoomID, Event{Event: EventReceiveMessage, Data: stored})
	observability.IncWSEvent("message_sent")

	go r.notifier.Notify(stored)
}

// HandleDelete relays a deletion to the rest of the room. Deletion
// authorization and the durable delete happen in the data layer before the
// client emits this event; this layer only fans the signal out.
func (r *Router) HandleDelete(conn Conn, info ConnInfo, data DeleteMessageData) {
	if !r.hub.InRoom(conn, data.RoomID) {
		observability.IncWSEvent("delete_room_refused")
		return
	}
	r.hub.BroadcastRoomExcept(data.RoomID, conn, Event{Event: EventMessageDeleted, Data: data.MessageID})
	observability.IncWSEvent("message_deleted")
}

// resolveEnvelope validates targeting and builds the insert request. A group
// target takes precedence when both are erroneously supplied.
func (r *Router) resolveEnvelope(data SendMessageData) (models.NewMessage, bool) {
	msg := models.NewMessage{
		SenderID:    data.SenderID,
		MessageType: data.MessageType,
	}
	if msg.MessageType == "" {
		msg.MessageType = "text"
	}
	if data.Message != "" {
		msg.Content = &data.Message
	}
	if data.AttachmentURL != "" {
		msg.AttachmentURL = &data.AttachmentURL
		if data.AttachmentName != "" {
			msg.AttachmentName = &data.AttachmentName
		}
		if data.AttachmentSize > 0 {
			msg.AttachmentSize = &data.AttachmentSize
		}
	}

	switch {
	case data.GroupID != "":
		msg.GroupID = &data.GroupID
	case data.ReceiverID != "":
		msg.ReceiverID = &data.ReceiverID
	default:
		return models.NewMessage{}, false
	}
	return msg, true
}
