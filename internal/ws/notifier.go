package ws

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/samuelsuu/subuzz/internal/models"
	"github.com/samuelsuu/subuzz/internal/observability"
	"github.com/samuelsuu/subuzz/internal/push"
	"github.com/samuelsuu/subuzz/internal/store"
)

const attachmentFallback = "Sent an attachment"

// Notifier fans a persisted message out as side-channel notifications: an
// in-band event on each recipient's personal channel plus a web-push attempt
// per registered endpoint. Everything here is best effort; failures are
// logged and counted, never propagated to the send path.
type Notifier struct {
	hub    *Hub
	groups store.GroupStore
	subs   store.PushStore
	sender push.Sender
	logger zerolog.Logger

	timeout time.Duration
}

// NewNotifier constructs a Notifier. sender may be nil when push is not
// configured; in-band notifications still go out.
func NewNotifier(hub *Hub, groups store.GroupStore, subs store.PushStore, sender push.Sender, logger zerolog.Logger) *Notifier {
	return &Notifier{
		hub:     hub,
		groups:  groups,
		subs:    subs,
		sender:  sender,
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

// Notify dispatches notifications for a persisted message. Runs detached
// from the send handler; callers do not wait on it.
func (n *Notifier) Notify(msg models.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			n.logger.Error().Any("panic", rec).Msg("notification dispatch panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	notif := models.Notification{
		SenderID:   msg.SenderID,
		SenderName: senderName(msg),
		Content:    summarize(msg),
		Type:       models.NotificationDirect,
	}

	if msg.GroupID != nil {
		groupID := *msg.GroupID
		notif.Type = models.NotificationGroup
		notif.GroupID = groupID

		group, err := n.groups.GetGroup(ctx, groupID)
		if err != nil {
			n.logger.Error().Err(err).Str("group_id", groupID).Msg("group lookup for notification failed")
		} else {
			notif.GroupName = group.Name
		}

		members, err := n.groups.ListMemberIDs(ctx, groupID, msg.SenderID)
		if err != nil {
			n.logger.Error().Err(err).Str("group_id", groupID).Msg("member listing for notification failed")
			return
		}
		for _, memberID := range members {
			n.deliver(ctx, memberID, notif, GroupRoomID(groupID))
		}
		return
	}

	if msg.ReceiverID == nil {
		return
	}
	n.deliver(ctx, *msg.ReceiverID, notif, DirectRoomID(msg.SenderID, *msg.ReceiverID))
}

// deliver handles one recipient: in-band event first, then push. Failures
// for one recipient never affect the others.
func (n *Notifier) deliver(ctx context.Context, userID string, notif models.Notification, tag string) {
	n.hub.SendToUser(userID, Event{Event: EventNotification, Data: notif})

	if n.sender == nil {
		return
	}

	subs, err := n.subs.ListSubscriptions(ctx, userID)
	if err != nil {
		n.logger.Error().Err(err).Str("user_id", userID).Msg("push subscription lookup failed")
		return
	}

	title := notif.SenderName
	if notif.Type == models.NotificationGroup && notif.GroupName != "" {
		title = notif.GroupName
	}
	payload := models.PushPayload{
		Title: title,
		Body:  notif.Content,
		Tag:   tag,
		URL:   "/chat",
	}

	for _, sub := range subs {
		err := n.sender.Send(ctx, sub, payload)
		switch {
		case err == nil:
			observability.IncPushDelivery("ok")
		case errors.Is(err, push.ErrGone):
			observability.IncPushDelivery("gone")
			if err := n.subs.RemoveSubscription(ctx, sub.Endpoint); err != nil {
				n.logger.Warn().Err(err).Str("user_id", userID).Msg("stale push endpoint cleanup failed")
			}
		default:
			observability.IncPushDelivery("error")
			n.logger.Warn().Err(err).Str("user_id", userID).Msg("push delivery failed")
		}
	}
}

func summarize(msg models.Message) string {
	if msg.Content != nil && *msg.Content != "" {
		return *msg.Content
	}
	return attachmentFallback
}

func senderName(msg models.Message) string {
	if msg.Sender != nil && msg.Sender.Username != nil && *msg.Sender.Username != "" {
		return *msg.Sender.Username
	}
	return "Someone"
}
