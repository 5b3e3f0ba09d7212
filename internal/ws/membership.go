package ws

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/samuelsuu/subuzz/internal/observability"
	"github.com/samuelsuu/subuzz/internal/store"
	"github.com/samuelsuu/subuzz/internal/telemetry"
)

// Membership authorizes join_room requests. Refusals are silent on the wire:
// the connection simply never becomes a room member. Each refusal is still
// counted and audited.
type Membership struct {
	hub    *Hub
	groups store.GroupStore
	audit  *telemetry.AuditEmitter
	logger zerolog.Logger
}

// NewMembership constructs the manager.
func NewMembership(hub *Hub, groups store.GroupStore, audit *telemetry.AuditEmitter, logger zerolog.Logger) *Membership {
	return &Membership{hub: hub, groups: groups, audit: audit, logger: logger}
}

// Join classifies the room id and adds the connection when the authenticated
// user is allowed in. Direct rooms require the user to be one of the two
// encoded participants. Group rooms require a fresh membership check on every
// attempt, since membership can change between sessions.
func (m *Membership) Join(ctx context.Context, conn Conn, info ConnInfo, roomID string) {
	switch ClassifyRoom(roomID) {
	case RoomDirect:
		a, b, _ := DirectRoomMembers(roomID)
		if info.UserID != a && info.UserID != b {
			m.refuse(ctx, info, roomID, "user not a participant of direct room")
			return
		}
		m.hub.JoinRoom(conn, roomID)

	case RoomGroup:
		member, err := m.groups.IsMember(ctx, GroupIDFromRoom(roomID), info.UserID)
		if err != nil {
			m.logger.Error().Err(err).Str("room_id", roomID).Str("user_id", info.UserID).Msg("group membership check failed")
			return
		}
		if !member {
			m.refuse(ctx, info, roomID, "user not a member of group")
			return
		}
		m.hub.JoinRoom(conn, roomID)

	case RoomPersonal:
		if roomID != UserRoomID(info.UserID) {
			m.refuse(ctx, info, roomID, "personal channel belongs to another user")
			return
		}
		m.hub.JoinRoom(conn, roomID)

	default:
		m.refuse(ctx, info, roomID, "malformed room id")
	}
}

func (m *Membership) refuse(ctx context.Context, info ConnInfo, roomID, reason string) {
	m.logger.Warn().
		Str("user_id", info.UserID).
		Str("room_id", roomID).
		Str("reason", reason).
		Msg("room join refused")
	observability.IncWSEvent("join_refused")
	m.audit.Emit(ctx, "warn", "room join refused: "+reason, info.RequestID, &info.UserID)
}
