package ws

import (
	"sort"
	"strings"
)

// Room id conventions. Direct rooms are the two participant ids sorted and
// joined with an underscore, so both peers derive the same id without
// coordination. Group rooms and personal channels carry a fixed prefix.
const (
	groupRoomPrefix = "group_"
	userRoomPrefix  = "user_"
)

// RoomKind classifies a room id by its derivation convention.
type RoomKind int

const (
	RoomInvalid RoomKind = iota
	RoomDirect
	RoomGroup
	RoomPersonal
)

// DirectRoomID derives the room id for a two-party conversation. Commutative
// in its arguments.
func DirectRoomID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + "_" + ids[1]
}

// GroupRoomID derives the room id for a group.
func GroupRoomID(groupID string) string {
	return groupRoomPrefix + groupID
}

// UserRoomID derives a user's personal channel id.
func UserRoomID(userID string) string {
	return userRoomPrefix + userID
}

// ClassifyRoom determines the room kind from the id alone.
func ClassifyRoom(roomID string) RoomKind {
	switch {
	case roomID == "":
		return RoomInvalid
	case strings.HasPrefix(roomID, groupRoomPrefix):
		if roomID == groupRoomPrefix {
			return RoomInvalid
		}
		return RoomGroup
	case strings.HasPrefix(roomID, userRoomPrefix):
		if roomID == userRoomPrefix {
			return RoomInvalid
		}
		return RoomPersonal
	}
	if _, _, ok := DirectRoomMembers(roomID); ok {
		return RoomDirect
	}
	return RoomInvalid
}

// GroupIDFromRoom extracts the group id from a group room id.
func GroupIDFromRoom(roomID string) string {
	return strings.TrimPrefix(roomID, groupRoomPrefix)
}

// DirectRoomMembers extracts the two participant ids encoded in a direct
// room id. User ids never contain underscores.
func DirectRoomMembers(roomID string) (string, string, bool) {
	parts := strings.Split(roomID, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
