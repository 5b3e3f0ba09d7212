package ws

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/samuelsuu/subuzz/internal/mocks"
	"github.com/samuelsuu/subuzz/internal/telemetry"
)

func testMembership(hub *Hub, groups *mocks.GroupStoreMock) *Membership {
	audit := telemetry.NewAuditEmitter(zerolog.Nop(), nil, "audit.relay", "test", "test")
	return NewMembership(hub, groups, audit, zerolog.Nop())
}

func TestJoinDirectRoomAsParticipant(t *testing.T) {
	hub := testHub()
	groups := new(mocks.GroupStoreMock)
	membership := testMembership(hub, groups)

	conn := &fakeConn{}
	connInfo := info("alice", "c1")
	hub.Register(conn, connInfo)

	roomID := DirectRoomID("alice", "bob")
	membership.Join(context.Background(), conn, connInfo, roomID)

	assert.True(t, hub.InRoom(conn, roomID))
}

func TestJoinDirectRoomRefusedForOutsider(t *testing.T) {
	hub := testHub()
	groups := new(mocks.GroupStoreMock)
	membership := testMembership(hub, groups)

	conn := &fakeConn{}
	connInfo := info("mallory", "c1")
	hub.Register(conn, connInfo)

	roomID := DirectRoomID("alice", "bob")
	before := len(conn.events(t))
	membership.Join(context.Background(), conn, connInfo, roomID)

	assert.False(t, hub.InRoom(conn, roomID))
	// Refusal is silent on the wire.
	assert.Equal(t, before, len(conn.events(t)))
}

func TestJoinGroupRoomChecksMembershipEveryAttempt(t *testing.T) {
	hub := testHub()
	groups := new(mocks.GroupStoreMock)
	membership := testMembership(hub, groups)

	conn := &fakeConn{}
	connInfo := info("alice", "c1")
	hub.Register(conn, connInfo)

	groups.On("IsMember", mock.Anything, "g1", "alice").Return(true, nil).Twice()

	roomID := GroupRoomID("g1")
	membership.Join(context.Background(), conn, connInfo, roomID)
	membership.Join(context.Background(), conn, connInfo, roomID)

	assert.True(t, hub.InRoom(conn, roomID))
	groups.AssertExpectations(t)
}

func TestJoinGroupRoomRefusedForNonMember(t *testing.T) {
	hub := testHub()
	groups := new(mocks.GroupStoreMock)
	membership := testMembership(hub, groups)

	conn := &fakeConn{}
	connInfo := info("alice", "c1")
	hub.Register(conn, connInfo)

	groups.On("IsMember", mock.Anything, "g1", "alice").Return(false, nil).Once()

	membership.Join(context.Background(), conn, connInfo, GroupRoomID("g1"))

	assert.False(t, hub.InRoom(conn, GroupRoomID("g1")))
	groups.AssertExpectations(t)
}

func TestJoinGroupRoomStoreErrorDoesNotJoin(t *testing.T) {
	hub := testHub()
	groups := new(mocks.GroupStoreMock)
	membership := testMembership(hub, groups)

	conn := &fakeConn{}
	connInfo := info("alice", "c1")
	hub.Register(conn, connInfo)

	groups.On("IsMember", mock.Anything, "g1", "alice").Return(false, assert.AnError).Once()

	membership.Join(context.Background(), conn, connInfo, GroupRoomID("g1"))

	assert.False(t, hub.InRoom(conn, GroupRoomID("g1")))
}

func TestJoinForeignPersonalChannelRefused(t *testing.T) {
	hub := testHub()
	groups := new(mocks.GroupStoreMock)
	membership := testMembership(hub, groups)

	conn := &fakeConn{}
	connInfo := info("mallory", "c1")
	hub.Register(conn, connInfo)

	membership.Join(context.Background(), conn, connInfo, UserRoomID("alice"))

	assert.False(t, hub.InRoom(conn, UserRoomID("alice")))
}

func TestJoinMalformedRoomRefused(t *testing.T) {
	hub := testHub()
	groups := new(mocks.GroupStoreMock)
	membership := testMembership(hub, groups)

	conn := &fakeConn{}
	connInfo := info("alice", "c1")
	hub.Register(conn, connInfo)

	membership.Join(context.Background(), conn, connInfo, "a_b_c")

	assert.False(t, hub.InRoom(conn, "a_b_c"))
}
