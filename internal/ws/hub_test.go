package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn captures written frames for assertions.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	failed bool
	closed bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed {
		return errors.New("write failed")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	f.frames = append(f.frames, buf)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) events(t *testing.T) []Event {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	events := make([]Event, 0, len(f.frames))
	for _, frame := range f.frames {
		var event Event
		require.NoError(t, json.Unmarshal(frame, &event))
		events = append(events, event)
	}
	return events
}

func (f *fakeConn) eventNames(t *testing.T) []string {
	t.Helper()
	names := []string{}
	for _, event := range f.events(t) {
		names = append(names, event.Event)
	}
	return names
}

func (f *fakeConn) countEvent(t *testing.T, name string) int {
	t.Helper()
	count := 0
	for _, n := range f.eventNames(t) {
		if n == name {
			count++
		}
	}
	return count
}

func testHub() *Hub {
	return NewHub(zerolog.Nop())
}

func info(userID, connID string) ConnInfo {
	return ConnInfo{ConnID: connID, UserID: userID, ConnectedAt: time.Now()}
}

func TestHubRegisterAutoJoinsPersonalChannel(t *testing.T) {
	hub := testHub()
	conn := &fakeConn{}

	hub.Register(conn, info("alice", "c1"))

	assert.True(t, hub.InRoom(conn, UserRoomID("alice")))
}

func TestHubOnlineBroadcastOncePerUser(t *testing.T) {
	hub := testHub()
	observer := &fakeConn{}
	hub.Register(observer, info("observer", "c0"))

	tab1 := &fakeConn{}
	tab2 := &fakeConn{}
	hub.Register(tab1, info("alice", "c1"))
	hub.Register(tab2, info("alice", "c2"))

	assert.Equal(t, 1, observer.countEvent(t, EventUserOnline))

	hub.Unregister(tab1)
	assert.Equal(t, 0, observer.countEvent(t, EventUserOffline))

	hub.Unregister(tab2)
	assert.Equal(t, 1, observer.countEvent(t, EventUserOffline))
}

func TestHubBroadcastRoomTargetsOnlyMembers(t *testing.T) {
	hub := testHub()
	member := &fakeConn{}
	outsider := &fakeConn{}
	hub.Register(member, info("alice", "c1"))
	hub.Register(outsider, info("mallory", "c2"))

	roomID := DirectRoomID("alice", "bob")
	hub.JoinRoom(member, roomID)

	hub.BroadcastRoom(roomID, Event{Event: EventReceiveMessage})

	assert.Equal(t, 1, member.countEvent(t, EventReceiveMessage))
	assert.Equal(t, 0, outsider.countEvent(t, EventReceiveMessage))
}

func TestHubBroadcastRoomExcept(t *testing.T) {
	hub := testHub()
	sender := &fakeConn{}
	peer := &fakeConn{}
	hub.Register(sender, info("alice", "c1"))
	hub.Register(peer, info("bob", "c2"))

	roomID := DirectRoomID("alice", "bob")
	hub.JoinRoom(sender, roomID)
	hub.JoinRoom(peer, roomID)

	hub.BroadcastRoomExcept(roomID, sender, Event{Event: EventMessageDeleted, Data: "m1"})

	assert.Equal(t, 0, sender.countEvent(t, EventMessageDeleted))
	assert.Equal(t, 1, peer.countEvent(t, EventMessageDeleted))
}

func TestHubUnregisterTearsDownAllRooms(t *testing.T) {
	hub := testHub()
	conn := &fakeConn{}
	hub.Register(conn, info("alice", "c1"))

	roomID := DirectRoomID("alice", "bob")
	hub.JoinRoom(conn, roomID)
	hub.Unregister(conn)

	assert.False(t, hub.InRoom(conn, roomID))
	assert.False(t, hub.InRoom(conn, UserRoomID("alice")))
	assert.Empty(t, hub.OnlineUsers())

	// A broadcast after teardown must not reach the dead connection.
	before := len(conn.events(t))
	hub.BroadcastRoom(roomID, Event{Event: EventReceiveMessage})
	assert.Equal(t, before, len(conn.events(t)))
}

func TestHubDropsConnectionOnWriteError(t *testing.T) {
	hub := testHub()
	healthy := &fakeConn{}
	broken := &fakeConn{failed: true}
	hub.Register(healthy, info("alice", "c1"))
	hub.Register(broken, info("bob", "c2"))

	hub.BroadcastAll(Event{Event: EventUserOnline, Data: PresenceData{UserID: "carol"}})

	broken.mu.Lock()
	closed := broken.closed
	broken.mu.Unlock()
	assert.True(t, closed)
	assert.NotContains(t, hub.OnlineUsers(), "bob")
}

func TestHubSendToUserReachesEveryConnection(t *testing.T) {
	hub := testHub()
	tab1 := &fakeConn{}
	tab2 := &fakeConn{}
	other := &fakeConn{}
	hub.Register(tab1, info("alice", "c1"))
	hub.Register(tab2, info("alice", "c2"))
	hub.Register(other, info("bob", "c3"))

	hub.SendToUser("alice", Event{Event: EventNotification})

	assert.Equal(t, 1, tab1.countEvent(t, EventNotification))
	assert.Equal(t, 1, tab2.countEvent(t, EventNotification))
	assert.Equal(t, 0, other.countEvent(t, EventNotification))
}

func TestHubJoinRequiresRegistration(t *testing.T) {
	hub := testHub()
	stranger := &fakeConn{}

	hub.JoinRoom(stranger, "group_42")

	assert.False(t, hub.InRoom(stranger, "group_42"))
}
