package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/samuelsuu/subuzz/internal/identity"
	"github.com/samuelsuu/subuzz/internal/mocks"
	"github.com/samuelsuu/subuzz/internal/telemetry"
)

func newTestServer(t *testing.T, verifier *mocks.VerifierMock) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := testHub()
	groups := new(mocks.GroupStoreMock)
	messages := new(mocks.MessageStoreMock)
	audit := telemetry.NewAuditEmitter(zerolog.Nop(), nil, "audit.relay", "test", "test")
	router := testRouter(hub, messages)
	membership := NewMembership(hub, groups, audit, zerolog.Nop())
	handler := NewHandler(hub, verifier, membership, router, audit, zerolog.Nop(), time.Second)

	engine := gin.New()
	engine.GET("/ws", handler.Handle)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv, hub
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var event Event
	require.NoError(t, json.Unmarshal(payload, &event))
	return event
}

func TestHandleRejectsInvalidToken(t *testing.T) {
	verifier := new(mocks.VerifierMock)
	verifier.On("VerifyToken", mock.Anything, "bad").
		Return(identity.User{}, identity.ErrInvalidToken).Once()
	srv, _ := newTestServer(t, verifier)

	header := http.Header{"Authorization": {"Bearer bad"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	if conn != nil {
		conn.Close()
	}
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	verifier.AssertExpectations(t)
}

func TestHandleUnavailableIdentityProvider(t *testing.T) {
	verifier := new(mocks.VerifierMock)
	verifier.On("VerifyToken", mock.Anything, "tok").
		Return(identity.User{}, assert.AnError).Once()
	srv, _ := newTestServer(t, verifier)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token=tok", nil)
	if conn != nil {
		conn.Close()
	}
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandleConnectAndQueryOnlineUsers(t *testing.T) {
	verifier := new(mocks.VerifierMock)
	verifier.On("VerifyToken", mock.Anything, "good").
		Return(identity.User{ID: "alice", Username: "alice"}, nil).Once()
	srv, hub := newTestServer(t, verifier)

	header := http.Header{"Authorization": {"Bearer good"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	// Registration broadcasts our own online transition first.
	event := readEvent(t, conn)
	assert.Equal(t, EventUserOnline, event.Event)

	require.NoError(t, conn.WriteJSON(map[string]any{"event": EventGetOnlineUsers}))

	event = readEvent(t, conn)
	require.Equal(t, EventOnlineUsers, event.Event)

	raw, err := json.Marshal(event.Data)
	require.NoError(t, err)
	var data OnlineUsersData
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.Equal(t, []string{"alice"}, data.Users)

	assert.True(t, hub.IsOnline("alice"))
	verifier.AssertExpectations(t)
}

func TestHandleTokenFromQueryParameter(t *testing.T) {
	verifier := new(mocks.VerifierMock)
	verifier.On("VerifyToken", mock.Anything, "qtok").
		Return(identity.User{ID: "bob", Username: "bob"}, nil).Once()
	srv, hub := newTestServer(t, verifier)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token=qtok", nil)
	require.NoError(t, err)
	defer conn.Close()

	event := readEvent(t, conn)
	assert.Equal(t, EventUserOnline, event.Event)
	assert.True(t, hub.IsOnline("bob"))
}
