package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/samuelsuu/subuzz/internal/ws"
)

// OnlineHandler exposes the presence snapshot over REST, the HTTP sibling
// of the get_online_users socket event.
type OnlineHandler struct {
	hub *ws.Hub
}

// NewOnlineHandler builds an OnlineHandler.
func NewOnlineHandler(hub *ws.Hub) *OnlineHandler {
	return &OnlineHandler{hub: hub}
}

// List returns the ids of currently online users.
func (h *OnlineHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.hub.OnlineUsers()})
}
