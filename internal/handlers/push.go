package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/samuelsuu/subuzz/internal/models"
	"github.com/samuelsuu/subuzz/internal/store"
)

// PushHandler manages push subscription registration.
type PushHandler struct {
	subs   store.PushStore
	logger zerolog.Logger
}

// NewPushHandler builds a PushHandler.
func NewPushHandler(subs store.PushStore, logger zerolog.Logger) *PushHandler {
	return &PushHandler{subs: subs, logger: logger}
}

type subscribeRequest struct {
	Subscription struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256dh string `json:"p256dh" binding:"required"`
			Auth   string `json:"auth" binding:"required"`
		} `json:"keys" binding:"required"`
	} `json:"subscription" binding:"required"`
}

// Subscribe upserts a push endpoint for the authenticated user's device.
func (h *PushHandler) Subscribe(c *gin.Context) {
	userID := c.GetString("userID")

	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription"})
		return
	}

	sub := models.PushSubscription{
		UserID:     userID,
		Endpoint:   req.Subscription.Endpoint,
		KeysP256dh: req.Subscription.Keys.P256dh,
		KeysAuth:   req.Subscription.Keys.Auth,
	}
	if err := h.subs.UpsertSubscription(c.Request.Context(), sub); err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("push subscription save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
