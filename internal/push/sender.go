package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/samuelsuu/subuzz/internal/models"
)

// ErrGone marks an endpoint the push service reports as permanently invalid;
// callers should drop the subscription.
var ErrGone = errors.New("push endpoint gone")

// Sender delivers a payload to a single push endpoint.
type Sender interface {
	Send(ctx context.Context, sub models.PushSubscription, payload models.PushPayload) error
}

// WebPushSender sends VAPID-signed web-push messages.
type WebPushSender struct {
	options webpush.Options
}

// NewWebPushSender constructs a sender with the service's VAPID key pair.
func NewWebPushSender(subscriber, publicKey, privateKey string) *WebPushSender {
	return &WebPushSender{
		options: webpush.Options{
			Subscriber:      subscriber,
			VAPIDPublicKey:  publicKey,
			VAPIDPrivateKey: privateKey,
			TTL:             60,
		},
	}
}

// Enabled reports whether VAPID keys are configured.
func (s *WebPushSender) Enabled() bool {
	return s.options.VAPIDPublicKey != "" && s.options.VAPIDPrivateKey != ""
}

// Send pushes the payload to the subscription's endpoint. A 404/410 response
// maps to ErrGone.
func (s *WebPushSender) Send(ctx context.Context, sub models.PushSubscription, payload models.PushPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.KeysP256dh,
			Auth:   sub.KeysAuth,
		},
	}

	opts := s.options
	resp, err := webpush.SendNotificationWithContext(ctx, body, target, &opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service: unexpected status %d", resp.StatusCode)
	}
	return nil
}

var _ Sender = (*WebPushSender)(nil)
