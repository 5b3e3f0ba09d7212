package models

import "time"

// PushSubscription is a web-push endpoint registered by one of a user's devices.
type PushSubscription struct {
	UserID     string    `db:"user_id" json:"user_id"`
	Endpoint   string    `db:"endpoint" json:"endpoint"`
	KeysP256dh string    `db:"keys_p256dh" json:"keys_p256dh"`
	KeysAuth   string    `db:"keys_auth" json:"keys_auth"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PushPayload is the JSON body delivered to the service worker.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
	URL   string `json:"url,omitempty"`
}
