package models

import "time"

// Profile is the public user profile denormalized onto broadcast messages.
type Profile struct {
	ID        string    `db:"id" json:"id"`
	Username  *string   `db:"username" json:"username"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Message is the persisted, server-stamped message record. Exactly one of
// ReceiverID and GroupID is set.
type Message struct {
	ID             string    `db:"id" json:"id"`
	SenderID       string    `db:"sender_id" json:"sender_id"`
	ReceiverID     *string   `db:"receiver_id" json:"receiver_id"`
	GroupID        *string   `db:"group_id" json:"group_id"`
	Content        *string   `db:"content" json:"content"`
	MessageType    string    `db:"message_type" json:"message_type"`
	AttachmentURL  *string   `db:"attachment_url" json:"attachment_url"`
	AttachmentName *string   `db:"attachment_name" json:"attachment_name"`
	AttachmentSize *int64    `db:"attachment_size" json:"attachment_size"`
	IsRead         bool      `db:"is_read" json:"is_read"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`

	Sender *Profile `db:"-" json:"sender,omitempty"`
}

// NewMessage is the validated insert request handed to the data layer.
type NewMessage struct {
	SenderID       string
	ReceiverID     *string
	GroupID        *string
	Content        *string
	MessageType    string
	AttachmentURL  *string
	AttachmentName *string
	AttachmentSize *int64
}

// IsGroup reports whether the message targets a group.
func (m NewMessage) IsGroup() bool {
	return m.GroupID != nil && *m.GroupID != ""
}
