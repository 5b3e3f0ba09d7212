package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/samuelsuu/subuzz/internal/models"
)

var ErrSenderNotFound = errors.New("sender profile not found")

// MessageStore abstracts durable message persistence.
type MessageStore interface {
	InsertMessage(ctx context.Context, msg models.NewMessage) (models.Message, error)
}

// MessageRepo is a sqlx implementation of MessageStore.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// InsertMessage stores the message and returns the server-stamped record
// with the sender's profile denormalized onto it.
func (r *MessageRepo) InsertMessage(ctx context.Context, msg models.NewMessage) (models.Message, error) {
	var stored models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, group_id, content, message_type, attachment_url, attachment_name, attachment_size)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING id, sender_id, receiver_id, group_id, content, message_type, attachment_url, attachment_name, attachment_size, is_read, created_at`,
		msg.SenderID, msg.ReceiverID, msg.GroupID, msg.Content, msg.MessageType, msg.AttachmentURL, msg.AttachmentName, msg.AttachmentSize).
		StructScan(&stored)
	if err != nil {
		return models.Message{}, err
	}

	var sender models.Profile
	err = r.db.GetContext(ctx, &sender,
		`SELECT id, username, avatar_url, created_at FROM profiles WHERE id=$1`, msg.SenderID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrSenderNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	stored.Sender = &sender

	return stored, nil
}
