package models

// Notification origin types.
const (
	NotificationDirect = "direct"
	NotificationGroup  = "group"
)

// Notification is the ephemeral in-band event unicast to a recipient's
// personal channel when a message arrives for a conversation they are not
// watching. It is never persisted.
type Notification struct {
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
	Type       string `json:"type"`
	GroupID    string `json:"group_id,omitempty"`
	GroupName  string `json:"group_name,omitempty"`
}
