package models

import "time"

// Notification is addressed to exactly one account.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Type      string    `db:"type" json:"type"`
	Read      bool      `db:"is_read" json:"isRead"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Message is sent by an account to another account or to a whole class.
type Message struct {
	ID         string    `db:"id" json:"id"`
	SenderID   string    `db:"sender_id" json:"senderId"`
	ReceiverID *string   `db:"receiver_id" json:"receiverId,omitempty"`
	ClassID    *string   `db:"class_id" json:"classId,omitempty"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	Read       bool      `db:"is_read" json:"isRead"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
