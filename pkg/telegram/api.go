// Package telegram bridges the Telegram Bot API into chat events and
// exposes the outbound operations the handlers consume.
package telegram

import (
	"context"

	"karmabot/pkg/event"
)

// Outgoing describes one message to send.
type Outgoing struct {
	ChatID int64
	Text   string

	// ReplyTo makes the message a reply to an existing message id.
	ReplyTo int

	// ForceReply asks the client to open a reply prompt for the addressed
	// user, anchoring a pending-reply workflow step.
	ForceReply bool

	// HTML enables HTML parse mode for the text.
	HTML bool
}

// Member is the chat-membership view of a user.
type Member struct {
	User   event.User
	Status string
}

// MemberStatusCreator is the status of the chat owner.
const MemberStatusCreator = "creator"

// Sender is the outbound transport surface consumed by handlers. Pin,
// unpin, and delete are best-effort from the callers' perspective.
type Sender interface {
	// SendMessage sends text and returns the new message id.
	SendMessage(ctx context.Context, out Outgoing) (int, error)
	PinMessage(ctx context.Context, chatID int64, messageID int) error
	UnpinMessage(ctx context.Context, chatID int64, messageID int) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// ChatMember fetches membership info for one user of a chat.
	ChatMember(ctx context.Context, chatID int64, userID int64) (Member, error)
}
