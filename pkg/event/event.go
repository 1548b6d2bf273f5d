// Package event defines the inbound chat-event data model shared by the
// router, the handlers, and the transport adapter.
package event

import "time"

// ChatKind distinguishes one-on-one chats from group chats.
type ChatKind string

const (
	ChatDirect ChatKind = "direct"
	ChatGroup  ChatKind = "group"
)

// Entity types carried by the transport for marked-up message fragments.
const EntityBotCommand = "bot_command"

// User identifies a chat participant.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	IsBot     bool
}

// DisplayName renders "Last First" when a last name is present, matching
// how the bot mentions users without a public handle.
func (u User) DisplayName() string {
	if u.LastName != "" {
		return u.LastName + " " + u.FirstName
	}
	return u.FirstName
}

// Entity marks a fragment of the message text, for example a bot command.
type Entity struct {
	Type   string
	Offset int
	Length int
}

// ChatEvent is one inbound message. It is immutable once received; handlers
// never mutate it.
type ChatEvent struct {
	MessageID int
	ChatID    int64
	Kind      ChatKind
	From      User
	Text      string

	// StickerEmoji carries the symbolic reaction of an attached sticker
	// when the message has no text.
	StickerEmoji string

	Entities []Entity

	// ReplyTo is the replied-to message, one level deep.
	ReplyTo *ChatEvent

	Time time.Time
}

// IsDirect reports whether the event comes from a one-on-one chat.
func (e *ChatEvent) IsDirect() bool {
	return e != nil && e.Kind == ChatDirect
}

// IsGroup reports whether the event comes from a group chat.
func (e *ChatEvent) IsGroup() bool {
	return e != nil && e.Kind == ChatGroup
}
