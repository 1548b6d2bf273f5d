// Package store declares the durable document types the core operates on.
// The documents live in named collections owned by the backing store; the
// core never caches them beyond one event's processing.
package store

// Rating is one user's cumulative score ledger entry.
//
// Achieved100 transitions false to true at most once, on the update whose
// resulting score first reaches the achievement threshold. It is never
// reset, so the congratulation fires exactly once per user.
type Rating struct {
	UserID      int64 `bson:"userId"`
	Score       int64 `bson:"rating"`
	Achieved100 bool  `bson:"achieved100,omitempty"`
}

// MessageCount is one per-chat, per-user, per-UTC-day message counter
// bucket. Increment-only.
type MessageCount struct {
	ChatID     int64 `bson:"chatId"`
	UserID     int64 `bson:"userId"`
	Day        int64 `bson:"date"`
	Messages   int64 `bson:"messagesCnt"`
	TextLength int64 `bson:"messagesLength"`
}

// UserCount is a per-user message total aggregated across day buckets,
// returned in store document order.
type UserCount struct {
	UserID   int64
	Messages int64
}

// GroupSettings is the per-chat settings document, upserted field by field.
type GroupSettings struct {
	ChatID int64 `bson:"chatId"`

	// TimezoneOffset is the chat's offset from UTC in minutes.
	TimezoneOffset *int `bson:"timezoneOffset,omitempty"`

	// PinnedStatMessageID is the last pinned leaderboard message.
	PinnedStatMessageID int `bson:"pinnedStatMessageId,omitempty"`

	// PrevStat is the previous leaderboard snapshot keyed by decimal user
	// id, plus a synthetic "total" entry.
	PrevStat map[string]int64 `bson:"prev_stat,omitempty"`
}

// Collection names.
const (
	CollectionRatings       = "user_rating"
	CollectionGroupSettings = "group_settings"
	CollectionMessageCounts = "group_messages_statistic"
)

// SnapshotTotalKey is the synthetic aggregate row persisted alongside
// per-user counts in PrevStat.
const SnapshotTotalKey = "total"
