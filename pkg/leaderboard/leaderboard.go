// Package leaderboard renders the ranked per-user message statistics of a
// chat, diffs the result against the previous snapshot, and maintains the
// single pinned leaderboard message per chat.
package leaderboard

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"karmabot/pkg/cache"
	"karmabot/pkg/event"
	"karmabot/pkg/store"
	"karmabot/pkg/telegram"
)

// Stats supplies aggregated message counts.
type Stats interface {
	ChatTotals(ctx context.Context, chatID int64) ([]store.UserCount, error)
}

// Settings supplies and persists per-chat leaderboard bookkeeping.
type Settings interface {
	Settings(ctx context.Context, chatID int64) (store.GroupSettings, error)
	SetSnapshot(ctx context.Context, chatID int64, snapshot map[string]int64) error
	SetPinned(ctx context.Context, chatID int64, messageID int) error
}

// Renderer builds and publishes leaderboard messages.
type Renderer struct {
	stats    Stats
	settings Settings
	sender   telegram.Sender
	cache    cache.TTLCache
	timeout  time.Duration
	log      *slog.Logger
}

// NewRenderer builds a leaderboard renderer. A non-positive timeout
// disables the command cooldown.
func NewRenderer(stats Stats, settings Settings, sender telegram.Sender, ttlCache cache.TTLCache, timeout time.Duration, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{
		stats:    stats,
		settings: settings,
		sender:   sender,
		cache:    ttlCache,
		timeout:  timeout,
		log:      log.With("component", "leaderboard"),
	}
}

// Render publishes the chat leaderboard, replying with the remaining wait
// time instead when the command cooldown is still active. requestMessageID
// is the id of the triggering command message.
func (r *Renderer) Render(ctx context.Context, chatID int64, requestMessageID int) error {
	key := cooldownKey(chatID)

	remaining, err := r.cache.TTL(ctx, key)
	if err != nil {
		return fmt.Errorf("check stat cooldown: %w", err)
	}
	if remaining > 0 {
		_, err := r.sender.SendMessage(ctx, telegram.Outgoing{
			ChatID:  chatID,
			Text:    fmt.Sprintf("Next use is available in %s", FormatDuration(remaining)),
			ReplyTo: requestMessageID,
		})
		return err
	}

	totals, err := r.stats.ChatTotals(ctx, chatID)
	if err != nil {
		return fmt.Errorf("aggregate chat statistics: %w", err)
	}

	// Stable keeps store document order among equal counts.
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Messages > totals[j].Messages
	})

	settings, err := r.settings.Settings(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load group settings: %w", err)
	}

	text, snapshot := r.compose(ctx, chatID, totals, settings.PrevStat)

	if err := r.settings.SetSnapshot(ctx, chatID, snapshot); err != nil {
		r.log.Error("Failed to persist leaderboard snapshot", "chat_id", chatID, "error", err)
	}

	sentID, err := r.sender.SendMessage(ctx, telegram.Outgoing{
		ChatID:  chatID,
		Text:    text,
		ReplyTo: settings.PinnedStatMessageID,
		HTML:    true,
	})
	if err != nil {
		return fmt.Errorf("send leaderboard: %w", err)
	}

	r.repin(ctx, chatID, settings.PinnedStatMessageID, sentID)

	if r.timeout > 0 {
		if err := r.cache.Set(ctx, key, "0", r.timeout); err != nil {
			r.log.Error("Failed to arm stat cooldown", "chat_id", chatID, "error", err)
		}
	}
	return nil
}

// compose renders the ranked rows and returns the text plus the snapshot to
// persist for the next diff. Users the transport can no longer resolve are
// skipped; bots are excluded entirely.
func (r *Renderer) compose(ctx context.Context, chatID int64, totals []store.UserCount, previous map[string]int64) (string, map[string]int64) {
	var b strings.Builder
	b.WriteString("<b>All-time message statistics</b>\n")

	snapshot := make(map[string]int64, len(totals)+1)
	var total int64
	rank := 1

	for _, row := range totals {
		member, err := r.sender.ChatMember(ctx, chatID, row.UserID)
		if err != nil {
			r.log.Warn("Skipping unresolvable member", "chat_id", chatID, "user_id", row.UserID, "error", err)
			continue
		}
		if member.User.IsBot {
			continue
		}

		userKey := strconv.FormatInt(row.UserID, 10)
		snapshot[userKey] = row.Messages
		total += row.Messages

		fmt.Fprintf(&b, "\n%d. %s: <i>%d</i>%s %s",
			rank, mention(member.User), row.Messages, positiveDelta(previous, userKey, row.Messages), rankEmoji(rank))
		rank++
	}

	snapshot[store.SnapshotTotalKey] = total

	fmt.Fprintf(&b, "\n\nTotal messages: %d%s", total, positiveDelta(previous, store.SnapshotTotalKey, total))
	return b.String(), snapshot
}

// repin moves the pin to the freshly sent message. Unpin and pin failures
// are logged but never block persisting the new pinned id.
func (r *Renderer) repin(ctx context.Context, chatID int64, oldID, newID int) {
	if oldID != 0 {
		if err := r.sender.UnpinMessage(ctx, chatID, oldID); err != nil {
			r.log.Warn("Failed to unpin previous leaderboard", "chat_id", chatID, "message_id", oldID, "error", err)
		}
	}

	if err := r.sender.PinMessage(ctx, chatID, newID); err != nil {
		r.log.Warn("Failed to pin leaderboard", "chat_id", chatID, "message_id", newID, "error", err)
	}

	if err := r.settings.SetPinned(ctx, chatID, newID); err != nil {
		r.log.Error("Failed to persist pinned leaderboard id", "chat_id", chatID, "error", err)
	}
}

// mention prefers the public handle and falls back to a deep link with the
// escaped display name.
func mention(user event.User) string {
	if user.Username != "" {
		return "@" + user.Username
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, user.ID, html.EscapeString(user.DisplayName()))
}

// positiveDelta renders the growth since the previous snapshot. Decreases
// and first-seen users produce no delta at all.
func positiveDelta(previous map[string]int64, key string, current int64) string {
	before, seen := previous[key]
	if !seen {
		return ""
	}
	if delta := current - before; delta > 0 {
		return fmt.Sprintf(" (+%d)", delta)
	}
	return ""
}

func rankEmoji(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return ""
	}
}

func cooldownKey(chatID int64) string {
	return fmt.Sprintf("command_ttl:stat:%d", chatID)
}

// FormatDuration renders a duration as "H h. M min. S sec.", omitting zero
// components.
func FormatDuration(d time.Duration) string {
	seconds := int64(d.Seconds())
	if seconds <= 0 {
		return "0 sec."
	}

	parts := make([]string, 0, 3)
	if hours := seconds / 3600; hours > 0 {
		parts = append(parts, fmt.Sprintf("%d h.", hours))
	}
	if minutes := (seconds / 60) % 60; minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d min.", minutes))
	}
	if secs := seconds % 60; secs > 0 {
		parts = append(parts, fmt.Sprintf("%d sec.", secs))
	}
	return strings.Join(parts, " ")
}
