// Package handlers contains the behavior units registered with the router:
// the always-run event handlers and the first-match command handlers.
package handlers

import (
	"context"
	"log/slog"
	"time"

	"karmabot/pkg/event"
)

// Counter is the message-statistics persistence contract.
type Counter interface {
	IncrementMessageCount(ctx context.Context, chatID, userID int64, at time.Time, textLength int) error
}

// Statistics counts group messages per user and UTC day. It runs on every
// group message and never consumes the event.
type Statistics struct {
	me     event.User
	counts Counter
	log    *slog.Logger
}

// NewStatistics builds the statistics counter. me is the bot's own identity;
// its messages are not counted.
func NewStatistics(me event.User, counts Counter, log *slog.Logger) *Statistics {
	return &Statistics{
		me:     me,
		counts: counts,
		log:    componentLogger(log, "event.statistics"),
	}
}

func (h *Statistics) Name() string { return "event.statistics" }

func (h *Statistics) CanHandle(ev *event.ChatEvent) bool {
	return ev.IsGroup()
}

func (h *Statistics) Handle(ctx context.Context, ev *event.ChatEvent) (bool, error) {
	if ev.From.ID == h.me.ID {
		return false, nil
	}

	err := h.counts.IncrementMessageCount(ctx, ev.ChatID, ev.From.ID, ev.Time, len(ev.Text))
	return false, err
}
