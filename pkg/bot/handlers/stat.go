package handlers

import (
	"context"
	"log/slog"

	"karmabot/pkg/event"
	"karmabot/pkg/leaderboard"
	"karmabot/pkg/router"
)

// Stat publishes the chat leaderboard. Group-only: aggregating and pinning
// have no meaning in a direct chat.
type Stat struct {
	me       event.User
	renderer *leaderboard.Renderer
	log      *slog.Logger
}

func NewStat(me event.User, renderer *leaderboard.Renderer, log *slog.Logger) *Stat {
	return &Stat{
		me:       me,
		renderer: renderer,
		log:      componentLogger(log, "command.stat"),
	}
}

func (h *Stat) Name() string { return "command.stat" }

func (h *Stat) CanHandle(ev *event.ChatEvent) bool {
	return router.IsGroupCommand(ev, "stat", h.me.Username)
}

func (h *Stat) Handle(ctx context.Context, ev *event.ChatEvent) (bool, error) {
	return true, h.renderer.Render(ctx, ev.ChatID, ev.MessageID)
}
