package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"karmabot/pkg/event"
	"karmabot/pkg/router"
	"karmabot/pkg/telegram"
)

const helpText = `<b>What is this bot for?</b>

This bot is made for groups. It lets you like and dislike other people's messages, and it keeps per-user message statistics for the group.

<b>How do I use it?</b>

Just reply to someone's message. If your reply starts with '+' or '👍' the user gains one rating point; if it starts with '-' or '👎' they lose one.

You can vote for the same user at most once per minute.

<b>Available commands</b>

/help%[1]s - show this help
/show%[1]s - show your rating; send it as a reply to see another user's rating
/stat%[1]s - show the all-time chat statistics (at most once per 48 hours)`

// Help replies with the static usage text.
type Help struct {
	me     event.User
	sender telegram.Sender
	log    *slog.Logger
}

func NewHelp(me event.User, sender telegram.Sender, log *slog.Logger) *Help {
	return &Help{
		me:     me,
		sender: sender,
		log:    componentLogger(log, "command.help"),
	}
}

func (h *Help) Name() string { return "command.help" }

func (h *Help) CanHandle(ev *event.ChatEvent) bool {
	return router.IsCommand(ev, "help", h.me.Username)
}

func (h *Help) Handle(ctx context.Context, ev *event.ChatEvent) (bool, error) {
	suffix := ""
	if ev.IsGroup() {
		suffix = "@" + h.me.Username
	}

	_, err := h.sender.SendMessage(ctx, telegram.Outgoing{
		ChatID: ev.ChatID,
		Text:   fmt.Sprintf(helpText, suffix),
		HTML:   true,
	})
	return true, err
}
