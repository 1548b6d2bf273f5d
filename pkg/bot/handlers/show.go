package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"karmabot/pkg/event"
	"karmabot/pkg/router"
	"karmabot/pkg/telegram"
)

// Scores is the read side of the rating engine.
type Scores interface {
	Score(ctx context.Context, userID int64) (int64, error)
}

// Show replies with the sender's rating, or the rating of the replied-to
// user when the command is sent as a reply.
type Show struct {
	me     event.User
	scores Scores
	sender telegram.Sender
	log    *slog.Logger
}

func NewShow(me event.User, scores Scores, sender telegram.Sender, log *slog.Logger) *Show {
	return &Show{
		me:     me,
		scores: scores,
		sender: sender,
		log:    componentLogger(log, "command.show"),
	}
}

func (h *Show) Name() string { return "command.show" }

func (h *Show) CanHandle(ev *event.ChatEvent) bool {
	return router.IsCommand(ev, "show", h.me.Username)
}

func (h *Show) Handle(ctx context.Context, ev *event.ChatEvent) (bool, error) {
	subject := ev.From
	if ev.ReplyTo != nil {
		subject = ev.ReplyTo.From
	}

	score, err := h.scores.Score(ctx, subject.ID)
	if err != nil {
		return true, err
	}

	_, err = h.sender.SendMessage(ctx, telegram.Outgoing{
		ChatID: ev.ChatID,
		Text:   fmt.Sprintf("Rating of '%s' is %d", subject.FirstName, score),
	})
	return true, err
}
