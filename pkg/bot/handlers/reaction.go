package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"karmabot/pkg/event"
	"karmabot/pkg/rating"
	"karmabot/pkg/telegram"
)

// Reaction turns reply messages starting with a vote token into rating
// updates. It is an event handler: a non-vote reply simply falls through to
// the command handlers.
type Reaction struct {
	engine    *rating.Engine
	reactions []rating.Reaction
	sender    telegram.Sender
	log       *slog.Logger
}

// NewReaction builds the vote reactor with the immutable reaction list.
func NewReaction(engine *rating.Engine, reactions []rating.Reaction, sender telegram.Sender, log *slog.Logger) *Reaction {
	return &Reaction{
		engine:    engine,
		reactions: reactions,
		sender:    sender,
		log:       componentLogger(log, "event.reaction"),
	}
}

func (h *Reaction) Name() string { return "event.reaction" }

func (h *Reaction) CanHandle(ev *event.ChatEvent) bool {
	return ev.IsGroup() && ev.ReplyTo != nil && (ev.Text != "" || ev.StickerEmoji != "")
}

func (h *Reaction) Handle(ctx context.Context, ev *event.ChatEvent) (bool, error) {
	text := ev.Text
	if text == "" {
		text = ev.StickerEmoji
	}

	delta, isVote := rating.Classify(text, h.reactions)
	if !isVote {
		return false, nil
	}

	target := ev.ReplyTo.From
	result, err := h.engine.ApplyVote(ctx, ev.From.ID, target.ID, ev.ChatID, delta)

	var cooldown *rating.CooldownError
	switch {
	case errors.Is(err, rating.ErrSelfVote):
		return false, h.reply(ctx, ev, "You can't vote for yourself", false)
	case errors.As(err, &cooldown):
		text := fmt.Sprintf("Not so fast. Wait <b>%d</b> sec.", cooldown.RemainingSeconds())
		return false, h.reply(ctx, ev, text, true)
	case err != nil:
		return false, err
	}

	if err := h.reply(ctx, ev, fmt.Sprintf("Rating of '%s' is now %d", target.FirstName, result.Score), false); err != nil {
		return false, err
	}

	if result.Achieved {
		text := fmt.Sprintf("Congratulations, '%s' just crossed the 100 rating mark! And what have you achieved?!", target.FirstName)
		return false, h.reply(ctx, ev, text, false)
	}
	return false, nil
}

func (h *Reaction) reply(ctx context.Context, ev *event.ChatEvent, text string, asHTML bool) error {
	_, err := h.sender.SendMessage(ctx, telegram.Outgoing{
		ChatID: ev.ChatID,
		Text:   text,
		HTML:   asHTML,
	})
	return err
}
