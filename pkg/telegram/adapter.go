package telegram

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mymmrac/telego"

	"karmabot/pkg/event"
)

// EventHandler processes one converted inbound event.
type EventHandler func(ctx context.Context, ev *event.ChatEvent)

// Adapter runs Telegram long polling and fans updates into the handler.
// Each event is handled in its own goroutine; events carry no cross-event
// ordering guarantee beyond delivery order.
type Adapter struct {
	client *Client
	log    *slog.Logger
}

// NewAdapter wraps a connected client.
func NewAdapter(client *Client, log *slog.Logger) (*Adapter, error) {
	if client == nil {
		return nil, errors.New("client is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		client: client,
		log:    log.With("component", "telegram.adapter"),
	}, nil
}

// Run polls updates until ctx is canceled, then drains in-flight events
// before returning. Cancellation stops intake only: each event runs on a
// context detached from ctx, so handlers mid-flight finish their store and
// cache writes instead of aborting with context.Canceled.
func (a *Adapter) Run(ctx context.Context, handle EventHandler) error {
	if handle == nil {
		return errors.New("handler is required")
	}

	updates, err := a.client.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return err
	}

	a.log.Info("Telegram polling started")

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("telegram updates channel closed")
			}

			ev := fromMessage(update.Message)
			if ev == nil {
				continue
			}

			a.log.Debug("Received message",
				"chat_id", ev.ChatID,
				"message_id", ev.MessageID,
				"sender_id", ev.From.ID,
				"is_reply", ev.ReplyTo != nil)

			a.dispatch(ctx, &inflight, handle, ev)
		}
	}
}

// dispatch hands the event to the handler in its own goroutine, detached
// from the polling context so shutdown cannot cancel it mid-step.
func (a *Adapter) dispatch(ctx context.Context, inflight *sync.WaitGroup, handle EventHandler, ev *event.ChatEvent) {
	evCtx := context.WithoutCancel(ctx)
	inflight.Add(1)
	go func() {
		defer inflight.Done()
		handle(evCtx, ev)
	}()
}

// fromMessage converts a Telegram message into the transport-neutral event
// model. Returns nil for updates the bot does not process (channel posts,
// messages without a sender).
func fromMessage(m *telego.Message) *event.ChatEvent {
	if m == nil || m.From == nil {
		return nil
	}

	kind, ok := chatKind(m.Chat.Type)
	if !ok {
		return nil
	}

	ev := &event.ChatEvent{
		MessageID: m.MessageID,
		ChatID:    m.Chat.ID,
		Kind:      kind,
		From:      fromUser(m.From),
		Text:      m.Text,
		Time:      time.Unix(m.Date, 0).UTC(),
	}

	if m.Sticker != nil {
		ev.StickerEmoji = m.Sticker.Emoji
	}

	for _, entity := range m.Entities {
		ev.Entities = append(ev.Entities, event.Entity{
			Type:   string(entity.Type),
			Offset: entity.Offset,
			Length: entity.Length,
		})
	}

	if m.ReplyToMessage != nil {
		// One level deep: nested replies are not part of the model.
		reply := *m.ReplyToMessage
		reply.ReplyToMessage = nil
		ev.ReplyTo = fromMessage(&reply)
	}

	return ev
}

func fromUser(u *telego.User) event.User {
	return event.User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		IsBot:     u.IsBot,
	}
}

func chatKind(chatType string) (event.ChatKind, bool) {
	switch chatType {
	case telego.ChatTypePrivate:
		return event.ChatDirect, true
	case telego.ChatTypeGroup, telego.ChatTypeSupergroup:
		return event.ChatGroup, true
	default:
		return "", false
	}
}
