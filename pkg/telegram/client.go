package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"karmabot/pkg/event"
)

// Client implements Sender over the Telegram Bot API.
type Client struct {
	bot *telego.Bot
	log *slog.Logger
}

// NewClient validates the token and constructs the API client.
func NewClient(token string, log *slog.Logger) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("telegram.token is required")
	}
	if log == nil {
		log = slog.Default()
	}

	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	return &Client{
		bot: bot,
		log: log.With("component", "telegram.client"),
	}, nil
}

// Me fetches the bot's own identity. Called once at startup.
func (c *Client) Me(ctx context.Context) (event.User, error) {
	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return event.User{}, fmt.Errorf("get bot identity: %w", err)
	}
	return event.User{
		ID:        me.ID,
		FirstName: me.FirstName,
		Username:  me.Username,
		IsBot:     me.IsBot,
	}, nil
}

// SendMessage sends text and returns the new message id.
func (c *Client) SendMessage(ctx context.Context, out Outgoing) (int, error) {
	params := tu.Message(tu.ID(out.ChatID), out.Text)
	if out.HTML {
		params = params.WithParseMode(telego.ModeHTML)
	}
	if out.ReplyTo != 0 {
		params = params.WithReplyParameters(&telego.ReplyParameters{MessageID: out.ReplyTo})
	}
	if out.ForceReply {
		params = params.WithReplyMarkup(&telego.ForceReply{ForceReply: true, Selective: true})
	}

	sent, err := c.bot.SendMessage(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("send message to chat %d: %w", out.ChatID, err)
	}
	return sent.MessageID, nil
}

// PinMessage pins a message without notifying the chat.
func (c *Client) PinMessage(ctx context.Context, chatID int64, messageID int) error {
	err := c.bot.PinChatMessage(ctx, &telego.PinChatMessageParams{
		ChatID:              tu.ID(chatID),
		MessageID:           messageID,
		DisableNotification: true,
	})
	if err != nil {
		return fmt.Errorf("pin message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// UnpinMessage unpins a previously pinned message.
func (c *Client) UnpinMessage(ctx context.Context, chatID int64, messageID int) error {
	err := c.bot.UnpinChatMessage(ctx, &telego.UnpinChatMessageParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("unpin message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// DeleteMessage removes a message the bot sent.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	err := c.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("delete message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// ChatMember fetches membership info for one user of a chat.
func (c *Client) ChatMember(ctx context.Context, chatID int64, userID int64) (Member, error) {
	member, err := c.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: userID,
	})
	if err != nil {
		return Member{}, fmt.Errorf("get member %d of chat %d: %w", userID, chatID, err)
	}

	user := member.MemberUser()
	return Member{
		User: event.User{
			ID:        user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Username:  user.Username,
			IsBot:     user.IsBot,
		},
		Status: member.MemberStatus(),
	}, nil
}
