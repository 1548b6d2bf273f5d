package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"karmabot/pkg/event"
	"karmabot/pkg/router"
	"karmabot/pkg/store"
	"karmabot/pkg/telegram"
	"karmabot/pkg/workflow"
)

// settingsState enumerates the resumable steps of the settings workflow.
// The string tags are what gets persisted in pending-reply records.
type settingsState int

const (
	stateOption settingsState = iota
	stateTimezoneValue
)

const (
	tagOption        = "state_option"
	tagTimezoneValue = "state_timezone_value"
)

func parseSettingsState(tag string) (settingsState, bool) {
	switch tag {
	case tagOption:
		return stateOption, true
	case tagTimezoneValue:
		return stateTimezoneValue, true
	default:
		return 0, false
	}
}

// SettingsStore is the group-settings persistence contract.
type SettingsStore interface {
	Settings(ctx context.Context, chatID int64) (store.GroupSettings, error)
	SetTimezoneOffset(ctx context.Context, chatID int64, minutes int) error
}

// Settings is the multi-step /settings command. The initial invocation asks
// which setting to change via a force-reply prompt; each subsequent user
// turn resumes through the pending-reply workflow.
type Settings struct {
	me       event.User
	sender   telegram.Sender
	pending  *workflow.Engine
	settings SettingsStore
	log      *slog.Logger
}

func NewSettings(me event.User, sender telegram.Sender, pending *workflow.Engine, settings SettingsStore, log *slog.Logger) *Settings {
	return &Settings{
		me:       me,
		sender:   sender,
		pending:  pending,
		settings: settings,
		log:      componentLogger(log, "command.settings"),
	}
}

func (h *Settings) Name() string { return "command.settings" }

func (h *Settings) CanHandle(ev *event.ChatEvent) bool {
	return router.IsCommand(ev, "settings", h.me.Username)
}

// Handle is the workflow entry point, reached directly by the command and
// never via a pending reply.
func (h *Settings) Handle(ctx context.Context, ev *event.ChatEvent) (bool, error) {
	if !ev.IsGroup() {
		return true, h.send(ctx, ev.ChatID, "This command is only available inside a group")
	}

	member, err := h.sender.ChatMember(ctx, ev.ChatID, ev.From.ID)
	if err != nil {
		return true, fmt.Errorf("verify chat owner: %w", err)
	}
	if member.Status != telegram.MemberStatusCreator {
		return true, h.send(ctx, ev.ChatID, "Only the chat owner can change settings")
	}

	return true, h.prompt(ctx, ev,
		"Reply with the setting to change: 'timezone' or 'stat timeout'", tagOption)
}

// Resume continues the workflow at the state carried by the consumed
// pending-reply record.
func (h *Settings) Resume(ctx context.Context, ev *event.ChatEvent, record workflow.Record) error {
	state, known := parseSettingsState(record.State)
	if !known {
		h.log.Warn("Pending reply carries unknown state", "state", record.State)
		return nil
	}

	switch state {
	case stateOption:
		return h.resumeOption(ctx, ev)
	case stateTimezoneValue:
		return h.resumeTimezoneValue(ctx, ev)
	}
	return nil
}

func (h *Settings) resumeOption(ctx context.Context, ev *event.ChatEvent) error {
	// The option prompt served its purpose; remove it to keep the chat
	// tidy. Best-effort.
	if err := h.sender.DeleteMessage(ctx, ev.ChatID, ev.ReplyTo.MessageID); err != nil {
		h.log.Warn("Failed to delete settings prompt", "chat_id", ev.ChatID, "error", err)
	}

	switch strings.ToLower(strings.TrimSpace(ev.Text)) {
	case "timezone":
		current := 0
		settings, err := h.settings.Settings(ctx, ev.ChatID)
		if err != nil {
			h.log.Error("Failed to load group settings", "chat_id", ev.ChatID, "error", err)
		} else if settings.TimezoneOffset != nil {
			current = *settings.TimezoneOffset
		}

		text := fmt.Sprintf("Reply with the chat's offset from UTC in minutes. Current offset is %d", current)
		return h.prompt(ctx, ev, text, tagTimezoneValue)

	case "stat timeout":
		return h.send(ctx, ev.ChatID, "The statistics cooldown is fixed at 48 hours and cannot be changed")

	default:
		return h.send(ctx, ev.ChatID, "Unknown setting. Send /settings to start over")
	}
}

func (h *Settings) resumeTimezoneValue(ctx context.Context, ev *event.ChatEvent) error {
	offset, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if err != nil {
		return h.send(ctx, ev.ChatID, "That doesn't look like a number. Send /settings to start over")
	}

	if err := h.settings.SetTimezoneOffset(ctx, ev.ChatID, offset); err != nil {
		return fmt.Errorf("store timezone offset: %w", err)
	}
	return h.send(ctx, ev.ChatID, "Setting updated.")
}

// prompt sends a force-reply message and anchors the next workflow state to
// it, bound to the user who is driving the flow.
func (h *Settings) prompt(ctx context.Context, ev *event.ChatEvent, text string, stateTag string) error {
	sentID, err := h.sender.SendMessage(ctx, telegram.Outgoing{
		ChatID:     ev.ChatID,
		Text:       text,
		ForceReply: true,
	})
	if err != nil {
		return err
	}

	key := workflow.Key{ChatID: ev.ChatID, MessageID: sentID, UserID: ev.From.ID}
	if err := h.pending.Mark(ctx, key, workflow.Record{Handler: h.Name(), State: stateTag}); err != nil {
		return fmt.Errorf("anchor settings workflow: %w", err)
	}
	return nil
}

func (h *Settings) send(ctx context.Context, chatID int64, text string) error {
	_, err := h.sender.SendMessage(ctx, telegram.Outgoing{ChatID: chatID, Text: text})
	return err
}
