package router

import (
	"strings"

	"karmabot/pkg/event"
)

// IsCommand reports whether the event invokes /name in either chat kind.
func IsCommand(ev *event.ChatEvent, name string, botUsername string) bool {
	return IsDirectCommand(ev, name) || IsGroupCommand(ev, name, botUsername)
}

// IsDirectCommand matches /name on exact text prefix in a one-on-one chat.
func IsDirectCommand(ev *event.ChatEvent, name string) bool {
	if !ev.IsDirect() || ev.Text == "" {
		return false
	}
	return strings.HasPrefix(ev.Text, "/"+name)
}

// IsGroupCommand matches /name@bot in a group chat. The command entity must
// be the first entity, start the message, and explicitly mention this bot;
// bare commands and commands aimed at other bots do not match.
func IsGroupCommand(ev *event.ChatEvent, name string, botUsername string) bool {
	if !ev.IsGroup() || ev.Text == "" || len(ev.Entities) == 0 {
		return false
	}

	first := ev.Entities[0]
	if first.Offset != 0 || first.Type != event.EntityBotCommand {
		return false
	}
	if first.Length > len(ev.Text) {
		return false
	}

	marker := ev.Text[:first.Length]
	mention := "@" + botUsername
	if !strings.HasSuffix(marker, mention) {
		return false
	}

	return strings.TrimSuffix(marker, mention) == "/"+name
}
