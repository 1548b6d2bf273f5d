package rating

import (
	"strings"

	"karmabot/pkg/config"
)

// Reaction binds one textual or pictographic token to a signed delta.
type Reaction struct {
	Token string
	Delta int64
}

// ReactionsFromConfig converts the configured (token, delta) pairs into the
// immutable classification list, preserving order.
func ReactionsFromConfig(pairs []config.ReactionConfig) []Reaction {
	reactions := make([]Reaction, 0, len(pairs))
	for _, pair := range pairs {
		reactions = append(reactions, Reaction{Token: pair.Token, Delta: pair.Delta})
	}
	return reactions
}

// Classify maps message text to a vote delta by checking, in list order,
// whether the trimmed text starts with a reaction token. First match wins.
// No match means the message is not a vote.
func Classify(text string, reactions []Reaction) (int64, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, false
	}

	for _, reaction := range reactions {
		if strings.HasPrefix(trimmed, reaction.Token) {
			return reaction.Delta, true
		}
	}
	return 0, false
}
