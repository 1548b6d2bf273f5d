package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karmabot/pkg/event"
)

type countCall struct {
	chatID     int64
	userID     int64
	at         time.Time
	textLength int
}

type stubCounter struct {
	calls []countCall
}

func (c *stubCounter) IncrementMessageCount(_ context.Context, chatID, userID int64, at time.Time, textLength int) error {
	c.calls = append(c.calls, countCall{chatID: chatID, userID: userID, at: at, textLength: textLength})
	return nil
}

func TestStatisticsCountsGroupMessages(t *testing.T) {
	counter := &stubCounter{}
	handler := NewStatistics(botUser, counter, nil)

	ev := groupMessage(ann, "hello there")
	require.True(t, handler.CanHandle(ev))

	consumed, err := handler.Handle(context.Background(), ev)
	require.NoError(t, err)

	assert.False(t, consumed, "statistics never consumes the event")
	require.Len(t, counter.calls, 1)
	assert.Equal(t, countCall{chatID: 10, userID: ann.ID, at: ev.Time, textLength: len("hello there")}, counter.calls[0])
}

func TestStatisticsSkipsOwnMessages(t *testing.T) {
	counter := &stubCounter{}
	handler := NewStatistics(botUser, counter, nil)

	_, err := handler.Handle(context.Background(), groupMessage(botUser, "pinned the leaderboard"))
	require.NoError(t, err)
	assert.Empty(t, counter.calls)
}

func TestStatisticsIgnoresDirectChats(t *testing.T) {
	handler := NewStatistics(botUser, &stubCounter{}, nil)

	ev := groupMessage(ann, "hi")
	ev.Kind = event.ChatDirect
	assert.False(t, handler.CanHandle(ev))
}
