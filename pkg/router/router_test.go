package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karmabot/pkg/event"
	"karmabot/pkg/workflow"
)

type memCache struct {
	values map[string]string
}

func newMemCache() *memCache {
	return &memCache{values: make(map[string]string)}
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := c.values[key]
	return value, ok, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.values[key] = value
	return nil
}

func (c *memCache) Del(_ context.Context, key string) error {
	delete(c.values, key)
	return nil
}

func (c *memCache) TTL(_ context.Context, _ string) (time.Duration, error) {
	return 0, nil
}

type stubHandler struct {
	name    string
	matches bool
	handled int
	resumed []workflow.Record
	err     error
	panics  bool
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) CanHandle(*event.ChatEvent) bool { return h.matches }

func (h *stubHandler) Handle(context.Context, *event.ChatEvent) (bool, error) {
	h.handled++
	if h.panics {
		panic("boom")
	}
	return true, h.err
}

func (h *stubHandler) Resume(_ context.Context, _ *event.ChatEvent, record workflow.Record) error {
	h.resumed = append(h.resumed, record)
	return h.err
}

func groupEvent() *event.ChatEvent {
	return &event.ChatEvent{
		MessageID: 100,
		ChatID:    10,
		Kind:      event.ChatGroup,
		From:      event.User{ID: 1, FirstName: "Ann"},
		Text:      "hello",
	}
}

func newTestRouter(cache *memCache) (*Router, *workflow.Engine) {
	pending := workflow.NewEngine(cache, time.Minute, nil)
	return New(pending, nil), pending
}

func TestAllMatchingEventHandlersRun(t *testing.T) {
	router, _ := newTestRouter(newMemCache())

	first := &stubHandler{name: "event.a", matches: true}
	second := &stubHandler{name: "event.b", matches: true}
	skipped := &stubHandler{name: "event.c", matches: false}
	router.RegisterEvent(first)
	router.RegisterEvent(second)
	router.RegisterEvent(skipped)

	router.Route(context.Background(), groupEvent())

	assert.Equal(t, 1, first.handled)
	assert.Equal(t, 1, second.handled)
	assert.Zero(t, skipped.handled)
}

func TestEventHandlerFailureDoesNotStopOthers(t *testing.T) {
	router, _ := newTestRouter(newMemCache())

	failing := &stubHandler{name: "event.fail", matches: true, err: errors.New("nope")}
	panicking := &stubHandler{name: "event.panic", matches: true, panics: true}
	last := &stubHandler{name: "event.ok", matches: true}
	router.RegisterEvent(failing)
	router.RegisterEvent(panicking)
	router.RegisterEvent(last)

	router.Route(context.Background(), groupEvent())

	assert.Equal(t, 1, last.handled, "later handlers still run")
}

func TestFirstMatchingCommandWins(t *testing.T) {
	router, _ := newTestRouter(newMemCache())

	miss := &stubHandler{name: "command.a", matches: false}
	first := &stubHandler{name: "command.b", matches: true}
	shadowed := &stubHandler{name: "command.c", matches: true}
	router.RegisterCommand(miss)
	router.RegisterCommand(first)
	router.RegisterCommand(shadowed)

	router.Route(context.Background(), groupEvent())

	assert.Equal(t, 1, first.handled)
	assert.Zero(t, shadowed.handled, "command dispatch is first-match-wins")
}

func TestPendingReplyResumesOwningHandler(t *testing.T) {
	cache := newMemCache()
	router, pending := newTestRouter(cache)
	ctx := context.Background()

	owner := &stubHandler{name: "command.settings"}
	router.RegisterCommand(owner)

	record := workflow.Record{Handler: "command.settings", State: "state_option", Payload: "p"}
	key := workflow.Key{ChatID: 10, MessageID: 55, UserID: 1}
	require.NoError(t, pending.Mark(ctx, key, record))

	ev := groupEvent()
	ev.ReplyTo = &event.ChatEvent{MessageID: 55, ChatID: 10, From: event.User{ID: 99}}

	router.Route(ctx, ev)
	require.Len(t, owner.resumed, 1)
	assert.Equal(t, record, owner.resumed[0])
	assert.Zero(t, owner.handled, "resume must not go through Handle")

	// The identical duplicate reply must be a no-op.
	router.Route(ctx, ev)
	assert.Len(t, owner.resumed, 1)
}

func TestMatchedCommandShadowsPendingReply(t *testing.T) {
	cache := newMemCache()
	router, pending := newTestRouter(cache)
	ctx := context.Background()

	command := &stubHandler{name: "command.show", matches: true}
	owner := &stubHandler{name: "command.settings"}
	router.RegisterCommand(command)
	router.RegisterCommand(owner)

	key := workflow.Key{ChatID: 10, MessageID: 55, UserID: 1}
	require.NoError(t, pending.Mark(ctx, key, workflow.Record{Handler: "command.settings", State: "s"}))

	ev := groupEvent()
	ev.ReplyTo = &event.ChatEvent{MessageID: 55, ChatID: 10, From: event.User{ID: 99}}

	router.Route(ctx, ev)

	assert.Equal(t, 1, command.handled)
	assert.Empty(t, owner.resumed, "a matched command preempts the workflow lookup")
}

func TestUnmatchedEventIsSilentNoop(t *testing.T) {
	router, _ := newTestRouter(newMemCache())
	router.RegisterCommand(&stubHandler{name: "command.a", matches: false})

	// No reply target, no match: nothing should happen.
	router.Route(context.Background(), groupEvent())
}

func TestPendingReplyForNonResumerIsDropped(t *testing.T) {
	cache := newMemCache()
	pending := workflow.NewEngine(cache, time.Minute, nil)
	router := New(pending, nil)
	ctx := context.Background()

	// plainHandler does not implement Resumer.
	router.RegisterCommand(plainHandler{})

	key := workflow.Key{ChatID: 10, MessageID: 55, UserID: 1}
	require.NoError(t, pending.Mark(ctx, key, workflow.Record{Handler: "command.plain", State: "s"}))

	ev := groupEvent()
	ev.ReplyTo = &event.ChatEvent{MessageID: 55, ChatID: 10, From: event.User{ID: 99}}

	router.Route(ctx, ev)
	assert.Empty(t, cache.values, "record is consumed even when nothing can resume it")
}

type plainHandler struct{}

func (plainHandler) Name() string                    { return "command.plain" }
func (plainHandler) CanHandle(*event.ChatEvent) bool { return false }
func (plainHandler) Handle(context.Context, *event.ChatEvent) (bool, error) {
	return false, nil
}
