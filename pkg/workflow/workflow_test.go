package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := c.values[key]
	return value, ok, nil
}

func (c *memCache) Set(_ context.Context, key, value string, expiry time.Duration) error {
	c.values[key] = value
	c.ttls[key] = expiry
	return nil
}

func (c *memCache) Del(_ context.Context, key string) error {
	delete(c.values, key)
	delete(c.ttls, key)
	return nil
}

func (c *memCache) TTL(_ context.Context, key string) (time.Duration, error) {
	return c.ttls[key], nil
}

func TestMarkAndConsumeRoundTrip(t *testing.T) {
	cache := newMemCache()
	engine := NewEngine(cache, 5*time.Minute, nil)
	ctx := context.Background()

	key := Key{ChatID: 10, MessageID: 42, UserID: 7}
	record := Record{Handler: "command.settings", State: "state_option", Payload: "extra"}

	require.NoError(t, engine.Mark(ctx, key, record))
	assert.Equal(t, 5*time.Minute, cache.ttls["pending:10:42:7"], "record must expire")

	got, found := engine.Consume(ctx, key)
	require.True(t, found)
	assert.Equal(t, record, got)
}

func TestConsumeIsSingleUse(t *testing.T) {
	engine := NewEngine(newMemCache(), time.Minute, nil)
	ctx := context.Background()

	key := Key{ChatID: 10, MessageID: 42, UserID: 7}
	require.NoError(t, engine.Mark(ctx, key, Record{Handler: "h", State: "s"}))

	_, found := engine.Consume(ctx, key)
	require.True(t, found)

	_, found = engine.Consume(ctx, key)
	assert.False(t, found, "a duplicate reply must not resume a second time")
}

func TestConsumeMissingKeyIsNoop(t *testing.T) {
	engine := NewEngine(newMemCache(), time.Minute, nil)

	_, found := engine.Consume(context.Background(), Key{ChatID: 1, MessageID: 2, UserID: 3})
	assert.False(t, found)
}

func TestConsumeMalformedRecordIsMiss(t *testing.T) {
	cache := newMemCache()
	engine := NewEngine(cache, time.Minute, nil)
	ctx := context.Background()

	key := Key{ChatID: 1, MessageID: 2, UserID: 3}
	cache.values[key.cacheKey()] = "{not json"

	_, found := engine.Consume(ctx, key)
	assert.False(t, found)
	assert.Empty(t, cache.values, "malformed record is still consumed")
}

func TestClearDropsRecord(t *testing.T) {
	cache := newMemCache()
	engine := NewEngine(cache, time.Minute, nil)
	ctx := context.Background()

	key := Key{ChatID: 1, MessageID: 2, UserID: 3}
	require.NoError(t, engine.Mark(ctx, key, Record{Handler: "h", State: "s"}))
	require.NoError(t, engine.Clear(ctx, key))

	_, found := engine.Consume(ctx, key)
	assert.False(t, found)
}

func TestKeysAreScopedPerAnchorAndUser(t *testing.T) {
	engine := NewEngine(newMemCache(), time.Minute, nil)
	ctx := context.Background()

	key := Key{ChatID: 1, MessageID: 2, UserID: 3}
	require.NoError(t, engine.Mark(ctx, key, Record{Handler: "h", State: "s"}))

	_, found := engine.Consume(ctx, Key{ChatID: 1, MessageID: 2, UserID: 4})
	assert.False(t, found, "another user's reply must not consume the record")

	_, found = engine.Consume(ctx, Key{ChatID: 1, MessageID: 9, UserID: 3})
	assert.False(t, found, "a reply to another message must not consume the record")
}
