// Package workflow implements the pending-reply engine: short-lived,
// single-use continuations that let a command span multiple user turns
// without the process holding state between events.
//
// A record is anchored to a specific outgoing message and the specific user
// expected to reply to it. Resumption is a two-step "look up, then delete"
// over the TTL cache, so a duplicate reply to the same anchor can never
// resume the same step twice. Expiry is owned by the cache; an expired
// record is simply absent.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"karmabot/pkg/cache"
)

// Key addresses one pending continuation.
type Key struct {
	// ChatID is the chat the anchor message was sent to.
	ChatID int64
	// MessageID is the anchor: the message the user must reply to.
	MessageID int
	// UserID is the only user whose reply resumes the workflow.
	UserID int64
}

func (k Key) cacheKey() string {
	return fmt.Sprintf("pending:%d:%d:%d", k.ChatID, k.MessageID, k.UserID)
}

// Record is the serialized continuation.
type Record struct {
	// Handler names the command handler that owns the resume step.
	Handler string `json:"handler"`
	// State is the persisted tag of the handler state to resume at.
	State string `json:"state"`
	// Payload carries optional free-form context across the turn.
	Payload string `json:"payload,omitempty"`
}

// Engine stores and consumes pending-reply records.
type Engine struct {
	cache cache.TTLCache
	ttl   time.Duration
	log   *slog.Logger
}

// NewEngine builds a pending-reply engine. Records live for ttl before the
// workflow is silently abandoned.
func NewEngine(ttlCache cache.TTLCache, ttl time.Duration, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cache: ttlCache,
		ttl:   ttl,
		log:   log.With("component", "workflow"),
	}
}

// Mark registers a continuation for key.
func (e *Engine) Mark(ctx context.Context, key Key, record Record) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode pending reply: %w", err)
	}
	if err := e.cache.Set(ctx, key.cacheKey(), string(encoded), e.ttl); err != nil {
		return fmt.Errorf("store pending reply: %w", err)
	}
	return nil
}

// Consume looks up the continuation for key and deletes it before returning.
// The second return value is false when there is nothing to resume, which
// includes expired and already-consumed records.
func (e *Engine) Consume(ctx context.Context, key Key) (Record, bool) {
	raw, found, err := e.cache.Get(ctx, key.cacheKey())
	if err != nil {
		e.log.Error("Pending-reply lookup failed", "key", key.cacheKey(), "error", err)
		return Record{}, false
	}
	if !found {
		return Record{}, false
	}

	// Delete before dispatching so a duplicate reply resumes at most once.
	if err := e.cache.Del(ctx, key.cacheKey()); err != nil {
		e.log.Error("Pending-reply delete failed", "key", key.cacheKey(), "error", err)
	}

	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		e.log.Error("Pending-reply record is malformed", "key", key.cacheKey(), "error", err)
		return Record{}, false
	}
	return record, true
}

// Clear drops a continuation a handler no longer expects, for example when
// it re-anchors the workflow to a newer outgoing message.
func (e *Engine) Clear(ctx context.Context, key Key) error {
	if err := e.cache.Del(ctx, key.cacheKey()); err != nil {
		return fmt.Errorf("clear pending reply: %w", err)
	}
	return nil
}
