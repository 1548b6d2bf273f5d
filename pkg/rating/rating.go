// Package rating applies signed votes to user scores, gated by a per
// (voter, chat, target) cooldown, and detects the one-time threshold
// achievement.
package rating

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"karmabot/pkg/cache"
	"karmabot/pkg/store"
)

// ErrSelfVote rejects votes where the voter targets themselves.
var ErrSelfVote = errors.New("voting for yourself is not allowed")

// CooldownError rejects a vote issued inside an active cooldown window.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("vote cooldown active for another %d seconds", e.RemainingSeconds())
}

// RemainingSeconds reports the wait rounded up to whole seconds, so an
// active cooldown never reads as a zero-second wait.
func (e *CooldownError) RemainingSeconds() int64 {
	return int64((e.Remaining + time.Second - 1) / time.Second)
}

// Records is the rating persistence contract the engine consumes.
type Records interface {
	FindRating(ctx context.Context, userID int64) (store.Rating, bool, error)
	InsertRating(ctx context.Context, record store.Rating) error
	ApplyRating(ctx context.Context, userID int64, delta int64, achieved bool) error
}

// Result reports the outcome of an accepted vote.
type Result struct {
	// Score is the target's score after the vote.
	Score int64
	// Achieved is true only on the vote that first pushed the score to
	// the threshold.
	Achieved bool
}

// Engine is the rating and cooldown engine.
type Engine struct {
	records   Records
	cache     cache.TTLCache
	timeout   time.Duration
	threshold int64
	log       *slog.Logger
}

// NewEngine builds a rating engine. A non-positive timeout disables
// cooldown enforcement entirely; votes still apply.
func NewEngine(records Records, ttlCache cache.TTLCache, timeout time.Duration, threshold int64, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		records:   records,
		cache:     ttlCache,
		timeout:   timeout,
		threshold: threshold,
		log:       log.With("component", "rating"),
	}
}

// ApplyVote adds delta to the target's score.
//
// Preconditions are checked in order and short-circuit without state
// change: self-votes are rejected first, then an active cooldown. On
// success the cooldown is re-armed for the configured timeout.
func (e *Engine) ApplyVote(ctx context.Context, voterID, targetID, chatID int64, delta int64) (Result, error) {
	if voterID == targetID {
		return Result{}, ErrSelfVote
	}

	key := cooldownKey(voterID, chatID, targetID)

	if e.timeout > 0 {
		remaining, err := e.cache.TTL(ctx, key)
		if err != nil {
			return Result{}, fmt.Errorf("check vote cooldown: %w", err)
		}
		if remaining > 0 {
			return Result{}, &CooldownError{Remaining: remaining}
		}
	}

	result, err := e.change(ctx, targetID, delta)
	if err != nil {
		return Result{}, err
	}

	if e.timeout > 0 {
		if err := e.cache.Set(ctx, key, "0", e.timeout); err != nil {
			// The vote is already applied; a missed cooldown only
			// permits an early next vote.
			e.log.Error("Failed to arm vote cooldown", "key", key, "error", err)
		}
	}
	return result, nil
}

// Score returns the user's current score, 0 when no record exists.
func (e *Engine) Score(ctx context.Context, userID int64) (int64, error) {
	record, found, err := e.records.FindRating(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return record.Score, nil
}

// change performs the read-modify-write on the target's rating record and
// computes the achievement transition. The flag fires only when the record
// did not already carry it and the new score reaches the threshold.
func (e *Engine) change(ctx context.Context, targetID, delta int64) (Result, error) {
	record, found, err := e.records.FindRating(ctx, targetID)
	if err != nil {
		return Result{}, err
	}

	if !found {
		fresh := store.Rating{UserID: targetID, Score: delta}
		fresh.Achieved100 = fresh.Score >= e.threshold
		if err := e.records.InsertRating(ctx, fresh); err != nil {
			return Result{}, err
		}
		return Result{Score: fresh.Score, Achieved: fresh.Achieved100}, nil
	}

	newScore := record.Score + delta
	achieved := !record.Achieved100 && newScore >= e.threshold
	if err := e.records.ApplyRating(ctx, targetID, delta, achieved); err != nil {
		return Result{}, err
	}
	return Result{Score: newScore, Achieved: achieved}, nil
}

func cooldownKey(voterID, chatID, targetID int64) string {
	return fmt.Sprintf("vote_limit:%d:%d:%d", voterID, chatID, targetID)
}
