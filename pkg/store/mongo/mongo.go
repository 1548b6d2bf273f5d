// Package mongo adapts a MongoDB database to the document contracts the
// core consumes: ratings, message-count buckets, and group settings.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"karmabot/pkg/config"
	"karmabot/pkg/store"
)

// Store wraps the MongoDB client with the collection operations the engines
// need.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *slog.Logger
}

// Connect opens the MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, cfg config.MongoConfig, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(cfg.Database),
		log:    log.With("component", "store.mongo"),
	}, nil
}

// Close releases the client connections.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// FindRating returns the rating record for userID and whether it exists.
// Absence is a valid state, not an error.
func (s *Store) FindRating(ctx context.Context, userID int64) (store.Rating, bool, error) {
	var record store.Rating
	err := s.db.Collection(store.CollectionRatings).
		FindOne(ctx, bson.M{"userId": userID}).
		Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Rating{}, false, nil
	}
	if err != nil {
		return store.Rating{}, false, fmt.Errorf("find rating for user %d: %w", userID, err)
	}
	return record, true, nil
}

// InsertRating creates the first rating record for a user.
func (s *Store) InsertRating(ctx context.Context, record store.Rating) error {
	_, err := s.db.Collection(store.CollectionRatings).InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("insert rating for user %d: %w", record.UserID, err)
	}
	return nil
}

// ApplyRating increments a user's score, setting the achievement flag when
// the update crossed the threshold.
func (s *Store) ApplyRating(ctx context.Context, userID int64, delta int64, achieved bool) error {
	update := bson.M{"$inc": bson.M{"rating": delta}}
	if achieved {
		update["$set"] = bson.M{"achieved100": true}
	}

	_, err := s.db.Collection(store.CollectionRatings).
		UpdateOne(ctx, bson.M{"userId": userID}, update)
	if err != nil {
		return fmt.Errorf("update rating for user %d: %w", userID, err)
	}
	return nil
}

// IncrementMessageCount bumps the (chat, user, UTC day) bucket by one
// message and the message's text length. The upserted atomic increment
// avoids lost updates between concurrent events.
func (s *Store) IncrementMessageCount(ctx context.Context, chatID, userID int64, at time.Time, textLength int) error {
	filter := bson.M{
		"chatId": chatID,
		"userId": userID,
		"date":   utcDay(at),
	}
	update := bson.M{
		"$inc": bson.M{
			"messagesCnt":    1,
			"messagesLength": textLength,
		},
	}

	_, err := s.db.Collection(store.CollectionMessageCounts).
		UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("increment message count for chat %d user %d: %w", chatID, userID, err)
	}
	return nil
}

// ChatTotals aggregates message counts per user across all day buckets of a
// chat. Order follows store document order, which keeps the leaderboard
// tie-break stable.
func (s *Store) ChatTotals(ctx context.Context, chatID int64) ([]store.UserCount, error) {
	cursor, err := s.db.Collection(store.CollectionMessageCounts).
		Find(ctx, bson.M{"chatId": chatID})
	if err != nil {
		return nil, fmt.Errorf("find message counts for chat %d: %w", chatID, err)
	}
	defer cursor.Close(ctx)

	totals := make([]store.UserCount, 0)
	index := make(map[int64]int)

	for cursor.Next(ctx) {
		var bucket store.MessageCount
		if err := cursor.Decode(&bucket); err != nil {
			return nil, fmt.Errorf("decode message count bucket: %w", err)
		}

		if i, seen := index[bucket.UserID]; seen {
			totals[i].Messages += bucket.Messages
			continue
		}
		index[bucket.UserID] = len(totals)
		totals = append(totals, store.UserCount{UserID: bucket.UserID, Messages: bucket.Messages})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate message counts for chat %d: %w", chatID, err)
	}
	return totals, nil
}

// Settings returns the group settings document for chatID. A missing
// document yields the zero settings for that chat.
func (s *Store) Settings(ctx context.Context, chatID int64) (store.GroupSettings, error) {
	var settings store.GroupSettings
	err := s.db.Collection(store.CollectionGroupSettings).
		FindOne(ctx, bson.M{"chatId": chatID}).
		Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.GroupSettings{ChatID: chatID}, nil
	}
	if err != nil {
		return store.GroupSettings{}, fmt.Errorf("find settings for chat %d: %w", chatID, err)
	}
	return settings, nil
}

// SetSnapshot persists the freshly computed leaderboard snapshot.
func (s *Store) SetSnapshot(ctx context.Context, chatID int64, snapshot map[string]int64) error {
	return s.setSetting(ctx, chatID, bson.M{"prev_stat": snapshot})
}

// SetPinned persists the id of the currently pinned leaderboard message.
func (s *Store) SetPinned(ctx context.Context, chatID int64, messageID int) error {
	return s.setSetting(ctx, chatID, bson.M{"pinnedStatMessageId": messageID})
}

// SetTimezoneOffset persists the chat's UTC offset in minutes.
func (s *Store) SetTimezoneOffset(ctx context.Context, chatID int64, minutes int) error {
	return s.setSetting(ctx, chatID, bson.M{"timezoneOffset": minutes})
}

func (s *Store) setSetting(ctx context.Context, chatID int64, fields bson.M) error {
	_, err := s.db.Collection(store.CollectionGroupSettings).
		UpdateOne(ctx, bson.M{"chatId": chatID}, bson.M{"$set": fields}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("update settings for chat %d: %w", chatID, err)
	}
	return nil
}

// utcDay truncates a timestamp to its UTC midnight, the key of one counting
// bucket.
func utcDay(at time.Time) int64 {
	at = at.UTC()
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC).Unix()
}
