// Package bot wires the transport, stores, engines, and handlers into a
// running service.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"karmabot/pkg/bot/handlers"
	"karmabot/pkg/cache/redis"
	"karmabot/pkg/config"
	"karmabot/pkg/leaderboard"
	"karmabot/pkg/rating"
	"karmabot/pkg/router"
	"karmabot/pkg/store/mongo"
	"karmabot/pkg/telegram"
	"karmabot/pkg/workflow"
)

// Service is the assembled bot.
type Service struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *mongo.Store
	cache   *redis.Cache
	adapter *telegram.Adapter
	router  *router.Router
}

// New connects all collaborators and registers the handlers. Any connection
// failure here is fatal: the caller is expected to terminate rather than
// run degraded.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}
	serviceLog := log.With("component", "bot")

	documents, err := mongo.Connect(ctx, cfg.Mongo, log)
	if err != nil {
		return nil, err
	}
	serviceLog.Info("Mongo connected", "database", cfg.Mongo.Database)

	ttlCache, err := redis.Connect(ctx, cfg.Redis, log)
	if err != nil {
		return nil, err
	}
	serviceLog.Info("Redis connected", "addr", cfg.Redis.Addr)

	client, err := telegram.NewClient(cfg.Telegram.Token, log)
	if err != nil {
		return nil, err
	}

	me, err := client.Me(ctx)
	if err != nil {
		return nil, err
	}
	serviceLog.Info("Bot identity obtained", "id", me.ID, "username", me.Username)

	adapter, err := telegram.NewAdapter(client, log)
	if err != nil {
		return nil, err
	}

	pending := workflow.NewEngine(ttlCache, seconds(cfg.Commands.ReplyTimeoutSeconds), log)
	votes := rating.NewEngine(documents, ttlCache, seconds(cfg.Vote.TimeoutSeconds), cfg.Vote.Threshold, log)
	board := leaderboard.NewRenderer(documents, documents, client, ttlCache, seconds(cfg.Stat.TimeoutSeconds), log)
	reactions := rating.ReactionsFromConfig(cfg.Vote.Reactions)

	dispatch := router.New(pending, log)

	dispatch.RegisterEvent(handlers.NewStatistics(me, documents, log))
	dispatch.RegisterEvent(handlers.NewReaction(votes, reactions, client, log))

	dispatch.RegisterCommand(handlers.NewHelp(me, client, log))
	dispatch.RegisterCommand(handlers.NewShow(me, votes, client, log))
	dispatch.RegisterCommand(handlers.NewStat(me, board, log))
	dispatch.RegisterCommand(handlers.NewSettings(me, client, pending, documents, log))
	dispatch.RegisterCommand(handlers.NewSystem(me, client, time.Now().UTC(), log))

	return &Service{
		cfg:     cfg,
		log:     serviceLog,
		store:   documents,
		cache:   ttlCache,
		adapter: adapter,
		router:  dispatch,
	}, nil
}

// Run polls for updates until ctx is canceled, drains in-flight events, and
// releases the store and cache connections.
func (s *Service) Run(ctx context.Context) error {
	runErr := s.adapter.Run(ctx, s.router.Route)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.store.Close(shutdownCtx); err != nil {
		s.log.Error("Mongo disconnect failed", "error", err)
	}
	if err := s.cache.Close(); err != nil {
		s.log.Error("Redis disconnect failed", "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("telegram polling: %w", runErr)
	}
	return nil
}

func seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}
