package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/MrSnakeDoc/skylog/internal/catalogue"
	"github.com/MrSnakeDoc/skylog/internal/config"
	"github.com/MrSnakeDoc/skylog/internal/logger"
	"github.com/MrSnakeDoc/skylog/internal/observation"
	"github.com/MrSnakeDoc/skylog/internal/redis"
	"github.com/MrSnakeDoc/skylog/internal/store"
	"github.com/MrSnakeDoc/skylog/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/skylog/internal/store/redis"
	"github.com/MrSnakeDoc/skylog/internal/store/sqlite"
	"github.com/MrSnakeDoc/skylog/internal/utils"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenSlot opens the durable slot selected by cfg.Storage. The returned
// closer releases the backend connection.
func OpenSlot(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Slot, io.Closer, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("memory storage selected, observations will not survive a restart")
		return memory.New(cfg.SlotName), nopCloser{}, nil

	case config.StorageSQLite:
		slot, err := sqlite.Open(cfg.SQLitePath, cfg.SlotName)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite slot: %w", err)
		}
		log.Info("sqlite storage opened", logger.String("path", cfg.SQLitePath))
		return slot, slot, nil

	case config.StorageRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.Connect(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("Redis initialized successfully")
		return redisstore.NewSlot(client, cfg.SlotName), client, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
}

// OpenStore opens the slot, builds the store and loads the snapshot. An
// undecodable snapshot is not fatal: it has been archived and the store
// starts empty.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...observation.Option) (*observation.Store, io.Closer, error) {
	slot, closer, err := OpenSlot(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]observation.Option{observation.WithLogger(log)}, opts...)
	s := observation.New(slot, opts...)

	if _, err := s.Load(ctx); err != nil {
		if !errors.Is(err, observation.ErrDecodeFailure) {
			utils.CloseLogged(closer, "storage", log)
			return nil, nil, fmt.Errorf("failed to load observations: %w", err)
		}
		log.Warn("continuing with an empty observation log", logger.Error(err))
	}
	return s, closer, nil
}

// LoadCatalogue reads the configured catalogue (built-in by default).
func LoadCatalogue(cfg *config.Config) (*catalogue.Catalogue, error) {
	entries, err := catalogue.NewLoader(cfg.CatalogueFile).Load()
	if err != nil {
		return nil, err
	}
	return catalogue.New(entries, cfg.EncyclopediaURL), nil
}
