package cmd

import (
	"context"
	"fmt"

	"jobboard_back_end_go/config"
	"jobboard_back_end_go/db"
	"jobboard_back_end_go/logger"
	"jobboard_back_end_go/models"
	"jobboard_back_end_go/realtime"
	"jobboard_back_end_go/repository"

	"github.com/redis/go-redis/v9"
)

type stores struct {
	messages repository.MessageStore
	profiles repository.ProfileStore
}

func provideStores(ctx context.Context, cfg *config.Config, l *logger.Logger) (stores, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		mem := repository.NewMemoryStore()
		for _, u := range cfg.DevUsers {
			mem.AddProfile(models.Profile{
				ID:           u.ID,
				Email:        u.Email,
				PasswordHash: u.PasswordHash,
				FullName:     u.FullName,
				AvatarURL:    u.AvatarURL,
				Role:         models.Role(u.Role),
			})
		}
		l.Info("using in-memory store", "dev_users", len(cfg.DevUsers))
		return stores{messages: mem, profiles: mem}, func() {}, nil
	}

	pool, err := db.InitDatabase(ctx, cfg.Database)
	if err != nil {
		return stores{}, nil, err
	}
	l.Info("connected to postgres", "host", cfg.Database.Host, "database", cfg.Database.Name)
	pg := repository.NewPostgresStore(pool)
	return stores{messages: pg, profiles: pg}, pool.Close, nil
}

func provideBroker(ctx context.Context, cfg *config.Config, l *logger.Logger) (realtime.Broker, func(), error) {
	if !cfg.Redis.Enabled {
		return realtime.NewLocalBroker(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	l.Info("connected to redis", "addr", cfg.Redis.Addr)
	cleanup := func() { _ = rdb.Close() }
	return realtime.NewRedisBroker(rdb, cfg.Redis.ChannelPrefix, l), cleanup, nil
}
