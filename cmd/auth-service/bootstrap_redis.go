package main

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	config "github.com/teampulse/auth-service/internal/config/auth-service"
	"github.com/teampulse/auth-service/internal/obs/retry"
	rd "github.com/teampulse/auth-service/internal/repository/redis"
)

func initRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*goredis.Client, error) {
	var client *goredis.Client
	err := retry.Do(ctx, func() error {
		var err error
		client, err = rd.NewClient(ctx, cfg.Redis)
		return err
	}, retry.DialPolicy("redis", logger))
	return client, err
}
