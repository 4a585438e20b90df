package main

import (
	"context"

	config "github.com/teampulse/auth-service/internal/config/auth-service"
	"github.com/teampulse/auth-service/internal/obs/retry"
	pg "github.com/teampulse/auth-service/internal/repository/postgres"
	"go.uber.org/zap"
)

type dbHandle = *pg.DB

func initDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (dbHandle, error) {
	var db *pg.DB
	err := retry.Do(ctx, func() error {
		var err error
		db, err = pg.NewDB(ctx, cfg.DB)
		return err
	}, retry.DialPolicy("postgres", logger))
	return db, err
}
