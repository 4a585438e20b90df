package main

import (
	"net/http"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	config "github.com/teampulse/auth-service/internal/config/auth-service"
	"github.com/teampulse/auth-service/internal/obs"
	pg "github.com/teampulse/auth-service/internal/repository/postgres"
	rd "github.com/teampulse/auth-service/internal/repository/redis"
	"github.com/teampulse/auth-service/internal/services/auth-service/session"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB, rdb *goredis.Client) *http.Server {
	userRepo := pg.NewUserRepo(db)
	rtRepo := pg.NewRefreshTokenRepo(db)
	tx := pg.NewTransactor(db, logger)
	lockout := rd.NewLockoutRepo(rdb, rd.LockoutConfig{
		MaxAttempts:   cfg.Lockout.MaxAttempts,
		AttemptWindow: cfg.Lockout.AttemptWindow,
		LockoutTTL:    cfg.Lockout.LockoutTTL,
	})

	codec := session.NewCodec([]byte(cfg.Auth.JWTSecret), cfg.Auth.AccessTTL)
	ledger := session.NewLedger(rtRepo, tx, lockout, logger, cfg.Auth.RefreshTTL, cfg.Lockout.BlacklistTTL)
	uc := session.NewUsecase(userRepo, codec, ledger, lockout, logger, session.Config{
		BcryptCost: cfg.Auth.BcryptCost,
	})
	ctrl := session.NewController(logger, uc)

	mux := http.NewServeMux()
	ctrl.Register(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      obs.HTTPMiddleware(mux, "auth-service"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func serveHTTP(s *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return s.ListenAndServe()
}
