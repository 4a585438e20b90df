package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DialPolicy is used when establishing the initial connections to
// Postgres and Redis, which may come up after the service in compose
// environments.
func DialPolicy(name string, log *zap.Logger) Policy {
	return Policy{
		Name:     name,
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 500 * time.Millisecond, Max: 10 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("dial retry", zap.String("target", name), zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("dial retries exhausted", zap.String("target", name), zap.Error(err))
			}
		},
	}
}
