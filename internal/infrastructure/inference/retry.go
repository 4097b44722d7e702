package inference

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	"github.com/sirupsen/logrus"
)

// RetryPolicy параметры повторов запросов к бэкенду
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
}

func withRetry[T any](ctx context.Context, policy RetryPolicy, logger logrus.FieldLogger, op string, fn func() (T, error)) (T, error) {
	var result T
	attempts := policy.Attempts
	if attempts == 0 {
		attempts = 1
	}

	err := retry.Do(
		func() error {
			res, err := fn()
			if err != nil {
				return err
			}
			result = res
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(policy.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			logger.WithFields(logrus.Fields{"op": op, "attempt": n + 1}).WithError(err).Warn("inference request failed, retrying")
		}),
	)
	return result, err
}
