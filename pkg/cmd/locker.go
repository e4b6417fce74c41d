package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/leadflow/pkg/locker"
)

// NewLocker returns a Redis locker when lockURL is set, otherwise an
// in-process one. The returned close func is never nil.
func NewLocker(ctx context.Context, lockURL string, logger *slog.Logger) (locker.Locker, func() error, error) {
	if lockURL == "" {
		return locker.NewMemory(), func() error { return nil }, nil
	}

	redisLocker, err := locker.NewRedis(ctx, lockURL, logger)
	if err != nil {
		return nil, nil, err
	}

	return redisLocker, redisLocker.Close, nil
}
