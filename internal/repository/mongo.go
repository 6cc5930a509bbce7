package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	pkgconfig "github.com/bharatlinker/product-service/pkg/config"
)

const (
	connectRetryMax       = 5
	connectRetryBaseDelay = 500 * time.Millisecond
	connectRetryMaxDelay  = 10 * time.Second
)

// Connect dials the document store with exponential backoff. The caller is
// expected to treat an error as fatal.
func Connect(ctx context.Context, cfg *pkgconfig.Config, logger *zap.Logger) (*mongo.Client, error) {
	var lastErr error
	for attempt := 0; attempt < connectRetryMax; attempt++ {
		if err := sleepWithContext(ctx, retryDelay(attempt-1)); err != nil {
			return nil, err
		}

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDBURL))
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = client.Ping(pingCtx, readpref.Primary())
			cancel()
			if err == nil {
				logger.Info("Connected to MongoDB", zap.String("database", cfg.DBName))
				return client, nil
			}
			_ = client.Disconnect(ctx)
		}

		lastErr = err
		logger.Error("MongoDB connection failed",
			zap.Int("attempt", attempt+1),
			zap.Int("attempts_left", connectRetryMax-attempt-1),
			zap.Error(err))
	}
	return nil, fmt.Errorf("could not connect to MongoDB after %d attempts: %w", connectRetryMax, lastErr)
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		return 0
	}
	delay := connectRetryBaseDelay << attempt
	if delay > connectRetryMaxDelay {
		delay = connectRetryMaxDelay
	}
	return delay
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
