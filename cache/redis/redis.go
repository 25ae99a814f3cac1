package redis

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rezzza07/artmart/models"
)

type RedisArtmartCache struct {
	client redis.UniversalClient
}

func NewRedisArtmartCache(ctx context.Context, devMode bool, redisEndpoint string) (*RedisArtmartCache, error) {
	var client redis.UniversalClient
	if devMode {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
			// AWS elasticache endpoints require TLS
			TLSConfig: &tls.Config{},
		})
	}

	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return &RedisArtmartCache{client: client}, nil
}

func (redisCache *RedisArtmartCache) Publish(ctx context.Context, channel string, message []byte) error {
	if err := redisCache.client.Publish(ctx, channel, message).Err(); err != nil {
		return err
	}
	return nil
}

func (redisCache *RedisArtmartCache) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	pubsub := redisCache.client.Subscribe(ctx, channel)
	// Ensure subscription is established
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		slog.Warn("pubsub channel closed", "channel", channel)
		return err
	}

	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()

	return nil
}

const (
	featuredKey = "artworks:featured"

	featuredTTL  = 5 * time.Minute
	userStatsTTL = 10 * time.Minute
)

func buildUserStatsKey(email string) string {
	return "user:{" + email + "}:stats"
}

// Featured artworks are cached as one pre-marshalled JSON blob; the set is
// identical for every caller so there is nothing to key by.
func (redisCache *RedisArtmartCache) GetFeatured(ctx context.Context) ([]byte, error) {
	payload, err := redisCache.client.Get(ctx, featuredKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}
	return payload, nil
}

func (redisCache *RedisArtmartCache) SetFeatured(ctx context.Context, payload []byte) error {
	return redisCache.client.Set(ctx, featuredKey, payload, featuredTTL).Err()
}

func (redisCache *RedisArtmartCache) InvalidateFeatured(ctx context.Context) error {
	return redisCache.client.Del(ctx, featuredKey).Err()
}

func (redisCache *RedisArtmartCache) GetUserStats(ctx context.Context, email string) (models.UserStats, bool, error) {
	payload, err := redisCache.client.Get(ctx, buildUserStatsKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.UserStats{}, false, nil // cache miss
		}
		return models.UserStats{}, false, err
	}

	var stats models.UserStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		return models.UserStats{}, false, err
	}
	return stats, true, nil
}

func (redisCache *RedisArtmartCache) SetUserStats(ctx context.Context, email string, stats models.UserStats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return redisCache.client.Set(ctx, buildUserStatsKey(email), payload, userStatsTTL).Err()
}

func (redisCache *RedisArtmartCache) InvalidateUserStats(ctx context.Context, email string) error {
	return redisCache.client.Del(ctx, buildUserStatsKey(email)).Err()
}
