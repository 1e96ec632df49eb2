package blocklist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Entries live exactly as long as the longest-lived access token, so the
	// cache cleans itself up and no sweep is ever needed.
	entryTTL  = time.Hour
	opTimeout = 3 * time.Second
)

// Store is the set of revoked token ids, kept in redis with per-entry expiry.
// When redis is unreachable the pipeline fails closed: callers must treat a
// lookup error as "revoked".
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{rdb: client, ttl: entryTTL}, nil
}

// Revoke inserts jti into the blocklist. Re-revoking is a no-op.
func (s *Store) Revoke(ctx context.Context, jti string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.rdb.Set(ctx, jti, "", s.ttl).Err()
}

func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	n, err := s.rdb.Exists(ctx, jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
