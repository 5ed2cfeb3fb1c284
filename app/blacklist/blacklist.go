// Package blacklist keeps spent refresh tokens in Redis until they would
// have expired anyway. Entries are keyed by the raw token string, so two
// structurally distinct tokens never collide.
package blacklist

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "blacklist:refresh:"

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a revocation list whose entries live for ttl. The full
// configured refresh lifetime is used rather than each token's remaining
// life; the same token can never be reissued, so the extra window is
// harmless.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Revoke(ctx context.Context, refreshToken string) error {
	return s.rdb.Set(ctx, keyPrefix+refreshToken, 1, s.ttl).Err()
}

func (s *Store) IsRevoked(ctx context.Context, refreshToken string) (bool, error) {
	n, err := s.rdb.Exists(ctx, keyPrefix+refreshToken).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
