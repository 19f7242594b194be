package store

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RatingStore is the source of recorded ratings. Pools are named by
// types.Mode.Pool.
type RatingStore interface {
	LastRating(ctx context.Context, pool, playerID string) (int, bool, error)
	Population(ctx context.Context, pool string) ([]int, error)
	PutRating(ctx context.Context, pool, playerID string, rating int) error
	Close() error
}

type RedisStore struct{ rdb *redis.Client }

const (
	populationKey = "ratings:population:" // ZSET per pool: score=rating, member=playerID
	lastKey       = "ratings:last:"       // HASH per pool: playerID -> rating
)

func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{rdb: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})}
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

func (s *RedisStore) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

// LastRating reports false when the player has no recorded rating in pool.
func (s *RedisStore) LastRating(ctx context.Context, pool, playerID string) (int, bool, error) {
	v, err := s.rdb.HGet(ctx, lastKey+pool, playerID).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrapf(err, "last rating %s/%s", pool, playerID)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, "parse rating %q", v)
	}
	return roundRating(f), true, nil
}

// Population returns every rating in pool, highest first.
func (s *RedisStore) Population(ctx context.Context, pool string) ([]int, error) {
	zs, err := s.rdb.ZRevRangeWithScores(ctx, populationKey+pool, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "population %s", pool)
	}
	res := make([]int, 0, len(zs))
	for _, z := range zs {
		res = append(res, roundRating(z.Score))
	}
	return res, nil
}

func (s *RedisStore) PutRating(ctx context.Context, pool, playerID string, rating int) error {
	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, populationKey+pool, redis.Z{Score: float64(rating), Member: playerID})
	pipe.HSet(ctx, lastKey+pool, playerID, rating)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put rating: %w", err)
	}
	return nil
}

// roundRating converts stored ratings to whole points, half to even.
func roundRating(f float64) int { return int(math.RoundToEven(f)) }
