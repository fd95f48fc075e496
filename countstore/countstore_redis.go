package countstore

import (
	"context"

	"github.com/redis/go-redis/v9"
)

var (
	redisHitPrefix      = "warden/rule-hits/"
	redisOffenderPrefix = "warden/rule-offenders/"
)

// RedisCountStore shares tallies across engine replicas. Offender counts
// are hyperloglogs: estimates, with bounded memory per rule.
type RedisCountStore struct {
	client *redis.Client
}

func NewRedisCountStore(redisURL string) (*RedisCountStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
		return nil, err
	}
	return &RedisCountStore{client: rdb}, nil
}

func (s *RedisCountStore) RecordHit(ctx context.Context, rule string) error {
	multi := s.client.Pipeline()
	for _, p := range allPeriods {
		key := redisHitPrefix + periodKey(rule, p)
		multi.Incr(ctx, key)
		if ttl := periodTTL(p); ttl > 0 {
			multi.Expire(ctx, key, ttl)
		}
	}
	_, err := multi.Exec(ctx)
	return err
}

func (s *RedisCountStore) RuleHits(ctx context.Context, rule string, period Period) (int, error) {
	n, err := s.client.Get(ctx, redisHitPrefix+periodKey(rule, period)).Int()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *RedisCountStore) RecordOffender(ctx context.Context, rule, userID string) error {
	multi := s.client.Pipeline()
	for _, p := range allPeriods {
		key := redisOffenderPrefix + periodKey(rule, p)
		multi.PFAdd(ctx, key, userID)
		if ttl := periodTTL(p); ttl > 0 {
			multi.Expire(ctx, key, ttl)
		}
	}
	_, err := multi.Exec(ctx)
	return err
}

func (s *RedisCountStore) RuleOffenders(ctx context.Context, rule string, period Period) (int, error) {
	n, err := s.client.PFCount(ctx, redisOffenderPrefix+periodKey(rule, period)).Result()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return int(n), nil
}
