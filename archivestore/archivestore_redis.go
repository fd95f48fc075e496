package archivestore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/havenchat/warden/event"
)

var redisArchivePrefix = "warden/archive/"

// archives are evidence for open moderation cases; keep them for a while
// but not forever
var redisArchiveTTL = 30 * 24 * time.Hour

type RedisArchiveStore struct {
	Client *redis.Client
}

func NewRedisArchiveStore(redisURL string) (*RedisArchiveStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
		return nil, err
	}
	return &RedisArchiveStore{Client: rdb}, nil
}

func (s *RedisArchiveStore) Create(ctx context.Context, contexts []*event.MatchContext) (string, error) {
	id := uuid.NewString()
	if err := s.Append(ctx, id, contexts); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisArchiveStore) Append(ctx context.Context, archiveID string, contexts []*event.MatchContext) error {
	key := redisArchivePrefix + archiveID
	multi := s.Client.Pipeline()
	for _, mc := range contexts {
		raw, err := json.Marshal(mc)
		if err != nil {
			return err
		}
		multi.RPush(ctx, key, string(raw))
	}
	multi.Expire(ctx, key, redisArchiveTTL)
	_, err := multi.Exec(ctx)
	return err
}

func (s *RedisArchiveStore) Get(ctx context.Context, archiveID string) ([]*event.MatchContext, error) {
	key := redisArchivePrefix + archiveID
	raws, err := s.Client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*event.MatchContext, 0, len(raws))
	for _, raw := range raws {
		var mc event.MatchContext
		if err := json.Unmarshal([]byte(raw), &mc); err != nil {
			return nil, err
		}
		out = append(out, &mc)
	}
	return out, nil
}
