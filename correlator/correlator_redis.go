package correlator

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	redisRecentPrefix = "warden/recent/"
	redisBurstPrefix  = "warden/burst/"
)

// RedisCorrelator keeps windows in redis sorted sets (score = event time
// in unix milliseconds), so multiple engine replicas for the same
// community share one view of recent activity. Burst suppression state is
// a plain key whose TTL is the window duration.
type RedisCorrelator struct {
	Client *redis.Client
}

func NewRedisCorrelator(redisURL string) (*RedisCorrelator, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
		return nil, err
	}
	return &RedisCorrelator{Client: rdb}, nil
}

type redisRecord struct {
	Nonce string `json:"nonce"`
	Record
}

func (c *RedisCorrelator) Observe(ctx context.Context, kind, ident string, rec Record, threshold int, within time.Duration) (Outcome, error) {
	if rec.Weight <= 0 {
		rec.Weight = 1
	}
	recentKey := redisRecentPrefix + windowKey(kind, ident)
	burstKey := redisBurstPrefix + windowKey(kind, ident)

	nonce := uuid.NewString()
	member, err := json.Marshal(redisRecord{Nonce: nonce, Record: rec})
	if err != nil {
		return Outcome{}, fmt.Errorf("encoding record: %w", err)
	}
	score := float64(rec.At.UnixMilli())

	archiveID, err := c.Client.Get(ctx, burstKey).Result()
	if err == nil {
		// ongoing handled burst: stay quiet. Evidence lives in the archive,
		// not the zset, so the count restarts from zero once the burst
		// key expires.
		return Outcome{State: StateSilent, ArchiveID: archiveID}, nil
	} else if err != redis.Nil {
		return Outcome{}, err
	}

	cutoff := rec.At.Add(-within).UnixMilli()
	multi := c.Client.Pipeline()
	multi.ZRemRangeByScore(ctx, recentKey, "-inf", "("+strconv.FormatInt(cutoff, 10))
	multi.ZAdd(ctx, recentKey, redis.Z{Score: score, Member: string(member)})
	multi.Expire(ctx, recentKey, 2*within)
	rangeCmd := multi.ZRangeByScore(ctx, recentKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	})
	if _, err := multi.Exec(ctx); err != nil {
		return Outcome{}, err
	}

	members, err := rangeCmd.Result()
	if err != nil {
		return Outcome{}, err
	}
	total := 0
	var prior []Record
	for _, m := range members {
		var rr redisRecord
		if err := json.Unmarshal([]byte(m), &rr); err != nil {
			continue
		}
		total += rr.Weight
		if rr.Nonce != nonce {
			prior = append(prior, rr.Record)
		}
	}
	if total < threshold {
		return Outcome{State: StateBelow}, nil
	}

	// arm the burst and drop the accumulated window, mirroring the
	// in-memory backend's reset on burst expiry
	multi = c.Client.Pipeline()
	multi.Set(ctx, burstKey, "", within)
	multi.Del(ctx, recentKey)
	if _, err := multi.Exec(ctx); err != nil {
		return Outcome{}, err
	}
	return Outcome{State: StateMatched, Prior: prior}, nil
}

func (c *RedisCorrelator) SetBurstArchive(ctx context.Context, kind, ident, archiveID string) error {
	burstKey := redisBurstPrefix + windowKey(kind, ident)
	// only while the burst key still exists; KeepTTL preserves the window
	err := c.Client.SetArgs(ctx, burstKey, archiveID, redis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Err()
	if err == redis.Nil {
		// burst already expired; nothing to attach to
		return nil
	}
	return err
}

func (c *RedisCorrelator) Close() {
	_ = c.Client.Close()
}
