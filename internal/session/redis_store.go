package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultSessionTTL = 24 * time.Hour

// RedisStore keeps each session as three Redis lists. Appends and their
// trims run inside one MULTI block, so concurrent writers for the same
// session never observe a half-applied push.
type RedisStore struct {
	redis  *redis.Client
	limits Limits
	ttl    time.Duration
}

func NewRedisStore(redisClient *redis.Client, limits Limits, ttl time.Duration) *RedisStore {
	if ttl == 0 {
		ttl = defaultSessionTTL
	}
	return &RedisStore{
		redis:  redisClient,
		limits: limits.normalize(),
		ttl:    ttl,
	}
}

func (s *RedisStore) GetHistory(ctx context.Context, sessionID string) ([]Turn, error) {
	raw, err := s.redis.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	turns := make([]Turn, 0, len(raw))
	for _, r := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			return nil, fmt.Errorf("decode turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *RedisStore) PushHistory(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]any, 0, len(turns))
	for _, t := range turns {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode turn: %w", err)
		}
		values = append(values, data)
	}

	key := historyKey(sessionID)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, int64(-s.limits.MaxHistory()), -1)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	return err
}

func (s *RedisStore) GetLatestImage(ctx context.Context, sessionID string) (*Image, error) {
	raw, err := s.redis.LIndex(ctx, imagesKey(sessionID), -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var img Image
	if err := json.Unmarshal([]byte(raw), &img); err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return &img, nil
}

func (s *RedisStore) GetDescriptions(ctx context.Context, sessionID string) ([]string, error) {
	return s.redis.LRange(ctx, descriptionsKey(sessionID), 0, -1).Result()
}

func (s *RedisStore) AddImageAndDescription(ctx context.Context, sessionID string, img Image, description string) error {
	data, err := json.Marshal(img)
	if err != nil {
		return fmt.Errorf("encode image: %w", err)
	}

	imgKey := imagesKey(sessionID)
	descKey := descriptionsKey(sessionID)
	keep := int64(-s.limits.MaxImages)

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, imgKey, data)
		pipe.RPush(ctx, descKey, description)
		pipe.LTrim(ctx, imgKey, keep, -1)
		pipe.LTrim(ctx, descKey, keep, -1)
		pipe.Expire(ctx, imgKey, s.ttl)
		pipe.Expire(ctx, descKey, s.ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Reset(ctx context.Context, sessionID string) error {
	return s.redis.Del(ctx, historyKey(sessionID), imagesKey(sessionID), descriptionsKey(sessionID)).Err()
}
