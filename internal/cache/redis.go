package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhishek622/hiringpipeline/pkg/model"
)

const characteristicsPrefix = "profile:characteristics:"

func NewRedisClient(addr, pass string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})
}

func Ping(ctx context.Context, c *redis.Client) error {
	return c.Ping(ctx).Err()
}

// ProfileCache stores characteristics projections as JSON with a TTL.
type ProfileCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewProfileCache(client redis.Cmdable, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ProfileCache{client: client, ttl: ttl}
}

func characteristicsKey(evaluatorID int64) string {
	return characteristicsPrefix + strconv.FormatInt(evaluatorID, 10)
}

// GetCharacteristics returns nil, nil on a miss.
func (c *ProfileCache) GetCharacteristics(ctx context.Context, evaluatorID int64) (*model.Characteristics, error) {
	raw, err := c.client.Get(ctx, characteristicsKey(evaluatorID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get characteristics: %w", err)
	}
	var out model.Characteristics
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode characteristics: %w", err)
	}
	return &out, nil
}

func (c *ProfileCache) SetCharacteristics(ctx context.Context, ch *model.Characteristics) error {
	raw, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("encode characteristics: %w", err)
	}
	if err := c.client.Set(ctx, characteristicsKey(ch.EvaluatorID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set characteristics: %w", err)
	}
	return nil
}

func (c *ProfileCache) Invalidate(ctx context.Context, evaluatorIDs ...int64) error {
	if len(evaluatorIDs) == 0 {
		return nil
	}
	keys := make([]string, len(evaluatorIDs))
	for i, id := range evaluatorIDs {
		keys[i] = characteristicsKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate characteristics: %w", err)
	}
	return nil
}
