package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	regulationTextTTL = time.Hour
)

func regulationTextKey(id string) string {
	return "regulation:text:" + id
}

func regulationProposalKey(token string) string {
	return "regulation:proposal:" + token
}

var _ RegulationCache = (*RedisRegulationCache)(nil)

type RedisRegulationCache struct {
	kv *Redis
}

func NewRedisRegulationCache(client *redis.Client) *RedisRegulationCache {
	return &RedisRegulationCache{kv: NewRedis(client)}
}

func (r *RedisRegulationCache) GetText(ctx context.Context, id string) (string, error) {
	text, err := r.kv.Client().Get(ctx, regulationTextKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", err
	}

	return text, nil
}

func (r *RedisRegulationCache) SetText(ctx context.Context, id, text string) error {
	return r.kv.Client().Set(ctx, regulationTextKey(id), text, regulationTextTTL).Err()
}

func (r *RedisRegulationCache) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := r.kv.Client().TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range ids {
			if err := p.Del(ctx, regulationTextKey(id)).Err(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logrus.Warnf("failed to invalidate regulation text cache: %v", err)
	}

	return err
}

func (r *RedisRegulationCache) SaveProposal(ctx context.Context, token string, proposal any, ttl time.Duration) error {
	return r.kv.Set(ctx, regulationProposalKey(token), proposal, ttl)
}

func (r *RedisRegulationCache) GetProposal(ctx context.Context, token string, proposal any) error {
	return r.kv.Get(ctx, regulationProposalKey(token), proposal)
}

func (r *RedisRegulationCache) TakeProposal(ctx context.Context, token string, proposal any) error {
	return r.kv.Take(ctx, regulationProposalKey(token), proposal)
}
