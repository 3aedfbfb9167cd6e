package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	VoteCntTTL       = 24 * time.Hour
	VoteCntKeyPrefix = "vote:cnt:question" // 某个提问的票数缓存
)

// VoteCacheRepository 只缓存计数，集合判重直接走唯一索引
type VoteCacheRepository struct{}

func (r *VoteCacheRepository) voteCntKey(questionID uint64) string {
	return fmt.Sprintf("%s:%d", VoteCntKeyPrefix, questionID)
}

func (r *VoteCacheRepository) GetCountCached(ctx context.Context, questionID uint64) (int64, bool, error) {
	val, err := Client.Get(ctx, r.voteCntKey(questionID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	return val, true, err
}

func (r *VoteCacheRepository) SetCount(ctx context.Context, questionID uint64, cnt int64) error {
	return Client.Set(ctx, r.voteCntKey(questionID), cnt, VoteCntTTL).Err()
}

// DeleteCount 写路径之后删Key，读侧重建
func (r *VoteCacheRepository) DeleteCount(ctx context.Context, questionID uint64) error {
	err := Client.Del(ctx, r.voteCntKey(questionID)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
