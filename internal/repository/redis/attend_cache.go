package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	AttendSetTTL       = 24 * time.Hour
	AttendCntTTL       = 24 * time.Hour
	LockTTL            = 300 * time.Millisecond
	AttendSetKeyPrefix = "attend:set:event"   // 某个事件已报名的用户ID集合
	AttendCntKeyPrefix = "attend:cnt:event"   // 某个事件的报名计数缓存（ledger行数，不含创建者）
	LockKeyPrefix      = "lock:attend:event" // 分布式锁
)

type AttendCacheRepository struct {
	attendSetTTL time.Duration
	attendCntTTL time.Duration
}

type DistLock struct {
	RDB *redis.Client
}

func NewAttendCacheRepository() *AttendCacheRepository {
	return &AttendCacheRepository{
		attendSetTTL: AttendSetTTL,
		attendCntTTL: AttendCntTTL,
	}
}

func (r *AttendCacheRepository) attendSetKey(eventID uint64) string {
	return fmt.Sprintf("%s:%d", AttendSetKeyPrefix, eventID)
}
func (r *AttendCacheRepository) attendCntKey(eventID uint64) string {
	return fmt.Sprintf("%s:%d", AttendCntKeyPrefix, eventID)
}

// AddAttendee 写路径：MySQL 事务提交成功后再调用
func (r *AttendCacheRepository) AddAttendee(ctx context.Context, userID, eventID uint64) error {
	k := r.attendSetKey(eventID)
	if err := Client.SAdd(ctx, k, userID).Err(); err != nil {
		return err
	}
	_ = Client.Expire(ctx, k, r.attendSetTTL).Err()

	ck := r.attendCntKey(eventID)
	if err := Client.Incr(ctx, ck).Err(); err != nil {
		return err
	}
	_ = Client.Expire(ctx, ck, r.attendCntTTL).Err()
	return nil
}

// IsAttendingCached 缓存里查用户是否已报名；第二个返回值表示集合是否存在
func (r *AttendCacheRepository) IsAttendingCached(ctx context.Context, userID, eventID uint64) (bool, bool, error) {
	k := r.attendSetKey(eventID)
	exists, err := Client.Exists(ctx, k).Result()
	if err != nil {
		return false, false, err
	}
	if exists == 0 {
		return false, false, nil
	}
	b, err := Client.SIsMember(ctx, k, userID).Result()
	return b, true, err
}

// GetCountCached 缓存读报名计数
func (r *AttendCacheRepository) GetCountCached(ctx context.Context, eventID uint64) (int64, bool, error) {
	ck := r.attendCntKey(eventID)
	val, err := Client.Get(ctx, ck).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	return val, true, err
}

// SetCount 回源后回填计数
func (r *AttendCacheRepository) SetCount(ctx context.Context, eventID uint64, cnt int64) error {
	ck := r.attendCntKey(eventID)
	return Client.Set(ctx, ck, cnt, r.attendCntTTL).Err()
}

// WarmIsAttending 惰性回填：只在集合已存在时写，避免无界扩张
func (r *AttendCacheRepository) WarmIsAttending(ctx context.Context, userID, eventID uint64, attending bool) {
	k := r.attendSetKey(eventID)
	if ok, _ := Client.Exists(ctx, k).Result(); ok > 0 {
		if attending {
			_ = Client.SAdd(ctx, k, userID).Err()
		} else {
			_ = Client.SRem(ctx, k, userID).Err()
		}
		_ = Client.Expire(ctx, k, r.attendSetTTL).Err()
	}
}

// DeleteCount 删计数Key，交给读侧重建；可选延迟二删抵消并发回填窗口
func (r *AttendCacheRepository) DeleteCount(ctx context.Context, eventID uint64, delay ...time.Duration) error {
	key := r.attendCntKey(eventID)
	if err := Client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(delay) > 0 && delay[0] > 0 {
		d := delay[0]
		go func() {
			t := time.NewTimer(d)
			defer t.Stop()
			<-t.C
			_ = Client.Del(context.Background(), key).Err()
		}()
	}
	return nil
}

// Acquire 请求加分布式锁
func (l *DistLock) Acquire(ctx context.Context, eventID uint64, token string) (bool, error) {
	key := fmt.Sprintf("%s:%d", LockKeyPrefix, eventID)
	return l.RDB.SetNX(ctx, key, token, LockTTL).Result()
}

// Release 用lua保证原子性
func (l *DistLock) Release(ctx context.Context, eventID uint64, token string) error {
	key := fmt.Sprintf("%s:%d", LockKeyPrefix, eventID)
	_, err := redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`).Run(ctx, l.RDB, []string{key}, token).Result()
	return err
}
