package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ZanSetTTL       = 24 * time.Hour
	ZanCntTTL       = 24 * time.Hour
	LockTTL         = 300 * time.Millisecond
	ZanSetKeyPrefix = "zan:set" // 已点赞的用户ID集合
	ZanCntKeyPrefix = "zan:cnt" // 点赞计数
	LockKeyPrefix   = "lock:zan"
)

type ZanCacheRepository struct {
	RDB    *redis.Client
	setTTL time.Duration
	cntTTL time.Duration
}

func NewZanCacheRepository(rdb *redis.Client) *ZanCacheRepository {
	return &ZanCacheRepository{RDB: rdb, setTTL: ZanSetTTL, cntTTL: ZanCntTTL}
}

func (r *ZanCacheRepository) setKey(target string, id uint64) string {
	return fmt.Sprintf("%s:%s:%d", ZanSetKeyPrefix, target, id)
}

func (r *ZanCacheRepository) cntKey(target string, id uint64) string {
	return fmt.Sprintf("%s:%s:%d", ZanCntKeyPrefix, target, id)
}

// AddMember 写库成功后调用；集合不存在时不创建
func (r *ZanCacheRepository) AddMember(ctx context.Context, target string, id, userID uint64) {
	r.warm(ctx, target, id, userID, true)
}

func (r *ZanCacheRepository) RemoveMember(ctx context.Context, target string, id, userID uint64) {
	r.warm(ctx, target, id, userID, false)
}

// IsMember 第二个返回值表示集合是否命中
func (r *ZanCacheRepository) IsMember(ctx context.Context, target string, id, userID uint64) (bool, bool, error) {
	k := r.setKey(target, id)
	exists, err := r.RDB.Exists(ctx, k).Result()
	if err != nil {
		return false, false, err
	}
	if exists == 0 {
		return false, false, nil
	}
	b, err := r.RDB.SIsMember(ctx, k, userID).Result()
	return b, true, err
}

// Seed 用数据库中的完整名单重建集合
func (r *ZanCacheRepository) Seed(ctx context.Context, target string, id uint64, userIDs []uint64) error {
	k := r.setKey(target, id)
	_, err := r.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, k)
		if len(userIDs) > 0 {
			members := make([]any, len(userIDs))
			for i, u := range userIDs {
				members[i] = u
			}
			p.SAdd(ctx, k, members...)
			p.Expire(ctx, k, r.setTTL)
		}
		return nil
	})
	return err
}

// 惰性回填：只在集合已存在时写，避免无界扩张
func (r *ZanCacheRepository) warm(ctx context.Context, target string, id, userID uint64, liked bool) {
	k := r.setKey(target, id)
	if ok, _ := r.RDB.Exists(ctx, k).Result(); ok > 0 {
		if liked {
			_ = r.RDB.SAdd(ctx, k, userID).Err()
		} else {
			_ = r.RDB.SRem(ctx, k, userID).Err()
		}
		_ = r.RDB.Expire(ctx, k, r.setTTL).Err()
	}
}

func (r *ZanCacheRepository) GetCount(ctx context.Context, target string, id uint64) (int64, bool, error) {
	val, err := r.RDB.Get(ctx, r.cntKey(target, id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

func (r *ZanCacheRepository) SetCount(ctx context.Context, target string, id uint64, cnt int64) error {
	return r.RDB.Set(ctx, r.cntKey(target, id), cnt, r.cntTTL).Err()
}

// DeleteCount 删除计数缓存，delay>0 时异步再删一次抵消并发回填
func (r *ZanCacheRepository) DeleteCount(ctx context.Context, target string, id uint64, delay ...time.Duration) error {
	key := r.cntKey(target, id)
	if err := r.RDB.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(delay) > 0 && delay[0] > 0 {
		r.delLater(key, delay[0])
	}
	return nil
}

// ExpireSet 延迟删除集合；写库前读到旧名单的 Seed 会在此时被清掉
func (r *ZanCacheRepository) ExpireSet(target string, id uint64, delay time.Duration) {
	r.delLater(r.setKey(target, id), delay)
}

func (r *ZanCacheRepository) delLater(key string, d time.Duration) {
	go func() {
		t := time.NewTimer(d)
		defer t.Stop()
		<-t.C
		_ = r.RDB.Del(context.Background(), key).Err()
	}()
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

type DistLock struct {
	RDB *redis.Client
	TTL time.Duration
}

func (l *DistLock) key(name string) string {
	return fmt.Sprintf("%s:%s", LockKeyPrefix, name)
}

// Acquire 请求加分布式锁
func (l *DistLock) Acquire(ctx context.Context, name, token string) (bool, error) {
	ttl := l.TTL
	if ttl <= 0 {
		ttl = LockTTL
	}
	return l.RDB.SetNX(ctx, l.key(name), token, ttl).Result()
}

// Release 用lua保证只释放自己持有的锁
func (l *DistLock) Release(ctx context.Context, name, token string) error {
	return releaseScript.Run(ctx, l.RDB, []string{l.key(name)}, token).Err()
}
