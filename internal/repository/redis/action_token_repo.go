package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ActionTokenPrefix = "action:token"
	ResendPrefix      = "action:resend"
)

var (
	ErrActionTokenUsed = errors.New("token already used or superseded")
	ErrResendTooOften  = errors.New("mail sent recently, try again later")
)

// 比较后删除，保证 token 只能消费一次
var consumeScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then
  return 0
end
if val ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1])
return 1
`)

// ActionTokenRepository 记录每个用户每种用途最近签发的邮件 token
type ActionTokenRepository struct {
	RDB *redis.Client
}

func (r *ActionTokenRepository) key(purpose string, userID uint64) string {
	return fmt.Sprintf("%s:%s:%d", ActionTokenPrefix, purpose, userID)
}

// Remember 新 token 覆盖旧 token
func (r *ActionTokenRepository) Remember(ctx context.Context, purpose string, userID uint64, token string, ttl time.Duration) error {
	if err := r.RDB.Set(ctx, r.key(purpose, userID), token, ttl).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *ActionTokenRepository) Consume(ctx context.Context, purpose string, userID uint64, token string) error {
	n, err := consumeScript.Run(ctx, r.RDB, []string{r.key(purpose, userID)}, token).Int()
	if err != nil {
		return ErrRedisUnavailable
	}
	if n != 1 {
		return ErrActionTokenUsed
	}
	return nil
}

// Throttle 同一用途同一用户 window 内只允许发一封
func (r *ActionTokenRepository) Throttle(ctx context.Context, purpose string, userID uint64, window time.Duration) error {
	key := fmt.Sprintf("%s:%s:%d", ResendPrefix, purpose, userID)
	ok, err := r.RDB.SetNX(ctx, key, 1, window).Result()
	if err != nil {
		return ErrRedisUnavailable
	}
	if !ok {
		return ErrResendTooOften
	}
	return nil
}
