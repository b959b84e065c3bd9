package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"StudyRoom/internal/model"
	"StudyRoom/internal/repository/mysql"
	"StudyRoom/internal/repository/redis"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	countBackoff = 50 * time.Millisecond
	// 二次删除的延迟，需大于一次回源读库加回填的耗时
	invalidateDelay = 500 * time.Millisecond
)

type ZanService struct {
	repo  *mysql.ZanRepository
	cache *redis.ZanCacheRepository
	lock  *redis.DistLock
}

func NewZanService(db *gorm.DB, rdb *goredis.Client) *ZanService {
	return &ZanService{
		repo:  &mysql.ZanRepository{DB: db},
		cache: redis.NewZanCacheRepository(rdb),
		lock:  &redis.DistLock{RDB: rdb},
	}
}

func lockName(t model.ZanType, id uint64) string {
	return fmt.Sprintf("%s:%d", t, id)
}

// Like 已点过赞时为 no-op；写库成功后删计数Key，交给读侧回填
func (s *ZanService) Like(ctx context.Context, actor model.Principal, t model.ZanType, targetID uint64) (bool, error) {
	if err := requirePerm(actor, model.PermZan); err != nil {
		return false, err
	}
	changed, err := s.repo.Like(ctx, actor.UserID(), t, targetID)
	if err != nil {
		return false, s.mapErr(t, err)
	}
	s.cache.AddMember(ctx, string(t), targetID, actor.UserID())
	if changed {
		s.invalidate(ctx, t, targetID)
	}
	return changed, nil
}

// Cancel 删除该用户对目标的全部赞
func (s *ZanService) Cancel(ctx context.Context, actor model.Principal, t model.ZanType, targetID uint64) (bool, error) {
	if err := requirePerm(actor, model.PermZan); err != nil {
		return false, err
	}
	changed, err := s.repo.Cancel(ctx, actor.UserID(), t, targetID)
	if err != nil {
		return false, s.mapErr(t, err)
	}
	s.cache.RemoveMember(ctx, string(t), targetID, actor.UserID())
	if changed {
		s.invalidate(ctx, t, targetID)
	}
	return changed, nil
}

func (s *ZanService) mapErr(t model.ZanType, err error) error {
	if !errors.Is(err, mysql.ErrTargetNotFound) {
		return err
	}
	if t == model.ZanComment {
		return ErrCommentNotFound
	}
	if t == model.ZanPost {
		return ErrPostNotFound
	}
	return ErrInvalidInput
}

// invalidate 计数延迟二删；集合先就地更新，延迟后整体删掉，下次读时按库重建
func (s *ZanService) invalidate(ctx context.Context, t model.ZanType, id uint64) {
	if err := s.cache.DeleteCount(ctx, string(t), id, invalidateDelay); err != nil {
		log.Printf("zan count invalidate err: %v", err)
	}
	s.cache.ExpireSet(string(t), id, invalidateDelay)
}

// IsLiked 先查缓存集合，未命中时回源并重建集合
func (s *ZanService) IsLiked(ctx context.Context, actor model.Principal, t model.ZanType, targetID uint64) (bool, error) {
	if actor == nil || !actor.IsAuthenticated() {
		return false, nil
	}
	if b, ok, err := s.cache.IsMember(ctx, string(t), targetID, actor.UserID()); err == nil && ok {
		return b, nil
	}
	ids, err := s.repo.LikerIDs(ctx, t, targetID)
	if err != nil {
		return false, err
	}
	// 只有拿到锁的请求回填集合
	name := "set:" + lockName(t, targetID)
	token := uuid.NewString()
	if got, _ := s.lock.Acquire(ctx, name, token); got {
		_ = s.cache.Seed(ctx, string(t), targetID, ids)
		if err = s.lock.Release(ctx, name, token); err != nil {
			log.Printf("zan lock release err: %v", err)
		}
	}
	for _, id := range ids {
		if id == actor.UserID() {
			return true, nil
		}
	}
	return false, nil
}

// Count 缓存优先；未命中时只有拿到锁的请求回源，其余退避后再读缓存
func (s *ZanService) Count(ctx context.Context, t model.ZanType, targetID uint64) (int64, error) {
	if v, ok, err := s.cache.GetCount(ctx, string(t), targetID); err == nil && ok {
		return v, nil
	}
	name := lockName(t, targetID)
	token := uuid.NewString()
	got, _ := s.lock.Acquire(ctx, name, token)
	if got {
		defer func() {
			if err := s.lock.Release(ctx, name, token); err != nil {
				log.Printf("zan lock release err: %v", err)
			}
		}()
		// 第二次检查
		if v, ok, err := s.cache.GetCount(ctx, string(t), targetID); err == nil && ok {
			return v, nil
		}
		v, err := s.repo.Count(ctx, t, targetID)
		if err != nil {
			return 0, err
		}
		_ = s.cache.SetCount(ctx, string(t), targetID, v)
		return v, nil
	}

	time.Sleep(countBackoff)
	if v, ok, err := s.cache.GetCount(ctx, string(t), targetID); err == nil && ok {
		return v, nil
	}
	return s.repo.Count(ctx, t, targetID)
}
