package mysql

import (
	"context"
	"encoding/json"
	"time"

	"StudyRoom/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowRepository struct {
	DB *gorm.DB
}

type OutboxRepository struct {
	DB *gorm.DB
}

type FollowCountReconcilerRepo struct {
	DB *gorm.DB
}

// Pair 对账消息结构体
type Pair struct {
	ID             uint64
	FollowingCount int64
	FollowerCount  int64
}

// Follow 建立关注关系（幂等）。新建时返回 changed=true。
func (r *FollowRepository) Follow(ctx context.Context, followerID, followedID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Follow{FollowerID: followerID, FollowedID: followedID})
		if res.Error != nil {
			return res.Error
		}
		// 已存在 -> 幂等
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		// 关注自己不计数
		if followerID == followedID {
			return nil
		}
		if err := r.adjustCounts(tx, followerID, followedID, +1); err != nil {
			return err
		}
		return insertOutbox(tx, model.EventFollow, followerID, followedID, nil)
	})
	return changed, err
}

// Unfollow 删除关注关系
func (r *FollowRepository) Unfollow(ctx context.Context, followerID, followedID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followed_id = ?", followerID, followedID).
			Delete(&model.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		if followerID == followedID {
			return nil
		}
		if err := r.adjustCounts(tx, followerID, followedID, -1); err != nil {
			return err
		}
		return insertOutbox(tx, model.EventUnfollow, followerID, followedID, nil)
	})
	return changed, err
}

// IsFollowing 判断是否关注
func (r *FollowRepository) IsFollowing(ctx context.Context, followerID, followedID uint64) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListFollowed 获取 userID 关注的人（偶像）
func (r *FollowRepository) ListFollowed(ctx context.Context, userID uint64, p Page) ([]model.Follow, int64, error) {
	return r.list(ctx, "follower_id = ? AND followed_id <> ?", userID, p)
}

// ListFollowers 获取粉丝列表
func (r *FollowRepository) ListFollowers(ctx context.Context, userID uint64, p Page) ([]model.Follow, int64, error) {
	return r.list(ctx, "followed_id = ? AND follower_id <> ?", userID, p)
}

// list 列表不含自关注
func (r *FollowRepository) list(ctx context.Context, cond string, userID uint64, p Page) ([]model.Follow, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Follow{}).Where(cond, userID, userID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.Follow
	if err := q.Order("timestamp DESC").Offset(p.Offset()).Limit(p.Limit()).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// adjustCounts 调整关注数与粉丝数
func (r *FollowRepository) adjustCounts(tx *gorm.DB, followerID, followedID uint64, delta int64) error {
	if err := tx.Model(&model.User{}).
		Where("id = ?", followerID).
		UpdateColumn("following_count", gorm.Expr("following_count + ?", delta)).Error; err != nil {
		return err
	}
	return tx.Model(&model.User{}).
		Where("id = ?", followedID).
		UpdateColumn("follower_count", gorm.Expr("follower_count + ?", delta)).Error
}

// insertOutbox 与业务写入同一事务
func insertOutbox(tx *gorm.DB, event string, actor, target uint64, extra map[string]any) error {
	body := map[string]any{
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"actor":      actor,
		"target":     target,
	}
	for k, v := range extra {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tx.Create(&model.SocialOutbox{
		EventType: event,
		ActorID:   actor,
		TargetID:  target,
		Payload:   string(payload),
		Status:    model.OutboxPending,
	}).Error
}

// List 待投递的 outbox 记录，失败的在重试次数内继续投递
func (r *OutboxRepository) List(ctx context.Context, batchSize, maxRetry int) ([]model.SocialOutbox, error) {
	var list []model.SocialOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, maxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate 投递失败
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.SocialOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

// SuccessUpdate 投递成功
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.SocialOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}

// ReconcileList 按 id 游标批量查询用户计数
func (r *FollowCountReconcilerRepo) ReconcileList(ctx context.Context, batchSize int, lastID uint64) ([]Pair, uint64, error) {
	var list []Pair
	if err := r.DB.WithContext(ctx).Model(&model.User{}).
		Select("id", "following_count", "follower_count").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

// RealFollowings 真实关注数（不含自己）
func (r *FollowCountReconcilerRepo) RealFollowings(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ? AND followed_id <> ?", userID, userID).
		Count(&n).Error
	return n, err
}

// RealFollowers 真实粉丝数（不含自己）
func (r *FollowCountReconcilerRepo) RealFollowers(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Follow{}).
		Where("followed_id = ? AND follower_id <> ?", userID, userID).
		Count(&n).Error
	return n, err
}

// FixCounts 修正计数
func (r *FollowCountReconcilerRepo) FixCounts(ctx context.Context, userID uint64, following, followers int64) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		UpdateColumns(map[string]any{"following_count": following, "follower_count": followers}).Error
}
