package mysql

import (
	"context"
	"errors"

	"StudyRoom/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrTargetNotFound = errors.New("zan target not found")

type ZanRepository struct {
	DB *gorm.DB
}

// Like 已有该用户对目标的记录则不再写入，changed=false
func (r *ZanRepository) Like(ctx context.Context, authorID uint64, t model.ZanType, targetID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := targetExists(tx, t, targetID); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&model.Zan{}).
			Where("author_id = ? AND type = ? AND target_id = ?", authorID, t, targetID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		// 唯一索引兜底并发重复点赞
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(model.NewZan(authorID, t, targetID))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		return insertOutbox(tx, model.EventZan, authorID, targetID, map[string]any{"type": t})
	})
	return changed, err
}

// Cancel 删除该用户对目标的全部点赞记录
func (r *ZanRepository) Cancel(ctx context.Context, authorID uint64, t model.ZanType, targetID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := targetExists(tx, t, targetID); err != nil {
			return err
		}
		res := tx.Where("author_id = ? AND type = ? AND target_id = ?", authorID, t, targetID).
			Delete(&model.Zan{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		return insertOutbox(tx, model.EventUnzan, authorID, targetID, map[string]any{"type": t})
	})
	return changed, err
}

func (r *ZanRepository) IsLiked(ctx context.Context, authorID uint64, t model.ZanType, targetID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Zan{}).
		Where("author_id = ? AND type = ? AND target_id = ?", authorID, t, targetID).
		Count(&n).Error
	return n > 0, err
}

func (r *ZanRepository) Count(ctx context.Context, t model.ZanType, targetID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Zan{}).
		Where("type = ? AND target_id = ?", t, targetID).
		Count(&n).Error
	return n, err
}

type zanCount struct {
	TargetID uint64
	N        int64
}

// CountByTargets 批量计数，未出现的目标为 0
func (r *ZanRepository) CountByTargets(ctx context.Context, t model.ZanType, targetIDs []uint64) (map[uint64]int64, error) {
	out := make(map[uint64]int64, len(targetIDs))
	if len(targetIDs) == 0 {
		return out, nil
	}
	var rows []zanCount
	if err := r.DB.WithContext(ctx).Model(&model.Zan{}).
		Select("target_id, COUNT(*) AS n").
		Where("type = ? AND target_id IN ?", t, targetIDs).
		Group("target_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TargetID] = row.N
	}
	return out, nil
}

func targetExists(tx *gorm.DB, t model.ZanType, id uint64) error {
	var n int64
	var err error
	switch t {
	case model.ZanPost:
		err = tx.Model(&model.Post{}).Where("id = ?", id).Count(&n).Error
	case model.ZanComment:
		err = tx.Model(&model.Comment{}).Where("id = ?", id).Count(&n).Error
	default:
		return ErrTargetNotFound
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTargetNotFound
	}
	return nil
}

// LikerIDs 目标的全部点赞用户，用于重建缓存集合
func (r *ZanRepository) LikerIDs(ctx context.Context, t model.ZanType, targetID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.Zan{}).
		Where("type = ? AND target_id = ?", t, targetID).
		Distinct().
		Pluck("author_id", &ids).Error
	return ids, err
}
