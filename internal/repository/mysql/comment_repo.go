package mysql

import (
	"context"
	"errors"

	"StudyRoom/internal/model"

	"gorm.io/gorm"
)

var ErrParentNotFound = errors.New("parent not found")

type CommentRepository struct {
	DB *gorm.DB
}

// CreateUnderPost 帖子下直接评论，回复关系的 parent 为帖子 id
func (r *CommentRepository) CreateUnderPost(ctx context.Context, c *model.Comment, postID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c.PostID = postID
		return r.insert(tx, c, postID)
	})
}

// CreateReply 回复评论：新评论挂在被回复评论所属的帖子下
func (r *CommentRepository) CreateReply(ctx context.Context, c *model.Comment, parentID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent model.Comment
		if err := tx.Select("id", "post_id").First(&parent, parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrParentNotFound
			}
			return err
		}
		c.PostID = parent.PostID
		return r.insert(tx, c, parent.ID)
	})
}

// insert 写评论与回复关系，并按楼层规则更新上一条评论的 float_id。
// 先锁住帖子行，同一帖子的评论写入串行执行。
func (r *CommentRepository) insert(tx *gorm.DB, c *model.Comment, parentID uint64) error {
	var post model.Post
	if err := forUpdate(tx).Select("id").First(&post, c.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrParentNotFound
		}
		return err
	}

	var prior int64
	if err := tx.Model(&model.Comment{}).Where("post_id = ?", c.PostID).Count(&prior).Error; err != nil {
		return err
	}
	var last model.Comment
	if prior > 0 {
		if err := tx.Select("id").Where("post_id = ?", c.PostID).
			Order("timestamp DESC, id DESC").First(&last).Error; err != nil {
			return err
		}
	}

	if err := tx.Create(c).Error; err != nil {
		return err
	}
	if err := tx.Create(&model.ParentChild{ParentID: parentID, ChildID: c.ID}).Error; err != nil {
		return err
	}

	if prior > 0 {
		// 上一条评论的 float_id 累加当前总数
		total := prior + 1
		if err := tx.Model(&model.Comment{}).Where("id = ?", last.ID).
			UpdateColumn("float_id", gorm.Expr("float_id + ?", total)).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id uint64) (*model.Comment, error) {
	var c model.Comment
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// Delete 只删除评论本身，回复关系保留
func (r *CommentRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Delete(&model.Comment{}, id).Error
}

// SetDisabled mysql 的 RowsAffected 不含值未变的行，先查存在性
func (r *CommentRepository) SetDisabled(ctx context.Context, id uint64, disabled bool) error {
	db := r.DB.WithContext(ctx)
	var c model.Comment
	if err := db.Select("id").First(&c, id).Error; err != nil {
		return notFound(err)
	}
	return db.Model(&model.Comment{}).Where("id = ?", id).UpdateColumn("disabled", disabled).Error
}

func (r *CommentRepository) CountByPost(ctx context.Context, postID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Comment{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}

// ListByPost 楼层顺序（时间正序）
func (r *CommentRepository) ListByPost(ctx context.Context, postID uint64, p Page) ([]model.Comment, error) {
	var list []model.Comment
	err := r.DB.WithContext(ctx).Where("post_id = ?", postID).
		Order("timestamp ASC, id ASC").
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&list).Error
	return list, err
}

// ListRecent 管理页：全部评论时间倒序
func (r *CommentRepository) ListRecent(ctx context.Context, p Page) ([]model.Comment, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Comment{}).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Comment
	err := q.Order("timestamp DESC, id DESC").Offset(p.Offset()).Limit(p.Limit()).Find(&list).Error
	return list, total, err
}

// AuthorsByPost 帖子下评论 id -> 作者 id
func (r *CommentRepository) AuthorsByPost(ctx context.Context, postID uint64) (map[uint64]uint64, error) {
	var rows []model.Comment
	if err := r.DB.WithContext(ctx).Select("id", "author_id").
		Where("post_id = ?", postID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint64]uint64, len(rows))
	for _, c := range rows {
		out[c.ID] = c.AuthorID
	}
	return out, nil
}

// EdgesByChildren 查询若干评论的回复关系，按写入顺序
func (r *CommentRepository) EdgesByChildren(ctx context.Context, childIDs []uint64) ([]model.ParentChild, error) {
	if len(childIDs) == 0 {
		return nil, nil
	}
	var edges []model.ParentChild
	err := r.DB.WithContext(ctx).Where("child_id IN ?", childIDs).
		Order("timestamp ASC, parent_id ASC").Find(&edges).Error
	return edges, err
}
