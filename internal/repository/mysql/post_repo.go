package mysql

import (
	"context"

	"StudyRoom/internal/model"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Create(post).Error
}

func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	if err := r.DB.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// UpdateBody 通过 Save 触发 body_html 重新渲染
func (r *PostRepository) UpdateBody(ctx context.Context, post *model.Post, body string) error {
	post.Body = body
	return r.DB.WithContext(ctx).Save(post).Error
}

func (r *PostRepository) SetTop(ctx context.Context, id uint64, top bool) error {
	return r.DB.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).UpdateColumn("top", top).Error
}

// Delete 硬删除，连带清理评论、回复关系和点赞
func (r *PostRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var commentIDs []uint64
		if err := tx.Model(&model.Comment{}).Where("post_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("child_id IN ?", commentIDs).Delete(&model.ParentChild{}).Error; err != nil {
				return err
			}
			if err := tx.Where("type = ? AND target_id IN ?", model.ZanComment, commentIDs).Delete(&model.Zan{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("type = ? AND target_id = ?", model.ZanPost, id).Delete(&model.Zan{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Post{}, id).Error
	})
}

// ListAll 首页：全部帖子，时间倒序
func (r *PostRepository) ListAll(ctx context.Context, p Page) ([]model.Post, int64, error) {
	return r.paginate(r.DB.WithContext(ctx).Model(&model.Post{}), "timestamp DESC", p)
}

// ListFollowed 首页：关注的人（含自己）的帖子
func (r *PostRepository) ListFollowed(ctx context.Context, userID uint64, p Page) ([]model.Post, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Post{}).
		Joins("JOIN follows ON follows.followed_id = posts.author_id").
		Where("follows.follower_id = ?", userID)
	return r.paginate(q, "posts.timestamp DESC", p)
}

// ListByAuthor 个人主页：置顶优先，再按时间倒序
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID uint64, p Page) ([]model.Post, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Post{}).Where("author_id = ?", authorID)
	return r.paginate(q, "top DESC, timestamp DESC", p)
}

// Search 正文包含关键字，时间倒序
func (r *PostRepository) Search(ctx context.Context, keyword string) ([]model.Post, error) {
	var list []model.Post
	err := r.DB.WithContext(ctx).
		Where("INSTR(body, ?) > 0", keyword).
		Order("timestamp DESC").
		Find(&list).Error
	return list, err
}

func (r *PostRepository) paginate(q *gorm.DB, order string, p Page) ([]model.Post, int64, error) {
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Post
	err := q.Order(order).Offset(p.Offset()).Limit(p.Limit()).Find(&list).Error
	return list, total, err
}
