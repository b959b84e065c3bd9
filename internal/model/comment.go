package model

import (
	"time"

	"StudyRoom/internal/pkg"

	"gorm.io/gorm"
)

type Comment struct {
	ID        uint64    `gorm:"primaryKey"`
	AuthorID  uint64    `gorm:"not null;index"`
	PostID    uint64    `gorm:"not null;index:idx_post_time,priority:1"`
	Body      string    `gorm:"type:text"`
	BodyHTML  string    `gorm:"column:body_html;type:text"`
	Timestamp time.Time `gorm:"index:idx_post_time,priority:2"`
	Disabled  bool      `gorm:"not null;default:false"`
	FloatID   int       `gorm:"not null;default:0"` // 楼层号
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeSave(tx *gorm.DB) error {
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now()
	}
	c.BodyHTML = pkg.RenderMarkdown(c.Body, pkg.CommentTags)
	return nil
}

// ParentChild 回复关系；根评论的 parent_id 是帖子 id
type ParentChild struct {
	ParentID  uint64    `gorm:"primaryKey;autoIncrement:false"`
	ChildID   uint64    `gorm:"primaryKey;autoIncrement:false;index"`
	Timestamp time.Time `gorm:"autoCreateTime"`
}

func (ParentChild) TableName() string {
	return "parent_child"
}

// RelayedAuthor 解析评论回复的对象，返回被回复者的用户 id。
// postAuthorID 为帖子作者；commentAuthors 为该帖下评论 id -> 作者 id。
// 按 edges 顺序取第一条命中，边不唯一时结果依赖顺序。
func (c *Comment) RelayedAuthor(edges []ParentChild, postAuthorID uint64, commentAuthors map[uint64]uint64) (uint64, bool) {
	for _, e := range edges {
		if e.ChildID != c.ID {
			continue
		}
		if e.ParentID == c.PostID {
			return postAuthorID, true
		}
		if author, ok := commentAuthors[e.ParentID]; ok {
			return author, true
		}
	}
	return 0, false
}
