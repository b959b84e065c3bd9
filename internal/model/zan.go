package model

import "time"

// ZanType 点赞对象类型
type ZanType string

const (
	ZanPost    ZanType = "post"
	ZanComment ZanType = "comment"
)

func (t ZanType) Valid() bool {
	return t == ZanPost || t == ZanComment
}

// Zan 点赞记录；(author_id, type, target_id) 唯一
type Zan struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	AuthorID  uint64    `gorm:"not null;uniqueIndex:uk_zan_author_target,priority:1"`
	Type      ZanType   `gorm:"size:16;not null;index:idx_zan_target,priority:1;uniqueIndex:uk_zan_author_target,priority:2"`
	TargetID  uint64    `gorm:"not null;index:idx_zan_target,priority:2;uniqueIndex:uk_zan_author_target,priority:3"`
	Status    bool      `gorm:"not null;default:true"`
	Timestamp time.Time `gorm:"index;autoCreateTime"`
}

func (Zan) TableName() string {
	return "zans"
}

// NewZan 新建点赞，status 恒为 true
func NewZan(authorID uint64, t ZanType, targetID uint64) *Zan {
	return &Zan{
		AuthorID: authorID,
		Type:     t,
		TargetID: targetID,
		Status:   true,
	}
}
