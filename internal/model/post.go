package model

import (
	"time"

	"StudyRoom/internal/pkg"

	"gorm.io/gorm"
)

type Post struct {
	ID        uint64    `gorm:"primaryKey"`
	AuthorID  uint64    `gorm:"not null;index:idx_author_top_time,priority:1"`
	Body      string    `gorm:"type:text"`
	BodyHTML  string    `gorm:"column:body_html;type:text"`
	Top       bool      `gorm:"not null;default:false;index:idx_author_top_time,priority:2"`
	Timestamp time.Time `gorm:"index:idx_post_timestamp;index:idx_author_top_time,priority:3"`
	UpdatedAt time.Time
}

func (Post) TableName() string {
	return "posts"
}

// BeforeSave body 变化后重新渲染 body_html
func (p *Post) BeforeSave(tx *gorm.DB) error {
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}
	p.BodyHTML = pkg.RenderMarkdown(p.Body, pkg.PostTags)
	return nil
}
