package model

import "time"

// Follow 关注关系，(follower_id, followed_id) 为联合主键
type Follow struct {
	FollowerID uint64    `gorm:"primaryKey;autoIncrement:false"`
	FollowedID uint64    `gorm:"primaryKey;autoIncrement:false;index:idx_followed_id"`
	Timestamp  time.Time `gorm:"autoCreateTime"`
}

// TableName sets table name for Follow
func (Follow) TableName() string {
	return "follows"
}

// SocialOutbox 社交事件监控表
type SocialOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:16;not null"` // follow / unfollow / zan / unzan
	ActorID   uint64 `gorm:"not null"`
	TargetID  uint64 `gorm:"not null"`
	Payload   string `gorm:"type:text;not null"`
	Status    int8   `gorm:"not null;default:0;comment:'0=pending,1=sent,2=failed'"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SocialOutbox) TableName() string { return "social_outbox" }

const (
	EventFollow   = "follow"
	EventUnfollow = "unfollow"
	EventZan      = "zan"
	EventUnzan    = "unzan"

	OutboxPending = 0
	OutboxSent    = 1
	OutboxFailed  = 2
)
