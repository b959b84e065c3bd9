package model

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultAvatar      = "images/default_avatar.jpg"
	DefaultAvatarSmall = "images/2default_avatar.jpg"
)

var ErrEmptyPassword = errors.New("password required")

// Principal 权限检查的统一入口，匿名用户与登录用户都实现它
type Principal interface {
	UserID() uint64
	IsAuthenticated() bool
	Can(perm Permission) bool
	IsAdministrator() bool
}

type User struct {
	ID             uint64    `gorm:"primaryKey"`
	Email          string    `gorm:"uniqueIndex;size:64;not null"`
	Username       string    `gorm:"uniqueIndex;size:64;not null"`
	RoleID         uint64    `gorm:"index"`
	Role           *Role     `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	PasswordHash   string    `gorm:"size:255;not null" json:"-"`
	Confirmed      bool      `gorm:"not null;default:false"`
	Name           string    `gorm:"size:64"`
	Location       string    `gorm:"size:64"`
	AboutMe        string    `gorm:"type:text"`
	AvatarHash     string    `gorm:"size:128"`
	AvatarHash2    string    `gorm:"column:avatar_hash_2;size:128"`
	LoginCount     int       `gorm:"not null;default:0"`
	LastLoginIP    string    `gorm:"size:128;not null;default:'unknown'"`
	FollowerCount  int64     `gorm:"not null;default:0"`
	FollowingCount int64     `gorm:"not null;default:0"`
	MemberSince    time.Time `gorm:"autoCreateTime"`
	LastSeen       time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (User) TableName() string {
	return "users"
}

func (u *User) UserID() uint64 {
	return u.ID
}

func (u *User) IsAuthenticated() bool {
	return true
}

// Can 角色为空时一律拒绝
func (u *User) Can(perm Permission) bool {
	return u.Role != nil && u.Role.HasPermission(perm)
}

func (u *User) IsAdministrator() bool {
	return u.Can(PermAdmin)
}

// SetPassword 只保存加盐哈希
func (u *User) SetPassword(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) VerifyPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ResetAvatar 恢复默认头像
func (u *User) ResetAvatar() {
	u.AvatarHash = DefaultAvatar
	u.AvatarHash2 = DefaultAvatarSmall
}

// AnonymousUser 未登录用户
type AnonymousUser struct{}

func (AnonymousUser) UserID() uint64 { return 0 }

func (AnonymousUser) IsAuthenticated() bool { return false }

func (AnonymousUser) Can(Permission) bool { return false }

func (AnonymousUser) IsAdministrator() bool { return false }
