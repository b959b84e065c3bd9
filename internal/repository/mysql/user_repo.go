package mysql

import (
	"context"
	"time"

	"StudyRoom/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).Preload("Role").First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Preload("Role").Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var usr model.User
	err := r.DB.WithContext(ctx).Preload("Role").Where("email = ?", email).First(&usr).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &usr, nil
}

// FindByIDs 批量查询，返回 id -> user
func (r *UserRepository) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]*model.User, error) {
	out := make(map[uint64]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []model.User
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

// EmailTaken excludeID 用于编辑资料时排除自己
func (r *UserRepository) EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("email = ? AND id <> ?", email, excludeID).Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) UsernameTaken(ctx context.Context, username string, excludeID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("username = ? AND id <> ?", username, excludeID).Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Model(user).Update("password_hash", user.PasswordHash).Error
}

// UpdateFields 只更新给定列
func (r *UserRepository) UpdateFields(ctx context.Context, userID uint64, fields map[string]any) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(fields).Error
}

// RecordLogin 登录次数+1 并记录 ip
func (r *UserRepository) RecordLogin(ctx context.Context, userID uint64, ip string) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Updates(map[string]any{
			"login_count":   gorm.Expr("login_count + 1"),
			"last_login_ip": ip,
		}).Error
}

// Ping 刷新最后访问时间
func (r *UserRepository) Ping(ctx context.Context, userID uint64) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		UpdateColumn("last_seen", time.Now()).Error
}
