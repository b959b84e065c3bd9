package mysql

import (
	"context"
	"errors"
	"fmt"

	"StudyRoom/internal/model"

	"gorm.io/gorm"
)

type RoleRepository struct {
	DB *gorm.DB
}

// InsertRoles 按种子表创建或重建角色，可重复执行
func (r *RoleRepository) InsertRoles(ctx context.Context) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, seed := range model.RoleSeeds {
			var role model.Role
			err := tx.Where("name = ?", seed.Name).First(&role).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if errors.Is(err, gorm.ErrRecordNotFound) {
				role = model.Role{Name: seed.Name}
			}
			role.ApplySeed(seed)
			// Save 对零值也会写入，保证 is_default 被清掉
			if err = tx.Save(&role).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", seed.Name, err)
			}
		}
		return nil
	})
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := r.DB.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &role, nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id uint64) (*model.Role, error) {
	var role model.Role
	if err := r.DB.WithContext(ctx).First(&role, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &role, nil
}

func (r *RoleRepository) FindDefault(ctx context.Context) (*model.Role, error) {
	var role model.Role
	err := r.DB.WithContext(ctx).Where("is_default = ?", true).Order("id ASC").First(&role).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &role, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]model.Role, error) {
	var list []model.Role
	err := r.DB.WithContext(ctx).Order("id ASC").Find(&list).Error
	return list, err
}
