package mysql_test

import (
	"context"
	"testing"

	"StudyRoom/internal/model"
	"StudyRoom/internal/repository/mysql"
	"StudyRoom/internal/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertRoles(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := &mysql.RoleRepository{DB: db}
	ctx := context.Background()

	// 重复执行结果不变
	require.NoError(t, repo.InsertRoles(ctx))
	require.NoError(t, repo.InsertRoles(ctx))

	roles, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)

	masks := map[string]model.Permission{}
	defaults := 0
	for _, r := range roles {
		masks[r.Name] = r.Permissions
		if r.Default {
			defaults++
			assert.Equal(t, model.RoleUser, r.Name)
		}
	}
	assert.Equal(t, 1, defaults)

	assert.Equal(t, model.PermFollow|model.PermComment|model.PermZan|model.PermWrite, masks[model.RoleUser])
	assert.Equal(t, masks[model.RoleUser]|model.PermModerate, masks[model.RoleModerator])
	assert.Equal(t, masks[model.RoleModerator]|model.PermAdmin, masks[model.RoleAdministrator])

	def, err := repo.FindDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, def.Name)
}

func TestInsertRolesRepairsDrift(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := &mysql.RoleRepository{DB: db}
	ctx := context.Background()

	require.NoError(t, db.Model(&model.Role{}).Where("name = ?", model.RoleModerator).
		Updates(map[string]any{"permissions": model.PermAdmin, "is_default": true}).Error)

	require.NoError(t, repo.InsertRoles(ctx))

	mod, err := repo.FindByName(ctx, model.RoleModerator)
	require.NoError(t, err)
	assert.False(t, mod.Default)
	assert.False(t, mod.HasPermission(model.PermAdmin))
	assert.True(t, mod.HasPermission(model.PermModerate))
}

func TestFindRoleNotFound(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := &mysql.RoleRepository{DB: db}

	_, err := repo.FindByName(context.Background(), "Nobody")
	assert.ErrorIs(t, err, mysql.ErrNotFound)
}
