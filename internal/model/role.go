package model

const (
	RoleUser          = "User"
	RoleModerator     = "Moderator"
	RoleAdministrator = "Administrator"

	DefaultRoleName = RoleUser
)

type Role struct {
	ID          uint64     `gorm:"primaryKey"`
	Name        string     `gorm:"uniqueIndex;size:64;not null"`
	Default     bool       `gorm:"column:is_default;index;not null;default:false"`
	Permissions Permission `gorm:"not null;default:0"`
}

func (Role) TableName() string {
	return "roles"
}

// RoleSeed 角色名 -> 授予的权限，顺序即写入顺序
type RoleSeed struct {
	Name        string
	Permissions []Permission
}

// RoleSeeds 种子角色表，新增权限位后重跑 InsertRoles 即可
var RoleSeeds = []RoleSeed{
	{RoleUser, []Permission{PermFollow, PermComment, PermZan, PermWrite}},
	{RoleModerator, []Permission{PermFollow, PermComment, PermZan, PermWrite, PermModerate}},
	{RoleAdministrator, []Permission{PermFollow, PermComment, PermZan, PermWrite, PermModerate, PermAdmin}},
}

// AddPermission 幂等
func (r *Role) AddPermission(perm Permission) {
	if !r.HasPermission(perm) {
		r.Permissions = r.Permissions.Add(perm)
	}
}

// RemovePermission 幂等
func (r *Role) RemovePermission(perm Permission) {
	if r.HasPermission(perm) {
		r.Permissions = r.Permissions.Remove(perm)
	}
}

func (r *Role) ResetPermissions() {
	r.Permissions = 0
}

func (r *Role) HasPermission(perm Permission) bool {
	return r.Permissions.Has(perm)
}

// ApplySeed 先清零再按种子重建，并设置默认标记
func (r *Role) ApplySeed(seed RoleSeed) {
	r.ResetPermissions()
	for _, p := range seed.Permissions {
		r.AddPermission(p)
	}
	r.Default = r.Name == DefaultRoleName
}
