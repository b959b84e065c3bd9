package model

// Permission 权限位，数值需与历史数据保持一致
type Permission int

const (
	PermFollow   Permission = 1
	PermComment  Permission = 2
	PermZan      Permission = 4
	PermWrite    Permission = 8
	PermModerate Permission = 16
	PermAdmin    Permission = 32
)

// AllPermissions 全部已定义的权限位
var AllPermissions = []Permission{PermFollow, PermComment, PermZan, PermWrite, PermModerate, PermAdmin}

// Has mask 中是否包含 perm 的全部位
func (p Permission) Has(perm Permission) bool {
	return p&perm == perm
}

func (p Permission) Add(perm Permission) Permission {
	return p | perm
}

func (p Permission) Remove(perm Permission) Permission {
	return p &^ perm
}

func (p Permission) String() string {
	switch p {
	case PermFollow:
		return "FOLLOW"
	case PermComment:
		return "COMMENT"
	case PermZan:
		return "ZAN"
	case PermWrite:
		return "WRITE"
	case PermModerate:
		return "MODERATE"
	case PermAdmin:
		return "ADMIN"
	}
	return "MASK"
}
