package testutils

import (
	"context"
	"fmt"
	"testing"

	"StudyRoom/internal/model"
	"StudyRoom/internal/repository/mysql"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const TestPassword = "cat"

// CreateTestUser 默认 User 角色、已确认、密码为 TestPassword
func CreateTestUser(t *testing.T, db *gorm.DB, opts ...UserOption) *model.User {
	t.Helper()

	uniqueID := uuid.New().String()[:8]
	u := &model.User{
		Username:  "user_" + uniqueID,
		Email:     fmt.Sprintf("%s@example.com", uniqueID),
		Confirmed: true,
	}
	if err := u.SetPassword(TestPassword); err != nil {
		t.Fatalf("set password: %v", err)
	}
	roleName := model.RoleUser
	for _, opt := range opts {
		opt(u, &roleName)
	}

	roles := &mysql.RoleRepository{DB: db}
	role, err := roles.FindByName(context.Background(), roleName)
	if err != nil {
		t.Fatalf("find role %s: %v", roleName, err)
	}
	u.RoleID = role.ID
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}
	u.Role = role
	return u
}

type UserOption func(u *model.User, role *string)

func WithUsername(name string) UserOption {
	return func(u *model.User, _ *string) { u.Username = name }
}

func WithEmail(email string) UserOption {
	return func(u *model.User, _ *string) { u.Email = email }
}

func WithRole(name string) UserOption {
	return func(_ *model.User, role *string) { *role = name }
}

func Unconfirmed() UserOption {
	return func(u *model.User, _ *string) { u.Confirmed = false }
}

func CreateTestPost(t *testing.T, db *gorm.DB, authorID uint64, body string) *model.Post {
	t.Helper()

	p := &model.Post{AuthorID: authorID, Body: body}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create test post: %v", err)
	}
	return p
}
