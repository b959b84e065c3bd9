package service

import (
	"context"
	"testing"

	"StudyRoom/internal/model"
	"StudyRoom/internal/pkg"
	"StudyRoom/internal/repository/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (*UserService, *mailbox) {
	t.Helper()
	db, rdb := setup(t)
	box := &mailbox{}
	return NewUserService(db, rdb, box, "admin@example.com", "http://localhost:8080"), box
}

func TestRegister(t *testing.T) {
	svc, box := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: "John@Example.com", Username: "john", Password: "cat"})
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", u.Email)
	assert.False(t, u.Confirmed)
	assert.Equal(t, model.DefaultAvatar, u.AvatarHash)
	require.NotNil(t, u.Role)
	assert.Equal(t, model.RoleUser, u.Role.Name)

	following, err := (&mysql.FollowRepository{DB: svc.db}).IsFollowing(ctx, u.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, following)

	mail := box.last(t)
	assert.Equal(t, "john@example.com", mail.To)
	assert.Equal(t, pkg.TemplateConfirm, mail.Template)
	assert.NotEmpty(t, mail.Data.Token)

	admin, err := svc.Register(ctx, RegisterInput{Email: "admin@example.com", Username: "boss", Password: "cat"})
	require.NoError(t, err)
	assert.True(t, admin.IsAdministrator())
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "alice", Password: "cat"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"邮箱已注册", RegisterInput{Email: "A@example.com", Username: "other", Password: "x"}, ErrEmailTaken},
		{"用户名已占用", RegisterInput{Email: "b@example.com", Username: "alice", Password: "x"}, ErrUsernameTaken},
		{"用户名非法", RegisterInput{Email: "c@example.com", Username: "1bad", Password: "x"}, ErrInvalidInput},
		{"邮箱非法", RegisterInput{Email: "nope", Username: "carl", Password: "x"}, ErrInvalidInput},
		{"空密码", RegisterInput{Email: "d@example.com", Username: "dave", Password: ""}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoginAndSession(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "alice", Password: "cat"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "a@example.com", "dog", "1.1.1.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "cat", "1.1.1.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	pair, u, err := svc.Login(ctx, "a@example.com", "cat", "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.LoginCount)

	got, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "1.1.1.1", got.LastLoginIP)

	refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, refreshed.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, u.ID))
	_, err = svc.Authenticate(ctx, refreshed.AccessToken)
	assert.Error(t, err)
}

func TestConfirm(t *testing.T) {
	svc, box := newUserService(t)
	ctx := context.Background()
	alice, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "alice", Password: "cat"})
	require.NoError(t, err)
	aliceToken := box.last(t).Data.Token
	bob, err := svc.Register(ctx, RegisterInput{Email: "b@example.com", Username: "bob", Password: "cat"})
	require.NoError(t, err)

	// 别人的 token 无效
	assert.ErrorIs(t, svc.Confirm(ctx, bob, aliceToken), ErrInvalidToken)
	assert.ErrorIs(t, svc.Confirm(ctx, alice, "garbage"), ErrInvalidToken)

	require.NoError(t, svc.Confirm(ctx, alice, aliceToken))
	assert.True(t, alice.Confirmed)
	reloaded, err := svc.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Confirmed)

	// 已确认再次调用不报错
	assert.NoError(t, svc.Confirm(ctx, alice, aliceToken))
}

func TestResendConfirmationThrottled(t *testing.T) {
	svc, box := newUserService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "alice", Password: "cat"})
	require.NoError(t, err)
	first := box.last(t).Data.Token

	require.NoError(t, svc.ResendConfirmation(ctx, u))
	assert.Equal(t, 2, box.count())
	assert.Error(t, svc.ResendConfirmation(ctx, u))

	// 重发后只有最新的 token 有效
	latest := box.last(t).Data.Token
	if latest != first {
		assert.ErrorIs(t, svc.Confirm(ctx, u, first), ErrInvalidToken)
	}
	require.NoError(t, svc.Confirm(ctx, u, latest))
}

func TestRefreshBoundToSession(t *testing.T) {
	svc, box := newUserService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "alice", Password: "cat"})
	require.NoError(t, err)

	login := func(password string) *pkg.Pair {
		t.Helper()
		pair, _, err := svc.Login(ctx, "a@example.com", password, "")
		require.NoError(t, err)
		return pair
	}

	// 换发后旧 refresh 作废
	pair := login("cat")
	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Authenticate(ctx, pair.AccessToken)
	assert.Error(t, err)

	// 重新登录后上一个会话的 refresh 作废
	again := login("cat")
	_, err = svc.Refresh(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// 登出
	require.NoError(t, svc.Logout(ctx, u.ID))
	_, err = svc.Refresh(ctx, again.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// 修改密码
	pair = login("cat")
	require.NoError(t, svc.ChangePassword(ctx, u, "cat", "dog"))
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// 重设密码
	pair = login("dog")
	require.NoError(t, svc.ResetPasswordRequest(ctx, "a@example.com"))
	require.NoError(t, svc.ResetPassword(ctx, box.last(t).Data.Token, "fish"))
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Authenticate(ctx, pair.AccessToken)
	assert.Error(t, err)
}

func TestResetPassword(t *testing.T) {
	svc, box := newUserService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "alice", Password: "cat"})
	require.NoError(t, err)

	sent := box.count()
	require.NoError(t, svc.ResetPasswordRequest(ctx, "unknown@example.com"))
	assert.Equal(t, sent, box.count())

	require.NoError(t, svc.ResetPasswordRequest(ctx, "a@example.com"))
	mail := box.last(t)
	assert.Equal(t, pkg.TemplateResetPassword, mail.Template)

	require.NoError(t, svc.ResetPassword(ctx, mail.Data.Token, "dog"))
	assert.ErrorIs(t, svc.ResetPassword(ctx, mail.Data.Token, "fish"), ErrInvalidToken)

	_, _, err = svc.Login(ctx, "a@example.com", "cat", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, u, err := svc.Login(ctx, "a@example.com", "dog", "")
	require.NoError(t, err)
	assert.Equal(t, "unknown", u.LastLoginIP)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "alice", Password: "cat"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(ctx, u, "wrong", "dog"), ErrWrongPassword)
	require.NoError(t, svc.ChangePassword(ctx, u, "cat", "dog"))
	_, _, err = svc.Login(ctx, "a@example.com", "dog", "")
	assert.NoError(t, err)
}

func TestChangeEmail(t *testing.T) {
	svc, box := newUserService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "alice", Password: "cat"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Email: "b@example.com", Username: "bob", Password: "cat"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangeEmailRequest(ctx, u, "new@example.com", "dog"), ErrWrongPassword)
	assert.ErrorIs(t, svc.ChangeEmailRequest(ctx, u, "b@example.com", "cat"), ErrEmailTaken)

	require.NoError(t, svc.ChangeEmailRequest(ctx, u, "new@example.com", "cat"))
	mail := box.last(t)
	assert.Equal(t, "new@example.com", mail.To)

	u.AvatarHash = "images/custom.png"
	require.NoError(t, svc.ChangeEmail(ctx, u, mail.Data.Token))
	got, err := svc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)
	assert.Equal(t, model.DefaultAvatar, got.AvatarHash)
}

func TestEditProfileAdmin(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	admin, err := svc.Register(ctx, RegisterInput{Email: "admin@example.com", Username: "boss", Password: "cat"})
	require.NoError(t, err)
	u, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "alice", Password: "cat"})
	require.NoError(t, err)

	require.NoError(t, svc.EditProfile(ctx, u, ProfileInput{Name: "Alice", Location: "Earth", AboutMe: "hi"}))

	mod, err := svc.roles.FindByName(ctx, model.RoleModerator)
	require.NoError(t, err)
	in := AdminProfileInput{
		ProfileInput: ProfileInput{Name: "Alice B"},
		Email:        "alice@example.com",
		Username:     "aliceb",
		Confirmed:    true,
		RoleID:       mod.ID,
	}

	_, err = svc.EditProfileAdmin(ctx, u, u.ID, in)
	assert.ErrorIs(t, err, ErrNoPermission)
	_, err = svc.EditProfileAdmin(ctx, model.AnonymousUser{}, u.ID, in)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	got, err := svc.EditProfileAdmin(ctx, admin, u.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "aliceb", got.Username)
	assert.True(t, got.Confirmed)
	assert.True(t, got.Can(model.PermModerate))
	assert.Equal(t, "Alice B", got.Name)

	in.Email = "admin@example.com"
	_, err = svc.EditProfileAdmin(ctx, admin, u.ID, in)
	assert.ErrorIs(t, err, ErrEmailTaken)
}
