package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"StudyRoom/internal/model"
	"StudyRoom/internal/pkg"
	"StudyRoom/internal/repository/mysql"
	"StudyRoom/internal/repository/redis"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const ResendInterval = time.Minute

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

type UserService struct {
	db         *gorm.DB
	repo       *mysql.UserRepository
	roles      *mysql.RoleRepository
	sessions   *redis.SessionRepository
	tokens     *redis.ActionTokenRepository
	notifier   pkg.Notifier
	adminEmail string
	baseURL    string
}

func NewUserService(db *gorm.DB, rdb *goredis.Client, notifier pkg.Notifier, adminEmail, baseURL string) *UserService {
	if notifier == nil {
		notifier = pkg.LogNotifier{}
	}
	return &UserService{
		db:         db,
		repo:       &mysql.UserRepository{DB: db},
		roles:      &mysql.RoleRepository{DB: db},
		sessions:   &redis.SessionRepository{RDB: rdb},
		tokens:     &redis.ActionTokenRepository{RDB: rdb},
		notifier:   notifier,
		adminEmail: strings.ToLower(adminEmail),
		baseURL:    baseURL,
	}
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// Register 创建用户、关注自己并发送确认邮件
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if !emailPattern.MatchString(email) || len(email) > 64 {
		return nil, fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if !usernamePattern.MatchString(username) || len(username) > 64 {
		return nil, fmt.Errorf("%w: usernames must have only letters, numbers, dots or underscores", ErrInvalidInput)
	}

	user := &model.User{Email: email, Username: username}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	user.ResetAvatar()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := &mysql.UserRepository{DB: tx}
		if taken, err := users.EmailTaken(ctx, email, 0); err != nil {
			return err
		} else if taken {
			return ErrEmailTaken
		}
		if taken, err := users.UsernameTaken(ctx, username, 0); err != nil {
			return err
		} else if taken {
			return ErrUsernameTaken
		}

		role, err := s.roleFor(ctx, &mysql.RoleRepository{DB: tx}, email)
		if err != nil {
			return err
		}
		user.RoleID = role.ID
		user.Role = role
		if err = users.Create(ctx, user); err != nil {
			return err
		}
		// 关注自己，首页"自己+关注的人"只需一次联表
		_, err = (&mysql.FollowRepository{DB: tx}).Follow(ctx, user.ID, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err = s.sendAction(ctx, user, pkg.PurposeConfirm, user.Email, "", "确认您的账户", pkg.TemplateConfirm); err != nil {
		return user, err
	}
	return user, nil
}

// roleFor 管理员邮箱分配 Administrator，其余分配默认角色
func (s *UserService) roleFor(ctx context.Context, roles *mysql.RoleRepository, email string) (*model.Role, error) {
	var (
		role *model.Role
		err  error
	)
	if s.adminEmail != "" && email == s.adminEmail {
		role, err = roles.FindByName(ctx, model.RoleAdministrator)
	} else {
		role, err = roles.FindDefault(ctx)
	}
	if errors.Is(err, mysql.ErrNotFound) {
		return nil, ErrRoleMissing
	}
	return role, err
}

// Login 校验密码，记录登录次数和 ip，签发 token 并覆盖旧会话
func (s *UserService) Login(ctx context.Context, email, password, ip string) (*pkg.Pair, *model.User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, mysql.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !user.VerifyPassword(password) {
		return nil, nil, ErrInvalidCredentials
	}
	if ip == "" {
		ip = "unknown"
	}
	if err = s.repo.RecordLogin(ctx, user.ID, ip); err != nil {
		return nil, nil, err
	}
	user.LoginCount++
	user.LastLoginIP = ip

	pair, err := pkg.GeneratePair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	if err = s.saveSession(ctx, user.ID, pair); err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *UserService) saveSession(ctx context.Context, userID uint64, pair *pkg.Pair) error {
	if err := s.sessions.Save(ctx, userID, pair.AccessToken); err != nil {
		return err
	}
	return s.sessions.SaveRefresh(ctx, userID, pair.RefreshToken, pkg.RefreshTTL)
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	return s.sessions.Delete(ctx, userID)
}

// Refresh 只接受当前会话的 refresh token，换发后旧的一对失效
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, err := pkg.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	current, err := s.sessions.GetRefresh(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, redis.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if current != refreshToken {
		return nil, ErrInvalidToken
	}
	pair, err := pkg.GeneratePair(claims.UserID)
	if err != nil {
		return nil, err
	}
	if err = s.saveSession(ctx, claims.UserID, pair); err != nil {
		return nil, err
	}
	return pair, nil
}

// Authenticate 校验 access token 与当前会话一致，返回带角色的用户
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := pkg.ParseAccess(accessToken)
	if err != nil {
		return nil, err
	}
	current, err := s.sessions.Get(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if current != accessToken {
		return nil, ErrInvalidToken
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, mysql.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	_ = s.sessions.Extend(ctx, user.ID)
	return user, nil
}

// Ping 刷新最后访问时间
func (s *UserService) Ping(ctx context.Context, user *model.User) error {
	user.LastSeen = time.Now()
	return s.repo.Ping(ctx, user.ID)
}

// Confirm 已确认的账户直接返回
func (s *UserService) Confirm(ctx context.Context, user *model.User, token string) error {
	if user.Confirmed {
		return nil
	}
	if _, err := s.consume(ctx, token, pkg.PurposeConfirm, user.ID); err != nil {
		return err
	}
	if err := s.repo.UpdateFields(ctx, user.ID, map[string]any{"confirmed": true}); err != nil {
		return err
	}
	user.Confirmed = true
	return nil
}

func (s *UserService) ResendConfirmation(ctx context.Context, user *model.User) error {
	if user.Confirmed {
		return nil
	}
	if err := s.tokens.Throttle(ctx, pkg.PurposeConfirm, user.ID, ResendInterval); err != nil {
		return err
	}
	return s.sendAction(ctx, user, pkg.PurposeConfirm, user.Email, "", "确认您的账户", pkg.TemplateConfirm)
}

// ChangePassword 修改后当前会话失效
func (s *UserService) ChangePassword(ctx context.Context, user *model.User, oldPassword, newPassword string) error {
	if !user.VerifyPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.UpdatePassword(ctx, user); err != nil {
		return err
	}
	return s.Logout(ctx, user.ID)
}

// ResetPasswordRequest 邮箱不存在时静默返回，不暴露注册情况
func (s *UserService) ResetPasswordRequest(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, mysql.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err = s.tokens.Throttle(ctx, pkg.PurposeReset, user.ID, ResendInterval); err != nil {
		return err
	}
	return s.sendAction(ctx, user, pkg.PurposeReset, user.Email, "", "重设您的密码", pkg.TemplateResetPassword)
}

func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := pkg.ParseActionToken(token, pkg.PurposeReset)
	if err != nil {
		return ErrInvalidToken
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return ErrInvalidToken
	}
	if err = user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err = s.consume(ctx, token, pkg.PurposeReset, user.ID); err != nil {
		return err
	}
	if err = s.repo.UpdatePassword(ctx, user); err != nil {
		return err
	}
	return s.Logout(ctx, user.ID)
}

func (s *UserService) ChangeEmailRequest(ctx context.Context, user *model.User, newEmail, password string) error {
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))
	if !emailPattern.MatchString(newEmail) {
		return fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if !user.VerifyPassword(password) {
		return ErrWrongPassword
	}
	taken, err := s.repo.EmailTaken(ctx, newEmail, user.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return s.sendAction(ctx, user, pkg.PurposeChangeEmail, newEmail, newEmail, "确认您的邮箱地址", pkg.TemplateChangeEmail)
}

// ChangeEmail 更换邮箱并恢复默认头像
func (s *UserService) ChangeEmail(ctx context.Context, user *model.User, token string) error {
	claims, err := s.consume(ctx, token, pkg.PurposeChangeEmail, user.ID)
	if err != nil {
		return err
	}
	if claims.NewEmail == "" {
		return ErrInvalidToken
	}
	taken, err := s.repo.EmailTaken(ctx, claims.NewEmail, user.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	user.Email = claims.NewEmail
	user.ResetAvatar()
	return s.repo.UpdateFields(ctx, user.ID, map[string]any{
		"email":         user.Email,
		"avatar_hash":   user.AvatarHash,
		"avatar_hash_2": user.AvatarHash2,
	})
}

// consume 校验 token 属于该用户，并且是最近签发且未使用的那一个
func (s *UserService) consume(ctx context.Context, token, purpose string, userID uint64) (*pkg.ActionClaims, error) {
	claims, err := pkg.ParseActionToken(token, purpose)
	if err != nil || claims.UserID != userID {
		return nil, ErrInvalidToken
	}
	if err = s.tokens.Consume(ctx, purpose, userID, token); err != nil {
		if errors.Is(err, redis.ErrActionTokenUsed) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return claims, nil
}

func (s *UserService) sendAction(ctx context.Context, user *model.User, purpose, to, newEmail, subject, template string) error {
	token, err := pkg.IssueActionToken(purpose, user.ID, newEmail, pkg.ActionTTL)
	if err != nil {
		return err
	}
	if err = s.tokens.Remember(ctx, purpose, user.ID, token, pkg.ActionTTL); err != nil {
		return err
	}
	s.notifier.Notify(to, subject, template, pkg.MailData{Username: user.Username, Token: token, BaseURL: s.baseURL})
	return nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, mysql.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, mysql.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

type ProfileInput struct {
	Name     string
	Location string
	AboutMe  string
}

func (s *UserService) EditProfile(ctx context.Context, user *model.User, in ProfileInput) error {
	if len(in.Name) > 64 || len(in.Location) > 64 {
		return ErrInvalidInput
	}
	user.Name, user.Location, user.AboutMe = in.Name, in.Location, in.AboutMe
	return s.repo.UpdateFields(ctx, user.ID, map[string]any{
		"name":     in.Name,
		"location": in.Location,
		"about_me": in.AboutMe,
	})
}

type AdminProfileInput struct {
	ProfileInput
	Email     string
	Username  string
	Confirmed bool
	RoleID    uint64
}

// EditProfileAdmin 管理员修改任意用户资料
func (s *UserService) EditProfileAdmin(ctx context.Context, actor model.Principal, userID uint64, in AdminProfileInput) (*model.User, error) {
	if err := requirePerm(actor, model.PermAdmin); err != nil {
		return nil, err
	}
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if !emailPattern.MatchString(email) || !usernamePattern.MatchString(username) {
		return nil, ErrInvalidInput
	}
	if email != user.Email {
		if taken, err := s.repo.EmailTaken(ctx, email, user.ID); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrEmailTaken
		}
	}
	if username != user.Username {
		if taken, err := s.repo.UsernameTaken(ctx, username, user.ID); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrUsernameTaken
		}
	}
	role, err := s.roles.FindByID(ctx, in.RoleID)
	if err != nil {
		if errors.Is(err, mysql.ErrNotFound) {
			return nil, fmt.Errorf("%w: role", ErrInvalidInput)
		}
		return nil, err
	}

	fields := map[string]any{
		"email":     email,
		"username":  username,
		"confirmed": in.Confirmed,
		"role_id":   role.ID,
		"name":      in.Name,
		"location":  in.Location,
		"about_me":  in.AboutMe,
	}
	if err = s.repo.UpdateFields(ctx, user.ID, fields); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, user.ID)
}

func (s *UserService) Roles(ctx context.Context) ([]model.Role, error) {
	return s.roles.List(ctx)
}
