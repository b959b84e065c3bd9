package handler

import (
	"errors"
	"net/http"

	"StudyRoom/internal/middleware"
	"StudyRoom/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc     *service.UserService
	follows *service.FollowService
}

// RegisterReq 注册请求体
type RegisterReq struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type ProfileReq struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	AboutMe  string `json:"about_me"`
}

type AdminProfileReq struct {
	ProfileReq
	Email     string `json:"email" binding:"required"`
	Username  string `json:"username" binding:"required"`
	Confirmed bool   `json:"confirmed"`
	RoleID    uint64 `json:"role_id" binding:"required"`
}

func NewUserHandler(svc *service.UserService, follows *service.FollowService) *UserHandler {
	return &UserHandler{svc: svc, follows: follows}
}

// Register 注册接口
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	user, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "a confirmation email has been sent", "id": user.ID})
}

// Login 登录接口
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	token, user, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"AccessToken":  token.AccessToken,
		"RefreshToken": token.RefreshToken,
		"login_count":  user.LoginCount,
		"confirmed":    user.Confirmed,
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), c.GetUint64(middleware.ContextUserIDKey)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// TokenRefresh 利用refresh来更新access
func (h *UserHandler) TokenRefresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	token, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if errors.Is(err, service.ErrInvalidToken) {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "refresh token revoked"})
		return
	}
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"AccessToken": token.AccessToken, "RefreshToken": token.RefreshToken})
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), middleware.AuthedUser(c), req.OldPassword, req.NewPassword); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "your password has been updated, please login again"})
}

// Profile 用户主页
func (h *UserHandler) Profile(c *gin.Context) {
	user, err := h.svc.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeErr(c, err)
		return
	}
	resp := gin.H{
		"id":              user.ID,
		"username":        user.Username,
		"name":            user.Name,
		"location":        user.Location,
		"about_me":        user.AboutMe,
		"avatar":          user.AvatarHash,
		"member_since":    user.MemberSince,
		"last_seen":       user.LastSeen,
		"follower_count":  user.FollowerCount,
		"following_count": user.FollowingCount,
	}
	viewer := middleware.CurrentUser(c)
	if viewer.IsAuthenticated() {
		following, err := h.follows.IsFollowing(c.Request.Context(), viewer.UserID(), user.ID)
		if err != nil {
			writeErr(c, err)
			return
		}
		followedBy, err := h.follows.IsFollowedBy(c.Request.Context(), viewer.UserID(), user.ID)
		if err != nil {
			writeErr(c, err)
			return
		}
		resp["is_following"] = following
		resp["follows_you"] = followedBy
	}
	if viewer.IsAdministrator() || viewer.UserID() == user.ID {
		resp["email"] = user.Email
		resp["login_count"] = user.LoginCount
		resp["last_login_ip"] = user.LastLoginIP
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) EditProfile(c *gin.Context) {
	var req ProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	user := middleware.AuthedUser(c)
	err := h.svc.EditProfile(c.Request.Context(), user, service.ProfileInput{
		Name:     req.Name,
		Location: req.Location,
		AboutMe:  req.AboutMe,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "your profile has been updated"})
}

func (h *UserHandler) EditProfileAdmin(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req AdminProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	user, err := h.svc.EditProfileAdmin(c.Request.Context(), middleware.CurrentUser(c), id, service.AdminProfileInput{
		ProfileInput: service.ProfileInput{Name: req.Name, Location: req.Location, AboutMe: req.AboutMe},
		Email:        req.Email,
		Username:     req.Username,
		Confirmed:    req.Confirmed,
		RoleID:       req.RoleID,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "the profile has been updated", "username": user.Username})
}

func (h *UserHandler) Roles(c *gin.Context) {
	roles, err := h.svc.Roles(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": roles})
}
