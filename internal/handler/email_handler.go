package handler

import (
	"net/http"

	"StudyRoom/internal/middleware"
	"StudyRoom/internal/service"

	"github.com/gin-gonic/gin"
)

// EmailHandler 邮件 token 相关流程：确认账户、重设密码、更换邮箱
type EmailHandler struct {
	svc *service.UserService
}

type ResetRequestReq struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetReq struct {
	NewPassword string `json:"new_password" binding:"required"`
}

type ChangeEmailReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func NewEmailHandler(svc *service.UserService) *EmailHandler {
	return &EmailHandler{svc: svc}
}

func (h *EmailHandler) Confirm(c *gin.Context) {
	if err := h.svc.Confirm(c.Request.Context(), middleware.AuthedUser(c), c.Param("token")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "you have confirmed your account"})
}

func (h *EmailHandler) ResendConfirmation(c *gin.Context) {
	if err := h.svc.ResendConfirmation(c.Request.Context(), middleware.AuthedUser(c)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "a new confirmation email has been sent"})
}

// ResetRequest 邮箱是否存在都返回成功
func (h *EmailHandler) ResetRequest(c *gin.Context) {
	var req ResetRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	if err := h.svc.ResetPasswordRequest(c.Request.Context(), req.Email); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "an email with instructions to reset your password has been sent"})
}

func (h *EmailHandler) Reset(c *gin.Context) {
	var req ResetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), c.Param("token"), req.NewPassword); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "your password has been updated"})
}

func (h *EmailHandler) ChangeEmailRequest(c *gin.Context) {
	var req ChangeEmailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	if err := h.svc.ChangeEmailRequest(c.Request.Context(), middleware.AuthedUser(c), req.Email, req.Password); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "an email with instructions to confirm your new email address has been sent"})
}

func (h *EmailHandler) ChangeEmail(c *gin.Context) {
	if err := h.svc.ChangeEmail(c.Request.Context(), middleware.AuthedUser(c), c.Param("token")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "your email address has been updated"})
}
