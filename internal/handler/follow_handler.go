package handler

import (
	"net/http"

	"StudyRoom/internal/middleware"
	"StudyRoom/internal/service"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	svc *service.FollowService
}

func NewFollowHandler(svc *service.FollowService) *FollowHandler {
	return &FollowHandler{svc: svc}
}

// Follow 关注接口
func (h *FollowHandler) Follow(c *gin.Context) {
	changed, err := h.svc.Follow(c.Request.Context(), middleware.CurrentUser(c), c.Param("username"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// Unfollow 取关接口
func (h *FollowHandler) Unfollow(c *gin.Context) {
	changed, err := h.svc.Unfollow(c.Request.Context(), middleware.CurrentUser(c), c.Param("username"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// Fans 获取粉丝列表
func (h *FollowHandler) Fans(c *gin.Context) {
	page, err := h.svc.Fans(c.Request.Context(), c.Param("username"), pageQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Idols 获取关注列表
func (h *FollowHandler) Idols(c *gin.Context) {
	page, err := h.svc.Idols(c.Request.Context(), c.Param("username"), pageQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
