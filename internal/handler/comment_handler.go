package handler

import (
	"net/http"

	"StudyRoom/internal/middleware"
	"StudyRoom/internal/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	svc *service.CommentService
}

type CommentReq struct {
	Body string `json:"body" binding:"required"`
}

func NewCommentHandler(svc *service.CommentService) *CommentHandler {
	return &CommentHandler{svc: svc}
}

// Comment 评论帖子，:id 为帖子 id
func (h *CommentHandler) Comment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	cm, err := h.svc.Comment(c.Request.Context(), middleware.CurrentUser(c), id, req.Body)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": cm.ID, "post_id": cm.PostID})
}

// Reply 回复评论，:id 为被回复的评论 id
func (h *CommentHandler) Reply(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	cm, err := h.svc.Reply(c.Request.Context(), middleware.CurrentUser(c), id, req.Body)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": cm.ID, "post_id": cm.PostID})
}

func (h *CommentHandler) Cancel(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	cm, err := h.svc.Cancel(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted", "post_id": cm.PostID})
}

func (h *CommentHandler) ListByPost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	page, err := h.svc.ListByPost(c.Request.Context(), id, pageQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Moderate 管理评论列表，倒序
func (h *CommentHandler) Moderate(c *gin.Context) {
	page, err := h.svc.Moderate(c.Request.Context(), middleware.CurrentUser(c), pageQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *CommentHandler) Enable(c *gin.Context) {
	h.setDisabled(c, false)
}

func (h *CommentHandler) Disable(c *gin.Context) {
	h.setDisabled(c, true)
}

func (h *CommentHandler) setDisabled(c *gin.Context, disabled bool) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.svc.SetDisabled(c.Request.Context(), middleware.CurrentUser(c), id, disabled); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disabled": disabled})
}
