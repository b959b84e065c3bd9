package handler

import (
	"net/http"

	"StudyRoom/internal/middleware"
	"StudyRoom/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	svc      *service.PostService
	comments *service.CommentService
}

type PostReq struct {
	Body string `json:"body" binding:"required"`
}

func NewPostHandler(svc *service.PostService, comments *service.CommentService) *PostHandler {
	return &PostHandler{svc: svc, comments: comments}
}

// Index 首页，followed=1 时只看关注的人
func (h *PostHandler) Index(c *gin.Context) {
	followed := c.Query("followed") == "1"
	page, err := h.svc.Index(c.Request.Context(), middleware.CurrentUser(c), followed, pageQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Write 发帖接口
func (h *PostHandler) Write(c *gin.Context) {
	var req PostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	post, err := h.svc.Write(c.Request.Context(), middleware.CurrentUser(c), req.Body)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": post.ID})
}

// Get 帖子详情及评论分页，page=-1 为最后一页
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	post, err := h.svc.View(c.Request.Context(), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	comments, err := h.comments.ListByPost(c.Request.Context(), id, pageQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post, "comments": comments})
}

func (h *PostHandler) Edit(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req PostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	post, err := h.svc.Edit(c.Request.Context(), middleware.CurrentUser(c), id, req.Body)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "the post has been updated", "body_html": post.BodyHTML})
}

// Delete 删除帖子接口
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
}

func (h *PostHandler) Top(c *gin.Context) {
	h.setTop(c, true)
}

func (h *PostHandler) Untop(c *gin.Context) {
	h.setTop(c, false)
}

func (h *PostHandler) setTop(c *gin.Context, top bool) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.svc.SetTop(c.Request.Context(), middleware.CurrentUser(c), id, top); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"top": top})
}

// ListByAuthor 用户主页的帖子，置顶优先
func (h *PostHandler) ListByAuthor(c *gin.Context) {
	page, err := h.svc.ListByAuthor(c.Request.Context(), c.Param("username"), pageQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *PostHandler) Search(c *gin.Context) {
	list, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}
