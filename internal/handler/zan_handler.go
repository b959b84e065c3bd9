package handler

import (
	"net/http"

	"StudyRoom/internal/middleware"
	"StudyRoom/internal/model"
	"StudyRoom/internal/service"

	"github.com/gin-gonic/gin"
)

// ZanHandler 点赞接口，:type 为 post 或 comment
type ZanHandler struct {
	svc *service.ZanService
}

func NewZanHandler(svc *service.ZanService) *ZanHandler {
	return &ZanHandler{svc: svc}
}

func target(c *gin.Context) (model.ZanType, uint64, bool) {
	t := model.ZanType(c.Param("type"))
	if !t.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid type"})
		return "", 0, false
	}
	id, ok := idParam(c)
	return t, id, ok
}

// Like 点赞
func (h *ZanHandler) Like(c *gin.Context) {
	t, id, ok := target(c)
	if !ok {
		return
	}
	changed, err := h.svc.Like(c.Request.Context(), middleware.CurrentUser(c), t, id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// Cancel 取消点赞
func (h *ZanHandler) Cancel(c *gin.Context) {
	t, id, ok := target(c)
	if !ok {
		return
	}
	changed, err := h.svc.Cancel(c.Request.Context(), middleware.CurrentUser(c), t, id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// Status 点赞数，登录时附带是否已赞
func (h *ZanHandler) Status(c *gin.Context) {
	t, id, ok := target(c)
	if !ok {
		return
	}
	cnt, err := h.svc.Count(c.Request.Context(), t, id)
	if err != nil {
		writeErr(c, err)
		return
	}
	resp := gin.H{"count": cnt}
	if viewer := middleware.CurrentUser(c); viewer.IsAuthenticated() {
		liked, err := h.svc.IsLiked(c.Request.Context(), viewer, t, id)
		if err != nil {
			writeErr(c, err)
			return
		}
		resp["liked"] = liked
	}
	c.JSON(http.StatusOK, resp)
}
