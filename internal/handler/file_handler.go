package handler

import (
	"net/http"

	"StudyRoom/internal/middleware"
	"StudyRoom/internal/service"

	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	svc *service.FileService
}

func NewFileHandler(svc *service.FileService) *FileHandler {
	return &FileHandler{svc: svc}
}

// UploadAvatar 表单字段 file
func (h *FileHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "no file part"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "open upload failed"})
		return
	}
	defer f.Close()

	path, err := h.svc.UploadAvatar(c.Request.Context(), middleware.AuthedUser(c), fh.Filename, f)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar": path})
}

func (h *FileHandler) Download(c *gin.Context) {
	name := c.Param("filename")
	full, err := h.svc.Resolve(name)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.FileAttachment(full, name)
}
