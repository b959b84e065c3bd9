package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"StudyRoom/internal/pkg"
	"StudyRoom/internal/repository/redis"
	"StudyRoom/internal/service"

	"github.com/gin-gonic/gin"
)

// writeErr 业务错误映射为 HTTP 状态码
func writeErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, pkg.ErrTokenExpired),
		errors.Is(err, pkg.ErrTokenInvalid),
		errors.Is(err, pkg.ErrRefreshExpired),
		errors.Is(err, pkg.ErrRefreshInvalid):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrNoPermission),
		errors.Is(err, service.ErrUnconfirmed):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrFileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrUsernameTaken):
		status = http.StatusConflict
	case errors.Is(err, redis.ErrResendTooOften):
		status = http.StatusTooManyRequests
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrEmptyBody),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrFileNotAllowed):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Printf("%s %s err: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"msg": "internal error"})
		return
	}
	c.JSON(status, gin.H{"msg": err.Error()})
}

func idParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid id"})
		return 0, false
	}
	return id, true
}

// pageQuery 缺省为第 1 页
func pageQuery(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		return 1
	}
	return page
}
