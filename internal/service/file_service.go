package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"StudyRoom/internal/model"
	"StudyRoom/internal/repository/mysql"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var allowedExtensions = map[string]bool{
	"txt": true, "pdf": true, "png": true, "jpg": true, "jpeg": true, "gif": true,
}

var avatarExtensions = map[string]bool{"png": true, "jpg": true, "jpeg": true, "gif": true}

type FileService struct {
	users       *mysql.UserRepository
	uploadDir   string
	downloadDir string
}

func NewFileService(db *gorm.DB, uploadDir, downloadDir string) *FileService {
	return &FileService{
		users:       &mysql.UserRepository{DB: db},
		uploadDir:   uploadDir,
		downloadDir: downloadDir,
	}
}

// UploadDir 头像存放目录，由路由挂到 /static/images
func (s *FileService) UploadDir() string {
	return s.uploadDir
}

func extOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// AllowedFile 扩展名白名单
func AllowedFile(name string) bool {
	return allowedExtensions[extOf(name)]
}

// UploadAvatar 以 uuid 重命名保存，头像路径相对静态目录
func (s *FileService) UploadAvatar(ctx context.Context, user *model.User, filename string, src io.Reader) (string, error) {
	ext := extOf(filename)
	if !AllowedFile(filename) || !avatarExtensions[ext] {
		return "", ErrFileNotAllowed
	}
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + "." + ext
	dst, err := os.Create(filepath.Join(s.uploadDir, name))
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", err
	}
	if err = dst.Close(); err != nil {
		return "", err
	}

	rel := "images/" + name
	if err = s.users.UpdateFields(ctx, user.ID, map[string]any{
		"avatar_hash":   rel,
		"avatar_hash_2": rel,
	}); err != nil {
		_ = os.Remove(filepath.Join(s.uploadDir, name))
		return "", err
	}
	user.AvatarHash, user.AvatarHash2 = rel, rel
	return rel, nil
}

// Resolve 返回下载目录中的文件路径，拒绝目录穿越
func (s *FileService) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrFileNotFound
	}
	full := filepath.Join(s.downloadDir, name)
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", ErrFileNotFound
	}
	return full, nil
}
