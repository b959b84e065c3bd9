package service

import (
	"errors"

	"StudyRoom/internal/model"
)

var (
	ErrUnauthenticated    = errors.New("login required")
	ErrNoPermission       = errors.New("permission denied")
	ErrUnconfirmed        = errors.New("account not confirmed")
	ErrUserNotFound       = errors.New("user not found")
	ErrPostNotFound       = errors.New("post not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWrongPassword      = errors.New("password is incorrect")
	ErrInvalidToken       = errors.New("the link is invalid or has expired")
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmptyBody          = errors.New("body required")
	ErrRoleMissing        = errors.New("role missing, run role seeding first")
	ErrFileNotAllowed     = errors.New("file type not allowed")
	ErrFileNotFound       = errors.New("file not found")
)

// requirePerm 登录且具备 perm
func requirePerm(p model.Principal, perm model.Permission) error {
	if p == nil || !p.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if !p.Can(perm) {
		return ErrNoPermission
	}
	return nil
}

// ownerOrAdmin 作者本人或管理员
func ownerOrAdmin(p model.Principal, ownerID uint64) error {
	if p == nil || !p.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if p.UserID() != ownerID && !p.IsAdministrator() {
		return ErrNoPermission
	}
	return nil
}
