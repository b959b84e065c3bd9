package service

import (
	"context"
	"errors"
	"strings"

	"StudyRoom/internal/model"
	"StudyRoom/internal/repository/mysql"

	"gorm.io/gorm"
)

// LastPage 页码传 -1 表示最后一页
const LastPage = -1

type CommentService struct {
	repo            *mysql.CommentRepository
	posts           *mysql.PostRepository
	users           *mysql.UserRepository
	zans            *mysql.ZanRepository
	perPage         int
	moderatePerPage int
}

func NewCommentService(db *gorm.DB, perPage, moderatePerPage int) *CommentService {
	return &CommentService{
		repo:            &mysql.CommentRepository{DB: db},
		posts:           &mysql.PostRepository{DB: db},
		users:           &mysql.UserRepository{DB: db},
		zans:            &mysql.ZanRepository{DB: db},
		perPage:         perPage,
		moderatePerPage: moderatePerPage,
	}
}

type CommentView struct {
	model.Comment
	AuthorName  string `json:"author_name"`
	Floor       int    `json:"floor"`
	RelayedName string `json:"relayed_name,omitempty"`
	ZanCount    int64  `json:"zan_count"`
}

type CommentPage struct {
	Comments []CommentView `json:"comments"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PerPage  int           `json:"per_page"`
}

// Comment 直接评论帖子
func (s *CommentService) Comment(ctx context.Context, actor model.Principal, postID uint64, body string) (*model.Comment, error) {
	if err := requirePerm(actor, model.PermComment); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}
	c := &model.Comment{AuthorID: actor.UserID(), Body: body}
	if err := s.repo.CreateUnderPost(ctx, c, postID); err != nil {
		if errors.Is(err, mysql.ErrParentNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return c, nil
}

// Reply 回复评论，新评论属于被回复评论所在的帖子
func (s *CommentService) Reply(ctx context.Context, actor model.Principal, commentID uint64, body string) (*model.Comment, error) {
	if err := requirePerm(actor, model.PermComment); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}
	c := &model.Comment{AuthorID: actor.UserID(), Body: body}
	if err := s.repo.CreateReply(ctx, c, commentID); err != nil {
		if errors.Is(err, mysql.ErrParentNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return c, nil
}

// Cancel 删除评论，仅作者或协管员
func (s *CommentService) Cancel(ctx context.Context, actor model.Principal, commentID uint64) (*model.Comment, error) {
	if err := requirePerm(actor, model.PermComment); err != nil {
		return nil, err
	}
	c, err := s.get(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != actor.UserID() && !actor.Can(model.PermModerate) {
		return nil, ErrNoPermission
	}
	if err = s.repo.Delete(ctx, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CommentService) get(ctx context.Context, id uint64) (*model.Comment, error) {
	c, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, mysql.ErrNotFound) {
		return nil, ErrCommentNotFound
	}
	return c, err
}

// ListByPost 楼层正序分页，附带楼层号、被回复者和点赞数
func (s *CommentService) ListByPost(ctx context.Context, postID uint64, page int) (*CommentPage, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, mysql.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	total, err := s.repo.CountByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	p := mysql.Page{Page: page, PerPage: s.perPage}
	if page == LastPage {
		p.Page = int((total-1)/int64(p.Limit())) + 1
	}
	list, err := s.repo.ListByPost(ctx, post.ID, p)
	if err != nil {
		return nil, err
	}

	out := &CommentPage{Comments: make([]CommentView, len(list)), Total: total, Page: p.Number(), PerPage: p.Limit()}
	if len(list) == 0 {
		return out, nil
	}

	ids := make([]uint64, len(list))
	for i, c := range list {
		ids[i] = c.ID
	}
	edges, err := s.repo.EdgesByChildren(ctx, ids)
	if err != nil {
		return nil, err
	}
	authors, err := s.repo.AuthorsByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	counts, err := s.zans.CountByTargets(ctx, model.ZanComment, ids)
	if err != nil {
		return nil, err
	}

	relayed := make([]uint64, len(list))
	userIDs := []uint64{post.AuthorID}
	for i := range list {
		userIDs = append(userIDs, list[i].AuthorID)
		if who, ok := list[i].RelayedAuthor(edges, post.AuthorID, authors); ok {
			relayed[i] = who
			userIDs = append(userIDs, who)
		}
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for i, c := range list {
		v := CommentView{Comment: c, Floor: p.Offset() + i + 1, ZanCount: counts[c.ID]}
		if u, ok := users[c.AuthorID]; ok {
			v.AuthorName = u.Username
		}
		if u, ok := users[relayed[i]]; ok {
			v.RelayedName = u.Username
		}
		out.Comments[i] = v
	}
	return out, nil
}

// Moderate 协管员查看全部评论，时间倒序
func (s *CommentService) Moderate(ctx context.Context, actor model.Principal, page int) (*CommentPage, error) {
	if err := requirePerm(actor, model.PermModerate); err != nil {
		return nil, err
	}
	p := mysql.Page{Page: page, PerPage: s.moderatePerPage}
	list, total, err := s.repo.ListRecent(ctx, p)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, len(list))
	for i, c := range list {
		ids[i] = c.AuthorID
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := &CommentPage{Comments: make([]CommentView, len(list)), Total: total, Page: p.Number(), PerPage: p.Limit()}
	for i, c := range list {
		out.Comments[i] = CommentView{Comment: c}
		if u, ok := users[c.AuthorID]; ok {
			out.Comments[i].AuthorName = u.Username
		}
	}
	return out, nil
}

// SetDisabled 屏蔽或恢复评论
func (s *CommentService) SetDisabled(ctx context.Context, actor model.Principal, commentID uint64, disabled bool) error {
	if err := requirePerm(actor, model.PermModerate); err != nil {
		return err
	}
	err := s.repo.SetDisabled(ctx, commentID, disabled)
	if errors.Is(err, mysql.ErrNotFound) {
		return ErrCommentNotFound
	}
	return err
}
