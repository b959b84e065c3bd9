package service

import (
	"context"
	"errors"
	"strings"

	"StudyRoom/internal/model"
	"StudyRoom/internal/repository/mysql"

	"gorm.io/gorm"
)

type PostService struct {
	repo    *mysql.PostRepository
	users   *mysql.UserRepository
	zans    *mysql.ZanRepository
	perPage int
}

func NewPostService(db *gorm.DB, perPage int) *PostService {
	return &PostService{
		repo:    &mysql.PostRepository{DB: db},
		users:   &mysql.UserRepository{DB: db},
		zans:    &mysql.ZanRepository{DB: db},
		perPage: perPage,
	}
}

// PostView 列表展示用
type PostView struct {
	model.Post
	AuthorName string `json:"author_name"`
	ZanCount   int64  `json:"zan_count"`
}

type PostPage struct {
	Posts   []PostView `json:"posts"`
	Total   int64      `json:"total"`
	Page    int        `json:"page"`
	PerPage int        `json:"per_page"`
}

func (s *PostService) Write(ctx context.Context, actor model.Principal, body string) (*model.Post, error) {
	if err := requirePerm(actor, model.PermWrite); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}
	post := &model.Post{AuthorID: actor.UserID(), Body: body}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) Get(ctx context.Context, id uint64) (*model.Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, mysql.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	return post, err
}

// View 单个帖子带作者名和点赞数
func (s *PostService) View(ctx context.Context, id uint64) (*PostView, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.decorate(ctx, []model.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Edit 作者或管理员
func (s *PostService) Edit(ctx context.Context, actor model.Principal, id uint64, body string) (*model.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = ownerOrAdmin(actor, post.AuthorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}
	if err = s.repo.UpdateBody(ctx, post, body); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, actor model.Principal, id uint64) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err = ownerOrAdmin(actor, post.AuthorID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, post.ID)
}

// SetTop 置顶或取消置顶
func (s *PostService) SetTop(ctx context.Context, actor model.Principal, id uint64, top bool) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err = ownerOrAdmin(actor, post.AuthorID); err != nil {
		return err
	}
	return s.repo.SetTop(ctx, post.ID, top)
}

// Index 首页；followedOnly 只看关注的人（含自己）
func (s *PostService) Index(ctx context.Context, actor model.Principal, followedOnly bool, page int) (*PostPage, error) {
	p := mysql.Page{Page: page, PerPage: s.perPage}
	var (
		list  []model.Post
		total int64
		err   error
	)
	if followedOnly {
		if actor == nil || !actor.IsAuthenticated() {
			return nil, ErrUnauthenticated
		}
		list, total, err = s.repo.ListFollowed(ctx, actor.UserID(), p)
	} else {
		list, total, err = s.repo.ListAll(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	return s.page(ctx, list, total, p)
}

// ListByAuthor 个人主页帖子，置顶优先
func (s *PostService) ListByAuthor(ctx context.Context, username string, page int) (*PostPage, error) {
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, mysql.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	p := mysql.Page{Page: page, PerPage: s.perPage}
	list, total, err := s.repo.ListByAuthor(ctx, author.ID, p)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, list, total, p)
}

func (s *PostService) Search(ctx context.Context, keyword string) ([]PostView, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrInvalidInput
	}
	list, err := s.repo.Search(ctx, keyword)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, list)
}

func (s *PostService) page(ctx context.Context, list []model.Post, total int64, p mysql.Page) (*PostPage, error) {
	views, err := s.decorate(ctx, list)
	if err != nil {
		return nil, err
	}
	return &PostPage{Posts: views, Total: total, Page: p.Number(), PerPage: p.Limit()}, nil
}

func (s *PostService) decorate(ctx context.Context, list []model.Post) ([]PostView, error) {
	views := make([]PostView, len(list))
	if len(list) == 0 {
		return views, nil
	}
	authorIDs := make([]uint64, 0, len(list))
	postIDs := make([]uint64, 0, len(list))
	for _, p := range list {
		authorIDs = append(authorIDs, p.AuthorID)
		postIDs = append(postIDs, p.ID)
	}
	authors, err := s.users.FindByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	counts, err := s.zans.CountByTargets(ctx, model.ZanPost, postIDs)
	if err != nil {
		return nil, err
	}
	for i, p := range list {
		views[i] = PostView{Post: p, ZanCount: counts[p.ID]}
		if a, ok := authors[p.AuthorID]; ok {
			views[i].AuthorName = a.Username
		}
	}
	return views, nil
}
