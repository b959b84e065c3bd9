package service

import (
	"context"
	"errors"
	"log"
	"time"

	"StudyRoom/internal/model"
	"StudyRoom/internal/pkg"
	"StudyRoom/internal/repository/mysql"

	"gorm.io/gorm"
)

type FollowService struct {
	repo    *mysql.FollowRepository
	users   *mysql.UserRepository
	perPage int
}

// FollowCountReconciler 用户关注对账计数器
type FollowCountReconciler struct {
	repo      *mysql.FollowCountReconcilerRepo
	batchSize int
	interval  time.Duration
}

type Sender func(ctx context.Context, ob *model.SocialOutbox) error

// OutboxRelayer outbox表相关服务
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	maxRetry  int
	interval  time.Duration
	sender    Sender
}

func NewFollowService(db *gorm.DB, perPage int) *FollowService {
	return &FollowService{
		repo:    &mysql.FollowRepository{DB: db},
		users:   &mysql.UserRepository{DB: db},
		perPage: perPage,
	}
}

func NewOutboxRelayer(db *gorm.DB, sender Sender) *OutboxRelayer {
	if sender == nil {
		sender = LogSender
	}
	return &OutboxRelayer{
		repo:      &mysql.OutboxRepository{DB: db},
		batchSize: 200,
		maxRetry:  5,
		interval:  time.Second,
		sender:    sender,
	}
}

func NewFollowCountReconciler(db *gorm.DB) *FollowCountReconciler {
	return &FollowCountReconciler{
		repo:      &mysql.FollowCountReconcilerRepo{DB: db},
		batchSize: 500,             // 设置一次对账的大小
		interval:  5 * time.Minute, // 对账的间隔时间
	}
}

// FollowView 粉丝/关注列表项
type FollowView struct {
	UserID    uint64    `json:"user_id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Timestamp time.Time `json:"timestamp"`
}

type FollowPage struct {
	User    string       `json:"user"`
	List    []FollowView `json:"list"`
	Total   int64        `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
}

func (s *FollowService) target(ctx context.Context, username string) (*model.User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, mysql.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Follow 按用户名关注，重复关注返回 changed=false
func (s *FollowService) Follow(ctx context.Context, actor model.Principal, username string) (bool, error) {
	if err := requirePerm(actor, model.PermFollow); err != nil {
		return false, err
	}
	u, err := s.target(ctx, username)
	if err != nil {
		return false, err
	}
	return s.repo.Follow(ctx, actor.UserID(), u.ID)
}

func (s *FollowService) Unfollow(ctx context.Context, actor model.Principal, username string) (bool, error) {
	if err := requirePerm(actor, model.PermFollow); err != nil {
		return false, err
	}
	u, err := s.target(ctx, username)
	if err != nil {
		return false, err
	}
	return s.repo.Unfollow(ctx, actor.UserID(), u.ID)
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followedID uint64) (bool, error) {
	return s.repo.IsFollowing(ctx, followerID, followedID)
}

// IsFollowedBy a 是否被 b 关注
func (s *FollowService) IsFollowedBy(ctx context.Context, a, b uint64) (bool, error) {
	return s.repo.IsFollowing(ctx, b, a)
}

// Fans 粉丝列表
func (s *FollowService) Fans(ctx context.Context, username string, page int) (*FollowPage, error) {
	u, err := s.target(ctx, username)
	if err != nil {
		return nil, err
	}
	p := mysql.Page{Page: page, PerPage: s.perPage}
	rows, total, err := s.repo.ListFollowers(ctx, u.ID, p)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, u, rows, total, p, func(f model.Follow) uint64 { return f.FollowerID })
}

// Idols 关注列表
func (s *FollowService) Idols(ctx context.Context, username string, page int) (*FollowPage, error) {
	u, err := s.target(ctx, username)
	if err != nil {
		return nil, err
	}
	p := mysql.Page{Page: page, PerPage: s.perPage}
	rows, total, err := s.repo.ListFollowed(ctx, u.ID, p)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, u, rows, total, p, func(f model.Follow) uint64 { return f.FollowedID })
}

func (s *FollowService) page(ctx context.Context, owner *model.User, rows []model.Follow, total int64, p mysql.Page, pick func(model.Follow) uint64) (*FollowPage, error) {
	ids := make([]uint64, len(rows))
	for i, f := range rows {
		ids[i] = pick(f)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := &FollowPage{User: owner.Username, List: make([]FollowView, 0, len(rows)), Total: total, Page: p.Number(), PerPage: p.Limit()}
	for _, f := range rows {
		u, ok := users[pick(f)]
		if !ok {
			continue
		}
		out.List = append(out.List, FollowView{UserID: u.ID, Username: u.Username, Avatar: u.AvatarHash2, Timestamp: f.Timestamp})
	}
	return out, nil
}

// Run outbox启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// drainOnce 从数据库读取事件交给 sender 投递，返回成功条数
func (r *OutboxRelayer) drainOnce(ctx context.Context) int {
	rows, err := r.repo.List(ctx, r.batchSize, r.maxRetry)
	if err != nil {
		log.Printf("outbox query err: %v", err)
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			log.Printf("outbox send id=%d err: %v", ob.ID, err)
			if err = r.repo.RetryUpdate(ctx, ob.ID); err != nil {
				log.Printf("outbox retry update err: %v", err)
			}
			continue
		}
		if err = r.repo.SuccessUpdate(ctx, ob.ID); err != nil {
			log.Printf("outbox success update err: %v", err)
			continue
		}
		sent++
	}
	return sent
}

// LogSender 未配置 kafka 时使用
func LogSender(ctx context.Context, ob *model.SocialOutbox) error {
	log.Printf("OUTBOX SEND type=%s actor=%d target=%d payload=%s", ob.EventType, ob.ActorID, ob.TargetID, ob.Payload)
	return nil
}

// KafkaSender 同一用户的事件落在同一分区
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.SocialOutbox) error {
		return p.Publish(ctx, ob.ActorID, ob.EventType, []byte(ob.Payload))
	}
}

// ReconcilerRun 对账定时任务启动器
func (r *FollowCountReconciler) ReconcilerRun(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.reconcileOnce(ctx)
		}
	}
}

// reconcileOnce 按 id 游标扫完全部用户，返回修正的用户数
func (r *FollowCountReconciler) reconcileOnce(ctx context.Context) int {
	var lastID uint64
	fixed := 0
	for {
		users, next, err := r.repo.ReconcileList(ctx, r.batchSize, lastID)
		if err != nil {
			log.Printf("reconcile list err: %v", err)
			return fixed
		}
		if len(users) == 0 {
			return fixed
		}
		lastID = next

		for _, u := range users {
			// 先在follow表查询真实值，再和user表比对更新
			realFollowing, err := r.repo.RealFollowings(ctx, u.ID)
			if err != nil {
				continue
			}
			realFollower, err := r.repo.RealFollowers(ctx, u.ID)
			if err != nil {
				continue
			}
			if realFollowing == u.FollowingCount && realFollower == u.FollowerCount {
				continue
			}
			if err = r.repo.FixCounts(ctx, u.ID, realFollowing, realFollower); err != nil {
				log.Printf("reconcile fix user=%d err: %v", u.ID, err)
				continue
			}
			fixed++
		}
	}
}
