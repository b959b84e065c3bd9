package router

import (
	"time"

	"StudyRoom/internal/handler"
	"StudyRoom/internal/middleware"
	"StudyRoom/internal/model"
	"StudyRoom/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Services 路由依赖的业务服务
type Services struct {
	Users    *service.UserService
	Posts    *service.PostService
	Comments *service.CommentService
	Zans     *service.ZanService
	Follows  *service.FollowService
	Files    *service.FileService
}

func InitRouter(s Services, corsOrigins []string) *gin.Engine {
	r := gin.Default()
	if len(corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 头像路径形如 images/<uuid>.png
	r.Static("/static/images", s.Files.UploadDir())

	user := handler.NewUserHandler(s.Users, s.Follows)
	email := handler.NewEmailHandler(s.Users)
	post := handler.NewPostHandler(s.Posts, s.Comments)
	comment := handler.NewCommentHandler(s.Comments)
	zan := handler.NewZanHandler(s.Zans)
	follow := handler.NewFollowHandler(s.Follows)
	file := handler.NewFileHandler(s.Files)

	authed := middleware.AuthMiddleware(s.Users)

	// 账户相关接口，未确认邮箱也可访问
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", user.Register)
		authGroup.POST("/login", user.Login)
		authGroup.POST("/refresh", user.TokenRefresh)
		authGroup.POST("/reset", email.ResetRequest)
		authGroup.POST("/reset/:token", email.Reset)
	}
	accountGroup := r.Group("/api/auth")
	accountGroup.Use(authed)
	{
		accountGroup.POST("/logout", user.Logout)
		accountGroup.GET("/confirm/:token", email.Confirm)
		accountGroup.POST("/confirm", email.ResendConfirmation)
		accountGroup.POST("/change-password", user.ChangePassword)
		accountGroup.POST("/change-email", email.ChangeEmailRequest)
		accountGroup.GET("/change-email/:token", email.ChangeEmail)
	}

	// 浏览接口，登录可选
	public := r.Group("/api")
	public.Use(middleware.OptionalAuth(s.Users), middleware.ConfirmedRequired())
	{
		public.GET("/posts", post.Index)
		public.GET("/posts/:id", post.Get)
		public.GET("/posts/:id/comments", comment.ListByPost)
		public.GET("/users/:username", user.Profile)
		public.GET("/users/:username/posts", post.ListByAuthor)
		public.GET("/users/:username/fans", follow.Fans)
		public.GET("/users/:username/idols", follow.Idols)
		public.GET("/zan/:type/:id", zan.Status)
	}

	// 需要登录且已确认
	api := r.Group("/api")
	api.Use(authed, middleware.ConfirmedRequired())
	{
		api.PUT("/profile", user.EditProfile)
		api.POST("/profile/avatar", file.UploadAvatar)
		api.GET("/files/:filename", file.Download)
		api.GET("/search", post.Search)

		api.POST("/posts", middleware.PermissionRequired(model.PermWrite), post.Write)
		api.PUT("/posts/:id", post.Edit)
		api.DELETE("/posts/:id", post.Delete)
		api.POST("/posts/:id/top", post.Top)
		api.DELETE("/posts/:id/top", post.Untop)

		commentPerm := middleware.PermissionRequired(model.PermComment)
		api.POST("/posts/:id/comments", commentPerm, comment.Comment)
		api.POST("/comments/:id/reply", commentPerm, comment.Reply)
		api.DELETE("/comments/:id", commentPerm, comment.Cancel)

		zanPerm := middleware.PermissionRequired(model.PermZan)
		api.POST("/zan/:type/:id", zanPerm, zan.Like)
		api.DELETE("/zan/:type/:id", zanPerm, zan.Cancel)

		followPerm := middleware.PermissionRequired(model.PermFollow)
		api.POST("/follow/:username", followPerm, follow.Follow)
		api.DELETE("/follow/:username", followPerm, follow.Unfollow)
	}

	moderate := r.Group("/api/moderate")
	moderate.Use(authed, middleware.ConfirmedRequired(), middleware.PermissionRequired(model.PermModerate))
	{
		moderate.GET("/comments", comment.Moderate)
		moderate.POST("/comments/:id/enable", comment.Enable)
		moderate.POST("/comments/:id/disable", comment.Disable)
	}

	admin := r.Group("/api/admin")
	admin.Use(authed, middleware.ConfirmedRequired(), middleware.AdminRequired())
	{
		admin.GET("/roles", user.Roles)
		admin.PUT("/users/:id", user.EditProfileAdmin)
	}

	return r
}
