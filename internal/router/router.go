package router

import (
	"net/http"

	"github.com/blogdesk/internal/handler"
	"github.com/blogdesk/internal/logging"
	"github.com/blogdesk/web"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "blogdesk_session"

// Options 描述路由需要的依赖。
type Options struct {
	API           *handler.API
	SessionSecret string
	UploadDir     string
	UploadURLPath string
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(logging.RequestID(), logging.Requests(), logging.Recovery())

	// 配置会话中间件，仅用于后台提示信息
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	// 静态文件服务
	r.StaticFS("/static", http.FS(web.Static()))
	if opts.UploadDir != "" && opts.UploadURLPath != "" {
		r.Static(opts.UploadURLPath, opts.UploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	api := opts.API
	r.GET("/", api.ShowHome)

	// 公开页面
	blog := r.Group("/Blog")
	{
		blog.GET("", api.ShowBlogList)
		blog.GET("/:id", api.ShowBlogDetail)
	}

	// 后台管理路由
	admin := r.Group("/Blog/BlogAdmin")
	{
		admin.GET("", api.ShowAdminList)
		admin.GET("/AddNewBlog", api.ShowNewPost)
		admin.POST("/AddNewBlog", api.CreatePost)
		admin.GET("/EditBlog/:id", api.ShowEditPost)
		admin.POST("/EditBlog/:id", api.UpdatePost)
		admin.POST("/delete/:id", api.DeletePost)
		admin.POST("/revalidate", api.RevalidateEdited)
	}

	// API路由
	apiGroup := r.Group("/api")
	{
		apiGroup.Any("/revalidate", api.Revalidate)
		apiGroup.GET("/blogs", api.GetBlogs)
		apiGroup.GET("/blogs/:id", api.GetBlog)
	}

	return r
}
