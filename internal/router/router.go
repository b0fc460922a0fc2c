package router

import (
	"embed"
	"html/template"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/handler"
)

//go:embed templates/*.html
var templateFS embed.FS

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig) *gin.Engine {
	r, _ := New(cfg)
	return r
}

// New 返回引擎和底层的 API 集合，测试可以借此替换外部客户端
func New(cfg config.AppConfig) (*gin.Engine, *handler.API) {
	r := gin.Default()

	// 配置会话中间件：会话只承载 session_id 与 Key 覆盖值
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("habitlog_session", store))

	// 模板随二进制打包，避免依赖工作目录
	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := handler.NewAPI(db.DB, cfg)

	r.GET("/", api.ShowDashboard)

	group := r.Group("/api")
	{
		group.POST("/checkin", api.CheckIn)
		group.POST("/report", api.GenerateReport)
	}

	return r, api
}
