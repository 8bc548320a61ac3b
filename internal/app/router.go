package app

import (
	"exam_portal_backend/docs"
	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/middleware"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 学生端接口(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 后台接口
	a.registerAdminRoutes(router, c, cfg)
}

// 学生端前端请求带结尾斜杠，两种写法都注册，避免 301 重定向丢失 POST 请求体
func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	router.RedirectTrailingSlash = false

	router.GET("/", c.exam.Index)

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		api.GET("/exam/:id", c.exam.GetExam)
		api.GET("/exam/:id/", c.exam.GetExam)
		api.POST("/submit/:id", c.exam.Submit)
		api.POST("/submit/:id/", c.exam.Submit)
		api.POST("/check/:id", c.exam.CheckStatus)
		api.POST("/check/:id/", c.exam.CheckStatus)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.POST("/api/admin/login", c.auth.Login)

	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RoleMiddleware(model.Grader))
	{
		admin.GET("/me", c.auth.Me)

		admin.GET("/exams", c.adminExam.ListExams)
		admin.GET("/exams/:id", c.adminExam.GetExam)
		admin.GET("/exams/:id/submissions", c.adminExam.ListSubmissions)
		admin.POST("/exams/:id/export", c.adminExam.ExportResults)
		admin.GET("/students", c.adminExam.ListStudents)
		admin.GET("/exports/*object", c.adminExam.DownloadExport)

		admin.GET("/submissions/:id", c.grade.GetSubmission)
		admin.PUT("/submissions/:id/grade", c.grade.Grade)

		// 只有管理员可以增删考试
		adminOnly := admin.Group("")
		adminOnly.Use(middleware.RoleMiddleware(model.Admin))
		{
			adminOnly.POST("/exams", c.adminExam.CreateExam)
			adminOnly.DELETE("/exams/:id", c.adminExam.DeleteExam)
			adminOnly.DELETE("/exports/*object", c.adminExam.DeleteExport)
		}
	}
}
