package app

import (
	"sharklearning_backend/docs"
	"sharklearning_backend/internal/config"
	"sharklearning_backend/internal/middleware"
	"sharklearning_backend/internal/model"
	"sharklearning_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		// 学习进度
		authGroup.GET("/progress/overview", c.progress.GetOverview)
		authGroup.GET("/progress/courses/:courseId", c.progress.GetCourseProgress)
		authGroup.PUT("/progress/courses/:courseId", c.progress.UpdateCourseProgress)

		// 成就/排行榜
		authGroup.GET("/achievements", c.achievement.ListAchievements)
		authGroup.GET("/achievements/me", c.achievement.GetUserAchievements)
		authGroup.GET("/achievements/leaderboard", c.achievement.GetLeaderboard)

		// 测验
		authGroup.GET("/courses/:courseId/quizzes", c.quiz.ListForCourse)
		authGroup.GET("/quizzes/:quizId", c.quiz.GetQuizForTaking)
		authGroup.POST("/quizzes/:quizId/attempts", c.quiz.SubmitAttempt)
		authGroup.GET("/quizzes/:quizId/attempts", c.quiz.GetAttempts)

		// 管理接口
		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.Teacher, model.Admin))
		{
			admin.POST("/achievements/reconcile", c.achievement.Reconcile)
		}
	}
}
