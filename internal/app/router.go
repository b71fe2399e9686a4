package app

import (
	"staff_portal_backend/docs"
	"staff_portal_backend/internal/config"
	"staff_portal_backend/internal/middleware"
	"staff_portal_backend/internal/model"
	"staff_portal_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.Check)

	api := router.Group("/api")

	// Public
	api.POST("/auth/login", c.auth.Login)

	// Authenticated staff surface
	auth := api.Group("")
	auth.Use(middleware.AuthMiddleware(cfg))
	{
		auth.GET("/auth/profile", c.auth.Profile)

		surveys := auth.Group("/surveys")
		{
			surveys.GET("", c.survey.List)
			surveys.GET("/:id", c.survey.Get)
			surveys.POST("/:id/start", c.survey.Start)
			surveys.PUT("/:id/submissions/:submissionId", c.survey.Submit)
			surveys.GET("/:id/certificate", c.survey.Certificate)
		}

		courses := auth.Group("/courses")
		{
			courses.GET("", c.course.List)
			courses.GET("/:id", c.course.Get)
			courses.GET("/:id/progress", c.course.GetProgress)
			courses.POST("/:id/progress/start", c.course.Start)
			courses.POST("/:id/progress/advance", c.course.Advance)
			courses.POST("/:id/progress/retreat", c.course.Retreat)
			courses.POST("/:id/progress/quiz", c.course.SubmitQuiz)
			courses.POST("/:id/progress/exam", c.course.SubmitExam)
		}
	}

	// Authoring and reporting
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/surveys", c.admin.CreateSurvey)
		admin.GET("/surveys", c.admin.ListSurveys)
		admin.PUT("/surveys/:id/active", c.admin.SetSurveyActive)
		admin.GET("/surveys/:id/analytics", c.admin.SurveyAnalytics)

		admin.POST("/courses", c.admin.CreateCourse)
		admin.GET("/courses", c.admin.ListCourses)
	}
}
