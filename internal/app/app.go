package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staff_portal_backend/internal/config"
	"staff_portal_backend/internal/controller"
	"staff_portal_backend/internal/repository"
	"staff_portal_backend/internal/service"
	"staff_portal_backend/pkg/database"
	"staff_portal_backend/pkg/logger"
	"staff_portal_backend/pkg/monitoring"
	"staff_portal_backend/pkg/security"
	"staff_portal_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services

	bgCancel context.CancelFunc
}

type repositories struct {
	user        *repository.UserRepository
	survey      *repository.SurveyRepository
	submission  *repository.SubmissionRepository
	course      *repository.CourseRepository
	progress    *repository.ProgressRepository
	analytics   *repository.AnalyticsRepository
	certificate *repository.CertificateRepository
}

type services struct {
	auth        *service.AuthService
	survey      *service.SurveyService
	course      *service.CourseService
	analytics   *service.AnalyticsService
	certificate *service.CertificateService
	storage     service.StorageProvider
}

type controllers struct {
	auth   *controller.AuthController
	survey *controller.SurveyController
	course *controller.CourseController
	admin  *controller.AdminController
	health *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		survey:      repository.NewSurveyRepository(db),
		submission:  repository.NewSubmissionRepository(db),
		course:      repository.NewCourseRepository(db),
		progress:    repository.NewProgressRepository(db),
		analytics:   repository.NewAnalyticsRepository(db),
		certificate: repository.NewCertificateRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageProvider(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.analytics = service.NewAnalyticsService(repos.analytics, repos.survey, repos.submission, rdb, cfg.Analytics.QueueKey)
	s.survey = service.NewSurveyService(repos.survey, repos.submission, s.analytics)
	s.course = service.NewCourseService(repos.course, repos.progress, service.LogCompletionNotifier{})
	s.certificate = service.NewCertificateService(repos.certificate, repos.survey, repos.submission, repos.user, s.storage, service.HTMLCertificateRenderer{})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:   controller.NewAuthController(s.auth),
		survey: controller.NewSurveyController(s.survey, s.certificate),
		course: controller.NewCourseController(s.course),
		admin:  controller.NewAdminController(s.survey, s.course, s.analytics),
		health: controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests,
		time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks launches the analytics queue worker, the periodic
// analytics catch-up pass, and the deadline sweeper for timed attempts.
func (a *App) startBackgroundTasks(s *services) {
	ctx, cancel := context.WithCancel(context.Background())
	a.bgCancel = cancel

	go s.analytics.RunWorker(ctx)

	catchUp := time.Duration(a.Config.Analytics.RecomputeMinutes) * time.Minute
	go s.analytics.RunCatchUp(ctx, catchUp)

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.survey.SweepExpired(); err != nil {
					logger.Log.Error("deadline sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.MigrateOnly {
		logger.Log.Info("Migration complete, exiting")
		os.Exit(0)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("staff-portal", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/files", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.bgCancel != nil {
		a.bgCancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Log.Sync()
	log.Println("Server exiting")
}
