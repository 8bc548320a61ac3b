package app

import (
	"context"
	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/controller"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/configwatcher"
	"exam_portal_backend/pkg/database"
	"exam_portal_backend/pkg/logger"
	"exam_portal_backend/pkg/monitoring"
	"exam_portal_backend/pkg/security"
	"exam_portal_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigDir 默认配置目录，热更新监听其中的 config.yaml
const ConfigDir = "configs"

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	Services *Services
	// 配置文件所在目录，Run 时监听其中的 config.yaml
	ConfigDir string

	tracer          *sdktrace.TracerProvider
	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	exam       *repository.ExamRepository
	examCache  *repository.ExamCacheRepository
	student    *repository.StudentRepository
	submission *repository.SubmissionRepository
}

// Services 导出给命令行工具复用
type Services struct {
	Auth       *service.AuthService
	Exam       *service.ExamService
	Submission *service.SubmissionService
	Grading    *service.GradingService
	Storage    *service.StorageService
	Export     *service.ExportService
}

type controllers struct {
	auth      *controller.AuthController
	exam      *controller.ExamController
	adminExam *controller.AdminExamController
	grade     *controller.GradeController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 把重新加载的配置分发给各个回调
func (a *App) ApplyConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		exam:       repository.NewExamRepository(db),
		examCache:  repository.NewExamCacheRepository(rdb),
		student:    repository.NewStudentRepository(db),
		submission: repository.NewSubmissionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) (*Services, error) {
	storage, err := service.NewStorageService(&cfg.Storage)
	if err != nil {
		return nil, err
	}

	exam := service.NewExamService(repos.exam, repos.submission, repos.examCache)
	exam.SetDeliveryPolicy(cfg.Exam.ExposeOptions, cfg.Exam.CacheTTL())

	return &Services{
		Auth:       service.NewAuthService(repos.user, cfg.JWT.Secret, cfg.JWT.ExpireTime),
		Exam:       exam,
		Submission: service.NewSubmissionService(db, repos.exam, repos.student, repos.submission),
		Grading:    service.NewGradingService(db, repos.submission, cfg.Grading.RequireComplete),
		Storage:    storage,
		Export:     service.NewExportService(repos.exam, repos.submission, storage),
	}, nil
}

func (a *App) initControllers(s *Services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.Auth),
		exam:      controller.NewExamController(s.Exam, s.Submission),
		adminExam: controller.NewAdminExamController(s.Exam, s.Submission, s.Export),
		grade:     controller.NewGradeController(s.Grading),
		health:    controller.NewHealthController(db, rdb),
	}
}

// registerConfigCallbacks 只有评分与出卷策略支持热更新
func (a *App) registerConfigCallbacks(s *Services) {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.Grading.SetRequireComplete(cfg.Grading.RequireComplete)
		s.Exam.SetDeliveryPolicy(cfg.Exam.ExposeOptions, cfg.Exam.CacheTTL())
		logger.Log.Info("Grading and delivery policy updated",
			zap.Bool("requireComplete", cfg.Grading.RequireComplete),
			zap.Bool("exposeOptions", cfg.Exam.ExposeOptions),
			zap.Int("cacheTTLSeconds", cfg.Exam.CacheTTLSeconds),
		)
	})
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 在已建立的数据库/缓存连接上组装服务与路由
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*App, error) {
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	util.RegisterValidators()
	monitoring.Init()

	repos := app.initRepositories(db, rdb)
	services, err := app.initServices(repos, cfg, db)
	if err != nil {
		return nil, err
	}
	app.Services = services
	app.registerConfigCallbacks(services)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, app.initControllers(services, db, rdb), cfg)

	return app, nil
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 缓存只是加速，连不上时退回直接读库
		logger.Log.Warn("Redis unavailable, exam cache disabled", zap.Error(err))
		rdb = nil
	}

	app, err := New(cfg, db, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize application", zap.Error(err))
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		dir := a.ConfigDir
		if dir == "" {
			dir = ConfigDir
		}
		configFile := filepath.Join(dir, "config.yaml")
		if err := configwatcher.WatchConfig(watchCtx, configFile, a.ApplyConfig); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	stopWatch()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Log.Info("Server exiting")
}
