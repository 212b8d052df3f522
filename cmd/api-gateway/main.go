package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/eduportal-api/api/swagger"
	"github.com/noah-isme/eduportal-api/internal/handler"
	internalmiddleware "github.com/noah-isme/eduportal-api/internal/middleware"
	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
	"github.com/noah-isme/eduportal-api/internal/service"
	"github.com/noah-isme/eduportal-api/pkg/cache"
	"github.com/noah-isme/eduportal-api/pkg/config"
	"github.com/noah-isme/eduportal-api/pkg/database"
	"github.com/noah-isme/eduportal-api/pkg/jobs"
	"github.com/noah-isme/eduportal-api/pkg/logger"
	"github.com/noah-isme/eduportal-api/pkg/validation"
	corsmiddleware "github.com/noah-isme/eduportal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/eduportal-api/pkg/middleware/requestid"
)

// @title EduPortal API
// @version 1.0.0
// @description Role-scoped school dashboard: registration, sessions and visibility-filtered class data.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	validate := validation.New()
	metricsSvc := service.NewMetricsService()

	accountRepo := repository.NewAccountRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	scopeRepo := repository.NewScopeRepository(db)
	classRepo := repository.NewClassRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	hasher, err := service.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		logr.Sugar().Fatalw("invalid bcrypt cost", "error", err)
	}
	sessionSvc := service.NewSessionService(service.SessionConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		TTL:            cfg.JWT.Expiration,
		Revalidate:     cfg.Auth.Revalidate,
		ClaimsCacheTTL: cfg.Auth.ClaimsCacheTTL,
	}, accountRepo, cacheSvc, nil, logr)
	authSvc := service.NewAuthService(accountRepo, hasher, sessionSvc, metricsSvc, validate.Validate, logr)

	queue := jobs.NewQueue("registration", jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		Logger:     logr,
	})
	provisioner := service.NewProfileProvisioner(service.SchoolPolicy{
		DefaultSchoolID:     cfg.Registration.DefaultSchoolID,
		FirstSchoolFallback: cfg.Registration.FirstSchoolFallback,
	}, nil, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, accountRepo, hasher, provisioner, queue, metricsSvc, validate.Validate, logr, cfg.Registration.MaxAttempts)
	queue.Register(service.RegistrationJobType, registrationSvc.HandleRegistrationJob)

	visibilitySvc := service.NewVisibilityService(profileRepo, scopeRepo, cacheSvc, cfg.Auth.PrincipalCacheTTL, metricsSvc, logr)
	authSvc.RefreshOnLogin(sessionSvc, visibilitySvc)
	classSvc := service.NewClassService(classRepo, visibilitySvc, logr)
	lessonSvc := service.NewLessonService(lessonRepo, visibilitySvc, validate, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, visibilitySvc, validate, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, visibilitySvc, validate, nil, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, visibilitySvc, cacheSvc, logr)
	messageSvc := service.NewMessageService(notificationRepo, accountRepo, visibilitySvc, cacheSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, visibilitySvc, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Counter:    scopeRepo,
		Visibility: visibilitySvc,
		Cache:      cacheSvc,
		Logger:     logr,
		Config:     service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	authHandler := handler.NewAuthHandler(registrationSvc, authSvc, visibilitySvc)
	classHandler := handler.NewClassHandler(classSvc, visibilitySvc)
	lessonHandler := handler.NewLessonHandler(lessonSvc, visibilitySvc)
	assessmentHandler := handler.NewAssessmentHandler(assessmentSvc, visibilitySvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, visibilitySvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, messageSvc, visibilitySvc)
	studentHandler := handler.NewStudentHandler(studentSvc, visibilitySvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, visibilitySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.NoRoute(handler.NotFound)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.WithResponseMeta())

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(sessionSvc))
	audit := func(action, resource string) gin.HandlerFunc {
		return internalmiddleware.Audit(accountRepo, logr, action, resource)
	}
	teacherOnly := internalmiddleware.RequireRoles(models.RoleTeacher)
	graders := internalmiddleware.RequireRoles(models.RoleTeacher, models.RoleSchoolAdmin, models.RoleDistrictAdmin)

	secured.GET("/auth/me", authHandler.Me)

	secured.GET("/classes", classHandler.List)
	secured.GET("/classes/:id", classHandler.Get)

	secured.GET("/lessons", lessonHandler.List)
	secured.POST("/lessons", teacherOnly, audit(models.AuditActionLessonCreate, "lesson"), lessonHandler.Create)
	secured.PUT("/lessons/:id", graders, audit(models.AuditActionLessonUpdate, "lesson"), lessonHandler.Update)

	secured.GET("/assessments", assessmentHandler.List)
	secured.POST("/assessments", teacherOnly, audit(models.AuditActionAssessmentCreate, "assessment"), assessmentHandler.Create)
	secured.GET("/assessments/:id/submissions", assessmentHandler.ListSubmissions)
	secured.POST("/assessments/:id/submissions", internalmiddleware.RequireRoles(models.RoleStudent), audit(models.AuditActionSubmit, "assessment"), assessmentHandler.Submit)
	secured.PUT("/submissions/:id/grade", graders, audit(models.AuditActionGrade, "submission"), assessmentHandler.Grade)

	secured.GET("/attendance", attendanceHandler.List)
	secured.POST("/attendance", teacherOnly, audit(models.AuditActionAttendance, "attendance"), attendanceHandler.Mark)
	secured.GET("/attendance/export", attendanceHandler.Export)

	secured.GET("/notifications", notificationHandler.List)
	secured.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
	secured.GET("/messages", notificationHandler.ListMessages)
	secured.POST("/messages", audit(models.AuditActionMessageSend, "message"), notificationHandler.SendMessage)

	secured.GET("/students", studentHandler.List)
	secured.GET("/dashboard", dashboardHandler.Summary)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	defer queue.Stop()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
